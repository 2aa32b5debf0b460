package billing

import (
	"sort"
	"strings"
	"time"

	"canx-backend/internal/apperr"
	"canx-backend/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// QualifyingSlab scans the slabs in position order and returns the last one
// whose threshold is within totalSpent.
func QualifyingSlab(slabs []model.Slab, totalSpent decimal.Decimal) (model.Slab, bool) {
	ordered := make([]model.Slab, len(slabs))
	copy(ordered, slabs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	var (
		found model.Slab
		ok    bool
	)
	for _, s := range ordered {
		if s.Threshold.LessThanOrEqual(totalSpent) {
			found, ok = s, true
		}
	}
	return found, ok
}

// SchemeActive reports whether at falls inside the scheme window, both ends inclusive.
func SchemeActive(s *model.Scheme, at time.Time) bool {
	return !at.Before(s.SchemeStart) && !at.After(s.SchemeEnd)
}

func ValidateScheme(s *model.Scheme) error {
	var err error

	if strings.TrimSpace(s.Title) == "" {
		err = multierr.Append(err, apperr.Validation("title is required"))
	}
	if s.SchemeStart.IsZero() || s.SchemeEnd.IsZero() {
		err = multierr.Append(err, apperr.Validation("schemeStart and schemeEnd are required"))
	} else if s.SchemeEnd.Before(s.SchemeStart) {
		err = multierr.Append(err, apperr.Validation("schemeEnd must not be before schemeStart"))
	}
	if len(s.Slabs) == 0 {
		err = multierr.Append(err, apperr.Validation("at least one slab is required"))
	}

	prev := decimal.Zero
	for i, slab := range s.Slabs {
		if !slab.Threshold.IsPositive() {
			err = multierr.Append(err, apperr.Validation("slab %d: threshold must be positive", i+1))
			continue
		}
		if i > 0 && !slab.Threshold.GreaterThan(prev) {
			err = multierr.Append(err, apperr.Validation("slab %d: threshold %s must exceed previous %s", i+1, slab.Threshold, prev))
		}
		if strings.TrimSpace(slab.Benefit) == "" {
			err = multierr.Append(err, apperr.Validation("slab %d: benefit is required", i+1))
		}
		prev = slab.Threshold
	}

	return err
}

// CouponDiscount returns the discount a coupon grants on subtotal at the given time.
func CouponDiscount(c *model.Coupon, subtotal decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	if !c.Active {
		return decimal.Zero, apperr.Validation("coupon %s is not active", c.Code)
	}
	if c.ExpiresAt != nil && at.After(*c.ExpiresAt) {
		return decimal.Zero, apperr.Validation("coupon %s has expired", c.Code)
	}
	if subtotal.LessThan(c.MinOrderValue) {
		return decimal.Zero, apperr.Validation("coupon %s needs a minimum order of %s", c.Code, c.MinOrderValue.StringFixed(2))
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case model.DiscountFlat:
		discount = c.Value
	case model.DiscountPercentage:
		discount = Percent(subtotal, c.Value)
		if c.MaxDiscount.IsPositive() {
			discount = decimal.Min(discount, c.MaxDiscount)
		}
	default:
		return decimal.Zero, apperr.Validation("coupon %s has unknown discount type %q", c.Code, c.DiscountType)
	}

	return decimal.Min(discount, subtotal), nil
}

// ValidateQuantity enforces the product's minimum order and pack increment.
func ValidateQuantity(p *model.Product, qty int) error {
	if qty <= 0 {
		return apperr.Validation("%s: quantity must be positive", p.Title)
	}
	if qty < p.MinQuantity {
		return apperr.Validation("%s: minimum quantity is %d", p.Title, p.MinQuantity)
	}
	if p.QuantityIncrement > 0 && (qty-p.MinQuantity)%p.QuantityIncrement != 0 {
		return apperr.Validation("%s: quantity must be %d plus multiples of %d", p.Title, p.MinQuantity, p.QuantityIncrement)
	}
	return nil
}
