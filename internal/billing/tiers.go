// Package billing holds the money rules of the storefront: cash-discount and
// interest tiers, payment settlement, coupon discounts and scheme slabs.
// Nothing in here touches the database.
package billing

import (
	"fmt"
	"sort"
	"time"

	"canx-backend/internal/apperr"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

var hundred = decimal.NewFromInt(100)

// Tier is a half-open day range [Start, End) mapped to a percentage.
type Tier struct {
	ID    string
	Start int
	End   int
	Rate  decimal.Decimal
}

func (t Tier) Contains(days int) bool {
	return t.Start <= days && days < t.End
}

func (t Tier) overlaps(o Tier) bool {
	return t.Start < o.End && o.Start < t.End
}

// LookupRate returns the rate of the first tier containing ageDays.
func LookupRate(tiers []Tier, ageDays int) (decimal.Decimal, bool) {
	for _, t := range tiers {
		if t.Contains(ageDays) {
			return t.Rate, true
		}
	}
	return decimal.Zero, false
}

// ValidateTiers checks every tier on its own and then pairwise for overlaps.
// All problems are returned together.
func ValidateTiers(tiers []Tier) error {
	var err error

	for _, t := range tiers {
		if t.Start < 0 {
			err = multierr.Append(err, apperr.Validation("paymentStart %d must not be negative", t.Start))
		}
		if t.End <= t.Start {
			err = multierr.Append(err, apperr.Validation("paymentEnd %d must be greater than paymentStart %d", t.End, t.Start))
		}
		if t.Rate.IsNegative() || t.Rate.GreaterThan(hundred) {
			err = multierr.Append(err, apperr.Validation("rate %s must be between 0 and 100", t.Rate))
		}
	}
	if err != nil {
		return err
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for i := 1; i < len(sorted); i++ {
		for _, prev := range sorted[:i] {
			if prev.overlaps(sorted[i]) {
				err = multierr.Append(err, apperr.Validation("range %s overlaps %s", formatRange(sorted[i]), formatRange(prev)))
			}
		}
	}

	return err
}

// AgeDays is the number of whole days between from and at, never negative.
func AgeDays(from, at time.Time) int {
	d := at.Sub(from)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// Percent returns pct% of amount rounded to paise.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred).Round(2)
}

func formatRange(t Tier) string {
	return fmt.Sprintf("[%d, %d)", t.Start, t.End)
}
