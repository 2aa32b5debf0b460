package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"canx-backend/internal/apperr"
	"canx-backend/internal/billing"
	"canx-backend/internal/dto"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type CouponService interface {
	List(ctx context.Context) ([]*model.Coupon, error)
	Get(ctx context.Context, id string) (*model.Coupon, error)
	Create(ctx context.Context, req *dto.CouponRequest) (*model.Coupon, error)
	Update(ctx context.Context, id string, req *dto.CouponRequest) (*model.Coupon, error)
	Delete(ctx context.Context, id string) error
	// Validate checks that userID may still apply code and prices the discount on subtotal.
	Validate(ctx context.Context, code, userID string, subtotal decimal.Decimal) (*model.Coupon, decimal.Decimal, error)
}

type couponServiceImpl struct {
	couponRepo repository.CouponRepository
	userRepo   repository.UserRepository
	now        func() time.Time
}

func NewCouponService(couponRepo repository.CouponRepository, userRepo repository.UserRepository) CouponService {
	return &couponServiceImpl{
		couponRepo: couponRepo,
		userRepo:   userRepo,
		now:        time.Now,
	}
}

func validateCoupon(req *dto.CouponRequest) error {
	var err error
	if strings.TrimSpace(req.Code) == "" {
		err = multierr.Append(err, apperr.Validation("code is required"))
	}
	if !req.Value.IsPositive() {
		err = multierr.Append(err, apperr.Validation("value must be positive"))
	}
	switch req.DiscountType {
	case model.DiscountFlat:
	case model.DiscountPercentage:
		if req.Value.GreaterThan(decimal.NewFromInt(100)) {
			err = multierr.Append(err, apperr.Validation("percentage value must not exceed 100"))
		}
	default:
		err = multierr.Append(err, apperr.Validation("discountType %q is not one of flat, percentage", req.DiscountType))
	}
	if req.MinOrderValue.IsNegative() || req.MaxDiscount.IsNegative() {
		err = multierr.Append(err, apperr.Validation("minOrderValue and maxDiscount must not be negative"))
	}
	return err
}

func (s *couponServiceImpl) List(ctx context.Context) ([]*model.Coupon, error) {
	return s.couponRepo.List(ctx)
}

func (s *couponServiceImpl) Get(ctx context.Context, id string) (*model.Coupon, error) {
	return s.couponRepo.Get(ctx, id)
}

func (s *couponServiceImpl) save(ctx context.Context, coupon *model.Coupon, req *dto.CouponRequest) (*model.Coupon, error) {
	if err := validateCoupon(req); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	taken, err := s.couponRepo.CodeTaken(ctx, code, coupon.ID)
	if err != nil {
		return nil, fmt.Errorf("check coupon code: %w", err)
	}
	if taken {
		return nil, apperr.Conflict("coupon %s already exists", code)
	}

	coupon.Code = code
	coupon.DiscountType = req.DiscountType
	coupon.Value = req.Value
	coupon.MinOrderValue = req.MinOrderValue
	coupon.MaxDiscount = req.MaxDiscount
	coupon.ExpiresAt = req.ExpiresAt
	if req.Active != nil {
		coupon.Active = *req.Active
	}

	if coupon.ID == "" {
		err = s.couponRepo.Create(ctx, coupon)
	} else {
		err = s.couponRepo.Save(ctx, coupon)
	}
	if err != nil {
		return nil, fmt.Errorf("save coupon: %w", err)
	}
	return coupon, nil
}

func (s *couponServiceImpl) Create(ctx context.Context, req *dto.CouponRequest) (*model.Coupon, error) {
	return s.save(ctx, &model.Coupon{Active: true}, req)
}

func (s *couponServiceImpl) Update(ctx context.Context, id string, req *dto.CouponRequest) (*model.Coupon, error) {
	coupon, err := s.couponRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, coupon, req)
}

func (s *couponServiceImpl) Delete(ctx context.Context, id string) error {
	return s.couponRepo.Delete(ctx, id)
}

func (s *couponServiceImpl) Validate(ctx context.Context, code, userID string, subtotal decimal.Decimal) (*model.Coupon, decimal.Decimal, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, decimal.Zero, err
	}

	used, err := s.userRepo.HasCoupon(ctx, userID, coupon.ID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("check coupon usage: %w", err)
	}
	if used {
		return nil, decimal.Zero, apperr.Conflict("coupon %s was already applied", coupon.Code)
	}

	discount, err := billing.CouponDiscount(coupon, subtotal, s.now())
	if err != nil {
		return nil, decimal.Zero, err
	}
	return coupon, discount, nil
}
