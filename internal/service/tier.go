package service

import (
	"context"
	"fmt"

	"canx-backend/internal/billing"
	"canx-backend/internal/dto"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"

	"github.com/shopspring/decimal"
)

// Tables is a snapshot of both tier tables.
type Tables struct {
	Discounts []billing.Tier
	Interests []billing.Tier
}

// Rates returns the discount and interest rate for a payment ageDays into the cycle.
// A missing tier means a zero rate.
func (t Tables) Rates(ageDays int) (discount, interest decimal.Decimal) {
	discount, _ = billing.LookupRate(t.Discounts, ageDays)
	interest, _ = billing.LookupRate(t.Interests, ageDays)
	return discount, interest
}

type TierService interface {
	ListCashDiscounts(ctx context.Context) ([]*model.CashDiscount, error)
	CreateCashDiscount(ctx context.Context, req *dto.CashDiscountRequest) (*model.CashDiscount, error)
	UpdateCashDiscount(ctx context.Context, id string, req *dto.CashDiscountRequest) (*model.CashDiscount, error)
	DeleteCashDiscount(ctx context.Context, id string) error

	ListInterests(ctx context.Context) ([]*model.Interest, error)
	CreateInterest(ctx context.Context, req *dto.InterestRequest) (*model.Interest, error)
	UpdateInterest(ctx context.Context, id string, req *dto.InterestRequest) (*model.Interest, error)
	DeleteInterest(ctx context.Context, id string) error

	Tables(ctx context.Context) (Tables, error)
}

type tierServiceImpl struct {
	cashDiscountRepo repository.CashDiscountRepository
	interestRepo     repository.InterestRepository
}

func NewTierService(
	cashDiscountRepo repository.CashDiscountRepository,
	interestRepo repository.InterestRepository,
) TierService {
	return &tierServiceImpl{
		cashDiscountRepo: cashDiscountRepo,
		interestRepo:     interestRepo,
	}
}

func discountTiers(rows []*model.CashDiscount) []billing.Tier {
	tiers := make([]billing.Tier, len(rows))
	for i, r := range rows {
		tiers[i] = billing.Tier{ID: r.ID, Start: r.PaymentStart, End: r.PaymentEnd, Rate: r.Discount}
	}
	return tiers
}

func interestTiers(rows []*model.Interest) []billing.Tier {
	tiers := make([]billing.Tier, len(rows))
	for i, r := range rows {
		tiers[i] = billing.Tier{ID: r.ID, Start: r.PaymentStart, End: r.PaymentEnd, Rate: r.Interest}
	}
	return tiers
}

// withCandidate validates the table as it would look after writing candidate.
func withCandidate(existing []billing.Tier, candidate billing.Tier) error {
	next := make([]billing.Tier, 0, len(existing)+1)
	for _, t := range existing {
		if candidate.ID != "" && t.ID == candidate.ID {
			continue
		}
		next = append(next, t)
	}
	next = append(next, candidate)
	return billing.ValidateTiers(next)
}

func (s *tierServiceImpl) ListCashDiscounts(ctx context.Context) ([]*model.CashDiscount, error) {
	return s.cashDiscountRepo.List(ctx)
}

func (s *tierServiceImpl) CreateCashDiscount(ctx context.Context, req *dto.CashDiscountRequest) (*model.CashDiscount, error) {
	return s.saveCashDiscount(ctx, &model.CashDiscount{}, req)
}

func (s *tierServiceImpl) UpdateCashDiscount(ctx context.Context, id string, req *dto.CashDiscountRequest) (*model.CashDiscount, error) {
	row, err := s.cashDiscountRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.saveCashDiscount(ctx, row, req)
}

func (s *tierServiceImpl) saveCashDiscount(ctx context.Context, row *model.CashDiscount, req *dto.CashDiscountRequest) (*model.CashDiscount, error) {
	rows, err := s.cashDiscountRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	candidate := billing.Tier{ID: row.ID, Start: req.PaymentStart, End: req.PaymentEnd, Rate: req.Discount}
	if err := withCandidate(discountTiers(rows), candidate); err != nil {
		return nil, err
	}

	row.PaymentStart, row.PaymentEnd, row.Discount = req.PaymentStart, req.PaymentEnd, req.Discount
	if row.ID == "" {
		err = s.cashDiscountRepo.Create(ctx, row)
	} else {
		err = s.cashDiscountRepo.Save(ctx, row)
	}
	if err != nil {
		return nil, fmt.Errorf("save cash discount: %w", err)
	}
	return row, nil
}

func (s *tierServiceImpl) DeleteCashDiscount(ctx context.Context, id string) error {
	return s.cashDiscountRepo.Delete(ctx, id)
}

func (s *tierServiceImpl) ListInterests(ctx context.Context) ([]*model.Interest, error) {
	return s.interestRepo.List(ctx)
}

func (s *tierServiceImpl) CreateInterest(ctx context.Context, req *dto.InterestRequest) (*model.Interest, error) {
	return s.saveInterest(ctx, &model.Interest{}, req)
}

func (s *tierServiceImpl) UpdateInterest(ctx context.Context, id string, req *dto.InterestRequest) (*model.Interest, error) {
	row, err := s.interestRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.saveInterest(ctx, row, req)
}

func (s *tierServiceImpl) saveInterest(ctx context.Context, row *model.Interest, req *dto.InterestRequest) (*model.Interest, error) {
	rows, err := s.interestRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	candidate := billing.Tier{ID: row.ID, Start: req.PaymentStart, End: req.PaymentEnd, Rate: req.Interest}
	if err := withCandidate(interestTiers(rows), candidate); err != nil {
		return nil, err
	}

	row.PaymentStart, row.PaymentEnd, row.Interest = req.PaymentStart, req.PaymentEnd, req.Interest
	if row.ID == "" {
		err = s.interestRepo.Create(ctx, row)
	} else {
		err = s.interestRepo.Save(ctx, row)
	}
	if err != nil {
		return nil, fmt.Errorf("save interest: %w", err)
	}
	return row, nil
}

func (s *tierServiceImpl) DeleteInterest(ctx context.Context, id string) error {
	return s.interestRepo.Delete(ctx, id)
}

func (s *tierServiceImpl) Tables(ctx context.Context) (Tables, error) {
	discounts, err := s.cashDiscountRepo.List(ctx)
	if err != nil {
		return Tables{}, err
	}
	interests, err := s.interestRepo.List(ctx)
	if err != nil {
		return Tables{}, err
	}
	return Tables{Discounts: discountTiers(discounts), Interests: interestTiers(interests)}, nil
}
