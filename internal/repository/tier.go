package repository

import (
	"context"

	"canx-backend/internal/model"

	"gorm.io/gorm"
)

type CashDiscountRepository interface {
	List(ctx context.Context) ([]*model.CashDiscount, error)
	Get(ctx context.Context, id string) (*model.CashDiscount, error)
	Create(ctx context.Context, tier *model.CashDiscount) error
	Save(ctx context.Context, tier *model.CashDiscount) error
	Delete(ctx context.Context, id string) error
}

type InterestRepository interface {
	List(ctx context.Context) ([]*model.Interest, error)
	Get(ctx context.Context, id string) (*model.Interest, error)
	Create(ctx context.Context, tier *model.Interest) error
	Save(ctx context.Context, tier *model.Interest) error
	Delete(ctx context.Context, id string) error
}

type cashDiscountRepoImpl struct {
	store[model.CashDiscount]
}

func NewCashDiscountRepository(db *gorm.DB) CashDiscountRepository {
	return &cashDiscountRepoImpl{store[model.CashDiscount]{db: db, name: "cash discount"}}
}

type interestRepoImpl struct {
	store[model.Interest]
}

func NewInterestRepository(db *gorm.DB) InterestRepository {
	return &interestRepoImpl{store[model.Interest]{db: db, name: "interest"}}
}
