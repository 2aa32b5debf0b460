package repository

import (
	"context"
	"fmt"

	"canx-backend/internal/model"

	"gorm.io/gorm"
)

type PaymentFilter struct {
	OrderID    string
	CustomerID string
	Status     model.PaymentState
}

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	Get(ctx context.Context, id string) (*model.Payment, error)
	GetTx(ctx context.Context, tx *gorm.DB, id string) (*model.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]*model.Payment, error)
	Save(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	// CountByOrder returns how many approved and pending payments an order has.
	CountByOrder(ctx context.Context, tx *gorm.DB, orderID string) (approved, pending int, err error)
	ProviderRefExists(ctx context.Context, ref string) (bool, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return tx.WithContext(ctx).Omit("Order").Create(payment).Error
}

func (r *paymentRepoImpl) Get(ctx context.Context, id string) (*model.Payment, error) {
	return r.GetTx(ctx, r.db, id)
}

func (r *paymentRepoImpl) GetTx(ctx context.Context, tx *gorm.DB, id string) (*model.Payment, error) {
	var payment model.Payment
	err := tx.WithContext(ctx).
		Where("id = ?", id).
		First(&payment).Error

	if err != nil {
		return nil, translate(err, "payment")
	}

	return &payment, nil
}

func (r *paymentRepoImpl) List(ctx context.Context, filter PaymentFilter) ([]*model.Payment, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.OrderID != "" {
		q = q.Where("order_id = ?", filter.OrderID)
	}
	if filter.CustomerID != "" {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var payments []*model.Payment
	if err := q.Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	return payments, nil
}

func (r *paymentRepoImpl) Save(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return tx.WithContext(ctx).Omit("Order").Save(payment).Error
}

func (r *paymentRepoImpl) CountByOrder(ctx context.Context, tx *gorm.DB, orderID string) (int, int, error) {
	var rows []struct {
		Status model.PaymentState
		N      int
	}
	err := tx.WithContext(ctx).Model(&model.Payment{}).
		Select("status, COUNT(*) AS n").
		Where("order_id = ?", orderID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count payments: %w", err)
	}

	var approved, pending int
	for _, row := range rows {
		switch row.Status {
		case model.PaymentStateApproved:
			approved = row.N
		case model.PaymentStatePending:
			pending = row.N
		}
	}
	return approved, pending, nil
}

func (r *paymentRepoImpl) ProviderRefExists(ctx context.Context, ref string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("provider_ref = ?", ref).
		Count(&count).Error

	return count > 0, err
}
