package repository

import (
	"context"
	"fmt"

	"canx-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderFilter struct {
	CustomerID    string
	OrderStatus   model.OrderStatus
	PaymentStatus model.PaymentStatus
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	Get(ctx context.Context, id string) (*model.Order, error)
	// GetTx loads an order with its lines inside tx, locking the row where the driver supports it.
	GetTx(ctx context.Context, tx *gorm.DB, id string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*model.Order, error)
	Save(ctx context.Context, tx *gorm.DB, order *model.Order) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Omit("Customer").Create(order).Error
}

func (r *orderRepoImpl) Get(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Products").
		Preload("Customer").
		Where("id = ?", id).
		First(&order).Error

	if err != nil {
		return nil, translate(err, "order")
	}

	return &order, nil
}

func (r *orderRepoImpl) GetTx(ctx context.Context, tx *gorm.DB, id string) (*model.Order, error) {
	var order model.Order
	q := tx.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Preload("Products").
		Where("id = ?", id).
		First(&order).Error

	if err != nil {
		return nil, translate(err, "order")
	}

	return &order, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter OrderFilter) ([]*model.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Products").
		Order("created_at DESC")
	if filter.CustomerID != "" {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.OrderStatus != "" {
		q = q.Where("order_status = ?", filter.OrderStatus)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}

	var orders []*model.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return orders, nil
}

// Save writes the order columns and the due amounts of its lines.
func (r *orderRepoImpl) Save(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	tx = tx.WithContext(ctx)
	if err := tx.Omit(clause.Associations).Save(order).Error; err != nil {
		return fmt.Errorf("save order: %w", err)
	}

	for _, line := range order.Products {
		err := tx.Model(&model.OrderProduct{}).
			Where("id = ?", line.ID).
			Update("due_amount", line.DueAmount).Error
		if err != nil {
			return fmt.Errorf("update line %s: %w", line.ID, err)
		}
	}
	return nil
}

func (r *orderRepoImpl) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	tx = tx.WithContext(ctx)
	if err := tx.Where("order_id = ?", id).Delete(&model.OrderProduct{}).Error; err != nil {
		return fmt.Errorf("delete order lines: %w", err)
	}

	result := tx.Where("id = ?", id).Delete(&model.Order{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "order")
	}
	return nil
}
