package repository

import (
	"context"
	"fmt"

	"canx-backend/internal/apperr"
	"canx-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	CategoryID string
	Status     model.ProductStatus
	VendorID   string
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Get(ctx context.Context, id string) (*model.Product, error)
	FindMany(ctx context.Context, tx *gorm.DB, ids []string) ([]*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error
	SKUTaken(ctx context.Context, sku, exceptID string) (bool, error)
	// AdjustStock adds delta to the units available; it fails rather than go below zero.
	AdjustStock(ctx context.Context, tx *gorm.DB, id string, delta int) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepoImpl) Get(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", id).
		First(&product).Error

	if err != nil {
		return nil, translate(err, "product")
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, tx *gorm.DB, ids []string) ([]*model.Product, error) {
	var products []*model.Product
	err := tx.WithContext(ctx).
		Preload("Variants").
		Where("id IN ?", ids).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) List(ctx context.Context, filter ProductFilter) ([]*model.Product, error) {
	q := r.db.WithContext(ctx).Preload("Variants").Order("title")
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.VendorID != "" {
		q = q.Where("vendor_id = ?", filter.VendorID)
	}

	var products []*model.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

// Update saves the product columns and replaces its variants wholesale.
func (r *productRepoImpl) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(product).Error; err != nil {
			return fmt.Errorf("save product: %w", err)
		}

		if err := tx.Where("product_id = ?", product.ID).Delete(&model.Variant{}).Error; err != nil {
			return fmt.Errorf("delete variants: %w", err)
		}

		for i := range product.Variants {
			product.Variants[i].ProductID = product.ID
		}
		if len(product.Variants) > 0 {
			if err := tx.Create(&product.Variants).Error; err != nil {
				return fmt.Errorf("create variants: %w", err)
			}
		}
		return nil
	})
}

// Delete removes a product and its variants. Products named on order lines stay.
func (r *productRepoImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines int64
		if err := tx.Model(&model.OrderProduct{}).Where("product_id = ?", id).Count(&lines).Error; err != nil {
			return fmt.Errorf("count order lines: %w", err)
		}
		if lines > 0 {
			return apperr.Conflict("product is on %d order lines", lines)
		}

		if err := tx.Where("product_id = ?", id).Delete(&model.Variant{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&model.Product{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("product")
		}
		return nil
	})
}

func (r *productRepoImpl) SKUTaken(ctx context.Context, sku, exceptID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("sku = ? AND id <> ?", sku, exceptID).
		Count(&count).Error

	return count > 0, err
}

func (r *productRepoImpl) AdjustStock(ctx context.Context, tx *gorm.DB, id string, delta int) error {
	result := tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND available + ? >= 0", id, delta).
		Update("available", gorm.Expr("available + ?", delta))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.Conflict("insufficient stock for product %s", id)
	}
	return nil
}
