package repository

import (
	"context"

	"canx-backend/internal/model"

	"gorm.io/gorm"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]*model.Category, error)
	Get(ctx context.Context, id string) (*model.Category, error)
	Create(ctx context.Context, category *model.Category) error
	Save(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id string) error
	NameTaken(ctx context.Context, name, exceptID string) (bool, error)
	CountProducts(ctx context.Context, id string) (int64, error)
}

type categoryRepoImpl struct {
	store[model.Category]
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepoImpl{store[model.Category]{db: db, name: "category"}}
}

func (r *categoryRepoImpl) NameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("LOWER(name) = LOWER(?) AND id <> ?", name, exceptID).
		Count(&count).Error

	return count > 0, err
}

func (r *categoryRepoImpl) CountProducts(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("category_id = ?", id).
		Count(&count).Error

	return count, err
}
