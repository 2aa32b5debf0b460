package repository

import (
	"context"
	"errors"
	"fmt"

	"canx-backend/internal/apperr"

	"gorm.io/gorm"
)

// store holds the plain CRUD shared by the small admin-curated tables.
type store[T any] struct {
	db   *gorm.DB
	name string
}

func (s *store[T]) List(ctx context.Context) ([]*T, error) {
	var rows []*T
	if err := s.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", s.name, err)
	}
	return rows, nil
}

func (s *store[T]) Get(ctx context.Context, id string) (*T, error) {
	var row T
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		return nil, translate(err, s.name)
	}
	return &row, nil
}

func (s *store[T]) Create(ctx context.Context, row *T) error {
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *store[T]) Save(ctx context.Context, row *T) error {
	return s.db.WithContext(ctx).Save(row).Error
}

func (s *store[T]) Delete(ctx context.Context, id string) error {
	var row T
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound(s.name)
	}
	return nil
}

// translate maps gorm.ErrRecordNotFound onto apperr.ErrNotFound.
func translate(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what)
	}
	return err
}
