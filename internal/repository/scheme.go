package repository

import (
	"context"
	"fmt"
	"time"

	"canx-backend/internal/model"

	"gorm.io/gorm"
)

type SchemeRepository interface {
	Create(ctx context.Context, scheme *model.Scheme) error
	Get(ctx context.Context, id string) (*model.Scheme, error)
	List(ctx context.Context) ([]*model.Scheme, error)
	// ListActive returns the schemes whose window contains at.
	ListActive(ctx context.Context, at time.Time) ([]*model.Scheme, error)
	Delete(ctx context.Context, id string) error

	CreateReward(ctx context.Context, tx *gorm.DB, reward *model.SchemeReward) error
	RewardExists(ctx context.Context, tx *gorm.DB, schemeID, userID string) (bool, error)
	RewardedUserIDs(ctx context.Context, schemeID string) (map[string]bool, error)
	ListRewards(ctx context.Context, schemeID string) ([]*model.SchemeReward, error)
}

type schemeRepoImpl struct {
	db *gorm.DB
}

func NewSchemeRepository(db *gorm.DB) SchemeRepository {
	return &schemeRepoImpl{
		db: db,
	}
}

func preloadSlabs(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func (r *schemeRepoImpl) Create(ctx context.Context, scheme *model.Scheme) error {
	for i := range scheme.Slabs {
		scheme.Slabs[i].Position = i
	}
	return r.db.WithContext(ctx).Create(scheme).Error
}

func (r *schemeRepoImpl) Get(ctx context.Context, id string) (*model.Scheme, error) {
	var scheme model.Scheme
	err := r.db.WithContext(ctx).
		Preload("Slabs", preloadSlabs).
		Where("id = ?", id).
		First(&scheme).Error

	if err != nil {
		return nil, translate(err, "scheme")
	}

	return &scheme, nil
}

func (r *schemeRepoImpl) List(ctx context.Context) ([]*model.Scheme, error) {
	var schemes []*model.Scheme
	err := r.db.WithContext(ctx).
		Preload("Slabs", preloadSlabs).
		Order("scheme_start DESC").
		Find(&schemes).Error
	if err != nil {
		return nil, fmt.Errorf("list schemes: %w", err)
	}

	return schemes, nil
}

func (r *schemeRepoImpl) ListActive(ctx context.Context, at time.Time) ([]*model.Scheme, error) {
	var schemes []*model.Scheme
	err := r.db.WithContext(ctx).
		Preload("Slabs", preloadSlabs).
		Where("scheme_start <= ? AND scheme_end >= ?", at, at).
		Order("scheme_start").
		Find(&schemes).Error
	if err != nil {
		return nil, fmt.Errorf("list active schemes: %w", err)
	}

	return schemes, nil
}

func (r *schemeRepoImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scheme_id = ?", id).Delete(&model.Slab{}).Error; err != nil {
			return fmt.Errorf("delete slabs: %w", err)
		}
		if err := tx.Where("scheme_id = ?", id).Delete(&model.SchemeReward{}).Error; err != nil {
			return fmt.Errorf("delete rewards: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&model.Scheme{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "scheme")
		}
		return nil
	})
}

func (r *schemeRepoImpl) CreateReward(ctx context.Context, tx *gorm.DB, reward *model.SchemeReward) error {
	return tx.WithContext(ctx).Create(reward).Error
}

func (r *schemeRepoImpl) RewardExists(ctx context.Context, tx *gorm.DB, schemeID, userID string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&model.SchemeReward{}).
		Where("scheme_id = ? AND user_id = ?", schemeID, userID).
		Count(&count).Error

	return count > 0, err
}

func (r *schemeRepoImpl) RewardedUserIDs(ctx context.Context, schemeID string) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.SchemeReward{}).
		Where("scheme_id = ?", schemeID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("pluck rewarded users: %w", err)
	}

	rewarded := make(map[string]bool, len(ids))
	for _, id := range ids {
		rewarded[id] = true
	}
	return rewarded, nil
}

func (r *schemeRepoImpl) ListRewards(ctx context.Context, schemeID string) ([]*model.SchemeReward, error) {
	var rewards []*model.SchemeReward
	err := r.db.WithContext(ctx).
		Where("scheme_id = ?", schemeID).
		Order("created_at").
		Find(&rewards).Error
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}

	return rewards, nil
}
