package repository

import (
	"context"
	"fmt"
	"strings"

	"canx-backend/internal/model"

	"gorm.io/gorm"
)

type CouponRepository interface {
	List(ctx context.Context) ([]*model.Coupon, error)
	Get(ctx context.Context, id string) (*model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	CodeTaken(ctx context.Context, code, exceptID string) (bool, error)
	Create(ctx context.Context, coupon *model.Coupon) error
	Save(ctx context.Context, coupon *model.Coupon) error
	Delete(ctx context.Context, id string) error
}

type couponRepoImpl struct {
	store[model.Coupon]
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepoImpl{store[model.Coupon]{db: db, name: "coupon"}}
}

func (r *couponRepoImpl) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&coupon).Error

	if err != nil {
		return nil, translate(err, "coupon")
	}

	return &coupon, nil
}

func (r *couponRepoImpl) CodeTaken(ctx context.Context, code, exceptID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("code = ? AND id <> ?", strings.ToUpper(code), exceptID).
		Count(&count).Error

	return count > 0, err
}

func (r *couponRepoImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_coupons WHERE coupon_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete coupon usage: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&model.Coupon{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "coupon")
		}
		return nil
	})
}
