package repository

import (
	"context"
	"errors"
	"fmt"

	"canx-backend/internal/apperr"
	"canx-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserFilter struct {
	Role     model.Role
	Approved *bool
	Rejected *bool
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	// GetForUpdate loads a user inside tx, locking the row where the driver supports it.
	GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*model.User, error)
	List(ctx context.Context, filter UserFilter) ([]*model.User, error)
	Save(ctx context.Context, tx *gorm.DB, user *model.User) error
	Delete(ctx context.Context, id string) error
	HasCoupon(ctx context.Context, userID, couponID string) (bool, error)
	// AddCoupon records that userID used couponID. A second use is a conflict.
	AddCoupon(ctx context.Context, tx *gorm.DB, userID, couponID string) error
	RemoveCoupon(ctx context.Context, tx *gorm.DB, userID, couponID string) error
	EmailTaken(ctx context.Context, email, exceptID string) (bool, error)
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

func (r *userRepoImpl) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepoImpl) Get(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, translate(err, "user")
	}

	return &user, nil
}

func (r *userRepoImpl) GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*model.User, error) {
	var user model.User
	q := tx.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}

	return &user, nil
}

func (r *userRepoImpl) List(ctx context.Context, filter UserFilter) ([]*model.User, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Approved != nil {
		q = q.Where("customer_access = ?", *filter.Approved)
	}
	if filter.Rejected != nil {
		q = q.Where("customer_rejected = ?", *filter.Rejected)
	}

	var users []*model.User
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *userRepoImpl) Save(ctx context.Context, tx *gorm.DB, user *model.User) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

func (r *userRepoImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := &model.User{Base: model.Base{ID: id}}
		if err := tx.Model(user).Association("CouponsApplied").Clear(); err != nil {
			return fmt.Errorf("clear applied coupons: %w", err)
		}

		result := tx.Delete(user)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "user")
		}
		return nil
	})
}

func (r *userRepoImpl) HasCoupon(ctx context.Context, userID, couponID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("user_coupons").
		Where("user_id = ? AND coupon_id = ?", userID, couponID).
		Count(&count).Error

	return count > 0, err
}

func (r *userRepoImpl) AddCoupon(ctx context.Context, tx *gorm.DB, userID, couponID string) error {
	err := tx.WithContext(ctx).
		Exec("INSERT INTO user_coupons (user_id, coupon_id) VALUES (?, ?)", userID, couponID).
		Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("coupon has already been used")
	}
	return err
}

func (r *userRepoImpl) RemoveCoupon(ctx context.Context, tx *gorm.DB, userID, couponID string) error {
	return tx.WithContext(ctx).
		Exec("DELETE FROM user_coupons WHERE user_id = ? AND coupon_id = ?", userID, couponID).
		Error
}

func (r *userRepoImpl) EmailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("LOWER(email) = LOWER(?) AND id <> ?", email, exceptID).
		Count(&count).Error

	return count > 0, err
}
