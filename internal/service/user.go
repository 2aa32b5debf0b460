package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"canx-backend/internal/apperr"
	"canx-backend/internal/dto"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type UserService interface {
	Create(ctx context.Context, req *dto.UserRequest) (*model.User, error)
	List(ctx context.Context, filter repository.UserFilter) ([]*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id string, req *dto.UserRequest) (*model.User, error)
	Delete(ctx context.Context, id string) error

	ApproveCustomer(ctx context.Context, id string) (*model.User, error)
	RejectCustomer(ctx context.Context, id string) (*model.User, error)
	SetVendorAccess(ctx context.Context, id string, access bool) (*model.User, error)
	SetCreditLimit(ctx context.Context, id string, limit decimal.Decimal) (*model.User, error)

	Ledger(ctx context.Context, id string) ([]repository.LedgerEntry, error)
}

type userServiceImpl struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	ledgerRepo repository.LedgerRepository
	log        zerolog.Logger
}

func NewUserService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
	log zerolog.Logger,
) UserService {
	return &userServiceImpl{
		db:         db,
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
		log:        log,
	}
}

func validateUser(req *dto.UserRequest) error {
	var err error
	if strings.TrimSpace(req.FirstName) == "" {
		err = multierr.Append(err, apperr.Validation("firstName is required"))
	}
	if strings.TrimSpace(req.LastName) == "" {
		err = multierr.Append(err, apperr.Validation("lastName is required"))
	}
	if _, perr := mail.ParseAddress(req.Email); perr != nil {
		err = multierr.Append(err, apperr.Validation("email %q is invalid", req.Email))
	}
	if req.Role != "" && !req.Role.Valid() {
		err = multierr.Append(err, apperr.Validation("role %q is not one of user, vendor, admin", req.Role))
	}
	return err
}

func applyUserRequest(u *model.User, req *dto.UserRequest) {
	u.FirstName = strings.TrimSpace(req.FirstName)
	u.LastName = strings.TrimSpace(req.LastName)
	u.Email = strings.ToLower(strings.TrimSpace(req.Email))
	u.Phone = req.Phone
	if req.Role != "" {
		u.Role = req.Role
	}
	u.ShopName = req.ShopName
	u.ShopOwnerName = req.ShopOwnerName
	u.ShopAddress = req.ShopAddress
	u.GSTNumber = req.GSTNumber
	u.PANNumber = req.PANNumber
	u.AadharNumber = req.AadharNumber
	u.PesticideLicense = req.PesticideLicense
	u.SecurityChecksImage = req.SecurityChecksImage
	u.DealershipForm = req.DealershipForm
	u.AadharFrontImage = req.AadharFrontImage
	u.AadharBackImage = req.AadharBackImage
	u.CompanyName = req.CompanyName
	u.Address = req.Address
	u.City = req.City
	u.State = req.State
	u.ZipCode = req.ZipCode
	u.Country = req.Country
	u.Category = req.Category
}

func (s *userServiceImpl) Create(ctx context.Context, req *dto.UserRequest) (*model.User, error) {
	if err := validateUser(req); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.EmailTaken(ctx, req.Email, "")
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, apperr.Conflict("email %s is already registered", req.Email)
	}

	user := &model.User{Role: model.RoleUser}
	applyUserRequest(user, req)
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}

func (s *userServiceImpl) List(ctx context.Context, filter repository.UserFilter) ([]*model.User, error) {
	return s.userRepo.List(ctx, filter)
}

func (s *userServiceImpl) Get(ctx context.Context, id string) (*model.User, error) {
	return s.userRepo.Get(ctx, id)
}

func (s *userServiceImpl) Update(ctx context.Context, id string, req *dto.UserRequest) (*model.User, error) {
	if err := validateUser(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	taken, err := s.userRepo.EmailTaken(ctx, req.Email, id)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, apperr.Conflict("email %s is already registered", req.Email)
	}

	applyUserRequest(user, req)
	if err := s.userRepo.Save(ctx, s.db, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func (s *userServiceImpl) Delete(ctx context.Context, id string) error {
	return s.userRepo.Delete(ctx, id)
}

// mutate loads a user, applies fn and saves the result in one transaction.
func (s *userServiceImpl) mutate(ctx context.Context, id string, fn func(u *model.User) error) (*model.User, error) {
	var user *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = s.userRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(user); err != nil {
			return err
		}
		return s.userRepo.Save(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userServiceImpl) ApproveCustomer(ctx context.Context, id string) (*model.User, error) {
	user, err := s.mutate(ctx, id, func(u *model.User) error {
		u.CustomerAccess = true
		u.CustomerRejected = false
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id).Msg("customer approved")
	return user, nil
}

func (s *userServiceImpl) RejectCustomer(ctx context.Context, id string) (*model.User, error) {
	user, err := s.mutate(ctx, id, func(u *model.User) error {
		u.CustomerAccess = false
		u.CustomerRejected = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id).Msg("customer rejected")
	return user, nil
}

func (s *userServiceImpl) SetVendorAccess(ctx context.Context, id string, access bool) (*model.User, error) {
	return s.mutate(ctx, id, func(u *model.User) error {
		if u.Role != model.RoleVendor {
			return apperr.Validation("user %s is not a vendor", id)
		}
		u.VendorAccess = access
		return nil
	})
}

func (s *userServiceImpl) SetCreditLimit(ctx context.Context, id string, limit decimal.Decimal) (*model.User, error) {
	if limit.IsNegative() {
		return nil, apperr.Validation("creditLimit must not be negative")
	}

	return s.mutate(ctx, id, func(u *model.User) error {
		if limit.LessThan(u.UsedCredit) {
			return apperr.Validation("creditLimit %s is below used credit %s", limit.StringFixed(2), u.UsedCredit.StringFixed(2))
		}
		u.CreditLimit = limit
		return nil
	})
}

func (s *userServiceImpl) Ledger(ctx context.Context, id string) ([]repository.LedgerEntry, error) {
	if _, err := s.userRepo.Get(ctx, id); err != nil {
		return nil, err
	}

	entries, err := s.ledgerRepo.Statement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("build ledger: %w", err)
	}
	return entries, nil
}
