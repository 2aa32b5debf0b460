package service

import (
	"context"
	"fmt"
	"time"

	"canx-backend/internal/apperr"
	"canx-backend/internal/billing"
	"canx-backend/internal/dto"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type SchemeService interface {
	Create(ctx context.Context, req *dto.SchemeRequest) (*model.Scheme, error)
	List(ctx context.Context) ([]*model.Scheme, error)
	Get(ctx context.Context, id string) (*model.Scheme, error)
	Delete(ctx context.Context, id string) error
	ListRewards(ctx context.Context, schemeID string) ([]*model.SchemeReward, error)

	// Qualified lists, per active scheme, the dealers whose spend reaches a slab
	// and who have not been rewarded for that scheme yet.
	Qualified(ctx context.Context, at time.Time) ([]dto.QualifiedCustomer, error)
	AddReward(ctx context.Context, userID, schemeID string) (*model.SchemeReward, error)
}

type schemeServiceImpl struct {
	db         *gorm.DB
	schemeRepo repository.SchemeRepository
	userRepo   repository.UserRepository
	log        zerolog.Logger
	now        func() time.Time
}

func NewSchemeService(
	db *gorm.DB,
	schemeRepo repository.SchemeRepository,
	userRepo repository.UserRepository,
	log zerolog.Logger,
) SchemeService {
	return &schemeServiceImpl{
		db:         db,
		schemeRepo: schemeRepo,
		userRepo:   userRepo,
		log:        log,
		now:        time.Now,
	}
}

func (s *schemeServiceImpl) Create(ctx context.Context, req *dto.SchemeRequest) (*model.Scheme, error) {
	scheme := &model.Scheme{
		Title:          req.Title,
		Description:    req.Description,
		SchemeStart:    req.SchemeStart,
		SchemeEnd:      req.SchemeEnd,
		SettlementDate: req.SettlementDate,
		Slabs:          make([]model.Slab, len(req.Slabs)),
	}
	for i, slab := range req.Slabs {
		scheme.Slabs[i] = model.Slab{Position: i, Threshold: slab.Slab, Benefit: slab.Benefit}
	}

	if err := billing.ValidateScheme(scheme); err != nil {
		return nil, err
	}
	if err := s.schemeRepo.Create(ctx, scheme); err != nil {
		return nil, fmt.Errorf("create scheme: %w", err)
	}
	return scheme, nil
}

func (s *schemeServiceImpl) List(ctx context.Context) ([]*model.Scheme, error) {
	return s.schemeRepo.List(ctx)
}

func (s *schemeServiceImpl) Get(ctx context.Context, id string) (*model.Scheme, error) {
	return s.schemeRepo.Get(ctx, id)
}

func (s *schemeServiceImpl) Delete(ctx context.Context, id string) error {
	return s.schemeRepo.Delete(ctx, id)
}

func (s *schemeServiceImpl) ListRewards(ctx context.Context, schemeID string) ([]*model.SchemeReward, error) {
	if _, err := s.schemeRepo.Get(ctx, schemeID); err != nil {
		return nil, err
	}
	return s.schemeRepo.ListRewards(ctx, schemeID)
}

func (s *schemeServiceImpl) Qualified(ctx context.Context, at time.Time) ([]dto.QualifiedCustomer, error) {
	schemes, err := s.schemeRepo.ListActive(ctx, at)
	if err != nil {
		return nil, err
	}
	if len(schemes) == 0 {
		return []dto.QualifiedCustomer{}, nil
	}

	customers, err := s.userRepo.List(ctx, repository.UserFilter{Role: model.RoleUser})
	if err != nil {
		return nil, err
	}

	qualified := []dto.QualifiedCustomer{}
	for _, scheme := range schemes {
		rewarded, err := s.schemeRepo.RewardedUserIDs(ctx, scheme.ID)
		if err != nil {
			return nil, err
		}

		for _, u := range customers {
			if rewarded[u.ID] {
				continue
			}
			slab, ok := billing.QualifyingSlab(scheme.Slabs, u.TotalSpent)
			if !ok {
				continue
			}
			qualified = append(qualified, dto.QualifiedCustomer{
				UserID:      u.ID,
				Name:        u.FullName(),
				ShopName:    u.ShopName,
				SchemeID:    scheme.ID,
				SchemeTitle: scheme.Title,
				Benefit:     slab.Benefit,
				TotalSpent:  u.TotalSpent,
			})
		}
	}

	return qualified, nil
}

func (s *schemeServiceImpl) AddReward(ctx context.Context, userID, schemeID string) (*model.SchemeReward, error) {
	scheme, err := s.schemeRepo.Get(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	if !billing.SchemeActive(scheme, s.now()) {
		return nil, apperr.Validation("scheme %q is not running", scheme.Title)
	}

	var reward *model.SchemeReward
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.GetForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user.Role != model.RoleUser {
			return apperr.Validation("only dealers take part in schemes")
		}

		slab, ok := billing.QualifyingSlab(scheme.Slabs, user.TotalSpent)
		if !ok {
			return apperr.Validation("%s has not reached any slab of %q", user.FullName(), scheme.Title)
		}

		exists, err := s.schemeRepo.RewardExists(ctx, tx, scheme.ID, user.ID)
		if err != nil {
			return fmt.Errorf("check reward: %w", err)
		}
		if exists {
			return apperr.Conflict("%s was already rewarded for %q", user.FullName(), scheme.Title)
		}

		reward = &model.SchemeReward{
			SchemeID:   scheme.ID,
			UserID:     user.ID,
			Benefit:    slab.Benefit,
			TotalSpent: user.TotalSpent,
		}
		if err := s.schemeRepo.CreateReward(ctx, tx, reward); err != nil {
			return fmt.Errorf("create reward: %w", err)
		}

		user.AvailedSchemeID = &scheme.ID
		return s.userRepo.Save(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Str("scheme_id", schemeID).Str("benefit", reward.Benefit).Msg("scheme reward recorded")
	return reward, nil
}
