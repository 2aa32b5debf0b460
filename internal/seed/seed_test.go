package seed

import (
	"context"
	"testing"

	"canx-backend/internal/apperr"
	"canx-backend/internal/dbtest"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"
	"canx-backend/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
admins:
  - firstName: Asha
    lastName: Rao
    email: asha@canx.test
    phone: "9800000001"
cashDiscounts:
  - {start: 0, end: 7, rate: "3"}
  - {start: 7, end: 15, rate: "2"}
interests:
  - {start: 45, end: 90, rate: "1.5"}
categories:
  - Fertilizers
  - Seeds
`

type services struct {
	users     service.UserService
	tiers     service.TierService
	catalogue service.CatalogueService
}

func newServices(t *testing.T) services {
	t.Helper()
	db := dbtest.New(t)

	ledger, err := repository.NewLedgerRepository(db)
	require.NoError(t, err)

	return services{
		users: service.NewUserService(db, repository.NewUserRepository(db), ledger, zerolog.Nop()),
		tiers: service.NewTierService(repository.NewCashDiscountRepository(db), repository.NewInterestRepository(db)),
		catalogue: service.NewCatalogueService(
			repository.NewCategoryRepository(db), repository.NewProductRepository(db), "INR"),
	}
}

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Len(t, f.Admins, 1)
	assert.Equal(t, "asha@canx.test", f.Admins[0].Email)
	assert.Equal(t, []Tier{{Start: 0, End: 7, Rate: "3"}, {Start: 7, End: 15, Rate: "2"}}, f.CashDiscounts)
	assert.Equal(t, []string{"Fertilizers", "Seeds"}, f.Categories)

	_, err = Parse([]byte("admins: {"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	res, err := Apply(ctx, f, s.users, s.tiers, s.catalogue)
	require.NoError(t, err)

	require.Len(t, res.Admins, 1)
	assert.Equal(t, model.RoleAdmin, res.Admins[0].Role)
	assert.Equal(t, 2, res.CashDiscounts)
	assert.Equal(t, 1, res.Interests)
	assert.Equal(t, 2, res.Categories)

	tables, err := s.tiers.Tables(ctx)
	require.NoError(t, err)
	discount, interest := tables.Rates(10)
	assert.Equal(t, "2.00", discount.StringFixed(2))
	assert.True(t, interest.IsZero())

	categories, err := s.catalogue.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func TestApplyStopsOnInvalidTier(t *testing.T) {
	s := newServices(t)

	f := &File{CashDiscounts: []Tier{
		{Start: 0, End: 10, Rate: "3"},
		{Start: 5, End: 15, Rate: "2"},
	}}

	res, err := Apply(context.Background(), f, s.users, s.tiers, s.catalogue)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 1, res.CashDiscounts)

	_, err = Apply(context.Background(), &File{Interests: []Tier{{Start: 0, End: 1, Rate: "abc"}}}, s.users, s.tiers, s.catalogue)
	assert.Error(t, err)
}
