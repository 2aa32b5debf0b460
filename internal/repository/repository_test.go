package repository

import (
	"context"
	"testing"
	"time"

	"canx-backend/internal/apperr"
	"canx-backend/internal/dbtest"
	"canx-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	u := &model.User{FirstName: "Ravi", LastName: "Patil", Email: email, Role: model.RoleUser, CreditLimit: d("50000")}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Title:       "Urea 45kg",
		SKU:         sku,
		Currency:    "INR",
		Status:      model.ProductAvailable,
		Available:   stock,
		MinQuantity: 1,
		Price:       d("266.50"),
		Variants: []model.Variant{
			{Type: "kg", Value: "45", Price: d("266.50")},
		},
	}
	require.NoError(t, NewProductRepository(db).Create(context.Background(), p))
	return p
}

func seedOrder(t *testing.T, db *gorm.DB, customer *model.User, status model.OrderStatus) *model.Order {
	t.Helper()
	now := time.Now()
	o := &model.Order{
		OrderNumber:     "ORD-" + uuid.NewString(),
		CustomerID:      customer.ID,
		OrderType:       model.OrderTypeCredit,
		OrderStatus:     status,
		PaymentStatus:   model.PaymentPending,
		Subtotal:        d("1000"),
		TotalAmount:     d("1000"),
		AmountRemaining: d("1000"),
		Products: []model.OrderProduct{
			{ProductID: "p-1", Title: "late", Quantity: 2, UnitPrice: d("300"), Amount: d("600"), DueDate: now.AddDate(0, 0, 30), DueAmount: d("600")},
			{ProductID: "p-2", Title: "early", Quantity: 1, UnitPrice: d("400"), Amount: d("400"), DueDate: now.AddDate(0, 0, 10), DueAmount: d("400")},
		},
	}
	require.NoError(t, NewOrderRepository(db).Create(context.Background(), db, o))
	return o
}

func TestProductAdjustStock(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewProductRepository(db)
	p := seedProduct(t, db, "UREA-45", 10)

	require.NoError(t, repo.AdjustStock(ctx, db, p.ID, -4))
	err := repo.AdjustStock(ctx, db, p.ID, -7)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Available)
	require.Len(t, got.Variants, 1)
}

func TestProductUpdateReplacesVariants(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewProductRepository(db)
	p := seedProduct(t, db, "DAP-50", 5)

	p.Title = "DAP 50kg"
	p.Variants = []model.Variant{
		{Type: "kg", Value: "25", Price: d("700")},
		{Type: "kg", Value: "50", Price: d("1350")},
	}
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "DAP 50kg", got.Title)
	assert.Len(t, got.Variants, 2)

	taken, err := repo.SKUTaken(ctx, "DAP-50", "")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = repo.SKUTaken(ctx, "DAP-50", p.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestProductDeleteMissing(t *testing.T) {
	err := NewProductRepository(dbtest.New(t)).Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestOrderSaveWritesLineDueAmounts(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)
	o := seedOrder(t, db, seedUser(t, db, "ravi@example.com"), model.OrderReceived)

	loaded, err := repo.GetTx(ctx, db, o.ID)
	require.NoError(t, err)
	for i := range loaded.Products {
		loaded.Products[i].DueAmount = decimal.Zero
	}
	loaded.AmountRemaining = decimal.Zero
	require.NoError(t, repo.Save(ctx, db, loaded))

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "ravi@example.com", got.Customer.Email)
	for _, line := range got.Products {
		assert.True(t, line.DueAmount.IsZero(), line.Title)
	}
}

func TestOrderListAndDelete(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)
	a := seedUser(t, db, "a@example.com")
	b := seedUser(t, db, "b@example.com")
	seedOrder(t, db, a, model.OrderDraft)
	o := seedOrder(t, db, b, model.OrderDraft)

	mine, err := repo.List(ctx, OrderFilter{CustomerID: b.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Len(t, mine[0].Products, 2)

	require.NoError(t, repo.Delete(ctx, db, o.ID))
	_, err = repo.Get(ctx, o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, db, o.ID), apperr.ErrNotFound)
}

func TestPaymentCountByOrder(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewPaymentRepository(db)
	u := seedUser(t, db, "p@example.com")
	o := seedOrder(t, db, u, model.OrderReceived)

	ref := "CAPTURE-1"
	for _, st := range []model.PaymentState{model.PaymentStatePending, model.PaymentStateApproved, model.PaymentStateApproved, model.PaymentStateRejected} {
		p := &model.Payment{OrderID: o.ID, CustomerID: u.ID, Amount: d("10"), Method: model.PaymentMethodManual, Status: st}
		if st == model.PaymentStateRejected {
			p.ProviderRef = &ref
		}
		require.NoError(t, repo.Create(ctx, db, p))
	}

	approved, pending, err := repo.CountByOrder(ctx, db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, approved)
	assert.Equal(t, 1, pending)

	exists, err := repo.ProviderRefExists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, exists)

	list, err := repo.List(ctx, PaymentFilter{Status: model.PaymentStateApproved})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUserCoupons(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	coupons := NewCouponRepository(db)
	u := seedUser(t, db, "c@example.com")

	c := &model.Coupon{Code: "KHARIF10", DiscountType: model.DiscountPercentage, Value: d("10"), Active: true}
	require.NoError(t, coupons.Create(ctx, c))

	byCode, err := coupons.GetByCode(ctx, " kharif10 ")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byCode.ID)

	has, err := users.HasCoupon(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, users.AddCoupon(ctx, db, u.ID, c.ID))
	has, err = users.HasCoupon(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, has)

	err = users.AddCoupon(ctx, db, u.ID, c.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict, "the join row is never inserted twice")

	require.NoError(t, coupons.Delete(ctx, c.ID))
	has, err = users.HasCoupon(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUserListFilters(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	approved := seedUser(t, db, "ok@example.com")
	approved.CustomerAccess = true
	require.NoError(t, repo.Save(ctx, db, approved))
	seedUser(t, db, "new@example.com")

	yes := true
	list, err := repo.List(ctx, UserFilter{Role: model.RoleUser, Approved: &yes})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, approved.ID, list[0].ID)

	require.NoError(t, repo.Delete(ctx, approved.ID))
	assert.ErrorIs(t, repo.Delete(ctx, approved.ID), apperr.ErrNotFound)
}

func TestSchemeActiveAndRewards(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewSchemeRepository(db)
	now := time.Now()

	current := &model.Scheme{
		Title:       "Rabi",
		SchemeStart: now.AddDate(0, -1, 0),
		SchemeEnd:   now.AddDate(0, 1, 0),
		Slabs: []model.Slab{
			{Threshold: d("10000"), Benefit: "Clock"},
			{Threshold: d("50000"), Benefit: "Phone"},
		},
	}
	expired := &model.Scheme{
		Title:       "Kharif",
		SchemeStart: now.AddDate(0, -6, 0),
		SchemeEnd:   now.AddDate(0, -3, 0),
		Slabs:       []model.Slab{{Threshold: d("1"), Benefit: "Pen"}},
	}
	require.NoError(t, repo.Create(ctx, current))
	require.NoError(t, repo.Create(ctx, expired))

	active, err := repo.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, current.ID, active[0].ID)
	require.Len(t, active[0].Slabs, 2)
	assert.Equal(t, "Clock", active[0].Slabs[0].Benefit)

	u := seedUser(t, db, "r@example.com")
	require.NoError(t, repo.CreateReward(ctx, db, &model.SchemeReward{SchemeID: current.ID, UserID: u.ID, Benefit: "Clock", TotalSpent: d("12000")}))
	assert.Error(t, repo.CreateReward(ctx, db, &model.SchemeReward{SchemeID: current.ID, UserID: u.ID, Benefit: "Clock", TotalSpent: d("12000")}))

	rewarded, err := repo.RewardedUserIDs(ctx, current.ID)
	require.NoError(t, err)
	assert.True(t, rewarded[u.ID])

	require.NoError(t, repo.Delete(ctx, current.ID))
	_, err = repo.Get(ctx, current.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTierStore(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewCashDiscountRepository(db)

	tier := &model.CashDiscount{PaymentStart: 0, PaymentEnd: 15, Discount: d("3")}
	require.NoError(t, repo.Create(ctx, tier))

	tier.Discount = d("2.5")
	require.NoError(t, repo.Save(ctx, tier))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2.50", list[0].Discount.StringFixed(2))

	require.NoError(t, repo.Delete(ctx, tier.ID))
	_, err = repo.Get(ctx, tier.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLedgerStatement(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := seedUser(t, db, "l@example.com")
	o := seedOrder(t, db, u, model.OrderReceived)
	seedOrder(t, db, u, model.OrderDraft)

	settled := time.Now().Add(time.Hour)
	require.NoError(t, NewPaymentRepository(db).Create(ctx, db, &model.Payment{
		OrderID:        o.ID,
		CustomerID:     u.ID,
		Amount:         d("490"),
		ApprovedAmount: d("490"),
		CashDiscount:   d("10"),
		Reference:      "UTR123",
		Method:         model.PaymentMethodManual,
		Approved:       true,
		Status:         model.PaymentStateApproved,
		SettledAt:      &settled,
	}))

	repo, err := NewLedgerRepository(db)
	require.NoError(t, err)

	entries, err := repo.Statement(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, LedgerOrder, entries[0].Kind)
	assert.Equal(t, "1000.00", entries[0].Balance.StringFixed(2))
	assert.Equal(t, LedgerPayment, entries[1].Kind)
	assert.Equal(t, "500.00", entries[1].Credit.StringFixed(2))
	assert.Equal(t, "500.00", entries[1].Balance.StringFixed(2))
}

func TestRunningBalanceOrdersBeforePaymentsOnTies(t *testing.T) {
	at := time.Now()
	entries := runningBalance([]LedgerEntry{
		{At: at, Kind: LedgerPayment, Credit: d("100")},
		{At: at, Kind: LedgerOrder, Debit: d("300")},
	})

	assert.Equal(t, LedgerOrder, entries[0].Kind)
	assert.Equal(t, "200.00", entries[1].Balance.StringFixed(2))
}
