package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"canx-backend/internal/apperr"
	"canx-backend/internal/dto"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.dealer(t, "dealer@example.com", true, "0")
	p := env.product(t, "UREA", "250", 40)

	_, err := env.couponService.Create(ctx, &dto.CouponRequest{Code: "rabi100", DiscountType: model.DiscountFlat, Value: d("100")})
	require.NoError(t, err)

	o, err := env.orderService.Create(ctx, customer.ID, false, &dto.CreateOrderRequest{
		OrderType:  model.OrderTypeCash,
		Products:   []dto.Item{{ProductID: p.ID, Quantity: 4}},
		CouponCode: "RABI100",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(o.OrderNumber, "ORD-"))
	assert.Equal(t, model.OrderDraft, o.OrderStatus)
	assert.Equal(t, model.PaymentPending, o.PaymentStatus)
	assert.Equal(t, "1000.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "100.00", o.CouponDiscount.StringFixed(2))
	assert.Equal(t, "900.00", o.TotalAmount.StringFixed(2))
	assert.Equal(t, "900.00", o.AmountRemaining.StringFixed(2))
	require.Len(t, o.Products, 1)
	assert.Equal(t, "900.00", o.Products[0].DueAmount.StringFixed(2))
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), o.Products[0].DueDate, time.Minute)

	stocked, err := env.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 36, stocked.Available)

	_, err = env.orderService.Create(ctx, customer.ID, false, &dto.CreateOrderRequest{
		OrderType:  model.OrderTypeCash,
		Products:   []dto.Item{{ProductID: p.ID, Quantity: 4}},
		CouponCode: "rabi100",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict, "a coupon applies once per dealer")
}

func TestOrderCreateRequiresApprovedCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pending := env.dealer(t, "pending@example.com", false, "0")
	p := env.product(t, "DAP", "1350", 10)
	req := &dto.CreateOrderRequest{OrderType: model.OrderTypeCash, Products: []dto.Item{{ProductID: p.ID, Quantity: 1}}}

	_, err := env.orderService.Create(ctx, pending.ID, false, req)
	assert.ErrorIs(t, err, apperr.ErrCustomerNotApproved)

	_, err = env.orderService.Create(ctx, pending.ID, true, req)
	assert.NoError(t, err, "admins may order on a dealer's behalf")
}

func TestOrderCreateValidatesItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.dealer(t, "v@example.com", true, "0")

	bagged, err := env.catalogueService.CreateProduct(ctx, &dto.ProductRequest{
		Title:             "Potash",
		SKU:               "MOP",
		Available:         100,
		MinQuantity:       10,
		QuantityIncrement: 5,
		Variants: []dto.VariantRequest{
			{Type: "kg", Value: "25", Price: d("900")},
			{Type: "kg", Value: "50", Price: d("1700")},
		},
	})
	require.NoError(t, err)
	variant := bagged.Variants[1]

	cases := []struct {
		name  string
		items []dto.Item
		err   error
	}{
		{"no items", nil, apperr.ErrValidation},
		{"unknown product", []dto.Item{{ProductID: "missing", Quantity: 1}}, apperr.ErrNotFound},
		{"variant required", []dto.Item{{ProductID: bagged.ID, Quantity: 10}}, apperr.ErrValidation},
		{"unknown variant", []dto.Item{{ProductID: bagged.ID, VariantID: "nope", Quantity: 10}}, apperr.ErrValidation},
		{"below minimum", []dto.Item{{ProductID: bagged.ID, VariantID: variant.ID, Quantity: 5}}, apperr.ErrValidation},
		{"off increment", []dto.Item{{ProductID: bagged.ID, VariantID: variant.ID, Quantity: 12}}, apperr.ErrValidation},
		{"out of stock", []dto.Item{{ProductID: bagged.ID, VariantID: variant.ID, Quantity: 105}}, apperr.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.orderService.Create(ctx, customer.ID, false, &dto.CreateOrderRequest{OrderType: model.OrderTypeCash, Products: tc.items})
			assert.ErrorIs(t, err, tc.err)
		})
	}

	o, err := env.orderService.Create(ctx, customer.ID, false, &dto.CreateOrderRequest{
		OrderType: model.OrderTypeCash,
		Products:  []dto.Item{{ProductID: bagged.ID, VariantID: variant.ID, Quantity: 15}},
	})
	require.NoError(t, err)
	assert.Equal(t, "25500.00", o.TotalAmount.StringFixed(2))
	assert.Equal(t, "50 kg", o.Products[0].VariantLabel)

	_, err = env.orderService.Create(ctx, customer.ID, false, &dto.CreateOrderRequest{OrderType: "barter", Products: []dto.Item{{ProductID: bagged.ID, VariantID: variant.ID, Quantity: 10}}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestApproveCreditOrderReservesCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.dealer(t, "credit@example.com", true, "6000")
	p := env.product(t, "ZINC", "500", 100)

	o := env.approvedOrder(t, customer, p, 10, model.OrderTypeCredit)
	assert.Equal(t, model.OrderReceived, o.OrderStatus)
	assert.True(t, o.CreditReserved)
	require.NotNil(t, o.ApprovedAt)
	assert.Equal(t, "5000.00", env.user(t, customer.ID).UsedCredit.StringFixed(2))

	_, err := env.orderService.Approve(ctx, o.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "only drafts are approved")

	second, err := env.orderService.Create(ctx, customer.ID, false, &dto.CreateOrderRequest{
		OrderType: model.OrderTypeCredit,
		Products:  []dto.Item{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	_, err = env.orderService.Approve(ctx, second.ID)
	assert.ErrorIs(t, err, apperr.ErrCreditLimitExceeded)

	assert.Equal(t, model.OrderDraft, env.reload(t, second).OrderStatus)
	assert.Equal(t, "5000.00", env.user(t, customer.ID).UsedCredit.StringFixed(2))
}

func TestCashOrderDoesNotTouchCredit(t *testing.T) {
	env := newTestEnv(t)
	customer := env.dealer(t, "cash@example.com", true, "0")
	p := env.product(t, "NPK", "1200", 10)

	o := env.approvedOrder(t, customer, p, 5, model.OrderTypeCash)
	assert.False(t, o.CreditReserved)
	assert.True(t, env.user(t, customer.ID).UsedCredit.IsZero())
}

func TestOrderUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.dealer(t, "upd@example.com", true, "100000")
	p := env.product(t, "SSP", "400", 50)

	o, err := env.orderService.Create(ctx, customer.ID, false, &dto.CreateOrderRequest{
		OrderType: model.OrderTypeCash,
		Products:  []dto.Item{{ProductID: p.ID, Quantity: 5}},
	})
	require.NoError(t, err)

	credit := model.OrderTypeCredit
	o, err = env.orderService.Update(ctx, o.ID, &dto.UpdateOrderRequest{OrderType: &credit})
	require.NoError(t, err)
	assert.Equal(t, model.OrderTypeCredit, o.OrderType)

	// leaving draft goes through approval, so credit is reserved
	inProgress := model.OrderInProgress
	o, err = env.orderService.Update(ctx, o.ID, &dto.UpdateOrderRequest{OrderStatus: &inProgress})
	require.NoError(t, err)
	assert.Equal(t, model.OrderInProgress, o.OrderStatus)
	assert.True(t, o.CreditReserved)
	assert.Equal(t, "2000.00", env.user(t, customer.ID).UsedCredit.StringFixed(2))

	cash := model.OrderTypeCash
	_, err = env.orderService.Update(ctx, o.ID, &dto.UpdateOrderRequest{OrderType: &cash})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	received := model.OrderReceived
	_, err = env.orderService.Update(ctx, o.ID, &dto.UpdateOrderRequest{OrderStatus: &received})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	bogus := model.OrderStatus("lost")
	_, err = env.orderService.Update(ctx, o.ID, &dto.UpdateOrderRequest{OrderStatus: &bogus})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	delivered := model.OrderDelivered
	when := time.Now().AddDate(0, 0, 2)
	o, err = env.orderService.Update(ctx, o.ID, &dto.UpdateOrderRequest{OrderStatus: &delivered, DeliveryDate: &when})
	require.NoError(t, err)
	assert.Equal(t, model.OrderDelivered, o.OrderStatus)
	require.NotNil(t, o.DeliveryDate)
}

func TestOrderCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.dealer(t, "cancel@example.com", true, "0")
	p := env.product(t, "GYPSUM", "150", 20)

	_, err := env.couponService.Create(ctx, &dto.CouponRequest{Code: "TEN", DiscountType: model.DiscountPercentage, Value: d("10")})
	require.NoError(t, err)

	o, err := env.orderService.Create(ctx, customer.ID, false, &dto.CreateOrderRequest{
		OrderType:  model.OrderTypeCash,
		Products:   []dto.Item{{ProductID: p.ID, Quantity: 8}},
		CouponCode: "TEN",
	})
	require.NoError(t, err)

	require.NoError(t, env.orderService.Cancel(ctx, o.ID))

	_, err = env.orderService.Get(ctx, o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	stocked, err := env.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, stocked.Available)

	_, _, err = env.couponService.Validate(ctx, "TEN", customer.ID, d("1000"))
	assert.NoError(t, err, "cancelling frees the coupon again")

	approved := env.approvedOrder(t, customer, p, 1, model.OrderTypeCash)
	assert.ErrorIs(t, env.orderService.Cancel(ctx, approved.ID), apperr.ErrInvalidTransition)
}

func TestOrderQuote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.dealer(t, "quote@example.com", true, "0")
	p := env.product(t, "BORON", "1000", 10)

	_, err := env.tierService.CreateCashDiscount(ctx, &dto.CashDiscountRequest{PaymentStart: 0, PaymentEnd: 15, Discount: d("2")})
	require.NoError(t, err)
	_, err = env.tierService.CreateInterest(ctx, &dto.InterestRequest{PaymentStart: 30, PaymentEnd: 90, Interest: d("2")})
	require.NoError(t, err)

	o := env.approvedOrder(t, customer, p, 1, model.OrderTypeCash)

	early, err := env.orderService.Quote(ctx, o.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, early.AgeDays)
	assert.Equal(t, "2.00", early.DiscountRate.StringFixed(2))
	assert.Equal(t, "980.39", early.PayoffAmount.StringFixed(2))

	late, err := env.orderService.Quote(ctx, o.ID, time.Now().AddDate(0, 0, 45))
	require.NoError(t, err)
	assert.Equal(t, 45, late.AgeDays)
	assert.True(t, late.DiscountRate.IsZero())
	assert.Equal(t, "1020.41", late.PayoffAmount.StringFixed(2))

	gap, err := env.orderService.Quote(ctx, o.ID, time.Now().AddDate(0, 0, 20))
	require.NoError(t, err)
	assert.Equal(t, "1000.00", gap.PayoffAmount.StringFixed(2))
}

func TestOrderQuoteWithFullInterestTier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.dealer(t, "fullinterest@example.com", true, "0")
	p := env.product(t, "ZINC", "1000", 10)

	_, err := env.tierService.CreateInterest(ctx, &dto.InterestRequest{PaymentStart: 30, PaymentEnd: 90, Interest: d("100")})
	require.NoError(t, err)

	o := env.approvedOrder(t, customer, p, 1, model.OrderTypeCash)

	_, err = env.orderService.Quote(ctx, o.ID, time.Now().AddDate(0, 0, 45))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	early, err := env.orderService.Quote(ctx, o.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "1000.00", early.PayoffAmount.StringFixed(2))
}

// couponCheckLag reports every coupon as unused, like a second request whose
// check ran before the first order committed.
type couponCheckLag struct {
	repository.UserRepository
}

func (couponCheckLag) HasCoupon(ctx context.Context, userID, couponID string) (bool, error) {
	return false, nil
}

func TestOrderCreateCouponRaceIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.dealer(t, "race@example.com", true, "0")
	p := env.product(t, "MOP", "500", 20)

	_, err := env.couponService.Create(ctx, &dto.CouponRequest{Code: "ONCE", DiscountType: model.DiscountFlat, Value: d("50")})
	require.NoError(t, err)

	req := &dto.CreateOrderRequest{
		OrderType:  model.OrderTypeCash,
		Products:   []dto.Item{{ProductID: p.ID, Quantity: 2}},
		CouponCode: "ONCE",
	}
	_, err = env.orderService.Create(ctx, customer.ID, false, req)
	require.NoError(t, err)

	lagging := *env.orderService
	lagging.couponService = NewCouponService(repository.NewCouponRepository(env.db), couponCheckLag{env.users})

	_, err = lagging.Create(ctx, customer.ID, false, req)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	stocked, err := env.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 18, stocked.Available, "the losing order is rolled back")
}
