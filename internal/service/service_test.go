package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"canx-backend/internal/client"
	"canx-backend/internal/config"
	"canx-backend/internal/dbtest"
	"canx-backend/internal/dto"
	"canx-backend/internal/metrics"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeBraintree struct {
	txID   string
	err    error
	amount decimal.Decimal
	calls  int
}

func (f *fakeBraintree) ChargeOneTime(ctx context.Context, nonce string, amount decimal.Decimal, orderNumber string) (string, error) {
	f.calls++
	f.amount = amount
	return f.txID, f.err
}

type fakePaypal struct {
	created   client.CreateOrderRequest
	capture   *model.Capture
	verifyErr error
}

func (f *fakePaypal) CreateOrder(ctx context.Context, req client.CreateOrderRequest) (*client.CreateOrderResponse, error) {
	f.created = req
	return &client.CreateOrderResponse{OrderID: "PP-1", ApproveURL: "https://paypal.test/approve?token=PP-1"}, nil
}

func (f *fakePaypal) CaptureOrder(ctx context.Context, paypalOrderID string) (*model.Capture, error) {
	return f.capture, nil
}

func (f *fakePaypal) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error {
	return f.verifyErr
}

type testEnv struct {
	db        *gorm.DB
	users     repository.UserRepository
	products  repository.ProductRepository
	orderRepo repository.OrderRepository
	metrics   *metrics.Metrics

	userService      *userServiceImpl
	catalogueService *catalogueServiceImpl
	tierService      *tierServiceImpl
	couponService    *couponServiceImpl
	orderService     *orderServiceImpl
	paymentService   *paymentServiceImpl
	paypalService    *paypalServiceImpl
	schemeService    *schemeServiceImpl

	braintree *fakeBraintree
	paypal    *fakePaypal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.New(t)
	log := zerolog.Nop()
	m := metrics.NewNop()

	users := repository.NewUserRepository(db)
	products := repository.NewProductRepository(db)
	orders := repository.NewOrderRepository(db)
	payments := repository.NewPaymentRepository(db)
	ledger, err := repository.NewLedgerRepository(db)
	require.NoError(t, err)

	env := &testEnv{
		db:        db,
		users:     users,
		products:  products,
		orderRepo: orders,
		metrics:   m,
		braintree: &fakeBraintree{txID: "BT-1"},
		paypal:    &fakePaypal{},
	}

	env.userService = NewUserService(db, users, ledger, log).(*userServiceImpl)
	env.catalogueService = NewCatalogueService(repository.NewCategoryRepository(db), products, "INR").(*catalogueServiceImpl)
	env.tierService = NewTierService(repository.NewCashDiscountRepository(db), repository.NewInterestRepository(db)).(*tierServiceImpl)
	env.couponService = NewCouponService(repository.NewCouponRepository(db), users).(*couponServiceImpl)
	env.orderService = NewOrderService(db, orders, products, users, env.couponService, env.tierService,
		&config.Billing{Currency: "INR", CreditCycleDays: 30}, m, log).(*orderServiceImpl)
	env.paymentService = NewPaymentService(db, payments, orders, users, env.tierService, env.braintree, m, log).(*paymentServiceImpl)
	env.paypalService = NewPaypalService(db, env.paypal, "http://localhost:8080", "INR", orders,
		repository.NewWebhookEventRepository(db), env.paymentService, m, log).(*paypalServiceImpl)
	env.schemeService = NewSchemeService(db, repository.NewSchemeRepository(db), users, log).(*schemeServiceImpl)

	return env
}

func (e *testEnv) dealer(t *testing.T, email string, approved bool, limit string) *model.User {
	t.Helper()
	u := &model.User{
		FirstName:      "Suresh",
		LastName:       "Kale",
		Email:          email,
		ShopName:       "Kale Agro",
		Role:           model.RoleUser,
		CreditLimit:    d(limit),
		CustomerAccess: approved,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) product(t *testing.T, sku, price string, stock int) *model.Product {
	t.Helper()
	p, err := e.catalogueService.CreateProduct(context.Background(), &dto.ProductRequest{
		Title:       "Product " + sku,
		SKU:         sku,
		Available:   stock,
		MinQuantity: 1,
		Price:       d(price),
	})
	require.NoError(t, err)
	return p
}

// approvedOrder places and approves an order for qty units of p.
func (e *testEnv) approvedOrder(t *testing.T, customer *model.User, p *model.Product, qty int, orderType model.OrderType) *model.Order {
	t.Helper()
	ctx := context.Background()
	o, err := e.orderService.Create(ctx, customer.ID, false, &dto.CreateOrderRequest{
		OrderType: orderType,
		Products:  []dto.Item{{ProductID: p.ID, Quantity: qty}},
	})
	require.NoError(t, err)
	o, err = e.orderService.Approve(ctx, o.ID)
	require.NoError(t, err)
	return o
}

func (e *testEnv) reload(t *testing.T, o *model.Order) *model.Order {
	t.Helper()
	got, err := e.orderRepo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	return got
}

func (e *testEnv) user(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := e.users.Get(context.Background(), id)
	require.NoError(t, err)
	return u
}

func shiftClock(days int) func() time.Time {
	return func() time.Time { return time.Now().AddDate(0, 0, days) }
}
