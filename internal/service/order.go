package service

import (
	"context"
	"fmt"
	"time"

	"canx-backend/internal/apperr"
	"canx-backend/internal/billing"
	"canx-backend/internal/config"
	"canx-backend/internal/dto"
	"canx-backend/internal/metrics"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderService interface {
	// Create places an order for customerID. onBehalf skips the customer approval check.
	Create(ctx context.Context, customerID string, onBehalf bool, req *dto.CreateOrderRequest) (*model.Order, error)
	Get(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, filter repository.OrderFilter) ([]*model.Order, error)
	Approve(ctx context.Context, id string) (*model.Order, error)
	Update(ctx context.Context, id string, req *dto.UpdateOrderRequest) (*model.Order, error)
	Cancel(ctx context.Context, id string) error
	Quote(ctx context.Context, id string, at time.Time) (*dto.Quote, error)
}

type orderServiceImpl struct {
	db            *gorm.DB
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	userRepo      repository.UserRepository
	couponService CouponService
	tierService   TierService
	billingCfg    *config.Billing
	metrics       *metrics.Metrics
	log           zerolog.Logger
	now           func() time.Time
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	couponService CouponService,
	tierService TierService,
	billingCfg *config.Billing,
	m *metrics.Metrics,
	log zerolog.Logger,
) OrderService {
	return &orderServiceImpl{
		db:            db,
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		userRepo:      userRepo,
		couponService: couponService,
		tierService:   tierService,
		billingCfg:    billingCfg,
		metrics:       m,
		log:           log,
		now:           time.Now,
	}
}

func newOrderNumber() string {
	return "ORD-" + ulid.Make().String()
}

// unitPrice is the variant price, else the discounted price, else the list price.
func unitPrice(p *model.Product, v *model.Variant) decimal.Decimal {
	if v != nil {
		return v.Price
	}
	if p.DiscountValue.IsPositive() {
		return p.DiscountValue
	}
	return p.Price
}

func (s *orderServiceImpl) buildLines(ctx context.Context, items []dto.Item, dueDate time.Time) ([]model.OrderProduct, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, apperr.Validation("an order needs at least one product")
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.FindMany(ctx, s.db, ids)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("get many products by item ids: %w", err)
	}
	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	subtotal := decimal.Zero
	lines := make([]model.OrderProduct, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, decimal.Zero, apperr.NotFound("product " + item.ProductID)
		}
		if product.Status != model.ProductAvailable {
			return nil, decimal.Zero, apperr.Validation("%s is not available", product.Title)
		}

		var variant *model.Variant
		if len(product.Variants) > 0 {
			if item.VariantID == "" {
				return nil, decimal.Zero, apperr.Validation("%s: a variant must be chosen", product.Title)
			}
			if variant = product.FindVariant(item.VariantID); variant == nil {
				return nil, decimal.Zero, apperr.Validation("%s has no variant %s", product.Title, item.VariantID)
			}
		}

		if err := billing.ValidateQuantity(product, item.Quantity); err != nil {
			return nil, decimal.Zero, err
		}

		price := unitPrice(product, variant)
		amount := price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		line := model.OrderProduct{
			ProductID: product.ID,
			Title:     product.Title,
			Quantity:  item.Quantity,
			UnitPrice: price,
			Amount:    amount,
			DueDate:   dueDate,
			DueAmount: amount,
		}
		if variant != nil {
			line.VariantID = variant.ID
			line.VariantLabel = variant.Label()
		}
		lines = append(lines, line)
		subtotal = subtotal.Add(amount)
	}

	return lines, subtotal, nil
}

func (s *orderServiceImpl) Create(ctx context.Context, customerID string, onBehalf bool, req *dto.CreateOrderRequest) (*model.Order, error) {
	if !req.OrderType.Valid() {
		return nil, apperr.Validation("orderType %q is not one of cash, credit", req.OrderType)
	}

	customer, err := s.userRepo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !onBehalf && (!customer.CustomerAccess || customer.CustomerRejected) {
		return nil, apperr.ErrCustomerNotApproved
	}

	now := s.now()
	lines, subtotal, err := s.buildLines(ctx, req.Products, now.AddDate(0, 0, s.billingCfg.CreditCycleDays))
	if err != nil {
		return nil, err
	}

	var (
		coupon   *model.Coupon
		discount = decimal.Zero
	)
	if req.CouponCode != "" {
		coupon, discount, err = s.couponService.Validate(ctx, req.CouponCode, customer.ID, subtotal)
		if err != nil {
			return nil, err
		}
	}

	total := subtotal.Sub(discount)
	order := &model.Order{
		OrderNumber:     newOrderNumber(),
		CustomerID:      customer.ID,
		OrderType:       req.OrderType,
		OrderStatus:     model.OrderDraft,
		PaymentStatus:   model.PaymentPending,
		Subtotal:        subtotal,
		CouponDiscount:  discount,
		TotalAmount:     total,
		AmountRemaining: total,
		DeliveryDate:    req.DeliveryDate,
		Products:        lines,
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}
	// coupon discount comes off the line balances so dues sum to the total
	billing.AllocateFIFO(order.Products, discount)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range order.Products {
			if err := s.productRepo.AdjustStock(ctx, tx, line.ProductID, -line.Quantity); err != nil {
				return err
			}
		}

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}

		if coupon != nil {
			if err := s.userRepo.AddCoupon(ctx, tx, customer.ID, coupon.ID); err != nil {
				return fmt.Errorf("record coupon usage: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrdersCreated.WithLabelValues(string(order.OrderType)).Inc()
	s.log.Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Str("customer_id", customer.ID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order created")

	return order, nil
}

func (s *orderServiceImpl) Get(ctx context.Context, id string) (*model.Order, error) {
	return s.orderRepo.Get(ctx, id)
}

func (s *orderServiceImpl) List(ctx context.Context, filter repository.OrderFilter) ([]*model.Order, error) {
	return s.orderRepo.List(ctx, filter)
}

// approveTx moves a draft order to orderReceived and reserves credit for credit orders.
func (s *orderServiceImpl) approveTx(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	if order.OrderStatus != model.OrderDraft {
		return fmt.Errorf("%w: order %s is %s, not draft", apperr.ErrInvalidTransition, order.OrderNumber, order.OrderStatus)
	}

	if order.OrderType == model.OrderTypeCredit {
		customer, err := s.userRepo.GetForUpdate(ctx, tx, order.CustomerID)
		if err != nil {
			return err
		}
		if customer.UsedCredit.Add(order.TotalAmount).GreaterThan(customer.CreditLimit) {
			return fmt.Errorf("%w: available %s, order total %s", apperr.ErrCreditLimitExceeded,
				customer.AvailableCredit().StringFixed(2), order.TotalAmount.StringFixed(2))
		}
		customer.UsedCredit = customer.UsedCredit.Add(order.TotalAmount)
		if err := s.userRepo.Save(ctx, tx, customer); err != nil {
			return fmt.Errorf("reserve credit: %w", err)
		}
		order.CreditReserved = true
	}

	now := s.now()
	order.OrderStatus = model.OrderReceived
	order.ApprovedAt = &now
	return nil
}

func (s *orderServiceImpl) Approve(ctx context.Context, id string) (*model.Order, error) {
	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.GetTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.approveTx(ctx, tx, order); err != nil {
			return err
		}
		return s.orderRepo.Save(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("order_id", order.ID).Bool("credit_reserved", order.CreditReserved).Msg("order approved")
	return order, nil
}

func (s *orderServiceImpl) Update(ctx context.Context, id string, req *dto.UpdateOrderRequest) (*model.Order, error) {
	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.GetTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.OrderType != nil && *req.OrderType != order.OrderType {
			if !req.OrderType.Valid() {
				return apperr.Validation("orderType %q is not one of cash, credit", *req.OrderType)
			}
			if order.OrderStatus != model.OrderDraft {
				return fmt.Errorf("%w: orderType can only change while the order is draft", apperr.ErrInvalidTransition)
			}
			order.OrderType = *req.OrderType
		}

		if req.DeliveryDate != nil {
			order.DeliveryDate = req.DeliveryDate
		}

		if req.OrderStatus != nil && *req.OrderStatus != order.OrderStatus {
			target := *req.OrderStatus
			if target.Rank() < 0 {
				return apperr.Validation("orderStatus %q is unknown", target)
			}
			if target.Rank() < order.OrderStatus.Rank() {
				return fmt.Errorf("%w: %s cannot go back to %s", apperr.ErrInvalidTransition, order.OrderStatus, target)
			}
			if order.OrderStatus == model.OrderDraft {
				if err := s.approveTx(ctx, tx, order); err != nil {
					return err
				}
			}
			order.OrderStatus = target
		}

		return s.orderRepo.Save(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderServiceImpl) Cancel(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.GetTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if order.OrderStatus != model.OrderDraft {
			return fmt.Errorf("%w: only draft orders can be cancelled", apperr.ErrInvalidTransition)
		}

		for _, line := range order.Products {
			if err := s.productRepo.AdjustStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return fmt.Errorf("restore stock: %w", err)
			}
		}
		if order.CouponID != nil {
			if err := s.userRepo.RemoveCoupon(ctx, tx, order.CustomerID, *order.CouponID); err != nil {
				return fmt.Errorf("release coupon: %w", err)
			}
		}
		return s.orderRepo.Delete(ctx, tx, order.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("order_id", id).Msg("order cancelled")
	return nil
}

func (s *orderServiceImpl) Quote(ctx context.Context, id string, at time.Time) (*dto.Quote, error) {
	order, err := s.orderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tables, err := s.tierService.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tiers: %w", err)
	}

	age := billing.AgeDays(order.CycleStart(), at)
	discount, interest := tables.Rates(age)
	outstanding := billing.Outstanding(order)
	payoff, err := billing.PayoffAmount(outstanding, discount, interest)
	if err != nil {
		return nil, err
	}

	return &dto.Quote{
		OrderID:      order.ID,
		At:           at,
		AgeDays:      age,
		DiscountRate: discount,
		InterestRate: interest,
		Outstanding:  outstanding,
		PayoffAmount: payoff,
	}, nil
}
