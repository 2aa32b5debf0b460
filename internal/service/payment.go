package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"canx-backend/internal/apperr"
	"canx-backend/internal/billing"
	"canx-backend/internal/client"
	"canx-backend/internal/dto"
	"canx-backend/internal/metrics"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentService interface {
	Submit(ctx context.Context, orderID string, req *dto.SubmitPaymentRequest) (*model.Payment, error)
	Approve(ctx context.Context, paymentID string, amount *decimal.Decimal) (*model.Payment, error)
	Reject(ctx context.Context, paymentID string) (*model.Payment, error)
	Get(ctx context.Context, id string) (*model.Payment, error)
	List(ctx context.Context, filter repository.PaymentFilter) ([]*model.Payment, error)

	// CheckPayable dry-runs a settlement of amount against the order at the current tier rates.
	CheckPayable(ctx context.Context, order *model.Order, amount decimal.Decimal) error
	// RecordOnline stores a provider-captured payment and settles it at once.
	// A providerRef seen before is ignored.
	RecordOnline(ctx context.Context, orderID string, method model.PaymentMethod, providerRef string, amount decimal.Decimal) (*model.Payment, error)
	ChargeCard(ctx context.Context, orderID string, req *dto.CardPaymentRequest) (*model.Payment, error)
}

type paymentServiceImpl struct {
	db              *gorm.DB
	paymentRepo     repository.PaymentRepository
	orderRepo       repository.OrderRepository
	userRepo        repository.UserRepository
	tierService     TierService
	braintreeClient client.BraintreeClient
	metrics         *metrics.Metrics
	log             zerolog.Logger
	now             func() time.Time
}

func NewPaymentService(
	db *gorm.DB,
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	tierService TierService,
	braintreeClient client.BraintreeClient,
	m *metrics.Metrics,
	log zerolog.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:              db,
		paymentRepo:     paymentRepo,
		orderRepo:       orderRepo,
		userRepo:        userRepo,
		tierService:     tierService,
		braintreeClient: braintreeClient,
		metrics:         m,
		log:             log,
		now:             time.Now,
	}
}

func checkOrderPayable(order *model.Order) error {
	if order.OrderStatus == model.OrderDraft {
		return fmt.Errorf("%w: order %s has not been approved yet", apperr.ErrInvalidTransition, order.OrderNumber)
	}
	if order.PaymentStatus == model.PaymentPaidInFull {
		return apperr.Conflict("order %s is already paid in full", order.OrderNumber)
	}
	return nil
}

// refreshStatus recomputes the order payment status from its balance and payments.
func (s *paymentServiceImpl) refreshStatus(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	approved, pending, err := s.paymentRepo.CountByOrder(ctx, tx, order.ID)
	if err != nil {
		return err
	}
	order.AmountRemaining = billing.Outstanding(order)
	order.PaymentStatus = billing.DerivePaymentStatus(order.AmountRemaining, approved, pending)
	return nil
}

func (s *paymentServiceImpl) Submit(ctx context.Context, orderID string, req *dto.SubmitPaymentRequest) (*model.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, apperr.Validation("amount must be positive")
	}

	var payment *model.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.GetTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := checkOrderPayable(order); err != nil {
			return err
		}

		payment = &model.Payment{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Amount:     req.Amount.Round(2),
			Reference:  strings.TrimSpace(req.Reference),
			Method:     model.PaymentMethodManual,
			Status:     model.PaymentStatePending,
		}
		if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		if err := s.refreshStatus(ctx, tx, order); err != nil {
			return err
		}
		return s.orderRepo.Save(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("payment_id", payment.ID).Str("order_id", orderID).Str("amount", payment.Amount.StringFixed(2)).Msg("payment submitted")
	return payment, nil
}

// settleTx applies a payment to its order: tier rates by age, FIFO allocation,
// order aggregates, credit release and the customer's cumulative spend.
func (s *paymentServiceImpl) settleTx(ctx context.Context, tx *gorm.DB, tables Tables, order *model.Order, payment *model.Payment, amount decimal.Decimal, at time.Time) error {
	age := billing.AgeDays(order.CycleStart(), at)
	discountRate, interestRate := tables.Rates(age)

	st, err := billing.Settle(billing.SettlementInput{
		Outstanding:  billing.Outstanding(order),
		Amount:       amount.Round(2),
		DiscountRate: discountRate,
		InterestRate: interestRate,
	})
	if err != nil {
		return err
	}

	billing.AllocateFIFO(order.Products, st.Credit)
	order.AmountPaid = order.AmountPaid.Add(st.Amount)
	order.CashDiscount = order.CashDiscount.Add(st.CashDiscount)
	order.Interest = order.Interest.Add(st.Interest)

	payment.ApprovedAmount = st.Amount
	payment.CashDiscount = st.CashDiscount
	payment.Interest = st.Interest
	payment.AgeDays = age
	payment.Approved = true
	payment.Status = model.PaymentStateApproved
	payment.SettledAt = &at
	if err := s.paymentRepo.Save(ctx, tx, payment); err != nil {
		return fmt.Errorf("save payment: %w", err)
	}

	if err := s.refreshStatus(ctx, tx, order); err != nil {
		return err
	}
	if err := s.orderRepo.Save(ctx, tx, order); err != nil {
		return err
	}

	customer, err := s.userRepo.GetForUpdate(ctx, tx, order.CustomerID)
	if err != nil {
		return err
	}
	if order.OrderType == model.OrderTypeCredit && order.CreditReserved {
		customer.UsedCredit = decimal.Max(decimal.Zero, customer.UsedCredit.Sub(st.Credit))
	}
	customer.TotalSpent = customer.TotalSpent.Add(st.Amount)
	if err := s.userRepo.Save(ctx, tx, customer); err != nil {
		return fmt.Errorf("update customer balances: %w", err)
	}
	return nil
}

func (s *paymentServiceImpl) Approve(ctx context.Context, paymentID string, amount *decimal.Decimal) (*model.Payment, error) {
	tables, err := s.tierService.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tiers: %w", err)
	}

	var payment *model.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		payment, err = s.paymentRepo.GetTx(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status != model.PaymentStatePending {
			return fmt.Errorf("%w: payment is %s", apperr.ErrInvalidTransition, payment.Status)
		}

		settle := payment.Amount
		if amount != nil {
			settle = *amount
		}

		order, err := s.orderRepo.GetTx(ctx, tx, payment.OrderID)
		if err != nil {
			return err
		}
		return s.settleTx(ctx, tx, tables, order, payment, settle, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentsSettled.WithLabelValues(string(payment.Method), "approved").Inc()
	s.log.Info().
		Str("payment_id", payment.ID).
		Str("order_id", payment.OrderID).
		Str("amount", payment.ApprovedAmount.StringFixed(2)).
		Str("cash_discount", payment.CashDiscount.StringFixed(2)).
		Str("interest", payment.Interest.StringFixed(2)).
		Int("age_days", payment.AgeDays).
		Msg("payment settled")

	return payment, nil
}

func (s *paymentServiceImpl) Reject(ctx context.Context, paymentID string) (*model.Payment, error) {
	var payment *model.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		payment, err = s.paymentRepo.GetTx(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status != model.PaymentStatePending {
			return fmt.Errorf("%w: payment is %s", apperr.ErrInvalidTransition, payment.Status)
		}

		payment.Status = model.PaymentStateRejected
		if err := s.paymentRepo.Save(ctx, tx, payment); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}

		order, err := s.orderRepo.GetTx(ctx, tx, payment.OrderID)
		if err != nil {
			return err
		}
		if err := s.refreshStatus(ctx, tx, order); err != nil {
			return err
		}
		return s.orderRepo.Save(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentsSettled.WithLabelValues(string(payment.Method), "rejected").Inc()
	s.log.Info().Str("payment_id", payment.ID).Msg("payment rejected")
	return payment, nil
}

func (s *paymentServiceImpl) Get(ctx context.Context, id string) (*model.Payment, error) {
	return s.paymentRepo.Get(ctx, id)
}

func (s *paymentServiceImpl) List(ctx context.Context, filter repository.PaymentFilter) ([]*model.Payment, error) {
	return s.paymentRepo.List(ctx, filter)
}

func (s *paymentServiceImpl) CheckPayable(ctx context.Context, order *model.Order, amount decimal.Decimal) error {
	if err := checkOrderPayable(order); err != nil {
		return err
	}

	tables, err := s.tierService.Tables(ctx)
	if err != nil {
		return fmt.Errorf("load tiers: %w", err)
	}
	discountRate, interestRate := tables.Rates(billing.AgeDays(order.CycleStart(), s.now()))

	_, err = billing.Settle(billing.SettlementInput{
		Outstanding:  billing.Outstanding(order),
		Amount:       amount.Round(2),
		DiscountRate: discountRate,
		InterestRate: interestRate,
	})
	return err
}

// RecordOnline never drops captured money: what the order cannot absorb is
// kept on the payment as Excess, and a capture against a settled or draft
// order is stored as unapplied.
func (s *paymentServiceImpl) RecordOnline(ctx context.Context, orderID string, method model.PaymentMethod, providerRef string, amount decimal.Decimal) (*model.Payment, error) {
	seen, err := s.paymentRepo.ProviderRefExists(ctx, providerRef)
	if err != nil {
		return nil, fmt.Errorf("check provider ref: %w", err)
	}
	if seen {
		s.log.Info().Str("provider_ref", providerRef).Msg("online payment already recorded")
		return nil, nil
	}

	tables, err := s.tierService.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tiers: %w", err)
	}

	var (
		payment *model.Payment
		reason  error
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.GetTx(ctx, tx, orderID)
		if err != nil {
			return err
		}

		ref := providerRef
		payment = &model.Payment{
			OrderID:     order.ID,
			CustomerID:  order.CustomerID,
			Amount:      amount.Round(2),
			Reference:   providerRef,
			Method:      method,
			ProviderRef: &ref,
			Status:      model.PaymentStatePending,
		}

		at := s.now()
		applied, err := applicableAmount(tables, order, payment.Amount, at)
		if err != nil {
			reason = err
			payment.Status = model.PaymentStateUnapplied
			payment.Excess = payment.Amount
			if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
				return fmt.Errorf("create payment: %w", err)
			}
			return nil
		}

		payment.Excess = payment.Amount.Sub(applied)
		if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return s.settleTx(ctx, tx, tables, order, payment, applied, at)
	})
	if err != nil {
		s.metrics.PaymentsSettled.WithLabelValues(string(method), "failed").Inc()
		return nil, err
	}

	log := s.log.With().
		Str("payment_id", payment.ID).
		Str("order_id", orderID).
		Str("method", string(method)).
		Str("provider_ref", providerRef).
		Logger()

	switch {
	case payment.Status == model.PaymentStateUnapplied:
		s.metrics.PaymentsSettled.WithLabelValues(string(method), "unapplied").Inc()
		log.Warn().Err(reason).Str("amount", payment.Amount.StringFixed(2)).Msg("online payment held unapplied")
	case payment.Excess.IsPositive():
		s.metrics.PaymentsSettled.WithLabelValues(string(method), "excess").Inc()
		log.Warn().
			Str("amount", payment.ApprovedAmount.StringFixed(2)).
			Str("excess", payment.Excess.StringFixed(2)).
			Msg("online payment settled with excess")
	default:
		s.metrics.PaymentsSettled.WithLabelValues(string(method), "approved").Inc()
		log.Info().Str("amount", payment.ApprovedAmount.StringFixed(2)).Msg("online payment settled")
	}

	return payment, nil
}

// applicableAmount is the part of amount the order can take at its current
// rates: all of it, or the payoff when amount would overpay.
func applicableAmount(tables Tables, order *model.Order, amount decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	if err := checkOrderPayable(order); err != nil {
		return decimal.Zero, err
	}

	discountRate, interestRate := tables.Rates(billing.AgeDays(order.CycleStart(), at))
	outstanding := billing.Outstanding(order)

	_, err := billing.Settle(billing.SettlementInput{
		Outstanding:  outstanding,
		Amount:       amount,
		DiscountRate: discountRate,
		InterestRate: interestRate,
	})
	if err == nil {
		return amount, nil
	}
	if !errors.Is(err, apperr.ErrOverpayment) {
		return decimal.Zero, err
	}
	return billing.PayoffAmount(outstanding, discountRate, interestRate)
}

func (s *paymentServiceImpl) ChargeCard(ctx context.Context, orderID string, req *dto.CardPaymentRequest) (*model.Payment, error) {
	if strings.TrimSpace(req.Nonce) == "" {
		return nil, apperr.Validation("nonce is required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperr.Validation("amount must be positive")
	}

	order, err := s.orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.CheckPayable(ctx, order, req.Amount); err != nil {
		return nil, err
	}

	txID, err := s.braintreeClient.ChargeOneTime(ctx, req.Nonce, req.Amount.Round(2), order.OrderNumber)
	if err != nil {
		s.metrics.PaymentsSettled.WithLabelValues(string(model.PaymentMethodCard), "declined").Inc()
		return nil, fmt.Errorf("braintree charge: %w", err)
	}

	payment, err := s.RecordOnline(ctx, order.ID, model.PaymentMethodCard, txID, req.Amount)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.New("card transaction was recorded twice")
	}
	return payment, nil
}
