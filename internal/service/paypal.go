package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"canx-backend/internal/apperr"
	"canx-backend/internal/client"
	"canx-backend/internal/dto"
	"canx-backend/internal/metrics"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaypalService interface {
	Pay(ctx context.Context, orderID string, req *dto.PayRequest) (*dto.PayResponse, error)
	CaptureOrder(ctx context.Context, paypalOrderID string) (*model.Payment, error)
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
}

type paypalServiceImpl struct {
	db               *gorm.DB
	paypalClient     client.PaypalClient
	serviceBaseUrl   string
	currency         string
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
	paymentService   PaymentService
	metrics          *metrics.Metrics
	log              zerolog.Logger
}

func NewPaypalService(
	db *gorm.DB,
	paypalClient client.PaypalClient,
	serviceBaseUrl string,
	currency string,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	paymentService PaymentService,
	m *metrics.Metrics,
	log zerolog.Logger,
) PaypalService {
	return &paypalServiceImpl{
		db:               db,
		paypalClient:     paypalClient,
		serviceBaseUrl:   serviceBaseUrl,
		currency:         currency,
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
		paymentService:   paymentService,
		metrics:          m,
		log:              log,
	}
}

func (s *paypalServiceImpl) Pay(ctx context.Context, orderID string, req *dto.PayRequest) (*dto.PayResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, apperr.Validation("amount must be positive")
	}

	order, err := s.orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.paymentService.CheckPayable(ctx, order, req.Amount); err != nil {
		return nil, err
	}

	resp, err := s.paypalClient.CreateOrder(ctx, client.CreateOrderRequest{
		ReferenceID: order.OrderNumber,
		CustomID:    order.ID,
		Amount:      req.Amount.Round(2),
		Currency:    s.currency,
		ReturnURL:   fmt.Sprintf("%s/api/paypal/success", s.serviceBaseUrl),
		CancelURL:   s.serviceBaseUrl,
	})
	if err != nil {
		return nil, fmt.Errorf("paypal api create order: %w", err)
	}

	s.log.Info().Str("order_id", order.ID).Str("paypal_order_id", resp.OrderID).Msg("paypal checkout started")
	return &dto.PayResponse{
		OrderID:          resp.OrderID,
		OrderApprovalURL: resp.ApproveURL,
	}, nil
}

func (s *paypalServiceImpl) CaptureOrder(ctx context.Context, paypalOrderID string) (*model.Payment, error) {
	capture, err := s.paypalClient.CaptureOrder(ctx, paypalOrderID)
	if err != nil {
		return nil, fmt.Errorf("paypal api capture order: %w", err)
	}
	return s.recordCapture(ctx, capture)
}

func (s *paypalServiceImpl) recordCapture(ctx context.Context, capture *model.Capture) (*model.Payment, error) {
	if capture.CustomID == "" {
		return nil, fmt.Errorf("capture %s carries no order reference", capture.ID)
	}
	amount, err := decimal.NewFromString(capture.Amount.Value)
	if err != nil {
		return nil, fmt.Errorf("parse capture amount %q: %w", capture.Amount.Value, err)
	}

	return s.paymentService.RecordOnline(ctx, capture.CustomID, model.PaymentMethodPaypal, capture.ID, amount)
}

func (s *paypalServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	err := s.paypalClient.VerifyWebhookSignature(ctx, headers, body)
	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues("unknown", "unverified").Inc()
		return fmt.Errorf("%w: verify webhook signature: %v", apperr.ErrUnauthorized, err)
	}

	var eventPayload model.PayPalWebhookEvent
	if err := json.Unmarshal(body, &eventPayload); err != nil {
		return apperr.Validation("decode webhook payload: %v", err)
	}
	if eventPayload.ID == "" {
		return apperr.Validation("webhook event has no id")
	}

	log := s.log.With().Str("event_id", eventPayload.ID).Str("event_type", eventPayload.EventType).Logger()

	processed, err := s.webhookEventRepo.Exists(ctx, eventPayload.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		log.Info().Msg("webhook event already processed")
		s.metrics.WebhookEvents.WithLabelValues(eventPayload.EventType, "duplicate").Inc()
		return nil
	}

	switch eventPayload.EventType {
	case model.PaypalEventCaptureCompleted:
		if _, err := s.recordCapture(ctx, &eventPayload.Resource); err != nil {
			s.metrics.WebhookEvents.WithLabelValues(eventPayload.EventType, "failed").Inc()
			return fmt.Errorf("record capture: %w", err)
		}
	case model.PaypalEventCaptureDenied:
		log.Warn().Str("capture_id", eventPayload.Resource.ID).Str("order_id", eventPayload.Resource.CustomID).Msg("paypal capture denied")
	default:
		log.Debug().Msg("webhook event ignored")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.webhookEventRepo.MarkProcessed(ctx, tx, eventPayload.ID, eventPayload.EventType)
	})
	if err != nil {
		return fmt.Errorf("mark webhook processed: %w", err)
	}

	s.metrics.WebhookEvents.WithLabelValues(eventPayload.EventType, "processed").Inc()
	return nil
}
