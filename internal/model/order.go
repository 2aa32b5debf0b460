package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderType string

const (
	OrderTypeCash   OrderType = "cash"
	OrderTypeCredit OrderType = "credit"
)

func (t OrderType) Valid() bool {
	return t == OrderTypeCash || t == OrderTypeCredit
}

type OrderStatus string

const (
	OrderDraft          OrderStatus = "draft"
	OrderReceived       OrderStatus = "orderReceived"
	OrderInProgress     OrderStatus = "inProgress"
	OrderQualityCheck   OrderStatus = "qualityCheck"
	OrderOutForDelivery OrderStatus = "outForDelivery"
	OrderDelivered      OrderStatus = "orderDelivered"
)

// orderStatusFlow is the only direction an order may travel.
var orderStatusFlow = []OrderStatus{
	OrderDraft,
	OrderReceived,
	OrderInProgress,
	OrderQualityCheck,
	OrderOutForDelivery,
	OrderDelivered,
}

// Rank returns the position of s in the order flow, or -1 when s is unknown.
func (s OrderStatus) Rank() int {
	for i, st := range orderStatusFlow {
		if st == s {
			return i
		}
	}
	return -1
}

type PaymentStatus string

const (
	PaymentPending         PaymentStatus = "pendingPayment"
	PaymentPendingApproval PaymentStatus = "pendingApproval"
	PaymentApproved        PaymentStatus = "paymentApproved"
	PaymentPaidInFull      PaymentStatus = "paidInFull"
)

type Order struct {
	Base
	OrderNumber     string          `gorm:"size:40;uniqueIndex;not null" json:"orderId"`
	CustomerID      string          `gorm:"size:36;index;not null" json:"customerId"`
	Customer        *User           `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	OrderType       OrderType       `gorm:"size:16;not null" json:"orderType"`
	OrderStatus     OrderStatus     `gorm:"size:32;index;not null" json:"orderStatus"`
	PaymentStatus   PaymentStatus   `gorm:"size:32;index;not null" json:"paymentStatus"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
	CouponID        *string         `gorm:"size:36" json:"couponId,omitempty"`
	CouponDiscount  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"couponDiscount"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"totalAmount"`
	AmountPaid      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"amountPaid"`
	AmountRemaining decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amountRemaining"`
	CashDiscount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"cashDiscount"`
	Interest        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"interest"`
	CreditReserved  bool            `gorm:"not null;default:false" json:"creditReserved"`
	DeliveryDate    *time.Time      `json:"deliveryDate,omitempty"`
	ApprovedAt      *time.Time      `json:"approvedAt,omitempty"`
	Products        []OrderProduct  `gorm:"constraint:OnDelete:CASCADE" json:"products"`
}

// CycleStart is the instant payment age is measured from.
func (o *Order) CycleStart() time.Time {
	if o.ApprovedAt != nil {
		return *o.ApprovedAt
	}
	return o.CreatedAt
}

type OrderProduct struct {
	ID           string          `gorm:"primaryKey;size:36;not null" json:"id"`
	OrderID      string          `gorm:"size:36;index;not null" json:"-"`
	ProductID    string          `gorm:"size:36;index;not null" json:"productId"`
	VariantID    string          `gorm:"size:36" json:"variantId,omitempty"`
	Title        string          `gorm:"size:255" json:"title"`
	VariantLabel string          `gorm:"size:128" json:"variant,omitempty"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unitPrice"`
	Amount       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	DueDate      time.Time       `json:"dueDate"`
	DueAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"dueAmount"`
}

func (p *OrderProduct) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
