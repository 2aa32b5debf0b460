package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentState string

const (
	PaymentStatePending  PaymentState = "pending"
	PaymentStateApproved PaymentState = "approved"
	PaymentStateRejected PaymentState = "rejected"
	// PaymentStateUnapplied holds provider-captured money that found no balance
	// to settle. It needs a refund or a manual adjustment.
	PaymentStateUnapplied PaymentState = "unapplied"
)

type PaymentMethod string

const (
	PaymentMethodManual PaymentMethod = "manual" // bank transfer / UPI, approved by an admin
	PaymentMethodPaypal PaymentMethod = "paypal"
	PaymentMethodCard   PaymentMethod = "card"
)

type Payment struct {
	Base
	OrderID        string          `gorm:"size:36;index;not null" json:"orderId"`
	Order          *Order          `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	CustomerID     string          `gorm:"size:36;index;not null" json:"customerId"`
	Amount         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	ApprovedAmount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"approvedAmount"`
	Reference      string          `gorm:"size:128" json:"reference"`
	Method         PaymentMethod   `gorm:"size:16;not null;default:manual" json:"method"`
	ProviderRef    *string         `gorm:"size:128;uniqueIndex" json:"providerRef,omitempty"`
	Approved       bool            `gorm:"not null;default:false" json:"approved"`
	Status         PaymentState    `gorm:"size:16;index;not null" json:"status"`
	CashDiscount   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"cashDiscount"`
	Interest       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"interest"`
	AgeDays        int             `gorm:"not null;default:0" json:"ageDays"`
	// Excess is the part of a captured amount beyond what the order owed.
	Excess decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"excess"`
	SettledAt      *time.Time      `json:"settledAt,omitempty"`
}
