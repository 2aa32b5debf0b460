package model

import "github.com/shopspring/decimal"

// CashDiscount rewards payments made between PaymentStart and PaymentEnd days
// into the order's payment cycle.
type CashDiscount struct {
	Base
	PaymentStart int             `gorm:"not null" json:"paymentStart"`
	PaymentEnd   int             `gorm:"not null" json:"paymentEnd"`
	Discount     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"discount"`
}

// Interest charges payments made between PaymentStart and PaymentEnd days
// into the order's payment cycle.
type Interest struct {
	Base
	PaymentStart int             `gorm:"not null" json:"paymentStart"`
	PaymentEnd   int             `gorm:"not null" json:"paymentEnd"`
	Interest     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"interest"`
}
