package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountFlat       DiscountType = "flat"
	DiscountPercentage DiscountType = "percentage"
)

type Coupon struct {
	Base
	Code          string          `gorm:"size:64;uniqueIndex;not null" json:"code"` // stored upper-case
	DiscountType  DiscountType    `gorm:"size:16;not null" json:"discountType"`
	Value         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"value"`
	MinOrderValue decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"minOrderValue"`
	MaxDiscount   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"maxDiscount"`
	ExpiresAt     *time.Time      `json:"expiresAt,omitempty"`
	Active        bool            `gorm:"not null" json:"active"`
}
