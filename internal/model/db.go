package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the columns shared by every stored record.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36;not null" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All lists the models managed by AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&Variant{},
		&Order{},
		&OrderProduct{},
		&Payment{},
		&CashDiscount{},
		&Interest{},
		&Scheme{},
		&Slab{},
		&SchemeReward{},
		&Coupon{},
		&WebhookEvent{},
	}
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
