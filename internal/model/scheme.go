package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Scheme struct {
	Base
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    string     `json:"description"`
	SchemeStart    time.Time  `gorm:"index" json:"schemeStart"`
	SchemeEnd      time.Time  `gorm:"index" json:"schemeEnd"`
	SettlementDate *time.Time `json:"settlementDate,omitempty"`
	Slabs          []Slab     `gorm:"constraint:OnDelete:CASCADE" json:"slabs"`
}

// Slab maps a cumulative spend threshold to a benefit.
type Slab struct {
	ID        string          `gorm:"primaryKey;size:36;not null" json:"id"`
	SchemeID  string          `gorm:"size:36;index;not null" json:"-"`
	Position  int             `gorm:"not null" json:"position"`
	Threshold decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"slab"`
	Benefit   string          `gorm:"not null" json:"benefit"`
}

func (s *Slab) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type SchemeReward struct {
	Base
	SchemeID   string          `gorm:"size:36;uniqueIndex:idx_scheme_user;not null" json:"schemeId"`
	UserID     string          `gorm:"size:36;uniqueIndex:idx_scheme_user;not null" json:"userId"`
	Benefit    string          `gorm:"not null" json:"benefit"`
	TotalSpent decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"totalSpent"`
}
