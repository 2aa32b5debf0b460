package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductAvailable   ProductStatus = "available"
	ProductUnavailable ProductStatus = "unavailable"
)

type Category struct {
	Base
	Name     string `gorm:"size:128;uniqueIndex;not null" json:"name"`
	ImageURL string `json:"image,omitempty"`
}

type Product struct {
	Base
	Title             string          `gorm:"size:255;not null" json:"title"`
	Description       string          `json:"description"`
	SKU               string          `gorm:"column:sku;size:64;uniqueIndex;not null" json:"sku"`
	Currency          string          `gorm:"size:8;not null;default:INR" json:"currency"`
	Status            ProductStatus   `gorm:"size:16;index;not null;default:available" json:"status"`
	Available         int             `gorm:"not null;default:0" json:"available"` // units in stock
	MinQuantity       int             `gorm:"not null;default:1" json:"minQuantity"`
	QuantityIncrement int             `gorm:"not null;default:0" json:"quantityIncrement"`
	Price             decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"price"`
	DiscountValue     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"discountValue"`
	VendorID          string          `gorm:"size:36;index" json:"vendorId,omitempty"`
	CategoryID        string          `gorm:"size:36;index" json:"mainCategory,omitempty"`
	MainImage         string          `json:"mainImage,omitempty"`
	AdditionalImages  []string        `gorm:"serializer:json" json:"additionalImages,omitempty"`
	Variants          []Variant       `gorm:"constraint:OnDelete:CASCADE" json:"variants"`
}

type Variant struct {
	ID        string          `gorm:"primaryKey;size:36;not null" json:"id"`
	ProductID string          `gorm:"size:36;index;not null" json:"-"`
	Type      string          `gorm:"size:32;not null" json:"type"` // e.g. weight, volume
	Value     string          `gorm:"size:64;not null" json:"value"`
	Price     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`
}

func (v *Variant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

func (v *Variant) Label() string {
	return v.Value + " " + v.Type
}

// FindVariant returns the variant with the given id, or nil.
func (p *Product) FindVariant(id string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}
