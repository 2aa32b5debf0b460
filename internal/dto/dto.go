package dto

import (
	"time"

	"canx-backend/internal/model"

	"github.com/shopspring/decimal"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type UserRequest struct {
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Role          model.Role `json:"role"`
	ShopName      string     `json:"shopName"`
	ShopOwnerName string     `json:"shopOwnerName"`
	ShopAddress   string     `json:"shopAddress"`
	GSTNumber     string     `json:"gstNumber"`
	PANNumber     string     `json:"panNumber"`
	AadharNumber  string     `json:"aadharNumber"`

	PesticideLicense    string `json:"pesticideLicense"`
	SecurityChecksImage string `json:"securityChecksImage"`
	DealershipForm      string `json:"dealershipForm"`
	AadharFrontImage    string `json:"aadharFrontImage"`
	AadharBackImage     string `json:"aadharBackImage"`

	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zipCode"`
	Country     string `json:"country"`
	Category    string `json:"category"`
}

type VendorAccessRequest struct {
	VendorAccess bool `json:"vendorAccess"`
}

type CreditLimitRequest struct {
	CreditLimit decimal.Decimal `json:"creditLimit"`
}

type CategoryRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type VariantRequest struct {
	Type  string          `json:"type"`
	Value string          `json:"value"`
	Price decimal.Decimal `json:"price"`
}

type ProductRequest struct {
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	SKU               string              `json:"sku"`
	Currency          string              `json:"currency"`
	Status            model.ProductStatus `json:"status"`
	Available         int                 `json:"available"`
	MinQuantity       int                 `json:"minQuantity"`
	QuantityIncrement int                 `json:"quantityIncrement"`
	Price             decimal.Decimal     `json:"price"`
	DiscountValue     decimal.Decimal     `json:"discountValue"`
	VendorID          string              `json:"vendorId"`
	CategoryID        string              `json:"mainCategory"`
	MainImage         string              `json:"mainImage"`
	AdditionalImages  []string            `json:"additionalImages"`
	Variants          []VariantRequest    `json:"variants"`
}

type CashDiscountRequest struct {
	PaymentStart int             `json:"paymentStart"`
	PaymentEnd   int             `json:"paymentEnd"`
	Discount     decimal.Decimal `json:"discount"`
}

type InterestRequest struct {
	PaymentStart int             `json:"paymentStart"`
	PaymentEnd   int             `json:"paymentEnd"`
	Interest     decimal.Decimal `json:"interest"`
}

type CouponRequest struct {
	Code          string             `json:"code"`
	DiscountType  model.DiscountType `json:"discountType"`
	Value         decimal.Decimal    `json:"value"`
	MinOrderValue decimal.Decimal    `json:"minOrderValue"`
	MaxDiscount   decimal.Decimal    `json:"maxDiscount"`
	ExpiresAt     *time.Time         `json:"expiresAt"`
	Active        *bool              `json:"active"`
}

type ValidateCouponRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CouponValidation struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

type Item struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	// CustomerID is honoured for admins placing an order on a dealer's behalf.
	CustomerID   string          `json:"customerId"`
	OrderType    model.OrderType `json:"orderType"`
	Products     []Item          `json:"products"`
	CouponCode   string          `json:"couponCode"`
	DeliveryDate *time.Time      `json:"deliveryDate"`
}

type UpdateOrderRequest struct {
	OrderStatus  *model.OrderStatus `json:"orderStatus"`
	OrderType    *model.OrderType   `json:"orderType"`
	DeliveryDate *time.Time         `json:"deliveryDate"`
}

type Quote struct {
	OrderID      string          `json:"orderId"`
	At           time.Time       `json:"at"`
	AgeDays      int             `json:"ageDays"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	InterestRate decimal.Decimal `json:"interestRate"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	PayoffAmount decimal.Decimal `json:"payoffAmount"`
}

type SubmitPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

type ApprovePaymentRequest struct {
	// Amount overrides the submitted amount when the admin confirms a different figure.
	Amount *decimal.Decimal `json:"amount"`
}

type PayRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type PayResponse struct {
	OrderID          string `json:"order_id"`
	OrderApprovalURL string `json:"order_approval_url"`
}

type CardPaymentRequest struct {
	Nonce  string          `json:"nonce"`
	Amount decimal.Decimal `json:"amount"`
}

type SlabRequest struct {
	Slab    decimal.Decimal `json:"slab"`
	Benefit string          `json:"benefit"`
}

type SchemeRequest struct {
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	SchemeStart    time.Time     `json:"schemeStart"`
	SchemeEnd      time.Time     `json:"schemeEnd"`
	SettlementDate *time.Time    `json:"settlementDate"`
	Slabs          []SlabRequest `json:"slabs"`
}

type RewardRequest struct {
	UserID   string `json:"userId"`
	SchemeID string `json:"schemeId"`
}

type QualifiedCustomer struct {
	UserID      string          `json:"userId"`
	Name        string          `json:"name"`
	ShopName    string          `json:"shopName"`
	SchemeID    string          `json:"schemeId"`
	SchemeTitle string          `json:"schemeTitle"`
	Benefit     string          `json:"benefit"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
}
