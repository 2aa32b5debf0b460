package model

import "github.com/shopspring/decimal"

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	Base
	FirstName     string `gorm:"size:64;not null" json:"firstName"`
	LastName      string `gorm:"size:64;not null" json:"lastName"`
	Email         string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone         string `gorm:"size:32" json:"phone"`
	ShopName      string `gorm:"size:128" json:"shopName"`
	ShopOwnerName string `gorm:"size:128" json:"shopOwnerName"`
	ShopAddress   string `json:"shopAddress"`
	GSTNumber     string `gorm:"column:gst_number;size:32" json:"gstNumber"`
	PANNumber     string `gorm:"column:pan_number;size:32" json:"panNumber"`
	AadharNumber  string `gorm:"size:32" json:"aadharNumber"`

	// KYC documents are stored as URLs to files uploaded elsewhere.
	PesticideLicense    string `json:"pesticideLicense,omitempty"`
	SecurityChecksImage string `json:"securityChecksImage,omitempty"`
	DealershipForm      string `json:"dealershipForm,omitempty"`
	AadharFrontImage    string `json:"aadharFrontImage,omitempty"`
	AadharBackImage     string `json:"aadharBackImage,omitempty"`

	CompanyName string `json:"companyName,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
	Country     string `json:"country,omitempty"`
	Category    string `json:"category,omitempty"`

	Role             Role            `gorm:"size:16;index;not null;default:user" json:"role"`
	CreditLimit      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"creditLimit"`
	UsedCredit       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"usedCredit"`
	VendorAccess     bool            `gorm:"not null;default:false" json:"vendorAccess"`
	CustomerAccess   bool            `gorm:"not null;default:false" json:"customerAccess"`
	CustomerRejected bool            `gorm:"not null;default:false" json:"customerRejected"`
	TotalSpent       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"totalSpent"`
	AvailedSchemeID  *string         `gorm:"size:36" json:"availedScheme,omitempty"`
	CouponsApplied   []Coupon        `gorm:"many2many:user_coupons" json:"couponsApplied,omitempty"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) AvailableCredit() decimal.Decimal {
	return u.CreditLimit.Sub(u.UsedCredit)
}
