// Package seed loads reference data (tier tables, categories, admins) from a
// YAML file into a fresh database.
package seed

import (
	"context"
	"fmt"
	"os"

	"canx-backend/internal/dto"
	"canx-backend/internal/model"
	"canx-backend/internal/service"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type File struct {
	Admins        []Admin  `yaml:"admins"`
	CashDiscounts []Tier   `yaml:"cashDiscounts"`
	Interests     []Tier   `yaml:"interests"`
	Categories    []string `yaml:"categories"`
}

type Admin struct {
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
	Email     string `yaml:"email"`
	Phone     string `yaml:"phone"`
}

// Tier is one row of either tier table. Rate is a percentage.
type Tier struct {
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
	Rate  string `yaml:"rate"`
}

// Result lists what Apply created.
type Result struct {
	Admins        []*model.User
	CashDiscounts int
	Interests     int
	Categories    int
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Apply writes the file through the services so the usual validation runs.
// It stops at the first failure.
func Apply(ctx context.Context, f *File, users service.UserService, tiers service.TierService, catalogue service.CatalogueService) (*Result, error) {
	res := &Result{}

	for _, a := range f.Admins {
		u, err := users.Create(ctx, &dto.UserRequest{
			FirstName: a.FirstName,
			LastName:  a.LastName,
			Email:     a.Email,
			Phone:     a.Phone,
			Role:      model.RoleAdmin,
		})
		if err != nil {
			return res, fmt.Errorf("seed admin %s: %w", a.Email, err)
		}
		res.Admins = append(res.Admins, u)
	}

	for _, t := range f.CashDiscounts {
		rate, err := decimal.NewFromString(t.Rate)
		if err != nil {
			return res, fmt.Errorf("seed cash discount %d-%d: parse rate: %w", t.Start, t.End, err)
		}
		_, err = tiers.CreateCashDiscount(ctx, &dto.CashDiscountRequest{PaymentStart: t.Start, PaymentEnd: t.End, Discount: rate})
		if err != nil {
			return res, fmt.Errorf("seed cash discount %d-%d: %w", t.Start, t.End, err)
		}
		res.CashDiscounts++
	}

	for _, t := range f.Interests {
		rate, err := decimal.NewFromString(t.Rate)
		if err != nil {
			return res, fmt.Errorf("seed interest %d-%d: parse rate: %w", t.Start, t.End, err)
		}
		_, err = tiers.CreateInterest(ctx, &dto.InterestRequest{PaymentStart: t.Start, PaymentEnd: t.End, Interest: rate})
		if err != nil {
			return res, fmt.Errorf("seed interest %d-%d: %w", t.Start, t.End, err)
		}
		res.Interests++
	}

	for _, name := range f.Categories {
		if _, err := catalogue.CreateCategory(ctx, &dto.CategoryRequest{Name: name}); err != nil {
			return res, fmt.Errorf("seed category %s: %w", name, err)
		}
		res.Categories++
	}

	return res, nil
}
