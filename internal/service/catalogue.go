package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"canx-backend/internal/apperr"
	"canx-backend/internal/dto"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"

	"go.uber.org/multierr"
)

type CatalogueService interface {
	ListCategories(ctx context.Context) ([]*model.Category, error)
	CreateCategory(ctx context.Context, req *dto.CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, req *dto.CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, req *dto.ProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, req *dto.ProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type catalogueServiceImpl struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	currency     string
}

func NewCatalogueService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	currency string,
) CatalogueService {
	return &catalogueServiceImpl{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		currency:     currency,
	}
}

func (s *catalogueServiceImpl) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *catalogueServiceImpl) checkCategoryName(ctx context.Context, name, exceptID string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("name is required")
	}
	taken, err := s.categoryRepo.NameTaken(ctx, name, exceptID)
	if err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if taken {
		return apperr.Conflict("category %q already exists", name)
	}
	return nil
}

func (s *catalogueServiceImpl) CreateCategory(ctx context.Context, req *dto.CategoryRequest) (*model.Category, error) {
	if err := s.checkCategoryName(ctx, req.Name, ""); err != nil {
		return nil, err
	}

	category := &model.Category{Name: strings.TrimSpace(req.Name), ImageURL: req.Image}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *catalogueServiceImpl) UpdateCategory(ctx context.Context, id string, req *dto.CategoryRequest) (*model.Category, error) {
	category, err := s.categoryRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategoryName(ctx, req.Name, id); err != nil {
		return nil, err
	}

	category.Name = strings.TrimSpace(req.Name)
	category.ImageURL = req.Image
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, fmt.Errorf("save category: %w", err)
	}
	return category, nil
}

func (s *catalogueServiceImpl) DeleteCategory(ctx context.Context, id string) error {
	n, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("count category products: %w", err)
	}
	if n > 0 {
		return apperr.Conflict("category still has %d products", n)
	}
	return s.categoryRepo.Delete(ctx, id)
}

func (s *catalogueServiceImpl) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error) {
	return s.productRepo.List(ctx, filter)
}

func (s *catalogueServiceImpl) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return s.productRepo.Get(ctx, id)
}

func validateProduct(req *dto.ProductRequest) error {
	var err error
	if strings.TrimSpace(req.Title) == "" {
		err = multierr.Append(err, apperr.Validation("title is required"))
	}
	if strings.TrimSpace(req.SKU) == "" {
		err = multierr.Append(err, apperr.Validation("sku is required"))
	}
	switch req.Status {
	case "", model.ProductAvailable, model.ProductUnavailable:
	default:
		err = multierr.Append(err, apperr.Validation("status %q is not one of available, unavailable", req.Status))
	}
	if req.Available < 0 {
		err = multierr.Append(err, apperr.Validation("available must not be negative"))
	}
	if req.MinQuantity < 0 || req.QuantityIncrement < 0 {
		err = multierr.Append(err, apperr.Validation("minQuantity and quantityIncrement must not be negative"))
	}
	if req.Price.IsNegative() || req.DiscountValue.IsNegative() {
		err = multierr.Append(err, apperr.Validation("price and discountValue must not be negative"))
	}
	if len(req.Variants) == 0 && !req.Price.IsPositive() {
		err = multierr.Append(err, apperr.Validation("price is required when the product has no variants"))
	}
	for i, v := range req.Variants {
		if strings.TrimSpace(v.Type) == "" || strings.TrimSpace(v.Value) == "" {
			err = multierr.Append(err, apperr.Validation("variant %d: type and value are required", i+1))
		}
		if !v.Price.IsPositive() {
			err = multierr.Append(err, apperr.Validation("variant %d: price must be positive", i+1))
		}
	}
	return err
}

func (s *catalogueServiceImpl) applyProductRequest(p *model.Product, req *dto.ProductRequest) {
	p.Title = strings.TrimSpace(req.Title)
	p.Description = req.Description
	p.SKU = strings.TrimSpace(req.SKU)
	p.Currency = req.Currency
	if p.Currency == "" {
		p.Currency = s.currency
	}
	p.Status = req.Status
	if p.Status == "" {
		p.Status = model.ProductAvailable
	}
	p.Available = req.Available
	p.MinQuantity = req.MinQuantity
	if p.MinQuantity == 0 {
		p.MinQuantity = 1
	}
	p.QuantityIncrement = req.QuantityIncrement
	p.Price = req.Price
	p.DiscountValue = req.DiscountValue
	p.VendorID = req.VendorID
	p.CategoryID = req.CategoryID
	p.MainImage = req.MainImage
	p.AdditionalImages = req.AdditionalImages

	p.Variants = make([]model.Variant, len(req.Variants))
	for i, v := range req.Variants {
		p.Variants[i] = model.Variant{
			Type:  strings.TrimSpace(v.Type),
			Value: strings.TrimSpace(v.Value),
			Price: v.Price,
		}
	}
}

func (s *catalogueServiceImpl) checkProductRefs(ctx context.Context, req *dto.ProductRequest, exceptID string) error {
	taken, err := s.productRepo.SKUTaken(ctx, strings.TrimSpace(req.SKU), exceptID)
	if err != nil {
		return fmt.Errorf("check sku: %w", err)
	}
	if taken {
		return apperr.Conflict("sku %s is already used", req.SKU)
	}

	if req.CategoryID != "" {
		if _, err := s.categoryRepo.Get(ctx, req.CategoryID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Validation("mainCategory %s does not exist", req.CategoryID)
			}
			return err
		}
	}
	return nil
}

func (s *catalogueServiceImpl) CreateProduct(ctx context.Context, req *dto.ProductRequest) (*model.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}
	if err := s.checkProductRefs(ctx, req, ""); err != nil {
		return nil, err
	}

	product := &model.Product{}
	s.applyProductRequest(product, req)
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *catalogueServiceImpl) UpdateProduct(ctx context.Context, id string, req *dto.ProductRequest) (*model.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	product, err := s.productRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkProductRefs(ctx, req, id); err != nil {
		return nil, err
	}

	s.applyProductRequest(product, req)
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (s *catalogueServiceImpl) DeleteProduct(ctx context.Context, id string) error {
	return s.productRepo.Delete(ctx, id)
}
