package handler

import (
	"canx-backend/internal/dto"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"
	"canx-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type CatalogueHandler struct {
	catalogueService service.CatalogueService
}

func NewCatalogueHandler(catalogueService service.CatalogueService) *CatalogueHandler {
	return &CatalogueHandler{
		catalogueService: catalogueService,
	}
}

func (h *CatalogueHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalogueService.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, categories)
}

func (h *CatalogueHandler) CreateCategory(c echo.Context) error {
	var req dto.CategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	category, err := h.catalogueService.CreateCategory(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return created(c, category)
}

func (h *CatalogueHandler) UpdateCategory(c echo.Context) error {
	var req dto.CategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	category, err := h.catalogueService.UpdateCategory(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return err
	}
	return ok(c, category)
}

func (h *CatalogueHandler) DeleteCategory(c echo.Context) error {
	if err := h.catalogueService.DeleteCategory(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return message(c, "category deleted")
}

func (h *CatalogueHandler) ListProducts(c echo.Context) error {
	products, err := h.catalogueService.ListProducts(c.Request().Context(), repository.ProductFilter{
		CategoryID: c.QueryParam("category"),
		Status:     model.ProductStatus(c.QueryParam("status")),
		VendorID:   c.QueryParam("vendor"),
	})
	if err != nil {
		return err
	}
	return ok(c, products)
}

func (h *CatalogueHandler) GetProduct(c echo.Context) error {
	product, err := h.catalogueService.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, product)
}

func (h *CatalogueHandler) CreateProduct(c echo.Context) error {
	var req dto.ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.catalogueService.CreateProduct(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return created(c, product)
}

func (h *CatalogueHandler) UpdateProduct(c echo.Context) error {
	var req dto.ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.catalogueService.UpdateProduct(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return err
	}
	return ok(c, product)
}

func (h *CatalogueHandler) DeleteProduct(c echo.Context) error {
	if err := h.catalogueService.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return message(c, "product deleted")
}
