package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/service"
)

type CatalogHandler struct {
	catalog service.CatalogService
}

func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	category, err := h.catalog.CreateCategory(ctx, req.Name)
	if err != nil {
		return fail(c, err)
	}
	return created(c, category)
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, categories)
}

func (h *CatalogHandler) RenameCategory(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.catalog.RenameCategory(ctx, c.Param("id"), req.Name); err != nil {
		return fail(c, err)
	}
	return ok(c, "category renamed")
}

func (h *CatalogHandler) DeactivateCategory(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.catalog.DeactivateCategory(ctx, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, "category deactivated")
}

// CreateProduct takes a multipart form so the product image rides along with
// the fields in one request.
func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	vendorID, _ := c.Get(middleware.ContextUserID).(string)

	stock, _ := strconv.Atoi(c.FormValue("stock"))
	discount, _ := strconv.Atoi(c.FormValue("discount_percent"))
	req := &dto.ProductRequest{
		CategoryID:      c.FormValue("category"),
		Name:            c.FormValue("name"),
		Description:     c.FormValue("description"),
		Stock:           stock,
		OriginalPrice:   c.FormValue("original_price"),
		DiscountPercent: discount,
	}

	var image io.Reader
	var imageName string
	if file, err := c.FormFile("image"); err == nil {
		src, err := file.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable image")
		}
		defer src.Close()
		image = src
		imageName = file.Filename
	}

	product, err := h.catalog.CreateProduct(ctx, vendorID, req, image, imageName)
	if err != nil {
		return fail(c, err)
	}
	return created(c, product)
}

func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	vendorID, _ := c.Get(middleware.ContextUserID).(string)

	var req dto.ProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	product, err := h.catalog.UpdateProduct(ctx, vendorID, c.Param("id"), &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, product)
}

func (h *CatalogHandler) ListVendorProducts(c echo.Context) error {
	ctx := c.Request().Context()
	vendorID, _ := c.Get(middleware.ContextUserID).(string)

	products, err := h.catalog.ListVendorProducts(ctx, vendorID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, products)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.catalog.GetProduct(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, product)
}
