package handler

import (
	"net/http"

	"template-storefront/internal/dto"
	"template-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

func (h *CatalogHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		categoryID string
		featured   bool
	)
	if err := echo.QueryParamsBinder(c).
		String("category", &categoryID).
		Bool("featured", &featured).
		BindError(); err != nil {
		return badRequest("invalid query", err)
	}

	products, err := h.catalogService.ListProducts(ctx, categoryID, featured)
	if err != nil {
		return err
	}

	resp := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, dto.NewProductResponse(p))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.catalogService.GetProduct(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewProductResponse(product))
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := h.catalogService.ListCategories(ctx)
	if err != nil {
		return err
	}

	resp := make([]*dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		resp = append(resp, dto.NewCategoryResponse(cat))
	}
	return c.JSON(http.StatusOK, resp)
}
