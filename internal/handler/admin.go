package handler

import (
	"context"
	"net/http"

	"template-storefront/internal/dto"
	"template-storefront/internal/middleware"
	"template-storefront/internal/model"
	"template-storefront/internal/repository"
	"template-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

func productInput(req *dto.ProductRequest) service.ProductInput {
	return service.ProductInput{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		AssetURL:      req.AssetURL,
		Status:        model.ProductStatus(req.Status),
		Featured:      req.Featured,
		CategoryID:    req.CategoryID,
	}
}

// -------- products --------

func (h *AdminHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	var status, categoryID string
	var featured bool
	if err := echo.QueryParamsBinder(c).
		String("status", &status).
		String("category", &categoryID).
		Bool("featured", &featured).
		BindError(); err != nil {
		return badRequest("invalid query", err)
	}

	products, err := h.adminService.ListProducts(ctx, middleware.AdminCapability(c), repository.ProductFilter{
		Status:     model.ProductStatus(status),
		CategoryID: categoryID,
		Featured:   featured,
	})
	if err != nil {
		return err
	}

	resp := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, dto.NewAdminProductResponse(p))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid req body", err)
	}

	product, err := h.adminService.CreateProduct(ctx, middleware.AdminCapability(c), productInput(&req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.NewAdminProductResponse(product))
}

func (h *AdminHandler) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid req body", err)
	}

	product, err := h.adminService.UpdateProduct(ctx, middleware.AdminCapability(c), c.Param("id"), productInput(&req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewAdminProductResponse(product))
}

func (h *AdminHandler) ArchiveProduct(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.adminService.ArchiveProduct(ctx, middleware.AdminCapability(c), c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// -------- categories --------

func (h *AdminHandler) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := h.adminService.ListCategories(ctx, middleware.AdminCapability(c))
	if err != nil {
		return err
	}

	resp := make([]*dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		resp = append(resp, dto.NewCategoryResponse(cat))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid req body", err)
	}

	cat, err := h.adminService.CreateCategory(ctx, middleware.AdminCapability(c), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.NewCategoryResponse(cat))
}

func (h *AdminHandler) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid req body", err)
	}

	cat, err := h.adminService.UpdateCategory(ctx, middleware.AdminCapability(c), c.Param("id"), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewCategoryResponse(cat))
}

func (h *AdminHandler) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.adminService.DeleteCategory(ctx, middleware.AdminCapability(c), c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// -------- orders --------

func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		status, email string
		limit, offset int
	)
	if err := echo.QueryParamsBinder(c).
		String("status", &status).
		String("email", &email).
		Int("limit", &limit).
		Int("offset", &offset).
		BindError(); err != nil {
		return badRequest("invalid query", err)
	}

	orders, err := h.adminService.ListOrders(ctx, middleware.AdminCapability(c), repository.OrderFilter{
		Status: model.OrderStatus(status),
		Email:  email,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, adminOrders(orders))
}

func (h *AdminHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.adminService.GetOrder(ctx, middleware.AdminCapability(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewAdminOrderResponse(order))
}

func (h *AdminHandler) FailOrder(c echo.Context) error {
	return h.orderAction(c, h.adminService.FailOrder)
}

func (h *AdminHandler) RefundOrder(c echo.Context) error {
	return h.orderAction(c, h.adminService.RefundOrder)
}

func (h *AdminHandler) ResendConfirmation(c echo.Context) error {
	return h.orderAction(c, h.adminService.ResendConfirmation)
}

type orderActionFunc func(ctx context.Context, ac service.AdminCapability, orderID string) (*model.Order, error)

func (h *AdminHandler) orderAction(c echo.Context, action orderActionFunc) error {
	order, err := action(c.Request().Context(), middleware.AdminCapability(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewAdminOrderResponse(order))
}

func adminOrders(orders []*model.Order) []*dto.OrderResponse {
	resp := make([]*dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, dto.NewAdminOrderResponse(o))
	}
	return resp
}
