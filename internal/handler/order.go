package handler

import (
	"net/http"

	"template-storefront/internal/dto"
	"template-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	fulfillmentService service.FulfillmentService
}

func NewOrderHandler(fulfillmentService service.FulfillmentService) *OrderHandler {
	return &OrderHandler{
		fulfillmentService: fulfillmentService,
	}
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid req body", err)
	}
	if req.ProductID == "" {
		return badRequest("productId is required", nil)
	}

	result, err := h.fulfillmentService.CreateCheckout(ctx, req.ProductID, req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.CheckoutResponse{
		OrderID: result.OrderID,
		URL:     result.HostedURL,
	})
}

// Verify is polled by the success page until the payment is confirmed.
func (h *OrderHandler) Verify(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid req body", err)
	}
	if req.SessionID == "" {
		return badRequest("sessionId is required", nil)
	}

	result, err := h.fulfillmentService.ConfirmPayment(ctx, req.SessionID, service.ChannelPull)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.VerifyResponse{
		Order:          dto.NewOrderResponse(result.Order, result.DownloadURL),
		DownloadURL:    result.DownloadURL,
		DownloadExpiry: result.CredentialExpiry,
		Warning:        result.Warning,
	})
}

func (h *OrderHandler) Lookup(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.fulfillmentService.BuyerOrders(ctx, c.QueryParam("email"))
	if err != nil {
		return err
	}

	resp := make([]*dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, dto.NewOrderResponse(o.Order, o.DownloadURL))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) Download(c echo.Context) error {
	ctx := c.Request().Context()

	assetURL, err := h.fulfillmentService.ResolveDownload(ctx, c.Param("token"))
	if err != nil {
		return err
	}

	return c.Redirect(http.StatusFound, assetURL)
}
