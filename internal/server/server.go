package server

import (
	"context"
	"log/slog"

	"template-storefront/internal/handler"
	"template-storefront/internal/metrics"
	mw "template-storefront/internal/middleware"
	"template-storefront/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Services struct {
	Fulfillment service.FulfillmentService
	Catalog     service.CatalogService
	Admin       service.AdminService
	Authorizer  *service.Authorizer
}

type Server struct {
	echo           *echo.Echo
	authorizer     *service.Authorizer
	gatherer       prometheus.Gatherer
	paypalHandler  *handler.PaypalHandler
	orderHandler   *handler.OrderHandler
	catalogHandler *handler.CatalogHandler
	adminHandler   *handler.AdminHandler
}

func NewServer(svc Services, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= 500 {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(mw.Metrics(m))
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))

	s := &Server{
		echo:           e,
		authorizer:     svc.Authorizer,
		gatherer:       gatherer,
		paypalHandler:  handler.NewPaypalHandler(svc.Fulfillment, logger),
		orderHandler:   handler.NewOrderHandler(svc.Fulfillment),
		catalogHandler: handler.NewCatalogHandler(svc.Catalog),
		adminHandler:   handler.NewAdminHandler(svc.Admin),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	if s.gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.gatherer)))
	}

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- storefront --------
	api.GET("/products", s.catalogHandler.ListProducts)
	api.GET("/products/:id", s.catalogHandler.GetProduct)
	api.GET("/categories", s.catalogHandler.ListCategories)

	api.POST("/checkout", s.orderHandler.Checkout)
	api.POST("/orders/verify", s.orderHandler.Verify)
	api.GET("/orders", s.orderHandler.Lookup)
	api.GET("/downloads/:token", s.orderHandler.Download)

	// -------- paypal webhooks / callbacks --------
	paypal := api.Group("/paypal")
	paypal.GET("/success", s.paypalHandler.HandleSuccess)
	paypal.POST("/webhook", s.paypalHandler.PayPalWebhook)

	// -------- back office --------
	admin := api.Group("/admin", mw.AdminAuth(s.authorizer))
	admin.GET("/products", s.adminHandler.ListProducts)
	admin.POST("/products", s.adminHandler.CreateProduct)
	admin.PUT("/products/:id", s.adminHandler.UpdateProduct)
	admin.DELETE("/products/:id", s.adminHandler.ArchiveProduct)

	admin.GET("/categories", s.adminHandler.ListCategories)
	admin.POST("/categories", s.adminHandler.CreateCategory)
	admin.PUT("/categories/:id", s.adminHandler.UpdateCategory)
	admin.DELETE("/categories/:id", s.adminHandler.DeleteCategory)

	admin.GET("/orders", s.adminHandler.ListOrders)
	admin.GET("/orders/:id", s.adminHandler.GetOrder)
	admin.POST("/orders/:id/fail", s.adminHandler.FailOrder)
	admin.POST("/orders/:id/refund", s.adminHandler.RefundOrder)
	admin.POST("/orders/:id/resend", s.adminHandler.ResendConfirmation)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
