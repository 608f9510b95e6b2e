package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"template-storefront/internal/apperr"
	"template-storefront/internal/client"
	"template-storefront/internal/metrics"
	"template-storefront/internal/model"
	"template-storefront/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Channel string

const (
	ChannelPush Channel = "push" // gateway webhook
	ChannelPull Channel = "pull" // buyer's browser after redirect
)

const warnNotifierFailed = "confirmation email could not be sent, use the download link above"

type CheckoutResult struct {
	OrderID   string
	SessionID string
	HostedURL string
}

type ConfirmResult struct {
	Order            *model.Order
	DownloadURL      string
	CredentialExpiry time.Time
	Warning          string
}

type BuyerOrder struct {
	Order       *model.Order
	DownloadURL string
}

type FulfillmentService interface {
	CreateCheckout(ctx context.Context, productID, email string) (*CheckoutResult, error)
	// ConfirmPayment is the single entry point for both notification channels.
	// Calling it any number of times for the same session completes the order
	// and sends the confirmation email at most once.
	ConfirmPayment(ctx context.Context, sessionRef string, channel Channel) (*ConfirmResult, error)
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
	BuyerOrders(ctx context.Context, email string) ([]BuyerOrder, error)
	ResolveDownload(ctx context.Context, token string) (string, error)
	SweepStalePending(ctx context.Context) (int64, error)
}

type FulfillmentConfig struct {
	BaseURL    string
	Currency   string
	ShopName   string
	PendingTTL time.Duration
}

type fulfillmentServiceImpl struct {
	db           *gorm.DB
	cfg          FulfillmentConfig
	paypalClient client.PaypalClient
	productRepo  repository.ProductRepository
	orderRepo    repository.OrderRepository
	webhookRepo  repository.WebhookEventRepository
	issuer       *CredentialIssuer
	confirmer    *confirmationSender
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewFulfillmentService(
	db *gorm.DB,
	cfg FulfillmentConfig,
	paypalClient client.PaypalClient,
	notifier client.Notifier,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	webhookRepo repository.WebhookEventRepository,
	issuer *CredentialIssuer,
	m *metrics.Metrics,
	logger *slog.Logger,
) FulfillmentService {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = 24 * time.Hour
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if m == nil {
		m = metrics.New(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &fulfillmentServiceImpl{
		db:           db,
		cfg:          cfg,
		paypalClient: paypalClient,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		webhookRepo:  webhookRepo,
		issuer:       issuer,
		confirmer:    newConfirmationSender(notifier, cfg.ShopName, cfg.BaseURL, m, logger),
		metrics:      m,
		logger:       logger,
	}
}

// NormalizeEmail validates a buyer email. Orders are matched on the exact
// address, so only surrounding whitespace is dropped.
func NormalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", fmt.Errorf("invalid email %q: %w", raw, apperr.ErrInvalidInput)
	}
	return email, nil
}

func DownloadURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/api/downloads/" + token
}

func (s *fulfillmentServiceImpl) CreateCheckout(ctx context.Context, productID, email string) (*CheckoutResult, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, fmt.Errorf("missing product id: %w", apperr.ErrInvalidInput)
	}

	product, err := s.productRepo.FindPurchasable(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("checkout product %s: %w", productID, err)
	}

	order := &model.Order{
		ID:          uuid.NewString(),
		Email:       email,
		TotalAmount: product.Price,
		Currency:    s.cfg.Currency,
		Status:      model.OrderPending,
	}
	items := []*model.OrderItem{{
		ProductID: product.ID,
		Quantity:  1,
		UnitPrice: product.Price,
	}}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.CreateWithItems(ctx, tx, order, items); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(slog.String("order_id", order.ID), slog.String("product_id", product.ID))

	sess, err := s.paypalClient.CreateHostedSession(ctx, client.HostedSessionRequest{
		AmountMinor:    order.TotalAmount,
		Currency:       order.Currency,
		SuccessURL:     s.cfg.BaseURL + "/api/paypal/success",
		CancelURL:      s.cfg.BaseURL + "/product/" + product.ID,
		CorrelationRef: order.ID,
		Description:    product.Title,
	})
	if err != nil {
		// the order stays PENDING and is swept later
		logger.ErrorContext(ctx, "create hosted session", slog.Any("error", err))
		return nil, fmt.Errorf("paypal api create order: %v: %w", err, apperr.ErrGatewayError)
	}

	if err := s.orderRepo.SetSessionRef(ctx, order.ID, sess.SessionID); err != nil {
		// the hosted session exists at PayPal but nothing points at it
		logger.ErrorContext(ctx, "store session ref", slog.String("session_ref", sess.SessionID), slog.Any("error", err))
		return nil, fmt.Errorf("store session ref %s: %v: %w", sess.SessionID, err, apperr.ErrGatewayError)
	}

	s.metrics.CheckoutsCreated.Inc()
	logger.InfoContext(ctx, "checkout created", slog.String("session_ref", sess.SessionID))

	return &CheckoutResult{
		OrderID:   order.ID,
		SessionID: sess.SessionID,
		HostedURL: sess.HostedURL,
	}, nil
}

func (s *fulfillmentServiceImpl) ConfirmPayment(ctx context.Context, sessionRef string, channel Channel) (*ConfirmResult, error) {
	logger := s.logger.With(slog.String("session_ref", sessionRef), slog.String("channel", string(channel)))

	res, outcome, err := s.confirm(ctx, sessionRef, logger)
	if err != nil {
		outcome = apperr.Kind(err)
	}
	s.metrics.Confirmations.WithLabelValues(string(channel), outcome).Inc()
	return res, err
}

func (s *fulfillmentServiceImpl) confirm(ctx context.Context, sessionRef string, logger *slog.Logger) (*ConfirmResult, string, error) {
	if sessionRef == "" {
		return nil, "", fmt.Errorf("missing session ref: %w", apperr.ErrOrderNotFound)
	}

	order, err := s.orderRepo.FindBySessionRef(ctx, sessionRef)
	if err != nil {
		return nil, "", fmt.Errorf("find order by session %s: %w", sessionRef, err)
	}
	logger = logger.With(slog.String("order_id", order.ID))

	switch {
	case order.Status == model.OrderCompleted:
		res, err := s.completedResult(ctx, order)
		return res, "already_completed", err
	case !order.Status.Open():
		logger.WarnContext(ctx, "payment confirmation for closed order", slog.String("status", string(order.Status)))
		return nil, "", fmt.Errorf("order %s is %s: %w", order.ID, order.Status, apperr.ErrOrderClosed)
	}

	paid, paymentRef, err := s.paypalClient.IsSessionPaid(ctx, sessionRef)
	if err != nil {
		logger.ErrorContext(ctx, "check session paid", slog.Any("error", err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", fmt.Errorf("check session paid: %w", ctxErr)
		}
		return nil, "", fmt.Errorf("check session paid: %v: %w", err, apperr.ErrGatewayError)
	}
	if !paid {
		logger.InfoContext(ctx, "payment not confirmed yet")
		return nil, "", fmt.Errorf("session %s: %w", sessionRef, apperr.ErrPaymentNotConfirmed)
	}

	now := s.issuer.Now()
	cred, err := s.issuer.Mint(now)
	if err != nil {
		return nil, "", err
	}

	won, err := s.orderRepo.CompleteIfOpen(ctx, order.ID, paymentRef, cred.Token, cred.Expiry, now)
	if err != nil {
		return nil, "", fmt.Errorf("complete order: %w", err)
	}

	if !won {
		fresh, err := s.orderRepo.FindByID(ctx, order.ID)
		if err != nil {
			return nil, "", err
		}
		// another confirmation got here first, or the order was closed meanwhile
		if fresh.Status != model.OrderCompleted {
			logger.WarnContext(ctx, "order closed while confirming payment, payment needs a refund",
				slog.String("status", string(fresh.Status)),
				slog.String("payment_ref", paymentRef),
			)
			return nil, "", fmt.Errorf("order %s is %s: %w", order.ID, fresh.Status, apperr.ErrOrderClosed)
		}
		res, err := s.completedResult(ctx, fresh)
		return res, "already_completed", err
	}

	logger.InfoContext(ctx, "order completed", slog.String("payment_ref", paymentRef))

	// The order is committed as COMPLETED. Nothing after this point may fail
	// the confirmation or skip the email, so it runs detached from the caller.
	postCtx := context.WithoutCancel(ctx)

	fresh, err := s.orderRepo.FindByID(postCtx, order.ID)
	if err != nil {
		logger.WarnContext(ctx, "reload completed order", slog.Any("error", err))
		fresh = completedCopy(order, paymentRef, cred, now)
	}

	res := s.result(fresh)
	if err := s.confirmer.Send(postCtx, fresh); err != nil {
		res.Warning = warnNotifierFailed
	}
	return res, "completed", nil
}

// completedCopy is what CompleteIfOpen wrote, applied to the order loaded
// before the update.
func completedCopy(order *model.Order, paymentRef string, cred Credential, now time.Time) *model.Order {
	c := *order
	c.Status = model.OrderCompleted
	if paymentRef != "" {
		c.PaymentRef = &paymentRef
	}
	c.DownloadToken = &cred.Token
	expiry := cred.Expiry
	c.DownloadExpiry = &expiry
	c.UpdatedAt = now
	return &c
}

func (s *fulfillmentServiceImpl) completedResult(ctx context.Context, order *model.Order) (*ConfirmResult, error) {
	order, err := s.issuer.IssueOrRenew(ctx, order)
	if err != nil {
		return nil, err
	}
	return s.result(order), nil
}

func (s *fulfillmentServiceImpl) result(order *model.Order) *ConfirmResult {
	res := &ConfirmResult{Order: order}
	if order.DownloadToken != nil {
		res.DownloadURL = DownloadURL(s.cfg.BaseURL, *order.DownloadToken)
	}
	if order.DownloadExpiry != nil {
		res.CredentialExpiry = *order.DownloadExpiry
	}
	return res
}

func (s *fulfillmentServiceImpl) BuyerOrders(ctx context.Context, email string) ([]BuyerOrder, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListCompletedByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	out := make([]BuyerOrder, 0, len(orders))
	for _, o := range orders {
		renewed, err := s.issuer.IssueOrRenew(ctx, o)
		if err != nil {
			return nil, fmt.Errorf("renew credential for order %s: %w", o.ID, err)
		}
		out = append(out, BuyerOrder{
			Order:       renewed,
			DownloadURL: DownloadURL(s.cfg.BaseURL, *renewed.DownloadToken),
		})
	}
	return out, nil
}

func (s *fulfillmentServiceImpl) ResolveDownload(ctx context.Context, token string) (string, error) {
	order, err := s.orderRepo.FindByDownloadToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperr.ErrOrderNotFound) {
			return "", fmt.Errorf("download token: %w", apperr.ErrNotFound)
		}
		return "", err
	}
	if order.Status != model.OrderCompleted {
		return "", fmt.Errorf("order %s is %s: %w", order.ID, order.Status, apperr.ErrOrderClosed)
	}
	if !order.CredentialValid(s.issuer.Now()) {
		return "", fmt.Errorf("order %s: %w", order.ID, apperr.ErrCredentialExpired)
	}
	for _, item := range order.Items {
		if item.Product != nil && item.Product.AssetURL != "" {
			return item.Product.AssetURL, nil
		}
	}
	return "", fmt.Errorf("order %s has no deliverable asset: %w", order.ID, apperr.ErrNotFound)
}

func (s *fulfillmentServiceImpl) SweepStalePending(ctx context.Context) (int64, error) {
	cutoff := s.issuer.Now().Add(-s.cfg.PendingTTL)
	n, err := s.orderRepo.FailStalePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("fail stale pending orders: %w", err)
	}
	if n > 0 {
		s.metrics.StaleOrdersFailed.Add(float64(n))
		s.logger.InfoContext(ctx, "stale pending orders failed", slog.Int64("count", n), slog.Time("cutoff", cutoff))
	}
	return n, nil
}
