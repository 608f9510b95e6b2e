package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"template-storefront/internal/client"
	"template-storefront/internal/config"
	"template-storefront/internal/metrics"
	"template-storefront/internal/model"
	"template-storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type fakeGateway struct {
	mu          sync.Mutex
	paid        map[string]bool
	createErr   error
	paidErr     error
	signatureOK bool
	sessions    int
	paidCalls   int
	lastCreate  client.HostedSessionRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{paid: map[string]bool{}, signatureOK: true}
}

func (g *fakeGateway) CreateHostedSession(ctx context.Context, req client.HostedSessionRequest) (*client.HostedSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.sessions++
	g.lastCreate = req
	id := fmt.Sprintf("PP-%d", g.sessions)
	return &client.HostedSession{SessionID: id, HostedURL: "https://paypal.example/checkoutnow?token=" + id}, nil
}

func (g *fakeGateway) IsSessionPaid(ctx context.Context, sessionID string) (bool, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paidCalls++
	if g.paidErr != nil {
		return false, "", g.paidErr
	}
	if g.paid[sessionID] {
		return true, "CAP-" + sessionID, nil
	}
	return false, "", nil
}

func (g *fakeGateway) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.signatureOK, nil
}

func (g *fakeGateway) markPaid(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paid[sessionID] = true
}

func (g *fakeGateway) paidCallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paidCalls
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	db          *gorm.DB
	gateway     *fakeGateway
	notifier    *fakeNotifier
	clock       *testClock
	orders      repository.OrderRepository
	products    repository.ProductRepository
	categories  repository.CategoryRepository
	webhooks    repository.WebhookEventRepository
	issuer      *CredentialIssuer
	metrics     *metrics.Metrics
	fulfillment FulfillmentService
	admin       AdminService
}

const testBaseURL = "http://shop.test"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := client.NewDBClient(config.Database{Driver: "sqlite", URL: dsn})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := client.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		db:         db,
		gateway:    newFakeGateway(),
		notifier:   &fakeNotifier{},
		clock:      &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		orders:     repository.NewOrderRepository(db),
		products:   repository.NewProductRepository(db),
		categories: repository.NewCategoryRepository(db),
		webhooks:   repository.NewWebhookEventRepository(db),
		metrics:    metrics.New(prometheus.NewRegistry()),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := FulfillmentConfig{BaseURL: testBaseURL, Currency: "USD", ShopName: "LuxeCustomized", PendingTTL: 24 * time.Hour}

	env.issuer = NewCredentialIssuer(env.orders, DefaultCredentialTTL, env.clock.Now)
	env.fulfillment = NewFulfillmentService(db, cfg, env.gateway, env.notifier,
		env.products, env.orders, env.webhooks, env.issuer, env.metrics, logger)
	env.admin = NewAdminService(env.products, env.categories, env.orders, env.issuer, env.notifier, cfg, env.metrics, logger)

	cat := model.Category{ID: "cat-business", Name: "Business", Slug: "business"}
	prods := []model.Product{
		{ID: "prod-premium", Title: "Premium Digital Template", Slug: "premium-digital-template", Price: 2999,
			AssetURL: "https://canva.com/design/premium", Status: model.ProductActive, CategoryID: cat.ID},
		{ID: "prod-draft", Title: "Draft Template", Slug: "draft-template", Price: 500,
			AssetURL: "https://canva.com/design/draft", Status: model.ProductDraft, CategoryID: cat.ID},
	}
	if err := env.products.Seed(context.Background(), []model.Category{cat}, prods); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return env
}

// checkout creates an order for the premium product and returns its session ref.
func (e *testEnv) checkout(t *testing.T, email string) *CheckoutResult {
	t.Helper()
	res, err := e.fulfillment.CreateCheckout(context.Background(), "prod-premium", email)
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	return res
}

func (e *testEnv) order(t *testing.T, id string) *model.Order {
	t.Helper()
	o, err := e.orders.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find order: %v", err)
	}
	return o
}

var errBoom = errors.New("boom")
