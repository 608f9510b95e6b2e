package service

import (
	"context"
	"errors"
	"testing"

	"template-storefront/internal/apperr"
	"template-storefront/internal/model"
	"template-storefront/internal/repository"
)

const adminToken = "s3cret-admin-token-0001"

func TestAuthorize(t *testing.T) {
	t.Parallel()

	a := NewAuthorizer(adminToken)
	tests := []struct {
		name      string
		presented string
		wantErr   bool
	}{
		{name: "correct", presented: adminToken},
		{name: "wrong", presented: "s3cret-admin-token-0002", wantErr: true},
		{name: "prefix", presented: adminToken[:10], wantErr: true},
		{name: "empty", presented: "", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ac, err := a.Authorize(tt.presented)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrUnauthorized) {
					t.Fatalf("expected ErrUnauthorized, got %v", err)
				}
				if ac.check() == nil {
					t.Fatal("failed authorization must not grant a capability")
				}
				return
			}
			if err != nil || ac.check() != nil {
				t.Fatalf("expected capability, got err=%v", err)
			}
		})
	}

	if _, err := NewAuthorizer("").Authorize(""); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatal("an unconfigured token must never authorize")
	}
}

func TestAdminOperationsRequireCapability(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	var none AdminCapability

	if _, err := env.admin.ListOrders(ctx, none, repository.OrderFilter{}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("ListOrders: expected ErrUnauthorized, got %v", err)
	}
	if _, err := env.admin.CreateCategory(ctx, none, CategoryInput{Name: "X"}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("CreateCategory: expected ErrUnauthorized, got %v", err)
	}
	if err := env.admin.ArchiveProduct(ctx, none, "prod-premium"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("ArchiveProduct: expected ErrUnauthorized, got %v", err)
	}
	if _, err := env.admin.RefundOrder(ctx, none, "any"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("RefundOrder: expected ErrUnauthorized, got %v", err)
	}
}

func grant(t *testing.T) AdminCapability {
	t.Helper()
	ac, err := NewAuthorizer(adminToken).Authorize(adminToken)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	return ac
}

func TestAdminCatalog(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	ac := grant(t)

	cat, err := env.admin.CreateCategory(ctx, ac, CategoryInput{Name: "Wedding & Events"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if cat.Slug != "wedding-events" {
		t.Fatalf("unexpected slug %q", cat.Slug)
	}

	if _, err := env.admin.CreateProduct(ctx, ac, ProductInput{Title: "", Price: 0, AssetURL: "nope", CategoryID: cat.ID}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	p, err := env.admin.CreateProduct(ctx, ac, ProductInput{
		Title:      "Save The Date",
		Price:      1200,
		AssetURL:   "https://canva.com/design/save-the-date",
		Status:     model.ProductActive,
		CategoryID: cat.ID,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if p.Slug != "save-the-date" || p.Category == nil || p.Category.ID != cat.ID {
		t.Fatalf("unexpected product %+v", p)
	}

	if err := env.admin.DeleteCategory(ctx, ac, cat.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict deleting used category, got %v", err)
	}

	if err := env.admin.ArchiveProduct(ctx, ac, p.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := env.fulfillment.CreateCheckout(ctx, p.ID, "buyer@example.com"); !errors.Is(err, apperr.ErrProductUnavailable) {
		t.Fatalf("archived product must not be purchasable, got %v", err)
	}

	all, err := env.admin.ListProducts(ctx, ac, repository.ProductFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("admin sees every product, expected 3 got %d", len(all))
	}
}

func TestAdminOrderTransitions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	ac := grant(t)

	pending := env.checkout(t, "a@example.com")
	paid := env.checkout(t, "b@example.com")
	env.gateway.markPaid(paid.SessionID)
	if _, err := env.fulfillment.ConfirmPayment(ctx, paid.SessionID, ChannelPull); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := env.admin.FailOrder(ctx, ac, paid.OrderID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("COMPLETED cannot be failed, got %v", err)
	}

	failed, err := env.admin.FailOrder(ctx, ac, pending.OrderID)
	if err != nil || failed.Status != model.OrderFailed {
		t.Fatalf("fail pending: %v", err)
	}

	refunded, err := env.admin.RefundOrder(ctx, ac, paid.OrderID)
	if err != nil || refunded.Status != model.OrderRefunded {
		t.Fatalf("refund: %v", err)
	}
	if _, err := env.admin.RefundOrder(ctx, ac, paid.OrderID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("double refund must fail, got %v", err)
	}
	if _, err := env.fulfillment.ResolveDownload(ctx, *refunded.DownloadToken); !errors.Is(err, apperr.ErrOrderClosed) {
		t.Fatalf("refunded order must not download, got %v", err)
	}
	if _, err := env.admin.GetOrder(ctx, ac, "missing"); !errors.Is(err, apperr.ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAdminResendConfirmation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	ac := grant(t)

	pending := env.checkout(t, "a@example.com")
	if _, err := env.admin.ResendConfirmation(ctx, ac, pending.OrderID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("pending order cannot be resent, got %v", err)
	}

	paid := env.checkout(t, "b@example.com")
	env.gateway.markPaid(paid.SessionID)
	if _, err := env.fulfillment.ConfirmPayment(ctx, paid.SessionID, ChannelPull); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	order, err := env.admin.ResendConfirmation(ctx, ac, paid.OrderID)
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if env.notifier.count() != 2 {
		t.Fatalf("expected a second email, got %d", env.notifier.count())
	}
	if env.notifier.sent[1].To != "b@example.com" || order.DownloadToken == nil {
		t.Fatalf("unexpected resend %+v", env.notifier.sent[1])
	}

	env.notifier.err = errBoom
	if _, err := env.admin.ResendConfirmation(ctx, ac, paid.OrderID); !errors.Is(err, apperr.ErrNotifierFailure) {
		t.Fatalf("expected notifier failure, got %v", err)
	}
}
