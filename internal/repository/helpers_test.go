package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"template-storefront/internal/client"
	"template-storefront/internal/config"
	"template-storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) (model.Category, model.Product) {
	t.Helper()

	cat := model.Category{ID: "cat-wedding", Name: "Wedding", Slug: "wedding"}
	prod := model.Product{
		ID:         "prod-invite",
		Title:      "Wedding Invite",
		Slug:       "wedding-invite",
		Price:      1500,
		AssetURL:   "https://canva.example/templates/invite",
		Status:     model.ProductActive,
		CategoryID: cat.ID,
	}
	if err := NewProductRepository(db).Seed(context.Background(), []model.Category{cat}, []model.Product{prod}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return cat, prod
}

func createPendingOrder(t *testing.T, repo OrderRepository, productID string, price int64, sessionRef string) *model.Order {
	t.Helper()

	order := &model.Order{
		ID:          uuid.NewString(),
		Email:       "buyer@example.com",
		TotalAmount: price,
		Currency:    "USD",
		Status:      model.OrderPending,
		CreatedAt:   time.Now().UTC(),
	}
	items := []*model.OrderItem{{ProductID: productID, Quantity: 1, UnitPrice: price}}
	if err := repo.CreateWithItems(context.Background(), nil, order, items); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if sessionRef != "" {
		if err := repo.SetSessionRef(context.Background(), order.ID, sessionRef); err != nil {
			t.Fatalf("set session ref: %v", err)
		}
	}
	return order
}
