package service

import (
	"context"
	"errors"

	"template-storefront/internal/apperr"
	"template-storefront/internal/model"
	"template-storefront/internal/repository"
)

// CatalogService serves the public storefront. Only ACTIVE products are
// visible.
type CatalogService interface {
	ListProducts(ctx context.Context, categoryID string, featured bool) ([]*model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	ListCategories(ctx context.Context) ([]*model.Category, error)
}

type catalogServiceImpl struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) CatalogService {
	return &catalogServiceImpl{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *catalogServiceImpl) ListProducts(ctx context.Context, categoryID string, featured bool) ([]*model.Product, error) {
	return s.productRepo.List(ctx, repository.ProductFilter{
		Status:     model.ProductActive,
		CategoryID: categoryID,
		Featured:   featured,
	})
}

func (s *catalogServiceImpl) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	p, err := s.productRepo.FindPurchasable(ctx, productID)
	if errors.Is(err, apperr.ErrProductUnavailable) {
		return nil, apperr.ErrNotFound
	}
	return p, err
}

func (s *catalogServiceImpl) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return s.categoryRepo.List(ctx)
}
