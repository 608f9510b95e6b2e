package repository

import (
	"context"
	"errors"
	"time"

	"template-storefront/internal/apperr"
	"template-storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	Status     model.ProductStatus
	CategoryID string
	Featured   bool
}

type ProductRepository interface {
	Seed(ctx context.Context, categories []model.Category, products []model.Product) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	// FindPurchasable returns the product only if it can be bought right now.
	FindPurchasable(ctx context.Context, productID string) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Archive(ctx context.Context, productID string) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context, categories []model.Category, products []model.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(categories) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
				return err
			}
		}
		if len(products) > 0 {
			if err := tx.Omit("Category").Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindPurchasable(ctx context.Context, productID string) (*model.Product, error) {
	product, err := r.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrProductUnavailable
		}
		return nil, err
	}
	if !product.Purchasable() {
		return nil, apperr.ErrProductUnavailable
	}
	return product, nil
}

func (r *productRepoImpl) List(ctx context.Context, filter ProductFilter) ([]*model.Product, error) {
	q := r.db.WithContext(ctx).Preload("Category").Order("featured DESC, created_at DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Featured {
		q = q.Where("featured = ?", true)
	}

	var products []*model.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) Create(ctx context.Context, product *model.Product) error {
	err := r.db.WithContext(ctx).Omit("Category").Create(product).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrConflict
	}
	return err
}

func (r *productRepoImpl) Update(ctx context.Context, product *model.Product) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"title":          product.Title,
			"slug":           product.Slug,
			"description":    product.Description,
			"price":          product.Price,
			"original_price": product.OriginalPrice,
			"asset_url":      product.AssetURL,
			"status":         product.Status,
			"featured":       product.Featured,
			"category_id":    product.CategoryID,
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperr.ErrConflict
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *productRepoImpl) Archive(ctx context.Context, productID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"status":     model.ProductArchived,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
