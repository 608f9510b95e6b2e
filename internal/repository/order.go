package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"template-storefront/internal/apperr"
	"template-storefront/internal/model"

	"gorm.io/gorm"
)

type OrderFilter struct {
	Status model.OrderStatus
	Email  string
	Limit  int
	Offset int
}

type OrderRepository interface {
	CreateWithItems(ctx context.Context, tx *gorm.DB, order *model.Order, items []*model.OrderItem) error
	SetSessionRef(ctx context.Context, orderID, sessionRef string) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	FindBySessionRef(ctx context.Context, sessionRef string) (*model.Order, error)
	FindByDownloadToken(ctx context.Context, token string) (*model.Order, error)
	ListCompletedByEmail(ctx context.Context, email string) ([]*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*model.Order, error)

	// CompleteIfOpen moves a PENDING or PROCESSING order to COMPLETED and
	// stores the credential in the same statement. It reports whether this
	// call performed the transition.
	CompleteIfOpen(ctx context.Context, orderID, paymentRef, token string, expiry, now time.Time) (bool, error)
	// RenewCredentialIfExpired replaces the credential of a COMPLETED order
	// only while the stored one is absent or expired at now.
	RenewCredentialIfExpired(ctx context.Context, orderID, token string, expiry, now time.Time) (bool, error)
	TransitionStatus(ctx context.Context, orderID string, from []model.OrderStatus, to model.OrderStatus) (bool, error)
	FailStalePending(ctx context.Context, createdBefore time.Time) (int64, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) CreateWithItems(ctx context.Context, tx *gorm.DB, order *model.Order, items []*model.OrderItem) error {
	create := func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for _, item := range items {
			item.OrderID = order.ID
		}
		if len(items) == 0 {
			return nil
		}
		if err := tx.Omit("Product").Create(&items).Error; err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	}

	// a caller-supplied tx is already a transaction
	if tx != nil {
		return create(tx.WithContext(ctx))
	}
	return r.db.WithContext(ctx).Transaction(create)
}

func (r *orderRepoImpl) SetSessionRef(ctx context.Context, orderID, sessionRef string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"session_ref": sessionRef,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepoImpl) preload(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Product.Category")
}

func (r *orderRepoImpl) findOne(ctx context.Context, query string, arg interface{}) (*model.Order, error) {
	var order model.Order
	err := r.preload(ctx).Where(query, arg).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	return r.findOne(ctx, "id = ?", orderID)
}

func (r *orderRepoImpl) FindBySessionRef(ctx context.Context, sessionRef string) (*model.Order, error) {
	if sessionRef == "" {
		return nil, apperr.ErrOrderNotFound
	}
	return r.findOne(ctx, "session_ref = ?", sessionRef)
}

func (r *orderRepoImpl) FindByDownloadToken(ctx context.Context, token string) (*model.Order, error) {
	if token == "" {
		return nil, apperr.ErrOrderNotFound
	}
	return r.findOne(ctx, "download_token = ?", token)
}

func (r *orderRepoImpl) ListCompletedByEmail(ctx context.Context, email string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.preload(ctx).
		Where("email = ? AND status = ?", email, model.OrderCompleted).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter OrderFilter) ([]*model.Order, error) {
	q := r.preload(ctx).Order("created_at DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Email != "" {
		q = q.Where("email = ?", filter.Email)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var orders []*model.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepoImpl) CompleteIfOpen(ctx context.Context, orderID, paymentRef, token string, expiry, now time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":          model.OrderCompleted,
		"download_token":  token,
		"download_expiry": expiry.UTC(),
		"updated_at":      now.UTC(),
	}
	if paymentRef != "" {
		updates["payment_ref"] = paymentRef
	}

	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where(`
			id = ?
			AND status IN ?
		`,
			orderID,
			model.OpenStatuses,
		).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *orderRepoImpl) RenewCredentialIfExpired(ctx context.Context, orderID, token string, expiry, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where(`
			id = ?
			AND status = ?
			AND (download_token IS NULL OR download_token = '' OR download_expiry IS NULL OR download_expiry <= ?)
		`,
			orderID,
			model.OrderCompleted,
			now.UTC(),
		).
		Updates(map[string]interface{}{
			"download_token":  token,
			"download_expiry": expiry.UTC(),
			"updated_at":      now.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *orderRepoImpl) TransitionStatus(ctx context.Context, orderID string, from []model.OrderStatus, to model.OrderStatus) (bool, error) {
	allowed := make([]model.OrderStatus, 0, len(from))
	for _, s := range from {
		if s.CanTransition(to) {
			allowed = append(allowed, s)
		}
	}
	if len(allowed) == 0 {
		return false, apperr.ErrInvalidTransition
	}

	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, allowed).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *orderRepoImpl) FailStalePending(ctx context.Context, createdBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("status = ? AND created_at < ?", model.OrderPending, createdBefore.UTC()).
		Updates(map[string]interface{}{
			"status":     model.OrderFailed,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}
