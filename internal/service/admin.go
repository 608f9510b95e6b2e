package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"template-storefront/internal/apperr"
	"template-storefront/internal/catalog"
	"template-storefront/internal/client"
	"template-storefront/internal/metrics"
	"template-storefront/internal/model"
	"template-storefront/internal/repository"

	"github.com/google/uuid"
)

// AdminCapability proves the caller presented the back-office token. The zero
// value grants nothing; only Authorizer.Authorize hands out a usable one.
type AdminCapability struct {
	granted bool
}

func (c AdminCapability) check() error {
	if !c.granted {
		return apperr.ErrUnauthorized
	}
	return nil
}

type Authorizer struct {
	token []byte
}

func NewAuthorizer(token string) *Authorizer {
	return &Authorizer{token: []byte(token)}
}

func (a *Authorizer) Authorize(presented string) (AdminCapability, error) {
	if len(a.token) == 0 || subtle.ConstantTimeCompare([]byte(presented), a.token) != 1 {
		return AdminCapability{}, apperr.ErrUnauthorized
	}
	return AdminCapability{granted: true}, nil
}

type ProductInput struct {
	Title         string
	Description   string
	Price         int64
	OriginalPrice *int64
	AssetURL      string
	Status        model.ProductStatus
	Featured      bool
	CategoryID    string
}

func (in *ProductInput) validate() error {
	var problems []string
	if strings.TrimSpace(in.Title) == "" {
		problems = append(problems, "title is required")
	}
	if in.Price <= 0 {
		problems = append(problems, "price must be positive")
	}
	if in.OriginalPrice != nil && *in.OriginalPrice < 0 {
		problems = append(problems, "original price must not be negative")
	}
	if u, err := url.Parse(in.AssetURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "asset url must be absolute")
	}
	if in.Status == "" {
		in.Status = model.ProductDraft
	}
	if !in.Status.Valid() {
		problems = append(problems, fmt.Sprintf("unknown status %q", in.Status))
	}
	if in.CategoryID == "" {
		problems = append(problems, "category is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(problems, ", "), apperr.ErrInvalidInput)
	}
	return nil
}

type CategoryInput struct {
	Name        string
	Description string
}

type AdminService interface {
	ListProducts(ctx context.Context, ac AdminCapability, filter repository.ProductFilter) ([]*model.Product, error)
	CreateProduct(ctx context.Context, ac AdminCapability, in ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, ac AdminCapability, productID string, in ProductInput) (*model.Product, error)
	ArchiveProduct(ctx context.Context, ac AdminCapability, productID string) error

	ListCategories(ctx context.Context, ac AdminCapability) ([]*model.Category, error)
	CreateCategory(ctx context.Context, ac AdminCapability, in CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, ac AdminCapability, categoryID string, in CategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, ac AdminCapability, categoryID string) error

	ListOrders(ctx context.Context, ac AdminCapability, filter repository.OrderFilter) ([]*model.Order, error)
	GetOrder(ctx context.Context, ac AdminCapability, orderID string) (*model.Order, error)
	FailOrder(ctx context.Context, ac AdminCapability, orderID string) (*model.Order, error)
	// RefundOrder only records the refund; money is returned in the PayPal dashboard.
	RefundOrder(ctx context.Context, ac AdminCapability, orderID string) (*model.Order, error)
	ResendConfirmation(ctx context.Context, ac AdminCapability, orderID string) (*model.Order, error)
}

type adminServiceImpl struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	orderRepo    repository.OrderRepository
	issuer       *CredentialIssuer
	confirmer    *confirmationSender
	logger       *slog.Logger
}

func NewAdminService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	orderRepo repository.OrderRepository,
	issuer *CredentialIssuer,
	notifier client.Notifier,
	cfg FulfillmentConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) AdminService {
	if m == nil {
		m = metrics.New(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &adminServiceImpl{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		orderRepo:    orderRepo,
		issuer:       issuer,
		confirmer:    newConfirmationSender(notifier, cfg.ShopName, strings.TrimRight(cfg.BaseURL, "/"), m, logger),
		logger:       logger,
	}
}

func (s *adminServiceImpl) ListProducts(ctx context.Context, ac AdminCapability, filter repository.ProductFilter) ([]*model.Product, error) {
	if err := ac.check(); err != nil {
		return nil, err
	}
	return s.productRepo.List(ctx, filter)
}

func (s *adminServiceImpl) CreateProduct(ctx context.Context, ac AdminCapability, in ProductInput) (*model.Product, error) {
	if err := ac.check(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.FindByID(ctx, in.CategoryID); err != nil {
		return nil, fmt.Errorf("category %s: %w", in.CategoryID, err)
	}

	product := &model.Product{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(in.Title),
		Slug:          catalog.Slugify(in.Title),
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		AssetURL:      in.AssetURL,
		Status:        in.Status,
		Featured:      in.Featured,
		CategoryID:    in.CategoryID,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.InfoContext(ctx, "product created", slog.String("product_id", product.ID))
	return s.productRepo.FindByID(ctx, product.ID)
}

func (s *adminServiceImpl) UpdateProduct(ctx context.Context, ac AdminCapability, productID string, in ProductInput) (*model.Product, error) {
	if err := ac.check(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.FindByID(ctx, in.CategoryID); err != nil {
		return nil, fmt.Errorf("category %s: %w", in.CategoryID, err)
	}

	// existing orders keep their captured unit price
	err := s.productRepo.Update(ctx, &model.Product{
		ID:            productID,
		Title:         strings.TrimSpace(in.Title),
		Slug:          catalog.Slugify(in.Title),
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		AssetURL:      in.AssetURL,
		Status:        in.Status,
		Featured:      in.Featured,
		CategoryID:    in.CategoryID,
	})
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", productID, err)
	}
	return s.productRepo.FindByID(ctx, productID)
}

func (s *adminServiceImpl) ArchiveProduct(ctx context.Context, ac AdminCapability, productID string) error {
	if err := ac.check(); err != nil {
		return err
	}
	return s.productRepo.Archive(ctx, productID)
}

func (s *adminServiceImpl) ListCategories(ctx context.Context, ac AdminCapability) ([]*model.Category, error) {
	if err := ac.check(); err != nil {
		return nil, err
	}
	return s.categoryRepo.List(ctx)
}

func (s *adminServiceImpl) CreateCategory(ctx context.Context, ac AdminCapability, in CategoryInput) (*model.Category, error) {
	if err := ac.check(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("category name is required: %w", apperr.ErrInvalidInput)
	}

	category := &model.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        catalog.Slugify(name),
		Description: in.Description,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *adminServiceImpl) UpdateCategory(ctx context.Context, ac AdminCapability, categoryID string, in CategoryInput) (*model.Category, error) {
	if err := ac.check(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("category name is required: %w", apperr.ErrInvalidInput)
	}

	err := s.categoryRepo.Update(ctx, &model.Category{
		ID:          categoryID,
		Name:        name,
		Slug:        catalog.Slugify(name),
		Description: in.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("update category %s: %w", categoryID, err)
	}
	return s.categoryRepo.FindByID(ctx, categoryID)
}

func (s *adminServiceImpl) DeleteCategory(ctx context.Context, ac AdminCapability, categoryID string) error {
	if err := ac.check(); err != nil {
		return err
	}
	if err := s.categoryRepo.Delete(ctx, categoryID); err != nil {
		return fmt.Errorf("delete category %s: %w", categoryID, err)
	}
	return nil
}

func (s *adminServiceImpl) ListOrders(ctx context.Context, ac AdminCapability, filter repository.OrderFilter) ([]*model.Order, error) {
	if err := ac.check(); err != nil {
		return nil, err
	}
	return s.orderRepo.List(ctx, filter)
}

func (s *adminServiceImpl) GetOrder(ctx context.Context, ac AdminCapability, orderID string) (*model.Order, error) {
	if err := ac.check(); err != nil {
		return nil, err
	}
	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *adminServiceImpl) transition(ctx context.Context, orderID string, to model.OrderStatus) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(to) {
		return nil, fmt.Errorf("order %s is %s, cannot become %s: %w", orderID, order.Status, to, apperr.ErrInvalidTransition)
	}

	changed, err := s.orderRepo.TransitionStatus(ctx, orderID, model.SourcesOf(to), to)
	if err != nil {
		return nil, err
	}
	if !changed {
		// status moved between the read and the update
		return nil, fmt.Errorf("order %s changed concurrently: %w", orderID, apperr.ErrConflict)
	}

	s.logger.InfoContext(ctx, "order status changed by operator",
		slog.String("order_id", orderID),
		slog.String("from", string(order.Status)),
		slog.String("to", string(to)),
	)
	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *adminServiceImpl) FailOrder(ctx context.Context, ac AdminCapability, orderID string) (*model.Order, error) {
	if err := ac.check(); err != nil {
		return nil, err
	}
	return s.transition(ctx, orderID, model.OrderFailed)
}

func (s *adminServiceImpl) RefundOrder(ctx context.Context, ac AdminCapability, orderID string) (*model.Order, error) {
	if err := ac.check(); err != nil {
		return nil, err
	}
	return s.transition(ctx, orderID, model.OrderRefunded)
}

func (s *adminServiceImpl) ResendConfirmation(ctx context.Context, ac AdminCapability, orderID string) (*model.Order, error) {
	if err := ac.check(); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderCompleted {
		return nil, fmt.Errorf("order %s is %s: %w", orderID, order.Status, apperr.ErrInvalidTransition)
	}

	order, err = s.issuer.IssueOrRenew(ctx, order)
	if err != nil {
		return nil, err
	}
	if err := s.confirmer.Send(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}
