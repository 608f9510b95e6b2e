package dto

import (
	"time"

	"template-storefront/internal/model"
)

type CheckoutRequest struct {
	ProductID string `json:"productId"`
	Email     string `json:"email"`
}

type CheckoutResponse struct {
	OrderID string `json:"orderId"`
	URL     string `json:"url"`
}

type VerifyRequest struct {
	SessionID string `json:"sessionId"`
}

type VerifyResponse struct {
	Order          *OrderResponse `json:"order"`
	DownloadURL    string         `json:"downloadUrl"`
	DownloadExpiry time.Time      `json:"downloadExpiry"`
	Warning        string         `json:"warning,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type ProductResponse struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Slug          string            `json:"slug"`
	Description   string            `json:"description,omitempty"`
	Price         int64             `json:"price"`
	OriginalPrice *int64            `json:"originalPrice,omitempty"`
	Featured      bool              `json:"featured"`
	Status        string            `json:"status,omitempty"`
	AssetURL      string            `json:"assetUrl,omitempty"`
	Category      *CategoryResponse `json:"category,omitempty"`
}

type OrderItemResponse struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Category  string `json:"category,omitempty"`
	Quantity  int32  `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type OrderResponse struct {
	ID             string              `json:"id"`
	OrderNumber    string              `json:"orderNumber"`
	Email          string              `json:"email"`
	Status         string              `json:"status"`
	TotalAmount    int64               `json:"totalAmount"`
	Currency       string              `json:"currency"`
	Items          []OrderItemResponse `json:"items"`
	DownloadURL    string              `json:"downloadUrl,omitempty"`
	DownloadExpiry *time.Time          `json:"downloadExpiry,omitempty"`
	SessionRef     string              `json:"sessionRef,omitempty"`
	PaymentRef     string              `json:"paymentRef,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// ProductRequest is the admin create/update payload.
type ProductRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Price         int64  `json:"price"`
	OriginalPrice *int64 `json:"originalPrice"`
	AssetURL      string `json:"assetUrl"`
	Status        string `json:"status"`
	Featured      bool   `json:"featured"`
	CategoryID    string `json:"categoryId"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func NewCategoryResponse(c *model.Category) *CategoryResponse {
	if c == nil {
		return nil
	}
	return &CategoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description}
}

// NewProductResponse never exposes the asset URL; buyers get it only through
// a download credential.
func NewProductResponse(p *model.Product) *ProductResponse {
	return &ProductResponse{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Description:   p.Description,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Featured:      p.Featured,
		Category:      NewCategoryResponse(p.Category),
	}
}

func NewAdminProductResponse(p *model.Product) *ProductResponse {
	resp := NewProductResponse(p)
	resp.Status = string(p.Status)
	resp.AssetURL = p.AssetURL
	return resp
}

// NewOrderResponse is the buyer view. downloadURL is empty unless the order
// carries a usable credential.
func NewOrderResponse(o *model.Order, downloadURL string) *OrderResponse {
	resp := &OrderResponse{
		ID:          o.ID,
		OrderNumber: o.ShortNumber(),
		Email:       o.Email,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency,
		Items:       make([]OrderItemResponse, 0, len(o.Items)),
		DownloadURL: downloadURL,
		CreatedAt:   o.CreatedAt,
	}
	if downloadURL != "" {
		resp.DownloadExpiry = o.DownloadExpiry
	}
	for _, it := range o.Items {
		item := OrderItemResponse{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		if it.Product != nil {
			item.Title = it.Product.Title
			if it.Product.Category != nil {
				item.Category = it.Product.Category.Name
			}
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

// NewAdminOrderResponse adds gateway references for the back office.
func NewAdminOrderResponse(o *model.Order) *OrderResponse {
	resp := NewOrderResponse(o, "")
	resp.DownloadExpiry = o.DownloadExpiry
	if o.SessionRef != nil {
		resp.SessionRef = *o.SessionRef
	}
	if o.PaymentRef != nil {
		resp.PaymentRef = *o.PaymentRef
	}
	return resp
}
