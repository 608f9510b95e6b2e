package model

import (
	"strings"
	"time"
)

type ProductStatus string

const (
	ProductDraft    ProductStatus = "DRAFT"
	ProductActive   ProductStatus = "ACTIVE"
	ProductArchived ProductStatus = "ARCHIVED"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductDraft, ProductActive, ProductArchived:
		return true
	}
	return false
}

type Category struct {
	ID          string `gorm:"primaryKey;size:64;not null"`
	Name        string `gorm:"size:128;not null"`
	Slug        string `gorm:"size:128;uniqueIndex;not null"`
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Product struct {
	ID            string `gorm:"primaryKey;size:64;not null"`
	Title         string `gorm:"size:255;not null"`
	Slug          string `gorm:"size:255;uniqueIndex;not null"`
	Description   string
	Price         int64         `gorm:"not null"` // minor currency units
	OriginalPrice *int64        // strike-through price, display only
	AssetURL      string        `gorm:"size:1024;not null"` // template link delivered after purchase
	Status        ProductStatus `gorm:"size:16;index;not null"`
	Featured      bool          `gorm:"not null;default:false"`
	CategoryID    string        `gorm:"size:64;index;not null"`
	Category      *Category     `gorm:"foreignKey:CategoryID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Product) Purchasable() bool {
	return p.Status == ProductActive
}

type Order struct {
	ID             string      `gorm:"primaryKey;size:64;not null"`
	Email          string      `gorm:"size:320;index;not null"` // buyer, no account
	TotalAmount    int64       `gorm:"not null"`                // minor currency units
	Currency       string      `gorm:"size:8;not null"`
	Status         OrderStatus `gorm:"size:16;index;not null"`
	SessionRef     *string     `gorm:"size:64;uniqueIndex"` // gateway checkout session
	PaymentRef     *string     `gorm:"size:64"`             // gateway capture id
	DownloadToken  *string     `gorm:"size:64;uniqueIndex"`
	DownloadExpiry *time.Time
	Items          []OrderItem `gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CredentialValid reports whether the order holds a download credential that
// has not yet expired at now.
func (o *Order) CredentialValid(now time.Time) bool {
	return o.DownloadToken != nil && *o.DownloadToken != "" &&
		o.DownloadExpiry != nil && o.DownloadExpiry.After(now)
}

func (o *Order) ShortNumber() string {
	id := o.ID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → order.id
	OrderID string `gorm:"size:64;index;not null"`
	// FK → product.id
	ProductID string   `gorm:"size:64;index;not null"`
	Product   *Product `gorm:"foreignKey:ProductID"`
	Quantity  int32    `gorm:"not null"`
	UnitPrice int64    `gorm:"not null"` // captured at order creation
	CreatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;uniqueIndex;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
