package product

import (
	"context"
	"math"
	"time"
)

// Product availability status. "outofstock" and "active" are derived from
// aggregate variant stock; "draft" is a manual override that reconciliation
// never touches.
const (
	StatusActive     = "active"
	StatusOutOfStock = "outofstock"
	StatusDraft      = "draft"
)

// Product is the aggregate root of the catalog.
type Product struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:128;not null" json:"name"`
	Description string `gorm:"size:512" json:"description"`
	// Status must equal "outofstock" iff the summed stock over all the
	// product's variants and sizes is 0, unless manually set to "draft".
	Status    string          `gorm:"size:16;index;not null;default:active" json:"status"`
	Details   []ProductDetail `gorm:"foreignKey:ProductID" json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductDetail is one color variant of a product carrying its own price.
// Prices are in VND.
type ProductDetail struct {
	ID            int64              `gorm:"primaryKey" json:"id"`
	ProductID     int64              `gorm:"uniqueIndex:uniq_product_color;not null" json:"product_id"`
	Color         string             `gorm:"size:32;uniqueIndex:uniq_product_color;not null" json:"color"`
	Price         int64              `gorm:"not null" json:"price"`
	OriginalPrice int64              `gorm:"not null" json:"original_price"`
	ImageURL      string             `gorm:"size:512" json:"image_url"`
	Inventories   []ProductInventory `gorm:"foreignKey:ProductDetailID" json:"inventories,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// DiscountPercent is the rounded markdown of the selling price against the
// original price, 0 when there is no original price.
func (d *ProductDetail) DiscountPercent() int64 {
	if d.OriginalPrice <= 0 {
		return 0
	}
	return int64(math.Round((1 - float64(d.Price)/float64(d.OriginalPrice)) * 100))
}

// ProductInventory is the stock counter for one (variant, size) pair.
type ProductInventory struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	ProductDetailID int64     `gorm:"uniqueIndex:uniq_detail_size;not null" json:"product_detail_id"`
	Size            string    `gorm:"size:16;uniqueIndex:uniq_detail_size;not null" json:"size"`
	Stock           int64     `gorm:"not null;default:0" json:"stock"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Repository covers the non-transactional catalog access paths. The order
// workflow mutates inventory inside its own database transaction and does not
// go through this interface.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	ListActive(ctx context.Context) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error

	GetDetail(ctx context.Context, productID int64, color string) (*ProductDetail, error)
	GetDetailByID(ctx context.Context, id int64) (*ProductDetail, error)
	ListDetails(ctx context.Context, productID int64) ([]*ProductDetail, error)
	CreateDetail(ctx context.Context, d *ProductDetail) error
	UpdateDetail(ctx context.Context, d *ProductDetail) error
	DeleteDetail(ctx context.Context, id int64) error

	GetInventory(ctx context.Context, detailID int64, size string) (*ProductInventory, error)
	ListInventories(ctx context.Context, detailID int64) ([]*ProductInventory, error)
	UpsertInventory(ctx context.Context, inv *ProductInventory) error

	// TotalStock sums stock over every variant and size of a product.
	TotalStock(ctx context.Context, productID int64) (int64, error)
}
