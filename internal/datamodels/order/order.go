package order

import (
	"context"
	"time"
)

// Status is the fulfillment state of an order. Transitions are monotonic in
// the rank order below; "cancelled" is only reachable through the cancel
// endpoints.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipping   Status = "shipping"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var statusRank = map[Status]int{
	StatusPending:    1,
	StatusProcessing: 2,
	StatusShipping:   3,
	StatusDelivered:  4,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a forward move on
// the fulfillment ladder. Cancellation is excluded here on purpose.
func (s Status) CanTransitionTo(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false // cancelled is terminal
	}
	to, ok := statusRank[next]
	return ok && to > from
}

// Payment status identifiers.
const (
	PaymentPending  = 1
	PaymentPaid     = 2
	PaymentFailed   = 3
	PaymentRefunded = 4
)

// ValidPaymentStatus reports whether id is a known payment status.
func ValidPaymentStatus(id int) bool {
	return id >= PaymentPending && id <= PaymentRefunded
}

// Order is a checkout result. Monetary fields are in VND. The shipping
// address and phone are snapshots, not live references.
type Order struct {
	ID               int64  `gorm:"primaryKey" json:"id"`
	UserID           int64  `gorm:"index;not null" json:"user_id"`
	Subtotal         int64  `gorm:"not null" json:"subtotal"`
	VoucherID        *int64 `gorm:"index" json:"voucher_id,omitempty"`
	VoucherDiscount  int64  `gorm:"not null;default:0" json:"voucher_discount"`
	ShippingBaseFee  int64  `gorm:"not null;default:0" json:"shipping_base_fee"`
	ShippingDiscount int64  `gorm:"not null;default:0" json:"shipping_discount"`
	ShippingFee      int64  `gorm:"not null;default:0" json:"shipping_fee"`
	Total            int64  `gorm:"not null" json:"total"`
	Status           Status `gorm:"size:16;index;not null;default:pending" json:"status"`
	PaymentStatusID  int    `gorm:"index;not null;default:1" json:"payment_status_id"`
	PaymentMethodID  int    `gorm:"not null" json:"payment_method_id"`
	ShippingAddress  string `gorm:"size:512;not null" json:"shipping_address"`
	PhoneNumber      string `gorm:"size:32" json:"phone_number"`
	CancelNote       string `gorm:"size:512" json:"cancel_note,omitempty"`
	RefundAmount     int64  `gorm:"not null;default:0" json:"refund_amount,omitempty"`
	RefundReason     string `gorm:"size:512" json:"refund_reason,omitempty"`

	Details   []OrderDetail `gorm:"foreignKey:OrderID" json:"details,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CancellableBy reports whether the order may be cancelled under the given
// role. Customers may cancel while the order is pending or processing; admins
// from any state except delivered and cancelled.
func (o *Order) CancellableBy(isAdmin bool) bool {
	if isAdmin {
		return o.Status != StatusDelivered && o.Status != StatusCancelled
	}
	return o.Status == StatusPending || o.Status == StatusProcessing
}

// OrderDetail is one line item. Price, discount and image are snapshots
// taken at purchase time so historical orders stay immutable to later
// catalog edits.
type OrderDetail struct {
	ID              int64  `gorm:"primaryKey" json:"id"`
	OrderID         int64  `gorm:"index;not null" json:"order_id"`
	ProductID       int64  `gorm:"index;not null" json:"product_id"`
	ProductDetailID int64  `gorm:"index;not null" json:"product_detail_id"`
	ProductName     string `gorm:"size:128" json:"product_name"`
	Color           string `gorm:"size:32;not null" json:"color"`
	Size            string `gorm:"size:16;not null" json:"size"`
	Quantity        int64  `gorm:"not null" json:"quantity"`
	OriginalPrice   int64  `gorm:"not null" json:"original_price"`
	DiscountPrice   int64  `gorm:"not null" json:"discount_price"`
	DiscountPercent int64  `gorm:"not null;default:0" json:"discount_percent"`
	VoucherID       *int64 `json:"voucher_id,omitempty"`
	ImageURL        string `gorm:"size:512" json:"image_url"`

	CreatedAt time.Time `json:"created_at"`
}

// Repository covers the read paths of the order store. Creation and the
// compensating mutations happen inside the order service's transaction.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
}
