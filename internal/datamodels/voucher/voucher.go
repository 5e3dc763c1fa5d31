package voucher

import (
	"context"
	"time"
)

// Voucher types.
const (
	TypePercentage = "percentage"
	TypeFixed      = "fixed"
)

// Voucher statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusExpired  = "expired"
)

// Voucher is a discount coupon. Value is a percent for percentage vouchers
// and a VND amount for fixed ones.
type Voucher struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Code           string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Type           string    `gorm:"size:16;not null" json:"type"`
	Value          int64     `gorm:"not null" json:"value"`
	MinOrderValue  int64     `gorm:"not null;default:0" json:"min_order_value"`
	UsageLimit     int64     `gorm:"not null;default:0" json:"usage_limit"` // 0 = unlimited
	UsageCount     int64     `gorm:"not null;default:0" json:"usage_count"`
	ExpirationDate time.Time `gorm:"not null" json:"expiration_date"`
	Status         string    `gorm:"size:16;index;not null;default:active" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Expired reports whether the voucher's expiration date has passed.
func (v *Voucher) Expired(now time.Time) bool {
	return v.ExpirationDate.Before(now)
}

// Exhausted reports whether a non-zero usage limit has been reached.
func (v *Voucher) Exhausted() bool {
	return v.UsageLimit > 0 && v.UsageCount >= v.UsageLimit
}

// DiscountFor computes the discount for a subtotal, clamped so it never
// exceeds the subtotal.
func (v *Voucher) DiscountFor(subtotal int64) int64 {
	var discount int64
	switch v.Type {
	case TypePercentage:
		discount = subtotal * v.Value / 100
	case TypeFixed:
		discount = v.Value
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// Repository is the voucher store.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Voucher, error)
	GetByCode(ctx context.Context, code string) (*Voucher, error)
	ListAll(ctx context.Context) ([]*Voucher, error)
	Create(ctx context.Context, v *Voucher) error
	Update(ctx context.Context, v *Voucher) error
	Delete(ctx context.Context, id int64) error
}
