package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/voucher"
)

// VoucherService covers voucher validation for the cart preview and the
// admin CRUD surface. Redemption itself happens inside the checkout
// transaction in OrderService.
type VoucherService struct {
	repo voucher.Repository
}

func NewVoucherService(repo voucher.Repository) *VoucherService {
	return &VoucherService{repo: repo}
}

// checkVoucher enforces everything except the discount math: status, expiry,
// usage cap and minimum order value. Shared between the preview path and the
// checkout transaction.
func checkVoucher(v *voucher.Voucher, subtotal int64, now time.Time) error {
	if v.Status == voucher.StatusExpired || v.Expired(now) {
		return fmt.Errorf("%w: %s", ErrVoucherExpired, v.Code)
	}
	if v.Status != voucher.StatusActive {
		return fmt.Errorf("%w: voucher %s is %s", ErrValidation, v.Code, v.Status)
	}
	if v.Exhausted() {
		return fmt.Errorf("%w: voucher %s usage limit reached", ErrValidation, v.Code)
	}
	if subtotal < v.MinOrderValue {
		return fmt.Errorf("%w: voucher %s requires a subtotal of at least %d",
			ErrValidation, v.Code, v.MinOrderValue)
	}
	return nil
}

// Validate checks a code against a subtotal and returns the voucher with the
// clamped discount it would grant. Read-only.
func (s *VoucherService) Validate(ctx context.Context, code string, subtotal int64) (*voucher.Voucher, int64, error) {
	v, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, fmt.Errorf("%w: voucher %s", ErrNotFound, code)
		}
		return nil, 0, err
	}
	if err := checkVoucher(v, subtotal, time.Now()); err != nil {
		return nil, 0, err
	}
	return v, v.DiscountFor(subtotal), nil
}

func (s *VoucherService) GetByID(ctx context.Context, id int64) (*voucher.Voucher, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: voucher %d", ErrNotFound, id)
		}
		return nil, err
	}
	return v, nil
}

func (s *VoucherService) ListAll(ctx context.Context) ([]*voucher.Voucher, error) {
	return s.repo.ListAll(ctx)
}

// Create validates and stores a new voucher.
func (s *VoucherService) Create(ctx context.Context, v *voucher.Voucher) error {
	if err := validateVoucherFields(v); err != nil {
		return err
	}
	if v.Status == "" {
		v.Status = voucher.StatusActive
	}
	return s.repo.Create(ctx, v)
}

func (s *VoucherService) Update(ctx context.Context, v *voucher.Voucher) error {
	if err := validateVoucherFields(v); err != nil {
		return err
	}
	return s.repo.Update(ctx, v)
}

func (s *VoucherService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func validateVoucherFields(v *voucher.Voucher) error {
	if v.Code == "" {
		return fmt.Errorf("%w: voucher code required", ErrValidation)
	}
	switch v.Type {
	case voucher.TypePercentage:
		// values above 100 are allowed; the discount clamp caps the effect
		if v.Value <= 0 {
			return fmt.Errorf("%w: percentage value must be positive", ErrValidation)
		}
	case voucher.TypeFixed:
		if v.Value <= 0 {
			return fmt.Errorf("%w: fixed value must be positive", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown voucher type %q", ErrValidation, v.Type)
	}
	if v.MinOrderValue < 0 || v.UsageLimit < 0 {
		return fmt.Errorf("%w: negative voucher constraint", ErrValidation)
	}
	return nil
}
