package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/voucher"
)

type voucherRepo struct {
	db *gorm.DB
}

// NewVoucherRepository creates the voucher repository.
func NewVoucherRepository(db *gorm.DB) voucher.Repository {
	return &voucherRepo{db: db}
}

func (r *voucherRepo) GetByID(ctx context.Context, id int64) (*voucher.Voucher, error) {
	var v voucher.Voucher
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *voucherRepo) GetByCode(ctx context.Context, code string) (*voucher.Voucher, error) {
	var v voucher.Voucher
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *voucherRepo) ListAll(ctx context.Context) ([]*voucher.Voucher, error) {
	var list []*voucher.Voucher
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *voucherRepo) Create(ctx context.Context, v *voucher.Voucher) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *voucherRepo) Update(ctx context.Context, v *voucher.Voucher) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *voucherRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&voucher.Voucher{}, id).Error
}
