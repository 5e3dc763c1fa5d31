package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/product"
)

// ProductService covers catalog reads and the admin CRUD surface. Inventory
// edits reconcile the derived product status in the same transaction.
type ProductService struct {
	db   *gorm.DB
	repo product.Repository
}

func NewProductService(db *gorm.DB, repo product.Repository) *ProductService {
	return &ProductService{db: db, repo: repo}
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

// GetWithVariants loads a product with its variants, sizes and live stock.
func (s *ProductService) GetWithVariants(ctx context.Context, id int64) (*product.Product, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.repo.ListDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Details = make([]product.ProductDetail, 0, len(details))
	for _, d := range details {
		p.Details = append(p.Details, *d)
	}
	return p, nil
}

func (s *ProductService) ListActive(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListActive(ctx)
}

func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListAll(ctx)
}

func (s *ProductService) Create(ctx context.Context, p *product.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: product name required", ErrValidation)
	}
	if p.Status == "" {
		p.Status = product.StatusDraft
	}
	return s.repo.Create(ctx, p)
}

func (s *ProductService) Update(ctx context.Context, p *product.Product) error {
	return s.repo.Update(ctx, p)
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// SetStatus applies a manual status override. "draft" always sticks;
// "active" is immediately reconciled against real stock so an empty product
// cannot be forced visible.
func (s *ProductService) SetStatus(ctx context.Context, id int64, status string) error {
	if status != product.StatusActive && status != product.StatusDraft {
		return fmt.Errorf("%w: status must be active or draft", ErrValidation)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&product.Product{}).
			Where("id = ?", id).
			UpdateColumn("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		if status == product.StatusActive {
			return reconcileProductStatus(tx, id)
		}
		return nil
	})
}

func (s *ProductService) CreateDetail(ctx context.Context, d *product.ProductDetail) error {
	if d.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	return s.repo.CreateDetail(ctx, d)
}

func (s *ProductService) UpdateDetail(ctx context.Context, d *product.ProductDetail) error {
	return s.repo.UpdateDetail(ctx, d)
}

func (s *ProductService) DeleteDetail(ctx context.Context, id int64) error {
	return s.repo.DeleteDetail(ctx, id)
}

// SetInventory writes an absolute stock level for a (variant, size) pair and
// reconciles the parent product status in the same transaction.
func (s *ProductService) SetInventory(ctx context.Context, detailID int64, size string, stock int64) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	if size == "" {
		return fmt.Errorf("%w: size required", ErrValidation)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d product.ProductDetail
		if err := tx.First(&d, detailID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: variant %d", ErrNotFound, detailID)
			}
			return err
		}

		res := tx.Model(&product.ProductInventory{}).
			Where("product_detail_id = ? AND size = ?", detailID, size).
			UpdateColumn("stock", stock)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&product.ProductInventory{
				ProductDetailID: detailID,
				Size:            size,
				Stock:           stock,
			}).Error; err != nil {
				return err
			}
		}

		return reconcileProductStatus(tx, d.ProductID)
	})
}

// Reconcile recomputes the derived status of one product from live stock.
// Used by the periodic sweep; every transactional mutation already
// reconciles inline.
func (s *ProductService) Reconcile(ctx context.Context, productID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return reconcileProductStatus(tx, productID)
	})
}
