package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/product"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository creates the catalog repository.
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) ListAll(ctx context.Context) ([]*product.Product, error) {
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListActive(ctx context.Context) ([]*product.Product, error) {
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Where("status = ?", product.StatusActive).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&product.Product{}, id).Error
}

func (r *productRepo) GetDetail(ctx context.Context, productID int64, color string) (*product.ProductDetail, error) {
	var d product.ProductDetail
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND color = ?", productID, color).
		First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *productRepo) GetDetailByID(ctx context.Context, id int64) (*product.ProductDetail, error) {
	var d product.ProductDetail
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *productRepo) ListDetails(ctx context.Context, productID int64) ([]*product.ProductDetail, error) {
	var list []*product.ProductDetail
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Preload("Inventories").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) CreateDetail(ctx context.Context, d *product.ProductDetail) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *productRepo) UpdateDetail(ctx context.Context, d *product.ProductDetail) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *productRepo) DeleteDetail(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&product.ProductDetail{}, id).Error
}

func (r *productRepo) GetInventory(ctx context.Context, detailID int64, size string) (*product.ProductInventory, error) {
	var inv product.ProductInventory
	if err := r.db.WithContext(ctx).
		Where("product_detail_id = ? AND size = ?", detailID, size).
		First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *productRepo) ListInventories(ctx context.Context, detailID int64) ([]*product.ProductInventory, error) {
	var list []*product.ProductInventory
	if err := r.db.WithContext(ctx).
		Where("product_detail_id = ?", detailID).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) UpsertInventory(ctx context.Context, inv *product.ProductInventory) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_detail_id"}, {Name: "size"}},
			DoUpdates: clause.AssignmentColumns([]string{"stock", "updated_at"}),
		}).
		Create(inv).Error
}

func (r *productRepo) TotalStock(ctx context.Context, productID int64) (int64, error) {
	return TotalStock(r.db.WithContext(ctx), productID)
}

// TotalStock sums stock over every variant and size of a product. It is
// exported on a bare handle so the order workflow can reuse it inside its
// own transaction.
func TotalStock(tx *gorm.DB, productID int64) (int64, error) {
	var total int64
	err := tx.Table("product_inventories").
		Joins("JOIN product_details ON product_details.id = product_inventories.product_detail_id").
		Where("product_details.product_id = ?", productID).
		Select("COALESCE(SUM(product_inventories.stock), 0)").
		Scan(&total).Error
	return total, err
}
