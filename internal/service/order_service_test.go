package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/order"
	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/product"
	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/voucher"
	"github.com/Captain-Catto/online-store-sub001/internal/repository/mysql"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, mysql.Migrate(db))
	return db
}

func newOrderService(db *gorm.DB) *OrderService {
	return NewOrderService(db, mysql.NewOrderRepository(db), nil)
}

func seedProduct(t *testing.T, db *gorm.DB, name, status string) *product.Product {
	t.Helper()
	p := &product.Product{Name: name, Status: status}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedVariant(t *testing.T, db *gorm.DB, productID int64, color string, price, originalPrice int64) *product.ProductDetail {
	t.Helper()
	d := &product.ProductDetail{
		ProductID:     productID,
		Color:         color,
		Price:         price,
		OriginalPrice: originalPrice,
		ImageURL:      "/img/" + color + ".jpg",
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

func seedInventory(t *testing.T, db *gorm.DB, detailID int64, size string, stock int64) *product.ProductInventory {
	t.Helper()
	inv := &product.ProductInventory{ProductDetailID: detailID, Size: size, Stock: stock}
	require.NoError(t, db.Create(inv).Error)
	return inv
}

func currentStock(t *testing.T, db *gorm.DB, detailID int64, size string) int64 {
	t.Helper()
	var inv product.ProductInventory
	require.NoError(t, db.Where("product_detail_id = ? AND size = ?", detailID, size).First(&inv).Error)
	return inv.Stock
}

func productStatus(t *testing.T, db *gorm.DB, id int64) string {
	t.Helper()
	var p product.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Status
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 300_000, 400_000)
		seedInventory(t, db, d.ID, "M", 10)

		o, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 2}},
			PaymentMethodID: 1,
			ShippingAddress: "12 Nguyễn Huệ, Quận 1, Hồ Chí Minh",
			PhoneNumber:     "0900000000",
		})
		require.NoError(t, err)
		require.NotNil(t, o)
		assert.NotZero(t, o.ID)

		assert.Equal(t, int64(600_000), o.Subtotal)
		assert.Equal(t, int64(0), o.VoucherDiscount)
		// below the free-ship threshold: full HCMC base fee
		assert.Equal(t, int64(50_000), o.ShippingFee)
		assert.Equal(t, int64(650_000), o.Total)
		assert.Equal(t, order.StatusPending, o.Status)
		assert.Equal(t, order.PaymentPending, o.PaymentStatusID)

		require.Len(t, o.Details, 1)
		line := o.Details[0]
		assert.Equal(t, d.ID, line.ProductDetailID)
		assert.Equal(t, "Basic Tee", line.ProductName)
		assert.Equal(t, int64(300_000), line.DiscountPrice)
		assert.Equal(t, int64(400_000), line.OriginalPrice)
		assert.Equal(t, int64(25), line.DiscountPercent)
		assert.Equal(t, "/img/black.jpg", line.ImageURL)

		assert.Equal(t, int64(8), currentStock(t, db, d.ID, "M"))
		assert.Equal(t, product.StatusActive, productStatus(t, db, p.ID))
	})

	t.Run("insufficient stock", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 300_000, 0)
		seedInventory(t, db, d.ID, "M", 3)

		_, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 5}},
			ShippingAddress: "Hà Nội",
		})
		require.ErrorIs(t, err, ErrInsufficientStock)

		var count int64
		require.NoError(t, db.Model(&order.Order{}).Count(&count).Error)
		assert.Zero(t, count)
		assert.Equal(t, int64(3), currentStock(t, db, d.ID, "M"))
	})

	t.Run("failure at a later item rolls everything back", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		black := seedVariant(t, db, p.ID, "black", 300_000, 0)
		white := seedVariant(t, db, p.ID, "white", 280_000, 0)
		seedInventory(t, db, black.ID, "M", 10)
		seedInventory(t, db, white.ID, "M", 1)

		_, err := svc.Create(ctx, &CreateOrderInput{
			UserID: 1,
			Items: []OrderItemInput{
				{ProductID: p.ID, Color: "black", Size: "M", Quantity: 2},
				{ProductID: p.ID, Color: "white", Size: "M", Quantity: 5},
			},
			ShippingAddress: "Đà Nẵng",
		})
		require.ErrorIs(t, err, ErrInsufficientStock)

		var orders, details int64
		require.NoError(t, db.Model(&order.Order{}).Count(&orders).Error)
		require.NoError(t, db.Model(&order.OrderDetail{}).Count(&details).Error)
		assert.Zero(t, orders)
		assert.Zero(t, details)
		assert.Equal(t, int64(10), currentStock(t, db, black.ID, "M"))
		assert.Equal(t, int64(1), currentStock(t, db, white.ID, "M"))
	})

	t.Run("duplicate cart lines cannot oversell the row", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 300_000, 0)
		seedInventory(t, db, d.ID, "M", 3)

		// each line passes the per-item read check (3 >= 2), so the
		// conditional decrement is what has to stop the second one
		_, err := svc.Create(ctx, &CreateOrderInput{
			UserID: 1,
			Items: []OrderItemInput{
				{ProductID: p.ID, Color: "black", Size: "M", Quantity: 2},
				{ProductID: p.ID, Color: "black", Size: "M", Quantity: 2},
			},
			ShippingAddress: "Hà Nội",
		})
		require.ErrorIs(t, err, ErrInsufficientStock)

		var orders int64
		require.NoError(t, db.Model(&order.Order{}).Count(&orders).Error)
		assert.Zero(t, orders)
		assert.Equal(t, int64(3), currentStock(t, db, d.ID, "M"))
	})

	t.Run("unknown variant", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 300_000, 0)
		seedInventory(t, db, d.ID, "M", 3)

		_, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "red", Size: "M", Quantity: 1}},
			ShippingAddress: "Hà Nội",
		})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown size", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		seedVariant(t, db, p.ID, "black", 300_000, 0)

		_, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "XXL", Quantity: 1}},
			ShippingAddress: "Hà Nội",
		})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty cart", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		_, err := svc.Create(ctx, &CreateOrderInput{UserID: 1, ShippingAddress: "Hà Nội"})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		_, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: 1, Color: "black", Size: "M", Quantity: 0}},
			ShippingAddress: "Hà Nội",
		})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("last unit flips product to outofstock in the same commit", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 300_000, 0)
		seedInventory(t, db, d.ID, "M", 2)

		_, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 2}},
			ShippingAddress: "Hà Nội",
		})
		require.NoError(t, err)

		assert.Equal(t, int64(0), currentStock(t, db, d.ID, "M"))
		assert.Equal(t, product.StatusOutOfStock, productStatus(t, db, p.ID))
	})

	t.Run("other variants still in stock keep product active", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		black := seedVariant(t, db, p.ID, "black", 300_000, 0)
		white := seedVariant(t, db, p.ID, "white", 280_000, 0)
		seedInventory(t, db, black.ID, "M", 1)
		seedInventory(t, db, white.ID, "L", 4)

		_, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 1}},
			ShippingAddress: "Hà Nội",
		})
		require.NoError(t, err)
		assert.Equal(t, product.StatusActive, productStatus(t, db, p.ID))
	})
}

func TestCreateOrderVouchers(t *testing.T) {
	ctx := context.Background()

	seedVoucher := func(t *testing.T, db *gorm.DB, v *voucher.Voucher) *voucher.Voucher {
		t.Helper()
		if v.Status == "" {
			v.Status = voucher.StatusActive
		}
		if v.ExpirationDate.IsZero() {
			v.ExpirationDate = time.Now().Add(24 * time.Hour)
		}
		require.NoError(t, db.Create(v).Error)
		return v
	}

	t.Run("percentage voucher", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 250_000, 0)
		seedInventory(t, db, d.ID, "M", 10)
		v := seedVoucher(t, db, &voucher.Voucher{Code: "WELCOME10", Type: voucher.TypePercentage, Value: 10})

		o, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 2}},
			VoucherCode:     "WELCOME10",
			ShippingAddress: "Hà Nội",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(500_000), o.Subtotal)
		assert.Equal(t, int64(50_000), o.VoucherDiscount)
		assert.Equal(t, int64(500_000-50_000+60_000), o.Total)
		require.NotNil(t, o.VoucherID)
		assert.Equal(t, v.ID, *o.VoucherID)
		require.NotNil(t, o.Details[0].VoucherID)

		var stored voucher.Voucher
		require.NoError(t, db.First(&stored, v.ID).Error)
		assert.Equal(t, int64(1), stored.UsageCount)
	})

	t.Run("fixed voucher clamped to subtotal", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 100_000, 0)
		seedInventory(t, db, d.ID, "M", 10)
		seedVoucher(t, db, &voucher.Voucher{Code: "BIG", Type: voucher.TypeFixed, Value: 120_000})

		o, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 1}},
			VoucherCode:     "BIG",
			ShippingAddress: "Hà Nội",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(100_000), o.Subtotal)
		assert.Equal(t, int64(100_000), o.VoucherDiscount)
		assert.Equal(t, int64(60_000), o.Total) // only shipping left
	})

	t.Run("expired voucher rolls the order back", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 100_000, 0)
		seedInventory(t, db, d.ID, "M", 10)
		seedVoucher(t, db, &voucher.Voucher{
			Code:           "OLD",
			Type:           voucher.TypePercentage,
			Value:          10,
			ExpirationDate: time.Now().Add(-time.Hour),
		})

		_, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 1}},
			VoucherCode:     "OLD",
			ShippingAddress: "Hà Nội",
		})
		require.ErrorIs(t, err, ErrVoucherExpired)

		var count int64
		require.NoError(t, db.Model(&order.Order{}).Count(&count).Error)
		assert.Zero(t, count)
		assert.Equal(t, int64(10), currentStock(t, db, d.ID, "M"))
	})

	t.Run("unknown voucher", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 100_000, 0)
		seedInventory(t, db, d.ID, "M", 10)

		_, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 1}},
			VoucherCode:     "NOPE",
			ShippingAddress: "Hà Nội",
		})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("usage limit reached", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 100_000, 0)
		seedInventory(t, db, d.ID, "M", 10)
		seedVoucher(t, db, &voucher.Voucher{
			Code:       "ONCE",
			Type:       voucher.TypeFixed,
			Value:      10_000,
			UsageLimit: 1,
			UsageCount: 1,
		})

		_, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 1}},
			VoucherCode:     "ONCE",
			ShippingAddress: "Hà Nội",
		})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("below minimum order value", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 100_000, 0)
		seedInventory(t, db, d.ID, "M", 10)
		seedVoucher(t, db, &voucher.Voucher{
			Code:          "MIN500",
			Type:          voucher.TypeFixed,
			Value:         50_000,
			MinOrderValue: 500_000,
		})

		_, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 1}},
			VoucherCode:     "MIN500",
			ShippingAddress: "Hà Nội",
		})
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()

	place := func(t *testing.T, db *gorm.DB, svc *OrderService, userID int64, items []OrderItemInput) *order.Order {
		t.Helper()
		o, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          userID,
			Items:           items,
			ShippingAddress: "Hà Nội",
		})
		require.NoError(t, err)
		return o
	}

	t.Run("restocks exactly the ordered quantities", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		black := seedVariant(t, db, p.ID, "black", 300_000, 0)
		white := seedVariant(t, db, p.ID, "white", 280_000, 0)
		seedInventory(t, db, black.ID, "M", 5)
		seedInventory(t, db, white.ID, "L", 5)

		o := place(t, db, svc, 7, []OrderItemInput{
			{ProductID: p.ID, Color: "black", Size: "M", Quantity: 2},
			{ProductID: p.ID, Color: "white", Size: "L", Quantity: 1},
		})
		require.Equal(t, int64(3), currentStock(t, db, black.ID, "M"))
		require.Equal(t, int64(4), currentStock(t, db, white.ID, "L"))

		require.NoError(t, svc.Cancel(ctx, o.ID, 7, false, "changed my mind"))

		assert.Equal(t, int64(5), currentStock(t, db, black.ID, "M"))
		assert.Equal(t, int64(5), currentStock(t, db, white.ID, "L"))

		var stored order.Order
		require.NoError(t, db.First(&stored, o.ID).Error)
		assert.Equal(t, order.StatusCancelled, stored.Status)
		assert.Equal(t, "changed my mind", stored.CancelNote)
	})

	t.Run("restock flips outofstock back to active", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 300_000, 0)
		seedInventory(t, db, d.ID, "M", 2)

		o := place(t, db, svc, 7, []OrderItemInput{
			{ProductID: p.ID, Color: "black", Size: "M", Quantity: 2},
		})
		require.Equal(t, product.StatusOutOfStock, productStatus(t, db, p.ID))

		require.NoError(t, svc.Cancel(ctx, o.ID, 7, false, ""))
		assert.Equal(t, product.StatusActive, productStatus(t, db, p.ID))
		assert.Equal(t, int64(2), currentStock(t, db, d.ID, "M"))
	})

	t.Run("only the owner or an admin may cancel", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 300_000, 0)
		seedInventory(t, db, d.ID, "M", 5)

		o := place(t, db, svc, 7, []OrderItemInput{
			{ProductID: p.ID, Color: "black", Size: "M", Quantity: 1},
		})

		err := svc.Cancel(ctx, o.ID, 8, false, "")
		require.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, int64(4), currentStock(t, db, d.ID, "M"))

		require.NoError(t, svc.Cancel(ctx, o.ID, 99, true, "support request"))
		assert.Equal(t, int64(5), currentStock(t, db, d.ID, "M"))
	})

	t.Run("state machine per role", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 300_000, 0)
		seedInventory(t, db, d.ID, "M", 10)

		o := place(t, db, svc, 7, []OrderItemInput{
			{ProductID: p.ID, Color: "black", Size: "M", Quantity: 1},
		})

		// customers cannot cancel once the order is shipping, admins can
		require.NoError(t, db.Model(&order.Order{}).Where("id = ?", o.ID).
			UpdateColumn("status", order.StatusShipping).Error)
		require.ErrorIs(t, svc.Cancel(ctx, o.ID, 7, false, ""), ErrInvalidState)
		require.NoError(t, svc.Cancel(ctx, o.ID, 99, true, ""))

		// delivered is terminal for both
		o2 := place(t, db, svc, 7, []OrderItemInput{
			{ProductID: p.ID, Color: "black", Size: "M", Quantity: 1},
		})
		require.NoError(t, db.Model(&order.Order{}).Where("id = ?", o2.ID).
			UpdateColumn("status", order.StatusDelivered).Error)
		require.ErrorIs(t, svc.Cancel(ctx, o2.ID, 7, false, ""), ErrInvalidState)
		require.ErrorIs(t, svc.Cancel(ctx, o2.ID, 99, true, ""), ErrInvalidState)

		// cancelling twice fails
		require.ErrorIs(t, svc.Cancel(ctx, o.ID, 99, true, ""), ErrInvalidState)
	})

	t.Run("missing order", func(t *testing.T) {
		db := newTestDB(t)
		svc := newOrderService(db)
		require.ErrorIs(t, svc.Cancel(ctx, 12345, 1, true, ""), ErrNotFound)
	})
}

func TestRefund(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*gorm.DB, *OrderService, *order.Order) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 300_000, 0)
		seedInventory(t, db, d.ID, "M", 10)

		o, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 1}},
			ShippingAddress: "Hà Nội",
		})
		require.NoError(t, err)
		return db, svc, o
	}

	t.Run("requires a paid order", func(t *testing.T) {
		_, svc, o := setup(t)
		_, err := svc.Refund(ctx, o.ID, 10_000, "damaged")
		require.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("records the refund without touching fulfillment or stock", func(t *testing.T) {
		db, svc, o := setup(t)
		require.NoError(t, db.Model(&order.Order{}).Where("id = ?", o.ID).
			UpdateColumn("payment_status_id", order.PaymentPaid).Error)

		refunded, err := svc.Refund(ctx, o.ID, o.Total, "damaged in transit")
		require.NoError(t, err)
		assert.Equal(t, order.PaymentRefunded, refunded.PaymentStatusID)
		assert.Equal(t, o.Total, refunded.RefundAmount)
		assert.Equal(t, "damaged in transit", refunded.RefundReason)

		var stored order.Order
		require.NoError(t, db.First(&stored, o.ID).Error)
		assert.Equal(t, order.StatusPending, stored.Status) // fulfillment untouched

		// inventory untouched: refund is a payment-side fact only
		var inv product.ProductInventory
		require.NoError(t, db.First(&inv).Error)
		assert.Equal(t, int64(9), inv.Stock)

		// a second refund is rejected, the order is no longer paid
		_, err = svc.Refund(ctx, o.ID, 10_000, "again")
		require.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("rejects bad amounts", func(t *testing.T) {
		db, svc, o := setup(t)
		require.NoError(t, db.Model(&order.Order{}).Where("id = ?", o.ID).
			UpdateColumn("payment_status_id", order.PaymentPaid).Error)

		_, err := svc.Refund(ctx, o.ID, 0, "")
		require.ErrorIs(t, err, ErrValidation)
		_, err = svc.Refund(ctx, o.ID, o.Total+1, "")
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestOrderStatusUpdates(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*gorm.DB, *OrderService, *order.Order) {
		db := newTestDB(t)
		svc := newOrderService(db)

		p := seedProduct(t, db, "Basic Tee", product.StatusActive)
		d := seedVariant(t, db, p.ID, "black", 300_000, 0)
		seedInventory(t, db, d.ID, "M", 10)

		o, err := svc.Create(ctx, &CreateOrderInput{
			UserID:          1,
			Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 1}},
			ShippingAddress: "Hà Nội",
		})
		require.NoError(t, err)
		return db, svc, o
	}

	t.Run("forward transitions only", func(t *testing.T) {
		_, svc, o := setup(t)

		updated, err := svc.UpdateStatus(ctx, o.ID, order.StatusProcessing)
		require.NoError(t, err)
		assert.Equal(t, order.StatusProcessing, updated.Status)

		updated, err = svc.UpdateStatus(ctx, o.ID, order.StatusDelivered)
		require.NoError(t, err)
		assert.Equal(t, order.StatusDelivered, updated.Status)

		_, err = svc.UpdateStatus(ctx, o.ID, order.StatusPending)
		require.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("cancelled is not reachable through the status endpoint", func(t *testing.T) {
		_, svc, o := setup(t)
		_, err := svc.UpdateStatus(ctx, o.ID, order.StatusCancelled)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("payment status transitions", func(t *testing.T) {
		_, svc, o := setup(t)

		updated, err := svc.UpdatePaymentStatus(ctx, o.ID, order.PaymentPaid)
		require.NoError(t, err)
		assert.Equal(t, order.PaymentPaid, updated.PaymentStatusID)

		_, err = svc.UpdatePaymentStatus(ctx, o.ID, order.PaymentRefunded)
		require.ErrorIs(t, err, ErrValidation)

		_, err = svc.UpdatePaymentStatus(ctx, o.ID, 42)
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestGetAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := newOrderService(db)

	p := seedProduct(t, db, "Basic Tee", product.StatusActive)
	d := seedVariant(t, db, p.ID, "black", 300_000, 0)
	seedInventory(t, db, d.ID, "M", 10)

	o, err := svc.Create(ctx, &CreateOrderInput{
		UserID:          7,
		Items:           []OrderItemInput{{ProductID: p.ID, Color: "black", Size: "M", Quantity: 1}},
		ShippingAddress: "Hà Nội",
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, o.ID, 7, false)
	require.NoError(t, err)
	assert.Len(t, got.Details, 1)

	_, err = svc.Get(ctx, o.ID, 8, false)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(ctx, o.ID, 8, true)
	require.NoError(t, err)

	list, err := svc.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	recent, err := svc.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
