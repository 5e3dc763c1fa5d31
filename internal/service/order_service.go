package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"

	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/order"
	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/product"
	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/voucher"
	"github.com/Captain-Catto/online-store-sub001/internal/repository/mysql"
)

const OrderEventsQueue = "order_events"

// OrderEvent is the message published after a committed lifecycle change.
type OrderEvent struct {
	Event      string    `json:"event"`
	OrderID    int64     `json:"order_id"`
	UserID     int64     `json:"user_id"`
	Total      int64     `json:"total"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OrderItemInput is one cart line at checkout.
type OrderItemInput struct {
	ProductID int64  `json:"productId"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
}

// CreateOrderInput is the checkout request.
type CreateOrderInput struct {
	UserID          int64
	Items           []OrderItemInput
	VoucherCode     string
	PaymentMethodID int
	ShippingAddress string
	PhoneNumber     string
}

// OrderService orchestrates checkout, cancellation and refunds. Every
// mutating operation runs inside one database transaction; product status
// is reconciled in the same transaction as the inventory change.
type OrderService struct {
	db        *gorm.DB
	orderRepo order.Repository
	mqConn    *amqp.Connection
}

// NewOrderService creates the order workflow service. mqConn may be nil;
// event publishing is then skipped.
func NewOrderService(db *gorm.DB, orderRepo order.Repository, mqConn *amqp.Connection) *OrderService {
	return &OrderService{
		db:        db,
		orderRepo: orderRepo,
		mqConn:    mqConn,
	}
}

// Create places an order: it resolves every (product, color, size) to an
// inventory row, checks and decrements stock, applies the voucher and
// shipping fee, persists the order with its line-item snapshots and
// reconciles the status of every touched product. All of it commits or
// rolls back together.
func (s *OrderService) Create(ctx context.Context, in *CreateOrderInput) (*order.Order, error) {
	GetMonitor().RecordOrderRequest()

	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: empty cart", ErrValidation)
	}
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
	}
	if in.ShippingAddress == "" {
		return nil, fmt.Errorf("%w: shipping address required", ErrValidation)
	}

	var created *order.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subtotal int64
		details := make([]order.OrderDetail, 0, len(in.Items))
		touched := make(map[int64]struct{})
		productNames := make(map[int64]string)

		type decrement struct {
			inventoryID int64
			quantity    int64
		}
		decs := make([]decrement, 0, len(in.Items))

		for _, it := range in.Items {
			var pd product.ProductDetail
			if err := tx.Where("product_id = ? AND color = ?", it.ProductID, it.Color).
				First(&pd).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: variant product=%d color=%s", ErrNotFound, it.ProductID, it.Color)
				}
				return err
			}

			var inv product.ProductInventory
			if err := tx.Where("product_detail_id = ? AND size = ?", pd.ID, it.Size).
				First(&inv).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: size %s for variant %d", ErrNotFound, it.Size, pd.ID)
				}
				return err
			}
			if inv.Stock < it.Quantity {
				return fmt.Errorf("%w: variant %d size %s has %d, want %d",
					ErrInsufficientStock, pd.ID, it.Size, inv.Stock, it.Quantity)
			}

			name, ok := productNames[it.ProductID]
			if !ok {
				var p product.Product
				if err := tx.First(&p, it.ProductID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return fmt.Errorf("%w: product %d", ErrNotFound, it.ProductID)
					}
					return err
				}
				name = p.Name
				productNames[it.ProductID] = name
			}

			subtotal += pd.Price * it.Quantity
			details = append(details, order.OrderDetail{
				ProductID:       it.ProductID,
				ProductDetailID: pd.ID,
				ProductName:     name,
				Color:           it.Color,
				Size:            it.Size,
				Quantity:        it.Quantity,
				OriginalPrice:   pd.OriginalPrice,
				DiscountPrice:   pd.Price,
				DiscountPercent: pd.DiscountPercent(),
				ImageURL:        pd.ImageURL,
			})
			decs = append(decs, decrement{inventoryID: inv.ID, quantity: it.Quantity})
			touched[it.ProductID] = struct{}{}
		}

		var voucherDiscount int64
		var voucherID *int64
		if in.VoucherCode != "" {
			var v voucher.Voucher
			if err := tx.Where("code = ?", in.VoucherCode).First(&v).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: voucher %s", ErrNotFound, in.VoucherCode)
				}
				return err
			}
			if err := checkVoucher(&v, subtotal, time.Now()); err != nil {
				return err
			}
			voucherDiscount = v.DiscountFor(subtotal)

			// guarded increment so the usage cap holds under concurrent checkouts
			res := tx.Model(&voucher.Voucher{}).
				Where("id = ? AND (usage_limit = 0 OR usage_count < usage_limit)", v.ID).
				UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: voucher %s usage limit reached", ErrValidation, v.Code)
			}

			id := v.ID
			voucherID = &id
			for i := range details {
				details[i].VoucherID = voucherID
			}
		}

		fee := CalculateShippingFee(subtotal, in.ShippingAddress)

		o := &order.Order{
			UserID:           in.UserID,
			Subtotal:         subtotal,
			VoucherID:        voucherID,
			VoucherDiscount:  voucherDiscount,
			ShippingBaseFee:  fee.BaseFee,
			ShippingDiscount: fee.Discount,
			ShippingFee:      fee.FinalFee,
			Total:            subtotal - voucherDiscount + fee.FinalFee,
			Status:           order.StatusPending,
			PaymentStatusID:  order.PaymentPending,
			PaymentMethodID:  in.PaymentMethodID,
			ShippingAddress:  in.ShippingAddress,
			PhoneNumber:      in.PhoneNumber,
			Details:          details,
		}
		if err := tx.Create(o).Error; err != nil {
			return err
		}

		// the decrement is conditional on remaining stock, so a concurrent
		// checkout that drained the row fails here and rolls everything back
		for _, d := range decs {
			res := tx.Model(&product.ProductInventory{}).
				Where("id = ? AND stock >= ?", d.inventoryID, d.quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", d.quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: inventory row %d drained concurrently", ErrInsufficientStock, d.inventoryID)
			}
		}

		for pid := range touched {
			if err := reconcileProductStatus(tx, pid); err != nil {
				return err
			}
		}

		created = o
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			GetMonitor().RecordStockRejection()
		}
		return nil, err
	}

	GetMonitor().RecordOrderCreated()
	s.publishEvent("order.created", created)
	return created, nil
}

// Cancel cancels an order and restocks its line items. Customers may only
// cancel their own pending/processing orders; admins anything not yet
// delivered or already cancelled.
func (s *OrderService) Cancel(ctx context.Context, orderID, actorID int64, isAdmin bool, note string) error {
	var cancelled *order.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o order.Order
		if err := tx.Preload("Details").First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}
		if !isAdmin && o.UserID != actorID {
			return fmt.Errorf("%w: not the order owner", ErrForbidden)
		}
		if !o.CancellableBy(isAdmin) {
			return fmt.Errorf("%w: cannot cancel order in status %s", ErrInvalidState, o.Status)
		}

		if err := tx.Model(&order.Order{}).
			Where("id = ?", o.ID).
			Updates(map[string]interface{}{
				"status":      order.StatusCancelled,
				"cancel_note": note,
			}).Error; err != nil {
			return err
		}

		touched := make(map[int64]struct{})
		for _, d := range o.Details {
			res := tx.Model(&product.ProductInventory{}).
				Where("product_detail_id = ? AND size = ?", d.ProductDetailID, d.Size).
				UpdateColumn("stock", gorm.Expr("stock + ?", d.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// the row was removed since purchase; recreate it so the
				// returned stock is not lost
				if err := tx.Create(&product.ProductInventory{
					ProductDetailID: d.ProductDetailID,
					Size:            d.Size,
					Stock:           d.Quantity,
				}).Error; err != nil {
					return err
				}
			}
			touched[d.ProductID] = struct{}{}
		}

		for pid := range touched {
			if err := reconcileProductStatus(tx, pid); err != nil {
				return err
			}
		}

		o.Status = order.StatusCancelled
		o.CancelNote = note
		cancelled = &o
		return nil
	})
	if err != nil {
		return err
	}

	GetMonitor().RecordOrderCancelled()
	s.publishEvent("order.cancelled", cancelled)
	return nil
}

// Refund marks a paid order as refunded. Payment-side only: it does not
// change the fulfillment status and does not touch inventory.
func (s *OrderService) Refund(ctx context.Context, orderID, amount int64, reason string) (*order.Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: refund amount must be positive", ErrValidation)
	}

	var refunded *order.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o order.Order
		if err := tx.First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}
		if o.PaymentStatusID != order.PaymentPaid {
			return fmt.Errorf("%w: order %d is not paid", ErrInvalidState, orderID)
		}
		if amount > o.Total {
			return fmt.Errorf("%w: refund %d exceeds order total %d", ErrValidation, amount, o.Total)
		}

		if err := tx.Model(&order.Order{}).
			Where("id = ?", o.ID).
			Updates(map[string]interface{}{
				"payment_status_id": order.PaymentRefunded,
				"refund_amount":     amount,
				"refund_reason":     reason,
			}).Error; err != nil {
			return err
		}

		o.PaymentStatusID = order.PaymentRefunded
		o.RefundAmount = amount
		o.RefundReason = reason
		refunded = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	GetMonitor().RecordOrderRefunded()
	s.publishEvent("order.refunded", refunded)
	return refunded, nil
}

// UpdateStatus moves an order forward on the fulfillment ladder.
// Cancellation goes through Cancel, never through here.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, next order.Status) (*order.Order, error) {
	if next == order.StatusCancelled {
		return nil, fmt.Errorf("%w: use the cancel endpoint", ErrValidation)
	}
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}

	var updated *order.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o order.Order
		if err := tx.First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}
		if !o.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidState, o.Status, next)
		}
		if err := tx.Model(&order.Order{}).
			Where("id = ?", o.ID).
			UpdateColumn("status", next).Error; err != nil {
			return err
		}
		o.Status = next
		updated = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdatePaymentStatus records a payment-side transition. Refunds go through
// Refund so the amount and reason are captured.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID int64, paymentStatusID int) (*order.Order, error) {
	if !order.ValidPaymentStatus(paymentStatusID) {
		return nil, fmt.Errorf("%w: unknown payment status %d", ErrValidation, paymentStatusID)
	}
	if paymentStatusID == order.PaymentRefunded {
		return nil, fmt.Errorf("%w: use the refund endpoint", ErrValidation)
	}

	var updated *order.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o order.Order
		if err := tx.First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}
		if err := tx.Model(&order.Order{}).
			Where("id = ?", o.ID).
			UpdateColumn("payment_status_id", paymentStatusID).Error; err != nil {
			return err
		}
		o.PaymentStatusID = paymentStatusID
		updated = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get loads one order and enforces ownership.
func (s *OrderService) Get(ctx context.Context, orderID, actorID int64, isAdmin bool) (*order.Order, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	if !isAdmin && o.UserID != actorID {
		return nil, fmt.Errorf("%w: not the order owner", ErrForbidden)
	}
	return o, nil
}

// ListByUser returns a user's orders, newest first.
func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]*order.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// ListRecent returns the latest orders for the admin dashboard.
func (s *OrderService) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	return s.orderRepo.ListRecent(ctx, limit)
}

// reconcileProductStatus recomputes the derived product status from the
// summed stock over all variants and sizes. Idempotent; a manual "draft"
// is never overwritten.
func reconcileProductStatus(tx *gorm.DB, productID int64) error {
	total, err := mysql.TotalStock(tx, productID)
	if err != nil {
		return err
	}
	var p product.Product
	if err := tx.First(&p, productID).Error; err != nil {
		return err
	}
	if p.Status == product.StatusDraft {
		return nil
	}

	next := product.StatusActive
	if total == 0 {
		next = product.StatusOutOfStock
	}
	if p.Status == next {
		return nil
	}
	return tx.Model(&product.Product{}).
		Where("id = ?", productID).
		UpdateColumn("status", next).Error
}

// publishEvent emits an order lifecycle event after commit. Best effort:
// a broker failure is logged and counted, never surfaced to the caller.
func (s *OrderService) publishEvent(event string, o *order.Order) {
	if s.mqConn == nil || o == nil {
		return
	}
	ch, err := s.mqConn.Channel()
	if err != nil {
		log.Printf("order event %s: open channel failed: %v", event, err)
		GetMonitor().RecordMQError()
		return
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(OrderEventsQueue, true, false, false, false, nil); err != nil {
		log.Printf("order event %s: declare queue failed: %v", event, err)
		GetMonitor().RecordMQError()
		return
	}

	body, err := json.Marshal(&OrderEvent{
		Event:      event,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Total:      o.Total,
		Status:     string(o.Status),
		OccurredAt: time.Now(),
	})
	if err != nil {
		log.Printf("order event %s: marshal failed: %v", event, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ch.PublishWithContext(ctx, "", OrderEventsQueue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		log.Printf("order event %s: publish failed: %v", event, err)
		GetMonitor().RecordMQError()
	}
}
