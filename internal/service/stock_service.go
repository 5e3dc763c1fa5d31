package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	radix "github.com/mediocregopher/radix/v3"
	"gorm.io/gorm"

	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/product"
)

const (
	stockCacheKey        = "stock:%d:%s" // productDetailID, size
	stockCacheTTLSeconds = 30
)

// StockCheckItem is one entry of the batch availability request.
type StockCheckItem struct {
	ProductDetailID int64  `json:"productDetailId"`
	Size            string `json:"size"`
	Quantity        int64  `json:"quantity"`
}

// StockIssue names one invalid entry and why.
type StockIssue struct {
	ProductDetailID int64  `json:"productDetailId"`
	Size            string `json:"size"`
	Reason          string `json:"reason"`
}

// StockService answers the read-only availability check used by the cart
// page. It never mutates state and never fails the batch for one bad entry.
type StockService struct {
	productRepo product.Repository
	redis       radix.Client
}

// NewStockService creates the availability checker. redis may be nil; stock
// then always comes from the database.
func NewStockService(productRepo product.Repository, redis radix.Client) *StockService {
	return &StockService{
		productRepo: productRepo,
		redis:       redis,
	}
}

// Check validates every entry independently and returns the invalid ones
// with human-readable reasons. An entry that cannot be verified (storage
// error) is reported as invalid rather than failing the batch.
func (s *StockService) Check(ctx context.Context, items []StockCheckItem) []StockIssue {
	issues := make([]StockIssue, 0)
	for _, it := range items {
		if reason := s.checkOne(ctx, it); reason != "" {
			issues = append(issues, StockIssue{
				ProductDetailID: it.ProductDetailID,
				Size:            it.Size,
				Reason:          reason,
			})
		}
	}
	return issues
}

func (s *StockService) checkOne(ctx context.Context, it StockCheckItem) string {
	if it.ProductDetailID <= 0 || it.Size == "" {
		return "malformed entry"
	}
	if it.Quantity <= 0 {
		return "quantity must be positive"
	}

	stock, ok := s.cachedStock(it.ProductDetailID, it.Size)
	if !ok {
		if _, err := s.productRepo.GetDetailByID(ctx, it.ProductDetailID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "variant not found"
			}
			GetMonitor().RecordDBError()
			return "could not verify stock"
		}
		inv, err := s.productRepo.GetInventory(ctx, it.ProductDetailID, it.Size)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Sprintf("size %s not available", it.Size)
			}
			GetMonitor().RecordDBError()
			return "could not verify stock"
		}
		stock = inv.Stock
		s.cacheStock(it.ProductDetailID, it.Size, stock)
	}

	if stock <= 0 {
		return "out of stock"
	}
	if stock < it.Quantity {
		return fmt.Sprintf("only %d left", stock)
	}
	return ""
}

// cachedStock reads the short-lived Redis copy of an inventory counter.
// Stale by up to the TTL; checkout re-checks inside its transaction.
func (s *StockService) cachedStock(detailID int64, size string) (int64, bool) {
	if s.redis == nil {
		return 0, false
	}
	key := fmt.Sprintf(stockCacheKey, detailID, size)
	var raw string
	if err := s.redis.Do(radix.Cmd(&raw, "GET", key)); err != nil {
		GetMonitor().RecordRedisError()
		return 0, false
	}
	if raw == "" {
		return 0, false
	}
	stock, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		_ = s.redis.Do(radix.Cmd(nil, "DEL", key))
		return 0, false
	}
	return stock, true
}

func (s *StockService) cacheStock(detailID int64, size string, stock int64) {
	if s.redis == nil {
		return
	}
	key := fmt.Sprintf(stockCacheKey, detailID, size)
	if err := s.redis.Do(radix.FlatCmd(nil, "SETEX", key, stockCacheTTLSeconds, stock)); err != nil {
		GetMonitor().RecordRedisError()
	}
}
