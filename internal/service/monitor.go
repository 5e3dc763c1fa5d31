package service

import (
	"sync"
	"time"
)

// Monitor keeps in-process counters for the order workflow; the admin stats
// endpoint serves its snapshot.
type Monitor struct {
	mu sync.RWMutex

	// errors
	RedisErrors int64
	MQErrors    int64
	DBErrors    int64

	// order workflow
	OrderRequests   int64
	OrdersCreated   int64
	OrdersCancelled int64
	OrdersRefunded  int64
	StockRejections int64

	// worker
	WorkerProcessed int64
	WorkerFailed    int64

	LastOrderTime  time.Time
	LastWorkerTime time.Time
	LastDBError    time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor returns the global monitor instance.
func GetMonitor() *Monitor {
	return globalMonitor
}

func (m *Monitor) RecordRedisError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors++
}

func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
}

func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

func (m *Monitor) RecordOrderRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderRequests++
	m.LastOrderTime = time.Now()
}

func (m *Monitor) RecordOrderCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersCreated++
}

func (m *Monitor) RecordOrderCancelled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersCancelled++
}

func (m *Monitor) RecordOrderRefunded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersRefunded++
}

func (m *Monitor) RecordStockRejection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StockRejections++
}

func (m *Monitor) RecordWorkerProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerProcessed++
	m.LastWorkerTime = time.Now()
}

func (m *Monitor) RecordWorkerFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerFailed++
}

// GetStats returns a snapshot for the stats endpoint.
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.OrderRequests > 0 {
		successRate = float64(m.OrdersCreated) / float64(m.OrderRequests) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"redis": m.RedisErrors,
			"mq":    m.MQErrors,
			"db":    m.DBErrors,
		},
		"orders": map[string]interface{}{
			"requests":         m.OrderRequests,
			"created":          m.OrdersCreated,
			"cancelled":        m.OrdersCancelled,
			"refunded":         m.OrdersRefunded,
			"stock_rejections": m.StockRejections,
			"success_rate":     successRate,
		},
		"worker": map[string]interface{}{
			"processed": m.WorkerProcessed,
			"failed":    m.WorkerFailed,
		},
		"last_events": map[string]interface{}{
			"order":    m.LastOrderTime,
			"worker":   m.LastWorkerTime,
			"db_error": m.LastDBError,
		},
	}
}

// Reset clears all counters (tests / periodic cleanup).
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors = 0
	m.MQErrors = 0
	m.DBErrors = 0
	m.OrderRequests = 0
	m.OrdersCreated = 0
	m.OrdersCancelled = 0
	m.OrdersRefunded = 0
	m.StockRejections = 0
	m.WorkerProcessed = 0
	m.WorkerFailed = 0
}
