package billing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pharmacy/pos-backend/internal/domain/masterdata"
)

// StockRefresher polls ERPNext for current stock and overlays the figures
// onto every live session. One filtered query per tick covers all open
// bills; sessions without items cost nothing.
type StockRefresher struct {
	sessions *SessionService
	stock    masterdata.StockProvider
	interval time.Duration
	logger   *zap.Logger

	stopChan  chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewStockRefresher creates a stock refresher. Call Start to begin polling.
func NewStockRefresher(sessions *SessionService, stock masterdata.StockProvider, interval time.Duration, logger *zap.Logger) *StockRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockRefresher{
		sessions: sessions,
		stock:    stock,
		interval: interval,
		logger:   logger.Named("stock-refresher"),
		stopChan: make(chan struct{}),
	}
}

// Start launches the polling loop
func (r *StockRefresher) Start() {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.loop()
	})
}

// Close stops the polling loop
func (r *StockRefresher) Close() error {
	r.closeOnce.Do(func() {
		close(r.stopChan)
		r.wg.Wait()
	})
	return nil
}

func (r *StockRefresher) loop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RefreshOnce(context.Background())
		case <-r.stopChan:
			return
		}
	}
}

// RefreshOnce performs one poll cycle. A failed query only skips the
// overlay; stale stock figures are tolerated until the next tick.
func (r *StockRefresher) RefreshOnce(ctx context.Context) {
	codes := r.sessions.OpenItemCodes()
	if len(codes) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.interval)
	defer cancel()

	stock, err := r.stock.StockLevels(ctx, codes)
	if err != nil {
		r.logger.Warn("stock refresh failed", zap.Int("items", len(codes)), zap.Error(err))
		return
	}

	r.sessions.ApplyStockSnapshot(stock)
	r.logger.Debug("stock snapshot applied", zap.Int("items", len(stock)))
}
