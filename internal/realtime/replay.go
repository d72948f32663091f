package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/crogentx/crogentx/internal/records"
	"github.com/crogentx/crogentx/pkg/x402"
)

// Broadcaster receives replayed transactions
type Broadcaster interface {
	BroadcastTransaction(tx x402.Transaction)
}

// Replayer emits the dataset as a live feed, one transaction per tick,
// oldest first. When the dataset is exhausted it reloads and starts over.
type Replayer struct {
	source   records.DataSource
	out      Broadcaster
	interval time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	queue []x402.Transaction
	pos   int
}

// NewReplayer creates a replayer. A non-positive interval disables Run.
func NewReplayer(source records.DataSource, out Broadcaster, interval time.Duration, logger *slog.Logger) *Replayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Replayer{source: source, out: out, interval: interval, logger: logger}
}

// Run steps the replay on every tick until ctx is cancelled
func (r *Replayer) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	r.logger.Info("transaction replay started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("transaction replay stopped")
			return
		case <-ticker.C:
			if _, err := r.Step(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn("replay step failed", "error", err)
			}
		}
	}
}

// Step broadcasts the next transaction. It reports false when the dataset
// is empty.
func (r *Replayer) Step(ctx context.Context) (bool, error) {
	r.mu.Lock()
	if r.pos >= len(r.queue) {
		txs, err := r.source.Transactions(ctx)
		if err != nil {
			r.mu.Unlock()
			return false, fmt.Errorf("realtime: load transactions: %w", err)
		}
		sort.SliceStable(txs, func(i, j int) bool {
			if txs[i].BlockTimestamp != txs[j].BlockTimestamp {
				return txs[i].BlockTimestamp < txs[j].BlockTimestamp
			}
			return txs[i].BlockNumber < txs[j].BlockNumber
		})
		r.queue, r.pos = txs, 0
	}
	if len(r.queue) == 0 {
		r.mu.Unlock()
		return false, nil
	}
	tx := r.queue[r.pos]
	r.pos++
	r.mu.Unlock()

	r.out.BroadcastTransaction(tx)
	return true, nil
}

// Rewind drops the loaded dataset so the next step reloads from the start
func (r *Replayer) Rewind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue, r.pos = nil, 0
}
