package mockdata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crogentx/crogentx/internal/metrics"
	"github.com/crogentx/crogentx/pkg/x402"
)

// Source serves a lazily generated dataset. It is safe for concurrent use.
//
// The dataset is generated on first access and cached until Reset. Each
// Reset advances the generation counter, which is mixed into the seed so the
// next dataset differs from the previous one while staying reproducible for
// a given starting seed.
type Source struct {
	cfg    Config
	logger *slog.Logger

	mu         sync.Mutex
	data       *Dataset
	generation int64
}

// NewSource creates a source. Nothing is generated until first use.
func NewSource(cfg Config, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{cfg: cfg.withDefaults(), logger: logger}
}

// Transactions returns the cached transactions, generating them if needed.
// The slice is a copy; the records inside must be treated as read-only.
func (s *Source) Transactions(ctx context.Context) ([]x402.Transaction, error) {
	ds, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}
	return append([]x402.Transaction(nil), ds.Transactions...), nil
}

// Agents returns the cached agents, generating them if needed
func (s *Source) Agents(ctx context.Context) ([]x402.Agent, error) {
	ds, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}
	return append([]x402.Agent(nil), ds.Agents...), nil
}

// Warm generates the dataset eagerly
func (s *Source) Warm(ctx context.Context) error {
	_, err := s.dataset(ctx)
	return err
}

// Reset drops the cached dataset; the next read regenerates it
func (s *Source) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.generation++
}

// Generation returns how many times the source has been reset
func (s *Source) Generation() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Loaded reports whether a dataset is currently cached
func (s *Source) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data != nil
}

func (s *Source) dataset(ctx context.Context) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data != nil {
		return s.data, nil
	}

	cfg := s.cfg
	cfg.Seed += s.generation
	start := time.Now()
	ds, err := New(cfg).Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("mockdata: generate: %w", err)
	}
	s.data = &ds
	metrics.MockGenerationsTotal.Inc()

	s.logger.Info("generated mock dataset",
		"agents", len(ds.Agents),
		"transactions", len(ds.Transactions),
		"seed", cfg.Seed,
		"duration", time.Since(start),
	)
	return s.data, nil
}
