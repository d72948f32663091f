package upstream

import (
	"context"
	"errors"
	"log/slog"

	"github.com/crogentx/crogentx/internal/circuitbreaker"
	"github.com/crogentx/crogentx/internal/metrics"
	"github.com/crogentx/crogentx/internal/records"
	"github.com/crogentx/crogentx/internal/validation"
	"github.com/crogentx/crogentx/pkg/x402"
)

// Facilitator is the subset of the facilitator API the fallback source uses
type Facilitator interface {
	FetchTransactions(ctx context.Context, params TransactionParams) ([]x402.Transaction, error)
	FetchAgents(ctx context.Context) ([]x402.Agent, error)
	FetchAgent(ctx context.Context, address string) (x402.Agent, error)
}

// FallbackSource serves records from the facilitator and switches to the
// fallback source whenever a call fails or its circuit is open. Upstream
// failures are logged and counted, never returned.
type FallbackSource struct {
	upstream Facilitator
	fallback records.DataSource
	breaker  *circuitbreaker.Breaker
	logger   *slog.Logger
	params   TransactionParams
}

// NewFallbackSource wires a facilitator to its fallback
func NewFallbackSource(upstream Facilitator, fallback records.DataSource, breaker *circuitbreaker.Breaker, logger *slog.Logger) *FallbackSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackSource{
		upstream: upstream,
		fallback: fallback,
		breaker:  breaker,
		logger:   logger,
		params:   TransactionParams{Limit: records.MaxTransactionLimit},
	}
}

// Transactions implements records.DataSource
func (s *FallbackSource) Transactions(ctx context.Context) ([]x402.Transaction, error) {
	var txs []x402.Transaction
	err := s.breaker.Execute(EndpointTransactions, func() (err error) {
		txs, err = s.upstream.FetchTransactions(ctx, s.params)
		return err
	})
	if err == nil {
		return txs, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	s.recordFallback(ctx, EndpointTransactions, err)
	return s.fallback.Transactions(ctx)
}

// Agents implements records.DataSource
func (s *FallbackSource) Agents(ctx context.Context) ([]x402.Agent, error) {
	var agents []x402.Agent
	err := s.breaker.Execute(EndpointAgents, func() (err error) {
		agents, err = s.upstream.FetchAgents(ctx)
		return err
	})
	if err == nil {
		return agents, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	s.recordFallback(ctx, EndpointAgents, err)
	return s.fallback.Agents(ctx)
}

// Agent looks a single agent up. Addresses go to the facilitator first;
// agent ids and failed lookups are resolved against the full agent list.
func (s *FallbackSource) Agent(ctx context.Context, idOrAddress string) (x402.Agent, error) {
	if addr := validation.SanitizeAddress(idOrAddress); validation.IsValidEthAddress(addr) {
		var agent x402.Agent
		err := s.breaker.Execute(EndpointAgent, func() (err error) {
			agent, err = s.upstream.FetchAgent(ctx, addr)
			return err
		})
		if err == nil {
			return agent, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return x402.Agent{}, ctxErr
		}
		s.recordFallback(ctx, EndpointAgent, err)
	}

	agents, err := s.Agents(ctx)
	if err != nil {
		return x402.Agent{}, err
	}
	return records.FindAgent(agents, idOrAddress)
}

func (s *FallbackSource) recordFallback(ctx context.Context, endpoint string, err error) {
	reason := "error"
	if errors.Is(err, circuitbreaker.ErrOpen) {
		reason = "circuit_open"
	}
	metrics.UpstreamFallbacksTotal.WithLabelValues(endpoint, reason).Inc()

	if reason == "circuit_open" {
		s.logger.DebugContext(ctx, "upstream circuit open, serving mock data", "endpoint", endpoint)
		return
	}
	s.logger.WarnContext(ctx, "upstream fetch failed, serving mock data", "endpoint", endpoint, "error", err)
}
