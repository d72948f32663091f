package records

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/crogentx/crogentx/internal/pagination"
	"github.com/crogentx/crogentx/pkg/x402"
)

const (
	DefaultTransactionLimit = 100
	MaxTransactionLimit     = 1000
	DefaultAgentLimit       = 50
	MaxAgentLimit           = 1000
)

// ErrInvalidQuery wraps every query parsing failure
var ErrInvalidQuery = errors.New("records: invalid query")

// TransactionQuery selects and pages transactions. Zero-valued filters are
// not applied.
type TransactionQuery struct {
	Limit           int                  `json:"limit"`
	Offset          int                  `json:"offset"`
	Status          x402.Status          `json:"status,omitempty"`
	AgentID         string               `json:"agentId,omitempty"`
	InstructionType x402.InstructionType `json:"instructionType,omitempty"`
	MinValue        *float64             `json:"minValue,omitempty"`
	MaxValue        *float64             `json:"maxValue,omitempty"`
	StartDate       *time.Time           `json:"startDate,omitempty"`
	EndDate         *time.Time           `json:"endDate,omitempty"`
	From            string               `json:"from,omitempty"`
	To              string               `json:"to,omitempty"`
}

// Matches reports whether tx passes every filter of the query
func (q *TransactionQuery) Matches(tx *x402.Transaction) bool {
	if q.Status != "" && tx.Status != q.Status {
		return false
	}
	if q.AgentID != "" && tx.AgentID != q.AgentID {
		return false
	}
	if q.InstructionType != "" && tx.InstructionType != q.InstructionType {
		return false
	}
	if q.MinValue != nil && tx.ValueFloat() < *q.MinValue {
		return false
	}
	if q.MaxValue != nil && tx.ValueFloat() > *q.MaxValue {
		return false
	}
	if q.StartDate != nil && tx.BlockTimestamp < q.StartDate.Unix() {
		return false
	}
	if q.EndDate != nil && tx.BlockTimestamp > q.EndDate.Unix() {
		return false
	}
	if q.From != "" && !strings.EqualFold(tx.From, q.From) {
		return false
	}
	if q.To != "" && !strings.EqualFold(tx.To, q.To) {
		return false
	}
	return true
}

// Apply filters txs, then pages the result. Input order is preserved.
func (q *TransactionQuery) Apply(txs []x402.Transaction) ([]x402.Transaction, pagination.Page) {
	filtered := make([]x402.Transaction, 0, len(txs))
	for i := range txs {
		if q.Matches(&txs[i]) {
			filtered = append(filtered, txs[i])
		}
	}
	return pagination.Apply(filtered, pagination.Params{Limit: q.Limit, Offset: q.Offset})
}

// ParseTransactionQuery reads a TransactionQuery from URL query values.
// Malformed numbers or dates yield an error wrapping ErrInvalidQuery.
func ParseTransactionQuery(v url.Values) (TransactionQuery, error) {
	page, err := pagination.Parse(v.Get("limit"), v.Get("offset"), DefaultTransactionLimit, MaxTransactionLimit)
	if err != nil {
		return TransactionQuery{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	q := TransactionQuery{
		Limit:           page.Limit,
		Offset:          page.Offset,
		Status:          x402.Status(v.Get("status")),
		AgentID:         v.Get("agentId"),
		InstructionType: x402.InstructionType(v.Get("instructionType")),
		From:            v.Get("from"),
		To:              v.Get("to"),
	}
	if q.MinValue, err = parseFloatParam(v, "minValue"); err != nil {
		return TransactionQuery{}, err
	}
	if q.MaxValue, err = parseFloatParam(v, "maxValue"); err != nil {
		return TransactionQuery{}, err
	}
	if q.StartDate, err = parseDateParam(v, "startDate"); err != nil {
		return TransactionQuery{}, err
	}
	if q.EndDate, err = parseDateParam(v, "endDate"); err != nil {
		return TransactionQuery{}, err
	}
	return q, nil
}

// AgentQuery selects agents. MinBalance compares against total volume.
type AgentQuery struct {
	Limit      int            `json:"limit"`
	Type       x402.AgentType `json:"type,omitempty"`
	MinBalance *float64       `json:"minBalance,omitempty"`
	ActiveOnly bool           `json:"active,omitempty"`
}

// Apply filters agents and truncates to the limit. It also returns the
// number of agents that matched before truncation.
func (q *AgentQuery) Apply(agents []x402.Agent) ([]x402.Agent, int) {
	filtered := make([]x402.Agent, 0, len(agents))
	for i := range agents {
		a := &agents[i]
		if q.Type != "" && a.Type != q.Type {
			continue
		}
		if q.MinBalance != nil && a.VolumeFloat() < *q.MinBalance {
			continue
		}
		if q.ActiveOnly && !a.IsActive {
			continue
		}
		filtered = append(filtered, *a)
	}
	page, info := pagination.Apply(filtered, pagination.Params{Limit: q.Limit})
	return page, info.Total
}

// ParseAgentQuery reads an AgentQuery from URL query values
func ParseAgentQuery(v url.Values) (AgentQuery, error) {
	page, err := pagination.Parse(v.Get("limit"), "", DefaultAgentLimit, MaxAgentLimit)
	if err != nil {
		return AgentQuery{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	q := AgentQuery{
		Limit:      page.Limit,
		Type:       x402.AgentType(v.Get("type")),
		ActiveOnly: v.Get("active") == "true",
	}
	if q.MinBalance, err = parseFloatParam(v, "minBalance"); err != nil {
		return AgentQuery{}, err
	}
	return q, nil
}

func parseFloatParam(v url.Values, key string) (*float64, error) {
	raw := v.Get(key)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidQuery, key)
	}
	return &f, nil
}

// parseDateParam accepts RFC 3339 timestamps and plain YYYY-MM-DD dates,
// the latter meaning midnight UTC.
func parseDateParam(v url.Values, key string) (*time.Time, error) {
	raw := v.Get(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s must be an RFC 3339 timestamp or YYYY-MM-DD date", ErrInvalidQuery, key)
}
