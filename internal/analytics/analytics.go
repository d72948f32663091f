// Package analytics aggregates transaction records into dashboard
// statistics: totals, distributions, an agent leaderboard and an activity
// timeline. Every function is pure and safe for concurrent use.
package analytics

import (
	"cmp"
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/crogentx/crogentx/pkg/x402"
)

// ErrInvalidBucket is returned by ParseBucket for unknown bucket names
var ErrInvalidBucket = errors.New("analytics: bucket must be hour or day")

// Labels used when a transaction carries no metadata
const (
	UnknownCategory = "unknown"
	UnknownProtocol = "Unknown"
	UnknownAgent    = "Unknown"
)

// InstructionCount pairs an instruction type with its frequency
type InstructionCount struct {
	Type  x402.InstructionType `json:"type"`
	Count int                  `json:"count"`
}

// Stats summarises a set of transactions and agents
type Stats struct {
	TotalTransactions       int                          `json:"totalTransactions"`
	SuccessfulTransactions  int                          `json:"successfulTransactions"`
	FailedTransactions      int                          `json:"failedTransactions"`
	PendingTransactions     int                          `json:"pendingTransactions"`
	SuccessRate             float64                      `json:"successRate"`
	TotalVolume             string                       `json:"totalVolume"`
	AvgTransactionValue     string                       `json:"avgTransactionValue"`
	TotalGasUsed            string                       `json:"totalGasUsed"`
	AvgGasUsed              string                       `json:"avgGasUsed"`
	AvgExecutionTime        float64                      `json:"avgExecutionTime"`
	TotalAgents             int                          `json:"totalAgents"`
	ActiveAgents            int                          `json:"activeAgents"`
	BatchedTransactions     int                          `json:"batchedTransactions"`
	MultiStepTransactions   int                          `json:"multiStepTransactions"`
	InstructionDistribution map[x402.InstructionType]int `json:"instructionDistribution"`
	CategoryDistribution    map[string]int               `json:"categoryDistribution"`
	ProtocolDistribution    map[string]int               `json:"protocolDistribution"`
	MostUsedInstructions    []InstructionCount           `json:"mostUsedInstructions"`
}

// ComputeStats aggregates txs. Rates and averages are 0 for an empty set.
// ActiveAgents counts distinct agents that issued at least one transaction.
func ComputeStats(txs []x402.Transaction, agents []x402.Agent) Stats {
	s := Stats{
		TotalTransactions: len(txs),
		TotalAgents:       len(agents),
	}

	var volume, gas float64
	var execTotal int64
	var execCount int
	issuers := make(map[string]struct{})

	for i := range txs {
		tx := &txs[i]
		switch tx.Status {
		case x402.StatusSuccess:
			s.SuccessfulTransactions++
		case x402.StatusFailed:
			s.FailedTransactions++
		case x402.StatusPending:
			s.PendingTransactions++
		}
		volume += tx.ValueFloat()
		gas += tx.GasUsedFloat()
		if tx.ExecutionTime > 0 {
			execTotal += tx.ExecutionTime
			execCount++
		}
		if tx.AgentID != "" {
			issuers[tx.AgentID] = struct{}{}
		}
		if tx.IsBatched() {
			s.BatchedTransactions++
		}
		if tx.IsMultiStep() {
			s.MultiStepTransactions++
		}
	}

	s.ActiveAgents = len(issuers)
	s.TotalVolume = strconv.FormatFloat(volume, 'f', 2, 64)
	s.TotalGasUsed = strconv.FormatFloat(gas, 'f', 0, 64)
	s.AvgTransactionValue = "0.0000"
	s.AvgGasUsed = "0"
	if n := float64(len(txs)); n > 0 {
		s.SuccessRate = float64(s.SuccessfulTransactions) / n * 100
		s.AvgTransactionValue = strconv.FormatFloat(volume/n, 'f', 4, 64)
		s.AvgGasUsed = strconv.FormatFloat(gas/n, 'f', 0, 64)
	}
	if execCount > 0 {
		s.AvgExecutionTime = float64(execTotal) / float64(execCount)
	}

	s.InstructionDistribution = Distribution(txs, func(tx *x402.Transaction) x402.InstructionType {
		return tx.InstructionType
	})
	s.CategoryDistribution = Distribution(txs, func(tx *x402.Transaction) string {
		if c := tx.Category(); c != "" {
			return string(c)
		}
		return UnknownCategory
	})
	s.ProtocolDistribution = Distribution(txs, func(tx *x402.Transaction) string {
		if p := tx.Protocol(); p != "" {
			return p
		}
		return UnknownProtocol
	})
	s.MostUsedInstructions = rankInstructions(s.InstructionDistribution)
	return s
}

// Distribution counts transactions per key
func Distribution[K comparable](txs []x402.Transaction, key func(tx *x402.Transaction) K) map[K]int {
	out := make(map[K]int)
	for i := range txs {
		out[key(&txs[i])]++
	}
	return out
}

func rankInstructions(dist map[x402.InstructionType]int) []InstructionCount {
	out := make([]InstructionCount, 0, len(dist))
	for typ, n := range dist {
		out = append(out, InstructionCount{Type: typ, Count: n})
	}
	slices.SortFunc(out, func(a, b InstructionCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return out
}

// LeaderboardEntry is one agent's activity
type LeaderboardEntry struct {
	AgentID string  `json:"agentId"`
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Volume  float64 `json:"volume"`
}

// Leaderboard ranks issuing agents by transaction count, then volume, then
// id, and returns at most limit entries. A non-positive limit returns all.
// Transactions without an agent are ignored.
func Leaderboard(txs []x402.Transaction, limit int) []LeaderboardEntry {
	index := make(map[string]int)
	entries := []LeaderboardEntry{}

	for i := range txs {
		tx := &txs[i]
		if tx.AgentID == "" {
			continue
		}
		pos, ok := index[tx.AgentID]
		if !ok {
			name := tx.AgentName
			if name == "" {
				name = UnknownAgent
			}
			pos = len(entries)
			index[tx.AgentID] = pos
			entries = append(entries, LeaderboardEntry{AgentID: tx.AgentID, Name: name})
		}
		entries[pos].Count++
		entries[pos].Volume += tx.ValueFloat()
	}

	slices.SortFunc(entries, func(a, b LeaderboardEntry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Volume, a.Volume); c != 0 {
			return c
		}
		return cmp.Compare(a.AgentID, b.AgentID)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Bucket is the width of a timeline interval
type Bucket string

const (
	BucketHour Bucket = "hour"
	BucketDay  Bucket = "day"
)

// ParseBucket parses a bucket name; empty means day
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case "", BucketDay:
		return BucketDay, nil
	case BucketHour:
		return BucketHour, nil
	}
	return "", ErrInvalidBucket
}

func (b Bucket) duration() time.Duration {
	if b == BucketHour {
		return time.Hour
	}
	return 24 * time.Hour
}

// TimelinePoint is the activity within one bucket
type TimelinePoint struct {
	Start   time.Time `json:"start"`
	Count   int       `json:"count"`
	Volume  float64   `json:"volume"`
	Success int       `json:"success"`
	Failed  int       `json:"failed"`
}

// Timeline groups transactions into UTC buckets, oldest first. Buckets with
// no transactions are omitted.
func Timeline(txs []x402.Transaction, bucket Bucket) []TimelinePoint {
	width := bucket.duration()
	byStart := make(map[int64]*TimelinePoint)

	for i := range txs {
		tx := &txs[i]
		start := time.Unix(tx.BlockTimestamp, 0).UTC().Truncate(width)
		p, ok := byStart[start.Unix()]
		if !ok {
			p = &TimelinePoint{Start: start}
			byStart[start.Unix()] = p
		}
		p.Count++
		p.Volume += tx.ValueFloat()
		switch tx.Status {
		case x402.StatusSuccess:
			p.Success++
		case x402.StatusFailed:
			p.Failed++
		}
	}

	out := make([]TimelinePoint, 0, len(byStart))
	for _, p := range byStart {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b TimelinePoint) int { return a.Start.Compare(b.Start) })
	return out
}
