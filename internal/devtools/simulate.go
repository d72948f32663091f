// Package devtools implements the developer tools: heuristic transaction
// simulation before execution and post-mortem debugging of recorded
// transactions.
package devtools

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"

	"github.com/crogentx/crogentx/internal/idgen"
	"github.com/crogentx/crogentx/pkg/x402"
)

const (
	defaultGas        = 100_000
	gasVariance       = 20_000
	gasPriceGwei      = 5000
	croUSD            = 0.15
	largeValue        = 10_000
	highGas           = 500_000
	baseProbability   = 0.95
	issuePenalty      = 0.15
	warningPenalty    = 0.05
	minExecutionMS    = 2000
	executionSpreadMS = 3000
)

// baseGas is the estimated gas per simulated instruction
var baseGas = map[string]int64{
	"transfer": int64(params.TxGas),
	"swap":     150_000,
	"approve":  45_000,
	"stake":    120_000,
	"borrow":   250_000,
	"repay":    180_000,
	"claim":    80_000,
	"delegate": 60_000,
	"bridge":   200_000,
	"wrap":     50_000,
	"unwrap":   45_000,
	"mint":     100_000,
	"burn":     75_000,
	"vote":     65_000,
	"execute":  300_000,
}

var (
	valueTransferInstructions = map[string]bool{"transfer": true, "swap": true, "stake": true}
	targetInstructions        = map[string]bool{"transfer": true, "approve": true, "delegate": true}
)

// Simulation issue and warning messages
const (
	IssueZeroValue     = "Transaction value is 0 for value-transfer operation"
	IssueMissingTarget = "Target address required for this operation"
	IssueInvalidTarget = "Target is not a valid address"
	WarningLargeValue  = "Large transaction value - verify amount"
	WarningHighGas     = "High gas usage detected - consider optimizing"
	RecommendFixIssues = "❌ Fix critical issues before executing"
	RecommendReview    = "⚠️ Review warnings and proceed with caution"
	RecommendSlippage  = "💡 Consider setting slippage tolerance"
	RecommendLockup    = "💡 Verify lock-up period before committing"
	RecommendLooksGood = "✅ Transaction looks good - safe to execute"
)

// SimulateRequest is the body of POST /api/simulate
type SimulateRequest struct {
	Instruction string          `json:"instruction"`
	AgentID     string          `json:"agentId"`
	Value       string          `json:"value"`
	Target      string          `json:"target,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// GasEstimate is the gas side of a simulation
type GasEstimate struct {
	Estimated int64  `json:"estimated"`
	Price     int64  `json:"price"`
	CostCRO   string `json:"costCRO"`
	CostUSD   string `json:"costUSD"`
}

// Analysis is the risk side of a simulation
type Analysis struct {
	SuccessProbability string   `json:"successProbability"`
	ExecutionTime      string   `json:"executionTime"`
	Issues             []string `json:"issues"`
	Warnings           []string `json:"warnings"`
	Safe               bool     `json:"safe"`
}

// Conditions describes the simulated network state
type Conditions struct {
	Timestamp         string `json:"timestamp"`
	NetworkConditions string `json:"networkConditions"`
	Congestion        string `json:"congestion"`
}

// Simulation is the outcome of simulating one instruction
type Simulation struct {
	ID              string      `json:"id"`
	Instruction     string      `json:"instruction"`
	AgentID         string      `json:"agentId"`
	Value           string      `json:"value"`
	Target          string      `json:"target,omitempty"`
	Gas             GasEstimate `json:"gas"`
	Analysis        Analysis    `json:"analysis"`
	Simulation      Conditions  `json:"simulation"`
	Recommendations []string    `json:"recommendations"`
}

// Simulator estimates gas, cost and risk for an instruction. Randomness only
// adds variance to gas and execution time. Safe for concurrent use.
type Simulator struct {
	mu    sync.Mutex
	rand  *rand.Rand
	now   func() time.Time
	newID func() string
}

// NewSimulator creates a simulator. A nil src seeds from the clock; a nil
// now uses time.Now.
func NewSimulator(src rand.Source, now func() time.Time) *Simulator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		rand:  rand.New(src),
		now:   now,
		newID: func() string { return idgen.WithPrefix("sim_") },
	}
}

// Simulate analyses req. It never fails: unknown instructions use the
// default gas estimate and malformed values count as zero.
func (s *Simulator) Simulate(req SimulateRequest) Simulation {
	s.mu.Lock()
	variance := s.rand.Int63n(gasVariance)
	execMS := minExecutionMS + s.rand.Intn(executionSpreadMS)
	s.mu.Unlock()

	base, ok := baseGas[req.Instruction]
	if !ok {
		base = defaultGas
	}
	estimated := base + variance
	costCRO := float64(estimated*gasPriceGwei) / 1e9

	issues := []string{}
	warnings := []string{}

	value := x402.ParseAmount(req.Value)
	if value == 0 && valueTransferInstructions[req.Instruction] {
		issues = append(issues, IssueZeroValue)
	}
	if value > largeValue {
		warnings = append(warnings, WarningLargeValue)
	}
	if estimated > highGas {
		warnings = append(warnings, WarningHighGas)
	}
	switch {
	case req.Target == "" && targetInstructions[req.Instruction]:
		issues = append(issues, IssueMissingTarget)
	case req.Target != "" && !common.IsHexAddress(req.Target):
		issues = append(issues, IssueInvalidTarget)
	}

	probability := baseProbability - issuePenalty*float64(len(issues)) - warningPenalty*float64(len(warnings))
	probability = math.Max(0.1, math.Min(1, probability))

	return Simulation{
		ID:          s.newID(),
		Instruction: req.Instruction,
		AgentID:     req.AgentID,
		Value:       req.Value,
		Target:      req.Target,
		Gas: GasEstimate{
			Estimated: estimated,
			Price:     gasPriceGwei,
			CostCRO:   strconv.FormatFloat(costCRO, 'f', 6, 64),
			CostUSD:   strconv.FormatFloat(costCRO*croUSD, 'f', 2, 64),
		},
		Analysis: Analysis{
			SuccessProbability: strconv.FormatFloat(probability*100, 'f', 1, 64) + "%",
			ExecutionTime:      fmt.Sprintf("%dms", execMS),
			Issues:             issues,
			Warnings:           warnings,
			Safe:               len(issues) == 0,
		},
		Simulation: Conditions{
			Timestamp:         s.now().UTC().Format(time.RFC3339),
			NetworkConditions: "normal",
			Congestion:        "low",
		},
		Recommendations: simulationRecommendations(req.Instruction, issues, warnings),
	}
}

func simulationRecommendations(instruction string, issues, warnings []string) []string {
	recs := []string{}
	if len(issues) > 0 {
		recs = append(recs, RecommendFixIssues)
	}
	if len(warnings) > 0 {
		recs = append(recs, RecommendReview)
	}
	switch instruction {
	case "swap", "borrow":
		recs = append(recs, RecommendSlippage)
	case "stake", "delegate":
		recs = append(recs, RecommendLockup)
	}
	if len(issues) == 0 && len(warnings) == 0 {
		recs = append(recs, RecommendLooksGood)
	}
	return recs
}
