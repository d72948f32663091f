package devtools

import (
	"fmt"
	"time"

	"github.com/crogentx/crogentx/pkg/x402"
)

// Severity grades a debug issue
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

const (
	poorGasThreshold = 500_000
	fairGasThreshold = 300_000
	highGasPrice     = 10_000
)

// Network identifies the chain a deployment points at
type Network struct {
	Name        string `json:"name"`
	ChainID     int64  `json:"chainId"`
	ExplorerURL string `json:"explorerUrl"`
}

var (
	Testnet = Network{Name: "testnet", ChainID: 10143, ExplorerURL: "https://testnet-explorer.monad.xyz"}
	Mainnet = Network{Name: "mainnet", ChainID: 41454, ExplorerURL: "https://explorer.monad.xyz"}
)

// NetworkFor returns the named network, defaulting to testnet
func NetworkFor(name string) Network {
	if name == Mainnet.Name {
		return Mainnet
	}
	return Testnet
}

// TxURL links a transaction on the network's explorer
func (n Network) TxURL(hash string) string {
	return n.ExplorerURL + "/tx/" + hash
}

// Issue is one finding about a transaction
type Issue struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// TraceStep is one reconstructed execution step
type TraceStep struct {
	Step    string `json:"step"`
	Status  string `json:"status"`
	Details string `json:"details"`
}

// GasAnalysis grades gas usage
type GasAnalysis struct {
	Used        float64  `json:"used"`
	Price       float64  `json:"price"`
	Total       float64  `json:"total"`
	Efficiency  string   `json:"efficiency"`
	Suggestions []string `json:"suggestions"`
}

// ValueAnalysis flags suspicious amounts
type ValueAnalysis struct {
	Amount          float64              `json:"amount"`
	InstructionType x402.InstructionType `json:"instructionType"`
	Warnings        []string             `json:"warnings"`
}

// DebugReport is the analysis of one recorded transaction
type DebugReport struct {
	Status          x402.Status   `json:"status"`
	Issues          []Issue       `json:"issues"`
	Trace           []TraceStep   `json:"trace"`
	Gas             GasAnalysis   `json:"gas"`
	Value           ValueAnalysis `json:"value"`
	Recommendations []string      `json:"recommendations"`
	ExplorerURL     string        `json:"explorerUrl"`
	Timestamp       string        `json:"timestamp"`
}

// Debugger reconstructs what happened to a recorded transaction
type Debugger struct {
	network Network
	now     func() time.Time
}

// NewDebugger creates a debugger linking to network's explorer
func NewDebugger(network Network, now func() time.Time) *Debugger {
	if now == nil {
		now = time.Now
	}
	return &Debugger{network: network, now: now}
}

// Debug analyses tx
func (d *Debugger) Debug(tx x402.Transaction) DebugReport {
	issues := []Issue{}
	trace := []TraceStep{}

	switch tx.Status {
	case x402.StatusFailed:
		issues = append(issues, Issue{SeverityCritical, "Transaction failed - check error details below"})
		if tx.GasUsedFloat() > poorGasThreshold {
			issues = append(issues, Issue{SeverityWarning, "High gas usage may indicate inefficient execution"})
		}
		reason := tx.ErrorReason
		if reason == "" {
			reason = "Execution reverted"
		}
		trace = append(trace,
			TraceStep{"1. Transaction submitted", "success", fmt.Sprintf("Submitted to network at block %d", tx.BlockNumber)},
			TraceStep{"2. Gas estimation", "success", "Estimated gas: " + tx.GasUsed},
			TraceStep{"3. Execution", "failed", reason},
		)
	case x402.StatusPending:
		issues = append(issues, Issue{SeverityInfo, "Transaction is pending confirmation"})
		trace = append(trace,
			TraceStep{"1. Transaction submitted", "success", "Waiting for network confirmation"},
			TraceStep{"2. Mempool", "pending", "Transaction in mempool"},
		)
	default:
		trace = append(trace,
			TraceStep{"1. Transaction submitted", "success", fmt.Sprintf("Block %d", tx.BlockNumber)},
			TraceStep{"2. Gas used", "success", tx.GasUsed + " gas"},
			TraceStep{"3. Execution", "success", "Transaction executed successfully"},
		)
	}

	for i, step := range tx.SettlementPipeline {
		trace = append(trace, TraceStep{
			Step:    fmt.Sprintf("%d. Settlement: %s", len(trace)+1, step.Action),
			Status:  string(step.Status),
			Details: fmt.Sprintf("Step %d of %d via %s (%s gas)", i+1, len(tx.SettlementPipeline), step.Contract, step.GasUsed),
		})
	}

	return DebugReport{
		Status:          tx.Status,
		Issues:          issues,
		Trace:           trace,
		Gas:             analyzeGas(&tx),
		Value:           analyzeValue(&tx),
		Recommendations: debugRecommendations(&tx, issues),
		ExplorerURL:     d.network.TxURL(tx.TxHash),
		Timestamp:       d.now().UTC().Format(time.RFC3339),
	}
}

func analyzeGas(tx *x402.Transaction) GasAnalysis {
	used, price := tx.GasUsedFloat(), tx.GasPriceFloat()
	g := GasAnalysis{Used: used, Price: price, Total: used * price, Efficiency: "optimal", Suggestions: []string{}}

	switch {
	case used > poorGasThreshold:
		g.Efficiency = "poor"
		g.Suggestions = append(g.Suggestions, "Consider breaking transaction into smaller operations")
	case used > fairGasThreshold:
		g.Efficiency = "fair"
		g.Suggestions = append(g.Suggestions, "Gas usage is moderate - optimization possible")
	}
	if price > highGasPrice {
		g.Suggestions = append(g.Suggestions, "High gas price - consider waiting for lower network congestion")
	}
	return g
}

func analyzeValue(tx *x402.Transaction) ValueAnalysis {
	amount := tx.ValueFloat()
	v := ValueAnalysis{Amount: amount, InstructionType: tx.InstructionType, Warnings: []string{}}

	if amount == 0 && tx.InstructionType == x402.InstructionPayment {
		v.Warnings = append(v.Warnings, "Zero value transfer - verify if intentional")
	}
	if amount > largeValue {
		v.Warnings = append(v.Warnings, "Large value transfer - double check recipient")
	}
	return v
}

func debugRecommendations(tx *x402.Transaction, issues []Issue) []string {
	recs := []string{}
	switch tx.Status {
	case x402.StatusFailed:
		recs = append(recs,
			"Review transaction parameters and try again",
			"Check agent balance and permissions",
			"Verify target contract is correct",
		)
	case x402.StatusPending:
		recs = append(recs,
			"Wait for network confirmation (typically 1-2 blocks)",
			"Check transaction status on Monad Explorer",
		)
	}
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			recs = append(recs, "Address critical issues before retrying")
			break
		}
	}
	return recs
}
