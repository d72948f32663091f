// Package x402 defines the x402 transaction and agent record types shared by
// the crogentx API, SDK and CLI.
package x402

import (
	"math"
	"strconv"
	"strings"
)

// Status is the settlement state of a transaction
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

// Statuses lists every transaction status
var Statuses = []Status{StatusSuccess, StatusFailed, StatusPending}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusPending:
		return true
	}
	return false
}

// StepStatus is the state of one settlement pipeline step
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// SettlementStep is one step of a multi-step settlement pipeline
type SettlementStep struct {
	Step      int        `json:"step"`
	Action    string     `json:"action"`
	Contract  string     `json:"contract"`
	Status    StepStatus `json:"status"`
	GasUsed   string     `json:"gasUsed"`
	Timestamp int64      `json:"timestamp"`
}

// Metadata carries free-form descriptive fields attached by the issuing agent
type Metadata struct {
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Protocol    string   `json:"protocol,omitempty"`
	Category    Category `json:"category,omitempty"`
	AIModel     string   `json:"aiModel,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`
	UserIntent  string   `json:"userIntent,omitempty"`
}

// Transaction is a single x402 instruction recorded on chain.
// Numeric amounts are decimal strings as delivered by the facilitator.
type Transaction struct {
	ID                  string           `json:"id"`
	TxHash              string           `json:"txHash"`
	BlockNumber         int64            `json:"blockNumber"`
	BlockTimestamp      int64            `json:"blockTimestamp"`
	From                string           `json:"from"`
	To                  string           `json:"to"`
	Value               string           `json:"value"`
	GasUsed             string           `json:"gasUsed"`
	GasPrice            string           `json:"gasPrice"`
	Status              Status           `json:"status"`
	InstructionType     InstructionType  `json:"instructionType"`
	AgentID             string           `json:"agentId,omitempty"`
	AgentName           string           `json:"agentName,omitempty"`
	SettlementPipeline  []SettlementStep `json:"settlementPipeline,omitempty"`
	BatchID             string           `json:"batchId,omitempty"`
	ParentTxHash        string           `json:"parentTxHash,omitempty"`
	ChildTxHashes       []string         `json:"childTxHashes,omitempty"`
	Metadata            *Metadata        `json:"metadata,omitempty"`
	ExecutionTime       int64            `json:"executionTime,omitempty"`
	ErrorReason         string           `json:"errorReason,omitempty"`
	RelatedTransactions []string         `json:"relatedTransactions,omitempty"`
}

// ValueFloat returns the parsed value, or 0 when the field is malformed
func (t *Transaction) ValueFloat() float64 { return ParseAmount(t.Value) }

// GasUsedFloat returns the parsed gas used, or 0 when the field is malformed
func (t *Transaction) GasUsedFloat() float64 { return ParseAmount(t.GasUsed) }

// GasPriceFloat returns the parsed gas price, or 0 when the field is malformed
func (t *Transaction) GasPriceFloat() float64 { return ParseAmount(t.GasPrice) }

// IsBatched reports whether the transaction belongs to a batch
func (t *Transaction) IsBatched() bool { return t.BatchID != "" }

// IsMultiStep reports whether the transaction settled through more than one step
func (t *Transaction) IsMultiStep() bool { return len(t.SettlementPipeline) > 1 }

// Category returns the metadata category, if any
func (t *Transaction) Category() Category {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata.Category
}

// Protocol returns the metadata protocol, if any
func (t *Transaction) Protocol() string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata.Protocol
}

// Agent is an autonomous actor that originates x402 transactions
type Agent struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Address             string            `json:"address"`
	Type                AgentType         `json:"type"`
	Owner               string            `json:"owner"`
	CreatedAt           int64             `json:"createdAt"`
	TotalTransactions   int               `json:"totalTransactions"`
	SuccessRate         float64           `json:"successRate"`
	TotalVolume         string            `json:"totalVolume"`
	AvgGasUsed          float64           `json:"avgGasUsed"`
	PrimaryInstructions []InstructionType `json:"primaryInstructions"`
	Integrations        []string          `json:"integrations"`
	IsActive            bool              `json:"isActive"`
	LastActivity        int64             `json:"lastActivity"`
}

// VolumeFloat returns the parsed total volume, or 0 when malformed
func (a *Agent) VolumeFloat() float64 { return ParseAmount(a.TotalVolume) }

// ParseAmount parses a decimal string best-effort. Malformed input yields 0.
func ParseAmount(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FormatAmount renders an amount with four decimals, the precision used for values
func FormatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
