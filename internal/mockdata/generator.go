package mockdata

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/crogentx/crogentx/pkg/x402"
)

const (
	firstBlock       = 5_000_000
	blockSpacing     = 3
	successRate      = 0.92
	batchChance      = 0.20
	batchCount       = 100
	multiStepChance  = 0.15
	parentChance     = 0.10
	childWindow      = int64(3600)
	activeAgentShare = 0.90
)

// Dataset is one generated snapshot of agents and their transactions
type Dataset struct {
	Agents       []x402.Agent       `json:"agents"`
	Transactions []x402.Transaction `json:"transactions"`
	GeneratedAt  time.Time          `json:"generatedAt"`
	Seed         int64              `json:"seed"`
}

// Generator produces synthetic agents and transactions. A Generator is not
// safe for concurrent use; the output is fully determined by Config.
type Generator struct {
	cfg  Config
	rand *rand.Rand
}

// New returns a Generator seeded from cfg
func New(cfg Config) *Generator {
	cfg = cfg.withDefaults()
	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate synthesises agents first, then transactions issued by them, then
// links parent/child and batch relations. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	now := g.cfg.Now().UTC()

	agents, err := g.agents(ctx, now)
	if err != nil {
		return Dataset{}, err
	}

	txs, err := g.transactions(ctx, now, agents)
	if err != nil {
		return Dataset{}, err
	}

	g.linkParents(txs)
	linkBatches(txs)

	// Newest first, the order explorers list them in
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].BlockNumber > txs[j].BlockNumber
	})

	return Dataset{Agents: agents, Transactions: txs, GeneratedAt: now, Seed: g.cfg.Seed}, nil
}

func (g *Generator) agents(ctx context.Context, now time.Time) ([]x402.Agent, error) {
	count := g.cfg.MinAgents
	if spread := g.cfg.MaxAgents - g.cfg.MinAgents; spread > 0 {
		count += g.rand.Intn(spread + 1)
	}

	nowUnix := now.Unix()
	yearAgo := nowUnix - 365*86400
	agents := make([]x402.Agent, count)

	for i := range agents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		typ := generatedAgentTypes[g.rand.Intn(len(generatedAgentTypes))]

		primary := make([]x402.InstructionType, 0, 4)
		for _, idx := range g.rand.Perm(len(instructionWeights))[:2+g.rand.Intn(3)] {
			primary = append(primary, instructionWeights[idx].instruction)
		}

		agents[i] = x402.Agent{
			ID:                  fmt.Sprintf("agent-%d", i),
			Name:                g.agentName(typ),
			Address:             g.address(),
			Type:                typ,
			Owner:               g.address(),
			CreatedAt:           yearAgo + g.rand.Int63n(300*86400),
			TotalTransactions:   int(math.Pow(g.rand.Float64(), 2)*500) + 10,
			SuccessRate:         round(85+g.rand.Float64()*14, 2),
			TotalVolume:         strconv.FormatFloat(math.Pow(g.rand.Float64(), 1.5)*100000, 'f', 2, 64),
			AvgGasUsed:          math.Round(g.rand.Float64()*100000 + 50000),
			PrimaryInstructions: primary,
			Integrations:        append([]string(nil), Protocols[:2+g.rand.Intn(4)]...),
			IsActive:            g.rand.Float64() < activeAgentShare,
			LastActivity:        nowUnix - g.rand.Int63n(7*86400),
		}
	}
	return agents, nil
}

func (g *Generator) transactions(ctx context.Context, now time.Time, agents []x402.Agent) ([]x402.Transaction, error) {
	total := g.cfg.Transactions
	if total == 0 || len(agents) == 0 {
		return []x402.Transaction{}, nil
	}

	nowUnix := now.Unix()
	windowSecs := max(int64(g.cfg.Window/time.Second), 1)
	start := nowUnix - windowSecs

	timestamps := make([]int64, total)
	for i := range timestamps {
		timestamps[i] = start + g.rand.Int63n(windowSecs)
	}
	// Block numbers grow with time
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	txs := make([]x402.Transaction, total)
	for i := range txs {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		agent := &agents[g.rand.Intn(len(agents))]
		instr := g.instruction()
		ts := timestamps[i]
		success := g.rand.Float64() < successRate

		tx := x402.Transaction{
			ID:              fmt.Sprintf("tx-%d", i),
			TxHash:          g.hash(),
			BlockNumber:     firstBlock + int64(i)*blockSpacing,
			BlockTimestamp:  ts,
			From:            agent.Address,
			To:              g.address(),
			Value:           x402.FormatAmount(math.Pow(g.rand.Float64(), 2) * 10000),
			GasUsed:         strconv.Itoa(50000 + g.rand.Intn(200000)),
			GasPrice:        strconv.FormatFloat(10+g.rand.Float64()*50, 'f', 9, 64),
			Status:          x402.StatusSuccess,
			InstructionType: instr.instruction,
			AgentID:         agent.ID,
			AgentName:       agent.Name,
			ExecutionTime:   int64(300 + g.rand.Intn(1200)),
		}
		if !success {
			tx.Status = x402.StatusFailed
			tx.ErrorReason = errorReasons[g.rand.Intn(len(errorReasons))]
		}

		if g.rand.Float64() < batchChance {
			tx.BatchID = fmt.Sprintf("batch-%d", g.rand.Intn(batchCount))
		}

		if g.rand.Float64() < multiStepChance {
			tx.SettlementPipeline = g.pipeline(ts, success)
		}

		protocol := Protocols[g.rand.Intn(len(Protocols))]
		category := x402.CategoryFor(instr.instruction)
		tx.Metadata = &x402.Metadata{
			Description: g.description(instr.instruction, agent.Name, protocol),
			Tags:        []string{string(instr.instruction), string(agent.Type), string(category)},
			Protocol:    protocol,
			Category:    category,
			AIModel:     aiModels[g.rand.Intn(len(aiModels))],
			Confidence:  round(0.7+g.rand.Float64()*0.3, 4),
			UserIntent:  userIntents[g.rand.Intn(len(userIntents))],
		}

		// Parents need room after them for children
		if i < total-5 && g.rand.Float64() < parentChance {
			tx.ChildTxHashes = []string{}
		}

		txs[i] = tx
	}
	return txs, nil
}

// linkParents attaches 1-3 unclaimed children, issued within an hour after
// the parent, to each parent candidate.
func (g *Generator) linkParents(txs []x402.Transaction) {
	for p := range txs {
		parent := &txs[p]
		if parent.ChildTxHashes == nil {
			continue
		}

		want := 1 + g.rand.Intn(3)
		var candidates []int
		// txs are sorted by timestamp, so candidates follow the parent
		for c := p + 1; c < len(txs); c++ {
			if txs[c].BlockTimestamp >= parent.BlockTimestamp+childWindow {
				break
			}
			if txs[c].BlockTimestamp > parent.BlockTimestamp && txs[c].ParentTxHash == "" {
				candidates = append(candidates, c)
			}
		}
		g.rand.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
		if len(candidates) > want {
			candidates = candidates[:want]
		}

		for _, c := range candidates {
			child := &txs[c]
			child.ParentTxHash = parent.TxHash
			parent.ChildTxHashes = append(parent.ChildTxHashes, child.TxHash)
			parent.RelatedTransactions = append(parent.RelatedTransactions, child.ID)
			child.RelatedTransactions = append(child.RelatedTransactions, parent.ID)
		}
		if len(parent.ChildTxHashes) == 0 {
			parent.ChildTxHashes = nil
		}
	}
}

// linkBatches relates every batch member to its peers, keeping any
// parent/child relations already recorded.
func linkBatches(txs []x402.Transaction) {
	members := make(map[string][]int)
	var order []string
	for i := range txs {
		if id := txs[i].BatchID; id != "" {
			if _, seen := members[id]; !seen {
				order = append(order, id)
			}
			members[id] = append(members[id], i)
		}
	}

	for _, batch := range order {
		idx := members[batch]
		for _, i := range idx {
			for _, j := range idx {
				if i != j {
					txs[i].RelatedTransactions = appendUnique(txs[i].RelatedTransactions, txs[j].ID)
				}
			}
		}
	}
}

func (g *Generator) pipeline(ts int64, success bool) []x402.SettlementStep {
	steps := 2 + g.rand.Intn(3)
	out := make([]x402.SettlementStep, steps)
	for j := range out {
		status := x402.StepCompleted
		if j == steps-1 && !success {
			status = x402.StepFailed
		}
		out[j] = x402.SettlementStep{
			Step:      j + 1,
			Action:    pipelineActions[j%len(pipelineActions)],
			Contract:  g.address(),
			Status:    status,
			GasUsed:   strconv.Itoa(30000 + g.rand.Intn(100000)),
			Timestamp: ts + int64(j)*30,
		}
	}
	return out
}

func (g *Generator) instruction() weightedInstruction {
	r := g.rand.Intn(totalInstructionWeight)
	for _, w := range instructionWeights {
		if r < w.weight {
			return w
		}
		r -= w.weight
	}
	return instructionWeights[0]
}

func (g *Generator) agentName(typ x402.AgentType) string {
	names := agentNames[typ]
	if len(names) == 0 {
		return "Custom Agent"
	}
	name := names[g.rand.Intn(len(names))]
	if g.rand.Float64() > 0.7 {
		name = fmt.Sprintf("%s #%d", name, g.rand.Intn(999)+1)
	}
	return name
}

func (g *Generator) description(instr x402.InstructionType, agent, protocol string) string {
	templates := descriptionTemplates[instr]
	if len(templates) == 0 {
		return "Transaction executed"
	}
	tmpl := templates[g.rand.Intn(len(templates))]
	return strings.NewReplacer("{agent}", agent, "{protocol}", protocol).Replace(tmpl)
}

func (g *Generator) address() string {
	var b [common.AddressLength]byte
	g.rand.Read(b[:])
	return common.BytesToAddress(b[:]).Hex()
}

func (g *Generator) hash() string {
	var b [common.HashLength]byte
	g.rand.Read(b[:])
	return common.BytesToHash(b[:]).Hex()
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
