package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crogentx/crogentx/pkg/sdk"
	"github.com/crogentx/crogentx/pkg/x402"
)

func newTransactionsCmd(g *globals) *cobra.Command {
	var (
		opts               sdk.TransactionListOptions
		status, instr      string
		minValue, maxValue float64
	)

	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Query x402 transactions",
		Example: `  crogentx transactions --limit 20 --status failed
  crogentx tx -a agent-3 -i swap --min-value 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Status = x402.Status(status)
			opts.InstructionType = x402.InstructionType(instr)
			if cmd.Flags().Changed("min-value") {
				opts.MinValue = &minValue
			}
			if cmd.Flags().Changed("max-value") {
				opts.MaxValue = &maxValue
			}

			page, err := g.client().Transactions.List(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.json {
				return writeJSON(w, page)
			}

			_, _ = fmt.Fprintf(w, "Found %d transactions (of %d)\n", len(page.Data), page.Pagination.Total)
			if len(page.Data) == 0 {
				return nil
			}
			t := newTable(w, "#", "Hash", "Status", "Type", "Value (CRO)", "Agent", "Gas")
			for i, tx := range page.Data {
				t.AppendRow([]any{i + 1, shortHash(tx.TxHash), tx.Status, tx.InstructionType, tx.Value, orUnknown(tx.AgentName), tx.GasUsed})
			}
			t.Render()
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.Limit, "limit", "l", 10, "Number of transactions to fetch")
	f.StringVarP(&status, "status", "s", "", "Filter by status (success|failed|pending)")
	f.StringVarP(&opts.AgentID, "agent", "a", "", "Filter by agent ID")
	f.StringVarP(&instr, "instruction", "i", "", "Filter by instruction type")
	f.Float64Var(&minValue, "min-value", 0, "Minimum transaction value")
	f.Float64Var(&maxValue, "max-value", 0, "Maximum transaction value")

	_ = cmd.RegisterFlagCompletionFunc("status", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		out := make([]string, len(x402.Statuses))
		for i, s := range x402.Statuses {
			out[i] = string(s)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func newAgentsCmd(g *globals) *cobra.Command {
	var (
		opts      sdk.AgentListOptions
		agentType string
	)

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Query AI agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Type = x402.AgentType(agentType)

			page, err := g.client().Agents.List(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.json {
				return writeJSON(w, page)
			}

			_, _ = fmt.Fprintf(w, "Found %d agents (of %d)\n", len(page.Data), page.Total)
			if len(page.Data) == 0 {
				return nil
			}
			t := newTable(w, "#", "Name", "Address", "Type", "Txs", "Success %", "Volume (CRO)", "Integrations", "Active")
			for i, a := range page.Data {
				t.AppendRow([]any{i + 1, a.Name, a.Address, a.Type, a.TotalTransactions, fmt.Sprintf("%.1f", a.SuccessRate), a.TotalVolume, joinOrNone(a.Integrations), yesNo(a.IsActive)})
			}
			t.Render()
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.Limit, "limit", "l", 10, "Number of agents to fetch")
	f.StringVarP(&agentType, "type", "t", "", "Filter by agent type")
	f.BoolVar(&opts.ActiveOnly, "active", false, "Only show active agents")

	return cmd
}
