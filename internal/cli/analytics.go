package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/crogentx/crogentx/pkg/sdk"
	"github.com/crogentx/crogentx/pkg/x402"
)

func newStatsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show transaction statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := g.client().Analytics.Stats(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.json {
				return writeJSON(w, stats)
			}

			keyValues(w,
				"Total transactions", fmt.Sprint(stats.TotalTransactions),
				"Successful", fmt.Sprint(stats.SuccessfulTransactions),
				"Failed", fmt.Sprint(stats.FailedTransactions),
				"Pending", fmt.Sprint(stats.PendingTransactions),
				"Success rate", fmt.Sprintf("%.2f%%", stats.SuccessRate),
				"Total volume", stats.TotalVolume+" CRO",
				"Avg transaction", stats.AvgTransactionValue+" CRO",
				"Total agents", fmt.Sprint(stats.TotalAgents),
				"Active agents", fmt.Sprint(stats.ActiveAgents),
			)

			if len(stats.MostUsedInstructions) > 0 {
				_, _ = fmt.Fprintln(w)
				t := newTable(w, "Instruction", "Count")
				for _, ic := range stats.MostUsedInstructions {
					t.AppendRow([]any{ic.Type, ic.Count})
				}
				t.Render()
			}
			return nil
		},
	}
}

func newLeaderboardCmd(g *globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show top agents by transaction count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			board, err := g.client().Analytics.Leaderboard(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.json {
				return writeJSON(w, board)
			}
			if len(board) == 0 {
				_, _ = fmt.Fprintln(w, "No agent activity")
				return nil
			}

			t := newTable(w, "Rank", "Agent", "Transactions", "Volume (CRO)")
			for i, e := range board {
				t.AppendRow([]any{i + 1, orUnknown(e.Name), e.Count, fmt.Sprintf("%.2f", e.Volume)})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of agents to show")
	return cmd
}

func newGraphCmd(g *globals) *cobra.Command {
	var (
		opts  sdk.GraphOptions
		instr string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Summarise the transaction graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.InstructionType = x402.InstructionType(instr)

			resp, err := g.client().Graph.Get(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.json {
				return writeJSON(w, resp)
			}

			m := resp.Metrics
			keyValues(w,
				"Nodes", fmt.Sprint(resp.Stats.Nodes),
				"Edges", fmt.Sprint(resp.Stats.Edges),
				"Transactions", fmt.Sprint(resp.Stats.Transactions),
				"Agents", fmt.Sprint(m.TotalAgents),
				"Wallets", fmt.Sprint(m.TotalWallets),
				"Contracts", fmt.Sprint(m.TotalContracts),
				"Avg degree", fmt.Sprintf("%.2f", m.AvgDegree),
				"Max depth", fmt.Sprint(m.MaxDepth),
				"Isolated nodes", fmt.Sprint(m.IsolatedNodes),
			)

			if len(m.EdgesByType) > 0 {
				_, _ = fmt.Fprintln(w)
				t := newTable(w, "Edge type", "Count")
				for _, et := range slices.Sorted(maps.Keys(m.EdgesByType)) {
					t.AppendRow([]any{et, m.EdgesByType[et]})
				}
				t.Render()
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.Limit, "limit", "l", 0, "Number of transactions to graph (server default when 0)")
	f.StringVarP(&opts.AgentID, "agent", "a", "", "Only transactions issued by this agent")
	f.StringVarP(&instr, "instruction", "i", "", "Only this instruction type")

	return cmd
}
