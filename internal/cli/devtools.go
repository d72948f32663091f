package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crogentx/crogentx/pkg/sdk"
)

func newSimulateCmd(g *globals) *cobra.Command {
	var req sdk.SimulateRequest

	cmd := &cobra.Command{
		Use:     "simulate",
		Short:   "Simulate an x402 transaction",
		Example: `  crogentx simulate -i payment -a agent-1 -v 250 -t 0xabc...`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sim, err := g.client().Transactions.Simulate(cmd.Context(), req)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.json {
				return writeJSON(w, sim)
			}

			_, _ = fmt.Fprintln(w, "Simulation")
			keyValues(w,
				"Instruction", sim.Instruction,
				"Agent", sim.AgentID,
				"Value", sim.Value+" CRO",
			)
			_, _ = fmt.Fprintln(w)

			_, _ = fmt.Fprintln(w, "Gas")
			keyValues(w,
				"Estimated", fmt.Sprint(sim.Gas.Estimated),
				"Price", fmt.Sprintf("%d Gwei", sim.Gas.Price),
				"Total cost", fmt.Sprintf("%s CRO ($%s)", sim.Gas.CostCRO, sim.Gas.CostUSD),
			)
			_, _ = fmt.Fprintln(w)

			_, _ = fmt.Fprintln(w, "Analysis")
			keyValues(w,
				"Success probability", sim.Analysis.SuccessProbability,
				"Execution time", sim.Analysis.ExecutionTime,
				"Safe to execute", yesNo(sim.Analysis.Safe),
			)
			_, _ = fmt.Fprintln(w)

			section(w, "Issues", sim.Analysis.Issues)
			section(w, "Warnings", sim.Analysis.Warnings)
			section(w, "Recommendations", sim.Recommendations)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&req.Instruction, "instruction", "i", "", "Instruction type (payment, swap, ...)")
	f.StringVarP(&req.AgentID, "agent", "a", "", "Agent ID")
	f.StringVarP(&req.Value, "value", "v", "", "Transaction value in CRO")
	f.StringVarP(&req.Target, "target", "t", "", "Target address")
	_ = cmd.MarkFlagRequired("instruction")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newDebugCmd(g *globals) *cobra.Command {
	var hash string

	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Debug a recorded transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := g.client().Transactions.Debug(cmd.Context(), hash)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.json {
				return writeJSON(w, res)
			}

			d := res.Debug
			keyValues(w,
				"Transaction", hash,
				"Status", string(d.Status),
				"Explorer", d.ExplorerURL,
			)
			_, _ = fmt.Fprintln(w)

			issues := make([]string, len(d.Issues))
			for i, is := range d.Issues {
				issues[i] = fmt.Sprintf("[%s] %s", strings.ToUpper(string(is.Severity)), is.Message)
			}
			section(w, "Issues", issues)

			if len(d.Trace) > 0 {
				t := newTable(w, "Step", "Status", "Details")
				for _, step := range d.Trace {
					t.AppendRow([]any{step.Step, step.Status, step.Details})
				}
				t.Render()
				_, _ = fmt.Fprintln(w)
			}

			_, _ = fmt.Fprintln(w, "Gas")
			keyValues(w,
				"Used", fmt.Sprintf("%.0f", d.Gas.Used),
				"Efficiency", d.Gas.Efficiency,
			)
			_, _ = fmt.Fprintln(w)

			section(w, "Gas suggestions", d.Gas.Suggestions)
			section(w, "Recommendations", d.Recommendations)
			return nil
		},
	}

	cmd.Flags().StringVarP(&hash, "tx", "t", "", "Transaction hash")
	_ = cmd.MarkFlagRequired("tx")

	return cmd
}
