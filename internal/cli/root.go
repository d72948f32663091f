// Package cli implements the crogentx command-line client.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/crogentx/crogentx/internal/config"
	"github.com/crogentx/crogentx/pkg/sdk"
)

// Version is reported by --version (set at build time).
var Version = "0.1.0"

// globals are the persistent flags every subcommand reads
type globals struct {
	apiURL  string
	timeout time.Duration
	json    bool
}

func (g *globals) client() *sdk.Client {
	return sdk.New(g.apiURL, sdk.WithTimeout(g.timeout))
}

// NewRootCmd creates the root command with every subcommand attached.
// Flag defaults come from CROGENTX_API_URL and CROGENTX_TIMEOUT.
func NewRootCmd() *cobra.Command {
	cfg := config.LoadClient()
	g := &globals{}

	root := &cobra.Command{
		Use:   "crogentx",
		Short: "Query and debug x402 agent transactions",
		Long: `crogentx talks to a crogentx API server to list x402 transactions and
agents, simulate and debug instructions, and summarise activity.

Set CROGENTX_API_URL to point at a server other than localhost:3000.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.apiURL, "api-url", cfg.APIURL, "API base URL")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", cfg.Timeout, "Request timeout")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "Output as JSON")

	root.AddCommand(newTransactionsCmd(g))
	root.AddCommand(newAgentsCmd(g))
	root.AddCommand(newSimulateCmd(g))
	root.AddCommand(newDebugCmd(g))
	root.AddCommand(newStatsCmd(g))
	root.AddCommand(newLeaderboardCmd(g))
	root.AddCommand(newGraphCmd(g))

	return root
}

// Execute runs the CLI with args and returns the process exit code
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
