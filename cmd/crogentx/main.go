// Command crogentx is a command-line client for the crogentx API.
//
// Usage:
//
//	crogentx transactions --limit 10
//	crogentx agents --type trading_bot
//	crogentx simulate --instruction payment --value 100 --agent agent-1
//	crogentx debug --tx 0xabc...
package main

import (
	"os"

	"github.com/crogentx/crogentx/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
