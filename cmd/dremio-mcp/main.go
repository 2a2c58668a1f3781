// ABOUTME: Entry point for the dremio-mcp server and its management CLI.
// ABOUTME: Wires the cobra command tree and process-level signal handling.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set by goreleaser at build time.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := &cobra.Command{
		Use:     "dremio-mcp",
		Short:   "MCP server exposing Dremio analysis tools to AI clients",
		Version: version,
		// The server writes JSON-RPC to stdout; cobra noise belongs on
		// stderr.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	root.AddCommand(
		newRunCommand(),
		newConfigCommand(),
		newToolsCommand(),
		newLoginCommand(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
