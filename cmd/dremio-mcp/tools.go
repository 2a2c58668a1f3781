// ABOUTME: The tools command: list the catalog and invoke a tool directly.
// ABOUTME: Direct invocation is the debugging path next to a real MCP client.

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
	"github.com/dremio-contrib/dremio-mcp/internal/tools"
	"github.com/dremio-contrib/dremio-mcp/internal/toolsets"
)

func newToolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List and invoke the Dremio analysis tools",
	}
	cmd.AddCommand(newToolsListCommand(), newToolsInvokeCommand())
	return cmd
}

func joinModes(modes []string) string {
	return strings.Join(modes, ",")
}

func newToolsListCommand() *cobra.Command {
	var cfgPath string
	var modes []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the tools visible under the given modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]any{}
			if len(modes) > 0 {
				overrides["tools.server_mode"] = joinModes(modes)
			}
			settings, err := config.Load(config.Options{Path: cfgPath, Overrides: overrides})
			if err != nil {
				return err
			}
			registry, err := toolsets.NewRegistry()
			if err != nil {
				return err
			}
			return printToolTable(cmd.OutOrStdout(), registry.Snapshot(settings))
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "cfg", "c", "", "config file (default: the per-user location)")
	cmd.Flags().StringSliceVarP(&modes, "mode", "m", nil, "capability modes (repeatable)")
	return cmd
}

func printToolTable(w io.Writer, snap *tools.Snapshot) error {
	bold := color.New(color.Bold)
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n", bold.Sprint("NAME"), bold.Sprint("MODES"), bold.Sprint("DESCRIPTION"))
	for _, def := range snap.Tools() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Name, def.Modes.String(), firstLine(def.Description))
	}
	for _, def := range snap.Resources() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Name+" (resource)", def.Modes.String(), firstLine(def.Description))
	}
	return tw.Flush()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func newToolsInvokeCommand() *cobra.Command {
	var cfgPath, toolName string
	cmd := &cobra.Command{
		Use:   "invoke -t NAME [arg=value ...]",
		Short: "Invoke one tool and print its JSON result",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(config.Options{Path: cfgPath})
			if err != nil {
				return err
			}

			raw := map[string]string{}
			for _, arg := range args {
				key, value, found := strings.Cut(arg, "=")
				if !found || key == "" {
					return fmt.Errorf("argument %q is not of the form name=value", arg)
				}
				raw[key] = value
			}

			registry, err := toolsets.NewRegistry()
			if err != nil {
				return err
			}
			dispatcher, err := tools.NewDispatcher(registry, slog.Default())
			if err != nil {
				return err
			}

			ctx := config.WithSettings(cmd.Context(), settings)
			snap := registry.Snapshot(settings)
			def, ok := snap.Lookup(toolName)
			if !ok {
				return fmt.Errorf("tool %q is not visible under mode %s", toolName, settings.ActiveMode())
			}
			coerced, err := tools.CoerceArgs(def, raw)
			if err != nil {
				return printInvokeError(cmd.ErrOrStderr(), err)
			}

			result, err := dispatcher.Dispatch(ctx, toolName, coerced)
			if err != nil {
				return printInvokeError(cmd.ErrOrStderr(), err)
			}
			out, err := result.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "cfg", "c", "", "config file (default: the per-user location)")
	cmd.Flags().StringVarP(&toolName, "tool", "t", "", "tool to invoke")
	cmd.MarkFlagRequired("tool")
	return cmd
}

// printInvokeError renders dispatcher failures with their structure:
// every violation field for validation errors, the category for
// execution errors.
func printInvokeError(w io.Writer, err error) error {
	red := color.New(color.FgRed)

	var verr *config.ValidationError
	if errors.As(err, &verr) {
		red.Fprintln(w, "invalid arguments:")
		for _, v := range verr.Violations {
			fmt.Fprintf(w, "  %s: %s\n", v.Field, v.Message)
		}
		return errors.New("invocation failed")
	}

	var eerr *tools.ExecutionError
	if errors.As(err, &eerr) {
		red.Fprintf(w, "%s: ", eerr.Category)
		fmt.Fprintln(w, eerr.Err.Error())
		return errors.New("invocation failed")
	}
	return err
}
