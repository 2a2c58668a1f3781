// ABOUTME: The run command: resolves settings and serves MCP.
// ABOUTME: Stdio by default, Streamable HTTP behind --http.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
	"github.com/dremio-contrib/dremio-mcp/internal/logging"
	"github.com/dremio-contrib/dremio-mcp/internal/mcp"
	"github.com/dremio-contrib/dremio-mcp/internal/tools"
	"github.com/dremio-contrib/dremio-mcp/internal/toolsets"
)

const banner = `
     _                    _
  __| |_ __ ___ _ __ ___ (_) ___         _ __ ___   ___ _ __
 / _' | '__/ _ \ '_ ' _ \| |/ _ \ _____| '_ ' _ \ / __| '_ \
| (_| | | |  __/ | | | | | | (_) |_____| | | | | | (__| |_) |
 \__,_|_|  \___|_| |_| |_|_|\___/      |_| |_| |_|\___| .__/
                                                      |_|
`

type runOptions struct {
	cfgPath     string
	dremioURI   string
	dremioPAT   string
	projectID   string
	modes       []string
	listTools   bool
	httpAddr    string
	logToFile   bool
	jsonLogging bool
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the MCP server",
		Long: "Starts the MCP server on stdio for spawning desktop clients, or on " +
			"Streamable HTTP with --http ADDR.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.cfgPath, "cfg", "c", "", "config file (default: the per-user location)")
	flags.StringVar(&opts.dremioURI, "dremio-uri", "", "Dremio endpoint URL or region name")
	flags.StringVar(&opts.dremioPAT, "dremio-pat", "", "Dremio personal access token (or @file reference)")
	flags.StringVar(&opts.projectID, "dremio-project-id", "", "Dremio Cloud project id")
	flags.StringSliceVarP(&opts.modes, "mode", "m", nil, "capability modes to serve (repeatable)")
	flags.BoolVar(&opts.listTools, "list-tools", false, "print the visible tools and exit")
	flags.StringVar(&opts.httpAddr, "http", "", "serve Streamable HTTP on this address instead of stdio")
	flags.BoolVar(&opts.logToFile, "log-to-file", false, "log to the per-user log file")
	flags.BoolVar(&opts.jsonLogging, "enable-json-logging", false, "emit JSON log lines")
	return cmd
}

// settingsOverrides translates the run flags into resolution overrides.
func (o *runOptions) settingsOverrides() map[string]any {
	overrides := map[string]any{}
	if o.dremioURI != "" {
		overrides["dremio.uri"] = o.dremioURI
	}
	if o.dremioPAT != "" {
		overrides["dremio.pat"] = o.dremioPAT
	}
	if o.projectID != "" {
		overrides["dremio.project_id"] = o.projectID
	}
	if len(o.modes) > 0 {
		overrides["tools.server_mode"] = joinModes(o.modes)
	}
	return overrides
}

func runServer(ctx context.Context, opts *runOptions) error {
	settings, err := config.Load(config.Options{
		Path:      opts.cfgPath,
		Overrides: opts.settingsOverrides(),
	})
	if err != nil {
		return err
	}

	// Stdio owns stdout for JSON-RPC, so its logs always go to the
	// file regardless of the flag.
	logger, err := logging.Setup(logging.Options{
		JSON:   opts.jsonLogging,
		ToFile: opts.logToFile || opts.httpAddr == "",
	})
	if err != nil {
		return err
	}

	settings, err = ensureAccessToken(ctx, settings, logger)
	if err != nil {
		return err
	}

	registry, err := toolsets.NewRegistry()
	if err != nil {
		return err
	}
	dispatcher, err := tools.NewDispatcher(registry, logger)
	if err != nil {
		return err
	}

	if opts.listTools {
		return printToolTable(os.Stdout, registry.Snapshot(settings))
	}

	metrics := mcp.NewMetrics()
	handler, err := mcp.NewHandler(mcp.HandlerConfig{
		Dispatcher:    dispatcher,
		Settings:      settings,
		PromptBuilder: toolsets.SystemPrompt,
		Logger:        logger,
		Metrics:       metrics,
		Version:       version,
	})
	if err != nil {
		return err
	}

	if opts.httpAddr != "" {
		return serveHTTP(ctx, opts.httpAddr, handler, metrics, settings, logger)
	}

	logger.Info("serving MCP on stdio",
		"mode", settings.ActiveMode().String(),
		"version", version,
	)
	stdio, err := mcp.NewStdioServer(handler, logger, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	return stdio.Serve(ctx)
}

func serveHTTP(ctx context.Context, addr string, handler *mcp.Handler, metrics *mcp.Metrics, settings *config.Settings, logger *slog.Logger) error {
	srv, err := mcp.NewServer(mcp.ServerConfig{
		Handler: handler,
		Logger:  logger,
		Metrics: metrics,
		Version: version,
	})
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	color.New(color.FgCyan).Fprint(os.Stderr, banner)
	gray := color.New(color.FgHiBlack)
	gray.Fprintf(os.Stderr, "    version: %s\n\n", version)
	green := color.New(color.FgGreen)
	green.Fprint(os.Stderr, "    ▶ ")
	fmt.Fprintf(os.Stderr, "HTTP:  %s\n", addr)
	green.Fprint(os.Stderr, "    ▶ ")
	fmt.Fprintf(os.Stderr, "Modes: %s\n\n", settings.ActiveMode().String())

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over HTTP", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
