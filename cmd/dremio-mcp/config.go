// ABOUTME: The config command: inspect and create client configurations.
// ABOUTME: Writes dremio-mcp YAML, Claude Desktop JSON, and Codex TOML.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
)

// serverEntryName is the key desktop clients know this server by.
const serverEntryName = "Dremio"

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create configuration files",
	}
	cmd.AddCommand(newConfigListCommand(), newConfigCreateCommand())
	return cmd
}

// clientConfigPath locates the named client's configuration file.
func clientConfigPath(configType string) (string, error) {
	switch configType {
	case "dremio-mcp":
		return config.DefaultPath(), nil
	case "claude":
		switch runtime.GOOS {
		case "darwin":
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
		case "windows":
			return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json"), nil
		default:
			dir := os.Getenv("XDG_CONFIG_HOME")
			if dir == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return "", err
				}
				dir = filepath.Join(home, ".config")
			}
			return filepath.Join(dir, "Claude", "claude_desktop_config.json"), nil
		}
	case "codex":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".codex", "config.toml"), nil
	default:
		return "", fmt.Errorf("unknown config type %q (expected dremio-mcp, claude, or codex)", configType)
	}
}

func newConfigListCommand() *cobra.Command {
	var showFilename bool
	var configType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := clientConfigPath(configType)
			if err != nil {
				return err
			}
			if showFilename {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("no %s config at %s", configType, path)
				}
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showFilename, "show-filename", false, "print the file path before the contents")
	cmd.Flags().StringVar(&configType, "type", "dremio-mcp", "which config to show: dremio-mcp, claude, or codex")
	return cmd
}

func newConfigCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a configuration file",
	}
	cmd.AddCommand(
		newCreateServerConfigCommand(),
		newCreateClaudeConfigCommand(),
		newCreateCodexConfigCommand(),
	)
	return cmd
}

func newCreateServerConfigCommand() *cobra.Command {
	var (
		uri, pat, projectID, oauthClientID string
		modes                              []string
		enableSearch, dryRun               bool
	)
	cmd := &cobra.Command{
		Use:   "dremio-mcp",
		Short: "Write the server's own YAML config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Values go to the file exactly as given: "@file" secret
			// references and region names are resolved at load time,
			// never at rest.
			settings := &config.Settings{
				Dremio: &config.Dremio{
					URI:                uri,
					PAT:                pat,
					ProjectID:          projectID,
					EnableExperimental: enableSearch,
				},
			}
			if len(modes) > 0 {
				settings.Tools.ServerMode = joinModes(modes)
			}
			if oauthClientID != "" {
				settings.Dremio.OAuth2 = &config.OAuth2{ClientID: oauthClientID}
			}

			if dryRun {
				rendered, err := config.Render(settings)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), rendered)
				return nil
			}
			path := config.DefaultPath()
			if err := config.Write(path, settings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&uri, "uri", "", "Dremio endpoint URL or region name (prod, prodemea)")
	flags.StringVar(&pat, "pat", "", "personal access token, or @file reference")
	flags.StringVar(&projectID, "project-id", "", "Dremio Cloud project id")
	flags.StringSliceVarP(&modes, "mode", "m", nil, "capability modes to serve (repeatable)")
	flags.BoolVar(&enableSearch, "enable-search", false, "enable experimental tools such as semantic search")
	flags.StringVar(&oauthClientID, "oauth-client-id", "", "OAuth2 client id for browser login")
	flags.BoolVar(&dryRun, "dry-run", false, "print the config instead of writing it")
	cmd.MarkFlagRequired("uri")
	return cmd
}

// serverEntry is the spawn stanza desktop clients need.
func serverEntry() (map[string]any, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating executable: %w", err)
	}
	return map[string]any{
		"command": exe,
		"args":    []string{"run"},
	}, nil
}

func newCreateClaudeConfigCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "claude",
		Short: "Register this server in the Claude Desktop config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := clientConfigPath("claude")
			if err != nil {
				return err
			}

			cfg := map[string]any{}
			if data, err := os.ReadFile(path); err == nil {
				if err := json.Unmarshal(data, &cfg); err != nil {
					return fmt.Errorf("parsing %s: %w", path, err)
				}
			} else if !os.IsNotExist(err) {
				return err
			}

			servers, _ := cfg["mcpServers"].(map[string]any)
			if servers == nil {
				servers = map[string]any{}
			}
			entry, err := serverEntry()
			if err != nil {
				return err
			}
			servers[serverEntryName] = entry
			cfg["mcpServers"] = servers

			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the config instead of writing it")
	return cmd
}

func newCreateCodexConfigCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "codex",
		Short: "Register this server in the Codex config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := clientConfigPath("codex")
			if err != nil {
				return err
			}

			cfg := map[string]any{}
			if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("parsing %s: %w", path, err)
			}

			servers, _ := cfg["mcp_servers"].(map[string]any)
			if servers == nil {
				servers = map[string]any{}
			}
			entry, err := serverEntry()
			if err != nil {
				return err
			}
			servers["dremio"] = entry
			cfg["mcp_servers"] = servers

			var buf bytes.Buffer
			if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
				return err
			}
			if dryRun {
				fmt.Fprint(cmd.OutOrStdout(), buf.String())
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the config instead of writing it")
	return cmd
}
