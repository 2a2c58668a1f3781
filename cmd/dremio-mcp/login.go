// ABOUTME: OAuth login command and access-token bootstrap for run.
// ABOUTME: Persists refresh state back to the config file, never tokens to logs.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
	"github.com/dremio-contrib/dremio-mcp/internal/oauth"
)

func newLoginCommand() *cobra.Command {
	var cfgPath, clientID string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Dremio Cloud via OAuth and store the refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]any{}
			if clientID != "" {
				overrides["dremio.oauth2.client_id"] = clientID
			}
			settings, err := config.Load(config.Options{Path: cfgPath, Overrides: overrides})
			if err != nil {
				return err
			}
			if settings.Dremio == nil || settings.Dremio.OAuth2 == nil {
				return errors.New("no oauth2 client configured; set dremio.oauth2.client_id or pass --client-id")
			}

			flow, err := oauth.NewFlow(settings.Dremio.URI, settings.Dremio.OAuth2.ClientID)
			if err != nil {
				return err
			}
			token, err := flow.Login(cmd.Context())
			if err != nil {
				return err
			}
			expiry, err := token.Expiry()
			if err != nil {
				return err
			}

			path := settings.SourcePath()
			if path == "" {
				path = cfgPath
			}
			if err := persistOAuthState(path, settings.Dremio.OAuth2.ClientID, token, expiry); err != nil {
				return err
			}

			green := color.New(color.FgGreen)
			green.Fprint(os.Stderr, "✓ ")
			fmt.Fprintf(os.Stderr, "Logged in as %s (token valid until %s)\n",
				token.UserIdentifier, expiry.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "cfg", "c", "", "config file (default: the per-user location)")
	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client id")
	return cmd
}

// persistOAuthState updates the oauth2 section of the config file in
// place. The file is edited raw so secret references and symbolic URIs
// stay exactly as the user wrote them.
func persistOAuthState(path, clientID string, token *oauth.Token, expiry time.Time) error {
	if path == "" {
		path = config.DefaultPath()
	}

	var stored config.Settings
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("parsing config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if stored.Dremio == nil {
		stored.Dremio = &config.Dremio{}
	}
	if stored.Dremio.OAuth2 == nil {
		stored.Dremio.OAuth2 = &config.OAuth2{}
	}
	o := stored.Dremio.OAuth2
	o.ClientID = clientID
	if token.RefreshToken != "" {
		o.RefreshToken = token.RefreshToken
	}
	o.UserIdentifier = token.UserIdentifier
	o.Expiry = &expiry

	return config.Write(path, &stored)
}

// ensureAccessToken fills in the Dremio access token when no PAT is
// configured: a stored refresh token is exchanged silently, otherwise
// the interactive browser login runs. With neither oauth2 section nor
// PAT the settings pass through and the API client reports the
// missing credential.
func ensureAccessToken(ctx context.Context, settings *config.Settings, logger *slog.Logger) (*config.Settings, error) {
	d := settings.Dremio
	if d == nil || d.PAT != "" || d.OAuth2 == nil {
		return settings, nil
	}

	flow, err := oauth.NewFlow(d.URI, d.OAuth2.ClientID)
	if err != nil {
		return nil, err
	}

	var token *oauth.Token
	if d.OAuth2.RefreshToken != "" {
		token, err = flow.Refresh(ctx, d.OAuth2.RefreshToken)
		if err != nil {
			logger.Warn("token refresh failed, falling back to interactive login", "error", err)
		}
	}
	if token == nil {
		token, err = flow.Login(ctx)
		if err != nil {
			return nil, err
		}
	}
	expiry, err := token.Expiry()
	if err != nil {
		return nil, err
	}
	logger.Info("obtained Dremio access token",
		"user", token.UserIdentifier,
		"expiry", expiry.Format(time.RFC3339),
	)

	if path := settings.SourcePath(); path != "" {
		if err := persistOAuthState(path, d.OAuth2.ClientID, token, expiry); err != nil {
			logger.Warn("could not persist oauth state", "error", err)
		}
	}

	overrides := map[string]any{
		"dremio.pat":                    token.AccessToken,
		"dremio.oauth2.user_identifier": token.UserIdentifier,
	}
	if token.RefreshToken != "" {
		overrides["dremio.oauth2.refresh_token"] = token.RefreshToken
	}
	merged, err := config.Merge(settings, overrides)
	if err != nil {
		return nil, err
	}
	merged.Dremio.OAuth2.Expiry = &expiry
	return merged, nil
}
