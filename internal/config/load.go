// ABOUTME: Layered settings resolution: defaults, file, env, overrides.
// ABOUTME: Built on viper; highest-precedence source wins per field.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// appName anchors the conventional config location:
// $XDG_CONFIG_HOME/dremio-mcp/config.yaml.
const appName = "dremio-mcp"

// envBindings maps each settings field path to its environment variable.
// The name is the upper-cased path with segments joined by "_". Field
// names that themselves contain "_" keep it, so the mapping is resolved
// by this table rather than by splitting the variable name.
var envBindings = map[string]string{
	"dremio.uri":                 "DREMIO_URI",
	"dremio.pat":                 "DREMIO_PAT",
	"dremio.project_id":          "DREMIO_PROJECT_ID",
	"dremio.enable_experimental": "DREMIO_ENABLE_EXPERIMENTAL",
	"dremio.allow_dml":           "DREMIO_ALLOW_DML",
	"dremio.oauth2.client_id":    "DREMIO_OAUTH2_CLIENT_ID",
	"tools.server_mode":          "TOOLS_SERVER_MODE",
	"prometheus.uri":             "PROMETHEUS_URI",
	"prometheus.token":           "PROMETHEUS_TOKEN",
}

// Options controls how a settings tree is resolved.
type Options struct {
	// Path is an explicit config file. Empty means the conventional
	// location, where a missing file is not an error.
	Path string
	// Overrides are dotted-path programmatic overrides; they outrank
	// every other source.
	Overrides map[string]any
}

// DefaultPath returns the conventional per-user config file location.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", appName, "config.yaml")
	}
	return filepath.Join(home, ".config", appName, "config.yaml")
}

// Load resolves one validated settings tree. Precedence, highest first:
// programmatic overrides, environment variables, config file, built-in
// defaults. The returned tree holds only literal values; secrets and
// symbolic URIs are resolved during validation.
func Load(opts Options) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("tools.server_mode", ForSelf.String())

	path := opts.Path
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	} else {
		path = ""
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	for key, value := range opts.Overrides {
		if value == nil {
			continue
		}
		v.Set(key, value)
	}

	var s Settings
	if err := v.Unmarshal(&s, strictDecode); err != nil {
		return nil, decodeError(err)
	}
	s.sourcePath = path

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// strictDecode rejects unknown fields and lets env-sourced strings fill
// typed fields (bools, ints).
func strictDecode(dc *mapstructure.DecoderConfig) {
	dc.ErrorUnused = true
	dc.WeaklyTypedInput = true
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(timeLayout),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

const timeLayout = "2006-01-02T15:04:05Z07:00" // RFC 3339

// decodeError translates a mapstructure error bundle into a
// ValidationError carrying one violation per underlying failure.
func decodeError(err error) error {
	var merr *mapstructure.Error
	if !errors.As(err, &merr) {
		return &ValidationError{Violations: []Violation{{Field: "config", Message: err.Error()}}}
	}
	vs := make([]Violation, len(merr.Errors))
	for i, msg := range merr.Errors {
		vs[i] = Violation{Field: "config", Message: msg}
	}
	return &ValidationError{Violations: vs}
}
