// ABOUTME: Context-scoped settings: ambient tree plus derived overrides.
// ABOUTME: Each unit of work sees its own tree; exit restores by scope.

package config

import (
	"context"
	"fmt"
	"strconv"
)

type settingsKey struct{}

// WithSettings installs a resolved settings tree as the ambient
// settings for work derived from ctx.
func WithSettings(ctx context.Context, s *Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

// FromContext returns the ambient settings, or nil when none were
// installed. Readers must treat the returned tree as read-only.
func FromContext(ctx context.Context) *Settings {
	s, _ := ctx.Value(settingsKey{}).(*Settings)
	return s
}

// WithOverrides derives a new context whose ambient settings are
// merge(current, overrides). The current tree is untouched, so exiting
// the scope (dropping the derived context) restores it exactly, on
// every exit path including failure. Scopes nest; the innermost wins on
// a given field path. Concurrent units of work each derive from their
// own context and cannot observe one another's overrides.
func WithOverrides(ctx context.Context, overrides map[string]any) (context.Context, error) {
	base := FromContext(ctx)
	if base == nil {
		return nil, fmt.Errorf("no settings installed in context")
	}
	derived, err := Merge(base, overrides)
	if err != nil {
		return nil, err
	}
	return WithSettings(ctx, derived), nil
}

// RunWith executes fn inside an override scope. A failed merge leaves
// the prior settings intact and fn never runs.
func RunWith(ctx context.Context, overrides map[string]any, fn func(context.Context) error) error {
	scoped, err := WithOverrides(ctx, overrides)
	if err != nil {
		return err
	}
	return fn(scoped)
}

// Merge produces a new validated tree from base plus dotted-path
// overrides. Nil override values are ignored so callers can pass
// optional flags straight through. Unknown paths are violations; base
// is never modified.
func Merge(base *Settings, overrides map[string]any) (*Settings, error) {
	s := base.Clone()
	var vs violations
	for path, value := range overrides {
		if value == nil {
			continue
		}
		if err := s.set(path, value); err != nil {
			vs.addErr(path, err)
		}
	}
	if err := vs.err(); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// set applies one dotted-path override. The path table is static: the
// settings schema is known at compile time and unknown paths fail.
func (s *Settings) set(path string, value any) error {
	switch path {
	case "dremio.uri":
		return setString(&s.dremioSection().URI, value)
	case "dremio.pat":
		return setString(&s.dremioSection().PAT, value)
	case "dremio.project_id":
		return setString(&s.dremioSection().ProjectID, value)
	case "dremio.enable_experimental":
		return setBool(&s.dremioSection().EnableExperimental, value)
	case "dremio.allow_dml":
		return setBool(&s.dremioSection().AllowDML, value)
	case "dremio.oauth2.client_id":
		return setString(&s.oauth2Section().ClientID, value)
	case "dremio.oauth2.refresh_token":
		return setString(&s.oauth2Section().RefreshToken, value)
	case "dremio.oauth2.user_identifier":
		return setString(&s.oauth2Section().UserIdentifier, value)
	case "tools.server_mode":
		return s.setServerMode(value)
	case "prometheus.uri":
		return setString(&s.prometheusSection().URI, value)
	case "prometheus.token":
		return setString(&s.prometheusSection().Token, value)
	default:
		return fmt.Errorf("unknown settings path")
	}
}

func (s *Settings) dremioSection() *Dremio {
	if s.Dremio == nil {
		s.Dremio = &Dremio{}
	}
	return s.Dremio
}

func (s *Settings) oauth2Section() *OAuth2 {
	d := s.dremioSection()
	if d.OAuth2 == nil {
		d.OAuth2 = &OAuth2{}
	}
	return d.OAuth2
}

func (s *Settings) prometheusSection() *Prometheus {
	if s.Prometheus == nil {
		s.Prometheus = &Prometheus{}
	}
	return s.Prometheus
}

func (s *Settings) setServerMode(value any) error {
	switch v := value.(type) {
	case Mode:
		s.Tools.ServerMode = v.String()
	case string:
		s.Tools.ServerMode = v
	case int:
		s.Tools.ServerMode = strconv.Itoa(v)
	default:
		return fmt.Errorf("expected mode name, list, or integer, got %T", value)
	}
	return nil
}

func setString(dst *string, value any) error {
	v, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	*dst = v
	return nil
}

func setBool(dst *bool, value any) error {
	switch v := value.(type) {
	case bool:
		*dst = v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected bool, got %q", v)
		}
		*dst = b
	default:
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}
