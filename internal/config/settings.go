// ABOUTME: The settings tree: connection, tool, and integration sections.
// ABOUTME: Validation resolves secrets and symbolic URIs into literals.

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Settings is the resolved configuration tree. Once Load (or Merge)
// returns one, it is immutable: every field holds a literal value with
// secrets and symbolic URIs already resolved. Per-request variation
// goes through WithOverrides, never in-place mutation.
type Settings struct {
	Dremio     *Dremio     `mapstructure:"dremio" yaml:"dremio,omitempty"`
	Tools      Tools       `mapstructure:"tools" yaml:"tools"`
	Prometheus *Prometheus `mapstructure:"prometheus" yaml:"prometheus,omitempty"`
	LangChain  *LangChain  `mapstructure:"langchain" yaml:"langchain,omitempty"`
	BeeAI      *BeeAI      `mapstructure:"beeai" yaml:"beeai,omitempty"`

	// sourcePath is the config file the tree was loaded from, empty when
	// only defaults, env, and overrides contributed.
	sourcePath string
}

// Dremio holds the connection settings for the data platform.
type Dremio struct {
	URI                string  `mapstructure:"uri" yaml:"uri"`
	PAT                string  `mapstructure:"pat" yaml:"pat,omitempty"`
	ProjectID          string  `mapstructure:"project_id" yaml:"project_id,omitempty"`
	EnableExperimental bool    `mapstructure:"enable_experimental" yaml:"enable_experimental,omitempty"`
	AllowDML           bool    `mapstructure:"allow_dml" yaml:"allow_dml,omitempty"`
	OAuth2             *OAuth2 `mapstructure:"oauth2" yaml:"oauth2,omitempty"`
}

// OAuth2 holds the OAuth login state for Dremio Cloud.
type OAuth2 struct {
	ClientID       string     `mapstructure:"client_id" yaml:"client_id"`
	RefreshToken   string     `mapstructure:"refresh_token" yaml:"refresh_token,omitempty"`
	UserIdentifier string     `mapstructure:"user_identifier" yaml:"user_identifier,omitempty"`
	Expiry         *time.Time `mapstructure:"expiry" yaml:"expiry,omitempty"`
}

// HasExpired reports whether the recorded access token expiry has passed.
func (o *OAuth2) HasExpired() bool {
	return o.Expiry != nil && o.Expiry.Before(time.Now())
}

// Tools holds the capability mode specification.
type Tools struct {
	// ServerMode is the raw specification as configured: a symbolic
	// name, a comma list, or a bit-combination integer. Validation
	// normalizes it to the canonical comma-list form.
	ServerMode string `mapstructure:"server_mode" yaml:"server_mode"`

	mode Mode
}

// Prometheus holds the optional metrics-integration settings.
type Prometheus struct {
	URI   string `mapstructure:"uri" yaml:"uri"`
	Token string `mapstructure:"token" yaml:"token"`
}

// LangChain holds the optional LangChain integration section. The
// server never runs the framework; the section is carried so config
// files shared with agent tooling load and round-trip intact.
type LangChain struct {
	LLM    string  `mapstructure:"llm" yaml:"llm,omitempty"`
	OpenAI *OpenAI `mapstructure:"openai" yaml:"openai,omitempty"`
	Ollama *Ollama `mapstructure:"ollama" yaml:"ollama,omitempty"`
}

// BeeAI holds the optional BeeAI agent integration section, carried
// for the same round-trip reason as LangChain.
type BeeAI struct {
	MCPServer         *MCPServerSpec `mapstructure:"mcp_server" yaml:"mcp_server,omitempty"`
	SlidingMemorySize int            `mapstructure:"sliding_memory_size" yaml:"sliding_memory_size,omitempty"`
	Anthropic         *Anthropic     `mapstructure:"anthropic" yaml:"anthropic,omitempty"`
	OpenAI            *OpenAI        `mapstructure:"openai" yaml:"openai,omitempty"`
	Ollama            *Ollama        `mapstructure:"ollama" yaml:"ollama,omitempty"`
}

// OpenAI is an LLM-provider stanza of the integration sections.
type OpenAI struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model  string `mapstructure:"model" yaml:"model,omitempty"`
	Org    string `mapstructure:"org" yaml:"org,omitempty"`
}

// Ollama is an LLM-provider stanza of the integration sections.
type Ollama struct {
	Model string `mapstructure:"model" yaml:"model,omitempty"`
}

// Anthropic is an LLM-provider stanza of the integration sections.
type Anthropic struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	ChatModel string `mapstructure:"chat_model" yaml:"chat_model,omitempty"`
}

// MCPServerSpec is a client-side spawn stanza for an MCP server.
type MCPServerSpec struct {
	Command string            `mapstructure:"command" yaml:"command"`
	Args    []string          `mapstructure:"args" yaml:"args,omitempty"`
	Env     map[string]string `mapstructure:"env" yaml:"env,omitempty"`
}

// Symbolic names for Dremio Cloud regions, resolved during validation.
// The mapping is closed: any other symbolic-looking value must parse as
// a URL or validation fails.
var cloudURIs = map[string]string{
	"prod":     "https://api.dremio.cloud",
	"prodemea": "https://api.eu.dremio.cloud",
}

// CloudRegions returns the recognized symbolic URI names.
func CloudRegions() []string {
	return []string{"prod", "prodemea"}
}

// SourcePath returns the config file this tree was loaded from, if any.
func (s *Settings) SourcePath() string { return s.sourcePath }

// DeclaredMode is the mode set exactly as configured, including an
// Experimental flag that may not be in effect.
func (s *Settings) DeclaredMode() Mode { return s.Tools.mode }

// ActiveMode is the effective mode set: Experimental is stripped unless
// dremio.enable_experimental is also true. Both keys must be turned for
// experimental tools to exist.
func (s *Settings) ActiveMode() Mode {
	m := s.Tools.mode
	if m&Experimental != 0 && !s.ExperimentalEnabled() {
		m &^= Experimental
	}
	return m
}

// ExperimentalEnabled reports the explicit experimental-enable flag.
func (s *Settings) ExperimentalEnabled() bool {
	return s.Dremio != nil && s.Dremio.EnableExperimental
}

// HasProject reports whether a project id is configured.
func (s *Settings) HasProject() bool {
	return s.Dremio != nil && s.Dremio.ProjectID != ""
}

// Clone returns a deep copy of the settings tree.
func (s *Settings) Clone() *Settings {
	out := *s
	if s.Dremio != nil {
		d := *s.Dremio
		if s.Dremio.OAuth2 != nil {
			o := *s.Dremio.OAuth2
			if s.Dremio.OAuth2.Expiry != nil {
				t := *s.Dremio.OAuth2.Expiry
				o.Expiry = &t
			}
			d.OAuth2 = &o
		}
		out.Dremio = &d
	}
	if s.Prometheus != nil {
		p := *s.Prometheus
		out.Prometheus = &p
	}
	if s.LangChain != nil {
		lc := *s.LangChain
		lc.OpenAI = cloneOpenAI(s.LangChain.OpenAI)
		lc.Ollama = cloneOllama(s.LangChain.Ollama)
		out.LangChain = &lc
	}
	if s.BeeAI != nil {
		b := *s.BeeAI
		if s.BeeAI.MCPServer != nil {
			m := *s.BeeAI.MCPServer
			m.Args = append([]string(nil), s.BeeAI.MCPServer.Args...)
			if s.BeeAI.MCPServer.Env != nil {
				m.Env = make(map[string]string, len(s.BeeAI.MCPServer.Env))
				for k, v := range s.BeeAI.MCPServer.Env {
					m.Env[k] = v
				}
			}
			b.MCPServer = &m
		}
		if s.BeeAI.Anthropic != nil {
			a := *s.BeeAI.Anthropic
			b.Anthropic = &a
		}
		b.OpenAI = cloneOpenAI(s.BeeAI.OpenAI)
		b.Ollama = cloneOllama(s.BeeAI.Ollama)
		out.BeeAI = &b
	}
	return &out
}

func cloneOpenAI(o *OpenAI) *OpenAI {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

func cloneOllama(o *Ollama) *Ollama {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

// validate type-checks the tree, resolves secret references and
// symbolic URIs, and normalizes the mode specification. Every violation
// is collected so the caller sees all of them at once.
func (s *Settings) validate() error {
	var vs violations

	mode, err := ParseMode(defaultString(s.Tools.ServerMode, "FOR_SELF"))
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			vs.list = append(vs.list, verr.Violations...)
		} else {
			vs.add("tools.server_mode", "%v", err)
		}
	} else {
		s.Tools.mode = mode
		s.Tools.ServerMode = mode.String()
	}

	if s.Dremio != nil {
		if s.Dremio.URI == "" {
			vs.add("dremio.uri", "required")
		} else if resolved, err := resolveURI("dremio.uri", s.Dremio.URI); err != nil {
			vs.addErr("dremio.uri", err)
		} else {
			s.Dremio.URI = resolved
		}

		if s.Dremio.PAT != "" {
			if literal, err := ResolveSecret("dremio.pat", s.Dremio.PAT); err != nil {
				vs.addErr("dremio.pat", err)
			} else {
				s.Dremio.PAT = literal
			}
		}

		if s.Dremio.OAuth2 != nil && s.Dremio.OAuth2.ClientID == "" {
			vs.add("dremio.oauth2.client_id", "required")
		}
	}

	if s.LangChain != nil {
		switch strings.ToLower(s.LangChain.LLM) {
		case "", "openai", "ollama":
		default:
			vs.add("langchain.llm", "unknown provider %q (expected openai or ollama)", s.LangChain.LLM)
		}
		resolveAPIKey(&vs, "langchain.openai.api_key", s.LangChain.OpenAI)
	}
	if s.BeeAI != nil {
		resolveAPIKey(&vs, "beeai.openai.api_key", s.BeeAI.OpenAI)
		if s.BeeAI.Anthropic != nil && s.BeeAI.Anthropic.APIKey != "" {
			if literal, err := ResolveSecret("beeai.anthropic.api_key", s.BeeAI.Anthropic.APIKey); err != nil {
				vs.addErr("beeai.anthropic.api_key", err)
			} else {
				s.BeeAI.Anthropic.APIKey = literal
			}
		}
	}

	if s.Prometheus != nil {
		if s.Prometheus.URI == "" {
			vs.add("prometheus.uri", "required")
		} else if resolved, err := resolveURI("prometheus.uri", s.Prometheus.URI); err != nil {
			vs.addErr("prometheus.uri", err)
		} else {
			s.Prometheus.URI = resolved
		}

		if s.Prometheus.Token == "" {
			vs.add("prometheus.token", "required")
		} else if literal, err := ResolveSecret("prometheus.token", s.Prometheus.Token); err != nil {
			vs.addErr("prometheus.token", err)
		} else {
			s.Prometheus.Token = literal
		}
	}

	return vs.err()
}

// resolveURI maps a symbolic cloud region name to its literal URL, or
// validates a literal URL, trimming any trailing slash. Symbolic names
// outside the closed mapping fail rather than passing through.
func resolveURI(field, value string) (string, error) {
	if literal, ok := cloudURIs[strings.ToLower(value)]; ok {
		return literal, nil
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%q is neither a known region (%s) nor a valid URL",
			value, strings.Join(CloudRegions(), ", "))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return strings.TrimRight(value, "/"), nil
}

func resolveAPIKey(vs *violations, field string, o *OpenAI) {
	if o == nil || o.APIKey == "" {
		return
	}
	if literal, err := ResolveSecret(field, o.APIKey); err != nil {
		vs.addErr(field, err)
	} else {
		o.APIKey = literal
	}
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
