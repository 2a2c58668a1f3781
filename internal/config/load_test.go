// ABOUTME: Tests for layered settings resolution and validation.
// ABOUTME: Covers precedence, env mapping, secrets, and file handling.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileOnly(t *testing.T) {
	path := writeConfig(t, `
dremio:
  uri: https://dremio.example.com/
  pat: literal-token
  project_id: proj-1
tools:
  server_mode: FOR_SELF,FOR_DATA_PATTERNS
`)

	s, err := Load(Options{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "https://dremio.example.com", s.Dremio.URI, "trailing slash must be trimmed")
	assert.Equal(t, "literal-token", s.Dremio.PAT)
	assert.Equal(t, ForSelf|ForDataPatterns, s.ActiveMode())
	assert.Equal(t, path, s.SourcePath())
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, err := Load(Options{})
	require.NoError(t, err)
	assert.Nil(t, s.Dremio)
	assert.Equal(t, ForSelf, s.ActiveMode())
	assert.Empty(t, s.SourcePath())
}

func TestLoad_ExplicitMissingFileIsError(t *testing.T) {
	_, err := Load(Options{Path: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err, "a missing explicit config file must fail")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
dremio:
  uri: https://from-file.example.com
`)
	t.Setenv("DREMIO_URI", "https://from-env.example.com")

	s, err := Load(Options{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "https://from-env.example.com", s.Dremio.URI)
}

func TestLoad_OverridesOutrankEnv(t *testing.T) {
	path := writeConfig(t, `
dremio:
  uri: https://from-file.example.com
`)
	t.Setenv("DREMIO_URI", "https://from-env.example.com")

	s, err := Load(Options{
		Path:      path,
		Overrides: map[string]any{"dremio.uri": "https://from-override.example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://from-override.example.com", s.Dremio.URI)
}

func TestLoad_EnvAloneMaterializesSection(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DREMIO_URI", "prod")
	t.Setenv("DREMIO_ALLOW_DML", "true")

	s, err := Load(Options{})
	require.NoError(t, err)
	require.NotNil(t, s.Dremio)
	assert.Equal(t, "https://api.dremio.cloud", s.Dremio.URI, "symbolic uri must resolve")
	assert.True(t, s.Dremio.AllowDML, "allow_dml must coerce from the env string")
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, `
dremio:
  uri: prod
  no_such_field: 1
`)

	_, err := Load(Options{Path: path})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "no_such_field")
}

func TestLoad_IntegrationSectionsAccepted(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(secretFile, []byte("sk-abc\n"), 0o600))

	path := writeConfig(t, `
dremio:
  uri: prod
  pat: tok
langchain:
  llm: openai
  openai:
    api_key: "@`+secretFile+`"
    model: gpt-4o
beeai:
  sliding_memory_size: 5
  mcp_server:
    command: /usr/local/bin/dremio-mcp
    args: [run]
    env:
      DREMIO_URI: prod
  ollama:
    model: llama3.1
`)

	s, err := Load(Options{Path: path})
	require.NoError(t, err, "agent-framework sections must load, not be rejected")
	require.NotNil(t, s.LangChain)
	assert.Equal(t, "openai", s.LangChain.LLM)
	assert.Equal(t, "sk-abc", s.LangChain.OpenAI.APIKey, "api_key secret reference must resolve")
	assert.Equal(t, "gpt-4o", s.LangChain.OpenAI.Model)
	require.NotNil(t, s.BeeAI)
	assert.Equal(t, 5, s.BeeAI.SlidingMemorySize)
	require.NotNil(t, s.BeeAI.MCPServer)
	assert.Equal(t, []string{"run"}, s.BeeAI.MCPServer.Args)
	assert.Equal(t, "llama3.1", s.BeeAI.Ollama.Model)
}

func TestLoad_IntegrationUnknownProviderRejected(t *testing.T) {
	path := writeConfig(t, `
dremio:
  uri: prod
langchain:
  llm: bedrock
`)

	_, err := Load(Options{Path: path})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, "langchain.llm", verr.Violations[0].Field)
}

func TestLoad_AllViolationsEnumerated(t *testing.T) {
	path := writeConfig(t, `
dremio:
  uri: ""
tools:
  server_mode: FOR_NOBODY
prometheus:
  uri: ""
  token: ""
`)

	_, err := Load(Options{Path: path})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make(map[string]bool)
	for _, v := range verr.Violations {
		fields[v.Field] = true
	}
	for _, want := range []string{"dremio.uri", "tools.server_mode", "prometheus.uri", "prometheus.token"} {
		assert.True(t, fields[want], "missing violation for %s; got %v", want, verr.Violations)
	}
}

func TestLoad_SecretReference(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(secretFile, []byte("s3cret\n"), 0o600))
	path := writeConfig(t, `
dremio:
  uri: prod
  pat: "@`+secretFile+`"
`)

	s, err := Load(Options{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", s.Dremio.PAT, "secret must be resolved and trimmed")
}

func TestLoad_SecretUnreadable(t *testing.T) {
	path := writeConfig(t, `
dremio:
  uri: prod
  pat: "@/definitely/not/here"
`)

	_, err := Load(Options{Path: path})
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "dremio.pat", rerr.Field)
	assert.Contains(t, rerr.Path, "/definitely/not/here")
}

func TestResolveSecret_Idempotent(t *testing.T) {
	got, err := ResolveSecret("dremio.pat", "plain-value")
	require.NoError(t, err)
	assert.Equal(t, "plain-value", got)

	again, err := ResolveSecret("dremio.pat", got)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestResolveSecret_RereadsOnRotation(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(secretFile, []byte("first"), 0o600))

	ref := "@" + secretFile
	got, err := ResolveSecret("dremio.pat", ref)
	require.NoError(t, err)
	require.Equal(t, "first", got)

	require.NoError(t, os.WriteFile(secretFile, []byte("second\n"), 0o600))
	got, err = ResolveSecret("dremio.pat", ref)
	require.NoError(t, err)
	assert.Equal(t, "second", got, "rotated secret must be re-read")
}

func TestResolveURI_UnknownSymbolicFails(t *testing.T) {
	path := writeConfig(t, `
dremio:
  uri: prodapac
`)
	_, err := Load(Options{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prodapac")
}