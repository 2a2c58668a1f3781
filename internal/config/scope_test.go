// ABOUTME: Tests for context-scoped setting overrides.
// ABOUTME: Covers nesting, restoration, failure, and concurrent isolation.

package config

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSettings(t *testing.T) *Settings {
	t.Helper()
	s := &Settings{
		Dremio: &Dremio{URI: "https://x.example.com", PAT: "tok"},
		Tools:  Tools{ServerMode: "FOR_SELF"},
	}
	require.NoError(t, s.validate())
	return s
}

func TestWithOverrides_Nesting(t *testing.T) {
	ctx := WithSettings(context.Background(), baseSettings(t))

	outer, err := WithOverrides(ctx, map[string]any{"dremio.uri": "https://y.example.com"})
	require.NoError(t, err)
	inner, err := WithOverrides(outer, map[string]any{"tools.server_mode": "FOR_DATA_PATTERNS"})
	require.NoError(t, err)

	// Innermost: both overrides visible, outer's uri inherited.
	s := FromContext(inner)
	assert.Equal(t, "https://y.example.com", s.Dremio.URI)
	assert.Equal(t, ForDataPatterns, s.ActiveMode())

	// Exit inner: outer's uri still overridden, mode back to baseline.
	s = FromContext(outer)
	assert.Equal(t, "https://y.example.com", s.Dremio.URI)
	assert.Equal(t, ForSelf, s.ActiveMode())

	// Exit outer: exact baseline restored.
	s = FromContext(ctx)
	assert.Equal(t, "https://x.example.com", s.Dremio.URI)
	assert.Equal(t, ForSelf, s.ActiveMode())
}

func TestWithOverrides_FailureLeavesBaseIntact(t *testing.T) {
	base := baseSettings(t)
	ctx := WithSettings(context.Background(), base)

	_, err := WithOverrides(ctx, map[string]any{"dremio.uri": "not a url"})
	require.Error(t, err)
	assert.Same(t, base, FromContext(ctx), "base settings replaced after failed override")
	assert.Equal(t, "https://x.example.com", base.Dremio.URI, "base mutated")
}

func TestWithOverrides_UnknownPath(t *testing.T) {
	ctx := WithSettings(context.Background(), baseSettings(t))
	_, err := WithOverrides(ctx, map[string]any{"dremio.no_such": "x"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestWithOverrides_NilValuesIgnored(t *testing.T) {
	ctx := WithSettings(context.Background(), baseSettings(t))
	scoped, err := WithOverrides(ctx, map[string]any{"dremio.uri": nil, "dremio.project_id": "p1"})
	require.NoError(t, err)
	s := FromContext(scoped)
	assert.Equal(t, "https://x.example.com", s.Dremio.URI)
	assert.Equal(t, "p1", s.Dremio.ProjectID)
}

func TestWithOverrides_ConcurrentIsolation(t *testing.T) {
	ctx := WithSettings(context.Background(), baseSettings(t))

	uris := []string{
		"https://a.example.com",
		"https://b.example.com",
		"https://c.example.com",
		"https://d.example.com",
	}

	var wg sync.WaitGroup
	for _, uri := range uris {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := RunWith(ctx, map[string]any{"dremio.uri": uri}, func(scoped context.Context) error {
				for range 100 {
					if got := FromContext(scoped).Dremio.URI; got != uri {
						t.Errorf("scope leak: got %q, want %q", got, uri)
						return nil
					}
				}
				return nil
			})
			assert.NoError(t, err, "RunWith(%s)", uri)
		}()
	}
	wg.Wait()

	assert.Equal(t, "https://x.example.com", FromContext(ctx).Dremio.URI, "baseline disturbed")
}

func TestRunWith_ErrorPropagates(t *testing.T) {
	ctx := WithSettings(context.Background(), baseSettings(t))
	sentinel := errors.New("boom")
	err := RunWith(ctx, map[string]any{"dremio.project_id": "p"}, func(context.Context) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Empty(t, FromContext(ctx).Dremio.ProjectID, "override leaked after failing unit of work")
}
