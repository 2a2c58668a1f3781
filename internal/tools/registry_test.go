// ABOUTME: Tests for tool visibility filtering and snapshot derivation.
// ABOUTME: Includes randomized mode fixtures for the intersection rule.

package tools

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
)

func testDef(name string, modes config.Mode) *Definition {
	return &Definition{
		Name:        name,
		Description: name + " description",
		Modes:       modes,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]string{"tool": name}, nil
		},
	}
}

func testSettings(t *testing.T, mode string, experimental bool, projectID string) *config.Settings {
	t.Helper()
	overrides := map[string]any{
		"dremio.uri":                 "https://x.example.com",
		"tools.server_mode":          mode,
		"dremio.enable_experimental": experimental,
	}
	if projectID != "" {
		overrides["dremio.project_id"] = projectID
	}
	s, err := config.Merge(&config.Settings{}, overrides)
	require.NoError(t, err)
	return s
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]*Definition{
		testDef("a", config.ForSelf),
		testDef("a", config.ForSelf),
	})
	assert.Error(t, err, "expected duplicate name error")
}

func TestSnapshot_IntersectionRule(t *testing.T) {
	// Randomized fixtures: visibility must equal the intersection rule
	// for every declared/active combination.
	rng := rand.New(rand.NewSource(42))
	modes := []config.Mode{config.ForSelf, config.ForPrometheus, config.ForDataPatterns}

	for trial := 0; trial < 50; trial++ {
		var defs []*Definition
		for i := 0; i < 10; i++ {
			var m config.Mode
			for _, flag := range modes {
				if rng.Intn(2) == 1 {
					m |= flag
				}
			}
			if m == 0 {
				m = modes[rng.Intn(len(modes))]
			}
			defs = append(defs, testDef(fmt.Sprintf("tool-%d-%d", trial, i), m))
		}
		reg, err := NewRegistry(defs)
		require.NoError(t, err)

		active := modes[rng.Intn(len(modes))]
		if rng.Intn(2) == 1 {
			active |= modes[rng.Intn(len(modes))]
		}
		snap := reg.Snapshot(testSettings(t, active.String(), false, ""))

		visible := make(map[string]bool)
		for _, d := range snap.Tools() {
			visible[d.Name] = true
		}
		for _, d := range defs {
			want := d.Modes.Intersects(active)
			assert.Equal(t, want, visible[d.Name],
				"tool %s modes=%v active=%v", d.Name, d.Modes, active)
		}
	}
}

func TestSnapshot_ExperimentalRequiresBothKeys(t *testing.T) {
	reg, err := NewRegistry([]*Definition{
		testDef("stable", config.ForSelf),
		testDef("preview", config.ForSelf|config.Experimental),
	})
	require.NoError(t, err)

	// Mode bit alone is not enough.
	snap := reg.Snapshot(testSettings(t, "FOR_SELF,EXPERIMENTAL", false, ""))
	_, ok := snap.Lookup("preview")
	assert.False(t, ok, "experimental tool visible without enable_experimental")
	_, ok = snap.Lookup("stable")
	assert.True(t, ok, "stable tool should remain visible")

	// Flag alone is not enough either when the mode bit is absent from
	// the tool's required set intersection... but preview requires
	// FOR_SELF too, so FOR_SELF + flag exposes it.
	snap = reg.Snapshot(testSettings(t, "FOR_SELF", true, ""))
	_, ok = snap.Lookup("preview")
	assert.True(t, ok, "experimental tool hidden despite both keys")
}

func TestSnapshot_ProjectGate(t *testing.T) {
	reg, err := NewRegistry([]*Definition{
		{Name: "usage", Modes: config.ForSelf, RequiresProject: true, Handler: noopHandler},
		{Name: "jobs", Modes: config.ForSelf, Handler: noopHandler},
	})
	require.NoError(t, err)

	snap := reg.Snapshot(testSettings(t, "FOR_SELF", false, ""))
	_, ok := snap.Lookup("usage")
	assert.False(t, ok, "project-bound tool visible without project id")

	snap = reg.Snapshot(testSettings(t, "FOR_SELF", false, "proj-1"))
	_, ok = snap.Lookup("usage")
	assert.True(t, ok, "project-bound tool hidden with project id set")
}

func TestSnapshot_ResourcesSeparated(t *testing.T) {
	reg, err := NewRegistry([]*Definition{
		{Name: "hints", Modes: config.ForSelf, Resource: true, ResourceURI: "dremio://hints", Handler: noopHandler},
		{Name: "jobs", Modes: config.ForSelf, Handler: noopHandler},
	})
	require.NoError(t, err)
	snap := reg.Snapshot(testSettings(t, "FOR_SELF", false, ""))

	_, ok := snap.Lookup("hints")
	assert.False(t, ok, "resource tool must not be callable via tools lookup")
	_, ok = snap.Resource("dremio://hints")
	assert.True(t, ok, "resource not found by uri")
	assert.Len(t, snap.Resources(), 1)
}

func noopHandler(ctx context.Context, args map[string]any) (any, error) {
	return nil, nil
}
