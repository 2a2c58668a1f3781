// ABOUTME: Registry of statically declared tools with mode filtering.
// ABOUTME: Snapshots are recomputed whole, never patched incrementally.

package tools

import (
	"fmt"
	"sort"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
)

// Registry holds every tool definition declared in the process. The
// set is fixed after construction; only visibility varies, through
// Snapshot.
type Registry struct {
	defs []*Definition
}

// NewRegistry builds a registry from the static definition list.
// Duplicate names are a programming error.
func NewRegistry(defs []*Definition) (*Registry, error) {
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("tool definition with empty name")
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate tool name %q", d.Name)
		}
		seen[d.Name] = true
	}
	sorted := make([]*Definition, len(defs))
	copy(sorted, defs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Registry{defs: sorted}, nil
}

// All returns every declared definition regardless of visibility.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Snapshot is the filtered view of the registry for one resolved
// settings scope. It is immutable once built; when the scope changes
// the caller derives a fresh snapshot rather than patching this one.
type Snapshot struct {
	tools     []*Definition
	resources []*Definition
	byName    map[string]*Definition
}

// Snapshot filters the registry down to what the given settings
// expose: a tool is visible iff its required modes intersect the
// active set, subject to the experimental and project gates.
func (r *Registry) Snapshot(s *config.Settings) *Snapshot {
	active := s.ActiveMode()
	experimental := s.ExperimentalEnabled()
	project := s.HasProject()

	snap := &Snapshot{byName: make(map[string]*Definition)}
	for _, d := range r.defs {
		if !d.Visible(active, experimental, project) {
			continue
		}
		if d.Resource {
			snap.resources = append(snap.resources, d)
		} else {
			snap.tools = append(snap.tools, d)
			snap.byName[d.Name] = d
		}
	}
	return snap
}

// Tools lists the visible callable tools, sorted by name.
func (s *Snapshot) Tools() []*Definition {
	out := make([]*Definition, len(s.tools))
	copy(out, s.tools)
	return out
}

// Resources lists the visible resource tools, sorted by name.
func (s *Snapshot) Resources() []*Definition {
	out := make([]*Definition, len(s.resources))
	copy(out, s.resources)
	return out
}

// Lookup finds a visible callable tool by name. Whether the name is
// unknown or merely hidden by the active mode, the answer is the same.
func (s *Snapshot) Lookup(name string) (*Definition, bool) {
	d, ok := s.byName[name]
	return d, ok
}

// Resource finds a visible resource tool by its URI.
func (s *Snapshot) Resource(uri string) (*Definition, bool) {
	for _, d := range s.resources {
		if d.ResourceURI == uri {
			return d, true
		}
	}
	return nil, false
}
