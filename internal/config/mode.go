// ABOUTME: Capability mode flags controlling which tools are exposed.
// ABOUTME: Parses symbolic names, comma lists, or raw bit integers.

package config

import (
	"strconv"
	"strings"
)

// Mode is a set of capability flags. A tool is only visible when its
// required modes intersect the active set.
type Mode uint

const (
	// ForSelf exposes tools that introspect the Dremio cluster itself:
	// jobs, usage, system tables.
	ForSelf Mode = 1 << iota
	// ForPrometheus exposes tools that query a Prometheus-compatible
	// metrics stack set up alongside Dremio.
	ForPrometheus
	// ForDataPatterns exposes tools for discovering data patterns
	// through the semantic layer.
	ForDataPatterns
	// Experimental marks tools that additionally require the
	// dremio.enable_experimental flag before they become visible.
	Experimental
)

// allModes is the union of every defined flag.
const allModes = ForSelf | ForPrometheus | ForDataPatterns | Experimental

var modeNames = []struct {
	mode Mode
	name string
}{
	{ForSelf, "FOR_SELF"},
	{ForPrometheus, "FOR_PROMETHEUS"},
	{ForDataPatterns, "FOR_DATA_PATTERNS"},
	{Experimental, "EXPERIMENTAL"},
}

// ModeNames returns the symbolic names of all defined modes.
func ModeNames() []string {
	names := make([]string, len(modeNames))
	for i, m := range modeNames {
		names[i] = m.name
	}
	return names
}

// String renders the set as a comma-separated list of symbolic names.
func (m Mode) String() string {
	var parts []string
	for _, entry := range modeNames {
		if m&entry.mode != 0 {
			parts = append(parts, entry.name)
		}
	}
	return strings.Join(parts, ",")
}

// Has reports whether every flag in other is present in m.
func (m Mode) Has(other Mode) bool { return m&other == other }

// Intersects reports whether the two sets share any flag.
func (m Mode) Intersects(other Mode) bool { return m&other != 0 }

// ParseMode normalizes a mode specification to a flag set. The spec may
// be a single symbolic name, a comma-separated list of names, or the
// decimal form of a raw bit combination. Unknown names and out-of-range
// bits are validation errors naming the offending token.
func ParseMode(spec string) (Mode, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, &ValidationError{Violations: []Violation{
			{Field: "tools.server_mode", Message: "mode specification is empty"},
		}}
	}

	if n, err := strconv.ParseUint(spec, 10, 32); err == nil {
		m := Mode(n)
		if m == 0 || m&^allModes != 0 {
			return 0, &ValidationError{Violations: []Violation{
				{Field: "tools.server_mode", Message: "invalid mode bits " + spec},
			}}
		}
		return m, nil
	}

	var vs violations
	var m Mode
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if flag, ok := modeByName(tok); ok {
			m |= flag
			continue
		}
		vs.add("tools.server_mode", "unknown mode %q", tok)
	}
	if err := vs.err(); err != nil {
		return 0, err
	}
	return m, nil
}

func modeByName(name string) (Mode, bool) {
	upper := strings.ToUpper(name)
	for _, entry := range modeNames {
		if entry.name == upper {
			return entry.mode, true
		}
	}
	return 0, false
}
