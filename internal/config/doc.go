// Package config resolves the layered settings tree for dremio-mcp.
//
// # Overview
//
// Settings come from four sources, highest precedence first:
//
//  1. Programmatic overrides (Options.Overrides, WithOverrides)
//  2. Environment variables (DREMIO_URI, TOOLS_SERVER_MODE, ...)
//  3. A YAML config file (explicit path, or the conventional location)
//  4. Built-in field defaults
//
// Load produces one immutable, fully validated tree: secret references
// ("@/path/to/file") are replaced by the file's content, symbolic cloud
// region names (prod, prodemea) by their literal URLs, and the mode
// specification by its canonical form. Downstream code never sees an
// unresolved value.
//
// # Configuration File
//
// The conventional location is $XDG_CONFIG_HOME/dremio-mcp/config.yaml
// (falling back to ~/.config). A missing file there is fine; a missing
// explicitly requested file is an error.
//
//	dremio:
//	  uri: prod                  # or a literal https:// URL
//	  pat: "@~/.dremio/token"    # literal value or @file reference
//	  project_id: 01234567-...
//	tools:
//	  server_mode: FOR_SELF,FOR_DATA_PATTERNS
//
// # Environment Variables
//
// A field path maps to the upper-cased, underscore-joined variable
// name: dremio.uri becomes DREMIO_URI. Paths whose field names contain
// an underscore (dremio.project_id -> DREMIO_PROJECT_ID) are resolved
// through a fixed binding table, not by splitting on "_".
//
// # Scoped Overrides
//
// The resolved tree travels on the context. WithOverrides derives a new
// tree for one unit of work; dropping the derived context restores the
// previous scope on every exit path. Concurrent requests each carry
// their own scope.
//
// # Capability Modes
//
// Mode is a bit set (FOR_SELF, FOR_PROMETHEUS, FOR_DATA_PATTERNS,
// EXPERIMENTAL) parsed from a name, a comma list, or an integer.
// EXPERIMENTAL only takes effect when dremio.enable_experimental is
// also true.
package config
