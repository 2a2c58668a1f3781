// Package tools provides the capability-gated tool registry and the
// invocation dispatcher.
//
// # Overview
//
// Tool definitions are plain data records declared once at startup:
// name, description, parameter schema, required capability modes, and
// an execution handler. The Registry never changes after construction;
// what varies is the Snapshot, the filtered view derived from one
// resolved settings scope.
//
// # Visibility
//
// A tool is visible when its required modes intersect the active mode
// set ("any of"). Two extra gates apply: tools tagged EXPERIMENTAL
// need dremio.enable_experimental, and project-bound tools need a
// configured project id. Snapshots are recomputed whole whenever the
// settings scope changes.
//
// # Dispatch
//
// The Dispatcher looks a name up in the current snapshot, validates
// arguments against the tool's compiled JSON Schema (collecting every
// violation), executes the handler with the ambient settings on the
// context, and classifies failures into causal categories. An unknown
// name and a mode-hidden name produce the same ErrToolNotFound, so
// callers cannot probe for disabled capabilities. The dispatcher owns
// no retries, caching, or cross-invocation state.
package tools
