// ABOUTME: Package documentation for the static tool catalog.
// ABOUTME: Lists the tool families and their capability modes.

// Package toolsets declares the Dremio and Prometheus tool catalog.
//
// Every tool is a static tools.Definition: job history rollups, SQL
// execution with a read-only guard, catalog schema/lineage/description
// lookups, semantic search, usage reporting, and PromQL metrics
// queries, plus the dremio://hints resource. Definitions carry the
// capability modes that expose them; the registry filters by the
// active mode set at snapshot time.
package toolsets
