// ABOUTME: Package documentation for the Dremio REST client.
// ABOUTME: Covers SQL jobs, catalog, search, and usage surfaces.

// Package dremio is a thin client for the Dremio REST API.
//
// The client covers exactly the surfaces the tool catalog needs: SQL
// job submission with polling and paginated result collection, catalog
// lookups (schema, lineage graph, collaboration wiki and tags),
// semantic search, and consumption usage. Cloud deployments with a
// project id route through /v0/projects/{id}; software deployments use
// /api/v3.
//
// Clients are built per invocation from the ambient resolved settings
// so context-scoped setting overrides take effect without any shared
// state.
package dremio
