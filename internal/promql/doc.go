// Package promql is a minimal client for the Prometheus HTTP query
// API: range queries with relative start times, metric label schemas,
// and label-value enumeration.
package promql
