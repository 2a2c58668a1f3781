// ABOUTME: Assembles the full static tool catalog and shared helpers.
// ABOUTME: Handlers read ambient settings and classify client errors.

package toolsets

import (
	"context"
	"errors"
	"net/http"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
	"github.com/dremio-contrib/dremio-mcp/internal/dremio"
	"github.com/dremio-contrib/dremio-mcp/internal/tools"
)

// All returns every declared tool and resource definition. The
// registry filters them by mode at snapshot time; nothing here is
// conditional.
func All() []*tools.Definition {
	return []*tools.Definition{
		getFailedJobDetails(),
		runSqlQuery(),
		getNameOfJobsRecentTable(),
		getUsefulSystemTableNames(),
		getSchemaOfTable(),
		getTableOrViewLineage(),
		getDescriptionOfTableOrSchema(),
		buildUsageReport(),
		semanticSearch(),
		getRelevantMetrics(),
		getMetricSchema(),
		runPromQL(),
		hints(),
	}
}

// NewRegistry builds the registry over the full catalog.
func NewRegistry() (*tools.Registry, error) {
	return tools.NewRegistry(All())
}

func dremioClient(ctx context.Context) (*dremio.Client, error) {
	c, err := dremio.NewClient(config.FromContext(ctx))
	if err != nil {
		return nil, &tools.ExecutionError{Category: tools.CategoryUpstreamUnreachable, Err: err}
	}
	return c, nil
}

// wrapDremioErr maps client failures onto the execution error
// taxonomy so callers can tell a bad query from a dead endpoint.
func wrapDremioErr(err error) error {
	var jobErr *dremio.JobError
	if errors.As(err, &jobErr) {
		return &tools.ExecutionError{Category: tools.CategoryMalformedQuery, Err: err}
	}
	var apiErr *dremio.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &tools.ExecutionError{Category: tools.CategoryPermissionDenied, Err: err}
		case http.StatusBadRequest, http.StatusNotFound:
			return &tools.ExecutionError{Category: tools.CategoryMalformedArgument, Err: err}
		}
	}
	return &tools.ExecutionError{Category: tools.CategoryUpstreamUnreachable, Err: err}
}

func argString(args map[string]any, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

// argStringList accepts either a single string or a list of strings
// for parameters that take one or more names.
func argStringList(args map[string]any, name string) []string {
	switch v := args[name].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
