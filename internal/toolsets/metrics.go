// ABOUTME: Prometheus-mode tools: the curated metric catalog, label
// ABOUTME: schemas, and PromQL range queries over the last 7 days.

package toolsets

import (
	"context"
	"errors"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
	"github.com/dremio-contrib/dremio-mcp/internal/promql"
	"github.com/dremio-contrib/dremio-mcp/internal/tools"
)

func promClient(ctx context.Context) (*promql.Client, error) {
	c, err := promql.NewClient(config.FromContext(ctx))
	if err != nil {
		return nil, &tools.ExecutionError{Category: tools.CategoryUpstreamUnreachable, Err: err}
	}
	return c, nil
}

// wrapPromErr distinguishes a rejected query from an unreachable
// metrics endpoint.
func wrapPromErr(err error) error {
	var qerr *promql.QueryError
	if errors.As(err, &qerr) {
		return &tools.ExecutionError{Category: tools.CategoryMalformedQuery, Err: err}
	}
	return &tools.ExecutionError{Category: tools.CategoryUpstreamUnreachable, Err: err}
}

// relevantMetrics is the curated set of metrics worth starting a
// Dremio cluster investigation from.
var relevantMetrics = map[string]string{
	"jobs_total":                    "Total number of jobs executed in the Dremio cluster",
	"jobs_failed_total":             "Total number of failed jobs executed in the Dremio cluster",
	"jobs_command_pool_queue_size":  "Total number of jobs queued before planning",
	"jvm_gc_pause_seconds":          "Indicates how long the JVM was paused for garbage collection, and also is a rubric to know if the system is in use",
	"memory_heap_usage":             "Indicates the amount of memory used by the JVM",
	"memory_heap_committed":         "Indicates the amount of memory committed by the JVM",
	"dremio_engine_executors":       "Number of executors running in the Dremio engine. It correlates to dremio_engine_replica_running using the engine_id label",
	"dremio_engine_replica_running": "Number of running replicas in the Dremio engine. It correlates to dremio_engine_executors using the engine_id label",
}

func getRelevantMetrics() *tools.Definition {
	return &tools.Definition{
		Name: "GetRelevantMetrics",
		Description: "Get the names and descriptions of the relevant prometheus metrics for " +
			"the Dremio cluster. Metrics that share the same value for the label " +
			"'daas_dremio_com_coordinator_project_id' belong to the same project.",
		Modes: config.ForPrometheus,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return relevantMetrics, nil
		},
	}
}

func getMetricSchema() *tools.Definition {
	return &tools.Definition{
		Name: "GetMetricSchema",
		Description: "Given the name of a metric, returns all the labels you can expect to " +
			"see for that metric, with a sample value for each.",
		Modes: config.ForPrometheus,
		Params: []tools.Param{
			{Name: "metric", Type: "string", Description: "The name of the metric", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			client, err := promClient(ctx)
			if err != nil {
				return nil, err
			}
			schema, err := client.MetricSchema(ctx, argString(args, "metric"))
			if err != nil {
				return nil, wrapPromErr(err)
			}
			return schema, nil
		},
	}
}

func runPromQL() *tools.Definition {
	return &tools.Definition{
		Name:        "RunPromQL",
		Description: "Runs a prometheus query over the last 7 days and returns the results.",
		Modes:       config.ForPrometheus,
		Params: []tools.Param{
			{Name: "promql_query", Type: "string", Description: "The PromQL query to run", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			client, err := promClient(ctx)
			if err != nil {
				return nil, err
			}
			series, err := client.QueryRange(ctx, argString(args, "promql_query"), "-7d", "1h")
			if err != nil {
				return nil, wrapPromErr(err)
			}

			metrics := make([]map[string]any, len(series))
			for i, s := range series {
				metrics[i] = map[string]any{
					"name":   s.Name(),
					"labels": s.Labels(),
					"values": s.Values,
				}
			}
			return map[string]any{
				"metrics":   metrics,
				"row_count": len(metrics),
			}, nil
		},
	}
}
