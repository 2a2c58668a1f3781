// ABOUTME: Job history and usage tools: failed-job rollups, the
// ABOUTME: recent-jobs table pointers, and the consumption report.

package toolsets

import (
	"context"
	"fmt"
	"sort"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
	"github.com/dremio-contrib/dremio-mcp/internal/dremio"
	"github.com/dremio-contrib/dremio-mcp/internal/tools"
)

func recentJobsTable(s *config.Settings) string {
	if s != nil && s.HasProject() {
		return "sys.project.jobs_recent"
	}
	return "sys.jobs_recent"
}

const failedJobsQuery = `select job_id as id,
    query_type as "queryType",
    status as state,
    submitted_ts as "startTime",
    query,
    (final_state_epoch_millis - submitted_epoch_millis) / 1000 as duration,
    queried_datasets as "queriedDatasets",
    user_name as "user",
    engine,
    error_msg
from %s
where to_date(submitted_ts) >= current_date - interval '7' day
and status in ('CANCELED', 'FAILED')`

func getFailedJobDetails() *tools.Definition {
	return &tools.Definition{
		Name: "GetFailedJobDetails",
		Description: "Get the stats and details of failed or canceled jobs executed in the " +
			"Dremio cluster in the past 7 days, with splits by job type, engine, user, " +
			"queried dataset, and error message.",
		Modes: config.ForSelf,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			s := config.FromContext(ctx)
			client, err := dremioClient(ctx)
			if err != nil {
				return nil, err
			}

			query := submitter("GetFailedJobDetails") + fmt.Sprintf(failedJobsQuery, recentJobsTable(s))
			result, err := client.RunQuery(ctx, query)
			if err != nil {
				return nil, wrapDremioErr(err)
			}

			rows := withJobDate(result.Rows)
			return map[string]any{
				"Number of jobs over 7 days":                  len(rows),
				"Job categories by day, queryType and state":  groupCount(rows, "date", "queryType", "state"),
				"Job count by day, queryType and engine":      groupCount(rows, "date", "queryType", "engine"),
				"Job count by day, queryType, user":           groupCount(rows, "date", "queryType", "user"),
				"Job count by day, queriedDataset and state":  groupCount(explode(rows, "queriedDatasets"), "date", "queriedDatasets", "state"),
				"Job count by day, queryType and error":       groupCount(rows, "date", "queryType", "error_msg"),
			}, nil
		},
	}
}

// withJobDate derives a calendar-date column from each row's
// startTime timestamp.
func withJobDate(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		copied := make(map[string]any, len(row)+1)
		for k, v := range row {
			copied[k] = v
		}
		ts := fmt.Sprint(row["startTime"])
		if len(ts) >= 10 {
			ts = ts[:10]
		}
		copied["date"] = ts
		out[i] = copied
	}
	return out
}

// explode flattens a list-valued column so each element gets its own
// row, mirroring a relational UNNEST.
func explode(rows []map[string]any, column string) []map[string]any {
	var out []map[string]any
	for _, row := range rows {
		values, ok := row[column].([]any)
		if !ok || len(values) == 0 {
			out = append(out, row)
			continue
		}
		for _, v := range values {
			copied := make(map[string]any, len(row))
			for k, rv := range row {
				copied[k] = rv
			}
			copied[column] = v
			out = append(out, copied)
		}
	}
	return out
}

// groupCount counts rows per distinct combination of the given
// columns, returning one record per combination in stable order.
func groupCount(rows []map[string]any, columns ...string) []map[string]any {
	type group struct {
		values []string
		count  int
	}
	counts := make(map[string]*group)
	for _, row := range rows {
		values := make([]string, len(columns))
		for i, col := range columns {
			if v := row[col]; v != nil {
				values[i] = fmt.Sprint(v)
			}
		}
		key := fmt.Sprint(values)
		if g, ok := counts[key]; ok {
			g.count++
		} else {
			counts[key] = &group{values: values, count: 1}
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		g := counts[k]
		record := make(map[string]any, len(columns)+1)
		for i, col := range columns {
			record[col] = g.values[i]
		}
		record["count"] = g.count
		out = append(out, record)
	}
	return out
}

func getNameOfJobsRecentTable() *tools.Definition {
	return &tools.Definition{
		Name:        "GetNameOfJobsRecentTable",
		Description: "Gets the schema full name of the table that stores the jobs information.",
		Modes:       config.ForSelf,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]string{"name": "sys.project.jobs_recent"}, nil
		},
	}
}

func getUsefulSystemTableNames() *tools.Definition {
	return &tools.Definition{
		Name: "GetUsefulSystemTableNames",
		Description: "Gets the names of system tables in the Dremio cluster, useful for various " +
			"analysis. Use the GetSchemaOfTable tool to get the schema of a table.",
		Modes: config.ForSelf | config.ForDataPatterns,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return []map[string]string{
				{
					"table_name": `information_schema."tables"`,
					"description": "Information about tables in this cluster. " +
						"Be sure to filter out SYSTEM_TABLE when looking at user tables. " +
						"You must encapsulate TABLES in double quotes.",
				},
			}, nil
		},
	}
}

func buildUsageReport() *tools.Definition {
	return &tools.Definition{
		Name: "BuildUsageReport",
		Description: "Build a usage report for the project grouped by engine or project for " +
			"the past 7 days. Useful to plot a visualization.",
		Modes:           config.ForSelf,
		RequiresProject: true,
		Params: []tools.Param{
			{
				Name:        "by",
				Type:        "string",
				Description: "Group the usage by 'PROJECT' or 'ENGINE'",
				Default:     dremio.UsageByEngine,
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			by := argString(args, "by")
			if by == "" {
				by = dremio.UsageByEngine
			}
			if by != dremio.UsageByEngine && by != dremio.UsageByProject {
				return nil, tools.Execf(tools.CategoryMalformedArgument,
					"by must be PROJECT or ENGINE, got %q", by)
			}

			client, err := dremioClient(ctx)
			if err != nil {
				return nil, err
			}
			records, err := client.Usage(ctx, by, 7)
			if err != nil {
				return nil, wrapDremioErr(err)
			}
			return records, nil
		},
	}
}
