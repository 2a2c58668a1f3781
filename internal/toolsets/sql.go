// ABOUTME: The RunSqlQuery tool and its read-only query guard.
// ABOUTME: DML statements are rejected unless allow_dml is set.

package toolsets

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
	"github.com/dremio-contrib/dremio-mcp/internal/dremio"
	"github.com/dremio-contrib/dremio-mcp/internal/tools"
)

var dmlPattern = regexp.MustCompile(`(?i)\b(drop|insert|update|truncate|delete|copy\s+into|alter|create)\b`)

// safeLeaders are statement keywords that always denote a read-only
// query shape.
var safeLeaders = map[string]bool{
	"select": true,
	"with":   true,
	"values": true,
}

var leadingComment = regexp.MustCompile(`(?s)^\s*(/\*.*?\*/\s*|--[^\n]*\n\s*)*`)

// ensureQueryAllowed rejects mutating statements unless the settings
// opt in to DML. Queries that open with a SELECT/WITH/VALUES shape
// pass even when a DML keyword appears inside them (column names,
// string literals).
func ensureQueryAllowed(s *config.Settings, query string) error {
	if s != nil && s.Dremio != nil && s.Dremio.AllowDML {
		return nil
	}

	stripped := leadingComment.ReplaceAllString(query, "")
	stripped = strings.TrimLeft(stripped, " \t\r\n(")
	leader, _, _ := strings.Cut(stripped, " ")
	if safeLeaders[strings.ToLower(strings.TrimSpace(leader))] {
		return nil
	}

	if dmlPattern.MatchString(query) {
		return tools.Execf(tools.CategoryMutationNotAllowed,
			"the query contains a DML statement; only SELECT queries are allowed")
	}
	return nil
}

// submitter tags submitted jobs so they can be attributed in the
// Dremio job history.
func submitter(tool string) string {
	return fmt.Sprintf("/* dremio-mcp: submitter=%s */\n", tool)
}

func runSqlQuery() *tools.Definition {
	return &tools.Definition{
		Name: "RunSqlQuery",
		Description: "Run a SELECT sql query on the Dremio cluster and return the results. " +
			"Ensure that SQL keywords like 'day', 'month', 'count', 'table' etc are enclosed in double quotes. " +
			"Only SELECT queries are permitted; no DML statements are allowed.",
		Modes: config.ForSelf | config.ForDataPatterns,
		Params: []tools.Param{
			{Name: "sql", Type: "string", Description: "The sql query to run", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			query := argString(args, "sql")
			if err := ensureQueryAllowed(config.FromContext(ctx), query); err != nil {
				return nil, err
			}

			client, err := dremioClient(ctx)
			if err != nil {
				return nil, err
			}
			result, err := client.RunQuery(ctx, submitter("RunSqlQuery")+query)
			if err != nil {
				return nil, wrapDremioErr(err)
			}
			return queryResultPayload(result), nil
		},
	}
}

// queryResultPayload shapes a query result the way MCP clients parse
// best: rows plus explicit column order and count.
func queryResultPayload(result *dremio.QueryResult) map[string]any {
	rows := result.Rows
	if rows == nil {
		rows = []map[string]any{}
	}
	types := make(map[string]string, len(result.Columns))
	for _, c := range result.Columns {
		types[c.Name] = c.Type.Name
	}
	return map[string]any{
		"rows":      rows,
		"columns":   result.ColumnNames(),
		"row_count": len(rows),
		"types":     types,
	}
}
