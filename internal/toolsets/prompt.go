// ABOUTME: The static hints resource and the assembled system prompt
// ABOUTME: that introduces the visible tools to the calling agent.

package toolsets

import (
	"context"
	"strings"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
	"github.com/dremio-contrib/dremio-mcp/internal/tools"
)

// HintsURI identifies the cluster-analysis hints resource.
const HintsURI = "dremio://hints"

const hintsText = "Dremio cluster has a few key dimensions that can be used to analyze and " +
	"optimize the cluster. Look at the number of jobs and their statistics and failure " +
	"rates, and overall system usage."

func hints() *tools.Definition {
	return &tools.Definition{
		Name:        "Hints",
		Description: hintsText,
		Modes:       config.ForSelf,
		Resource:    true,
		ResourceURI: HintsURI,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return hintsText, nil
		},
	}
}

const promptGuidance = `You are a helpful AI bot with access to several tools for analyzing a Dremio cluster, its data, tables and jobs.
Note:
- In general prefer to illustrate results using interactive graphical plots
- Use UNNEST instead of FLATTEN for arrays like queriedDatasets
- Use ARRAY_TO_STRING([array], ',') to convert arrays to strings
- Make sure reserved words like count, etc are enclosed in double quotes
- Components in paths to views and tables must be double-quoted
- You must distinguish between user requests that intend to get a result of a SQL query and requests to generate SQL. The result of the former is the SQL query's result, the result of the latter is a SQL query.
- You must use correct SQL syntax; you may use "EXPLAIN" to validate SQL or run it with LIMIT 1 to validate the syntax
- You must use the GetDescriptionOfTableOrSchema tool to get the descriptions of multiple tables and schemas before deciding their relevance
- You must consider views and tables in all search results, not just the top 1 or 2; the search is not perfect
- Consider sampling rows from multiple tables or views to understand the data before deciding which table to use
- If the user prompt is in a non-English language, translate it to English before searching, and respond in the language of the user's prompt
- You must check your answer before finalizing the result
- You must use SQL select statements to calculate statistics and distributions of columns
- You must use the GetSchemaOfTable tool to get the schema of a table before running any queries on it`

// SystemPrompt assembles the server's system prompt from the general
// guidance plus one line per visible tool and resource.
func SystemPrompt(snap *tools.Snapshot) string {
	var b strings.Builder
	b.WriteString(promptGuidance)
	b.WriteString("\n\nAvailable tools:\n")
	for _, def := range snap.Tools() {
		b.WriteString(def.Name)
		b.WriteString(": ")
		b.WriteString(def.Description)
		b.WriteString("\n")
	}
	for _, def := range snap.Resources() {
		b.WriteString(def.Name)
		b.WriteString(": ")
		b.WriteString(def.Description)
		b.WriteString("\n")
	}
	return b.String()
}
