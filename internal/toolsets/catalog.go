// ABOUTME: Catalog tools: table schemas, lineage, descriptions, and
// ABOUTME: the experimental semantic search.

package toolsets

import (
	"context"
	"strings"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
	"github.com/dremio-contrib/dremio-mcp/internal/dremio"
	"github.com/dremio-contrib/dremio-mcp/internal/tools"
)

func getSchemaOfTable() *tools.Definition {
	return &tools.Definition{
		Name: "GetSchemaOfTable",
		Description: "Gets the schema of the given table: column names and types, plus any " +
			"wiki description and tags attached to it.",
		Modes: config.ForSelf | config.ForDataPatterns,
		Params: []tools.Param{
			{
				Name:        "table_name",
				Type:        "string",
				Description: "Name of the table, including the schema",
				Required:    true,
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			client, err := dremioClient(ctx)
			if err != nil {
				return nil, err
			}
			entry, err := client.TableSchema(ctx, argString(args, "table_name"), true)
			if err != nil {
				return nil, wrapDremioErr(err)
			}

			fields := make([]string, len(entry.Fields))
			for i, f := range entry.Fields {
				fields[i] = f.Name + ": " + f.Type.Name
			}
			return []map[string]string{{
				"path":        strings.Join(entry.Path, "."),
				"fields":      strings.Join(fields, "\n"),
				"description": entry.Description,
				"tags":        strings.Join(entry.Tags, ", "),
			}}, nil
		},
	}
}

func getTableOrViewLineage() *tools.Definition {
	return &tools.Definition{
		Name: "GetTableOrViewLineage",
		Description: "Finds the lineage of a table or view in the Dremio cluster: its sources, " +
			"the parents it was derived from, and the views derived from it.",
		Modes: config.ForSelf | config.ForDataPatterns,
		Params: []tools.Param{
			{
				Name: "table_name",
				Type: "string",
				Description: "Name of the table or view, including the schema. Quote the " +
					"name if it contains special characters",
				Required: true,
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			client, err := dremioClient(ctx)
			if err != nil {
				return nil, err
			}
			lineage, err := client.TableLineage(ctx, argString(args, "table_name"))
			if err != nil {
				return nil, wrapDremioErr(err)
			}
			return lineage, nil
		},
	}
}

func getDescriptionOfTableOrSchema() *tools.Definition {
	return &tools.Definition{
		Name: "GetDescriptionOfTableOrSchema",
		Description: "Given one or more table or schema names, returns the description of each, " +
			"if any exists, as well as the description of any parent schemas.",
		Modes: config.ForSelf | config.ForDataPatterns,
		Params: []tools.Param{
			{
				Name:        "name",
				Type:        "array",
				Description: "The names of tables or schemas to describe",
				Required:    true,
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			names := argStringList(args, "name")
			if len(names) == 0 {
				return nil, tools.Execf(tools.CategoryMalformedArgument, "name must list at least one table or schema")
			}

			client, err := dremioClient(ctx)
			if err != nil {
				return nil, err
			}
			descs, err := client.Descriptions(ctx, names)
			if err != nil {
				return nil, wrapDremioErr(err)
			}
			return descs, nil
		},
	}
}

func semanticSearch() *tools.Definition {
	return &tools.Definition{
		Name:        "SemanticSearch",
		Description: "Runs a semantic search on the Dremio cluster using the given query.",
		Modes:       config.ForSelf | config.ForDataPatterns | config.Experimental,
		Params: []tools.Param{
			{Name: "query", Type: "string", Description: "The query to run", Required: true},
			{
				Name: "category",
				Type: "string",
				Description: "Optionally a category to search for. One of TABLE, VIEW, JOB, " +
					"SOURCE, FOLDER. Searches all categories if unspecified",
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			category := argString(args, "category")
			if category != "" && !dremio.ValidSearchCategory(category) {
				return nil, tools.Execf(tools.CategoryMalformedArgument,
					"unknown search category %q", category)
			}

			client, err := dremioClient(ctx)
			if err != nil {
				return nil, err
			}
			results, err := client.Search(ctx, argString(args, "query"), category)
			if err != nil {
				return nil, wrapDremioErr(err)
			}
			return map[string]any{"results": results}, nil
		},
	}
}
