// ABOUTME: Static tool definition records: schema, modes, and handler.
// ABOUTME: Definitions are declared at build time and only filtered.

package tools

import (
	"context"
	"encoding/json"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
)

// Handler executes a tool's contract with validated arguments. The
// ambient resolved settings travel on the context
// (config.FromContext); the handler must honor cancellation.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Param declares one named parameter of a tool.
type Param struct {
	Name        string
	Type        string // "string", "integer", "number", "boolean", "array"
	Description string
	Required    bool
	Default     any
}

// Definition is one statically declared tool. Definitions are plain
// data records collected into a list at startup; nothing is created or
// destroyed at runtime, visibility filtering is the only dynamism.
type Definition struct {
	Name        string
	Description string
	Params      []Param
	// Modes a caller must hold at least one of ("any of").
	Modes config.Mode
	// RequiresProject hides the tool when no project id is configured.
	RequiresProject bool
	// Resource marks a static reference lookup rather than a live
	// query; resources are listed and read through the resource
	// surface, not tools/call.
	Resource bool
	// ResourceURI is the stable identifier for resource tools.
	ResourceURI string

	Handler Handler
}

// InputSchema renders the parameter declarations as a JSON Schema
// document, the shape served to protocol discovery. Unknown properties
// are rejected at validation time via additionalProperties.
func (d *Definition) InputSchema() json.RawMessage {
	properties := make(map[string]any, len(d.Params))
	var required []string
	for _, p := range d.Params {
		prop := map[string]any{"type": schemaType(p.Type)}
		if p.Type == "array" {
			prop["items"] = map[string]any{"type": "string"}
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	data, err := json.Marshal(schema)
	if err != nil {
		// The schema is assembled from static literals; this cannot
		// fail for a well-formed definition.
		panic("tools: encoding input schema for " + d.Name + ": " + err.Error())
	}
	return data
}

func schemaType(t string) string {
	if t == "" {
		return "string"
	}
	return t
}

// Visible reports whether the definition is exposed under the active
// mode set. Experimental-tagged tools need the explicit experimental
// enable on top of their mode bits; project-bound tools disappear
// without a project id.
func (d *Definition) Visible(active config.Mode, experimentalEnabled, hasProject bool) bool {
	if d.Modes&config.Experimental != 0 && !experimentalEnabled {
		return false
	}
	if d.RequiresProject && !hasProject {
		return false
	}
	return d.Modes.Intersects(active)
}
