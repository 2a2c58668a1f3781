// ABOUTME: Tool invocation dispatcher: lookup, validate, execute.
// ABOUTME: Pure routing layer; owns no retries, caching, or state.

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
)

// Result is the protocol-neutral outcome of one tool invocation.
type Result struct {
	Tool      string
	RequestID string
	Data      any
}

// JSON renders the result data for transports and the CLI.
func (r *Result) JSON() (string, error) {
	data, err := json.MarshalIndent(r.Data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result of %s: %w", r.Tool, err)
	}
	return string(data), nil
}

// Dispatcher routes invocations to tool handlers. Argument schemas are
// compiled once at construction; visibility is re-derived from the
// ambient settings on every call so a scope change never leaks a stale
// view.
type Dispatcher struct {
	registry *Registry
	schemas  map[string]*jsonschema.Schema
	logger   *slog.Logger
}

// NewDispatcher compiles every declared tool's parameter schema and
// returns a dispatcher over the registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schemas := make(map[string]*jsonschema.Schema)
	for _, def := range registry.All() {
		compiler := jsonschema.NewCompiler()
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def.InputSchema()))
		if err != nil {
			return nil, fmt.Errorf("parsing schema for %s: %w", def.Name, err)
		}
		resource := def.Name + ".json"
		if err := compiler.AddResource(resource, doc); err != nil {
			return nil, fmt.Errorf("adding schema for %s: %w", def.Name, err)
		}
		sch, err := compiler.Compile(resource)
		if err != nil {
			return nil, fmt.Errorf("compiling schema for %s: %w", def.Name, err)
		}
		schemas[def.Name] = sch
	}
	return &Dispatcher{registry: registry, schemas: schemas, logger: logger}, nil
}

// Snapshot derives the visible registry for the ambient settings.
func (d *Dispatcher) Snapshot(ctx context.Context) (*Snapshot, error) {
	s := config.FromContext(ctx)
	if s == nil {
		return nil, fmt.Errorf("no settings installed in context")
	}
	return d.registry.Snapshot(s), nil
}

// Dispatch validates the raw arguments against the named tool's
// declared schema and executes its contract. A name that is unknown or
// hidden by the active mode set fails identically with ErrToolNotFound.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (*Result, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	def, ok := snap.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrToolNotFound)
	}

	validated, err := d.validateArgs(def, args)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	d.logger.Debug("dispatching tool",
		"tool", name,
		"request_id", requestID,
	)

	data, err := def.Handler(ctx, validated)
	if cerr := ctx.Err(); cerr != nil {
		// A cancelled invocation never yields a result.
		return nil, cerr
	}
	if err != nil {
		var eerr *ExecutionError
		if errors.As(err, &eerr) {
			if eerr.Tool == "" {
				eerr.Tool = name
			}
			return nil, eerr
		}
		// Anything a handler did not classify came out of its call to
		// the external collaborator.
		return nil, &ExecutionError{Tool: name, Category: CategoryUpstreamUnreachable, Err: err}
	}

	return &Result{Tool: name, RequestID: requestID, Data: data}, nil
}

// validateArgs enforces the declared parameter schema: required
// parameters present, unknown parameters rejected, types as declared,
// defaults applied. Every violation is collected before failing.
func (d *Dispatcher) validateArgs(def *Definition, args map[string]any) (map[string]any, error) {
	params := make(map[string]Param, len(def.Params))
	for _, p := range def.Params {
		params[p.Name] = p
	}

	var violations []config.Violation
	for name := range args {
		if _, ok := params[name]; !ok {
			violations = append(violations, config.Violation{
				Field:   name,
				Message: "unknown argument",
			})
		}
	}

	validated := make(map[string]any, len(def.Params))
	for _, p := range def.Params {
		value, ok := args[p.Name]
		if !ok {
			if p.Required {
				violations = append(violations, config.Violation{
					Field:   p.Name,
					Message: fmt.Sprintf("required argument of type %s is missing", schemaType(p.Type)),
				})
			} else if p.Default != nil {
				validated[p.Name] = p.Default
			}
			continue
		}
		validated[p.Name] = value
	}

	if len(violations) > 0 {
		return nil, &config.ValidationError{Violations: violations}
	}

	if sch := d.schemas[def.Name]; sch != nil {
		if err := sch.Validate(jsonRoundTrip(validated)); err != nil {
			return nil, &config.ValidationError{Violations: schemaViolations(err)}
		}
	}
	return validated, nil
}

// schemaViolations flattens a schema error tree into one violation per
// leaf cause, with the offending parameter recovered from the leaf's
// instance location.
func schemaViolations(err error) []config.Violation {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []config.Violation{{Field: "arguments", Message: err.Error()}}
	}
	var out []config.Violation
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			field := "arguments"
			if len(e.InstanceLocation) > 0 {
				field = strings.Join(e.InstanceLocation, ".")
			}
			out = append(out, config.Violation{Field: field, Message: e.Error()})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(verr)
	return out
}

// jsonRoundTrip normalizes argument values to decoded-JSON form so the
// schema validator sees the same shapes a transport would deliver.
func jsonRoundTrip(v map[string]any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// CoerceArgs converts string-form arguments (the CLI's k=v pairs) to
// the types the definition declares. Unknown names pass through
// untouched; validation rejects them with the proper error.
func CoerceArgs(def *Definition, raw map[string]string) (map[string]any, error) {
	params := make(map[string]Param, len(def.Params))
	for _, p := range def.Params {
		params[p.Name] = p
	}

	var violations []config.Violation
	out := make(map[string]any, len(raw))
	for name, value := range raw {
		p, ok := params[name]
		if !ok {
			out[name] = value
			continue
		}
		coerced, err := coerceValue(p.Type, value)
		if err != nil {
			violations = append(violations, config.Violation{
				Field:   name,
				Message: fmt.Sprintf("expected %s: %v", schemaType(p.Type), err),
			})
			continue
		}
		out[name] = coerced
	}
	if len(violations) > 0 {
		return nil, &config.ValidationError{Violations: violations}
	}
	return out, nil
}

func coerceValue(typ, value string) (any, error) {
	switch typ {
	case "", "string":
		return value, nil
	case "integer":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", value)
		}
		return n, nil
	case "number":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", value)
		}
		return f, nil
	case "boolean":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", value)
		}
		return b, nil
	case "array":
		parts := strings.Split(value, ",")
		items := make([]any, len(parts))
		for i, part := range parts {
			items[i] = strings.TrimSpace(part)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", typ)
	}
}
