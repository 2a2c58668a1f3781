// ABOUTME: Error taxonomy for tool lookup, validation, and execution.
// ABOUTME: NotFound deliberately hides "disabled by mode" from callers.

package tools

import (
	"errors"
	"fmt"
)

// ErrToolNotFound indicates the name is absent from the visible
// registry. A tool that exists but is hidden by the active mode set
// reports the same error: callers cannot probe for disabled
// capabilities.
var ErrToolNotFound = errors.New("tool not found")

// Category classifies why a tool execution failed, so the calling agent
// can decide whether a retry with different arguments makes sense.
type Category string

const (
	CategoryUpstreamUnreachable Category = "upstream-unreachable"
	CategoryPermissionDenied    Category = "permission-denied"
	CategoryMalformedQuery      Category = "malformed-query"
	CategoryMalformedArgument   Category = "malformed-argument"
	CategoryMutationNotAllowed  Category = "mutation-not-allowed"
)

// ExecutionError wraps a failure from a tool's execution contract with
// its causal category.
type ExecutionError struct {
	Tool     string
	Category Category
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed (%s): %v", e.Tool, e.Category, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Execf builds an ExecutionError; tool handlers use it to classify
// their collaborator failures.
func Execf(category Category, format string, args ...any) *ExecutionError {
	return &ExecutionError{Category: category, Err: fmt.Errorf(format, args...)}
}
