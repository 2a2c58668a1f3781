// ABOUTME: Error types for settings resolution and validation.
// ABOUTME: ValidationError collects every violation found in one pass.

package config

import (
	"fmt"
	"strings"
)

// ResolutionError indicates a secret reference could not be resolved.
// It names the field and the referenced path but never the secret value.
type ResolutionError struct {
	Field string
	Path  string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving secret for %s from %s: %v", e.Field, e.Path, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Violation describes a single invalid settings field.
type Violation struct {
	Field   string
	Message string
	Err     error // optional wrapped cause, e.g. a *ResolutionError
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationError aggregates every violation found while resolving a
// settings tree, so a user can fix a config file in one pass.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("invalid settings: %s", strings.Join(msgs, "; "))
}

// Unwrap exposes wrapped causes so errors.As can find, for example, a
// ResolutionError behind a failed secret field.
func (e *ValidationError) Unwrap() []error {
	var errs []error
	for _, v := range e.Violations {
		if v.Err != nil {
			errs = append(errs, v.Err)
		}
	}
	return errs
}

// violations is a builder for collecting field errors during validation.
type violations struct {
	list []Violation
}

func (vs *violations) add(field, format string, args ...any) {
	vs.list = append(vs.list, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (vs *violations) addErr(field string, err error) {
	vs.list = append(vs.list, Violation{Field: field, Message: err.Error(), Err: err})
}

func (vs *violations) err() error {
	if len(vs.list) == 0 {
		return nil
	}
	return &ValidationError{Violations: vs.list}
}
