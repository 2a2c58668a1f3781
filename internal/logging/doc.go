// Package logging configures the process-wide slog logger: text or
// JSON handlers, level from the environment, and optional rotating
// file output in the per-user log directory.
package logging
