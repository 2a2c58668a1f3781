// ABOUTME: Secret reference resolution for configuration values.
// ABOUTME: Values starting with "@" are read from the named file.

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// secretPrefix marks a value as a file reference rather than a literal.
const secretPrefix = "@"

// ResolveSecret resolves a possibly secret-shaped value to its literal
// form. A value without the "@" prefix is returned unchanged, which
// makes resolution idempotent. A prefixed value names a file (with ~
// expansion) whose content, trimmed of trailing whitespace, is the
// literal. The file is re-read on every call so rotated secrets take
// effect on the next resolution.
func ResolveSecret(field, value string) (string, error) {
	if !strings.HasPrefix(value, secretPrefix) {
		return value, nil
	}
	path := expandHome(strings.TrimPrefix(value, secretPrefix))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ResolutionError{Field: field, Path: path, Err: err}
	}
	return strings.TrimRight(string(data), " \t\r\n"), nil
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
