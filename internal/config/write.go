// ABOUTME: Serializes a settings tree back to its YAML config file.
// ABOUTME: Used by "config create" and dry-run rendering.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Render returns the YAML form of the settings tree.
func Render(s *Settings) (string, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding settings: %w", err)
	}
	return string(data), nil
}

// Write serializes the settings tree to the given path, creating parent
// directories as needed. An empty path means the conventional location.
func Write(path string, s *Settings) error {
	if path == "" {
		path = DefaultPath()
	}
	data, err := Render(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
