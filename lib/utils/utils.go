package utils

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ZeroOr if value is zero value returns the defaultValue
func ZeroOr[T comparable](value, defaultValue T) T {
	var zero T
	if zero == value {
		return defaultValue
	}
	return value
}

// EmptyOr if slice is empty returns the defaultValue
func EmptyOr[T any](value, defaultValue []T) []T {
	if len(value) == 0 {
		return defaultValue
	}
	return value
}

// ExpandPath expands path "." or "~"
func ExpandPath(path string) (string, error) {
	// expand local directory
	if strings.HasPrefix(path, ".") {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, path[1:]), nil
	}
	// expand ~ as shortcut for home directory
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// ReadYaml read the YAML file into v, fields absent from the file keep
// their values.
func ReadYaml(path string, v any) error {
	path, err := ExpandPath(path)
	if err != nil {
		return err
	}
	bytes, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return err
	}
	return yaml.Unmarshal(bytes, v)
}

// WriteYaml writes v as YAML to path, creating the parent directory.
func WriteYaml(path string, v any) error {
	path, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	bytes, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bytes, 0o600)
}
