// Package testutil provides testing utilities for geopool packages.
// It includes a fake upstream server, fixtures and mocks.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TempFile creates a file with the given content in a per-test directory
// and returns its path. The directory is removed when the test ends.
func TempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// ReadFile returns the content of path, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// SkipIfShort skips the test if running in short mode.
func SkipIfShort(t *testing.T, reason string) {
	t.Helper()
	if testing.Short() {
		t.Skipf("skipping in short mode: %s", reason)
	}
}
