// Package testsupport provides shared fixtures for package tests: temp-dir
// configs and opened stores with registered cleanup.
package testsupport

import (
	"path/filepath"
	"testing"

	"retrace/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config must validate: %v", err)
	}
	return &cfg
}
