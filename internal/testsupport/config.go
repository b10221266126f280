package testsupport

import (
	"testing"

	"doroending/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a unique temp directory per test,
// with bootstrap disabled so no network is touched.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Bootstrap.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize test config: %v", err)
	}
	return &cfg
}

// WithDetectedExt enables format-detected image extensions on the test config.
func WithDetectedExt() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Images.UseDetectedExt = true
	}
}

// WithMaxImageBytes overrides the image size limit on the test config.
func WithMaxImageBytes(limit int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Images.MaxBytes = limit
	}
}
