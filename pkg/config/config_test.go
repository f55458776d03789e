package config

import (
	"os"
	"testing"
)

func withEnv(t *testing.T, kv map[string]string, fn func()) {
	t.Helper()
	var unset []string
	for k, v := range kv {
		old, had := os.LookupEnv(k)
		os.Setenv(k, v)
		if had {
			defer os.Setenv(k, old)
		} else {
			unset = append(unset, k)
		}
	}
	defer func() {
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}()
	fn()
}

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv(envOutDir)
	os.Unsetenv(envWorkers)
	os.Unsetenv(envPreview)

	cfg := Load()
	if cfg.OutDir != "" || cfg.Workers != 0 || cfg.Preview {
		t.Fatalf("expected zero-value defaults, got %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	withEnv(t, map[string]string{
		envOutDir:  "/tmp/out",
		envWorkers: "4",
		envPreview: "true",
	}, func() {
		cfg := Load()
		if cfg.OutDir != "/tmp/out" {
			t.Fatalf("OutDir = %q", cfg.OutDir)
		}
		if cfg.Workers != 4 {
			t.Fatalf("Workers = %d", cfg.Workers)
		}
		if !cfg.Preview {
			t.Fatalf("Preview = false")
		}
	})
}

func TestLoadIgnoresInvalidWorkers(t *testing.T) {
	withEnv(t, map[string]string{envWorkers: "not-a-number"}, func() {
		cfg := Load()
		if cfg.Workers != 0 {
			t.Fatalf("Workers = %d, want 0 on invalid input", cfg.Workers)
		}
	})
}
