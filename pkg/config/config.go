// Package config loads pixeltrace's process-wide settings: output directory,
// worker-pool size override, and whether terminal preview runs after a
// trace. Precedence, highest first: explicit CLI flags, process environment,
// a ".env" file in the working directory (via github.com/joho/godotenv),
// built-in defaults.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the ambient settings record described in §3.1 of the spec.
type Config struct {
	OutDir  string // "" means write SVGs alongside their input
	Workers int    // 0 means runtime.NumCPU()
	Preview bool
}

const (
	envOutDir  = "PIXELTRACE_OUT_DIR"
	envWorkers = "PIXELTRACE_WORKERS"
	envPreview = "PIXELTRACE_PREVIEW"
)

// Load reads .env (if present, ignoring a missing file) into the process
// environment, then builds a Config from the environment. Callers should
// invoke this once at process start; CLI flags parsed afterwards override
// the returned fields directly.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{}
	cfg.OutDir = os.Getenv(envOutDir)
	if v := os.Getenv(envWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv(envPreview); v != "" {
		b, err := strconv.ParseBool(v)
		cfg.Preview = err == nil && b
	}
	return cfg
}
