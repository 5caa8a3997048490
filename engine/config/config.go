package config

import (
	"fmt"
	"os"
	"runtime"

	toml "github.com/pelletier/go-toml/v2"
)

// Config carries the engine settings that are tweakable without a rebuild.
type Config struct {
	// Directory all asset-relative paths resolve against.
	AssetsDir string `toml:"assets_dir"`
	// Number of workers used for parallel image decode. Zero or negative
	// falls back to the hardware concurrency.
	DecodeWorkers int `toml:"decode_workers"`
	// Buffered capacity of the job queue.
	JobQueueSize int `toml:"job_queue_size"`
	// Minimum log level: debug, info, warn or error.
	LogLevel string `toml:"log_level"`
}

func Default() *Config {
	return &Config{
		AssetsDir:     "assets",
		DecodeWorkers: runtime.NumCPU(),
		JobQueueSize:  64,
		LogLevel:      "debug",
	}
}

// Load reads a TOML configuration file. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.DecodeWorkers <= 0 {
		cfg.DecodeWorkers = runtime.NumCPU()
	}
	if cfg.JobQueueSize < 0 {
		cfg.JobQueueSize = 0
	}
	return cfg, nil
}
