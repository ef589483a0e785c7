package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"tangle/internal/errors"
)

type Config struct {
	Version  int      `toml:"version"`
	Root     string   `toml:"root"`
	Scan     Scan     `toml:"scan"`
	Cycles   Cycles   `toml:"cycles"`
	Watch    Watch    `toml:"watch"`
	Output   Output   `toml:"output"`
	Metrics  Metrics  `toml:"metrics"`
	Snapshot Snapshot `toml:"snapshot"`
}

type Scan struct {
	Include        []string   `toml:"include"`
	IncludeGroups  [][]string `toml:"include_groups"`
	Exclude        []string   `toml:"exclude"`
	GuardDirs      []string   `toml:"guard_dirs"` // skipped unless a pattern names them
	Workers        int        `toml:"workers"`
	IncludeContent *bool      `toml:"include_content"`
}

type Cycles struct {
	MaxDepth int   `toml:"max_depth"`
	Validate *bool `toml:"validate"`
}

type Watch struct {
	Enabled          bool          `toml:"enabled"`
	Debounce         time.Duration `toml:"debounce"`
	RescansPerSecond float64       `toml:"rescans_per_second"`
}

type Output struct {
	DOT string `toml:"dot"`
	TSV string `toml:"tsv"`
	// Occurrences is the path for the diagnostic TSV (one row per reported
	// occurrence), written alongside the edge TSV.
	Occurrences string `toml:"occurrences"`
}

type Metrics struct {
	Addr string `toml:"addr"`
}

type Snapshot struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Root) == "" {
		cfg.Root = "."
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = 4
	}
	if cfg.Scan.IncludeContent == nil {
		t := true
		cfg.Scan.IncludeContent = &t
	}
	if len(cfg.Scan.GuardDirs) == 0 {
		cfg.Scan.GuardDirs = []string{"node_modules", ".git"}
	}
	if cfg.Cycles.MaxDepth == 0 {
		cfg.Cycles.MaxDepth = 5
	}
	if cfg.Cycles.Validate == nil {
		t := true
		cfg.Cycles.Validate = &t
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RescansPerSecond == 0 {
		cfg.Watch.RescansPerSecond = 4
	}
	if cfg.Snapshot.Enabled && strings.TrimSpace(cfg.Snapshot.Path) == "" {
		cfg.Snapshot.Path = "tangle.db"
	}
}

func validate(cfg *Config) error {
	if cfg.Version != 1 {
		return errors.New(errors.CodeValidation, fmt.Sprintf("unsupported config version %d", cfg.Version))
	}
	if cfg.Scan.Workers < 0 {
		return errors.New(errors.CodeValidation, "scan.workers must not be negative")
	}
	if cfg.Cycles.MaxDepth < 1 {
		return errors.New(errors.CodeValidation, "cycles.max_depth must be at least 1")
	}
	if cfg.Watch.RescansPerSecond < 0 {
		return errors.New(errors.CodeValidation, "watch.rescans_per_second must not be negative")
	}
	for _, group := range cfg.Scan.IncludeGroups {
		if len(group) == 0 {
			return errors.New(errors.CodeValidation, "scan.include_groups must not contain empty groups")
		}
	}
	return nil
}
