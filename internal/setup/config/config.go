package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrInvalidConfig         = errors.New("invalid config value")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v1.0.0"

// CurrentVersion is the current version of the config file.
const CurrentVersion = 1

// FileName is the name of the config file searched for in every config path.
const FileName = "dmesg.toml"

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version int    `koanf:"version"`
	Debug   Debug  `koanf:"debug"`
	Buffer  Buffer `koanf:"buffer"`
	Clock   Clock  `koanf:"clock"`
	Kernel  Kernel `koanf:"kernel"`
	Reader  Reader `koanf:"reader"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Buffer sizes the diagnostic message buffer.
type Buffer struct {
	// Number of pages backing the buffer.
	Pages int `koanf:"pages"`
	// Page size in bytes.
	PageSize int `koanf:"page_size"`
}

// Size returns the buffer capacity in bytes.
func (b Buffer) Size() int {
	return b.Pages * b.PageSize
}

// Clock contains timer configuration.
type Clock struct {
	// Interval between timer interrupts in milliseconds.
	TickIntervalMS int `koanf:"tick_interval_ms"`
}

// Kernel contains simulated kernel configuration.
type Kernel struct {
	// Number of harts emitting events.
	Harts int `koanf:"harts"`
	// Unix socket serving the syscall surface.
	Socket string `koanf:"socket"`
	// Interval between simulated events per hart in milliseconds.
	EventIntervalMS int `koanf:"event_interval_ms"`
}

// Reader contains dmesg reader configuration.
type Reader struct {
	// Size of the local buffer the log is exported into.
	BufferSize int `koanf:"buffer_size"`
}

// defaults are applied before any config file is loaded.
var defaults = map[string]any{
	"debug.log_level":          "info",
	"debug.max_logs_to_keep":   5,
	"debug.max_log_lines":      10000,
	"buffer.pages":             3,
	"buffer.page_size":         4096,
	"clock.tick_interval_ms":   100,
	"kernel.harts":             3,
	"kernel.socket":            filepath.Join(os.TempDir(), "dmesg.sock"),
	"kernel.event_interval_ms": 50,
	"reader.buffer_size":       1 << 15,
}

// LoadConfig loads the configuration. An explicit path must exist; otherwise
// the search paths are tried in order and defaults are used if none match.
// Returns the config along with the used config file, which is empty when
// only defaults apply.
func LoadConfig(explicitPath string) (*Config, string, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	var usedPath string

	if explicitPath != "" {
		if err := k.Load(file.Provider(explicitPath), toml.Parser()); err != nil {
			return nil, "", fmt.Errorf("failed to load config %s: %w", explicitPath, err)
		}

		usedPath = explicitPath
	} else {
		for _, path := range searchPaths() {
			configPath := filepath.Join(path, FileName)
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				usedPath = configPath
				break
			}
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if usedPath == "" {
		config.Version = CurrentVersion
	}

	if err := checkConfigVersion(config.Version, CurrentVersion); err != nil {
		return nil, "", err
	}

	if err := config.validate(); err != nil {
		return nil, "", err
	}

	return &config, usedPath, nil
}

// searchPaths lists the directories searched for the config file.
func searchPaths() []string {
	paths := []string{".dmesg"}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".dmesg", "config"))
	}

	return append(paths, "/etc/dmesg/config", "config", ".")
}

// validate rejects values the kernel cannot boot with.
func (c *Config) validate() error {
	switch {
	case c.Buffer.Pages <= 0 || c.Buffer.PageSize <= 0:
		return fmt.Errorf("%w: buffer needs at least one page (pages=%d, page_size=%d)",
			ErrInvalidConfig, c.Buffer.Pages, c.Buffer.PageSize)
	case c.Clock.TickIntervalMS <= 0:
		return fmt.Errorf("%w: clock.tick_interval_ms must be positive", ErrInvalidConfig)
	case c.Kernel.Harts < 0:
		return fmt.Errorf("%w: kernel.harts must not be negative", ErrInvalidConfig)
	case c.Kernel.EventIntervalMS <= 0:
		return fmt.Errorf("%w: kernel.event_interval_ms must be positive", ErrInvalidConfig)
	case c.Kernel.Socket == "":
		return fmt.Errorf("%w: kernel.socket must be set", ErrInvalidConfig)
	case c.Reader.BufferSize < 0:
		return fmt.Errorf("%w: reader.buffer_size must not be negative", ErrInvalidConfig)
	}

	return nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s", ErrConfigVersionMissing, FileName)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/dmesg/tree/%s/config/%s",
			ErrConfigVersionMismatch,
			FileName,
			current,
			expected,
			RepositoryVersion,
			FileName,
		)
	}

	return nil
}
