package sociograph

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the sociograph engine.
type Config struct {
	// DBPath is the full path to the SQLite run log.
	// If empty, defaults to ~/.sociograph/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "sociograph".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set. Options: "home" (default) uses ~/.sociograph/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// SkipStore disables the run log. Run log operations then fail with
	// ErrStoreDisabled.
	SkipStore bool `json:"skip_store" yaml:"skip_store"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Input caps; zero disables a cap.
	MaxNodes             int `json:"max_nodes" yaml:"max_nodes"`                             // nodes after subgraph extraction
	MaxGirvanNewmanNodes int `json:"max_girvan_newman_nodes" yaml:"max_girvan_newman_nodes"` // Girvan-Newman is O(V·E²)

	// Defaults fill zero-valued request fields.
	Defaults Request `json:"defaults" yaml:"defaults"`
}

// DefaultConfig returns a Config with sensible defaults.
// The run log is stored in ~/.sociograph/sociograph.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:               "sociograph",
		StorageDir:           "home",
		LogLevel:             "info",
		MaxNodes:             50000,
		MaxGirvanNewmanNodes: 500,
		Defaults:             DefaultRequest(),
	}
}

// LoadConfig reads a JSON or YAML config file, chosen by extension, over
// DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: unknown config format %q", ErrInvalidConfig, filepath.Ext(path))
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SOCIOGRAPH_* environment variables.
// Unparseable numeric and boolean values are logged and ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SOCIOGRAPH_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("SOCIOGRAPH_DB_NAME"); v != "" {
		c.DBName = v
	}
	if v := os.Getenv("SOCIOGRAPH_STORAGE_DIR"); v != "" {
		c.StorageDir = v
	}
	if v := os.Getenv("SOCIOGRAPH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SOCIOGRAPH_SKIP_STORE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SkipStore = b
		} else {
			slog.Warn("config: ignoring SOCIOGRAPH_SKIP_STORE", "value", v, "error", err)
		}
	}
	for name, dst := range map[string]*int{
		"SOCIOGRAPH_MAX_NODES":               &c.MaxNodes,
		"SOCIOGRAPH_MAX_GIRVAN_NEWMAN_NODES": &c.MaxGirvanNewmanNodes,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("config: ignoring "+name, "value", v, "error", err)
			continue
		}
		*dst = n
	}
}

// Validate checks every field, including the request defaults.
func (c *Config) Validate() error {
	switch c.StorageDir {
	case "", "home", "local", "cwd":
	default:
		return fmt.Errorf("%w: storage_dir %q (want home or local)", ErrInvalidConfig, c.StorageDir)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("%w: max_nodes must be >= 0", ErrInvalidConfig)
	}
	if c.MaxGirvanNewmanNodes < 0 {
		return fmt.Errorf("%w: max_girvan_newman_nodes must be >= 0", ErrInvalidConfig)
	}
	if _, err := c.Defaults.withDefaults(DefaultRequest()).compile(); err != nil {
		return fmt.Errorf("%w: defaults: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Level parses LogLevel. Empty means info.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return l, nil
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "sociograph"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		dir := filepath.Join(home, ".sociograph")
		return filepath.Join(dir, name+".db")
	}
}
