// Package config loads the layered kiwii configuration.
//
// Files are JSON with comments and trailing commas allowed. Precedence,
// highest last:
//
//  1. Defaults
//  2. Global user config ($XDG_CONFIG_HOME/kiwii/config.json or ~/.config/kiwii/config.json)
//  3. Project config (./.kiwii.json) or the file given with --config
//  4. Command-line overrides
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/kittclouds/kiwii/internal/logging"
	"github.com/kittclouds/kiwii/pkg/calendar"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config")
)

// FileName is the project config file looked up in the working directory.
const FileName = ".kiwii.json"

// MemoryDB keeps the database in memory for the life of the process.
const MemoryDB = ":memory:"

// Config holds every configuration option.
type Config struct {
	DBPath      string `json:"db_path"`
	LogLevel    string `json:"log_level"`
	LogFormat   string `json:"log_format"`
	HistoryFile string `json:"history_file"`
	WeekStart   string `json:"week_start"`

	Sources Sources `json:"-"`
}

// Sources records which files were merged, for `kiwii info`.
type Sources struct {
	Global  string
	Project string
}

// Overrides are values given on the command line. Empty fields are ignored.
type Overrides struct {
	DBPath   string
	LogLevel string
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDir    string            // if empty, os.Getwd() is used
	ConfigPath string            // -c/--config; must exist when set
	Overrides  Overrides
	Env        map[string]string
}

// Default returns the built-in configuration for env.
func Default(env map[string]string) Config {
	dataDir := dataDir(env)
	cfg := Config{
		DBPath:    "kiwii.db",
		LogLevel:  "warn",
		LogFormat: "text",
		WeekStart: "sunday",
	}
	if dataDir != "" {
		cfg.DBPath = filepath.Join(dataDir, "kiwii.db")
		cfg.HistoryFile = filepath.Join(dataDir, "history")
	}
	return cfg
}

// dataDir is $XDG_DATA_HOME/kiwii or ~/.local/share/kiwii.
func dataDir(env map[string]string) string {
	if xdg := env["XDG_DATA_HOME"]; xdg != "" {
		return filepath.Join(xdg, "kiwii")
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".local", "share", "kiwii")
	}
	return ""
}

// globalPath is $XDG_CONFIG_HOME/kiwii/config.json or ~/.config/kiwii/config.json.
func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "kiwii", "config.json")
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "kiwii", "config.json")
	}
	return ""
}

// Load merges all configuration layers and validates the result.
func Load(in LoadInput) (Config, error) {
	workDir := in.WorkDir
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default(in.Env)

	if path := globalPath(in.Env); path != "" {
		global, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, err
		}
		if loaded {
			cfg = merge(cfg, global)
			cfg.Sources.Global = path
		}
	}

	projectPath, mustExist := filepath.Join(workDir, FileName), false
	if in.ConfigPath != "" {
		projectPath, mustExist = in.ConfigPath, true
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}
	}
	project, loaded, err := loadFile(projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}
	if loaded {
		cfg = merge(cfg, project)
		cfg.Sources.Project = projectPath
	}

	cfg = merge(cfg, Config{DBPath: in.Overrides.DBPath, LogLevel: in.Overrides.LogLevel})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.DBPath != MemoryDB && !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(workDir, cfg.DBPath)
	}
	return cfg, nil
}

// loadFile reads one config file. A missing optional file is not an error.
func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !mustExist {
			return Config{}, false, nil
		}
		if os.IsNotExist(err) {
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	return cfg, true, nil
}

// Parse decodes a JSONC document. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	dec := json.NewDecoder(strings.NewReader(string(standardized)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.DBPath != "" {
		base.DBPath = overlay.DBPath
	}
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != "" {
		base.LogFormat = overlay.LogFormat
	}
	if overlay.HistoryFile != "" {
		base.HistoryFile = overlay.HistoryFile
	}
	if overlay.WeekStart != "" {
		base.WeekStart = overlay.WeekStart
	}
	return base
}

// Validate checks every field that has a closed set of values.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("%w: db_path cannot be empty", ErrConfigInvalid)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrConfigInvalid, c.LogFormat)
	}
	if _, err := calendar.ParseWeekday(c.WeekStart); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	return nil
}
