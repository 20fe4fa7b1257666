// Package config loads the layered JSONC configuration.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/cuckoodo/internal/command"
	"github.com/calvinalkan/cuckoodo/internal/store"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	Token       string              `json:"token,omitempty"`
	Store       StoreConfig         `json:"store"`
	Log         LogConfig           `json:"log"`
	PollTimeout int                 `json:"poll_timeout,omitempty"`
	Aliases     map[string][]string `json:"aliases,omitempty"`

	// Resolved (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	StorePathAbs string `json:"-"` // Absolute store path; empty for the memory driver

	Sources Sources `json:"-"`
}

// StoreConfig selects the repository driver.
type StoreConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
}

// Sources tracks where configuration came from.
type Sources struct {
	Global  string   // Path to global config if loaded, empty otherwise
	Project string   // Path to project or explicit config if loaded, empty otherwise
	Env     []string // Environment variables that were applied
	Flags   []string // CLI flags that were applied
}

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Environment variables read by LoadConfig.
const (
	EnvToken = "TOKEN"
	EnvStore = "CUCKOODO_STORE"
)

// ConfigFileName is the project config file name.
const ConfigFileName = ".cuckoodo.json"

// DefaultPollTimeout is the Telegram long polling timeout in seconds.
const DefaultPollTimeout = 30

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Store:       StoreConfig{Driver: store.DriverSQLite, Path: filepath.Join(".cuckoodo", "issues.db")},
		Log:         LogConfig{Level: "info", Format: FormatText},
		PollTimeout: DefaultPollTimeout,
	}
}

// globalConfigPath returns $XDG_CONFIG_HOME/cuckoodo/config.json, falling
// back to ~/.config/cuckoodo/config.json, or "" when neither is known.
func globalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "cuckoodo", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "cuckoodo", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	StoreOverride   *string           // --store flag value; nil means not given
	Env             map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config
// 3. Project config file (.cuckoodo.json), or the explicit config file
// 4. Environment (TOKEN, CUCKOODO_STORE)
// 5. CLI overrides.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	globalCfg, globalPath, err := loadOptionalFile(globalConfigPath(input.Env))
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if token := input.Env[EnvToken]; token != "" {
		cfg.Token = token
		cfg.Sources.Env = append(cfg.Sources.Env, EnvToken)
	}

	if addr, ok := input.Env[EnvStore]; ok && addr != "" {
		cfg.Store, err = ParseStoreAddress(addr)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvStore, err)
		}

		cfg.Sources.Env = append(cfg.Sources.Env, EnvStore)
	}

	if input.StoreOverride != nil {
		cfg.Store, err = ParseStoreAddress(*input.StoreOverride)
		if err != nil {
			return Config{}, fmt.Errorf("--store: %w", err)
		}

		cfg.Sources.Flags = append(cfg.Sources.Flags, "--store")
	}

	validateErr := validateConfig(cfg)
	if validateErr != nil {
		return Config{}, validateErr
	}

	cfg.EffectiveCwd = workDir

	switch {
	case cfg.Store.Driver == store.DriverMemory:
		cfg.StorePathAbs = ""
	case filepath.IsAbs(cfg.Store.Path):
		cfg.StorePathAbs = cfg.Store.Path
	default:
		cfg.StorePathAbs = filepath.Join(workDir, cfg.Store.Path)
	}

	return cfg, nil
}

// ParseStoreAddress parses "driver:path", "memory" or a bare path. A bare
// path ending in ".json" selects the file driver, anything else SQLite.
func ParseStoreAddress(addr string) (StoreConfig, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return StoreConfig{}, ErrStorePathEmpty
	}

	if addr == store.DriverMemory {
		return StoreConfig{Driver: store.DriverMemory}, nil
	}

	if driver, path, ok := strings.Cut(addr, ":"); ok && store.IsValidDriver(driver) {
		if driver == store.DriverMemory {
			return StoreConfig{}, fmt.Errorf("%w: %q (memory takes no path)", ErrStoreAddress, addr)
		}

		if path == "" {
			return StoreConfig{}, ErrStorePathEmpty
		}

		return StoreConfig{Driver: driver, Path: path}, nil
	}

	if strings.EqualFold(filepath.Ext(addr), ".json") {
		return StoreConfig{Driver: store.DriverFile, Path: addr}, nil
	}

	return StoreConfig{Driver: store.DriverSQLite, Path: addr}, nil
}

// loadOptionalFile loads path if it exists. Returns the config and the path if loaded.
func loadOptionalFile(path string) (Config, string, error) {
	if path == "" {
		return Config{}, "", nil
	}

	cfg, loaded, err := loadConfigFile(path, false)
	if err != nil || !loaded {
		return Config{}, "", err
	}

	return cfg, path, nil
}

// loadProjectConfig loads .cuckoodo.json from workDir, or configPath when given.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	if configPath == "" {
		return loadOptionalFile(filepath.Join(workDir, ConfigFileName))
	}

	cfgFile := configPath
	if !filepath.IsAbs(cfgFile) {
		cfgFile = filepath.Join(workDir, cfgFile)
	}

	_, statErr := os.Stat(cfgFile)
	if statErr != nil {
		return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
	}

	cfg, _, err := loadConfigFile(cfgFile, true)
	if err != nil {
		return Config{}, "", err
	}

	return cfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files return zero config.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	unmarshalErr := dec.Decode(&cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	// An explicitly empty path is a mistake, not "use the default".
	var raw struct {
		Store map[string]any `json:"store"`
	}

	_ = json.Unmarshal(standardized, &raw)

	if val, exists := raw.Store["path"]; exists {
		if str, ok := val.(string); ok && str == "" {
			return Config{}, ErrStorePathEmpty
		}
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Token != "" {
		base.Token = overlay.Token
	}

	if overlay.Store.Driver != "" {
		base.Store.Driver = overlay.Store.Driver
	}

	if overlay.Store.Path != "" {
		base.Store.Path = overlay.Store.Path
	}

	if overlay.Log.Level != "" {
		base.Log.Level = overlay.Log.Level
	}

	if overlay.Log.Format != "" {
		base.Log.Format = overlay.Log.Format
	}

	if overlay.PollTimeout != 0 {
		base.PollTimeout = overlay.PollTimeout
	}

	if len(overlay.Aliases) > 0 {
		merged := make(map[string][]string, len(base.Aliases)+len(overlay.Aliases))
		for kind, words := range base.Aliases {
			merged[kind] = append([]string(nil), words...)
		}

		for kind, words := range overlay.Aliases {
			merged[kind] = append(merged[kind], words...)
		}

		base.Aliases = merged
	}

	return base
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func validateConfig(cfg Config) error {
	if !store.IsValidDriver(cfg.Store.Driver) {
		return fmt.Errorf("%w: %q", store.ErrUnknownDriver, cfg.Store.Driver)
	}

	if cfg.Store.Driver != store.DriverMemory && cfg.Store.Path == "" {
		return ErrStorePathEmpty
	}

	if _, ok := logLevels[strings.ToLower(cfg.Log.Level)]; !ok {
		return fmt.Errorf("%w: %q", ErrLogLevel, cfg.Log.Level)
	}

	if cfg.Log.Format != FormatText && cfg.Log.Format != FormatJSON {
		return fmt.Errorf("%w: %q", ErrLogFormat, cfg.Log.Format)
	}

	if cfg.PollTimeout < 0 {
		return ErrPollTimeout
	}

	_, err := cfg.AliasTable()

	return err
}

// AliasTable builds the command alias table: the built-in words plus the
// configured extras.
func (c Config) AliasTable() (*command.Aliases, error) {
	extra := make(map[command.Kind][]string, len(c.Aliases))

	for name, words := range c.Aliases {
		kind, ok := command.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrAliasKind, name)
		}

		extra[kind] = append(extra[kind], words...)
	}

	aliases, err := command.NewAliases(extra)
	if err != nil {
		return nil, fmt.Errorf("aliases: %w", err)
	}

	return aliases, nil
}

// SlogLevel returns the configured level. Unknown levels mean info.
func (c Config) SlogLevel() slog.Level {
	if level, ok := logLevels[strings.ToLower(c.Log.Level)]; ok {
		return level
	}

	return slog.LevelInfo
}

// NewLogger builds the process logger writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}

	if c.Log.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// MaskedToken returns the token with all but its last four characters hidden.
func (c Config) MaskedToken() string {
	if c.Token == "" {
		return ""
	}

	const visible = 4
	if len(c.Token) <= visible {
		return strings.Repeat("*", len(c.Token))
	}

	return strings.Repeat("*", len(c.Token)-visible) + c.Token[len(c.Token)-visible:]
}

// AliasKinds returns the configured alias kinds, sorted.
func (c Config) AliasKinds() []string {
	kinds := make([]string, 0, len(c.Aliases))
	for kind := range c.Aliases {
		kinds = append(kinds, kind)
	}

	sort.Strings(kinds)

	return kinds
}
