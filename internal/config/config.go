package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Catalog  CatalogConfig
	Team     TeamConfig
	UI       UIConfig
	Log      LogConfig
	API      APIConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// CatalogConfig holds PokeAPI client settings.
type CatalogConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Limit         int           `mapstructure:"limit"`
	Language      string        `mapstructure:"language"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Concurrency   int           `mapstructure:"concurrency"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

// TeamConfig holds roster settings.
type TeamConfig struct {
	RandomSize int `mapstructure:"random_size"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	PageSize    int                `mapstructure:"page_size"`
	StatMax     int                `mapstructure:"stat_max"`
	Keybindings []KeybindingConfig `mapstructure:"keybindings"`
}

// KeybindingConfig replaces the keys bound to one action in one TUI scope.
type KeybindingConfig struct {
	Scope  string   `mapstructure:"scope"`
	Action string   `mapstructure:"action"`
	Keys   []string `mapstructure:"keys"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string
	Path        string
	Development bool
}

// APIConfig holds the local HTTP API settings.
type APIConfig struct {
	Addr string
}

// Load reads configuration from file and env. Env var overrides use prefix POKEDEX_.
func Load() (Config, error) {
	return LoadFile(os.Getenv("POKEDEX_CONFIG"))
}

// LoadFile is Load with an explicit config file; an empty path falls back to
// ~/.config/pokedex/config.toml.
func LoadFile(cfgPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home(), ".config", "pokedex"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("POKEDEX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// a missing file is fine, a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(home(), ".local", "share", "pokedex", "pokedex.db"))
	v.SetDefault("catalog.base_url", "https://pokeapi.co/api/v2")
	v.SetDefault("catalog.limit", 100)
	v.SetDefault("catalog.language", "fr")
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("catalog.concurrency", 8)
	v.SetDefault("catalog.rate_per_second", 20.0)
	v.SetDefault("catalog.cache_ttl", 24*time.Hour)
	v.SetDefault("team.random_size", 6)
	v.SetDefault("ui.page_size", 6)
	v.SetDefault("ui.stat_max", 150)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", filepath.Join(home(), ".local", "state", "pokedex", "pokedex.log"))
	v.SetDefault("log.development", false)
	v.SetDefault("api.addr", "127.0.0.1:8765")
}

// Path returns $POKEDEX_CONFIG or the default config file location.
func Path() string {
	if path := os.Getenv("POKEDEX_CONFIG"); path != "" {
		return path
	}
	return filepath.Join(home(), ".config", "pokedex", "config.toml")
}

// Save writes the provided config to Path, creating the config directory if needed.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile writes cfg to path as TOML.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("catalog.base_url", cfg.Catalog.BaseURL)
	v.Set("catalog.limit", cfg.Catalog.Limit)
	v.Set("catalog.language", cfg.Catalog.Language)
	v.Set("catalog.timeout", cfg.Catalog.Timeout.String())
	v.Set("catalog.concurrency", cfg.Catalog.Concurrency)
	v.Set("catalog.rate_per_second", cfg.Catalog.RatePerSecond)
	v.Set("catalog.cache_ttl", cfg.Catalog.CacheTTL.String())
	v.Set("team.random_size", cfg.Team.RandomSize)
	v.Set("ui.page_size", cfg.UI.PageSize)
	v.Set("ui.stat_max", cfg.UI.StatMax)
	if len(cfg.UI.Keybindings) > 0 {
		items := make([]map[string]any, 0, len(cfg.UI.Keybindings))
		for _, kb := range cfg.UI.Keybindings {
			items = append(items, map[string]any{"scope": kb.Scope, "action": kb.Action, "keys": kb.Keys})
		}
		v.Set("ui.keybindings", items)
	}
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.development", cfg.Log.Development)
	v.Set("api.addr", cfg.API.Addr)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func home() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return os.Getenv("HOME")
}
