package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pders01/mrkt/internal/navigate"
	"github.com/pders01/mrkt/internal/validation"
)

// Search backends.
const (
	BackendMemory = "memory"
	BackendBleve  = "bleve"
	BackendHTTP   = "http"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Search   SearchConfig   `mapstructure:"search"`
	Import   ImportConfig   `mapstructure:"import"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
	Navigate NavigateConfig `mapstructure:"navigate"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type SearchConfig struct {
	Backend      string        `mapstructure:"backend"`
	Endpoint     string        `mapstructure:"endpoint"`
	APIToken     string        `mapstructure:"api_token"`
	Debounce     time.Duration `mapstructure:"debounce"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	MaxHeight    int           `mapstructure:"max_height"`
	RowHeight    int           `mapstructure:"row_height"`
	Limit        int           `mapstructure:"limit"`
	Placeholder  string        `mapstructure:"placeholder"`
}

type ImportConfig struct {
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	Concurrency  int           `mapstructure:"concurrency"`
	AllowPrivate bool          `mapstructure:"allow_private"`
	MaxItems     int           `mapstructure:"max_items"`
}

type UIConfig struct {
	Colors UIColors     `mapstructure:"colors"`
	Detail DetailConfig `mapstructure:"detail"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type DetailConfig struct {
	MaxDescriptionLength int `mapstructure:"max_description_length"`
	WordWrapMaxWidth     int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth     int `mapstructure:"word_wrap_min_width"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit    string `mapstructure:"quit"`
	Search  string `mapstructure:"search"`
	Refresh string `mapstructure:"refresh"`
	Open    string `mapstructure:"open"`
	Back    string `mapstructure:"back"`
	Help    string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type NavigateConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Opener  string `mapstructure:"opener"`
}

func defaultConfig() *Config {
	dataDir := validation.DataDir()

	return &Config{
		Database: DatabaseConfig{
			Path:        filepath.Join(dataDir, "mrkt.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "index.bleve"),
		},
		Search: SearchConfig{
			Backend:      BackendBleve,
			Debounce:     200 * time.Millisecond,
			FetchTimeout: 5 * time.Second,
			CacheTTL:     30 * time.Second,
			MaxHeight:    240,
			RowHeight:    48,
			Limit:        100,
			Placeholder:  "Search for products/services or stores...",
		},
		Import: ImportConfig{
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "mrkt/1.0 (https://github.com/pders01/mrkt)",
			Concurrency: 4,
			MaxItems:    1000,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Detail: DetailConfig{
				MaxDescriptionLength: 150,
				WordWrapMaxWidth:     120,
				WordWrapMinWidth:     40,
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:    "q",
				Search:  "/",
				Refresh: "r",
				Open:    "o",
				Back:    "esc",
				Help:    "?",
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(dataDir, "mrkt.log"),
		},
		Navigate: NavigateConfig{
			BaseURL: "http://localhost:3000",
			Opener:  navigate.DefaultOpener(),
		},
	}
}

// settings flattens cfg into dotted viper keys. Durations are rendered as
// strings so the TOML stays readable.
func settings(cfg *Config) map[string]any {
	return map[string]any{
		"database.path":         cfg.Database.Path,
		"database.timeout":      cfg.Database.Timeout.String(),
		"database.search_index": cfg.Database.SearchIndex,

		"search.backend":       cfg.Search.Backend,
		"search.endpoint":      cfg.Search.Endpoint,
		"search.api_token":     cfg.Search.APIToken,
		"search.debounce":      cfg.Search.Debounce.String(),
		"search.fetch_timeout": cfg.Search.FetchTimeout.String(),
		"search.cache_ttl":     cfg.Search.CacheTTL.String(),
		"search.max_height":    cfg.Search.MaxHeight,
		"search.row_height":    cfg.Search.RowHeight,
		"search.limit":         cfg.Search.Limit,
		"search.placeholder":   cfg.Search.Placeholder,

		"import.http_timeout":  cfg.Import.HTTPTimeout.String(),
		"import.user_agent":    cfg.Import.UserAgent,
		"import.concurrency":   cfg.Import.Concurrency,
		"import.allow_private": cfg.Import.AllowPrivate,
		"import.max_items":     cfg.Import.MaxItems,

		"ui.colors.primary":                cfg.UI.Colors.Primary,
		"ui.colors.secondary":              cfg.UI.Colors.Secondary,
		"ui.colors.accent":                 cfg.UI.Colors.Accent,
		"ui.colors.background":             cfg.UI.Colors.Background,
		"ui.colors.surface":                cfg.UI.Colors.Surface,
		"ui.colors.text":                   cfg.UI.Colors.Text,
		"ui.colors.muted":                  cfg.UI.Colors.Muted,
		"ui.colors.error":                  cfg.UI.Colors.Error,
		"ui.colors.success":                cfg.UI.Colors.Success,
		"ui.detail.max_description_length": cfg.UI.Detail.MaxDescriptionLength,
		"ui.detail.word_wrap_max_width":    cfg.UI.Detail.WordWrapMaxWidth,
		"ui.detail.word_wrap_min_width":    cfg.UI.Detail.WordWrapMinWidth,

		"keys.modifier":         cfg.Keys.Modifier,
		"keys.bindings.quit":    cfg.Keys.Bindings.Quit,
		"keys.bindings.search":  cfg.Keys.Bindings.Search,
		"keys.bindings.refresh": cfg.Keys.Bindings.Refresh,
		"keys.bindings.open":    cfg.Keys.Bindings.Open,
		"keys.bindings.back":    cfg.Keys.Bindings.Back,
		"keys.bindings.help":    cfg.Keys.Bindings.Help,

		"log.level": cfg.Log.Level,
		"log.file":  cfg.Log.File,

		"navigate.base_url": cfg.Navigate.BaseURL,
		"navigate.opener":   cfg.Navigate.Opener,
	}
}

// DefaultPath is where Load looks when no file is given.
func DefaultPath() string {
	return filepath.Join(validation.ConfigDir(), "config.toml")
}

// Load reads configPath (or config.toml from the default locations), layers
// MRKT_* environment variables on top of it and fills the rest from defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	for key, value := range settings(defaultConfig()) {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(validation.ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MRKT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)
	return &config, nil
}

// expandPath expands ~ and makes the path absolute. Special values such as
// ":memory:" are left alone.
func expandPath(path string) string {
	if path == "" || strings.HasPrefix(path, ":") {
		return path
	}
	if expanded, err := validation.ExpandHome(path); err == nil {
		path = expanded
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	switch c.Search.Backend {
	case BackendMemory, BackendBleve:
	case BackendHTTP:
		v := validation.NewLocalEndpointValidator()
		if _, err := v.Normalize(c.Search.Endpoint); err != nil {
			return fmt.Errorf("search.endpoint: %w", err)
		}
	default:
		return fmt.Errorf("search.backend: unknown backend %q", c.Search.Backend)
	}
	if c.Search.RowHeight <= 0 || c.Search.MaxHeight <= 0 {
		return fmt.Errorf("search: max_height and row_height must be positive")
	}
	if c.Import.Concurrency < 1 {
		return fmt.Errorf("import.concurrency must be at least 1")
	}
	if c.Navigate.BaseURL != "" {
		if _, err := validation.NewLocalEndpointValidator().Normalize(c.Navigate.BaseURL); err != nil {
			return fmt.Errorf("navigate.base_url: %w", err)
		}
	}
	return nil
}

// Save writes cfg as TOML, creating the directory if needed.
func Save(config *Config, path string) error {
	v := viper.New()
	for key, value := range settings(config) {
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
