package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EmDash is the character whose replacement is context-aware rather than
// table-driven. All other substitutions are plain character lookups.
const EmDash = "—"

// Category names used across the substitution tables.
const (
	CategorySmartQuotes  = "smart_quotes"
	CategoryEmDashes     = "em_dashes"
	CategoryEnDashes     = "en_dashes"
	CategoryEllipsis     = "ellipsis"
	CategoryAngleQuotes  = "angle_quotes"
	CategoryTrademarks   = "trademarks"
	CategoryMathematical = "mathematical"
	CategoryFractions    = "fractions"
	CategoryFootnotes    = "footnotes"
	CategoryUnits        = "units"
	CategoryCurrency     = "currency"
)

// GeneralConfig holds the document-level cleanup switches applied after
// character substitution.
type GeneralConfig struct {
	NormalizeUnicode     bool `mapstructure:"normalize_unicode" json:"normalize_unicode"`
	RemoveCombiningChars bool `mapstructure:"remove_combining_chars" json:"remove_combining_chars"`
	RemoveNonASCII       bool `mapstructure:"remove_non_ascii" json:"remove_non_ascii"`
	NormalizeWhitespace  bool `mapstructure:"normalize_whitespace" json:"normalize_whitespace"`
	ProtectMarkdownCode  bool `mapstructure:"protect_markdown_code" json:"protect_markdown_code"`
}

// Category is one group of character replacements that can be toggled as a
// unit. ContextualMode only has meaning for the em-dash category.
type Category struct {
	Enabled        bool              `mapstructure:"enabled" json:"enabled"`
	ContextualMode bool              `mapstructure:"contextual_mode" json:"contextual_mode,omitempty"`
	Replacements   map[string]string `mapstructure:"replacements" json:"replacements"`
}

// NLPConfig configures the contextual dash engine.
type NLPConfig struct {
	Provider    string        `mapstructure:"provider" json:"provider"`
	WindowWidth int           `mapstructure:"window_width" json:"window_width"`
	CacheSize   int           `mapstructure:"cache_size" json:"cache_size"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout_seconds" json:"idle_timeout_seconds"`
	StatsFile   string        `mapstructure:"stats_file" json:"stats_file,omitempty"`
}

// Config holds the application's configuration
type Config struct {
	LogLevel    string              `mapstructure:"log_level" json:"log_level"`
	WebPort     int                 `mapstructure:"web_port" json:"web_port"`
	DatabaseURL string              `mapstructure:"database_url" json:"database_url,omitempty"`
	General     GeneralConfig       `mapstructure:"general" json:"general"`
	NLP         NLPConfig           `mapstructure:"nlp" json:"nlp"`
	Categories  map[string]Category `mapstructure:"character_replacements" json:"character_replacements"`

	mu     sync.RWMutex
	viper  *viper.Viper
	path   string
	logger *zap.Logger
}

// Load reads configuration from the default location
// (~/.llm-output-scrub/config.json), creating the file with defaults on
// first run. Environment variables prefixed with SCRUB_ override file values.
func Load(logger *zap.Logger) *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return LoadFrom(filepath.Join(home, ".llm-output-scrub", "config.json"), logger)
}

// LoadFrom reads configuration from an explicit path.
func LoadFrom(path string, logger *zap.Logger) *Config {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("SCRUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{viper: v, path: path, logger: logger}

	if err := v.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	if err := cfg.unmarshal(); err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
			os.Exit(1)
		}
	}

	// First run: persist the defaults so users have a file to edit.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cfg.Save(); err != nil && logger != nil {
			logger.Warn("Could not write default config file", zap.Error(err))
		}
	}

	return cfg
}

func (c *Config) unmarshal() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.viper.Unmarshal(c); err != nil {
		return err
	}

	// The file stores seconds; convert to a proper time.Duration.
	if c.NLP.IdleTimeout < time.Second {
		c.NLP.IdleTimeout = c.NLP.IdleTimeout * time.Second
	}
	return nil
}

// Reload re-reads the config file in place. Safe to call concurrently with
// the accessors below.
func (c *Config) Reload() error {
	if err := c.viper.ReadInConfig(); err != nil {
		return err
	}
	return c.unmarshal()
}

// Watch invokes onChange every time the config file is rewritten on disk.
// The config is reloaded before onChange runs.
func (c *Config) Watch(onChange func()) {
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		if err := c.Reload(); err != nil {
			if c.logger != nil {
				c.logger.Warn("Config reload failed", zap.String("file", e.Name), zap.Error(err))
			}
			return
		}
		if c.logger != nil {
			c.logger.Info("Config reloaded", zap.String("file", e.Name))
		}
		if onChange != nil {
			onChange()
		}
	})
	c.viper.WatchConfig()
}

// Save writes the current configuration as indented JSON.
func (c *Config) Save() error {
	c.mu.RLock()
	out := struct {
		LogLevel    string              `json:"log_level"`
		WebPort     int                 `json:"web_port"`
		DatabaseURL string              `json:"database_url,omitempty"`
		General     GeneralConfig       `json:"general"`
		NLP         NLPConfig           `json:"nlp"`
		Categories  map[string]Category `json:"character_replacements"`
	}{c.LogLevel, c.WebPort, c.DatabaseURL, c.General, nlpForFile(c.NLP), c.Categories}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path, append(data, '\n'), 0o644)
}

// nlpForFile converts the idle timeout back to seconds for persistence.
func nlpForFile(n NLPConfig) NLPConfig {
	n.IdleTimeout = time.Duration(n.IdleTimeout / time.Second)
	return n
}

// GeneralSettings returns a copy of the document-level cleanup switches.
func (c *Config) GeneralSettings() GeneralConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.General
}

// Path returns the location of the configuration file.
func (c *Config) Path() string {
	return c.path
}

// AllReplacements flattens every enabled category into one character
// substitution table. The em dash is excluded while contextual mode is on;
// it is handled by the dash engine instead.
func (c *Config) AllReplacements() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	replacements := make(map[string]string)
	for name, cat := range c.Categories {
		if !cat.Enabled {
			continue
		}
		for from, to := range cat.Replacements {
			if name == CategoryEmDashes && cat.ContextualMode && from == EmDash {
				continue
			}
			replacements[from] = to
		}
	}
	return replacements
}

// IsCategoryEnabled reports whether a replacement category is switched on.
// Unknown categories are disabled.
func (c *Config) IsCategoryEnabled(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Categories[name].Enabled
}

// SetCategoryEnabled toggles a category and persists the change.
func (c *Config) SetCategoryEnabled(name string, enabled bool) error {
	c.mu.Lock()
	cat, ok := c.Categories[name]
	if ok {
		cat.Enabled = enabled
		c.Categories[name] = cat
	}
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.Save()
}

// EmDashEnabled reports whether em dashes are replaced at all.
func (c *Config) EmDashEnabled() bool {
	return c.IsCategoryEnabled(CategoryEmDashes)
}

// EmDashContextual reports whether em-dash replacement goes through the
// context classifier rather than the simple substitution table.
func (c *Config) EmDashContextual() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat := c.Categories[CategoryEmDashes]
	return cat.Enabled && cat.ContextualMode
}

// SetEmDashContextual switches contextual mode and persists the change.
func (c *Config) SetEmDashContextual(contextual bool) error {
	c.mu.Lock()
	cat, ok := c.Categories[CategoryEmDashes]
	if ok {
		cat.ContextualMode = contextual
		c.Categories[CategoryEmDashes] = cat
	}
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.Save()
}

// SimpleEmDashReplacement returns the table replacement used when contextual
// mode is off.
func (c *Config) SimpleEmDashReplacement() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if r, ok := c.Categories[CategoryEmDashes].Replacements[EmDash]; ok {
		return r
	}
	return "-"
}

// CategoryNames returns the known category names.
func (c *Config) CategoryNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.Categories))
	for name := range c.Categories {
		names = append(names, name)
	}
	return names
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("web_port", 8585)
	v.SetDefault("database_url", "")

	v.SetDefault("general.normalize_unicode", true)
	v.SetDefault("general.remove_combining_chars", false)
	v.SetDefault("general.remove_non_ascii", false)
	v.SetDefault("general.normalize_whitespace", false)
	v.SetDefault("general.protect_markdown_code", false)

	v.SetDefault("nlp.provider", "prose")
	v.SetDefault("nlp.window_width", 500)
	v.SetDefault("nlp.cache_size", 512)
	v.SetDefault("nlp.idle_timeout_seconds", 300)
	v.SetDefault("nlp.stats_file", "")

	for name, cat := range defaultCategories() {
		v.SetDefault(fmt.Sprintf("character_replacements.%s.enabled", name), cat.Enabled)
		if name == CategoryEmDashes {
			v.SetDefault(fmt.Sprintf("character_replacements.%s.contextual_mode", name), cat.ContextualMode)
		}
		for from, to := range cat.Replacements {
			v.SetDefault(fmt.Sprintf("character_replacements.%s.replacements.%s", name, from), to)
		}
	}
}

// defaultCategories mirrors the stock substitution tables: the four common
// typographic categories are on by default, the long tail is opt-in.
func defaultCategories() map[string]Category {
	return map[string]Category{
		CategorySmartQuotes: {
			Enabled: true,
			Replacements: map[string]string{
				"“": `"`,
				"”": `"`,
				"‘": "'",
				"’": "'",
			},
		},
		CategoryEmDashes: {
			Enabled:        true,
			ContextualMode: true,
			Replacements: map[string]string{
				EmDash: "-", // ignored in contextual mode
			},
		},
		CategoryEnDashes: {
			Enabled: true,
			Replacements: map[string]string{
				"–": "-",
			},
		},
		CategoryEllipsis: {
			Enabled: true,
			Replacements: map[string]string{
				"…": "...",
			},
		},
		CategoryAngleQuotes: {
			Enabled: false,
			Replacements: map[string]string{
				"‹": "<",
				"›": ">",
				"«": "<<",
				"»": ">>",
			},
		},
		CategoryTrademarks: {
			Enabled: false,
			Replacements: map[string]string{
				"™": "(TM)",
				"®": "(R)",
			},
		},
		CategoryMathematical: {
			Enabled: false,
			Replacements: map[string]string{
				"≤": "<=",
				"≥": ">=",
				"≠": "!=",
				"≈": "~",
				"±": "+/-",
			},
		},
		CategoryFractions: {
			Enabled: false,
			Replacements: map[string]string{
				"¼": "1/4",
				"½": "1/2",
				"¾": "3/4",
			},
		},
		CategoryFootnotes: {
			Enabled: false,
			Replacements: map[string]string{
				"†": "*",
				"‡": "**",
			},
		},
		CategoryUnits: {
			Enabled: false,
			Replacements: map[string]string{
				"×": "*",
				"÷": "/",
				"‰": " per thousand",
				"‱": " per ten thousand",
			},
		},
		CategoryCurrency: {
			Enabled: false,
			Replacements: map[string]string{
				"€": "EUR",
				"£": "GBP",
				"¥": "JPY",
				"¢": "cents",
			},
		},
	}
}
