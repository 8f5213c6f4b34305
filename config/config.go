package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/romangod6/sitemapgen/internal/sitemap"
)

type Route struct {
	URI     string   `mapstructure:"uri"`
	Methods []string `mapstructure:"methods"`
}

type StaticPage struct {
	URL          string   `mapstructure:"url"`
	LastModified string   `mapstructure:"last_modified"`
	ChangeFreq   string   `mapstructure:"change_freq"`
	Priority     *float64 `mapstructure:"priority"`
}

type Collection struct {
	Type         string         `mapstructure:"type"`
	Table        string         `mapstructure:"table"`
	Route        string         `mapstructure:"route"`
	SlugField    string         `mapstructure:"slug_field"`
	UpdatedField string         `mapstructure:"updated_field"`
	CreatedField string         `mapstructure:"created_field"`
	Where        map[string]any `mapstructure:"where"`
	ChangeFreq   string         `mapstructure:"change_freq"`
	Priority     *float64       `mapstructure:"priority"`
}

type Config struct {
	Site struct {
		BaseURL       string `mapstructure:"base_url"`
		Normalization string
	}
	Sitemap struct {
		DefaultPriority   float64      `mapstructure:"default_priority"`
		DefaultChangeFreq string       `mapstructure:"default_change_freq"`
		IncludeDefaults   bool         `mapstructure:"include_defaults"`
		ExcludedRoutes    []string     `mapstructure:"excluded_routes"`
		MaxURLs           int          `mapstructure:"max_urls"`
		MaxBytes          int          `mapstructure:"max_bytes"`
		OutputDir         string       `mapstructure:"output_dir"`
		StaticPages       []StaticPage `mapstructure:"static_pages"`
		Routes            []Route
		Collections       []Collection
		Imports           []string
	}
	Database struct {
		Driver string
		URL    string
		// Migrate creates the built-in pages table on startup. Collections
		// never need it.
		Migrate bool
	}
	Server struct {
		Port            int
		CacheTTL        string `mapstructure:"cache_ttl"`
		RefreshInterval string `mapstructure:"refresh_interval"`
	}
	Redis struct {
		Address string
	}
	Crawler struct {
		Enabled   bool
		StartURL  string `mapstructure:"start_url"`
		UserAgent string `mapstructure:"user_agent"`
		MaxDepth  int    `mapstructure:"max_depth"`
	}
	Log struct {
		Dir string
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.normalization", "relative")
	v.SetDefault("sitemap.default_priority", 0.5)
	v.SetDefault("sitemap.default_change_freq", "weekly")
	v.SetDefault("sitemap.include_defaults", false)
	v.SetDefault("sitemap.max_urls", 50000)
	v.SetDefault("sitemap.max_bytes", 50*1024*1024)
	v.SetDefault("sitemap.output_dir", "public")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.migrate", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cache_ttl", "1h")
	v.SetDefault("crawler.user_agent", "sitemapgen/1.0")
	v.SetDefault("crawler.max_depth", 3)
}

// Load reads config.yaml from ".", "./config" or the explicit path, with
// SITEMAPGEN_* environment overrides. A missing default file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("sitemapgen")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// The default exclusion set applies unless the key is configured,
	// including when it is configured as an empty list.
	if !v.IsSet("sitemap.excluded_routes") {
		config.Sitemap.ExcludedRoutes = nil
	} else if config.Sitemap.ExcludedRoutes == nil {
		config.Sitemap.ExcludedRoutes = []string{}
	}

	return &config, nil
}

func (c *Config) GetCacheTTL() time.Duration {
	duration, err := time.ParseDuration(c.Server.CacheTTL)
	if err != nil {
		return time.Hour
	}
	return duration
}

// GetRefreshInterval returns how often the server regenerates its cached
// documents. Zero disables periodic regeneration.
func (c *Config) GetRefreshInterval() time.Duration {
	if c.Server.RefreshInterval == "" {
		return 0
	}
	duration, err := time.ParseDuration(c.Server.RefreshInterval)
	if err != nil || duration < 0 {
		return 0
	}
	return duration
}

// Validate checks the values that would otherwise only fail mid-generation.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Site.Normalization) {
	case "", "relative":
	case "absolute":
		if c.Site.BaseURL == "" {
			return fmt.Errorf("site.base_url is required for absolute normalization")
		}
		if err := sitemap.ValidateBaseURL(c.Site.BaseURL); err != nil {
			return fmt.Errorf("site.base_url: %w", err)
		}
	default:
		return fmt.Errorf("unknown site.normalization %q", c.Site.Normalization)
	}
	if math.IsNaN(c.Sitemap.DefaultPriority) || c.Sitemap.DefaultPriority < 0 || c.Sitemap.DefaultPriority > 1 {
		return fmt.Errorf("sitemap.default_priority %v outside [0,1]", c.Sitemap.DefaultPriority)
	}
	for i, col := range c.Sitemap.Collections {
		if col.Type == "" {
			return fmt.Errorf("sitemap.collections[%d]: type is required", i)
		}
	}
	return nil
}
