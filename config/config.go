// Package config loads server and crawler settings from a config file and
// SEOAUDIT_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           string  `mapstructure:"port"`
	GinMode        string  `mapstructure:"gin_mode"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	DataDir        string  `mapstructure:"data_dir"`
}

type CrawlerConfig struct {
	MaxPages       int           `mapstructure:"max_pages"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	UserAgent      string        `mapstructure:"user_agent"`
	PageTimeout    time.Duration `mapstructure:"page_timeout"`
	SitemapTimeout time.Duration `mapstructure:"sitemap_timeout"`
	CheckLinks     bool          `mapstructure:"check_links"`
	MaxImages      int           `mapstructure:"max_images"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// Load reads configuration from the given file (optional) layered under
// SEOAUDIT_* environment variables.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SEOAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("seoaudit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.seoaudit")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8082")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.rate_limit_rps", 2.0)
	v.SetDefault("server.rate_limit_burst", 5)
	v.SetDefault("server.data_dir", "./data")

	v.SetDefault("crawler.max_pages", 10)
	v.SetDefault("crawler.requests_per_sec", 2.0)
	v.SetDefault("crawler.user_agent", "msd-seo-audit/1.0 (+https://github.com/upworkmkd/msd-seo-audit)")
	v.SetDefault("crawler.page_timeout", 30*time.Second)
	v.SetDefault("crawler.sitemap_timeout", 10*time.Second)
	v.SetDefault("crawler.check_links", false)
	v.SetDefault("crawler.max_images", 50)
	v.SetDefault("crawler.cache_ttl", 30*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
