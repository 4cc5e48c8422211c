package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
)

type Config struct {
	Log       Logger    `mapstructure:"logger"`
	API       API       `mapstructure:"api"`
	Backend   Backend   `mapstructure:"backend"`
	DB        Database  `mapstructure:"database"`
	Catalog   Catalog   `mapstructure:"catalog"`
	Session   Session   `mapstructure:"session"`
	RateLimit RateLimit `mapstructure:"rate_limit"`

	// settings holds the raw settings file without the env overlay. The
	// credential resolver reads it so file sources keep priority over env.
	settings map[string]interface{}
}

type Logger struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" validate:"oneof=json console"`
}

type API struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// Backend configures the data gateway. The url and key of the section are
// read by the credential resolver from the raw settings, not decoded here.
type Backend struct {
	Driver     string        `mapstructure:"driver" validate:"oneof=rest postgres"`
	RestPath   string        `mapstructure:"rest_path"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RetryCount int           `mapstructure:"retry_count" validate:"min=0,max=10"`
	Manifest   Manifest      `mapstructure:"manifest"`
	Details    Details       `mapstructure:"details"`
}

// Manifest maps the logical manifest fields onto the physical table. Column
// names differ between manifest versions.
type Manifest struct {
	Table           string `mapstructure:"table" validate:"required"`
	CodeColumn      string `mapstructure:"code_column" validate:"required"`
	ImageColumn     string `mapstructure:"image_column" validate:"required"`
	ExcelColumn     string `mapstructure:"excel_column" validate:"required"`
	PublishedColumn string `mapstructure:"published_column" validate:"required"`
	OrderColumn     string `mapstructure:"order_column" validate:"required"`
	OrderDesc       bool   `mapstructure:"order_desc"`
}

type Details struct {
	Table             string `mapstructure:"table" validate:"required"`
	CodeColumn        string `mapstructure:"code_column" validate:"required"`
	PerformanceColumn string `mapstructure:"performance_column" validate:"required"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type Catalog struct {
	Title           string `mapstructure:"title"`
	PageSizeMobile  int    `mapstructure:"page_size_mobile" validate:"min=1"`
	PageSizeDesktop int    `mapstructure:"page_size_desktop" validate:"min=1"`
	ColumnsMobile   int    `mapstructure:"columns_mobile" validate:"min=1"`
	ColumnsDesktop  int    `mapstructure:"columns_desktop" validate:"min=1"`
	ContactURL      string `mapstructure:"contact_url" validate:"omitempty,url"`
	WithCount       bool   `mapstructure:"with_count"`
}

type Session struct {
	CookieName      string        `mapstructure:"cookie_name" validate:"required"`
	TTL             time.Duration `mapstructure:"ttl" validate:"gt=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
}

type RateLimit struct {
	Rate      float64       `mapstructure:"rate" validate:"gt=0"`
	Burst     int           `mapstructure:"burst" validate:"min=1"`
	ExpiresIn time.Duration `mapstructure:"expires_in" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("api.port", 8080)

	v.SetDefault("backend.driver", DriverREST)
	v.SetDefault("backend.rest_path", "/rest/v1")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.retry_count", 2)
	v.SetDefault("backend.manifest.table", "backtests")
	v.SetDefault("backend.manifest.code_column", "code")
	v.SetDefault("backend.manifest.image_column", "image_url")
	v.SetDefault("backend.manifest.excel_column", "excel_url")
	v.SetDefault("backend.manifest.published_column", "published")
	v.SetDefault("backend.manifest.order_column", "created_at")
	v.SetDefault("backend.manifest.order_desc", true)
	v.SetDefault("backend.details.table", "backtest_details")
	v.SetDefault("backend.details.code_column", "code")
	v.SetDefault("backend.details.performance_column", "performance_json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.log_level", "Warn")

	v.SetDefault("catalog.title", "TradingApp — Catalogo Equity")
	v.SetDefault("catalog.page_size_mobile", 6)
	v.SetDefault("catalog.page_size_desktop", 12)
	v.SetDefault("catalog.columns_mobile", 1)
	v.SetDefault("catalog.columns_desktop", 3)
	v.SetDefault("catalog.contact_url", "https://www.tailorcoding.com/contatti-tailor-coding")
	v.SetDefault("catalog.with_count", true)

	v.SetDefault("session.cookie_name", "catalog_session")
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("session.cleanup_interval", 30*time.Minute)

	v.SetDefault("rate_limit.rate", 10)
	v.SetDefault("rate_limit.burst", 30)
	v.SetDefault("rate_limit.expires_in", 3*time.Minute)
}

// Load reads config.yaml (or the file at path) with env overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env only seeds the process environment
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	settings := map[string]interface{}{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		raw := viper.New()
		raw.SetConfigType("yaml")
		raw.SetConfigFile(v.ConfigFileUsed())
		if err := raw.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
		settings = raw.AllSettings()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.settings = settings

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Settings returns the raw settings file content, keys lower-cased.
func (c *Config) Settings() map[string]interface{} {
	if c.settings == nil {
		return map[string]interface{}{}
	}
	return c.settings
}

// WithSettings replaces the raw settings used for credential resolution.
func (c *Config) WithSettings(settings map[string]interface{}) *Config {
	c.settings = settings
	return c
}
