package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Catalog sources.
const (
	CatalogBuiltin  = "builtin"
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	CatalogSource string `mapstructure:"CATALOG_SOURCE"`
	CatalogFile   string `mapstructure:"CATALOG_FILE"`
	CatalogWatch  bool   `mapstructure:"CATALOG_WATCH"`

	ScreeningOverdueGraceYears  int `mapstructure:"SCREENING_OVERDUE_GRACE_YEARS"`
	ChronicCareOverdueGraceDays int `mapstructure:"CHRONIC_CARE_OVERDUE_GRACE_DAYS"`

	RateLimitRPS     float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int           `mapstructure:"RATE_LIMIT_BURST"`
	RateLimitClients int           `mapstructure:"RATE_LIMIT_CLIENTS"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit        string        `mapstructure:"BODY_LIMIT"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`

	TLSEnabled  bool   `mapstructure:"TLS_ENABLED"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`
}

var defaults = map[string]interface{}{
	"PORT":                            "8000",
	"ENV":                             "development",
	"LOG_LEVEL":                       "info",
	"DB_MAX_CONNS":                    10,
	"DB_MIN_CONNS":                    2,
	"CATALOG_SOURCE":                  CatalogBuiltin,
	"CATALOG_WATCH":                   false,
	"SCREENING_OVERDUE_GRACE_YEARS":   10,
	"CHRONIC_CARE_OVERDUE_GRACE_DAYS": 30,
	"RATE_LIMIT_RPS":                  100,
	"RATE_LIMIT_BURST":                200,
	"RATE_LIMIT_CLIENTS":              10000,
	"REQUEST_TIMEOUT":                 "10s",
	"BODY_LIMIT":                      "1M",
	"CORS_ORIGINS":                    "*",
}

var envOnly = []string{"DATABASE_URL", "CATALOG_FILE", "TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE"}

// Load reads the environment, falling back to a .env file in the working
// directory and then to defaults. It does not validate; call Validate.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
		v.BindEnv(key)
	}
	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envOnly {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CatalogSource = strings.ToLower(strings.TrimSpace(cfg.CatalogSource))
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)
	return cfg, nil
}

// splitOrigins flattens comma-separated entries, as a .env file yields one
// string for CORS_ORIGINS.
func splitOrigins(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, o := range strings.Split(entry, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration can run the selected catalog source
// and listener.
func (c *Config) Validate() error {
	switch c.CatalogSource {
	case CatalogBuiltin:
	case CatalogFile:
		if c.CatalogFile == "" {
			return fmt.Errorf("CATALOG_FILE is required when CATALOG_SOURCE is %q", CatalogFile)
		}
	case CatalogPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when CATALOG_SOURCE is %q", CatalogPostgres)
		}
	default:
		return fmt.Errorf("CATALOG_SOURCE must be %q, %q or %q, got %q",
			CatalogBuiltin, CatalogFile, CatalogPostgres, c.CatalogSource)
	}
	if c.CatalogWatch && c.CatalogSource != CatalogFile {
		return fmt.Errorf("CATALOG_WATCH requires CATALOG_SOURCE=%s", CatalogFile)
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) and DB_MAX_CONNS (%d) must satisfy 0 <= min <= max, max >= 1",
			c.DBMinConns, c.DBMaxConns)
	}
	if c.ScreeningOverdueGraceYears < 0 {
		return fmt.Errorf("SCREENING_OVERDUE_GRACE_YEARS must not be negative")
	}
	if c.ChronicCareOverdueGraceDays < 0 {
		return fmt.Errorf("CHRONIC_CARE_OVERDUE_GRACE_DAYS must not be negative")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 || c.RateLimitClients < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS, RATE_LIMIT_BURST and RATE_LIMIT_CLIENTS must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}
	return nil
}

// Level is the parsed LOG_LEVEL, info when it does not parse.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// ChronicCareOverdueGrace is ChronicCareOverdueGraceDays as a duration.
func (c *Config) ChronicCareOverdueGrace() time.Duration {
	return time.Duration(c.ChronicCareOverdueGraceDays) * 24 * time.Hour
}
