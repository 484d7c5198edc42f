// Package config loads settings from .env, an optional config.yaml and the
// environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port       string                  `mapstructure:"port"`
	LogLevel   string                  `mapstructure:"log_level"`
	Currency   string                  `mapstructure:"currency"`
	Database   DatabaseConfig          `mapstructure:"database"`
	JWT        JWTConfig               `mapstructure:"jwt"`
	Admin      AdminConfig             `mapstructure:"admin"`
	Redis      RedisConfig             `mapstructure:"redis"`
	Telr       TelrConfig              `mapstructure:"telr"`
	Escrow     EscrowConfig            `mapstructure:"escrow"`
	Tickets    TicketsConfig           `mapstructure:"tickets"`
	Aggregates AggregatesConfig        `mapstructure:"aggregates"`
	Checkout   CheckoutConfig          `mapstructure:"checkout"`
	Manual     map[string]ManualConfig `mapstructure:"manual"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN prefers a full URL and falls back to the individual parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type TelrConfig struct {
	StoreID       int           `mapstructure:"store_id"`
	AuthKey       string        `mapstructure:"auth_key"`
	APIURL        string        `mapstructure:"api_url"`
	Mode          string        `mapstructure:"mode"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	SuccessURL    string        `mapstructure:"success_url"`
	FailureURL    string        `mapstructure:"failure_url"`
	CancelURL     string        `mapstructure:"cancel_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// Sandbox reports whether Telr runs in test mode. Webhook signatures are
// not checked in sandbox.
func (t TelrConfig) Sandbox() bool {
	m := strings.ToLower(t.Mode)
	return m == "sandbox" || m == "dev"
}

type EscrowConfig struct {
	HoldWindow    time.Duration `mapstructure:"hold_window"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type TicketsConfig struct {
	HighValueThreshold float64 `mapstructure:"high_value_threshold"`
}

func (t TicketsConfig) Threshold() decimal.Decimal {
	return decimal.NewFromFloat(t.HighValueThreshold)
}

type AggregatesConfig struct {
	MaxRows    int           `mapstructure:"max_rows"`
	BatchSize  int           `mapstructure:"batch_size"`
	WindowDays int           `mapstructure:"window_days"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

type CheckoutConfig struct {
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

// ManualConfig is where buyers send funds for a manual-reference method.
type ManualConfig struct {
	AccountName   string `mapstructure:"account_name"`
	AccountNumber string `mapstructure:"account_number"`
	WalletAddress string `mapstructure:"wallet_address"`
	PayID         string `mapstructure:"pay_id"`
}

var manualMethods = []string{"orange_money", "mtn_momo", "binance"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("currency", "XAF")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "yar")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("admin.api_key", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Minute)

	v.SetDefault("telr.store_id", 0)
	v.SetDefault("telr.auth_key", "")
	v.SetDefault("telr.api_url", "https://secure.telr.com/gateway/order.json")
	v.SetDefault("telr.mode", "sandbox")
	v.SetDefault("telr.webhook_secret", "")
	v.SetDefault("telr.success_url", "")
	v.SetDefault("telr.failure_url", "")
	v.SetDefault("telr.cancel_url", "")
	v.SetDefault("telr.timeout", 15*time.Second)

	v.SetDefault("escrow.hold_window", 7*24*time.Hour)
	v.SetDefault("escrow.sweep_interval", time.Hour)
	v.SetDefault("tickets.high_value_threshold", 100000)

	v.SetDefault("aggregates.max_rows", 50000)
	v.SetDefault("aggregates.batch_size", 500)
	v.SetDefault("aggregates.window_days", 30)
	v.SetDefault("aggregates.cache_ttl", time.Minute)

	v.SetDefault("checkout.rate_per_second", 1.0)
	v.SetDefault("checkout.burst", 5)

	for _, m := range manualMethods {
		for _, field := range []string{"account_name", "account_number", "wallet_address", "pay_id"} {
			v.SetDefault("manual."+m+"."+field, "")
		}
	}
}

// legacyEnv keeps the variable names older deployments already set.
var legacyEnv = map[string][]string{
	"database.host":       {"DATABASE_HOST", "DB_HOST"},
	"database.port":       {"DATABASE_PORT", "DB_PORT"},
	"database.user":       {"DATABASE_USER", "DB_USER"},
	"database.password":   {"DATABASE_PASSWORD", "DB_PASSWORD"},
	"database.name":       {"DATABASE_NAME", "DB_NAME"},
	"admin.api_key":       {"ADMIN_API_KEY", "COST_API_KEY"},
	"telr.store_id":       {"TELR_STORE_ID", "TELR_STORE_ID_PROD"},
	"telr.auth_key":       {"TELR_AUTH_KEY", "TELR_AUTH_KEY_PROD"},
	"telr.api_url":        {"TELR_API_URL", "TELR_API_URL_PROD"},
	"telr.success_url":    {"TELR_SUCCESS_URL"},
	"telr.failure_url":    {"TELR_FAILURE_URL"},
	"telr.cancel_url":     {"TELR_CANCEL_URL"},
	"telr.webhook_secret": {"TELR_WEBHOOK_SECRET"},
}

// Load reads .env (if present), then path or ./config.yaml (if present),
// then the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read config.yaml: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// ValidateServe checks what the HTTP server cannot start without.
func (c *Config) ValidateServe() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is not set"))
	}
	if c.Admin.APIKey == "" {
		errs = append(errs, errors.New("admin.api_key is not set"))
	}
	if !c.Telr.Sandbox() && c.Telr.WebhookSecret == "" {
		errs = append(errs, errors.New("telr.webhook_secret is not set"))
	}
	if c.Escrow.SweepInterval <= 0 {
		errs = append(errs, errors.New("escrow.sweep_interval must be positive"))
	}
	return errors.Join(errs...)
}
