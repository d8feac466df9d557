package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	sslModeDisable = "disable"
	sslModeRequire = "require"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	StorageNone  = "none"
	StorageLocal = "local"
	StorageS3    = "s3"
)

type (
	Config struct {
		Host     string `mapstructure:"HOST"`
		Port     string `mapstructure:"PORT"`
		GRPCPort string `mapstructure:"GRPC_PORT"`
		LogLevel string `mapstructure:"LOG_LEVEL"`

		DBDriver   string `mapstructure:"DB_DRIVER"`
		DBHost     string `mapstructure:"DB_HOST"`
		DBPort     string `mapstructure:"DB_PORT"`
		DBUser     string `mapstructure:"DB_USER"`
		DBPassword string `mapstructure:"DB_PASSWORD"`
		DBName     string `mapstructure:"DB_NAME"`
		DBSSLMode  string `mapstructure:"DB_SSL_MODE"`
		DBPath     string `mapstructure:"DB_PATH"`

		// APIToken, when set, is the only accepted Authorization header value
		// for mutating endpoints.
		APIToken        string `mapstructure:"API_TOKEN"`
		AppURL          string `mapstructure:"APP_URL"`
		ExtensionOrigin string `mapstructure:"EXTENSION_ORIGIN"`

		FetchTimeout time.Duration `mapstructure:"FETCH_TIMEOUT"`
		FetchRPS     float64       `mapstructure:"FETCH_RPS"`
		FetchBurst   int           `mapstructure:"FETCH_BURST"`
		// FetchMaxBytes caps how much of a page body is read.
		FetchMaxBytes int64 `mapstructure:"FETCH_MAX_BYTES"`

		ScreenshotAPIURL  string        `mapstructure:"SCREENSHOT_API_URL"`
		ScreenshotAPIKey  string        `mapstructure:"SCREENSHOT_API_KEY"`
		ScreenshotTimeout time.Duration `mapstructure:"SCREENSHOT_TIMEOUT"`

		AIBaseURL string        `mapstructure:"AI_BASE_URL"`
		AIAPIKey  string        `mapstructure:"AI_API_KEY"`
		AITimeout time.Duration `mapstructure:"AI_TIMEOUT"`

		StorageDriver     string `mapstructure:"STORAGE_DRIVER"`
		StorageLocalDir   string `mapstructure:"STORAGE_LOCAL_DIR"`
		StoragePublicURL  string `mapstructure:"STORAGE_PUBLIC_URL"`
		S3Bucket          string `mapstructure:"S3_BUCKET"`
		S3Region          string `mapstructure:"S3_REGION"`
		S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
		S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
		S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	}
)

var defaults = map[string]interface{}{
	"HOST":      "0.0.0.0",
	"PORT":      "1323",
	"GRPC_PORT": "9000",
	"LOG_LEVEL": "info",

	"DB_DRIVER":   DBDriverPostgres,
	"DB_HOST":     "0.0.0.0",
	"DB_PORT":     "5432",
	"DB_USER":     "user",
	"DB_PASSWORD": "password",
	"DB_NAME":     "db",
	"DB_SSL_MODE": sslModeDisable,
	"DB_PATH":     "bookmarker.db",

	"API_TOKEN":        "",
	"APP_URL":          "",
	"EXTENSION_ORIGIN": "chrome-extension://eiadckjccgkneelgkafmaeabookiooff",

	"FETCH_TIMEOUT":   "10s",
	"FETCH_RPS":       2.0,
	"FETCH_BURST":     4,
	"FETCH_MAX_BYTES": 5 << 20,

	"SCREENSHOT_API_URL": "",
	"SCREENSHOT_API_KEY": "",
	"SCREENSHOT_TIMEOUT": "30s",

	"AI_BASE_URL": "",
	"AI_API_KEY":  "",
	"AI_TIMEOUT":  "60s",

	"STORAGE_DRIVER":       StorageNone,
	"STORAGE_LOCAL_DIR":    "data/files",
	"STORAGE_PUBLIC_URL":   "http://localhost:1323/files",
	"S3_BUCKET":            "",
	"S3_REGION":            "auto",
	"S3_ENDPOINT":          "",
	"S3_ACCESS_KEY_ID":     "",
	"S3_SECRET_ACCESS_KEY": "",
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKMARKER")

	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "bind env %s", key)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// AllowedOrigins lists the origins that get CORS headers on the bookmark API.
func (c *Config) AllowedOrigins() []string {
	origins := make([]string, 0, 2)
	for _, o := range []string{c.AppURL, c.ExtensionOrigin} {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func validate(cfg *Config) error {
	if !oneOf(cfg.DBSSLMode, sslModeDisable, sslModeRequire) {
		return errors.New(fmt.Sprintf("DB SSL mode is invalid: %s", cfg.DBSSLMode))
	}
	if !oneOf(cfg.DBDriver, DBDriverPostgres, DBDriverSQLite) {
		return errors.New(fmt.Sprintf("DB driver is invalid: %s", cfg.DBDriver))
	}
	if !oneOf(cfg.StorageDriver, StorageNone, StorageLocal, StorageS3) {
		return errors.New(fmt.Sprintf("storage driver is invalid: %s", cfg.StorageDriver))
	}
	if cfg.StorageDriver == StorageS3 && cfg.S3Bucket == "" {
		return errors.New("S3 bucket is required when storage driver is s3")
	}
	if cfg.FetchRPS <= 0 || cfg.FetchBurst <= 0 {
		return errors.New("fetch rate limit must be positive")
	}
	if cfg.FetchMaxBytes <= 0 {
		return errors.New("fetch max bytes must be positive")
	}
	return nil
}

func oneOf(value string, valid ...string) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}
