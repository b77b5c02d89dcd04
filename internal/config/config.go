package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	DBDriver string `mapstructure:"DB_DRIVER"`
	DBDSN    string `mapstructure:"DB_DSN"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	JWTAccessSecret  string `mapstructure:"JWT_ACCESS_SECRET"`
	JWTRefreshSecret string `mapstructure:"JWT_REFRESH_SECRET"`

	MediaRoot     string `mapstructure:"MEDIA_ROOT"`
	MediaURL      string `mapstructure:"MEDIA_URL"`
	CloudinaryURL string `mapstructure:"CLOUDINARY_URL"`

	HomeCacheTTL time.Duration `mapstructure:"HOME_CACHE_TTL"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
}

var defaults = map[string]any{
	"APP_ENV":            "development",
	"HTTP_ADDR":          ":8080",
	"DB_DRIVER":          "mysql",
	"DB_DSN":             "",
	"REDIS_ADDR":         "127.0.0.1:6379",
	"REDIS_PASSWORD":     "",
	"REDIS_DB":           0,
	"JWT_ACCESS_SECRET":  "",
	"JWT_REFRESH_SECRET": "",
	"MEDIA_ROOT":         "media",
	"MEDIA_URL":          "/media/",
	"CLOUDINARY_URL":     "",
	"HOME_CACHE_TTL":     "20s",
	"KAFKA_BROKERS":      "",
	"KAFKA_TOPIC":        "social-events",
	"SMTP_HOST":          "",
	"SMTP_PORT":          587,
	"SMTP_USERNAME":      "",
	"SMTP_PASSWORD":      "",
	"SMTP_FROM":          "",
	"CORS_ORIGINS":       "",
}

// Load reads the optional env file at path (merged into the process
// environment first) and then the environment itself.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			log.Printf("Warning: %s not loaded, using environment variables only", path)
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

var (
	ErrMissingDSN     = errors.New("DB_DSN is not set")
	ErrUnknownDriver  = errors.New("DB_DRIVER must be mysql or postgres")
	ErrMissingSecrets = errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set")
)

func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return ErrMissingDSN
	}
	if c.DBDriver != "mysql" && c.DBDriver != "postgres" {
		return ErrUnknownDriver
	}
	if c.JWTAccessSecret == "" || c.JWTRefreshSecret == "" {
		return ErrMissingSecrets
	}
	return nil
}

func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// Brokers splits KAFKA_BROKERS; empty means events are only logged.
func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSOrigins)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
