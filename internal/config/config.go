// Package config loads formkit CLI settings from formkit.yaml, FORMKIT_*
// environment variables and a .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Schemas   SchemasConfig   `mapstructure:"schemas"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	BasePath  string `mapstructure:"base_path"`
	Transport string `mapstructure:"transport"` // "http" or "fiber"
}

type SchemasConfig struct {
	Dir     string `mapstructure:"dir"`
	OpenAPI string `mapstructure:"openapi"`
}

type DatabaseConfig struct {
	DSN      string            `mapstructure:"dsn"`
	PoolSize int32             `mapstructure:"pool_size"`
	Tables   map[string]string `mapstructure:"tables"`
}

// Enabled reports whether a PostgreSQL entity store is configured.
func (d DatabaseConfig) Enabled() bool { return strings.TrimSpace(d.DSN) != "" }

type StorageConfig struct {
	PublicURL string   `mapstructure:"public_url"`
	S3        S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint  string        `mapstructure:"endpoint"`
	Region    string        `mapstructure:"region"`
	AccessKey string        `mapstructure:"access_key"`
	SecretKey string        `mapstructure:"secret_key"`
	Bucket    string        `mapstructure:"bucket"`
	UseSSL    bool          `mapstructure:"use_ssl"`
	Public    bool          `mapstructure:"public"`
	Expiry    time.Duration `mapstructure:"expiry"`
}

// Enabled reports whether an S3 disk is configured.
func (s S3Config) Enabled() bool { return s.Endpoint != "" && s.Bucket != "" }

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type TelemetryConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

type ResolverConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Limit   int           `mapstructure:"limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Logger builds a slog logger writing to w.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_path", "")
	v.SetDefault("server.transport", "http")
	v.SetDefault("schemas.dir", "./forms")
	v.SetDefault("schemas.openapi", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("storage.public_url", "/storage")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.use_ssl", false)
	v.SetDefault("storage.s3.public", false)
	v.SetDefault("storage.s3.expiry", "15m")
	// Keys need a default to be picked up from the environment by Unmarshal.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", "formkit")
	v.SetDefault("resolver.timeout", "5s")
	v.SetDefault("resolver.limit", 50)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. An explicit path must exist; otherwise
// formkit.yaml in the working directory is optional.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FORMKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("formkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
