package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Log    LogConfig
	DB     DBConfig
	Redis  RedisConfig
	HTTP   HTTPConfig
	GRPC   GRPCConfig
	Auth   AuthConfig
	Upload UploadConfig
}

type AppConfig struct {
	ENV string `env:"APP_ENV" envDefault:"development"`
}

type LogConfig struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info"`
	Format    string `env:"LOG_FORMAT" envDefault:"text"`
	Component string `env:"LOG_COMPONENT" envDefault:"agency_api"`
	Source    bool   `env:"LOG_SOURCE"`
}

type DBConfig struct {
	// Driver is one of mysql, postgres or sqlite.
	Driver      string `env:"DB_DRIVER" envDefault:"mysql"`
	DSN         string `env:"DB_DSN"`
	Host        string `env:"DB_HOST" envDefault:"localhost"`
	Port        string `env:"DB_PORT"`
	User        string `env:"DB_USER" envDefault:"root"`
	Password    string `env:"DB_PASSWORD" envDefault:"root"`
	Name        string `env:"DB_NAME" envDefault:"agency"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"REDIS_CACHE_TTL" envDefault:"10m"`
}

type HTTPConfig struct {
	Host         string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port         string        `env:"HTTP_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
}

// GRPCConfig addresses the ops listener (health + reflection).
type GRPCConfig struct {
	Host string `env:"GRPC_HOST" envDefault:"127.0.0.1"`
	Port string `env:"GRPC_PORT" envDefault:"50051"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-insecure-secret-change"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
}

type UploadConfig struct {
	Dir        string `env:"UPLOAD_DIR" envDefault:"uploads"`
	PublicPath string `env:"UPLOAD_PUBLIC_PATH" envDefault:"/uploads"`
	ThumbSize  int    `env:"UPLOAD_THUMB_SIZE" envDefault:"480"`
}

// New loads ./.env when present (without overriding the process environment)
// and parses the environment into a Config.
func New() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v, falling back to defaults\n", err)
		cfg = Defaults()
	}
	return cfg
}

// Load is New with the parse error surfaced.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.finalize()
	return cfg, nil
}

// Defaults returns a Config built only from envDefault tags.
func Defaults() *Config {
	cfg := &Config{}
	_ = env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}})
	cfg.finalize()
	return cfg
}

func (c *Config) finalize() {
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	if c.DB.DSN != "" {
		return
	}
	switch c.DB.Driver {
	case "postgres":
		if c.DB.Port == "" {
			c.DB.Port = "5432"
		}
		c.DB.DSN = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name,
		)
	case "sqlite":
		c.DB.DSN = c.DB.Name + ".db"
	default:
		if c.DB.Port == "" {
			c.DB.Port = "3306"
		}
		c.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name,
		)
	}
}

// IsDevelopment reports whether demo seeding and verbose defaults apply.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.ENV, "development")
}
