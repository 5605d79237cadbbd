package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	Chat      ChatConfig
	RateLimit RateLimitConfig
	Sentry    SentryConfig
	Telemetry TelemetryConfig
	Swagger   SwaggerConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig selects the gorm dialector. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
	SlowThreshold   time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// minCacheSize is one full page of messages.
const minCacheSize = 20

// ChatConfig holds the message cache and realtime dispatch knobs.
type ChatConfig struct {
	CacheSize         int
	CacheTTL          time.Duration
	PublishTimeout    time.Duration
	DispatcherWorkers int
	DispatcherQueue   int
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type SentryConfig struct {
	DSN         string
	Environment string
}

type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Insecure    bool
	SampleRatio float64
}

type SwaggerConfig struct {
	Enabled bool
}

// Load reads configuration from .env, config/config.yaml and MYFIT_* environment variables,
// in increasing order of priority.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("MYFIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "myfit")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=myfit port=5432 sslmode=disable")
	v.SetDefault("database.maxopenconns", 25)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.connmaxlifetime", 30*time.Minute)
	v.SetDefault("database.loglevel", "warn")
	v.SetDefault("database.slowthreshold", 200*time.Millisecond)
	v.SetDefault("database.automigrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.issuer", "myfit")
	v.SetDefault("jwt.expiration", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("chat.cachesize", 20)
	v.SetDefault("chat.cachettl", time.Duration(0))
	v.SetDefault("chat.publishtimeout", 2*time.Second)
	v.SetDefault("chat.dispatcherworkers", 4)
	v.SetDefault("chat.dispatcherqueue", 10000)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.rps", 20)
	v.SetDefault("ratelimit.burst", 40)

	v.SetDefault("telemetry.servicename", "myfit-api")
	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sampleratio", 1.0)

	v.SetDefault("swagger.enabled", true)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Chat.CacheSize < minCacheSize {
		return fmt.Errorf("chat.cachesize must be at least %d", minCacheSize)
	}
	if c.Chat.DispatcherWorkers <= 0 {
		return errors.New("chat.dispatcherworkers must be positive")
	}
	if c.App.Env == "production" && c.JWT.Secret == "change-me" {
		return errors.New("jwt.secret must be set in production")
	}
	return nil
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool { return c.App.Env == "production" }
