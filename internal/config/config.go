package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Storage backends.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// EnvPrefix prefixes environment overrides, e.g. TASKS_JWT_SECRET for jwt.secret.
const EnvPrefix = "TASKS"

type Config struct {
	Port       string
	Log        LogConfig
	DB         DBConfig
	Mongo      MongoConfig
	JWT        JWTConfig
	BcryptCost int
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Server     ServerConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type DBConfig struct {
	Driver string
	Path   string
}

type MongoConfig struct {
	URI      string
	Database string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	AuthRequests int
	AuthWindow   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type ServerConfig struct {
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

var ErrMissingJWTSecret = errors.New("jwt.secret is not set")

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "app.db")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "task_manager")
	v.SetDefault("jwt.ttl", time.Hour)
	v.SetDefault("bcrypt.cost", 10)
	v.SetDefault("redis.db", 0)
	v.SetDefault("ratelimit.auth.requests", 20)
	v.SetDefault("ratelimit.auth.window", time.Minute)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// Load reads .env (if present), then configs/config.yml from the given search
// paths (default "configs"), then TASKS_* environment overrides.
// A missing config file is not an error; a missing jwt.secret is.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Port: v.GetString("port"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		DB: DBConfig{
			Driver: strings.ToLower(v.GetString("db.driver")),
			Path:   v.GetString("db.path"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("mongo.uri"),
			Database: v.GetString("mongo.database"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			TTL:    v.GetDuration("jwt.ttl"),
		},
		BcryptCost: v.GetInt("bcrypt.cost"),
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			AuthRequests: v.GetInt("ratelimit.auth.requests"),
			AuthWindow:   v.GetDuration("ratelimit.auth.window"),
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetStringSlice("cors.allowed_origins"),
		},
		Server: ServerConfig{
			ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
			WriteTimeout:      v.GetDuration("server.write_timeout"),
			IdleTimeout:       v.GetDuration("server.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return ErrMissingJWTSecret
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("jwt.ttl must be positive, got %s", c.JWT.TTL)
	}
	switch c.DB.Driver {
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("db.driver must be %q or %q, got %q", DriverSQLite, DriverMongo, c.DB.Driver)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt.cost must be within [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	return nil
}
