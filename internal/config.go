package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreBackendMemory   = "memory"
	StoreBackendRedis    = "redis"
	StoreBackendDatabase = "database"

	CodecJSON   = "json"
	CodecSigned = "signed"

	DirectoryDemo     = "demo"
	DirectoryDatabase = "database"
)

type Config struct {
	Env           string              `mapstructure:"env"`
	Directory     string              `mapstructure:"directory" validate:"omitempty,oneof=demo database"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Store         StoreConfig         `mapstructure:"store"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Roles         map[string][]string `mapstructure:"roles"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	LoginRateLimit    int           `mapstructure:"login_rate_limit" validate:"min=0"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"omitempty,oneof=pgx postgres sqlite"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type StoreConfig struct {
	Backend     string        `mapstructure:"backend" validate:"required,oneof=memory redis database"`
	SessionKey  string        `mapstructure:"session_key" validate:"required"`
	RedisAddr   string        `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
	TTL         time.Duration `mapstructure:"ttl" validate:"min=0"`
}

type SecurityConfig struct {
	DemoSecret     string        `mapstructure:"demo_secret"`
	DemoSecretHash string        `mapstructure:"demo_secret_hash"`
	Codec          string        `mapstructure:"codec" validate:"required,oneof=json signed"`
	SigningSecret  string        `mapstructure:"signing_secret" validate:"required_if=Codec signed"`
	TokenTTL       time.Duration `mapstructure:"token_ttl" validate:"min=0"`
	BCryptCost     int           `mapstructure:"bcrypt_cost" validate:"omitempty,min=4,max=15"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// EnvConfig is the flat environment form read in production and inside containers.
type EnvConfig struct {
	AppEnv    string `envconfig:"APP_ENV" default:"production"`
	Directory string `envconfig:"IDENTITY_DIRECTORY" default:"database"`

	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HTTPBaseURL        string        `envconfig:"HTTP_BASE_URL" default:"http://localhost:8080"`
	HTTPAllowedOrigins string        `envconfig:"HTTP_ALLOWED_ORIGINS" default:"*"`
	HTTPReadTimeout    time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout   time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	HTTPIdleTimeout    time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
	HTTPHeaderTimeout  time.Duration `envconfig:"HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	LoginRateLimit     int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`

	DBDriver   string        `envconfig:"DB_DRIVER" default:"pgx"`
	DBSource   string        `envconfig:"DB_SOURCE"`
	DBMaxOpen  int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdle  int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	DBIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"5m"`

	StoreBackend     string        `envconfig:"STORE_BACKEND" default:"redis"`
	StoreSessionKey  string        `envconfig:"STORE_SESSION_KEY" default:"alicomputer_user"`
	StoreRedisAddr   string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	StoreRedisPrefix string        `envconfig:"REDIS_PREFIX" default:"pos"`
	StoreTTL         time.Duration `envconfig:"STORE_TTL" default:"0s"`

	DemoSecret     string        `envconfig:"DEMO_SECRET"`
	DemoSecretHash string        `envconfig:"DEMO_SECRET_HASH"`
	Codec          string        `envconfig:"SESSION_CODEC" default:"signed"`
	SigningSecret  string        `envconfig:"SESSION_SECRET"`
	TokenTTL       time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	BCryptCost     int           `envconfig:"BCRYPT_COST" default:"12"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// LoadConfigFromEnv builds the config from environment variables. Roles keep the built-in table.
func LoadConfigFromEnv() (*Config, error) {
	var env EnvConfig
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return env.Config(), nil
}

func (e EnvConfig) Config() *Config {
	return &Config{
		Env:       e.AppEnv,
		Directory: e.Directory,
		Server: ServerConfig{
			Port:              e.HTTPPort,
			BaseURL:           e.HTTPBaseURL,
			AllowedOrigins:    e.HTTPAllowedOrigins,
			ReadHeaderTimeout: e.HTTPHeaderTimeout,
			ReadTimeout:       e.HTTPReadTimeout,
			IdleTimeout:       e.HTTPIdleTimeout,
			WriteTimeout:      e.HTTPWriteTimeout,
			LoginRateLimit:    e.LoginRateLimit,
		},
		Database: DatabaseConfig{
			Driver:          e.DBDriver,
			MaxOpenConns:    e.DBMaxOpen,
			MaxIdleConns:    e.DBMaxIdle,
			ConnMaxLifetime: e.DBLifetime,
			ConnMaxIdleTime: e.DBIdleTime,
			Source:          e.DBSource,
		},
		Store: StoreConfig{
			Backend:     e.StoreBackend,
			SessionKey:  e.StoreSessionKey,
			RedisAddr:   e.StoreRedisAddr,
			RedisPrefix: e.StoreRedisPrefix,
			TTL:         e.StoreTTL,
		},
		Security: SecurityConfig{
			DemoSecret:     e.DemoSecret,
			DemoSecretHash: e.DemoSecretHash,
			Codec:          e.Codec,
			SigningSecret:  e.SigningSecret,
			TokenTTL:       e.TokenTTL,
			BCryptCost:     e.BCryptCost,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: e.LogLevel, Format: e.LogFormat},
		},
	}
}

func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := validator.New().Struct(c); err != nil {
		errs = append(errs, err.Error())
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if c.Store.Backend == StoreBackendDatabase && c.Database.Source == "" {
		errs = append(errs, "store config: database backend needs database.source")
	}

	if c.Directory == DirectoryDatabase && c.Database.Source == "" {
		errs = append(errs, "directory: database directory needs database.source")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

// DriverName returns the database/sql driver for Driver, defaulting to pgx.
func (c *DatabaseConfig) DriverName() string {
	if c.Driver == "sqlite" {
		return "sqlite3"
	}
	return "pgx"
}

func (c *SecurityConfig) Validate() error {
	if c.DemoSecret == "" && c.DemoSecretHash == "" {
		return errors.New("one of demo_secret or demo_secret_hash is required")
	}
	if c.Codec == CodecSigned && len(c.SigningSecret) < 32 {
		return errors.New("signing_secret must be at least 32 characters")
	}
	return nil
}
