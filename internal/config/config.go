// Package config loads service settings from defaults, an optional YAML file,
// a .env file and PULSE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/soaringjerry/pulse/internal/services"
)

const (
	configName = "config"
	configType = "yaml"
	envPrefix  = "PULSE"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

var (
	ErrUnknownBackend  = errors.New("store.backend must be memory, sqlite or mongo")
	ErrMissingSQLite   = errors.New("store.sqlite_path is required for the sqlite backend")
	ErrMissingMongoURI = errors.New("store.mongo_uri and store.mongo_database are required for the mongo backend")
	ErrMissingRedis    = errors.New("cache.addr is required when the cache is enabled")
	ErrInvalidTimeout  = errors.New("timeouts and ttl must be positive")
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Store       StoreConfig     `mapstructure:"store"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Analytics   services.Policy `mapstructure:"analytics"`
	Startup     StartupConfig   `mapstructure:"startup"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	// Fixture is imported into the store at startup when set.
	Fixture       string `mapstructure:"fixture"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	MigrationsDir string `mapstructure:"migrations_dir"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

// StartupConfig bounds how long the process retries its backing services.
type StartupConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxElapsed     time.Duration `mapstructure:"max_elapsed"`
}

// Load reads configuration. An explicit path must exist; otherwise config.yaml
// is looked up in ., ./config and /etc/pulse and is optional.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/pulse")
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
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("environment", "local")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "")

	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.fixture", "")
	v.SetDefault("store.sqlite_path", "./data/pulse.db")
	v.SetDefault("store.migrations_dir", "")
	v.SetDefault("store.mongo_uri", "")
	v.SetDefault("store.mongo_database", "pulse")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("cache.prefix", "pulse")

	v.SetDefault("startup.connect_timeout", 5*time.Second)
	v.SetDefault("startup.max_elapsed", time.Minute)

	p := services.DefaultPolicy()
	v.SetDefault("analytics.score_min", p.ScoreMin)
	v.SetDefault("analytics.score_max", p.ScoreMax)
	v.SetDefault("analytics.bands.negative", p.Bands.Negative)
	v.SetDefault("analytics.bands.neutral", p.Bands.Neutral)
	v.SetDefault("analytics.bands.positive", p.Bands.Positive)
	v.SetDefault("analytics.bands.very_positive", p.Bands.VeryPositive)
	v.SetDefault("analytics.toggle_true_code", p.ToggleTrueCode)
	v.SetDefault("analytics.toggle_false_code", p.ToggleFalseCode)
	v.SetDefault("analytics.extreme_count", p.ExtremeCount)
	v.SetDefault("analytics.choice_count", p.ChoiceCount)
	v.SetDefault("analytics.anonymous_label", p.AnonymousLabel)
	v.SetDefault("analytics.shared_anonymous_identity", p.SharedAnonymousIdentity)
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return ErrMissingSQLite
		}
	case BackendMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return ErrMissingMongoURI
		}
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownBackend, c.Store.Backend)
	}
	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			return ErrMissingRedis
		}
		if c.Cache.TTL <= 0 {
			return ErrInvalidTimeout
		}
	}
	s := c.Server
	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 || s.IdleTimeout <= 0 || s.ShutdownTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Startup.ConnectTimeout <= 0 || c.Startup.MaxElapsed <= 0 {
		return ErrInvalidTimeout
	}
	return c.Analytics.Validate()
}
