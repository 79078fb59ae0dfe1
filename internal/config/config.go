package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SourceCSV       = "csv"
	SourceTimescale = "timescale"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
}

// DescribeSource names where the dashboard datasets are read from
func (c *Config) DescribeSource() string {
	if c.Dashboard.Source == SourceTimescale {
		return fmt.Sprintf("TimescaleDB %s/%s", c.Database.TimescaleDB.Host, c.Database.TimescaleDB.DBName)
	}
	return fmt.Sprintf("CSV files %s and %s", c.Dashboard.ObservationsCSV, c.Dashboard.IntervalsCSV)
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DashboardConfig selects where observations and weight change intervals come from
type DashboardConfig struct {
	Source          string   `mapstructure:"source"`
	ObservationsCSV string   `mapstructure:"observations_csv"`
	IntervalsCSV    string   `mapstructure:"intervals_csv"`
	DefaultFields   []string `mapstructure:"default_fields"`
}

type DatabaseConfig struct {
	TimescaleDB PostgresConfig `mapstructure:"timescaledb"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Store string        `mapstructure:"store"`
	TTL   time.Duration `mapstructure:"ttl"`
}

type UploadsConfig struct {
	MaxImageSize     int64    `mapstructure:"max_image_size"`
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types"`
}

// Load initializes configuration from .env, environment variables and config file
func Load() (*Config, error) {
	config, err := read()
	if err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return config, nil
}

// LoadImport reads the same configuration for the CSV importer, which only
// needs the TimescaleDB connection and the CSV paths.
func LoadImport() (*Config, error) {
	config, err := read()
	if err != nil {
		return nil, err
	}
	if config.Database.TimescaleDB.Host == "" {
		return nil, fmt.Errorf("config validation error: timescaledb host is required for the import")
	}
	return config, nil
}

func read() (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("W4B")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Load config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Dashboard defaults
	v.SetDefault("dashboard.source", SourceCSV)
	v.SetDefault("dashboard.observations_csv", "data/beehive_cleaned.csv")
	v.SetDefault("dashboard.intervals_csv", "data/rapid_weight_changes.csv")
	v.SetDefault("dashboard.default_fields", []string{"weight", "temperature", "humidity"})

	// Database defaults
	v.SetDefault("database.timescaledb.host", "")
	v.SetDefault("database.timescaledb.port", 5432)
	v.SetDefault("database.timescaledb.user", "")
	v.SetDefault("database.timescaledb.password", "")
	v.SetDefault("database.timescaledb.dbname", "")
	v.SetDefault("database.timescaledb.sslmode", "disable")

	// Mongo defaults
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "beehive")
	v.SetDefault("mongo.collection", "events")
	v.SetDefault("mongo.connect_timeout", "10s")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Cache defaults
	v.SetDefault("cache.store", CacheMemory)
	v.SetDefault("cache.ttl", "1h")

	// Upload defaults
	v.SetDefault("uploads.max_image_size", 10*1024*1024) // 10MB
	v.SetDefault("uploads.allowed_mime_types", []string{"image/jpeg", "image/png"})
}

func validateConfig(config *Config) error {
	switch config.Dashboard.Source {
	case SourceCSV:
		if config.Dashboard.ObservationsCSV == "" || config.Dashboard.IntervalsCSV == "" {
			return fmt.Errorf("observations and intervals CSV paths are required for the csv source")
		}
	case SourceTimescale:
		if config.Database.TimescaleDB.Host == "" {
			return fmt.Errorf("timescaledb host is required for the timescale source")
		}
	default:
		return fmt.Errorf("unknown dashboard source %q", config.Dashboard.Source)
	}
	switch config.Cache.Store {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown cache store %q", config.Cache.Store)
	}
	if config.Mongo.URI == "" {
		return fmt.Errorf("mongo URI is required")
	}
	if config.Uploads.MaxImageSize <= 0 {
		return fmt.Errorf("uploads max image size must be positive")
	}
	return nil
}
