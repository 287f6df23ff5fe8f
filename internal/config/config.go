package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	DBName            string `mapstructure:"dbname"`
	MigrationsDirPath string `mapstructure:"migrations_dir"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

// BackendConfig points at the storefront's upstream REST services.
type BackendConfig struct {
	DiscountBaseURL string        `mapstructure:"discount_base_url"`
	OrdersBaseURL   string        `mapstructure:"orders_base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type AnalyticsConfig struct {
	WebsiteID     string        `mapstructure:"website_id"`
	Endpoint      string        `mapstructure:"endpoint"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// LoadConfig loads configuration from config.yaml and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("./")
	v.AddConfigPath("$HOME/.storefront/")
	v.AddConfigPath("/etc/storefront/")

	// Enable environment variable override with STOREFRONT_ prefix
	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "storefront")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.migrations_dir", "internal/collector/migrations")
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("analytics.batch_size", 10)
	v.SetDefault("analytics.flush_interval", 5*time.Second)
	// Unset means analytics runs disabled.
	v.SetDefault("analytics.website_id", "")
	v.SetDefault("analytics.endpoint", "")

	// A missing config file is fine, defaults plus env cover local runs.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
