package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	HTTP     HTTPConfig
	Logging  LoggingConfig
	Source   SourceConfig
	Analysis AnalysisConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	InfluxDB InfluxDBConfig
	Report   ReportConfig
}

type HTTPConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// SourceConfig selects and configures the log source
type SourceConfig struct {
	Kind          string // "http" or "kafka"
	ServerURL     string
	LogLimit      int
	OverstayLimit int
	Timeout       time.Duration
}

// AnalysisConfig controls the refresh loop and per-pass bounds
type AnalysisConfig struct {
	RefreshInterval time.Duration
	AutoRefresh     bool
	MaxPoints       int
	MaxAnomalies    int
	MaxTransactions int
}

// KafkaConfig holds Kafka-related configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// RedisConfig enables snapshot publishing when Addr is set
type RedisConfig struct {
	Addr string
	TTL  time.Duration
}

// InfluxDBConfig enables the time-series sink when URL is set
type InfluxDBConfig struct {
	URL    string
	Org    string
	Token  string
	Bucket string
}

// ReportConfig enables S3 report archiving when Bucket is set
type ReportConfig struct {
	Bucket   string
	Prefix   string
	Endpoint string
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Source: SourceConfig{
			Kind:          getEnv("LOG_SOURCE", "http"),
			ServerURL:     getEnv("SERVER_URL", "https://c7tst.tesi.com.ph:8041"),
			LogLimit:      getEnvInt("LOG_LIMIT", 100),
			OverstayLimit: getEnvInt("OVERSTAY_LIMIT", 1000),
			Timeout:       getEnvDuration("SOURCE_TIMEOUT", 10*time.Second),
		},
		Analysis: AnalysisConfig{
			RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 5*time.Second),
			AutoRefresh:     getEnvBool("AUTO_REFRESH", false),
			MaxPoints:       getEnvInt("MAX_POINTS", 50),
			MaxAnomalies:    getEnvInt("MAX_ANOMALIES", 10000),
			MaxTransactions: getEnvInt("MAX_TRANSACTIONS", 10000),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvStringSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "ocpp-logs"),
			GroupID: getEnv("KAFKA_GROUP_ID", "ocpp-monitor"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
			TTL:  getEnvDuration("REDIS_TTL", 5*time.Minute),
		},
		InfluxDB: InfluxDBConfig{
			URL:    getEnv("INFLUXDB_URL", ""),
			Org:    getEnv("INFLUXDB_ORG", "ocpp"),
			Token:  getEnv("INFLUXDB_TOKEN", ""),
			Bucket: getEnv("INFLUXDB_BUCKET", "ocpp-monitor"),
		},
		Report: ReportConfig{
			Bucket:   getEnv("REPORT_BUCKET", ""),
			Prefix:   getEnv("REPORT_PREFIX", "reports/"),
			Endpoint: getEnv("AWS_ENDPOINT_URL", ""),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the monitor cannot run with
func (c *Config) Validate() error {
	if c.Analysis.RefreshInterval <= 0 {
		return errors.New("REFRESH_INTERVAL must be positive")
	}
	if c.Source.LogLimit <= 0 {
		return errors.New("LOG_LIMIT must be positive")
	}
	if c.Analysis.MaxPoints <= 0 {
		return errors.New("MAX_POINTS must be positive")
	}
	switch c.Source.Kind {
	case "http", "kafka":
	default:
		return errors.New("LOG_SOURCE must be \"http\" or \"kafka\"")
	}
	return nil
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
