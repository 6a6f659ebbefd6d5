// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	DBPath string `mapstructure:"db_path"`

	// Seismic feed (USGS GeoJSON API).
	USGSURL     string        `mapstructure:"usgs_url"`
	USGSTimeout time.Duration `mapstructure:"usgs_timeout"`

	// Seismic feed (NCS earthquake page, scraped).
	NCSURL            string        `mapstructure:"ncs_url"`
	NCSTimeout        time.Duration `mapstructure:"ncs_timeout"`
	NCSRequestsPerSec float64       `mapstructure:"ncs_requests_per_sec"`

	// Flood bulletin feed. Empty disables the flood source.
	FloodBulletinURL     string        `mapstructure:"flood_bulletin_url"`
	FloodBulletinTimeout time.Duration `mapstructure:"flood_bulletin_timeout"`

	IngestInterval   time.Duration `mapstructure:"ingest_interval"`
	IngestWindowDays int           `mapstructure:"ingest_window_days"`

	// Optional Kafka publishing of reconciled events.
	KafkaEnabled   bool     `mapstructure:"kafka_enabled"`
	KafkaBrokers   []string `mapstructure:"kafka_brokers"`
	KafkaSinkTopic string   `mapstructure:"kafka_sink_topic"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("db_path", "hazardwatch.db")
	v.SetDefault("usgs_url", "https://earthquake.usgs.gov/fdsnws/event/1/query")
	v.SetDefault("usgs_timeout", "15s")
	v.SetDefault("ncs_url", "https://riseq.seismo.gov.in/riseq/earthquake")
	v.SetDefault("ncs_timeout", "20s")
	v.SetDefault("ncs_requests_per_sec", 0.5)
	v.SetDefault("flood_bulletin_url", "")
	v.SetDefault("flood_bulletin_timeout", "15s")
	v.SetDefault("ingest_interval", "3h")
	v.SetDefault("ingest_window_days", 7)
	v.SetDefault("kafka_enabled", false)
	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_sink_topic", "hazard-events")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Viper reads KAFKA_BROKERS from the environment as a single string.
	cfg.KafkaBrokers = splitBrokers(v.GetString("kafka_brokers"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.USGSURL == "" {
		return errors.New("USGS_URL is required")
	}
	if c.NCSURL == "" {
		return errors.New("NCS_URL is required")
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	if c.IngestInterval < time.Minute {
		return errors.New("INGEST_INTERVAL must be at least 1 minute")
	}
	if c.IngestWindowDays < 1 {
		return errors.New("INGEST_WINDOW_DAYS must be at least 1")
	}
	if c.NCSRequestsPerSec <= 0 {
		return errors.New("NCS_REQUESTS_PER_SEC must be positive")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when Kafka publishing is enabled")
		}
		if c.KafkaSinkTopic == "" {
			return errors.New("KAFKA_SINK_TOPIC is required when Kafka publishing is enabled")
		}
	}
	return nil
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
