package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageFS = "fs"
	StorageS3 = "s3"
)

// DefaultEpoch is the CATALOG_EPOCH default, the first day the GEOFON
// moment-tensor catalog covers.
const DefaultEpoch = "2011-01-01"

// Config holds all service settings, populated from environment variables.
type Config struct {
	// GEOFON endpoints and the earliest date the catalog covers.
	CatalogURL   string
	AlertBaseURL string
	Epoch        time.Time
	DataDir      string

	CatalogTimeout       time.Duration
	CatalogRatePerSecond float64
	DocumentCacheSize    int
	FetchWorkers         int
	ParseWorkers         int
	ReloadInterval       time.Duration // zero loads the archive once

	StorageBackend string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string

	SQLitePath   string
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	epoch, err := time.Parse("2006-01-02", sharedcfg.EnvOrDefault("CATALOG_EPOCH", DefaultEpoch))
	if err != nil {
		return nil, errors.New("invalid CATALOG_EPOCH")
	}

	catalogTimeout, err := parseDuration("CATALOG_TIMEOUT", "60s", true)
	if err != nil {
		return nil, err
	}

	reloadInterval, err := parseDuration("ARCHIVE_RELOAD_INTERVAL", "0", true)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	rate, err := parseFloat("CATALOG_RATE_PER_SECOND", 0)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseInt("DOCUMENT_CACHE_SIZE", 0, 0)
	if err != nil {
		return nil, err
	}

	fetchWorkers, err := parseInt("FETCH_WORKERS", 1, 1)
	if err != nil {
		return nil, err
	}

	parseWorkers, err := parseInt("PARSE_WORKERS", 1, 1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CatalogURL:   sharedcfg.EnvOrDefault("CATALOG_URL", "http://geofon.gfz-potsdam.de/eqinfo/list.php"),
		AlertBaseURL: sharedcfg.EnvOrDefault("ALERT_BASE_URL", "http://geofon.gfz-potsdam.de/geofon/alerts"),
		Epoch:        epoch,
		DataDir:      sharedcfg.EnvOrDefault("DATA_DIR", "mt-geofon"),

		CatalogTimeout:       catalogTimeout,
		CatalogRatePerSecond: rate,
		DocumentCacheSize:    cacheSize,
		FetchWorkers:         fetchWorkers,
		ParseWorkers:         parseWorkers,
		ReloadInterval:       reloadInterval,

		StorageBackend: sharedcfg.EnvOrDefault("STORAGE_BACKEND", StorageFS),
		S3Bucket:       sharedcfg.EnvOrDefault("S3_BUCKET", ""),
		S3Region:       sharedcfg.EnvOrDefault("S3_REGION", "us-east-1"),
		S3Endpoint:     sharedcfg.EnvOrDefault("S3_ENDPOINT", ""),

		SQLitePath:   sharedcfg.EnvOrDefault("SQLITE_PATH", ""),
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "moment-tensors"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := validateURL("CATALOG_URL", cfg.CatalogURL); err != nil {
		return nil, err
	}
	if err := validateURL("ALERT_BASE_URL", cfg.AlertBaseURL); err != nil {
		return nil, err
	}
	switch cfg.StorageBackend {
	case StorageFS:
	case StorageS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("STORAGE_BACKEND is s3 but S3_BUCKET is not set")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q: want fs or s3", cfg.StorageBackend)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether records should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s %q", name, raw)
	}
	return nil
}
