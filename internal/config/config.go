package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// maxBatchSize caps BATCH_SIZE; larger batches hold offsets uncommitted
// for too long.
const maxBatchSize = 1000

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string      `env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	KafkaSourceTopic string        `env:"KAFKA_SOURCE_TOPIC" env-default:"raw-bulletin-documents"`
	KafkaSinkTopic   string        `env:"KAFKA_SINK_TOPIC" env-default:"extracted-bulletins"`
	KafkaGroupID     string        `env:"KAFKA_GROUP_ID" env-default:"bulletin-etl"`
	HTTPAddr         string        `env:"HTTP_ADDR" env-default:":8080"`
	LogLevel         string        `env:"LOG_LEVEL" env-default:"info"`
	LogFormat        string        `env:"LOG_FORMAT" env-default:"json"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	BatchSize          int           `env:"BATCH_SIZE" env-default:"50"`
	BatchFlushInterval time.Duration `env:"BATCH_FLUSH_INTERVAL" env-default:"500ms"`

	// Gazetteer table backing location classification.
	GazetteerPath string `env:"GAZETTEER_PATH" env-default:"data/psgc_locations.csv"`

	// PAGASA site access for the live extraction path.
	PagasaBaseURL string        `env:"PAGASA_BASE_URL" env-default:"https://www.pagasa.dost.gov.ph"`
	PagasaTimeout time.Duration `env:"PAGASA_TIMEOUT" env-default:"15s"`

	// Rainfall advisory enrichment (feature-flagged via ADVISORY_URL /
	// ADVISORY_ENABLED).
	AdvisoryURL      string        `env:"ADVISORY_URL" env-default:""`
	AdvisoryEnabled  bool          `env:"ADVISORY_ENABLED" env-default:"false"`
	AdvisoryTimeout  time.Duration `env:"ADVISORY_TIMEOUT" env-default:"10s"`
	AdvisoryCacheTTL time.Duration `env:"ADVISORY_CACHE_TTL" env-default:"5m"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	// An advisory URL implies enrichment unless explicitly switched off.
	if os.Getenv("ADVISORY_ENABLED") == "" {
		cfg.AdvisoryEnabled = cfg.AdvisoryURL != ""
	}

	cfg.KafkaBrokers = dropEmpty(cfg.KafkaBrokers)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaSourceTopic == "" {
		return errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.BatchSize < 1 || c.BatchSize > maxBatchSize {
		return fmt.Errorf("BATCH_SIZE must be between 1 and %d", maxBatchSize)
	}
	if c.BatchFlushInterval <= 0 {
		return errors.New("BATCH_FLUSH_INTERVAL must be positive")
	}
	if c.GazetteerPath == "" {
		return errors.New("GAZETTEER_PATH is required")
	}
	if c.PagasaTimeout <= 0 {
		return errors.New("PAGASA_TIMEOUT must be positive")
	}
	if c.AdvisoryTimeout <= 0 {
		return errors.New("ADVISORY_TIMEOUT must be positive")
	}
	if c.AdvisoryCacheTTL <= 0 {
		return errors.New("ADVISORY_CACHE_TTL must be positive")
	}
	if c.AdvisoryEnabled && c.AdvisoryURL == "" {
		return errors.New("ADVISORY_ENABLED is true but ADVISORY_URL is not set")
	}
	return nil
}

func dropEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
