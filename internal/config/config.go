package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Source values for observation ingestion.
const (
	SourceCSV   = "csv"
	SourceKafka = "kafka"
)

// Out-of-range coordinate policies for the binning stage.
const (
	OutOfRangeFail = "fail"
	OutOfRangeClip = "clip"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	YearStart int
	YearEnd   int

	Source  string
	CSVPath string

	KafkaBrokers     []string
	KafkaTopic       string
	KafkaGroupID     string
	KafkaIdleTimeout time.Duration

	LandMaskPath  string
	ResultsDBPath string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize       int
	OutOfRange      string
	ConvolveWorkers int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	yearStart, err := envInt("YEAR_START", 1950)
	if err != nil {
		return nil, err
	}
	yearEnd, err := envInt("YEAR_END", 2019)
	if err != nil {
		return nil, err
	}
	batchSize, err := envInt("BATCH_SIZE", 5000)
	if err != nil {
		return nil, err
	}
	workers, err := envInt("CONVOLVE_WORKERS", 0)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	kafkaIdleTimeout, err := envDuration("KAFKA_IDLE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		YearStart: yearStart,
		YearEnd:   yearEnd,

		Source:  envOrDefault("SOURCE", SourceCSV),
		CSVPath: envOrDefault("CSV_PATH", "data/observations.csv"),

		KafkaBrokers:     splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:       envOrDefault("KAFKA_TOPIC", "icoads-observations"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "icoads-precip-etl"),
		KafkaIdleTimeout: kafkaIdleTimeout,

		LandMaskPath:  envOrDefault("LAND_MASK_PATH", "data/landmask.txt"),
		ResultsDBPath: envOrDefault("RESULTS_DB_PATH", "data/results.db"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		BatchSize:       batchSize,
		OutOfRange:      envOrDefault("BIN_OUT_OF_RANGE", OutOfRangeFail),
		ConvolveWorkers: workers,
	}

	if cfg.YearEnd < cfg.YearStart {
		return nil, fmt.Errorf("YEAR_END %d precedes YEAR_START %d", cfg.YearEnd, cfg.YearStart)
	}
	if cfg.BatchSize <= 0 {
		return nil, errors.New("BATCH_SIZE must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	switch cfg.Source {
	case SourceCSV:
		if cfg.CSVPath == "" {
			return nil, errors.New("CSV_PATH is required for SOURCE=csv")
		}
	case SourceKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required for SOURCE=kafka")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required for SOURCE=kafka")
		}
		if cfg.KafkaIdleTimeout <= 0 {
			return nil, errors.New("KAFKA_IDLE_TIMEOUT must be positive")
		}
	default:
		return nil, fmt.Errorf("SOURCE must be %q or %q, got %q", SourceCSV, SourceKafka, cfg.Source)
	}
	if cfg.OutOfRange != OutOfRangeFail && cfg.OutOfRange != OutOfRangeClip {
		return nil, fmt.Errorf("BIN_OUT_OF_RANGE must be %q or %q, got %q", OutOfRangeFail, OutOfRangeClip, cfg.OutOfRange)
	}
	if cfg.LandMaskPath == "" {
		return nil, errors.New("LAND_MASK_PATH is required")
	}
	if cfg.ResultsDBPath == "" {
		return nil, errors.New("RESULTS_DB_PATH is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
