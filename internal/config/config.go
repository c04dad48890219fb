package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Build-time variables injected via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Config holds all agent configuration loaded from environment variables.
type Config struct {
	// APIKey authenticates against the collector (must start with "hp-").
	APIKey string

	// CollectorURL is the base URL of the usage collector API.
	CollectorURL string

	// ListenPort is the local HTTP API port.
	ListenPort int

	// LocalSecret guards the local HTTP API; a default is used when unset.
	LocalSecret string

	// SampleInterval is the period between CPU samples.
	SampleInterval time.Duration

	// FlushInterval bounds how long a partial report batch may wait.
	FlushInterval time.Duration

	// BatchSize is the number of samples per shipped report.
	BatchSize int

	// Workers bounds concurrent report shipments.
	Workers int

	// HistorySize bounds the in-memory sample ring.
	HistorySize int

	// DataDir is the root directory for persistent agent data.
	DataDir string

	// Debug enables verbose logging.
	Debug bool
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CollectorURL:   "https://collector.hostpulse.dev/v0",
		ListenPort:     8844,
		SampleInterval: 5 * time.Second,
		FlushInterval:  1 * time.Minute,
		BatchSize:      1000,
		Workers:        4,
		HistorySize:    1024,
		DataDir:        "/var/lib/hostpulse",
	}
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults for anything not explicitly set. Returns an
// error if required values are missing or malformed.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	cfg.APIKey = strings.TrimSpace(os.Getenv("HOSTPULSE_API_KEY"))
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("HOSTPULSE_API_KEY is required")
	}
	if !strings.HasPrefix(cfg.APIKey, "hp-") {
		return nil, fmt.Errorf("HOSTPULSE_API_KEY must start with 'hp-'")
	}

	cfg.CollectorURL = getEnv("HOSTPULSE_COLLECTOR_URL", cfg.CollectorURL)
	cfg.LocalSecret = os.Getenv("HOSTPULSE_LOCAL_SECRET")
	cfg.DataDir = getEnv("HOSTPULSE_DATA_DIR", cfg.DataDir)
	cfg.Debug = os.Getenv("HOSTPULSE_DEBUG") == "true"

	var err error
	if cfg.ListenPort, err = getEnvInt("HOSTPULSE_PORT", cfg.ListenPort); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = getEnvInt("HOSTPULSE_BATCH_SIZE", cfg.BatchSize); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getEnvInt("HOSTPULSE_WORKERS", cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.HistorySize, err = getEnvInt("HOSTPULSE_HISTORY_SIZE", cfg.HistorySize); err != nil {
		return nil, err
	}
	if cfg.SampleInterval, err = getEnvDuration("HOSTPULSE_SAMPLE_INTERVAL", cfg.SampleInterval); err != nil {
		return nil, err
	}
	if cfg.FlushInterval, err = getEnvDuration("HOSTPULSE_FLUSH_INTERVAL", cfg.FlushInterval); err != nil {
		return nil, err
	}

	if cfg.ListenPort <= 0 || cfg.ListenPort > 65535 {
		return nil, fmt.Errorf("HOSTPULSE_PORT out of range: %d", cfg.ListenPort)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("HOSTPULSE_BATCH_SIZE must be positive")
	}
	if cfg.SampleInterval <= 0 {
		return nil, fmt.Errorf("HOSTPULSE_SAMPLE_INTERVAL must be positive")
	}
	if cfg.FlushInterval <= 0 {
		return nil, fmt.Errorf("HOSTPULSE_FLUSH_INTERVAL must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
