package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr             = ":8099"
	defaultDBPath               = "/data/trashcand.db"
	defaultRefreshInterval      = 5 * time.Second
	defaultSimulatedLatency     = time.Second
	defaultInsightsInterval     = 15 * time.Minute
	defaultArchiveSweepInterval = time.Hour
	defaultPersistDebounce      = 500 * time.Millisecond
	defaultPreferencesDebounce  = 250 * time.Millisecond
	defaultNATSSubject          = "trashcan"
)

// Config stores runtime settings loaded from environment variables.
type Config struct {
	HTTPAddr             string
	DBPath               string
	LogLevel             slog.Level
	LogFormat            string
	RefreshInterval      time.Duration
	SimulatedLatency     time.Duration
	TelemetryURL         string
	PreferencesPath      string
	PreferencesDebounce  time.Duration
	InsightsInterval     time.Duration
	ArchiveSweepInterval time.Duration
	PersistDebounce      time.Duration
	NATSURL              string
	NATSSubject          string
	RuntimeMetrics       bool
}

// LoadDotenv reads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotenv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// Load builds Config from environment variables using stable defaults.
func Load() Config {
	return Config{
		HTTPAddr:             getenv("HTTP_ADDR", defaultHTTPAddr),
		DBPath:               getenv("DB_PATH", defaultDBPath),
		LogLevel:             parseLogLevel(getenv("LOG_LEVEL", "info")),
		LogFormat:            parseLogFormat(getenv("LOG_FORMAT", "json")),
		RefreshInterval:      parseDuration("REFRESH_INTERVAL", defaultRefreshInterval),
		SimulatedLatency:     parseDuration("SIMULATED_LATENCY", defaultSimulatedLatency),
		TelemetryURL:         getenv("TELEMETRY_URL", ""),
		PreferencesPath:      getenv("PREFERENCES_PATH", ""),
		PreferencesDebounce:  parseDuration("PREFERENCES_DEBOUNCE", defaultPreferencesDebounce),
		InsightsInterval:     parseDuration("INSIGHTS_INTERVAL", defaultInsightsInterval),
		ArchiveSweepInterval: parseDuration("ARCHIVE_SWEEP_INTERVAL", defaultArchiveSweepInterval),
		PersistDebounce:      parseDuration("PERSIST_DEBOUNCE", defaultPersistDebounce),
		NATSURL:              getenv("NATS_URL", ""),
		NATSSubject:          getenv("NATS_SUBJECT", defaultNATSSubject),
		RuntimeMetrics:       parseBool("RUNTIME_METRICS", true),
	}
}

// DBDir returns the target directory for DBPath.
func (c Config) DBDir() string {
	return filepath.Dir(c.DBPath)
}

// Simulated reports whether telemetry comes from the built-in simulator.
func (c Config) Simulated() bool {
	return c.TelemetryURL == ""
}

func getenv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseLogFormat(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "text") {
		return "text"
	}
	return "json"
}
