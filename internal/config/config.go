package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir   string
	OutputDir string

	// Source file locations, resolved against DataDir when relative.
	BaseLayerPath string
	GDPPath       string
	SVIPath       string
	NRIPath       string
	StatistaPath  string
	TracksPath    string

	// Active storm feed. When StormFeedURL is set the classifier pulls
	// from it; otherwise it reads the local StormFeedPath snapshot.
	StormFeedURL  string
	StormFeedPath string
	FeedTimeout   time.Duration

	StateFIPS string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	ThreatInterval time.Duration

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is folded in first when
// present.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	threatInterval, err := parseDuration("THREAT_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	feedTimeout, err := parseDuration("FEED_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	dataDir := envOrDefault("DATA_DIR", "data")
	cfg := &Config{
		DataDir:   dataDir,
		OutputDir: envOrDefault("OUTPUT_DIR", "output"),

		BaseLayerPath: resolve(dataDir, envOrDefault("BASE_LAYER_FILE", "florida_counties.geojson")),
		GDPPath:       resolve(dataDir, envOrDefault("GDP_FILE", "bea_gdp.csv")),
		SVIPath:       resolve(dataDir, envOrDefault("SVI_FILE", "cdc_svi.csv")),
		NRIPath:       resolve(dataDir, envOrDefault("NRI_FILE", "fema_nri.csv")),
		StatistaPath:  resolve(dataDir, envOrDefault("STATISTA_FILE", "statista_property.csv")),
		TracksPath:    resolve(dataDir, envOrDefault("TRACKS_FILE", "ibtracs_tracks.csv")),

		StormFeedURL:  os.Getenv("STORM_FEED_URL"),
		StormFeedPath: resolve(dataDir, envOrDefault("STORM_FEED_FILE", "active_storms_feed.json")),
		FeedTimeout:   feedTimeout,

		StateFIPS: envOrDefault("STATE_FIPS", "12"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ThreatInterval: threatInterval,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "county-threat-events"),
	}

	if len(cfg.StateFIPS) != 2 {
		return nil, fmt.Errorf("STATE_FIPS must be a two-digit code, got %q", cfg.StateFIPS)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
