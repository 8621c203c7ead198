package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all analyzer settings, populated from environment variables.
type Config struct {
	MaskPath   string
	OutputPath string

	BufferDegrees float64
	DensifyStepM  float64
	RoadFilter    []string
	HalfWindowPx  int

	OverpassURL      string
	RoadsFixturePath string
	FetchTimeout     time.Duration
	RunTimeout       time.Duration

	// Environment Agency flood-monitoring API.
	FloodAPIURL string
	FloodCounty string
	FloodDate   string
	DataDir     string

	// Optional Kafka publishing of analysis results.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	// Optional Pushgateway for end-of-run metrics.
	PushgatewayURL string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	bufferDegrees, err := parseFloat("BUFFER_DEGREES", "0.005")
	if err != nil {
		return nil, err
	}
	if bufferDegrees < 0 {
		return nil, errors.New("invalid BUFFER_DEGREES")
	}

	densifyStep, err := parseFloat("DENSIFY_STEP_M", "10")
	if err != nil {
		return nil, err
	}
	if densifyStep <= 0 {
		return nil, errors.New("invalid DENSIFY_STEP_M")
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	runTimeout, err := parsePositiveDuration("RUN_TIMEOUT", "10m")
	if err != nil {
		return nil, err
	}

	halfWindow, err := parseNonNegativeInt("HALF_WINDOW_PX", "500")
	if err != nil {
		return nil, err
	}

	floodDate := os.Getenv("FLOOD_DATE")
	if floodDate != "" {
		if _, err := time.Parse("2006-01-02", floodDate); err != nil {
			return nil, errors.New("invalid FLOOD_DATE, want YYYY-MM-DD")
		}
	}

	kafkaBrokers := parseList(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		MaskPath:   envOrDefault("FLOOD_MASK_PATH", "data/processed/flood_mask.tif"),
		OutputPath: envOrDefault("OUTPUT_PATH", "data/processed/flood_analysis.json"),

		BufferDegrees: bufferDegrees,
		DensifyStepM:  densifyStep,
		RoadFilter:    parseList(envOrDefault("ROAD_FILTER", "motorway,trunk,primary,secondary")),
		HalfWindowPx:  halfWindow,

		OverpassURL:      envOrDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		RoadsFixturePath: os.Getenv("ROADS_FIXTURE_PATH"),
		FetchTimeout:     fetchTimeout,
		RunTimeout:       runTimeout,

		FloodAPIURL: envOrDefault("FLOOD_API_URL", "https://environment.data.gov.uk/flood-monitoring"),
		FloodCounty: os.Getenv("FLOOD_COUNTY"),
		FloodDate:   floodDate,
		DataDir:     envOrDefault("DATA_DIR", "data/raw"),

		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "flood-impact-metrics"),
		KafkaEnabled: kafkaEnabled,

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.MaskPath == "" {
		return nil, errors.New("FLOOD_MASK_PATH is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	if len(cfg.RoadFilter) == 0 {
		return nil, errors.New("ROAD_FILTER is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseList splits a comma-separated value, trimming blanks.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(envOrDefault(key, def), 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return v, nil
}

func parseNonNegativeInt(key, def string) (int, error) {
	n, err := strconv.Atoi(envOrDefault(key, def))
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}
