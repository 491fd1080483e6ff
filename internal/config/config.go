package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/radar-rain-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// FailurePolicy decides what a round does when one site fails.
type FailurePolicy string

const (
	// PolicyIsolate records the failing site and continues with the rest.
	PolicyIsolate FailurePolicy = "isolate"
	// PolicyAbort stops the round at the first failing site.
	PolicyAbort FailurePolicy = "abort"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Radar acquisition.
	URLs           []string
	Stations       domain.StationTable
	FetchTimeout   time.Duration
	FetchCacheSize int

	// Image analysis.
	Circle     domain.Circle
	Ignore     domain.IgnoreSet
	Threshold  int
	NoiseFloor domain.NoiseFloor

	// Collector loop.
	SampleInterval time.Duration
	FailurePolicy  FailurePolicy
	HistoryPath    string
	HistoryResume  bool

	// Kafka sample publishing.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	// GCS snapshot mirror.
	GCSBucket string
	GCSObject string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	stations, err := parseStations(sharedcfg.EnvOrDefault("RADAR_STATION_NAMES", "ascii"))
	if err != nil {
		return nil, err
	}

	urlsKey := "RADAR_URLS"
	urls := splitList(os.Getenv(urlsKey), ",")
	if len(urls) == 0 {
		urlsKey = "RADAR_SITES"
		urls = SiteURLs(
			sharedcfg.EnvOrDefault("RADAR_BASE_URL", "https://www.mgm.gov.tr/FTPDATA/uzal/radar"),
			splitList(sharedcfg.EnvOrDefault(urlsKey, strings.Join(domain.DefaultStations.Codes(), ",")), ","),
		)
	}
	if err := checkDistinctSites(urls, stations); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", urlsKey, err)
	}

	center, err := ParsePoint(sharedcfg.EnvOrDefault("RADAR_CENTER", "360,360"))
	if err != nil {
		return nil, fmt.Errorf("invalid RADAR_CENTER: %w", err)
	}
	if abs(center.X) > domain.MaxCoordinate || abs(center.Y) > domain.MaxCoordinate {
		return nil, fmt.Errorf("invalid RADAR_CENTER: coordinates must be within ±%d", domain.MaxCoordinate)
	}

	radius, err := parseInt("RADAR_RADIUS", 360, 0, domain.MaxCoordinate)
	if err != nil {
		return nil, err
	}

	ignoreColors, err := ParseColors(sharedcfg.EnvOrDefault("RADAR_IGNORE_COLORS", "0,0,0;148,201,255;255,255,217"))
	if err != nil {
		return nil, fmt.Errorf("invalid RADAR_IGNORE_COLORS: %w", err)
	}

	threshold, err := parseInt("RADAR_THRESHOLD", 5, 1, 256)
	if err != nil {
		return nil, err
	}

	noise, err := parseNoiseFloor()
	if err != nil {
		return nil, err
	}

	interval, err := parseDuration("SAMPLE_INTERVAL", "20s", false)
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s", true)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseInt("FETCH_CACHE_SIZE", 64, 0, -1)
	if err != nil {
		return nil, err
	}

	policy := FailurePolicy(sharedcfg.EnvOrDefault("ROUND_FAILURE_POLICY", string(PolicyIsolate)))
	if policy != PolicyIsolate && policy != PolicyAbort {
		return nil, errors.New("ROUND_FAILURE_POLICY must be isolate or abort")
	}

	resume, err := parseBool("HISTORY_RESUME", false)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", len(brokers) > 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		URLs:           urls,
		Stations:       stations,
		FetchTimeout:   fetchTimeout,
		FetchCacheSize: cacheSize,

		Circle:     domain.Circle{Center: center, Radius: radius},
		Ignore:     domain.NewIgnoreSet(ignoreColors...),
		Threshold:  threshold,
		NoiseFloor: noise,

		SampleInterval: interval,
		FailurePolicy:  policy,
		HistoryPath:    sharedcfg.EnvOrDefault("HISTORY_PATH", "rainfall_data.csv"),
		HistoryResume:  resume,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "radar-rain-samples"),
		KafkaEnabled: kafkaEnabled,

		GCSBucket: os.Getenv("SNAPSHOT_GCS_BUCKET"),
		GCSObject: sharedcfg.EnvOrDefault("SNAPSHOT_GCS_OBJECT", "rainfall_data.csv"),
	}

	if len(cfg.URLs) == 0 {
		return nil, errors.New("RADAR_URLS or RADAR_SITES is required")
	}
	if cfg.HistoryPath == "" {
		return nil, errors.New("HISTORY_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

// SiteURLs expands station codes into MGM PPI image URLs.
func SiteURLs(base string, codes []string) []string {
	base = strings.TrimRight(base, "/")
	urls := make([]string, 0, len(codes))
	for _, code := range codes {
		urls = append(urls, fmt.Sprintf("%s/%s/%sppi15.jpg", base, code, code))
	}
	return urls
}

// ParsePoint parses "x,y".
func ParsePoint(s string) (domain.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.Point{}, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return domain.Point{}, fmt.Errorf("x: %w", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return domain.Point{}, fmt.Errorf("y: %w", err)
	}
	return domain.Point{X: x, Y: y}, nil
}

// ParseColors parses a ';'-separated list of "r,g,b" triples.
func ParseColors(s string) ([]domain.RGB, error) {
	var colors []domain.RGB
	for _, triple := range splitList(s, ";") {
		parts := strings.Split(triple, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("want r,g,b, got %q", triple)
		}
		var ch [3]uint8
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return nil, fmt.Errorf("color %q: %w", triple, err)
			}
			ch[i] = uint8(n)
		}
		colors = append(colors, domain.RGB{R: ch[0], G: ch[1], B: ch[2]})
	}
	return colors, nil
}

// checkDistinctSites rejects URL lists where two entries resolve to the same
// site name, since their history rows would share keys.
func checkDistinctSites(urls []string, stations domain.StationTable) error {
	seen := make(map[string]string, len(urls))
	for _, u := range urls {
		site := domain.ResolveStation(u, stations)
		if prev, ok := seen[site]; ok {
			return fmt.Errorf("%q and %q both resolve to site %q", prev, u, site)
		}
		seen[site] = u
	}
	return nil
}

func parseStations(s string) (domain.StationTable, error) {
	switch s {
	case "ascii":
		return domain.DefaultStations, nil
	case "native":
		return domain.NativeStations, nil
	default:
		return nil, errors.New("RADAR_STATION_NAMES must be ascii or native")
	}
}

func parseNoiseFloor() (domain.NoiseFloor, error) {
	light, err := parseInt("NOISE_LIGHT", domain.DefaultNoiseFloor.Light, 0, -1)
	if err != nil {
		return domain.NoiseFloor{}, err
	}
	moderate, err := parseInt("NOISE_MODERATE", domain.DefaultNoiseFloor.Moderate, 0, -1)
	if err != nil {
		return domain.NoiseFloor{}, err
	}
	heavy, err := parseInt("NOISE_HEAVY", domain.DefaultNoiseFloor.Heavy, 0, -1)
	if err != nil {
		return domain.NoiseFloor{}, err
	}
	return domain.NoiseFloor{Light: light, Moderate: moderate, Heavy: heavy}, nil
}

// parseInt reads key as an integer in [lo, hi]; hi < 0 means unbounded.
func parseInt(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || (hi >= 0 && n > hi) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
