package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"sigs.k8s.io/yaml"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Pathstore publishing (disabled when URL is empty)
	PathstoreURL         string
	PathstoreAPIKey      string
	MaxConcurrentPublish int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Decoder
	MaxDepth int

	// Job state and results
	JobTTL      time.Duration
	CacheSize   int
	StatsWindow time.Duration

	LogLevel string
}

// fileConfig is the YAML form of Config. Durations are Go duration strings.
type fileConfig struct {
	Port                 string `json:"port"`
	APIKey               string `json:"api_key"`
	PathstoreURL         string `json:"pathstore_url"`
	PathstoreAPIKey      string `json:"pathstore_api_key"`
	MaxConcurrentPublish int    `json:"max_concurrent_publish"`
	WorkerCount          int    `json:"worker_count"`
	MaxQueueSize         int    `json:"max_queue_size"`
	MaxUploadBytes       int64  `json:"max_upload_bytes"`
	MaxDepth             int    `json:"max_depth"`
	JobTTL               string `json:"job_ttl"`
	CacheSize            int    `json:"cache_size"`
	StatsWindow          string `json:"stats_window"`
	LogLevel             string `json:"log_level"`
}

func defaults() Config {
	return Config{
		Port:                 "8090",
		MaxConcurrentPublish: 10,
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxUploadBytes:       52428800, // 50MB
		MaxDepth:             256,
		JobTTL:               1 * time.Hour,
		CacheSize:            128,
		StatsWindow:          1 * time.Hour,
		LogLevel:             "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file
// named by VSDGEST_CONFIG, and environment variables, in that order.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("VSDGEST_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.applyFile(data); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("VSDGEST_API_KEY", cfg.APIKey)
	cfg.PathstoreURL = envOr("PATHSTORE_URL", cfg.PathstoreURL)
	cfg.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", cfg.PathstoreAPIKey)
	cfg.MaxConcurrentPublish = envInt("MAX_CONCURRENT_PUBLISH", cfg.MaxConcurrentPublish)
	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.MaxDepth = envInt("MAX_DEPTH", cfg.MaxDepth)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.CacheSize = envInt("CACHE_SIZE", cfg.CacheSize)
	cfg.StatsWindow = envDuration("STATS_WINDOW", cfg.StatsWindow)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	cfg.clamp()
	return cfg, nil
}

func (c *Config) applyFile(data []byte) error {
	var f fileConfig
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return err
	}
	if f.Port != "" {
		c.Port = f.Port
	}
	if f.APIKey != "" {
		c.APIKey = f.APIKey
	}
	if f.PathstoreURL != "" {
		c.PathstoreURL = f.PathstoreURL
	}
	if f.PathstoreAPIKey != "" {
		c.PathstoreAPIKey = f.PathstoreAPIKey
	}
	if f.MaxConcurrentPublish != 0 {
		c.MaxConcurrentPublish = f.MaxConcurrentPublish
	}
	if f.WorkerCount != 0 {
		c.WorkerCount = f.WorkerCount
	}
	if f.MaxQueueSize != 0 {
		c.MaxQueueSize = f.MaxQueueSize
	}
	if f.MaxUploadBytes != 0 {
		c.MaxUploadBytes = f.MaxUploadBytes
	}
	if f.MaxDepth != 0 {
		c.MaxDepth = f.MaxDepth
	}
	if f.CacheSize != 0 {
		c.CacheSize = f.CacheSize
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.JobTTL != "" {
		d, err := time.ParseDuration(f.JobTTL)
		if err != nil {
			return fmt.Errorf("job_ttl: %w", err)
		}
		c.JobTTL = d
	}
	if f.StatsWindow != "" {
		d, err := time.ParseDuration(f.StatsWindow)
		if err != nil {
			return fmt.Errorf("stats_window: %w", err)
		}
		c.StatsWindow = d
	}
	return nil
}

func (c *Config) clamp() {
	d := defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxConcurrentPublish <= 0 {
		c.MaxConcurrentPublish = d.MaxConcurrentPublish
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.CacheSize <= 0 {
		c.CacheSize = d.CacheSize
	}
	if c.StatsWindow <= 0 {
		c.StatsWindow = d.StatsWindow
	}
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("VSDGEST_API_KEY is required")
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a LOG_LEVEL value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return l, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
