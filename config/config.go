package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Collector CollectorConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Engine    EngineConfig
	Batch     BatchConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Enabled launches Chrome at startup. Without it only the HTTP engine
	// is available and no network traffic or window globals are observed.
	Enabled bool // default: true

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 5

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// CollectorConfig controls how page signals are gathered.
type CollectorConfig struct {
	// DefaultTimeout is the per-analysis timeout when the client sets none.
	DefaultTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// SettleTime is how long the DOM must stay unchanged after navigation
	// before the page is considered loaded.
	SettleTime time.Duration // default: 500ms

	// BlockedResourceTypes lists resource types the browser never downloads.
	// They are still recorded as intercepted requests.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// FetchRobots enables the best-effort robots.txt fetch by default.
	FetchRobots bool // default: true
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the analysis response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 1000
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// EngineConfig controls the multi-engine racing dispatcher.
type EngineConfig struct {
	// EscalationDelays is the staged start delay for each engine tier
	// (http, browser, browser-stealth).
	EscalationDelays []time.Duration // default: [0s, 2s, 5s]

	// HTTPTimeout is the deadline for the pure HTTP engine.
	HTTPTimeout time.Duration // default: 10s

	// DomainMemoryTTL is how long a winning engine is remembered per host.
	DomainMemoryTTL time.Duration // default: 24h
}

// BatchConfig controls asynchronous batch analysis.
type BatchConfig struct {
	// Concurrency caps simultaneous analyses per batch job.
	Concurrency int // default: 4

	// JobTTL is how long finished jobs remain queryable.
	JobTTL time.Duration // default: 1h
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SCRAPECHECK_HOST", "0.0.0.0"),
			Port: envIntOr("SCRAPECHECK_PORT", 8080),
			Mode: envOr("SCRAPECHECK_MODE", "release"),
		},
		Browser: BrowserConfig{
			Enabled:      envBoolOr("SCRAPECHECK_BROWSER", true),
			Headless:     envBoolOr("SCRAPECHECK_HEADLESS", true),
			MaxPages:     envIntOr("SCRAPECHECK_MAX_PAGES", 5),
			DefaultProxy: os.Getenv("SCRAPECHECK_PROXY"),
			NoSandbox:    envBoolOr("SCRAPECHECK_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("SCRAPECHECK_BROWSER_BIN"),
		},
		Collector: CollectorConfig{
			DefaultTimeout: envDurationOr("SCRAPECHECK_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:     envDurationOr("SCRAPECHECK_MAX_TIMEOUT", 120*time.Second),
			SettleTime:     envDurationOr("SCRAPECHECK_SETTLE_TIME", 500*time.Millisecond),
			BlockedResourceTypes: envSliceOr("SCRAPECHECK_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			FetchRobots: envBoolOr("SCRAPECHECK_FETCH_ROBOTS", true),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SCRAPECHECK_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SCRAPECHECK_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SCRAPECHECK_RATE_RPS", 2.0),
			Burst:             envIntOr("SCRAPECHECK_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SCRAPECHECK_CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("SCRAPECHECK_LOG_LEVEL", "info"),
			Format: envOr("SCRAPECHECK_LOG_FORMAT", "json"),
		},
		Engine: EngineConfig{
			EscalationDelays: envDurationSliceOr("SCRAPECHECK_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second}),
			HTTPTimeout:      envDurationOr("SCRAPECHECK_HTTP_TIMEOUT", 10*time.Second),
			DomainMemoryTTL:  envDurationOr("SCRAPECHECK_DOMAIN_MEMORY_TTL", 24*time.Hour),
		},
		Batch: BatchConfig{
			Concurrency: envIntOr("SCRAPECHECK_BATCH_CONCURRENCY", 4),
			JobTTL:      envDurationOr("SCRAPECHECK_BATCH_JOB_TTL", time.Hour),
		},
	}
}

// ClampTimeout converts a client timeout in seconds to a duration bounded
// by MaxTimeout, falling back to DefaultTimeout when unset.
func (c CollectorConfig) ClampTimeout(seconds int) time.Duration {
	d := c.DefaultTimeout
	if seconds > 0 {
		d = time.Duration(seconds) * time.Second
	}
	if c.MaxTimeout > 0 && d > c.MaxTimeout {
		d = c.MaxTimeout
	}
	return d
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
