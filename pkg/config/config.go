package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Surface identifies which submission UI a piece of text came from.
// The safety policy differs per surface (comments allow an explicit
// override after a crisis warning, posts hard-block).
type Surface string

const (
	SurfacePost    Surface = "post"
	SurfaceComment Surface = "comment"
	SurfaceJournal Surface = "journal"
)

// SurfacePolicy controls the caller-side decision policy for one surface.
type SurfacePolicy struct {
	AllowOverride bool // permit "post anyway" after a HIGH-risk block
	MaxTextLen    int  // enforced at the boundary, not in the engine
}

// Config holds global settings for the Haven safety core.
// All settings can be configured via environment variables or programmatically.
type Config struct {
	// === Risk Signal Engine ===
	VocabularyPath string // optional YAML override for the risk vocabulary (default: embedded table)
	SnippetMaxLen  int    // max chars of text kept in history/audit records (default: 100)

	// === Behavioral tracking (tuning knobs, never hardcode inline) ===
	TrackerWindowSize int           // rolling window of recent messages per user (default: 5)
	EscalateCount     int           // elevated-risk messages in window that trigger ESCALATE (default: 3)
	MonitorCount      int           // elevated-risk messages in window that trigger MONITOR (default: 1)
	TrackerTTL        time.Duration // idle tracker eviction age (default: 1h)

	// === Per-surface decision policy ===
	Surfaces map[Surface]SurfacePolicy

	// === Session Progression Engine ===
	UnlockThreshold        int     // non-skip answers to unlock the next level (default: 5)
	StackedUnlockThreshold int     // same, in stacked premium mode (default: 3)
	WildcardChance         float64 // per-session odds of a wildcard prompt outside special windows (default: 0.05)

	// === Storage & integrations ===
	RedisAddr        string // session store backend; empty = in-memory store
	RedisPassword    string
	PostgresURL      string // crisis audit log; empty = in-memory recorder
	CommunityCardURL string // community card service; empty = disabled
	CommunityTimeout time.Duration

	// === Logging ===
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		VocabularyPath: GetEnv("HAVEN_VOCABULARY_PATH", ""),
		SnippetMaxLen:  clampInt(GetEnvInt("HAVEN_SNIPPET_MAX_LEN", 100), 10, 1000),

		TrackerWindowSize: clampInt(GetEnvInt("HAVEN_TRACKER_WINDOW", 5), 1, 100),
		EscalateCount:     clampInt(GetEnvInt("HAVEN_ESCALATE_COUNT", 3), 1, 100),
		MonitorCount:      clampInt(GetEnvInt("HAVEN_MONITOR_COUNT", 1), 1, 100),
		TrackerTTL:        time.Duration(GetEnvInt("HAVEN_TRACKER_TTL_SECONDS", 3600)) * time.Second,

		Surfaces: map[Surface]SurfacePolicy{
			// Comments allow an explicit "post anyway" path after the crisis
			// warning; posts do not. This asymmetry is intentional product
			// policy and must not be silently unified.
			SurfacePost:    {AllowOverride: GetEnvBool("HAVEN_POST_ALLOW_OVERRIDE", false), MaxTextLen: GetEnvInt("HAVEN_POST_MAX_LEN", 2000)},
			SurfaceComment: {AllowOverride: GetEnvBool("HAVEN_COMMENT_ALLOW_OVERRIDE", true), MaxTextLen: GetEnvInt("HAVEN_COMMENT_MAX_LEN", 500)},
			SurfaceJournal: {AllowOverride: GetEnvBool("HAVEN_JOURNAL_ALLOW_OVERRIDE", false), MaxTextLen: GetEnvInt("HAVEN_JOURNAL_MAX_LEN", 2000)},
		},

		UnlockThreshold:        clampInt(GetEnvInt("HAVEN_UNLOCK_THRESHOLD", 5), 1, 100),
		StackedUnlockThreshold: clampInt(GetEnvInt("HAVEN_STACKED_UNLOCK_THRESHOLD", 3), 1, 100),
		WildcardChance:         GetEnvFloat("HAVEN_WILDCARD_CHANCE", 0.05),

		RedisAddr:        GetEnv("HAVEN_REDIS_ADDR", ""),
		RedisPassword:    GetEnv("HAVEN_REDIS_PASSWORD", ""),
		PostgresURL:      GetEnv("HAVEN_POSTGRES_URL", GetEnv("DATABASE_URL", "")),
		CommunityCardURL: GetEnv("HAVEN_COMMUNITY_CARD_URL", ""),
		CommunityTimeout: time.Duration(GetEnvInt("HAVEN_COMMUNITY_TIMEOUT_MS", 5000)) * time.Millisecond,

		LogLevel:  GetEnv("HAVEN_LOG_LEVEL", "info"),
		LogFormat: GetEnv("HAVEN_LOG_FORMAT", "text"),
	}
}

// NewHighSafetyConfig creates a Config with more aggressive escalation
// (may surface more warnings to users who do not need them).
func NewHighSafetyConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.EscalateCount = 2
	cfg.TrackerWindowSize = 10
	for surface, policy := range cfg.Surfaces {
		policy.AllowOverride = false
		cfg.Surfaces[surface] = policy
	}
	return cfg
}

// PolicyFor returns the decision policy for a surface, falling back to the
// hard-blocking post policy for unknown surfaces.
func (c *Config) PolicyFor(surface Surface) SurfacePolicy {
	if p, ok := c.Surfaces[surface]; ok {
		return p
	}
	return SurfacePolicy{AllowOverride: false, MaxTextLen: 2000}
}

// Validate checks that the configured policy values are coherent.
func (c *Config) Validate() error {
	var problems []string

	if c.TrackerWindowSize < 1 {
		problems = append(problems, "HAVEN_TRACKER_WINDOW must be >= 1")
	}
	if c.EscalateCount < c.MonitorCount {
		problems = append(problems, "HAVEN_ESCALATE_COUNT must be >= HAVEN_MONITOR_COUNT")
	}
	if c.EscalateCount > c.TrackerWindowSize {
		problems = append(problems, "HAVEN_ESCALATE_COUNT cannot exceed HAVEN_TRACKER_WINDOW")
	}
	if c.UnlockThreshold < 1 || c.StackedUnlockThreshold < 1 {
		problems = append(problems, "unlock thresholds must be >= 1")
	}
	if c.WildcardChance < 0 || c.WildcardChance > 1 {
		problems = append(problems, "HAVEN_WILDCARD_CHANCE must be in [0, 1]")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// clampInt ensures a value is within bounds
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing
// These are exported for use by other packages.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
