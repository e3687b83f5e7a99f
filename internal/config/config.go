package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by MARKETMIND_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("MARKETMIND_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the process environment still applies.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// StoreBackend returns the snapshot store implementation.
// Valid values: badger, postgres. Defaults to badger.
func StoreBackend() string {
	b := os.Getenv("STORE_BACKEND")
	if b == "" {
		return "badger"
	}
	return b
}

func BadgerPath() string {
	p := os.Getenv("BADGER_PATH")
	if p == "" {
		return "data/snapshots"
	}
	return p
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// RedisURL enables the cross-process cycle lock when set.
func RedisURL() string {
	return os.Getenv("REDIS_URL")
}

func CycleLockTTL() time.Duration {
	return durationEnv("CYCLE_LOCK_TTL", 10*time.Minute)
}

// ReasoningProvider returns the configured reasoning service.
// Valid values: openai, xai, anthropic, gemini, mock, none. Defaults to none, in which
// case only verdicts supplied with the observation batch are used.
func ReasoningProvider() string {
	p := os.Getenv("REASONING_PROVIDER")
	if p == "" {
		return "none"
	}
	return p
}

// ReasoningAPIKey returns the API key for the configured provider.
func ReasoningAPIKey() string {
	switch ReasoningProvider() {
	case "xai":
		return os.Getenv("XAI_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}

func ReasoningModel() string {
	return os.Getenv("REASONING_MODEL")
}

func ReasoningTimeout() time.Duration {
	return durationEnv("REASONING_TIMEOUT", 20*time.Second)
}

// StalenessCycles is the number of evidence-free cycles before an ACTIVE
// hypothesis is retired. Defaults to 3.
func StalenessCycles() int {
	n, err := strconv.Atoi(os.Getenv("STALENESS_CYCLES"))
	if err != nil || n <= 0 {
		return 3
	}
	return n
}

func NarrativeMomentumFloor() float64 {
	return floatEnv("NARRATIVE_MOMENTUM_FLOOR", 0)
}

func NarrativeLowAttention() float64 {
	return floatEnv("NARRATIVE_LOW_ATTENTION", 0.3)
}

func NarrativeCrowdedAttention() float64 {
	return floatEnv("NARRATIVE_CROWDED_ATTENTION", 0.7)
}

// CrossCheckNoisePct is the absolute 24h move below which a metric is neutral.
func CrossCheckNoisePct() float64 {
	return floatEnv("CROSSCHECK_NOISE_PCT", 0.5)
}

func ReviewInterval() time.Duration {
	return durationEnv("REVIEW_INTERVAL", 4*time.Hour)
}

// APIKey protects the /v1 routes. Empty disables auth.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 20 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 20
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 10 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 10
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func floatEnv(name string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(name), 64)
	if err != nil {
		return def
	}
	return v
}

func durationEnv(name string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(name))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
