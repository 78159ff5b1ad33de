package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by ADAPTPLAN_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("ADAPTPLAN_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
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

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIKey is the bearer token required on /v1 routes. Empty disables auth.
func APIKey() string {
	return os.Getenv("API_KEY")
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
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

// Neighbor index backends.
const (
	NeighborIndexMemory   = "memory"
	NeighborIndexPGVector = "pgvector"
)

// NeighborIndex selects where nearest-row lookups run.
// Valid values: memory, pgvector. Defaults to memory.
func NeighborIndex() string {
	switch v := os.Getenv("NEIGHBOR_INDEX"); v {
	case NeighborIndexPGVector:
		return v
	default:
		return NeighborIndexMemory
	}
}

// PlannerParallelism bounds concurrent greedy walks per search.
// Defaults to 4 if not set.
func PlannerParallelism() int {
	n, err := strconv.Atoi(os.Getenv("PLANNER_PARALLELISM"))
	if err != nil || n <= 0 {
		return 4
	}
	return n
}

// PlannerMaxSteps bounds each greedy walk. Defaults to 10000 if not set.
func PlannerMaxSteps() int {
	n, err := strconv.Atoi(os.Getenv("PLANNER_MAX_STEPS"))
	if err != nil || n <= 0 {
		return 10000
	}
	return n
}

// PredictorRPS limits outbound calls to remote model servers.
// Defaults to 50 if not set.
func PredictorRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("PREDICTOR_RPS"), 64)
	if err != nil || rps <= 0 {
		return 50
	}
	return rps
}

// PredictorTimeout accepts Go duration syntax. Defaults to 10s if not set.
func PredictorTimeout() time.Duration {
	d, err := time.ParseDuration(os.Getenv("PREDICTOR_TIMEOUT"))
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// AdaptationRetention is how long stored adaptations are kept.
// Defaults to 30 days if not set.
func AdaptationRetention() time.Duration {
	days, err := strconv.Atoi(os.Getenv("ADAPTATION_RETENTION_DAYS"))
	if err != nil || days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}
