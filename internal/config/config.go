package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the .env file specified by REGULA_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("REGULA_ENV")
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

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL is optional. Without it experiments are not persisted.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIKey is the static bearer token guarding /v1. Empty disables auth.
func APIKey() string {
	return os.Getenv("API_KEY")
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

// GeneratorMaxAttempts bounds rejection sampling in the regula, policy and
// interaction generators. Defaults to 100000.
func GeneratorMaxAttempts() int {
	n, err := strconv.Atoi(os.Getenv("GENERATOR_MAX_ATTEMPTS"))
	if err != nil || n <= 0 {
		return 100000
	}
	return n
}

// ExperimentParallelism is how many repetitions run at once. Defaults to 4.
func ExperimentParallelism() int {
	n, err := strconv.Atoi(os.Getenv("EXPERIMENT_PARALLELISM"))
	if err != nil || n <= 0 {
		return 4
	}
	return n
}

// SessionIdleTTL is how long a learning session may go without
// observations before the expirer drops it. Defaults to one hour.
func SessionIdleTTL() time.Duration {
	d, err := time.ParseDuration(os.Getenv("SESSION_IDLE_TTL"))
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

func ParamsFile() string {
	return os.Getenv("PARAMS_FILE")
}

// LoadParams reads per-profile parameter overrides from a YAML file shaped
// like:
//
//	punish:
//	  p4: 20
//	  p2: 1
//
// An empty path yields no overrides.
func LoadParams(path string) (map[string]map[string]float64, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params file: %w", err)
	}
	var out map[string]map[string]float64
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse params file: %w", err)
	}
	return out, nil
}
