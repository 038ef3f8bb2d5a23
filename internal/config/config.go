package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Viru154/SEIRA/pkg/util"
)

// Config aggregates runtime configuration for the pipeline.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Scoring  ScoringConfig
	Batch    BatchConfig
}

// AppConfig controls process level behavior.
type AppConfig struct {
	Name string
	Env  string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// ScoringConfig holds the IAR weights and cost model inputs.
type ScoringConfig struct {
	WeightFrequency       float64
	WeightComplexity      float64
	WeightImpact          float64
	WeightFeasibility     float64
	AutomationFactor      float64
	HourlyCostUSD         float64
	ImplementationCostUSD float64
	MaintenancePct        float64
}

// BatchConfig tunes the orchestrator.
type BatchConfig struct {
	BatchSize         int
	WorkerConcurrency int
	HardTimeout       time.Duration
	SoftTimeout       time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	WorkerMaxTasks    int
}

// Load reads configuration from environment variables, applying defaults
// where possible. Invalid scoring weights abort before any run starts.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "seira-pipeline"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Scoring: ScoringConfig{
			WeightFrequency:       getEnvAsFloat("SCORING_WEIGHT_FREQUENCY", 0.30),
			WeightComplexity:      getEnvAsFloat("SCORING_WEIGHT_COMPLEXITY", 0.25),
			WeightImpact:          getEnvAsFloat("SCORING_WEIGHT_IMPACT", 0.25),
			WeightFeasibility:     getEnvAsFloat("SCORING_WEIGHT_FEASIBILITY", 0.20),
			AutomationFactor:      getEnvAsFloat("SCORING_AUTOMATION_FACTOR", 0.70),
			HourlyCostUSD:         getEnvAsFloat("SCORING_HOURLY_COST_USD", 25),
			ImplementationCostUSD: getEnvAsFloat("SCORING_IMPLEMENTATION_COST_USD", 10000),
			MaintenancePct:        getEnvAsFloat("SCORING_MAINTENANCE_PCT", 0.15),
		},
		Batch: BatchConfig{
			BatchSize:         getEnvAsInt("BATCH_SIZE", 100),
			WorkerConcurrency: getEnvAsInt("BATCH_WORKER_CONCURRENCY", 8),
			HardTimeout:       time.Duration(getEnvAsInt("BATCH_HARD_TIMEOUT_SECONDS", 1800)) * time.Second,
			SoftTimeout:       time.Duration(getEnvAsInt("BATCH_SOFT_TIMEOUT_SECONDS", 1500)) * time.Second,
			MaxRetries:        getEnvAsInt("BATCH_MAX_RETRIES", 3),
			RetryDelay:        time.Duration(getEnvAsInt("BATCH_RETRY_DELAY_SECONDS", 60)) * time.Second,
			WorkerMaxTasks:    getEnvAsInt("BATCH_WORKER_MAX_TASKS", 1000),
		},
	}

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the scoring invariants: weights must sum to exactly 1.0
// and the cost model must be usable.
func (s ScoringConfig) Validate() error {
	sum := s.WeightFrequency + s.WeightComplexity + s.WeightImpact + s.WeightFeasibility
	if math.Abs(sum-1.0) > 1e-9 {
		return util.NewConfigError("scoring weights must sum to 1.0", map[string]any{
			"frequency":   s.WeightFrequency,
			"complexity":  s.WeightComplexity,
			"impact":      s.WeightImpact,
			"feasibility": s.WeightFeasibility,
			"sum":         sum,
		})
	}
	if s.WeightFrequency < 0 || s.WeightComplexity < 0 || s.WeightImpact < 0 || s.WeightFeasibility < 0 {
		return util.NewConfigError("scoring weights must be non-negative", nil)
	}
	if s.ImplementationCostUSD <= 0 {
		return util.NewConfigError("implementation cost must be positive", map[string]any{
			"implementation_cost_usd": s.ImplementationCostUSD,
		})
	}
	if s.AutomationFactor <= 0 || s.AutomationFactor > 1 {
		return util.NewConfigError("automation factor must be in (0,1]", map[string]any{
			"automation_factor": s.AutomationFactor,
		})
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
