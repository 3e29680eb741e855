package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Storage struct {
		Driver string // postgres | memory
	}
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string // YAML key: "database"
	}
	RabbitMQ struct {
		Enabled        bool
		Host           string
		Port           int
		User           string
		Password       string
		HandlerTimeout time.Duration // per-delivery budget of a consumer handler
		EventTTL       time.Duration // how long unconsumed ride events are retained
		EventMaxLength int           // cap on retained ride events per queue
	}
	Redis struct {
		Enabled     bool
		Addr        string
		Password    string
		DB          int
		OverrideTTL time.Duration
	}
	Services struct {
		RideServicePort   int
		BucketWorkerPort  int
		ShutdownTimeout   time.Duration
		MaxConcurrentReqs int
	}
	JWT struct {
		SecretKey string `yaml:"secret_key"`
	}
	Rydin struct {
		ProfileWriteTimeout time.Duration
		BucketRunAt         string // HH:MM local
		ClearanceBatch      int
		Timezone            string
	}
}

// Environment overrides, read after the optional .env file is loaded.
const (
	EnvDBPassword       = "RYDIN_DB_PASSWORD"
	EnvRabbitMQPassword = "RYDIN_RABBITMQ_PASSWORD"
	EnvJWTSecret        = "RYDIN_JWT_SECRET"
	EnvRedisAddr        = "RYDIN_REDIS_ADDR"
	EnvStorageDriver    = "RYDIN_STORAGE_DRIVER"
)

// LoadFromFile loads config from a YAML file to a Config struct, applies
// environment overrides and defaults, and validates required fields.
func LoadFromFile(path string, envFiles ...string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := parseYAML(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := loadDotEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads .env style files into the process env. Missing files are skipped;
// variables already set in the environment win.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	return nil
}

// applyEnv overwrites secrets and endpoints from the environment.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDBPassword)); v != "" {
		cfg.Database.Password = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRabbitMQPassword)); v != "" {
		cfg.RabbitMQ.Password = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJWTSecret)); v != "" {
		cfg.JWT.SecretKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisAddr)); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDriver)); v != "" {
		cfg.Storage.Driver = v
	}
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Storage
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverPostgres
	}

	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}
	if cfg.RabbitMQ.HandlerTimeout == 0 {
		cfg.RabbitMQ.HandlerTimeout = 2 * time.Minute
	}
	if cfg.RabbitMQ.EventTTL == 0 {
		cfg.RabbitMQ.EventTTL = 24 * time.Hour
	}
	if cfg.RabbitMQ.EventMaxLength == 0 {
		cfg.RabbitMQ.EventMaxLength = 10000
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.OverrideTTL == 0 {
		cfg.Redis.OverrideTTL = 7 * 24 * time.Hour
	}

	// Services
	if cfg.Services.RideServicePort == 0 {
		cfg.Services.RideServicePort = 3000
	}
	if cfg.Services.BucketWorkerPort == 0 {
		cfg.Services.BucketWorkerPort = 3002
	}
	if cfg.Services.ShutdownTimeout == 0 {
		cfg.Services.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Services.MaxConcurrentReqs == 0 {
		cfg.Services.MaxConcurrentReqs = 100
	}

	// Rydin
	if cfg.Rydin.ProfileWriteTimeout == 0 {
		cfg.Rydin.ProfileWriteTimeout = 10 * time.Second
	}
	if cfg.Rydin.BucketRunAt == "" {
		cfg.Rydin.BucketRunAt = "04:30"
	}
	if cfg.Rydin.ClearanceBatch == 0 {
		cfg.Rydin.ClearanceBatch = 500
	}
	if cfg.Rydin.Timezone == "" {
		cfg.Rydin.Timezone = "Asia/Kolkata"
	}

	if cfg.JWT.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			// fallback: time-based bytes
			key = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		}
		cfg.JWT.SecretKey = base64.StdEncoding.EncodeToString(key)
	}
}

// Location resolves the campus timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Rydin.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// Storage
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			problems = append(problems, "database.port must be in 1..65535")
		}
		if c.Database.User == "" {
			problems = append(problems, "database.user is required")
		}
		if c.Database.Password == "" {
			problems = append(problems, "database.password is required")
		}
		if c.Database.Name == "" {
			problems = append(problems, "database.name is required")
		}
	case DriverMemory:
	default:
		problems = append(problems, "storage.driver must be postgres or memory")
	}

	// RabbitMQ
	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
			problems = append(problems, "rabbitmq.port must be in 1..65535")
		}
		if c.RabbitMQ.User == "" {
			problems = append(problems, "rabbitmq.user is required")
		}
		if c.RabbitMQ.Password == "" {
			problems = append(problems, "rabbitmq.password is required")
		}
		if c.RabbitMQ.HandlerTimeout < 0 || c.RabbitMQ.EventTTL < 0 || c.RabbitMQ.EventMaxLength < 0 {
			problems = append(problems, "rabbitmq.handler_timeout, event_ttl and event_max_length must be positive")
		}
	}

	// Redis
	if c.Redis.DB < 0 {
		problems = append(problems, "redis.db must be >= 0")
	}

	// Services
	if c.Services.RideServicePort <= 0 || c.Services.RideServicePort > 65535 {
		problems = append(problems, "services.ride_service must be in 1..65535")
	}
	if c.Services.BucketWorkerPort <= 0 || c.Services.BucketWorkerPort > 65535 {
		problems = append(problems, "services.bucket_worker must be in 1..65535")
	}

	// Rydin
	if _, err := time.Parse("15:04", c.Rydin.BucketRunAt); err != nil {
		problems = append(problems, "rydin.bucket_run_at must be HH:MM")
	}
	if c.Rydin.ProfileWriteTimeout < 0 {
		problems = append(problems, "rydin.profile_write_timeout must be positive")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
