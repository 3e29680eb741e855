package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
storage:
  driver: postgres
database:
  host: db
  port: 5433
  user: rydin
  password: "from-file"
  database: rydin
rabbitmq:
  enabled: true
  user: guest
  password: guest
  handler_timeout: 45s
redis:
  enabled: true
  addr: redis:6379
  override_ttl: 24h
services:
  ride_service: 3100
rydin:
  profile_write_timeout: 3s # shorter for staging
  bucket_run_at: "05:15"
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadFromFileParsesSections(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := LoadFromFile(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Port != 5433 || cfg.Database.Password != "from-file" {
		t.Fatalf("database: %+v", cfg.Database)
	}
	if !cfg.RabbitMQ.Enabled || cfg.RabbitMQ.Port != 5672 {
		t.Fatalf("rabbitmq: %+v", cfg.RabbitMQ)
	}
	if cfg.RabbitMQ.HandlerTimeout != 45*time.Second || cfg.RabbitMQ.EventTTL != 24*time.Hour || cfg.RabbitMQ.EventMaxLength != 10000 {
		t.Fatalf("rabbitmq consumer/queue limits: %+v", cfg.RabbitMQ)
	}
	if cfg.Redis.OverrideTTL != 24*time.Hour {
		t.Fatalf("redis ttl: %v", cfg.Redis.OverrideTTL)
	}
	if cfg.Rydin.ProfileWriteTimeout != 3*time.Second || cfg.Rydin.BucketRunAt != "05:15" {
		t.Fatalf("rydin: %+v", cfg.Rydin)
	}
	if cfg.Services.BucketWorkerPort != 3002 {
		t.Fatalf("default worker port: %d", cfg.Services.BucketWorkerPort)
	}
}

func TestLoadFromFileEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", sampleYAML)
	envFile := writeFile(t, dir, "test.env", "RYDIN_JWT_SECRET=from-dotenv\nRYDIN_REDIS_ADDR=cache:6380\n")

	t.Setenv(EnvDBPassword, "from-env")
	t.Setenv(EnvJWTSecret, "")
	os.Unsetenv(EnvJWTSecret)
	t.Setenv(EnvRedisAddr, "")
	os.Unsetenv(EnvRedisAddr)

	cfg, err := LoadFromFile(path, envFile)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Password != "from-env" {
		t.Fatalf("db password = %q", cfg.Database.Password)
	}
	if cfg.JWT.SecretKey != "from-dotenv" {
		t.Fatalf("jwt secret = %q", cfg.JWT.SecretKey)
	}
	if cfg.Redis.Addr != "cache:6380" {
		t.Fatalf("redis addr = %q", cfg.Redis.Addr)
	}
}

func TestParseYAMLRejectsUnknownKeys(t *testing.T) {
	cases := map[string]string{
		"unknown section": "websocket:\n  port: 1\n",
		"unknown key":     "database:\n  hostname: x\n",
		"bad int":         "database:\n  port: abc\n",
		"duplicate":       "jwt:\n  secret_key: a\njwt:\n  secret_key: b\n",
		"orphan key":      "  port: 1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var cfg Config
			if err := parseYAML(strings.NewReader(body), &cfg); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestMemoryDriverNeedsNoDatabase(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "storage:\n  driver: memory\n")
	t.Setenv(EnvStorageDriver, "")
	os.Unsetenv(EnvStorageDriver)

	cfg, err := LoadFromFile(path, filepath.Join(dir, "none.env"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Fatalf("driver = %s", cfg.Storage.Driver)
	}
}
