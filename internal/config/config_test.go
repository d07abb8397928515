package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Storage.Driver != DriverMemory {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Quiz.PassThreshold != 3 || cfg.Quiz.PointsPerQuestion != 100 || cfg.Quiz.QuestionCount != 5 {
		t.Fatalf("unexpected quiz defaults: %+v", cfg.Quiz)
	}
	if cfg.RateLimit.Burst != 40 || cfg.RateLimit.RequestsPerSecond != 20 {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected cors defaults: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: "9000"
storage:
  driver: sqlite
sqlite:
  path: /tmp/q.db
quiz:
  passThreshold: 4
  revealAnswers: true
cors:
  allowedOrigins: ["https://a.example", "https://b.example"]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("QUIZ_STORAGE_DRIVER", "redis")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.SQLite.Path != "/tmp/q.db" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Storage.Driver != DriverRedis {
		t.Fatalf("env override not applied: %q", cfg.Storage.Driver)
	}
	if cfg.Quiz.PassThreshold != 4 || !cfg.Quiz.RevealAnswers || cfg.Quiz.PointsPerQuestion != 100 {
		t.Fatalf("unexpected quiz config: %+v", cfg.Quiz)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("unexpected origins: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadEnvOnlyWithoutFile(t *testing.T) {
	t.Setenv("QUIZ_STORAGE_DRIVER", "postgres")
	t.Setenv("QUIZ_POSTGRES_URL", "postgres://quiz:quiz@db:5432/quiz")
	t.Setenv("QUIZ_REDIS_ADDR", "cache:6379")
	t.Setenv("QUIZ_REDIS_PASSWORD", "secret")
	t.Setenv("QUIZ_MYSQL_DSN", "quiz:quiz@tcp(db:3306)/quiz?parseTime=true")
	t.Setenv("QUIZ_QUESTIONS_FILE", "/data/questions.csv")
	t.Setenv("QUIZ_LOGGING_FILE", "/var/log/quiz.log")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverPostgres || cfg.Postgres.URL != "postgres://quiz:quiz@db:5432/quiz" {
		t.Fatalf("postgres env not applied: %+v %+v", cfg.Storage, cfg.Postgres)
	}
	if cfg.Redis.Addr != "cache:6379" || cfg.Redis.Password != "secret" {
		t.Fatalf("redis env not applied: %+v", cfg.Redis)
	}
	if cfg.MySQL.DSN == "" || cfg.Questions.File != "/data/questions.csv" || cfg.Logging.File != "/var/log/quiz.log" {
		t.Fatalf("env not applied: %+v %+v %+v", cfg.MySQL, cfg.Questions, cfg.Logging)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_ = os.WriteFile(path, []byte("server: [unterminated"), 0o600)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("empty: %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("bogus: %v", got)
	}
	if got := TTLDuration("45s", time.Minute); got != 45*time.Second {
		t.Fatalf("45s: %v", got)
	}
}
