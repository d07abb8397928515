package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is set.
const DefaultPath = "config/config.yaml"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Questions QuestionsConfig `mapstructure:"questions"`
	Quiz      QuizConfig      `mapstructure:"quiz"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      string `mapstructure:"ttl"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type QuestionsConfig struct {
	File string `mapstructure:"file"`
	TTL  string `mapstructure:"ttl"`
}

type QuizConfig struct {
	PassThreshold     int    `mapstructure:"passthreshold"`
	PointsPerQuestion int    `mapstructure:"pointsperquestion"`
	QuestionCount     int    `mapstructure:"questioncount"`
	RevealAnswers     bool   `mapstructure:"revealanswers"`
	SessionTTL        string `mapstructure:"sessionttl"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"maxsizemb"`
	MaxBackups int    `mapstructure:"maxbackups"`
	MaxAgeDays int    `mapstructure:"maxagedays"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowedorigins"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requestspersecond"`
	Burst             int     `mapstructure:"burst"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("storage.driver", DriverMemory)
	// Keys without a useful default are still registered so QUIZ_* env vars
	// reach them when no config file exists.
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "10m")
	v.SetDefault("postgres.url", "")
	v.SetDefault("sqlite.path", "quiz.db")
	v.SetDefault("mysql.dsn", "")
	v.SetDefault("questions.file", "")
	v.SetDefault("questions.ttl", "10m")
	v.SetDefault("quiz.passThreshold", 3)
	v.SetDefault("quiz.pointsPerQuestion", 100)
	v.SetDefault("quiz.questionCount", 5)
	v.SetDefault("quiz.revealAnswers", false)
	v.SetDefault("quiz.sessionTTL", "30m")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.maxSizeMB", 100)
	v.SetDefault("logging.maxBackups", 3)
	v.SetDefault("logging.maxAgeDays", 28)
	v.SetDefault("cors.allowedOrigins", []string{"*"})
	v.SetDefault("rateLimit.requestsPerSecond", 20)
	v.SetDefault("rateLimit.burst", 40)
}

// Load reads YAML config from path. A missing file yields the defaults;
// QUIZ_* environment variables override both.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("QUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !missing(err) {
			return cfg, err
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func missing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}
