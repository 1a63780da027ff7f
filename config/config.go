package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type (
	Postgres struct {
		User   string
		Pass   string
		Host   string
		Port   string
		DBName string
	}

	Redis struct {
		Addr string
		DB   int
	}

	Logging struct {
		LogLvl string
		File   string
	}

	Pipeline struct {
		TickLogPath string
		Sinks       string // "on" wires redis/postgres, "off" wires no-op sinks
	}

	Config struct {
		Postgres Postgres
		Redis    Redis
		Logging  Logging
		Pipeline Pipeline
	}
)

func LoadConfig() *Config {
	// Optional .env; real env vars win.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Postgres.User = getEnv("DB_USER", "postgres")
	cfg.Postgres.Pass = getEnv("DB_PASS", "postgres")
	cfg.Postgres.Host = getEnv("DB_HOST", "localhost")
	cfg.Postgres.Port = getEnv("DB_PORT", "5432")
	cfg.Postgres.DBName = getEnv("DB_NAME", "hft")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.DB, _ = strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg.Logging.LogLvl = getEnv("LOG_LVL", "dev")
	cfg.Logging.File = getEnv("LOG_FILE", "logs/tickdash.log")

	cfg.Pipeline.TickLogPath = getEnv("TICK_LOG_PATH", "stock_data.txt")
	cfg.Pipeline.Sinks = getEnv("SINKS", "on")

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}

	return defaultValue
}
