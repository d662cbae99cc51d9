package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthSecret string

	AMQPURL      string // empty disables the broker publisher
	AMQPExchange string

	RedisAddr string // empty disables the stats cache

	CORSOrigins []string
}

// FromEnv loads .env if present, then reads configuration from the
// environment with development defaults.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:     envOr("HTTP_ADDR", ":8080"),
		DBDriver:     envOr("DB_DRIVER", "sqlite"),
		DBDSN:        envOr("DB_DSN", ""),
		AuthSecret:   envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: envOr("AMQP_EXCHANGE", "studyhall.events"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		CORSOrigins:  csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
