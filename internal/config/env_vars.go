package config

import (
	"os"
	"strings"
	"time"
)

const (
	envVar     = "ENV"
	defaultEnv = "DEV"
)

// EnvVars is parsed from the process environment by env.Parse.
type EnvVars struct {
	Env      string `env:"ENV" envDefault:"DEV"`
	AppName  string `env:"APP_NAME" envDefault:"Edu Console"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	APIBaseURL     string        `env:"API_BASE_URL" envDefault:"http://localhost:8000/api"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"10"`

	TokenStore  string `env:"TOKEN_STORE" envDefault:"sqlite"`
	TokenDBPath string `env:"TOKEN_DB_PATH" envDefault:"./data/tokens.db"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	SandboxPort          string        `env:"SANDBOX_PORT" envDefault:"8000"`
	SandboxSecret        string        `env:"SANDBOX_SECRET" envDefault:"sandbox-secret"`
	SandboxOrigins       []string      `env:"SANDBOX_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	SandboxAccessExpiry  time.Duration `env:"SANDBOX_ACCESS_EXPIRY" envDefault:"5m"`
	SandboxRefreshExpiry time.Duration `env:"SANDBOX_REFRESH_EXPIRY" envDefault:"24h"`
}

var _ EnvConfig = (*EnvVars)(nil)

func (e *EnvVars) GetAppName() string {
	return e.AppName
}

func (e *EnvVars) GetEnv() string {
	if e.Env == "" {
		return defaultEnv
	}
	return strings.ToUpper(e.Env)
}

func (e *EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
