package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
	SandboxConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	*EnvVars
}

// New loads .env.<env> from dir (when present) and parses the environment.
// An empty dir means the working directory.
func New(dir string) (Config, error) {
	vars, err := Load(dir)
	if err != nil {
		return nil, err
	}
	return mainConfig{EnvVars: vars}, nil
}

// Load returns the raw environment values backing a Config.
func Load(dir string) (*EnvVars, error) {
	envName := strings.ToLower(GetEnv(envVar, defaultEnv))
	dotEnvPath := filepath.Join(dir, ".env."+envName)
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, fmt.Errorf("config.godotenv(%s): %w", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config.os.Stat(%s): %w", dotEnvPath, err)
	}

	vars := &EnvVars{}
	if err := env.Parse(vars); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	return vars, nil
}
