package config

import "strings"

type StoreKind string

const (
	StoreSQLite StoreKind = "sqlite"
	StoreRedis  StoreKind = "redis"
	StoreMemory StoreKind = "memory"
)

type StoreConfig interface {
	GetTokenStore() StoreKind
	GetTokenDBPath() string
	GetRedisURL() string
}

var _ StoreConfig = (*EnvVars)(nil)

// GetTokenStore falls back to sqlite for unrecognised values.
func (e *EnvVars) GetTokenStore() StoreKind {
	switch kind := StoreKind(strings.ToLower(e.TokenStore)); kind {
	case StoreSQLite, StoreRedis, StoreMemory:
		return kind
	default:
		return StoreSQLite
	}
}

func (e *EnvVars) GetTokenDBPath() string {
	return e.TokenDBPath
}

func (e *EnvVars) GetRedisURL() string {
	return e.RedisURL
}
