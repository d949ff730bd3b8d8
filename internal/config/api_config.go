package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetRateLimit() (rps float64, burst int)
}

var _ APIConfig = (*EnvVars)(nil)

// GetAPIBaseURL returns the backend base URL without a trailing slash,
// e.g. "http://localhost:8000/api".
func (e *EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(e.APIBaseURL, "/")
}

func (e *EnvVars) GetHTTPTimeout() time.Duration {
	if e.HTTPTimeout <= 0 {
		return 15 * time.Second
	}
	return e.HTTPTimeout
}

func (e *EnvVars) GetRateLimit() (float64, int) {
	burst := e.RateLimitBurst
	if burst < 1 {
		burst = 1
	}
	return e.RateLimitRPS, burst
}
