package config

import (
	"fmt"
	"strings"
	"time"
)

type SandboxConfig interface {
	GetSandboxPort() string
	GetSandboxSecret() string
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
	GetSandboxTokenExpiry() (access, refresh time.Duration)
}

var _ SandboxConfig = (*EnvVars)(nil)

type AllowedOrigins []string

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	for _, o := range a {
		if o == origin || o == "*" {
			return true
		}
	}
	return false
}

func (a AllowedOrigins) String() string {
	return strings.Join(a, ", ")
}

func (e *EnvVars) GetSandboxPort() string {
	port := e.SandboxPort
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e *EnvVars) GetSandboxSecret() string {
	return e.SandboxSecret
}

func (e *EnvVars) GetAllowedOrigins() AllowedOrigins {
	return AllowedOrigins(e.SandboxOrigins)
}

func (e *EnvVars) GetAllowedMethods() []string {
	return []string{"GET", "POST", "PUT", "PATCH", "DELETE"}
}

func (e *EnvVars) GetAllowedHeaders() []string {
	return []string{"Content-Type", "Authorization", "X-Request-ID"}
}

func (e *EnvVars) GetSandboxTokenExpiry() (time.Duration, time.Duration) {
	return e.SandboxAccessExpiry, e.SandboxRefreshExpiry
}
