package gateway

import (
	"encoding/json"
	"strings"

	"github.com/jrsteele09/edu-console/token"
	"github.com/jrsteele09/edu-console/users"
)

// LoginRequest is the body of POST /auth/login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	// Access is the short-lived bearer credential.
	// Usage: Authorization: Bearer <access>
	Access string `json:"access"`

	// Refresh is exchanged at /token/refresh/ for a new access token.
	// The exchange never returns a new refresh token.
	Refresh string `json:"refresh"`

	// User is the authenticated account.
	User *users.User `json:"user"`
}

// RefreshRequest is the body of POST /token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse carries the new access token.
type RefreshResponse struct {
	Access string `json:"access"`
}

// errorBody is the backend's error shape. Detail is usually a string but
// validation failures return a list, so it is kept raw.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// LoginResult is what Login hands back on success.
type LoginResult struct {
	User   *users.User
	Tokens token.Pair
}

// parseDetail extracts a readable message from an error response body.
func parseDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(eb.Detail))
}
