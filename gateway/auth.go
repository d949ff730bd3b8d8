package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/edu-console/internal/errors"
	"github.com/jrsteele09/edu-console/token"
	"github.com/jrsteele09/edu-console/users"
	"github.com/pkg/errors"
)

// Login exchanges credentials for a token pair, records the pair and returns
// the authenticated user. Rejected credentials yield *AuthenticationError.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	payload, err := json.Marshal(LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode login request")
	}

	resp, err := c.send(ctx, http.MethodPost, PathLogin, payload, "", uuid.NewString())
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		detail := parseDetail(resp.body)
		if detail == "" {
			detail = defaultAuthDetail
		}
		c.logger.Debug().Int("status", resp.status).Str("username", username).Msg("login rejected")
		return nil, &AuthenticationError{Detail: detail}
	}

	var lr LoginResponse
	if err := json.Unmarshal(resp.body, &lr); err != nil {
		return nil, invalidResponse(http.MethodPost, PathLogin, resp.status, err)
	}
	if lr.Access == "" || lr.Refresh == "" || lr.User == nil {
		return nil, invalidResponse(http.MethodPost, PathLogin, resp.status, errors.New("missing access, refresh or user"))
	}

	pair := token.Pair{Access: lr.Access, Refresh: lr.Refresh}
	c.store.SetPair(ctx, pair)
	c.logger.Debug().Str("username", lr.User.Username).Stringer("role", lr.User.Role).Msg("logged in")

	return &LoginResult{User: lr.User, Tokens: pair}, nil
}

// Logout tells the backend the session is over and clears the tokens. The
// backend call is best effort; the tokens are cleared whatever its outcome.
func (c *Client) Logout(ctx context.Context) {
	if access, ok := c.store.Get(ctx, token.AccessTokenKey); ok {
		resp, err := c.send(ctx, http.MethodPost, PathLogout, nil, access, uuid.NewString())
		switch {
		case err != nil:
			c.logger.Debug().Err(err).Msg("logout request failed")
		case !resp.ok():
			c.logger.Debug().Int("status", resp.status).Msg("logout rejected by backend")
		}
	}
	c.DiscardTokens(ctx)
}

// RefreshAccessToken exchanges the refresh token for a new access token and
// records it. On failure the token store is left as it was. Concurrent callers
// share a single exchange.
func (c *Client) RefreshAccessToken(ctx context.Context) (string, error) {
	res, err := c.refresher.Do(ctx, c.exchange)
	if err != nil {
		return "", err
	}
	return res.Access, nil
}

func (c *Client) exchange(ctx context.Context) (string, error) {
	refreshToken, ok := c.store.Get(ctx, token.RefreshTokenKey)
	if !ok {
		return "", apperrors.ErrNoRefreshToken
	}

	payload, err := json.Marshal(RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode refresh request")
	}

	resp, err := c.send(ctx, http.MethodPost, PathRefresh, payload, "", "")
	if err != nil {
		return "", err
	}
	if !resp.ok() {
		return "", fmt.Errorf("%w: %w", apperrors.ErrRefreshRejected, statusError(http.MethodPost, PathRefresh, resp.status, resp.body))
	}

	var rr RefreshResponse
	if err := json.Unmarshal(resp.body, &rr); err != nil || rr.Access == "" {
		return "", apperrors.Wrapf(apperrors.ErrRefreshRejected, "refresh response carried no access token")
	}

	c.store.Set(ctx, token.AccessTokenKey, rr.Access)
	c.logger.Debug().Msg("access token refreshed")
	return rr.Access, nil
}

// CurrentUser returns the account the cached access token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*users.User, error) {
	var u users.User
	if err := c.AuthorizedRequest(ctx, http.MethodGet, PathUser, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" && u.Username == "" {
		return nil, invalidResponse(http.MethodGet, PathUser, http.StatusOK, errors.New("empty user"))
	}
	return &u, nil
}

func invalidResponse(method, path string, status int, cause error) *APIError {
	return &APIError{
		Method: method,
		Path:   path,
		Status: status,
		Err:    fmt.Errorf("%w: %w", apperrors.ErrInvalidResponse, cause),
	}
}
