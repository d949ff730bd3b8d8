package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/edu-console/internal/errors"
	"github.com/jrsteele09/edu-console/token"
	"github.com/pkg/errors"
)

// AuthorizedRequest sends an authenticated JSON request and decodes a JSON
// response into out.
//
// A 401 triggers one refresh of the access token and one retry. When the
// refresh is rejected, no refresh token is on record, or the retry is also
// rejected, both tokens are discarded and *SessionExpiredError is returned.
// Other non-2xx responses and transport failures are returned as *APIError.
// An empty 2xx body leaves out untouched.
func (c *Client) AuthorizedRequest(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
	}

	m := newRequestMachine(uuid.NewString(), method, path, c.logger, c.observer)
	access, _ := c.store.Get(ctx, token.AccessTokenKey)

	var (
		resp   *response
		result error
		cause  error
	)
	for {
		var next RequestState
		switch m.state {
		case StateIdle:
			next = StateSending

		case StateSending, StateRetry:
			var err error
			resp, err = c.send(ctx, method, path, payload, access, m.id)
			switch {
			case err != nil:
				next, result = StateFailed, err
			case resp.status == http.StatusUnauthorized && m.state == StateSending:
				next = StateAuthFailed
			case resp.status == http.StatusUnauthorized:
				next, cause = StateSessionExpired, statusError(method, path, resp.status, resp.body)
			case !resp.ok():
				next, result = StateFailed, statusError(method, path, resp.status, resp.body)
			default:
				next = StateSuccess
			}

		case StateAuthFailed:
			next = StateRefreshing

		case StateRefreshing:
			fresh, err := c.refreshFor(ctx, access)
			switch {
			case err == nil:
				next, access = StateRetry, fresh
			case endsSession(err):
				next, cause = StateSessionExpired, err
			default:
				next, result = StateFailed, asAPIError(method, path, err)
			}

		case StateSuccess:
			return decodeBody(method, path, resp, out)

		case StateSessionExpired:
			return c.expire(ctx, cause)

		case StateFailed:
			return result
		}

		if err := m.to(next); err != nil {
			return err
		}
	}
}

// refreshFor returns an access token to retry with. When the token that was
// rejected has already been replaced the current one is used without another
// exchange.
func (c *Client) refreshFor(ctx context.Context, used string) (string, error) {
	if current, ok := c.replaced(ctx, used); ok {
		c.logger.Debug().Msg("access token already replaced, retrying without refresh")
		return current, nil
	}
	res, err := c.refresher.Do(ctx, func(ctx context.Context) (string, error) {
		// an exchange that completed while this caller was queued counts too
		if current, ok := c.replaced(ctx, used); ok {
			return current, nil
		}
		return c.exchange(ctx)
	})
	if err != nil {
		return "", err
	}
	return res.Access, nil
}

func (c *Client) replaced(ctx context.Context, used string) (string, bool) {
	current, ok := c.store.Get(ctx, token.AccessTokenKey)
	return current, ok && current != used
}

func endsSession(err error) bool {
	return apperrors.Is(err, apperrors.ErrNoRefreshToken) || apperrors.Is(err, apperrors.ErrRefreshRejected)
}

func asAPIError(method, path string, err error) error {
	var apiErr *APIError
	if apperrors.As(err, &apiErr) {
		return apiErr
	}
	return transportError(method, path, err)
}

func decodeBody(method, path string, resp *response, out any) error {
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return invalidResponse(method, path, resp.status, err)
	}
	return nil
}

// Get, Post, Put and Delete are AuthorizedRequest shorthands.

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.AuthorizedRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.AuthorizedRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.AuthorizedRequest(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.AuthorizedRequest(ctx, http.MethodDelete, path, nil, nil)
}
