package fakeapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/edu-console/academy"
	"github.com/jrsteele09/edu-console/fakeapi"
	"github.com/jrsteele09/edu-console/gateway"
	"github.com/jrsteele09/edu-console/internal/config"
	"github.com/jrsteele09/edu-console/users"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	api *fakeapi.Server
	srv *httptest.Server
}

func setupTestFixture(t *testing.T, opts ...fakeapi.Option) *testFixture {
	t.Helper()
	api := fakeapi.New(opts...)
	require.NoError(t, api.SeedDemo())
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return &testFixture{api: api, srv: srv}
}

func (f *testFixture) do(t *testing.T, method, path, bearer string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out.Bytes()
}

func (f *testFixture) login(t *testing.T, username, password string) gateway.LoginResponse {
	t.Helper()
	status, body := f.do(t, http.MethodPost, gateway.PathLogin, "", gateway.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, status, string(body))
	var lr gateway.LoginResponse
	require.NoError(t, json.Unmarshal(body, &lr))
	return lr
}

func detail(t *testing.T, body []byte) string {
	t.Helper()
	var d struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(body, &d))
	return d.Detail
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("valid credentials", func(t *testing.T) {
		lr := f.login(t, "admin", "admin123")
		require.NotEmpty(t, lr.Access)
		require.NotEmpty(t, lr.Refresh)
		require.NotEqual(t, lr.Access, lr.Refresh)
		require.Equal(t, users.RoleAdministrator, lr.User.Role)
		require.Equal(t, "admin", lr.User.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, gateway.PathLogin, "", gateway.LoginRequest{Username: "admin", Password: "nope"})
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "Incorrect username or password", detail(t, body))
	})

	t.Run("unknown user", func(t *testing.T) {
		status, _ := f.do(t, http.MethodPost, gateway.PathLogin, "", gateway.LoginRequest{Username: "ghost", Password: "x"})
		require.Equal(t, http.StatusUnauthorized, status)
	})

	require.Equal(t, 3, f.api.Calls(http.MethodPost, gateway.PathLogin))
}

func TestRequireAuth(t *testing.T) {
	f := setupTestFixture(t)
	lr := f.login(t, "owner", "owner123")

	t.Run("missing bearer", func(t *testing.T) {
		status, _ := f.do(t, http.MethodGet, gateway.PathUser, "", nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		status, _ := f.do(t, http.MethodGet, gateway.PathUser, lr.Refresh, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("access token", func(t *testing.T) {
		status, body := f.do(t, http.MethodGet, gateway.PathUser, lr.Access, nil)
		require.Equal(t, http.StatusOK, status)
		var u users.User
		require.NoError(t, json.Unmarshal(body, &u))
		require.Equal(t, users.RoleOwner, u.Role)
	})

	t.Run("revoked access token", func(t *testing.T) {
		f.api.RevokeAccessTokens()
		status, _ := f.do(t, http.MethodGet, gateway.PathUser, lr.Access, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestRefresh(t *testing.T) {
	f := setupTestFixture(t, fakeapi.WithTokenTTL(time.Minute, time.Hour))
	lr := f.login(t, "mentor", "mentor123")

	t.Run("expired access token is refreshed", func(t *testing.T) {
		f.api.Advance(2 * time.Minute)
		status, _ := f.do(t, http.MethodGet, gateway.PathUser, lr.Access, nil)
		require.Equal(t, http.StatusUnauthorized, status)

		status, body := f.do(t, http.MethodPost, gateway.PathRefresh, "", gateway.RefreshRequest{Refresh: lr.Refresh})
		require.Equal(t, http.StatusOK, status)
		var rr gateway.RefreshResponse
		require.NoError(t, json.Unmarshal(body, &rr))

		status, _ = f.do(t, http.MethodGet, gateway.PathUser, rr.Access, nil)
		require.Equal(t, http.StatusOK, status)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		status, _ := f.do(t, http.MethodPost, gateway.PathRefresh, "", gateway.RefreshRequest{Refresh: lr.Access})
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("missing refresh token", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, gateway.PathRefresh, "", gateway.RefreshRequest{})
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "Missing refresh token", detail(t, body))
	})

	t.Run("rejected on demand", func(t *testing.T) {
		f.api.RejectRefresh(true)
		defer f.api.RejectRefresh(false)
		status, _ := f.do(t, http.MethodPost, gateway.PathRefresh, "", gateway.RefreshRequest{Refresh: lr.Refresh})
		require.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestLogoutEndsSession(t *testing.T) {
	f := setupTestFixture(t)
	lr := f.login(t, "admin", "admin123")

	t.Run("failing logout keeps session", func(t *testing.T) {
		f.api.FailLogout(true)
		defer f.api.FailLogout(false)
		status, _ := f.do(t, http.MethodPost, gateway.PathLogout, lr.Access, nil)
		require.Equal(t, http.StatusInternalServerError, status)
	})

	status, _ := f.do(t, http.MethodPost, gateway.PathLogout, lr.Access, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = f.do(t, http.MethodGet, gateway.PathUser, lr.Access, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.do(t, http.MethodPost, gateway.PathRefresh, "", gateway.RefreshRequest{Refresh: lr.Refresh})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestRoleRules(t *testing.T) {
	f := setupTestFixture(t)
	admin := f.login(t, "admin", "admin123")
	mentor := f.login(t, "mentor", "mentor123")
	student := f.login(t, "student", "student123")

	t.Run("mentor cannot create groups", func(t *testing.T) {
		status, _ := f.do(t, http.MethodPost, gateway.PathGroups, mentor.Access, academy.Group{Name: "X", MentorID: mentor.User.ID})
		require.Equal(t, http.StatusForbidden, status)
	})

	t.Run("group needs a mentor", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, gateway.PathGroups, admin.Access, academy.Group{Name: "X", MentorID: admin.User.ID})
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "Invalid mentor ID", detail(t, body))
	})

	t.Run("mentor sees only own students", func(t *testing.T) {
		other := f.api.AddStudent(academy.Student{Name: "Unassigned"})

		status, body := f.do(t, http.MethodGet, gateway.PathStudents, mentor.Access, nil)
		require.Equal(t, http.StatusOK, status)
		var list []academy.Student
		require.NoError(t, json.Unmarshal(body, &list))
		require.Len(t, list, 3)

		status, _ = f.do(t, http.MethodGet, gateway.Resource(gateway.PathStudents, other.ID.String()), mentor.Access, nil)
		require.Equal(t, http.StatusForbidden, status)

		status, body = f.do(t, http.MethodGet, gateway.PathStudents, admin.Access, nil)
		require.Equal(t, http.StatusOK, status)
		require.NoError(t, json.Unmarshal(body, &list))
		require.Len(t, list, 4)
	})

	t.Run("student cannot add scores", func(t *testing.T) {
		status, body := f.do(t, http.MethodGet, gateway.PathStudents, admin.Access, nil)
		require.Equal(t, http.StatusOK, status)
		var list []academy.Student
		require.NoError(t, json.Unmarshal(body, &list))

		status, _ = f.do(t, http.MethodPost, gateway.PathScores, student.Access, academy.NewScore{StudentID: list[0].ID, Value: 100, Date: "2024-03-12"})
		require.Equal(t, http.StatusForbidden, status)
	})
}

func TestScoreCoins(t *testing.T) {
	f := setupTestFixture(t)
	mentor := f.login(t, "mentor", "mentor123")

	status, body := f.do(t, http.MethodGet, gateway.PathStudents, mentor.Access, nil)
	require.Equal(t, http.StatusOK, status)
	var list []academy.Student
	require.NoError(t, json.Unmarshal(body, &list))
	target := list[0]

	path := gateway.Query(gateway.PathScores, gateway.P("coins", "15"))
	status, _ = f.do(t, http.MethodPost, path, mentor.Access, academy.NewScore{StudentID: target.ID, Value: 90, Date: "2024-03-12"})
	require.Equal(t, http.StatusCreated, status)

	status, body = f.do(t, http.MethodGet, gateway.Resource(gateway.PathStudents, target.ID.String()), mentor.Access, nil)
	require.Equal(t, http.StatusOK, status)
	var updated academy.Student
	require.NoError(t, json.Unmarshal(body, &updated))
	require.Equal(t, target.Coins+15, updated.Coins)
}

func TestCORS(t *testing.T) {
	f := setupTestFixture(t, fakeapi.WithCORS(
		config.AllowedOrigins{"http://localhost:5173"},
		[]string{http.MethodGet, http.MethodPost},
		[]string{"Content-Type", "Authorization"},
	))

	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+gateway.PathLogin, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
