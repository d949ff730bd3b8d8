package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/edu-console/academy"
	"github.com/jrsteele09/edu-console/fakeapi"
	"github.com/jrsteele09/edu-console/gateway"
	apperrors "github.com/jrsteele09/edu-console/internal/errors"
	"github.com/jrsteele09/edu-console/sessions"
	"github.com/jrsteele09/edu-console/token"
	"github.com/jrsteele09/edu-console/token/memstore"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	api   *fakeapi.Server
	store *token.Store
	out   *bytes.Buffer
	cli   *commandLine
}

func setup(t *testing.T) *testFixture {
	t.Helper()

	api := fakeapi.New()
	require.NoError(t, api.SeedDemo())
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store := token.NewStore(context.Background(), memstore.New())
	client := gateway.New(srv.URL, store)
	out := &bytes.Buffer{}
	return &testFixture{
		api:   api,
		store: store,
		out:   out,
		cli: &commandLine{
			client:  client,
			session: sessions.NewManager(client),
			svc:     academy.NewService(client),
			out:     out,
		},
	}
}

func withPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func (f *testFixture) login(t *testing.T, username, password string) {
	t.Helper()
	withPassword(t, password)
	require.NoError(t, f.cli.run(context.Background(), []string{"console", "login", "-username", username}))
	f.out.Reset()
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	want    []string
}

func runTests(t *testing.T, f *testFixture, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.out.Reset()
			err := f.cli.run(context.Background(), append([]string{"console"}, tt.args...))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			for _, w := range tt.want {
				require.Contains(t, f.out.String(), w)
			}
		})
	}
}

func TestCommandLine_Usage(t *testing.T) {
	f := setup(t)
	runTests(t, f, []cliTest{
		{name: "no command", args: nil, wantErr: errHelp, want: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "login without username", args: []string{"login"}, wantErr: errHelp},
		{name: "attend without date", args: []string{"attend", "-student", "1"}, wantErr: errHelp},
	})
}

func TestCommandLine_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("admin", func(t *testing.T) {
		f := setup(t)
		withPassword(t, "admin123")
		require.NoError(t, f.cli.run(ctx, []string{"console", "login", "-username", "admin"}))
		require.Contains(t, f.out.String(), "Logged in as admin (Administrator). Home: /dashboard/admin")
		require.True(t, f.store.Pair(ctx).Valid())
	})

	t.Run("bad password", func(t *testing.T) {
		f := setup(t)
		withPassword(t, "wrong")
		err := f.cli.run(ctx, []string{"console", "login", "-username", "admin"})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		require.True(t, f.store.Pair(ctx).Empty())
	})

	t.Run("empty password", func(t *testing.T) {
		f := setup(t)
		withPassword(t, "")
		require.ErrorIs(t, f.cli.run(ctx, []string{"console", "login", "-username", "admin"}), errHelp)
	})
}

func TestCommandLine_NotLoggedIn(t *testing.T) {
	f := setup(t)
	runTests(t, f, []cliTest{
		{name: "whoami", args: []string{"whoami"}, wantErr: errNotLoggedIn},
		{name: "groups", args: []string{"groups"}, wantErr: errNotLoggedIn},
		{name: "top", args: []string{"top"}, wantErr: errNotLoggedIn},
	})
	require.Zero(t, f.api.Calls(http.MethodGet, gateway.PathGroups))
}

func TestCommandLine_Owner(t *testing.T) {
	f := setup(t)
	f.login(t, "owner", "owner123")

	runTests(t, f, []cliTest{
		{name: "whoami", args: []string{"whoami"}, want: []string{"role: Owner", "home: /dashboard/owner", "token expires: 20"}},
		{name: "groups", args: []string{"groups"}, want: []string{"Frontend Basics"}},
		{name: "students", args: []string{"students"}, want: []string{"Alex Learner", "Bella Coder", "Chris Logic"}},
		{name: "mentors", args: []string{"mentors"}, want: []string{"mentor"}},
		{name: "top", args: []string{"top", "-limit", "1"}, want: []string{"Bella Coder"}},
		{name: "scores need a student", args: []string{"scores"}, wantErr: apperrors.ErrInvalidInput},
	})
}

func TestCommandLine_StudentIsGated(t *testing.T) {
	f := setup(t)
	f.login(t, "student", "student123")
	before := f.api.Calls(http.MethodGet, gateway.PathGroups)

	runTests(t, f, []cliTest{
		{name: "groups forbidden", args: []string{"groups"}, wantErr: apperrors.ErrForbidden},
		{name: "mentors forbidden", args: []string{"mentors"}, wantErr: apperrors.ErrForbidden},
		{name: "score forbidden", args: []string{"score", "-student", "1", "-value", "90", "-date", "2024-03-13"}, wantErr: apperrors.ErrForbidden},
		{name: "own scores", args: []string{"scores"}, want: []string{"92", "88", "average"}},
		{name: "own attendance", args: []string{"attendance"}, want: []string{"2024-03-04", "75%"}},
	})
	require.Equal(t, before, f.api.Calls(http.MethodGet, gateway.PathGroups))
}

func TestCommandLine_MentorRecordsWork(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.login(t, "mentor", "mentor123")

	students, err := f.cli.svc.ListStudents(ctx)
	require.NoError(t, err)
	id := students[0].ID.String()

	runTests(t, f, []cliTest{
		{name: "attend", args: []string{"attend", "-student", id, "-date", "2024-03-13"}, want: []string{"Recorded attendance"}},
		{name: "score", args: []string{"score", "-student", id, "-value", "99", "-date", "2024-03-13", "-coins", "3"}, want: []string{"Added score 99"}},
		{name: "report forbidden", args: []string{"report", "-student", id}, wantErr: apperrors.ErrForbidden},
	})
}

func TestCommandLine_SessionExpired(t *testing.T) {
	f := setup(t)
	f.login(t, "owner", "owner123")
	f.api.RevokeAccessTokens()
	f.api.RejectRefresh(true)

	err := f.cli.run(context.Background(), []string{"console", "groups"})
	require.ErrorIs(t, err, errNotLoggedIn)
	require.True(t, f.store.Pair(context.Background()).Empty())
}

func TestCommandLine_Logout(t *testing.T) {
	f := setup(t)
	f.login(t, "admin", "admin123")

	runTests(t, f, []cliTest{
		{name: "logout", args: []string{"logout"}, want: []string{"Logged out."}},
		{name: "whoami after logout", args: []string{"whoami"}, wantErr: errNotLoggedIn},
	})
}
