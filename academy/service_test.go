package academy_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/edu-console/academy"
	"github.com/jrsteele09/edu-console/fakeapi"
	"github.com/jrsteele09/edu-console/gateway"
	apperrors "github.com/jrsteele09/edu-console/internal/errors"
	"github.com/jrsteele09/edu-console/internal/utils"
	"github.com/jrsteele09/edu-console/token"
	"github.com/jrsteele09/edu-console/token/memstore"
	"github.com/jrsteele09/edu-console/users"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	path   string
	body   any
}

// recorder answers every request with an empty list and records it.
type recorder struct {
	calls []call
}

func (r *recorder) AuthorizedRequest(_ context.Context, method, path string, body, out any) error {
	r.calls = append(r.calls, call{method: method, path: path, body: body})
	if out != nil {
		return json.Unmarshal([]byte("[]"), out)
	}
	return nil
}

func (r *recorder) last() call {
	return r.calls[len(r.calls)-1]
}

func TestQueryEncoding(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	svc := academy.NewService(rec)

	_, err := svc.ListAttendance(ctx, academy.AttendanceFilter{})
	require.NoError(t, err)
	require.Equal(t, "/attendance/", rec.last().path)

	_, err = svc.ListAttendance(ctx, academy.AttendanceFilter{StudentID: "4"})
	require.NoError(t, err)
	require.Equal(t, "/attendance/?student_id=4", rec.last().path)

	_, err = svc.ListAttendance(ctx, academy.AttendanceFilter{StudentID: "4", GroupID: "a b"})
	require.NoError(t, err)
	require.Equal(t, "/attendance/?student_id=4&group_id=a+b", rec.last().path)

	_, err = svc.ListScores(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "/scores/", rec.last().path)

	_, err = svc.ListMentors(ctx)
	require.NoError(t, err)
	require.Equal(t, "/users/?role=Mentor", rec.last().path)

	_, err = svc.TopStudents(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, "/students/top/?limit=10", rec.last().path)
}

func TestCreateMentorForcesRole(t *testing.T) {
	rec := &recorder{}
	svc := academy.NewService(rec)

	// the recorder's "[]" reply does not fit a user, so only the request matters
	_, _ = svc.CreateMentor(context.Background(), users.User{Username: "m2", Role: users.RoleOwner})
	c := rec.last()
	require.Equal(t, http.MethodPost, c.method)
	require.Equal(t, users.RoleMentor, c.body.(users.User).Role)
}

type testFixture struct {
	api *fakeapi.Server
	svc *academy.Service
}

func setupTestFixture(t *testing.T, username, password string) *testFixture {
	t.Helper()
	ctx := context.Background()

	api := fakeapi.New()
	require.NoError(t, api.SeedDemo())
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := gateway.New(srv.URL, token.NewStore(ctx, memstore.New()))
	_, err := client.Login(ctx, username, password)
	require.NoError(t, err)
	return &testFixture{api: api, svc: academy.NewService(client)}
}

func (f *testFixture) studentNamed(t *testing.T, name string) academy.Student {
	t.Helper()
	all, err := f.svc.ListStudents(context.Background())
	require.NoError(t, err)
	for _, s := range all {
		if s.Name == name {
			return s
		}
	}
	require.FailNow(t, "student not found", name)
	return academy.Student{}
}

func TestTopStudents(t *testing.T) {
	f := setupTestFixture(t, "student", "student123")

	top, err := f.svc.TopStudents(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "Bella Coder", top[0].Name)
	require.Equal(t, 1, top[0].Rank)
	require.Equal(t, "Alex Learner", top[1].Name)
	require.Equal(t, 2, top[1].Rank)
}

func TestAddScoreCreditsCoins(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, "mentor", "mentor123")
	chris := f.studentNamed(t, "Chris Logic")

	sc, err := f.svc.AddScore(ctx, academy.NewScore{
		StudentID:   chris.ID,
		Value:       85,
		Date:        "2024-03-13",
		Description: utils.Ptr("Quiz"),
		Coins:       utils.Ptr(5),
	})
	require.NoError(t, err)
	require.Equal(t, 85, sc.Value)

	after, err := f.svc.GetStudent(ctx, chris.ID)
	require.NoError(t, err)
	require.Equal(t, chris.Coins+5, after.Coins)

	list, err := f.svc.ListScores(ctx, chris.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
}

func TestStudentByUserID(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, "owner", "owner123")

	mentors, err := f.svc.ListMentors(ctx)
	require.NoError(t, err)
	require.Len(t, mentors, 1)
	require.Equal(t, users.RoleMentor, mentors[0].Role)

	groups, err := f.svc.GroupsByMentor(ctx, mentors[0].ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	inGroup, err := f.svc.StudentsInGroup(ctx, groups[0].ID)
	require.NoError(t, err)
	require.Len(t, inGroup, 3)

	_, err = f.svc.StudentByUserID(ctx, mentors[0].ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStudentSummary(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, "admin", "admin123")
	alex := f.studentNamed(t, "Alex Learner")

	s, err := f.svc.StudentSummary(ctx, alex.ID)
	require.NoError(t, err)
	require.Equal(t, 120, s.Coins)
	require.Equal(t, 90, s.AverageScore)
	require.Equal(t, 75, s.AttendanceRate)
	require.Equal(t, academy.GradeExcellent, s.Grade)
}

func TestGroupLifecycle(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, "owner", "owner123")

	mentors, err := f.svc.ListMentors(ctx)
	require.NoError(t, err)

	created, err := f.svc.CreateGroup(ctx, academy.Group{Name: "Go Basics", MentorID: mentors[0].ID, Schedule: "Tue 10:00"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	created.Name = "Go Advanced"
	updated, err := f.svc.UpdateGroup(ctx, created.ID, *created)
	require.NoError(t, err)
	require.Equal(t, "Go Advanced", updated.Name)

	require.NoError(t, f.svc.DeleteGroup(ctx, created.ID))
	_, err = f.svc.GetGroup(ctx, created.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
