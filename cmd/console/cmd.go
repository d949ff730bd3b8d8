package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/jrsteele09/edu-console/academy"
	"github.com/jrsteele09/edu-console/gateway"
	"github.com/jrsteele09/edu-console/guard"
	apperrors "github.com/jrsteele09/edu-console/internal/errors"
	"github.com/jrsteele09/edu-console/internal/utils"
	"github.com/jrsteele09/edu-console/sessions"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in, run `console login -username NAME` first")
)

type commandLine struct {
	client  *gateway.Client
	session *sessions.Manager
	svc     *academy.Service
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username USERNAME        - sign in, the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                          - sign out and forget stored tokens")
	fmt.Fprintln(cli.out, "  whoami                          - show the signed in user")
	fmt.Fprintln(cli.out, "  groups                          - list groups")
	fmt.Fprintln(cli.out, "  students [-group ID]            - list students")
	fmt.Fprintln(cli.out, "  mentors                         - list mentors")
	fmt.Fprintln(cli.out, "  attendance [-student ID|-group ID]")
	fmt.Fprintln(cli.out, "  attend -student ID -date DATE [-absent]")
	fmt.Fprintln(cli.out, "  scores [-student ID]")
	fmt.Fprintln(cli.out, "  score -student ID -value N -date DATE [-coins N] [-desc TEXT]")
	fmt.Fprintln(cli.out, "  report -student ID              - attendance, average and grade")
	fmt.Fprintln(cli.out, "  top [-limit N]                  - students with the most coins")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "login":
		return cli.login(ctx, args[2:])
	case "logout":
		cli.session.Logout(ctx)
		fmt.Fprintln(cli.out, "Logged out.")
		return nil
	case "whoami":
		return cli.whoami(ctx)
	case "groups":
		return cli.groups(ctx)
	case "students":
		return cli.students(ctx, args[2:])
	case "mentors":
		return cli.mentors(ctx)
	case "attendance":
		return cli.attendance(ctx, args[2:])
	case "attend":
		return cli.attend(ctx, args[2:])
	case "scores":
		return cli.scores(ctx, args[2:])
	case "score":
		return cli.addScore(ctx, args[2:])
	case "report":
		return cli.report(ctx, args[2:])
	case "top":
		return cli.top(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// authorize restores the session and checks it against action before any
// data request is made.
func (cli *commandLine) authorize(ctx context.Context, action guard.Action) (sessions.Snapshot, error) {
	snap := cli.session.Boot(ctx)
	switch guard.CanPerform(snap, action) {
	case guard.RedirectLogin:
		return snap, errNotLoggedIn
	case guard.RedirectUnauthorized:
		return snap, apperrors.Wrapf(apperrors.ErrForbidden, "%s cannot %s", snap.Role(), action)
	}
	return snap, nil
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flagSet("login")
	username := fs.String("username", "", "The username to sign in with. The password will be prompted next.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *username == "" {
		fs.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return errHelp
	}

	if err := cli.session.Login(ctx, *username, string(pwd)); err != nil {
		return err
	}
	snap := cli.session.Snapshot()
	fmt.Fprintf(cli.out, "Logged in as %s (%s). Home: %s\n", snap.User.Username, snap.Role(), guard.LandingRouteFor(snap.Role()))
	return nil
}

func (cli *commandLine) whoami(ctx context.Context) error {
	snap := cli.session.Boot(ctx)
	if !snap.IsAuthenticated() {
		return errNotLoggedIn
	}
	u := snap.User
	fmt.Fprintf(cli.out, "%s (%s)\nrole: %s\nhome: %s\n", u.Username, u.Name, u.Role, guard.LandingRouteFor(u.Role))

	tok := cli.client.Tokens(ctx).OAuth2()
	switch {
	case tok.Expiry.IsZero():
		fmt.Fprintln(cli.out, "token expires: unknown")
	case tok.Valid():
		fmt.Fprintf(cli.out, "token expires: %s\n", tok.Expiry.Local().Format(time.RFC3339))
	default:
		fmt.Fprintln(cli.out, "token expires: expired, renewed on the next request")
	}
	return nil
}

func (cli *commandLine) groups(ctx context.Context) error {
	snap, err := cli.authorize(ctx, guard.ViewGroups)
	if err != nil {
		return err
	}

	var groups []academy.Group
	if snap.User.IsMentor() {
		groups, err = cli.svc.GroupsByMentor(ctx, snap.User.ID)
	} else {
		groups, err = cli.svc.ListGroups(ctx)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMENTOR\tSCHEDULE\tSTUDENTS")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", g.ID, g.Name, g.MentorID, g.Schedule, len(g.Students))
	}
	return tw.Flush()
}

func (cli *commandLine) students(ctx context.Context, args []string) error {
	fs := cli.flagSet("students")
	group := fs.String("group", "", "Only list students of this group.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if _, err := cli.authorize(ctx, guard.ViewStudents); err != nil {
		return err
	}

	var (
		list []academy.Student
		err  error
	)
	if *group != "" {
		list, err = cli.svc.StudentsInGroup(ctx, academy.ID(*group))
	} else {
		list, err = cli.svc.ListStudents(ctx)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tGROUP\tCOINS")
	for _, st := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", st.ID, st.Name, utils.Value(st.GroupID), st.Coins)
	}
	return tw.Flush()
}

func (cli *commandLine) mentors(ctx context.Context) error {
	if _, err := cli.authorize(ctx, guard.ViewMentors); err != nil {
		return err
	}
	list, err := cli.svc.ListMentors(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tPHONE")
	for _, m := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Username, m.Name, m.Phone)
	}
	return tw.Flush()
}

// ownStudentID returns the student record id of a Student login. Other roles
// must name the student explicitly.
func (cli *commandLine) ownStudentID(ctx context.Context, snap sessions.Snapshot, given string) (academy.ID, error) {
	if given != "" {
		return academy.ID(given), nil
	}
	if !snap.User.IsStudent() {
		return "", apperrors.Wrapf(apperrors.ErrInvalidInput, "-student is required")
	}
	st, err := cli.svc.StudentByUserID(ctx, snap.User.ID)
	if err != nil {
		return "", err
	}
	return st.ID, nil
}

func (cli *commandLine) attendance(ctx context.Context, args []string) error {
	fs := cli.flagSet("attendance")
	student := fs.String("student", "", "Student id.")
	group := fs.String("group", "", "Group id.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	snap, err := cli.authorize(ctx, guard.ViewAttendance)
	if err != nil {
		return err
	}

	filter := academy.AttendanceFilter{GroupID: academy.ID(*group)}
	if *group == "" {
		if filter.StudentID, err = cli.ownStudentID(ctx, snap, *student); err != nil {
			return err
		}
	} else {
		filter.StudentID = academy.ID(*student)
	}

	records, err := cli.svc.ListAttendance(ctx, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSTUDENT\tPRESENT")
	for _, a := range records {
		fmt.Fprintf(tw, "%s\t%s\t%t\n", a.Date, a.StudentID, a.Present)
	}
	fmt.Fprintf(tw, "\trate\t%d%%\n", academy.AttendanceRate(records))
	return tw.Flush()
}

func (cli *commandLine) attend(ctx context.Context, args []string) error {
	fs := cli.flagSet("attend")
	student := fs.String("student", "", "Student id.")
	date := fs.String("date", "", "Lesson date, YYYY-MM-DD.")
	absent := fs.Bool("absent", false, "Mark the student absent.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *student == "" || *date == "" {
		fs.Usage()
		return errHelp
	}
	if _, err := cli.authorize(ctx, guard.RecordAttendance); err != nil {
		return err
	}

	a, err := cli.svc.RecordAttendance(ctx, academy.Attendance{
		StudentID: academy.ID(*student),
		Date:      *date,
		Present:   !*absent,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Recorded attendance %s for student %s on %s.\n", a.ID, a.StudentID, a.Date)
	return nil
}

func (cli *commandLine) scores(ctx context.Context, args []string) error {
	fs := cli.flagSet("scores")
	student := fs.String("student", "", "Student id.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	snap, err := cli.authorize(ctx, guard.ViewScores)
	if err != nil {
		return err
	}
	id, err := cli.ownStudentID(ctx, snap, *student)
	if err != nil {
		return err
	}

	list, err := cli.svc.ListScores(ctx, id)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tVALUE\tDESCRIPTION")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Date, s.Value, utils.Value(s.Description))
	}
	avg := academy.AverageScore(list)
	fmt.Fprintf(tw, "average\t%d\t%s\n", avg, academy.GradeFor(avg))
	return tw.Flush()
}

func (cli *commandLine) addScore(ctx context.Context, args []string) error {
	fs := cli.flagSet("score")
	student := fs.String("student", "", "Student id.")
	value := fs.Int("value", -1, "Score value.")
	date := fs.String("date", "", "Date, YYYY-MM-DD.")
	coins := fs.Int("coins", 0, "Reward coins to add to the student's balance.")
	desc := fs.String("desc", "", "Description.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *student == "" || *date == "" || *value < 0 {
		fs.Usage()
		return errHelp
	}
	if _, err := cli.authorize(ctx, guard.AddScores); err != nil {
		return err
	}

	ns := academy.NewScore{StudentID: academy.ID(*student), Value: *value, Date: *date}
	if *desc != "" {
		ns.Description = desc
	}
	if *coins != 0 {
		ns.Coins = coins
	}
	s, err := cli.svc.AddScore(ctx, ns)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Added score %d for student %s.\n", s.Value, s.StudentID)
	return nil
}

func (cli *commandLine) report(ctx context.Context, args []string) error {
	fs := cli.flagSet("report")
	student := fs.String("student", "", "Student id.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *student == "" {
		fs.Usage()
		return errHelp
	}
	if _, err := cli.authorize(ctx, guard.ViewReports); err != nil {
		return err
	}

	s, err := cli.svc.StudentSummary(ctx, academy.ID(*student))
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s\ncoins: %d\nattendance: %d%% (%d of %d)\naverage: %d (%s)\n",
		s.Name, s.Coins, s.AttendanceRate, s.Present, s.Sessions, s.AverageScore, s.Grade)
	return nil
}

func (cli *commandLine) top(ctx context.Context, args []string) error {
	fs := cli.flagSet("top")
	limit := fs.Int("limit", academy.DefaultTopStudents, "How many students to show.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if _, err := cli.authorize(ctx, guard.ViewTopStudents); err != nil {
		return err
	}

	list, err := cli.svc.TopStudents(ctx, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tCOINS")
	for _, st := range list {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", st.Rank, st.Name, st.Coins)
	}
	return tw.Flush()
}
