package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/sihmvp/dropout-monitor/internal/dashboard"
	"github.com/sihmvp/dropout-monitor/internal/model"
)

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

// shell is a line-oriented front end over dashboard.App.
type shell struct {
	app   *dashboard.App
	in    *bufio.Scanner
	out   io.Writer
	fd    int
	route dashboard.Route
	cmds  map[string]command
	order []string
}

func newShell(app *dashboard.App, in *os.File, out io.Writer) *shell {
	fd := -1
	if term.IsTerminal(int(in.Fd())) {
		fd = int(in.Fd())
	}
	s := &shell{
		app:   app,
		in:    bufio.NewScanner(in),
		out:   out,
		fd:    fd,
		route: dashboard.RouteHome,
	}
	s.register()
	return s
}

func (s *shell) register() {
	s.cmds = map[string]command{}
	add := func(name, usage, help string, run func(context.Context, []string) error) {
		s.cmds[name] = command{usage: usage, help: help, run: run}
		s.order = append(s.order, name)
	}

	add("login", "login <username>", "sign in as staff", s.login)
	add("student-login", "student-login <username>", "sign in as a student", s.studentLogin)
	add("logout", "logout", "sign out", s.logout)
	add("route", "route <path>", "open a page", s.navigate)

	add("list", "list", "show the roster", s.list)
	add("search", "search [text]", "filter the roster by student ID", s.search)
	add("filter", "filter <all|high|medium|low>", "filter the roster by risk", s.filter)
	add("select", "select <student_id>", "open a student's details", s.selectStudent)
	add("close", "close", "close the details", s.closeDetail)
	add("edit", "edit", "start editing the selected student", s.edit)
	add("set", "set <attendance|fee> <value>", "change a drafted field", s.set)
	add("save", "save", "submit the draft", s.save)
	add("cancel", "cancel", "discard the draft", s.cancel)
	add("delete", "delete", "delete the selected student", s.deleteStudent)
	add("export", "export <file.csv|file.xlsx>", "save the selected student's report", s.export)
	add("upload", "upload <file>", "upload a CSV or XLSX roster", s.upload)
	add("trend", "trend", "show the selected student's scores", s.trend)
	add("subjects", "subjects", "show average score per subject", s.subjects)
	add("me", "me", "show your own record", s.me)

	add("users", "users", "list accounts", s.users)
	add("adduser", "adduser <username> <role>", "create an account", s.addUser)
	add("role", "role <username> <role>", "change an account's role", s.role)
	add("rmuser", "rmuser <username>", "delete an account", s.rmUser)
	add("import-users", "import-users <file.csv>", "create accounts from a CSV", s.importUsers)
	add("export-users", "export-users <file.csv>", "save accounts to a CSV", s.exportUsers)

	add("help", "help", "list commands", s.help)
}

func (s *shell) run(ctx context.Context) {
	fmt.Fprintln(s.out, "Student Dropout Risk Dashboard. Type 'help' for commands.")
	for {
		fmt.Fprintf(s.out, "%s> ", s.route)
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return
		}
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(s.in.Text())
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]
		if name == "quit" || name == "exit" {
			return
		}
		cmd, ok := s.cmds[name]
		if !ok {
			fmt.Fprintf(s.out, "Unknown command %q. Type 'help'.\n", name)
			continue
		}
		if err := cmd.run(ctx, args); err != nil {
			s.printErr(err)
		}
	}
}

func (s *shell) printErr(err error) {
	var ue *dashboard.UserError
	switch {
	case errors.As(err, &ue):
		fmt.Fprintln(s.out, ue.Message)
	case errors.Is(err, dashboard.ErrSuperseded):
	case errors.Is(err, errUsage):
	default:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

var errUsage = errors.New("usage")

func (s *shell) usage(name string) error {
	fmt.Fprintf(s.out, "Usage: %s\n", s.cmds[name].usage)
	return errUsage
}

func (s *shell) readLine(prompt string) string {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		return ""
	}
	return strings.TrimSpace(s.in.Text())
}

func (s *shell) readPassword() string {
	if s.fd < 0 {
		return s.readLine("Password: ")
	}
	fmt.Fprint(s.out, "Password: ")
	b, err := term.ReadPassword(s.fd)
	fmt.Fprintln(s.out)
	if err != nil {
		return ""
	}
	return string(b)
}

func (s *shell) confirm() dashboard.Confirmer {
	return dashboard.ConfirmFunc(func(prompt string) bool {
		answer := strings.ToLower(s.readLine(prompt + " [y/N] "))
		return answer == "y" || answer == "yes"
	})
}

func (s *shell) table(header string, rows func(w io.Writer)) {
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	_ = tw.Flush()
}

// ─── Session ─────────────────────────────────────────────────────────

func (s *shell) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usage("login")
	}
	route, err := s.app.Login(ctx, args[0], s.readPassword())
	s.route = route
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Logged in as %s (%s).\n", args[0], s.app.Session().Role())
	return s.list(ctx, nil)
}

func (s *shell) studentLogin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usage("student-login")
	}
	route, err := s.app.StudentLogin(ctx, args[0], s.readPassword())
	s.route = route
	if err != nil {
		return err
	}
	return s.me(ctx, nil)
}

func (s *shell) logout(ctx context.Context, _ []string) error {
	s.route = s.app.Logout(ctx)
	fmt.Fprintln(s.out, "Logged out.")
	return nil
}

func (s *shell) navigate(_ context.Context, args []string) error {
	if len(args) != 1 {
		return s.usage("route")
	}
	s.route = s.app.Navigate(args[0])
	if string(s.route) != args[0] {
		fmt.Fprintf(s.out, "Redirected to %s.\n", s.route)
	}
	return nil
}

// ─── Roster ──────────────────────────────────────────────────────────

func (s *shell) list(_ context.Context, _ []string) error {
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	roster := c.Roster()
	if len(roster) == 0 {
		fmt.Fprintln(s.out, "No students match.")
		return nil
	}
	s.table("STUDENT\tATTENDANCE\tAVG SCORE\tFEES\tRISK", func(w io.Writer) {
		for _, st := range roster {
			fmt.Fprintf(w, "%s\t%.1f%%\t%.1f\t%s\t%s\n", st.StudentID, st.AttendancePercentage, st.AvgTestScore, st.FeeStatus, st.RiskLevel)
		}
	})
	counts := c.RiskCounts()
	fmt.Fprintf(s.out, "High: %d  Medium: %d  Low: %d\n", counts[model.RiskHigh], counts[model.RiskMedium], counts[model.RiskLow])
	return nil
}

func (s *shell) search(ctx context.Context, args []string) error {
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	if err := c.SetSearch(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	return s.list(ctx, nil)
}

func (s *shell) filter(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usage("filter")
	}
	f, err := model.ParseRiskFilter(args[0])
	if err != nil {
		return s.usage("filter")
	}
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	if err := c.SetFilter(ctx, f); err != nil {
		return err
	}
	return s.list(ctx, nil)
}

func (s *shell) selectStudent(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usage("select")
	}
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	if err := c.Select(ctx, args[0]); err != nil {
		return err
	}
	s.printDetail(c.Selected())
	return nil
}

func (s *shell) printDetail(d *model.StudentDetail) {
	info := d.Info
	fmt.Fprintf(s.out, "Student %s\n", info.StudentID)
	fmt.Fprintf(s.out, "  Attendance: %.1f%%\n  Avg score:  %.1f\n  Fees:       %s\n  Risk:       %s\n",
		info.AttendancePercentage, info.AvgTestScore, info.FeeStatus, info.RiskLevel)
	if len(info.Reasons) == 0 {
		fmt.Fprintln(s.out, "  No major issues")
	}
	for _, r := range info.Reasons {
		fmt.Fprintf(s.out, "  - %s\n", r)
	}
	if info.Advice != "" {
		fmt.Fprintf(s.out, "  Advice: %s\n", info.Advice)
	}
}

func (s *shell) closeDetail(_ context.Context, _ []string) error {
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	c.Deselect()
	return nil
}

func (s *shell) edit(_ context.Context, _ []string) error {
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	if err := c.BeginEdit(); err != nil {
		return err
	}
	s.printDraft(c)
	return nil
}

func (s *shell) printDraft(c *dashboard.Controller) {
	d, _ := c.Draft()
	att := ""
	if d.AttendancePercentage != nil {
		att = strconv.FormatFloat(*d.AttendancePercentage, 'f', -1, 64)
	}
	fmt.Fprintf(s.out, "Editing %s: attendance=%s fee=%s\n", d.StudentID, att, d.FeeStatus)
}

func (s *shell) set(_ context.Context, args []string) error {
	if len(args) < 1 {
		return s.usage("set")
	}
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	value := strings.Join(args[1:], " ")
	switch args[0] {
	case "attendance":
		if value == "" {
			err = c.ClearDraftAttendance()
			break
		}
		v, perr := strconv.ParseFloat(value, 64)
		if perr != nil {
			fmt.Fprintln(s.out, "Attendance must be a number.")
			return nil
		}
		err = c.SetDraftAttendance(v)
	case "fee":
		err = c.SetDraftFeeStatus(model.FeeStatus(value))
	default:
		return s.usage("set")
	}
	if err != nil {
		return err
	}
	s.printDraft(c)
	return nil
}

func (s *shell) save(ctx context.Context, _ []string) error {
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	if err := c.ApplyEdit(ctx); err != nil {
		return err
	}
	fmt.Fprintln(s.out, c.Notice())
	return nil
}

func (s *shell) cancel(_ context.Context, _ []string) error {
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	c.CancelEdit()
	return nil
}

func (s *shell) deleteStudent(ctx context.Context, _ []string) error {
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	before := c.Notice()
	if err := c.DeleteSelected(ctx, s.confirm()); err != nil {
		return err
	}
	if n := c.Notice(); n != before {
		fmt.Fprintln(s.out, n)
	}
	return nil
}

func (s *shell) export(_ context.Context, args []string) error {
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	path := c.ReportFilename()
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return dashboard.ErrNothingSelected
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		err = c.ExportSelectedXLSX(f)
	} else {
		err = c.ExportSelected(f)
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	fmt.Fprintf(s.out, "Report saved to %s.\n", path)
	return nil
}

func (s *shell) upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usage("upload")
	}
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if err := c.Upload(ctx, filepath.Base(args[0]), f); err != nil {
		return err
	}
	fmt.Fprintln(s.out, c.Notice())
	return nil
}

func (s *shell) trend(ctx context.Context, _ []string) error {
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	points, err := c.Trend(ctx)
	if err != nil {
		return err
	}
	s.printTrend(points)
	return nil
}

func (s *shell) printTrend(points []model.TrendPoint) {
	if len(points) == 0 {
		fmt.Fprintln(s.out, "No trend data available.")
		return
	}
	s.table("TEST\tSCORE", func(w io.Writer) {
		for _, p := range points {
			fmt.Fprintf(w, "%d\t%.1f\n", p.TestNumber, p.TestScore)
		}
	})
}

func (s *shell) subjects(ctx context.Context, _ []string) error {
	c, err := s.app.Roster()
	if err != nil {
		return err
	}
	scores, err := c.SubjectScores(ctx)
	if err != nil {
		return err
	}
	s.table("SUBJECT\tAVG SCORE", func(w io.Writer) {
		for _, sc := range scores {
			fmt.Fprintf(w, "%s\t%.1f\n", sc.Subject, sc.TestScore)
		}
	})
	return nil
}

func (s *shell) me(_ context.Context, _ []string) error {
	v, err := s.app.StudentView()
	if err != nil {
		return err
	}
	rec := v.Record()
	if rec == nil {
		fmt.Fprintln(s.out, "Your record could not be loaded.")
		return nil
	}
	s.printDetail(rec)
	s.printTrend(v.Trend())
	return nil
}

// ─── Users ───────────────────────────────────────────────────────────

func (s *shell) users(ctx context.Context, _ []string) error {
	m, err := s.app.Users()
	if err != nil {
		return err
	}
	if err := m.Refresh(ctx); err != nil {
		return err
	}
	s.table("USERNAME\tROLE", func(w io.Writer) {
		for _, u := range m.Users() {
			fmt.Fprintf(w, "%s\t%s\n", u.Username, u.Role)
		}
	})
	return nil
}

func (s *shell) addUser(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return s.usage("adduser")
	}
	m, err := s.app.Users()
	if err != nil {
		return err
	}
	if err := m.Create(ctx, args[0], s.readPassword(), model.Role(strings.ToLower(args[1]))); err != nil {
		return err
	}
	fmt.Fprintln(s.out, m.Notice())
	return nil
}

func (s *shell) role(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return s.usage("role")
	}
	m, err := s.app.Users()
	if err != nil {
		return err
	}
	if err := m.UpdateRole(ctx, args[0], model.Role(strings.ToLower(args[1]))); err != nil {
		return err
	}
	fmt.Fprintln(s.out, m.Notice())
	return nil
}

func (s *shell) rmUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usage("rmuser")
	}
	m, err := s.app.Users()
	if err != nil {
		return err
	}
	before := m.Notice()
	if err := m.Delete(ctx, args[0], s.confirm()); err != nil {
		return err
	}
	if n := m.Notice(); n != before {
		fmt.Fprintln(s.out, n)
	}
	return nil
}

func (s *shell) importUsers(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usage("import-users")
	}
	m, err := s.app.Users()
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := m.ImportCSV(ctx, f); err != nil {
		return err
	}
	fmt.Fprintln(s.out, m.Notice())
	return nil
}

func (s *shell) exportUsers(_ context.Context, args []string) error {
	if len(args) != 1 {
		return s.usage("export-users")
	}
	m, err := s.app.Users()
	if err != nil {
		return err
	}
	if len(m.Users()) == 0 {
		fmt.Fprintln(s.out, "No users loaded. Run 'users' first.")
		return nil
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if err := m.ExportCSV(f); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Users saved to %s.\n", args[0])
	return nil
}

func (s *shell) help(_ context.Context, _ []string) error {
	s.table("COMMAND\tDESCRIPTION", func(w io.Writer) {
		for _, name := range s.order {
			c := s.cmds[name]
			fmt.Fprintf(w, "%s\t%s\n", c.usage, c.help)
		}
		fmt.Fprintln(w, "quit\texit the dashboard")
	})
	return nil
}
