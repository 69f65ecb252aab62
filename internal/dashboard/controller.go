package dashboard

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/risk"
	"github.com/sihmvp/dropout-monitor/internal/session"
)

// Draft is the local copy of a student's editable fields while edit mode is on.
type Draft struct {
	StudentID            string
	AttendancePercentage *float64
	FeeStatus            model.FeeStatus
}

// ControllerOptions tunes a Controller.
type ControllerOptions struct {
	// SearchDebounce delays search-triggered refreshes. Zero refreshes on
	// every change.
	SearchDebounce time.Duration
	Log            zerolog.Logger
}

// Controller owns the roster, the selected student and the edit state.
// Server state is only accepted after the server confirms it; nothing is
// patched locally.
type Controller struct {
	api      StudentAPI
	sess     *session.Session
	events   *RosterEvents
	debounce time.Duration
	log      zerolog.Logger

	mu       sync.Mutex
	roster   []model.StudentSummary
	search   string
	filter   model.RiskFilter
	selected *model.StudentDetail
	editing  bool
	draft    Draft
	notice   string

	// fetchSeq identifies the latest dispatched roster fetch. Older
	// responses are discarded.
	fetchSeq    uint64
	cancelFetch context.CancelFunc
	timer       *time.Timer
}

// NewController creates a Controller and subscribes its refresh to events.
func NewController(api StudentAPI, sess *session.Session, events *RosterEvents, opts ControllerOptions) (*Controller, error) {
	c := &Controller{
		api:      api,
		sess:     sess,
		events:   events,
		debounce: opts.SearchDebounce,
		log:      opts.Log.With().Str("component", "dashboard_controller").Logger(),
		filter:   model.FilterAll,
	}
	if err := events.Subscribe(func(ctx context.Context, reason string) error {
		c.log.Debug().Str("reason", reason).Msg("Roster invalidated")
		return c.Refresh(ctx)
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// ─── Roster ─────────────────────────────────────────────────────────

// Refresh fetches the roster for the current search and filter. A newer
// Refresh cancels this one, and its result is then dropped with ErrSuperseded.
// On failure the previous roster stays.
func (c *Controller) Refresh(ctx context.Context) error {
	if !c.sess.Can(session.ViewRoster) {
		return notPermitted("view the roster")
	}

	c.mu.Lock()
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.fetchSeq++
	seq := c.fetchSeq
	c.cancelFetch = cancel
	search, filter := c.search, c.filter
	c.mu.Unlock()
	defer cancel()

	roster, err := c.api.ListStudents(fetchCtx, search, filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.fetchSeq {
		return ErrSuperseded
	}
	c.cancelFetch = nil
	if err != nil {
		c.log.Error().Err(err).Str("search", search).Str("filter", string(filter)).Msg("Failed to fetch students")
		return err
	}
	c.roster = roster
	return nil
}

// SetSearch changes the search text and refreshes, after the debounce delay
// when one is configured.
func (c *Controller) SetSearch(ctx context.Context, q string) error {
	c.mu.Lock()
	c.search = q
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.debounce > 0 {
		c.timer = time.AfterFunc(c.debounce, func() {
			if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
				c.log.Debug().Err(err).Msg("Debounced refresh failed")
			}
		})
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// SetFilter changes the risk filter and refreshes immediately.
func (c *Controller) SetFilter(ctx context.Context, f model.RiskFilter) error {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Roster returns a copy of the last fetched roster.
func (c *Controller) Roster() []model.StudentSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.StudentSummary(nil), c.roster...)
}

func (c *Controller) Search() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

func (c *Controller) Filter() model.RiskFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// RiskCounts summarises the current roster by risk level.
func (c *Controller) RiskCounts() map[model.RiskLevel]int {
	return risk.Counts(c.Roster())
}

// ─── Selection ──────────────────────────────────────────────────────

// Select fetches a student's detail and makes it the only selection, with
// edit mode off. On failure the previous selection stays.
func (c *Controller) Select(ctx context.Context, studentID string) error {
	if !c.sess.Can(session.ViewRoster) {
		return notPermitted("view student records")
	}

	detail, err := c.api.GetStudent(ctx, studentID)
	if err != nil {
		c.log.Error().Err(err).Str("student_id", studentID).Msg("Failed to fetch student details")
		return err
	}

	c.mu.Lock()
	c.selected = detail
	c.editing = false
	c.draft = Draft{}
	c.mu.Unlock()
	return nil
}

// Deselect closes the detail view.
func (c *Controller) Deselect() {
	c.mu.Lock()
	c.selected = nil
	c.editing = false
	c.draft = Draft{}
	c.mu.Unlock()
}

// Selected returns the selected detail, or nil.
func (c *Controller) Selected() *model.StudentDetail {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return nil
	}
	cp := *c.selected
	cp.Info.Reasons = append([]string(nil), c.selected.Info.Reasons...)
	cp.Scores = append([]model.TestScore(nil), c.selected.Scores...)
	return &cp
}

// ─── Editing ────────────────────────────────────────────────────────

// BeginEdit turns on edit mode with a draft copied from the selection.
func (c *Controller) BeginEdit() error {
	if !c.sess.Can(session.EditStudent) {
		return notPermitted("edit students")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return ErrNothingSelected
	}
	att := c.selected.Info.AttendancePercentage
	c.draft = Draft{
		StudentID:            c.selected.Info.StudentID,
		AttendancePercentage: &att,
		FeeStatus:            c.selected.Info.FeeStatus,
	}
	c.editing = true
	return nil
}

// SetDraftAttendance changes the drafted attendance.
func (c *Controller) SetDraftAttendance(v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editing {
		return ErrNotEditing
	}
	c.draft.AttendancePercentage = &v
	return nil
}

// ClearDraftAttendance empties the drafted attendance field.
func (c *Controller) ClearDraftAttendance() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editing {
		return ErrNotEditing
	}
	c.draft.AttendancePercentage = nil
	return nil
}

// SetDraftFeeStatus changes the drafted fee status. The value is not checked
// here; the server validates it.
func (c *Controller) SetDraftFeeStatus(s model.FeeStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editing {
		return ErrNotEditing
	}
	c.draft.FeeStatus = s
	return nil
}

// CancelEdit discards the draft.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.editing = false
	c.draft = Draft{}
	c.mu.Unlock()
}

// Editing reports whether edit mode is on.
func (c *Controller) Editing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing
}

// Draft returns the current draft and whether edit mode is on.
func (c *Controller) Draft() (Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.draft
	if d.AttendancePercentage != nil {
		v := *d.AttendancePercentage
		d.AttendancePercentage = &v
	}
	return d, c.editing
}

// ApplyEdit submits the draft. On success the selection is cleared and the
// roster invalidated; on failure nothing changes.
func (c *Controller) ApplyEdit(ctx context.Context) error {
	if !c.sess.Can(session.EditStudent) {
		return c.fail(notPermitted("edit students"))
	}

	c.mu.Lock()
	if !c.editing || c.selected == nil {
		c.mu.Unlock()
		return ErrNotEditing
	}
	draft := c.draft
	c.mu.Unlock()

	if draft.StudentID == "" || draft.AttendancePercentage == nil || draft.FeeStatus == "" {
		return c.fail(userError("Please fill out all fields.", ErrIncomplete))
	}

	msg, err := c.api.UpdateStudent(ctx, draft.StudentID, model.StudentUpdates{
		AttendancePercentage: draft.AttendancePercentage,
		FeeStatus:            draft.FeeStatus,
	})
	if err != nil {
		c.log.Error().Err(err).Str("student_id", draft.StudentID).Msg("Update failed")
		return c.fail(describe(err, "An error occurred while updating."))
	}

	c.mu.Lock()
	c.selected = nil
	c.editing = false
	c.draft = Draft{}
	c.notice = msg
	c.mu.Unlock()

	c.invalidate(ctx, "student updated")
	return nil
}

// DeleteSelected removes the selected student once confirm approves.
// A declined confirmation makes no call.
func (c *Controller) DeleteSelected(ctx context.Context, confirm Confirmer) error {
	if !c.sess.Can(session.DeleteStudent) {
		return c.fail(notPermitted("delete students"))
	}

	c.mu.Lock()
	if c.selected == nil {
		c.mu.Unlock()
		return ErrNothingSelected
	}
	studentID := c.selected.Info.StudentID
	c.mu.Unlock()

	if confirm == nil || !confirm.Confirm("Are you sure you want to delete this student?") {
		return nil
	}

	msg, err := c.api.DeleteStudent(ctx, studentID)
	if err != nil {
		c.log.Error().Err(err).Str("student_id", studentID).Msg("Delete failed")
		return c.fail(describe(err, "An error occurred while deleting."))
	}

	c.mu.Lock()
	c.selected = nil
	c.editing = false
	c.draft = Draft{}
	c.notice = msg
	c.mu.Unlock()

	c.invalidate(ctx, "student deleted")
	return nil
}

// ─── Upload & charts ────────────────────────────────────────────────

// Upload forwards a roster file unparsed. Success invalidates the roster.
func (c *Controller) Upload(ctx context.Context, filename string, r io.Reader) error {
	if !c.sess.Can(session.UploadRoster) {
		return c.fail(notPermitted("upload rosters"))
	}
	if filename == "" || r == nil {
		return c.fail(userError("Please select a file to upload.", ErrIncomplete))
	}

	msg, err := c.api.Upload(ctx, filename, r)
	if err != nil {
		c.log.Error().Err(err).Str("file", filename).Msg("Upload failed")
		return c.fail(describe(err, "An error occurred during upload."))
	}

	c.setNotice(msg)
	c.invalidate(ctx, "roster uploaded")
	return nil
}

// Trend returns the selected student's score series.
func (c *Controller) Trend(ctx context.Context) ([]model.TrendPoint, error) {
	sel := c.Selected()
	if sel == nil {
		return nil, ErrNothingSelected
	}
	return c.api.Trend(ctx, sel.Info.StudentID)
}

// SubjectScores returns the per-subject averages.
func (c *Controller) SubjectScores(ctx context.Context) ([]model.SubjectScore, error) {
	if !c.sess.Can(session.ViewRoster) {
		return nil, notPermitted("view subject scores")
	}
	return c.api.SubjectScores(ctx)
}

// ─── State ──────────────────────────────────────────────────────────

// Notice returns the last message meant for the user.
func (c *Controller) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// Reset clears all state and abandons any in-flight fetch.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.fetchSeq++
	c.roster = nil
	c.search = ""
	c.filter = model.FilterAll
	c.selected = nil
	c.editing = false
	c.draft = Draft{}
	c.notice = ""
}

func (c *Controller) setNotice(msg string) {
	c.mu.Lock()
	c.notice = msg
	c.mu.Unlock()
}

func (c *Controller) fail(ue *UserError) error {
	c.setNotice(ue.Message)
	return ue
}

func (c *Controller) invalidate(ctx context.Context, reason string) {
	if err := c.events.Invalidate(ctx, reason); err != nil && !errors.Is(err, ErrSuperseded) {
		c.log.Warn().Err(err).Str("reason", reason).Msg("Roster refetch failed")
	}
}
