package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/cache"
	"github.com/sihmvp/dropout-monitor/internal/metrics"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/repository"
	"github.com/sihmvp/dropout-monitor/internal/risk"
)

var ErrNoTrendData = errors.New("no trend data available")

// StudentService serves the classified roster and student records.
type StudentService struct {
	students repository.StudentStore
	cache    cache.RosterCache
	events   RosterPublisher
	audit    AuditRecorder
	log      zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(
	students repository.StudentStore,
	rosterCache cache.RosterCache,
	events RosterPublisher,
	audit AuditRecorder,
	log zerolog.Logger,
) *StudentService {
	return &StudentService{
		students: students,
		cache:    rosterCache,
		events:   events,
		audit:    audit,
		log:      log.With().Str("component", "student_service").Logger(),
	}
}

// Roster returns every student classified, from cache when fresh.
func (s *StudentService) Roster(ctx context.Context) ([]model.StudentSummary, error) {
	if roster, ok, err := s.cache.Get(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Roster cache read failed")
	} else if ok {
		metrics.RosterCacheLookups.WithLabelValues("hit").Inc()
		return roster, nil
	}
	metrics.RosterCacheLookups.WithLabelValues("miss").Inc()

	records, err := s.students.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	roster := make([]model.StudentSummary, 0, len(records))
	for _, rec := range records {
		roster = append(roster, risk.Summarize(rec))
	}
	metrics.ObserveRoster(risk.Counts(roster))

	if err := s.cache.Set(ctx, roster); err != nil {
		s.log.Warn().Err(err).Msg("Roster cache write failed")
	}
	return roster, nil
}

// List returns the roster narrowed by a case-insensitive id substring and a risk filter.
func (s *StudentService) List(ctx context.Context, search string, filter model.RiskFilter) ([]model.StudentSummary, error) {
	roster, err := s.Roster(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]model.StudentSummary, 0, len(roster))
	for _, st := range roster {
		if needle != "" && !strings.Contains(strings.ToLower(st.StudentID), needle) {
			continue
		}
		if !filter.Matches(st.RiskLevel) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// Detail returns the student's summary with insights and score history.
func (s *StudentService) Detail(ctx context.Context, studentID string) (*model.StudentDetail, error) {
	rec, err := s.students.GetRecord(ctx, studentID)
	if err != nil {
		return nil, err
	}
	scores, err := s.students.ListScores(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return &model.StudentDetail{Info: risk.Info(risk.Summarize(*rec)), Scores: scores}, nil
}

// Trend returns the student's score series.
func (s *StudentService) Trend(ctx context.Context, studentID string) ([]model.TrendPoint, error) {
	points, err := s.students.Trend(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	if len(points) == 0 {
		return nil, ErrNoTrendData
	}
	return points, nil
}

// SubjectScores returns the average score per subject.
func (s *StudentService) SubjectScores(ctx context.Context) ([]model.SubjectScore, error) {
	return s.students.SubjectAverages(ctx)
}

// Update applies the editable fields to one student.
func (s *StudentService) Update(ctx context.Context, actor, studentID string, updates model.StudentUpdates) error {
	if updates.AttendancePercentage == nil {
		return errors.New("attendance_percentage is required")
	}
	if err := s.students.Update(ctx, studentID, *updates.AttendancePercentage, updates.FeeStatus); err != nil {
		return err
	}

	s.changed(ctx, model.RosterEvent{Type: model.EventStudentUpdated, StudentID: studentID, Actor: actor},
		model.AuditEntry{
			Actor:  actor,
			Action: model.AuditStudentUpdate,
			Target: studentID,
			Detail: fmt.Sprintf("attendance=%g fee=%s", *updates.AttendancePercentage, updates.FeeStatus),
		})
	return nil
}

// Delete removes a student and their scores.
func (s *StudentService) Delete(ctx context.Context, actor, studentID string) error {
	if err := s.students.Delete(ctx, studentID); err != nil {
		return err
	}
	s.changed(ctx, model.RosterEvent{Type: model.EventStudentDeleted, StudentID: studentID, Actor: actor},
		model.AuditEntry{Actor: actor, Action: model.AuditStudentDelete, Target: studentID})
	return nil
}

// changed runs the post-mutation steps. Their failures are logged, never returned:
// the mutation itself has already committed.
func (s *StudentService) changed(ctx context.Context, ev model.RosterEvent, entry model.AuditEntry) {
	invalidateAndAnnounce(ctx, s.log, s.cache, s.events, s.audit, ev, entry)
}

func invalidateAndAnnounce(
	ctx context.Context,
	log zerolog.Logger,
	rosterCache cache.RosterCache,
	events RosterPublisher,
	audit AuditRecorder,
	ev model.RosterEvent,
	entry model.AuditEntry,
) {
	now := time.Now().UTC()
	if err := rosterCache.Invalidate(ctx); err != nil {
		log.Error().Err(err).Msg("Roster cache invalidation failed")
	}

	ev.At = now
	if err := events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("type", string(ev.Type)).Msg("Roster event publish failed")
	}

	entry.CreatedAt = now
	if err := audit.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", entry.Action).Msg("Audit record failed")
	}
}
