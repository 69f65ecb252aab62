package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/sihmvp/dropout-monitor/internal/cache"
	"github.com/sihmvp/dropout-monitor/internal/metrics"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/repository"
)

var (
	ErrMissingColumns  = errors.New("missing required columns")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// reservedStudentID collides with the /api/student/me route.
const reservedStudentID = "me"

// RosterColumns are the header fields every upload must carry.
var RosterColumns = []string{"student_id", "attendance_percentage", "fee_status", "subject", "test_score", "test_number"}

// RowError reports a malformed data row. Row is 1-based and counts the header.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// IngestResult describes what an upload stored.
type IngestResult struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	IDs      []string `json:"student_ids"`
}

// IngestService loads roster files into the student store.
type IngestService struct {
	students repository.StudentStore
	cache    cache.RosterCache
	events   RosterPublisher
	audit    AuditRecorder
	log      zerolog.Logger
}

// NewIngestService creates a new IngestService.
func NewIngestService(
	students repository.StudentStore,
	rosterCache cache.RosterCache,
	events RosterPublisher,
	audit AuditRecorder,
	log zerolog.Logger,
) *IngestService {
	return &IngestService{
		students: students,
		cache:    rosterCache,
		events:   events,
		audit:    audit,
		log:      log.With().Str("component", "ingest_service").Logger(),
	}
}

// Ingest parses filename's content and stores students not already present.
// Rows of a known student are ignored as a whole, scores included.
func (s *IngestService) Ingest(ctx context.Context, actor, filename string, r io.Reader) (*IngestResult, error) {
	rows, err := ReadRows(filename, r)
	if err != nil {
		return nil, err
	}
	students, scores, err := ParseRoster(rows)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(students))
	for i, st := range students {
		ids[i] = st.StudentID
	}
	existing, err := s.students.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check existing students: %w", err)
	}

	var newStudents []model.Student
	for _, st := range students {
		if _, ok := existing[st.StudentID]; !ok {
			newStudents = append(newStudents, st)
		}
	}
	result := &IngestResult{Skipped: len(students) - len(newStudents), IDs: []string{}}
	if len(newStudents) == 0 {
		return result, nil
	}

	var newScores []model.TestScore
	for _, sc := range scores {
		if _, ok := existing[sc.StudentID]; !ok {
			newScores = append(newScores, sc)
		}
	}

	if err := s.students.BulkInsert(ctx, newStudents, newScores); err != nil {
		return nil, fmt.Errorf("store roster: %w", err)
	}

	result.Inserted = len(newStudents)
	for _, st := range newStudents {
		result.IDs = append(result.IDs, st.StudentID)
	}
	metrics.IngestedStudents.Add(float64(result.Inserted))

	s.log.Info().
		Str("file", filename).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Msg("Roster ingested")

	invalidateAndAnnounce(ctx, s.log, s.cache, s.events, s.audit,
		model.RosterEvent{Type: model.EventRosterUploaded, Count: result.Inserted, Actor: actor},
		model.AuditEntry{
			Actor:  actor,
			Action: model.AuditRosterUpload,
			Target: filename,
			Detail: strconv.Itoa(result.Inserted),
		})
	return result, nil
}

// ReadRows returns every row of a CSV or XLSX file, header first.
// The format is chosen by extension; anything that is not .xlsx is read as CSV.
func ReadRows(filename string, r io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return readXLSX(r)
	case ".csv", ".txt", "":
		return readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(filename))
	}
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// ParseRoster validates the header and converts data rows. Students keep
// the attendance and fee of their first row; repeated (subject, test_number)
// pairs keep the first score.
func ParseRoster(rows [][]string) ([]model.Student, []model.TestScore, error) {
	if len(rows) == 0 {
		return nil, nil, ErrMissingColumns
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range RosterColumns {
		if _, ok := col[name]; !ok {
			return nil, nil, ErrMissingColumns
		}
	}

	var (
		students  []model.Student
		scores    []model.TestScore
		seen      = make(map[string]bool)
		seenScore = make(map[string]bool)
	)

	for i, row := range rows[1:] {
		line := i + 2
		cell := func(name string) string {
			if idx := col[name]; idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		id := cell("student_id")
		if id == "" {
			if isBlank(row) {
				continue
			}
			return nil, nil, &RowError{Row: line, Column: "student_id", Err: errors.New("empty value")}
		}
		if strings.EqualFold(id, reservedStudentID) {
			return nil, nil, &RowError{Row: line, Column: "student_id", Err: fmt.Errorf("%q is reserved", id)}
		}

		if !seen[id] {
			attendance, err := parseMeasure(cell("attendance_percentage"), 0, 100)
			if err != nil {
				return nil, nil, &RowError{Row: line, Column: "attendance_percentage", Err: err}
			}
			students = append(students, model.Student{
				StudentID:            id,
				AttendancePercentage: attendance,
				FeeStatus:            NormalizeFeeStatus(cell("fee_status")),
			})
			seen[id] = true
		}

		subject := cell("subject")
		score, err := parseMeasure(cell("test_score"), 0, math.MaxFloat64)
		if err != nil {
			return nil, nil, &RowError{Row: line, Column: "test_score", Err: err}
		}
		number, err := parseTestNumber(cell("test_number"))
		if err != nil {
			return nil, nil, &RowError{Row: line, Column: "test_number", Err: err}
		}

		key := id + "\x00" + subject + "\x00" + strconv.Itoa(number)
		if seenScore[key] {
			continue
		}
		seenScore[key] = true
		scores = append(scores, model.TestScore{StudentID: id, Subject: subject, TestScore: score, TestNumber: number})
	}
	return students, scores, nil
}

// NormalizeFeeStatus maps free-form fee text onto the enum. Unrecognised
// values become Unknown.
func NormalizeFeeStatus(raw string) model.FeeStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid":
		return model.FeePaid
	case "overdue":
		return model.FeeOverdue
	default:
		return model.FeeUnknown
	}
}

// parseMeasure parses a finite number within [lo, hi]. NaN and Inf
// would poison every later JSON encoding of the roster.
func parseMeasure(raw string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %s", raw)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s out of range", raw)
	}
	return v, nil
}

// parseTestNumber accepts "3" and spreadsheet renderings such as "3.0".
func parseTestNumber(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not a whole number: %s", raw)
	}
	return int(f), nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
