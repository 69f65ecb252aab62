// Package sqlite implements the repository stores on SQLite through sqlx.
// The schema keeps the students, test_scores and users tables of students.db.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/repository"
)

// StudentStore handles student data access on SQLite.
type StudentStore struct {
	db *sqlx.DB
}

// NewStudentStore creates a new StudentStore.
func NewStudentStore(db *sqlx.DB) *StudentStore {
	return &StudentStore{db: db}
}

const recordSelect = `SELECT s.student_id, s.attendance_percentage, s.fee_status,
		COALESCE(AVG(t.test_score), 0) AS avg_test_score
	FROM students s
	LEFT JOIN test_scores t ON t.student_id = s.student_id`

// ListRecords returns every student with its average score.
func (s *StudentStore) ListRecords(ctx context.Context) ([]model.StudentRecord, error) {
	records := []model.StudentRecord{}
	err := s.db.SelectContext(ctx, &records, recordSelect+` GROUP BY s.student_id ORDER BY s.student_id`)
	return records, err
}

// GetRecord returns one student with its average score.
func (s *StudentStore) GetRecord(ctx context.Context, studentID string) (*model.StudentRecord, error) {
	var rec model.StudentRecord
	err := s.db.GetContext(ctx, &rec, recordSelect+` WHERE s.student_id = ? GROUP BY s.student_id`, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListScores returns a student's score history.
func (s *StudentStore) ListScores(ctx context.Context, studentID string) ([]model.TestScore, error) {
	scores := []model.TestScore{}
	err := s.db.SelectContext(ctx, &scores,
		`SELECT test_id, student_id, subject, test_score, test_number
		 FROM test_scores WHERE student_id = ? ORDER BY test_number, subject`, studentID)
	return scores, err
}

// Trend returns the student's scores ordered by test number.
func (s *StudentStore) Trend(ctx context.Context, studentID string) ([]model.TrendPoint, error) {
	points := []model.TrendPoint{}
	err := s.db.SelectContext(ctx, &points,
		`SELECT test_number, test_score FROM test_scores
		 WHERE student_id = ? ORDER BY test_number, subject`, studentID)
	return points, err
}

// SubjectAverages returns the mean score per subject.
func (s *StudentStore) SubjectAverages(ctx context.Context) ([]model.SubjectScore, error) {
	out := []model.SubjectScore{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT subject, AVG(test_score) AS test_score FROM test_scores GROUP BY subject ORDER BY subject`)
	return out, err
}

// Update sets the editable fields of a student.
func (s *StudentStore) Update(ctx context.Context, studentID string, attendance float64, fee model.FeeStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE students SET attendance_percentage = ?, fee_status = ? WHERE student_id = ?`,
		attendance, fee, studentID)
	if err != nil {
		return err
	}
	return requireAffected(res, repository.ErrStudentNotFound)
}

// Delete removes a student and its scores in one transaction.
func (s *StudentStore) Delete(ctx context.Context, studentID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM test_scores WHERE student_id = ?`, studentID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM students WHERE student_id = ?`, studentID)
	if err != nil {
		return err
	}
	if err := requireAffected(res, repository.ErrStudentNotFound); err != nil {
		return err
	}
	return tx.Commit()
}

// ExistingIDs returns the subset of ids already stored.
func (s *StudentStore) ExistingIDs(ctx context.Context, studentIDs []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	if len(studentIDs) == 0 {
		return found, nil
	}

	query, args, err := sqlx.In(`SELECT student_id FROM students WHERE student_id IN (?)`, studentIDs)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, id := range ids {
		found[id] = struct{}{}
	}
	return found, nil
}

// BulkInsert stores students and scores atomically.
func (s *StudentStore) BulkInsert(ctx context.Context, students []model.Student, scores []model.TestScore) error {
	if len(students) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO students (student_id, attendance_percentage, fee_status)
		 VALUES (:student_id, :attendance_percentage, :fee_status)`, students); err != nil {
		return err
	}
	if len(scores) > 0 {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO test_scores (student_id, subject, test_score, test_number)
			 VALUES (:student_id, :subject, :test_score, :test_number)`, scores); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UserStore handles login accounts on SQLite.
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// List returns every account ordered by username.
func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT username, role, created_at FROM users ORDER BY username`)
	return users, err
}

// GetByUsername returns an account including its password hash.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `SELECT username, password, role, created_at FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new account.
func (s *UserStore) Create(ctx context.Context, u *model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO users (username, password, role, created_at) VALUES (:username, :password, :role, :created_at)`, u)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return repository.ErrDuplicateUsername
	}
	return err
}

// UpdateRole changes an account's role.
func (s *UserStore) UpdateRole(ctx context.Context, username string, role model.Role) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE username = ?`, role, username)
	if err != nil {
		return err
	}
	return requireAffected(res, repository.ErrUserNotFound)
}

// Delete removes an account.
func (s *UserStore) Delete(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return err
	}
	return requireAffected(res, repository.ErrUserNotFound)
}

// AuditStore writes the audit log on SQLite.
type AuditStore struct {
	db *sqlx.DB
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(db *sqlx.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Insert appends an entry.
func (s *AuditStore) Insert(ctx context.Context, e *model.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO audit_log (actor, action, target, detail, created_at)
		 VALUES (:actor, :action, :target, :detail, :created_at)`, e)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
