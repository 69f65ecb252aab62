package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

// StudentRepository handles student data access on PostgreSQL.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const recordSelect = `SELECT s.student_id, s.attendance_percentage, s.fee_status,
		COALESCE(AVG(t.test_score), 0) AS avg_test_score
	 FROM students s
	 LEFT JOIN test_scores t ON t.student_id = s.student_id`

// ListRecords returns every student with its average score, ordered by id.
func (r *StudentRepository) ListRecords(ctx context.Context) ([]model.StudentRecord, error) {
	rows, err := r.pool.Query(ctx, recordSelect+`
	 GROUP BY s.student_id, s.attendance_percentage, s.fee_status
	 ORDER BY s.student_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.StudentRecord{}
	for rows.Next() {
		var rec model.StudentRecord
		if err := rows.Scan(&rec.StudentID, &rec.AttendancePercentage, &rec.FeeStatus, &rec.AvgTestScore); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetRecord returns one student with its average score.
func (r *StudentRepository) GetRecord(ctx context.Context, studentID string) (*model.StudentRecord, error) {
	rec := &model.StudentRecord{}
	err := r.pool.QueryRow(ctx, recordSelect+`
	 WHERE s.student_id = $1
	 GROUP BY s.student_id, s.attendance_percentage, s.fee_status`, studentID,
	).Scan(&rec.StudentID, &rec.AttendancePercentage, &rec.FeeStatus, &rec.AvgTestScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListScores returns a student's score history.
func (r *StudentRepository) ListScores(ctx context.Context, studentID string) ([]model.TestScore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT test_id, student_id, subject, test_score, test_number
		 FROM test_scores WHERE student_id = $1
		 ORDER BY test_number, subject`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := []model.TestScore{}
	for rows.Next() {
		var s model.TestScore
		if err := rows.Scan(&s.TestID, &s.StudentID, &s.Subject, &s.TestScore, &s.TestNumber); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// Trend returns the student's scores ordered by test number.
func (r *StudentRepository) Trend(ctx context.Context, studentID string) ([]model.TrendPoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT test_number, test_score FROM test_scores
		 WHERE student_id = $1 ORDER BY test_number, subject`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []model.TrendPoint{}
	for rows.Next() {
		var p model.TrendPoint
		if err := rows.Scan(&p.TestNumber, &p.TestScore); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// SubjectAverages returns the mean score per subject.
func (r *StudentRepository) SubjectAverages(ctx context.Context) ([]model.SubjectScore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT subject, AVG(test_score) FROM test_scores GROUP BY subject ORDER BY subject`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SubjectScore{}
	for rows.Next() {
		var s model.SubjectScore
		if err := rows.Scan(&s.Subject, &s.TestScore); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update sets the editable fields of a student.
func (r *StudentRepository) Update(ctx context.Context, studentID string, attendance float64, fee model.FeeStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE students SET attendance_percentage = $1, fee_status = $2 WHERE student_id = $3`,
		attendance, fee, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// Delete removes a student and its scores.
func (r *StudentRepository) Delete(ctx context.Context, studentID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM test_scores WHERE student_id = $1`, studentID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM students WHERE student_id = $1`, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStudentNotFound
	}
	return tx.Commit(ctx)
}

// ExistingIDs returns the subset of ids already stored.
func (r *StudentRepository) ExistingIDs(ctx context.Context, studentIDs []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	if len(studentIDs) == 0 {
		return found, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT student_id FROM students WHERE student_id = ANY($1)`, studentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	return found, rows.Err()
}

// BulkInsert copies students and scores inside one transaction.
func (r *StudentRepository) BulkInsert(ctx context.Context, students []model.Student, scores []model.TestScore) error {
	if len(students) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"students"},
		[]string{"student_id", "attendance_percentage", "fee_status"},
		pgx.CopyFromSlice(len(students), func(i int) ([]any, error) {
			s := students[i]
			return []any{s.StudentID, s.AttendancePercentage, string(s.FeeStatus)}, nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"test_scores"},
		[]string{"student_id", "subject", "test_score", "test_number"},
		pgx.CopyFromSlice(len(scores), func(i int) ([]any, error) {
			s := scores[i]
			return []any{s.StudentID, s.Subject, s.TestScore, s.TestNumber}, nil
		}),
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
