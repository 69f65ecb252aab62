package memory

import (
	"context"
	"sort"

	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/repository"
)

// StudentStore is the in-memory repository.StudentStore.
type StudentStore struct {
	db *DB
}

// NewStudentStore creates a StudentStore over db.
func NewStudentStore(db *DB) *StudentStore {
	return &StudentStore{db: db}
}

func (s *StudentStore) record(st *model.Student) model.StudentRecord {
	rec := model.StudentRecord{Student: *st}
	if scores := s.db.scores[st.StudentID]; len(scores) > 0 {
		var sum float64
		for _, sc := range scores {
			sum += sc.TestScore
		}
		rec.AvgTestScore = sum / float64(len(scores))
	}
	return rec
}

func (s *StudentStore) ListRecords(_ context.Context) ([]model.StudentRecord, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	records := make([]model.StudentRecord, 0, len(s.db.students))
	for _, st := range s.db.students {
		records = append(records, s.record(st))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].StudentID < records[j].StudentID })
	return records, nil
}

func (s *StudentStore) GetRecord(_ context.Context, studentID string) (*model.StudentRecord, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	st, ok := s.db.students[studentID]
	if !ok {
		return nil, repository.ErrStudentNotFound
	}
	rec := s.record(st)
	return &rec, nil
}

func (s *StudentStore) sortedScores(studentID string) []model.TestScore {
	scores := append([]model.TestScore{}, s.db.scores[studentID]...)
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].TestNumber != scores[j].TestNumber {
			return scores[i].TestNumber < scores[j].TestNumber
		}
		return scores[i].Subject < scores[j].Subject
	})
	return scores
}

func (s *StudentStore) ListScores(_ context.Context, studentID string) ([]model.TestScore, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.sortedScores(studentID), nil
}

func (s *StudentStore) Trend(_ context.Context, studentID string) ([]model.TrendPoint, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	scores := s.sortedScores(studentID)
	points := make([]model.TrendPoint, 0, len(scores))
	for _, sc := range scores {
		points = append(points, model.TrendPoint{TestNumber: sc.TestNumber, TestScore: sc.TestScore})
	}
	return points, nil
}

func (s *StudentStore) SubjectAverages(_ context.Context) ([]model.SubjectScore, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, scores := range s.db.scores {
		for _, sc := range scores {
			sums[sc.Subject] += sc.TestScore
			counts[sc.Subject]++
		}
	}

	out := make([]model.SubjectScore, 0, len(sums))
	for subject, sum := range sums {
		out = append(out, model.SubjectScore{Subject: subject, TestScore: sum / float64(counts[subject])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out, nil
}

func (s *StudentStore) Update(_ context.Context, studentID string, attendance float64, fee model.FeeStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	st, ok := s.db.students[studentID]
	if !ok {
		return repository.ErrStudentNotFound
	}
	st.AttendancePercentage = attendance
	st.FeeStatus = fee
	return nil
}

func (s *StudentStore) Delete(_ context.Context, studentID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.students[studentID]; !ok {
		return repository.ErrStudentNotFound
	}
	delete(s.db.students, studentID)
	delete(s.db.scores, studentID)
	return nil
}

func (s *StudentStore) ExistingIDs(_ context.Context, studentIDs []string) (map[string]struct{}, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	found := make(map[string]struct{})
	for _, id := range studentIDs {
		if _, ok := s.db.students[id]; ok {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

func (s *StudentStore) BulkInsert(_ context.Context, students []model.Student, scores []model.TestScore) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for i := range students {
		st := students[i]
		s.db.students[st.StudentID] = &st
	}
	for _, sc := range scores {
		s.db.nextTest++
		sc.TestID = s.db.nextTest
		s.db.scores[sc.StudentID] = append(s.db.scores[sc.StudentID], sc)
	}
	return nil
}
