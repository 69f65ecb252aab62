package model

// FeeStatus is the fee payment state recorded for a student.
type FeeStatus string

const (
	FeePaid    FeeStatus = "Paid"
	FeeOverdue FeeStatus = "Overdue"
	FeeUnknown FeeStatus = "Unknown"
)

// Valid reports whether s is one of the known fee states.
func (s FeeStatus) Valid() bool {
	switch s {
	case FeePaid, FeeOverdue, FeeUnknown:
		return true
	}
	return false
}

// Student is the stored student row.
type Student struct {
	StudentID            string    `json:"student_id" db:"student_id"`
	AttendancePercentage float64   `json:"attendance_percentage" db:"attendance_percentage"`
	FeeStatus            FeeStatus `json:"fee_status" db:"fee_status"`
}

// TestScore is one test result in a student's history.
type TestScore struct {
	TestID     int64   `json:"test_id" db:"test_id"`
	StudentID  string  `json:"student_id" db:"student_id"`
	Subject    string  `json:"subject" db:"subject"`
	TestScore  float64 `json:"test_score" db:"test_score"`
	TestNumber int     `json:"test_number" db:"test_number"`
}

// StudentRecord is a stored student joined with the mean of its test scores.
type StudentRecord struct {
	Student
	AvgTestScore float64 `json:"avg_test_score" db:"avg_test_score"`
}

// StudentSummary is one roster row.
type StudentSummary struct {
	StudentID            string    `json:"student_id"`
	AttendancePercentage float64   `json:"attendance_percentage"`
	AvgTestScore         float64   `json:"avg_test_score"`
	FeeStatus            FeeStatus `json:"fee_status"`
	RiskLevel            RiskLevel `json:"risk_level"`
}

// StudentInfo is a summary enriched with counseling output.
type StudentInfo struct {
	StudentSummary
	Reasons []string `json:"reasons"`
	Advice  string   `json:"advice,omitempty"`
}

// StudentDetail is the payload of GET /api/student/{id}.
type StudentDetail struct {
	Info   StudentInfo `json:"info"`
	Scores []TestScore `json:"scores"`
}

// StudentUpdates carries the two fields staff may edit.
type StudentUpdates struct {
	AttendancePercentage *float64  `json:"attendance_percentage" binding:"required,gte=0,lte=100"`
	FeeStatus            FeeStatus `json:"fee_status" binding:"required,feestatus"`
}

// UpdateStudentRequest is the body of POST /api/student/update.
type UpdateStudentRequest struct {
	StudentID string          `json:"student_id" binding:"required"`
	Updates   *StudentUpdates `json:"updates" binding:"required"`
}

// TrendPoint is one point of a student's score series.
type TrendPoint struct {
	TestNumber int     `json:"test_number" db:"test_number"`
	TestScore  float64 `json:"test_score" db:"test_score"`
}

// SubjectScore is the average score across all students for one subject.
type SubjectScore struct {
	Subject   string  `json:"subject" db:"subject"`
	TestScore float64 `json:"test_score" db:"test_score"`
}
