package model

import "time"

// AuditEntry records one administrative mutation.
type AuditEntry struct {
	ID        int64     `json:"id" db:"id"`
	Actor     string    `json:"actor" db:"actor"`
	Action    string    `json:"action" db:"action"`
	Target    string    `json:"target" db:"target"`
	Detail    string    `json:"detail" db:"detail"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Audit actions.
const (
	AuditStudentUpdate = "student.update"
	AuditStudentDelete = "student.delete"
	AuditRosterUpload  = "roster.upload"
	AuditUserCreate    = "user.create"
	AuditUserUpdate    = "user.update"
	AuditUserDelete    = "user.delete"
)
