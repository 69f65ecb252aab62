package model

import "time"

// RosterEventType names the mutation behind a RosterEvent.
type RosterEventType string

const (
	EventStudentUpdated RosterEventType = "student_updated"
	EventStudentDeleted RosterEventType = "student_deleted"
	EventRosterUploaded RosterEventType = "roster_uploaded"
)

// RosterEvent tells subscribers the roster they hold is stale.
type RosterEvent struct {
	Type      RosterEventType `json:"type"`
	StudentID string          `json:"student_id,omitempty"`
	Count     int             `json:"count,omitempty"`
	Actor     string          `json:"actor,omitempty"`
	At        time.Time       `json:"at"`
}
