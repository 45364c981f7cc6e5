package domain

import "time"

// StatusChange is an immutable audit entry for a report status transition.
type StatusChange struct {
	ID        string
	ReportID  string
	ChangedBy string
	OldStatus ReportStatus
	NewStatus ReportStatus
	CreatedAt time.Time
}
