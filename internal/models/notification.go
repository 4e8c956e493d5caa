package models

import "time"

// Notification types.
const (
	NotificationExpiry   = "EXPIRY"
	NotificationDeadline = "DEADLINE"
	NotificationSystem   = "SYSTEM"
)

// Notification severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Notification is a derived alert. It is never persisted and is
// regenerated on every snapshot load.
type Notification struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Message  string    `json:"message"`
	Date     time.Time `json:"date"`
	Severity string    `json:"severity"`
}
