package models

import "time"

// Task status values.
const (
	TaskStatusPending = "Pending"
	TaskStatusDone    = "Done"
)

// Task is an administrative to-do item whose status toggles between
// Pending and Done.
type Task struct {
	ID         string    `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	AssignedTo string    `db:"assigned_to" json:"assignedTo"`
	Deadline   time.Time `db:"deadline" json:"deadline"`
	Status     string    `db:"status" json:"status"`
}

// ToggledStatus returns the opposite task status.
func ToggledStatus(status string) string {
	if status == TaskStatusPending {
		return TaskStatusDone
	}
	return TaskStatusPending
}
