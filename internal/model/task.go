package model

// Task status constants.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in-progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

// Task is a follow-up item tied to a contact and/or an account.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// DueDate is an ISO date (YYYY-MM-DD, optionally with a time part).
	DueDate string `json:"dueDate,omitempty"`

	// Status is one of the TaskStatus* constants.
	Status string `json:"status"`

	// Priority uses the alert priority scale (low, medium, high, critical).
	Priority Priority `json:"priority"`

	AssignedTo string `json:"assignedTo,omitempty"`
	ContactID  string `json:"contactId,omitempty"`
	AccountID  string `json:"accountId,omitempty"`
}

// IsClosed reports whether the task no longer produces alerts.
func (t Task) IsClosed() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled
}
