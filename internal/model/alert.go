package model

import (
	"encoding/json"
	"time"
)

// AlertType identifies which rule produced an alert.
type AlertType string

const (
	AlertTypeBirthday     AlertType = "birthday"
	AlertTypeFollowUp     AlertType = "follow-up"
	AlertTypeTaskDue      AlertType = "task-due"
	AlertTypeJBP          AlertType = "jbp"
	AlertTypeAccountEvent AlertType = "accountEvent"
	AlertTypeContactEvent AlertType = "contactEvent"
)

// DispatchableTypes lists the alert types that may be sent to the
// notification service.
var DispatchableTypes = []AlertType{
	AlertTypeBirthday,
	AlertTypeFollowUp,
	AlertTypeTaskDue,
	AlertTypeJBP,
	AlertTypeAccountEvent,
	AlertTypeContactEvent,
}

// IsDispatchable reports whether alerts of type t may be sent.
func (t AlertType) IsDispatchable() bool {
	for _, d := range DispatchableTypes {
		if d == t {
			return true
		}
	}
	return false
}

// IsContactScoped reports whether the alert is about a contact rather than
// an account.
func (t AlertType) IsContactScoped() bool {
	switch t {
	case AlertTypeBirthday, AlertTypeFollowUp, AlertTypeContactEvent:
		return true
	}
	return false
}

// Priority is the urgency of an alert or task.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank orders priorities, critical first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

const (
	AlertStatusPending   AlertStatus = "pending"
	AlertStatusCompleted AlertStatus = "completed"
	AlertStatusDismissed AlertStatus = "dismissed"
)

// RelatedType identifies the kind of record an alert points back to.
type RelatedType string

const (
	RelatedContact RelatedType = "contact"
	RelatedAccount RelatedType = "account"
	RelatedTask    RelatedType = "task"
)

// Alert is a derived, time-sensitive reminder. Alerts are recomputed from
// source records; only ID is stable across recomputation.
type Alert struct {
	ID          string      `json:"id"`
	Type        AlertType   `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    Priority    `json:"priority"`
	DueDate     string      `json:"dueDate"`
	DaysUntil   int         `json:"daysUntil"`
	RelatedID   string      `json:"relatedId"`
	RelatedType RelatedType `json:"relatedType"`
	RelatedName string      `json:"relatedName"`

	// ContactID and AccountID carry the routing context used by dispatch.
	ContactID string `json:"contactId,omitempty"`
	AccountID string `json:"accountId,omitempty"`

	ContactOwner  string `json:"contactOwner"`
	VicePresident string `json:"vicePresident"`

	// Status is the single source of truth for completion. CompletedAt is
	// set only when Status is completed.
	Status      AlertStatus `json:"status"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// IsCompleted reports whether the alert has been marked done.
func (a Alert) IsCompleted() bool {
	return a.Status == AlertStatusCompleted
}

// IsPending reports whether the alert is still actionable.
func (a Alert) IsPending() bool {
	return a.Status == AlertStatusPending || a.Status == ""
}

// alertJSON is the wire shape of an Alert. The isCompleted flag exists only
// for compatibility with older snapshots.
type alertJSON struct {
	alertAlias
	IsCompleted bool `json:"isCompleted"`
}

type alertAlias Alert

// MarshalJSON adds the legacy isCompleted flag derived from Status.
func (a Alert) MarshalJSON() ([]byte, error) {
	return json.Marshal(alertJSON{alertAlias: alertAlias(a), IsCompleted: a.IsCompleted()})
}

// UnmarshalJSON accepts snapshots that only carry isCompleted.
func (a *Alert) UnmarshalJSON(data []byte) error {
	var raw alertJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Alert(raw.alertAlias)
	if raw.IsCompleted {
		a.Status = AlertStatusCompleted
	}
	if a.Status == "" {
		a.Status = AlertStatusPending
	}
	return nil
}

// AlertState is the persisted per-alert user state that survives
// recomputation. It is keyed by alert ID.
type AlertState struct {
	ID          string      `json:"id"`
	Status      AlertStatus `json:"status"`
	IsCompleted bool        `json:"isCompleted"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

// SnoozedAlert hides an alert until SnoozeUntil.
type SnoozedAlert struct {
	AlertID     string    `json:"alertId"`
	SnoozeUntil time.Time `json:"snoozeUntil"`
}

// SentAlertRecord records one dispatch of an alert.
type SentAlertRecord struct {
	AlertID   string    `json:"alertId"`
	AlertType AlertType `json:"alertType"`
	ContactID string    `json:"contactId,omitempty"`
	SentAt    time.Time `json:"sentAt"`
	DueDate   string    `json:"dueDate"`
	AutoSent  bool      `json:"autoSent"`
}
