package model

// NotificationPayload is what the notification service receives for one
// alert dispatch.
type NotificationPayload struct {
	AlertType   AlertType `json:"alertType"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ContactName string    `json:"contactName,omitempty"`
	AccountName string    `json:"accountName,omitempty"`
	DueDate     string    `json:"dueDate"`
	DaysUntil   int       `json:"daysUntil"`
	Priority    Priority  `json:"priority"`

	// OwnerName and OwnerEmail are the resolved recipient.
	OwnerName  string `json:"ownerName"`
	OwnerEmail string `json:"ownerEmail"`

	// AdditionalData carries alert id, related ids and the auto-sent flag.
	AdditionalData map[string]string `json:"additionalData,omitempty"`
}
