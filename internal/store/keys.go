package store

// KeyPrefix namespaces every key written by this application.
const KeyPrefix = "crm_"

// Storage keys. These are part of the on-disk contract; do not rename.
const (
	KeyAccounts           = KeyPrefix + "accounts"
	KeyContacts           = KeyPrefix + "contacts"
	KeyTasks              = KeyPrefix + "tasks"
	KeyRelationshipOwners = KeyPrefix + "relationship_owners"

	KeyAlertSettings   = KeyPrefix + "alert_settings"
	KeySnoozedAlerts   = KeyPrefix + "snoozed_alerts"
	KeySentAlerts      = KeyPrefix + "sent_alerts"
	KeyAlertStates     = KeyPrefix + "alerts"
	KeyAutoSendEnabled = KeyPrefix + "auto_send_enabled"
)
