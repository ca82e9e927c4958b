package model

// LeadOption is a lead-time option a user can enable per alert category.
type LeadOption string

const (
	LeadSameDay    LeadOption = "same_day"
	LeadDayBefore  LeadOption = "day_before"
	LeadWeekBefore LeadOption = "week_before"
)

// Days returns the number of days before the due date the option covers.
func (o LeadOption) Days() (int, bool) {
	switch o {
	case LeadSameDay:
		return 0, true
	case LeadDayBefore:
		return 1, true
	case LeadWeekBefore:
		return 7, true
	}
	return 0, false
}

// ReminderFrequency controls how often an already-sent alert may be
// dispatched again by auto-send.
type ReminderFrequency string

const (
	FrequencyOnce       ReminderFrequency = "once"
	FrequencyDaily      ReminderFrequency = "daily"
	FrequencyEveryThree ReminderFrequency = "every-3-days"
	FrequencyWeekly     ReminderFrequency = "weekly"
)

// AlertSettings holds the user's lead-time options per category. An empty
// option list disables the category.
type AlertSettings struct {
	BirthdayAlertOptions    []LeadOption      `json:"birthdayAlertOptions"`
	NextContactAlertOptions []LeadOption      `json:"nextContactAlertOptions"`
	TaskAlertOptions        []LeadOption      `json:"taskAlertOptions"`
	JBPAlertOptions         []LeadOption      `json:"jbpAlertOptions"`
	EventAlertOptions       []LeadOption      `json:"eventAlertOptions"`
	ReminderFrequency       ReminderFrequency `json:"reminderFrequency"`
}

// AllLeadOptions lists every lead option in display order.
func AllLeadOptions() []LeadOption {
	return []LeadOption{LeadSameDay, LeadDayBefore, LeadWeekBefore}
}

// DefaultAlertSettings enables every option for every category and sends
// each alert once.
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{
		BirthdayAlertOptions:    AllLeadOptions(),
		NextContactAlertOptions: AllLeadOptions(),
		TaskAlertOptions:        AllLeadOptions(),
		JBPAlertOptions:         AllLeadOptions(),
		EventAlertOptions:       AllLeadOptions(),
		ReminderFrequency:       FrequencyOnce,
	}
}
