package alerts

import (
	"time"

	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/snooze"
)

// Merge copies the persisted status of each prior state onto the candidate
// with the same id. Candidates without prior state stay pending; prior
// states whose alert no longer derives are ignored.
func Merge(candidates []model.Alert, prior []model.AlertState) []model.Alert {
	byID := make(map[string]model.AlertState, len(prior))
	for _, st := range prior {
		byID[st.ID] = st
	}

	out := make([]model.Alert, len(candidates))
	for i, a := range candidates {
		st, ok := byID[a.ID]
		if ok {
			switch {
			case st.IsCompleted || st.Status == model.AlertStatusCompleted:
				a.Status = model.AlertStatusCompleted
				a.CompletedAt = st.CompletedAt
			case st.Status == model.AlertStatusDismissed:
				a.Status = model.AlertStatusDismissed
				a.CompletedAt = nil
			default:
				a.Status = model.AlertStatusPending
				a.CompletedAt = nil
			}
		}
		out[i] = a
	}
	return out
}

// FilterSnoozed drops snoozed alerts. Completed alerts are kept even when
// snoozed so finished work stays visible.
func FilterSnoozed(alerts []model.Alert, snoozed snooze.Set, now time.Time) []model.Alert {
	out := make([]model.Alert, 0, len(alerts))
	for _, a := range alerts {
		if !a.IsCompleted() && snoozed.Contains(a.ID, now) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Pending returns the alerts still awaiting action.
func Pending(alerts []model.Alert) []model.Alert {
	var out []model.Alert
	for _, a := range alerts {
		if a.IsPending() {
			out = append(out, a)
		}
	}
	return out
}

// StateOf reduces an alert to the state persisted across recomputation.
func StateOf(a model.Alert) model.AlertState {
	return model.AlertState{
		ID:          a.ID,
		Status:      a.Status,
		IsCompleted: a.IsCompleted(),
		CompletedAt: a.CompletedAt,
	}
}
