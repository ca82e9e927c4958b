// Package calendar exports pending alerts as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/nhle/crm-alerts/internal/dateutil"
	"github.com/nhle/crm-alerts/internal/model"
)

// ProductID identifies the feed producer.
const ProductID = "-//crm-alerts//Alert Export//EN"

// uidNamespace scopes event UIDs so re-exports keep stable identities.
var uidNamespace = uuid.MustParse("3f6c1d2e-8b1a-4c55-9a0e-7d2b6f4e9c11")

// EventUID returns the stable UID for a on its due date.
func EventUID(a model.Alert) string {
	return uuid.NewSHA1(uidNamespace, []byte(a.ID+"|"+a.DueDate)).String() + "@crm-alerts"
}

// Export writes one all-day VEVENT per pending alert to w and returns the
// number of events written.
func Export(w io.Writer, alerts []model.Alert, now time.Time) (int, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")

	n := 0
	for _, a := range alerts {
		if !a.IsPending() {
			continue
		}
		ev, err := event(a, now)
		if err != nil {
			return n, fmt.Errorf("alert %s: %w", a.ID, err)
		}
		cal.Children = append(cal.Children, ev.Component)
		n++
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return n, fmt.Errorf("encoding calendar: %w", err)
	}
	return n, nil
}

func event(a model.Alert, now time.Time) (*ical.Event, error) {
	due, err := dateutil.ParseDate(a.DueDate, time.UTC)
	if err != nil {
		return nil, err
	}

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, EventUID(a))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ev.Props.SetDate(ical.PropDateTimeStart, due)
	ev.Props.SetDate(ical.PropDateTimeEnd, due.AddDate(0, 0, 1))
	ev.Props.SetText(ical.PropSummary, a.Title)
	ev.Props.SetText(ical.PropDescription, description(a))
	ev.Props.SetText(ical.PropCategories, string(a.Type))

	prio := ical.NewProp(ical.PropPriority)
	prio.Value = strconv.Itoa(icalPriority(a.Priority))
	ev.Props.Set(prio)

	return ev, nil
}

func description(a model.Alert) string {
	desc := a.Description
	if a.ContactOwner != "" {
		desc += "\nOwner: " + a.ContactOwner
	}
	if a.VicePresident != "" {
		desc += "\nVP: " + a.VicePresident
	}
	return desc
}

// icalPriority maps to RFC 5545 PRIORITY, where 1 is highest.
func icalPriority(p model.Priority) int {
	switch p {
	case model.PriorityCritical:
		return 1
	case model.PriorityHigh:
		return 3
	case model.PriorityMedium:
		return 5
	case model.PriorityLow:
		return 9
	default:
		return 0
	}
}
