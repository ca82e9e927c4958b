// Package alerts derives time-sensitive reminders from CRM records and
// tracks the user's completion, dismissal and snooze state for them.
package alerts

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/nhle/crm-alerts/internal/dateutil"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/snooze"
)

// Unassigned is the attribution used when no owner can be found.
const Unassigned = "Unassigned"

// Input is everything a derivation pass reads.
type Input struct {
	Accounts []model.Account
	Contacts []model.Contact
	Tasks    []model.Task
	Settings model.AlertSettings

	// Snoozed is consulted for filtering only.
	Snoozed snooze.Set

	// Prior is the persisted per-alert state, matched by alert id.
	Prior []model.AlertState

	Now time.Time
}

// Engine turns CRM records into alerts. It holds no state besides its
// logger; Derive is a pure function of its input.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(log *slog.Logger) *Engine {
	return &Engine{logger: log.With(slog.String("service", "alerts"))}
}

// Derive returns the alerts for in.Now: fresh candidates merged with prior
// state, minus snoozed alerts that are not completed.
func (e *Engine) Derive(in Input) []model.Alert {
	merged := Merge(e.Candidates(in), in.Prior)
	return FilterSnoozed(merged, in.Snoozed, in.Now)
}

// Candidates generates raw alerts for every source record, ignoring prior
// state and snoozes. Records that cannot be parsed are skipped and logged.
func (e *Engine) Candidates(in Input) []model.Alert {
	accounts := make(map[string]*model.Account, len(in.Accounts))
	for i := range in.Accounts {
		accounts[in.Accounts[i].ID] = &in.Accounts[i]
	}
	contacts := make(map[string]*model.Contact, len(in.Contacts))
	for i := range in.Contacts {
		contacts[in.Contacts[i].ID] = &in.Contacts[i]
	}

	var out []model.Alert
	collect := func(source, id string, alerts []model.Alert, err error) {
		if err != nil {
			e.logger.Warn("skipping record",
				slog.String("source", source),
				slog.String("id", id),
				slog.Any("error", err),
			)
			return
		}
		out = append(out, alerts...)
	}

	for _, c := range in.Contacts {
		acct := accounts[c.AccountID]
		a, err := birthdayAlert(c, acct, in)
		collect("birthday", c.ID, a, err)
		a, err = followUpAlert(c, acct, in)
		collect("follow-up", c.ID, a, err)
		a, err = contactEventAlerts(c, acct, in)
		collect("contactEvent", c.ID, a, err)
	}

	for _, acct := range in.Accounts {
		a, err := jbpAlerts(acct, in)
		collect("jbp", acct.ID, a, err)
		a, err = accountEventAlerts(acct, in)
		collect("accountEvent", acct.ID, a, err)
	}

	for _, t := range in.Tasks {
		a, err := taskAlert(t, contacts, accounts, in)
		collect("task", t.ID, a, err)
	}

	sortAlerts(out)
	return out
}

// MaxLeadDays resolves enabled options to a single cutoff; the widest
// window wins. ok is false when no valid option is enabled.
func MaxLeadDays(opts []model.LeadOption) (days int, ok bool) {
	days = -1
	for _, o := range opts {
		d, valid := o.Days()
		if valid && d > days {
			days = d
		}
	}
	return days, days >= 0
}

// inWindow reports 0 <= days <= MaxLeadDays(opts).
func inWindow(days int, opts []model.LeadOption) bool {
	max, ok := MaxLeadDays(opts)
	return ok && days >= 0 && days <= max
}

func birthdayAlert(c model.Contact, acct *model.Account, in Input) ([]model.Alert, error) {
	if strings.TrimSpace(c.Birthday) == "" || !c.BirthdayAlert {
		return nil, nil
	}
	days, next, err := dateutil.DaysUntilBirthday(c.Birthday, in.Now)
	if err != nil {
		return nil, err
	}
	if !inWindow(days, in.Settings.BirthdayAlertOptions) {
		return nil, nil
	}

	priority := model.PriorityLow
	switch {
	case days <= 1:
		priority = model.PriorityHigh
	case days <= 7:
		priority = model.PriorityMedium
	}

	name := c.FullName()
	a := contactScoped(c, acct, in.Now)
	a.ID = "birthday-" + c.ID
	a.Type = model.AlertTypeBirthday
	a.Title = "Birthday: " + name
	a.Description = fmt.Sprintf("%s's birthday is %s", name, dateutil.Phrase(days))
	a.Priority = priority
	a.DueDate = next.Format(dateutil.ISODate)
	a.DaysUntil = days
	return []model.Alert{a}, nil
}

func followUpAlert(c model.Contact, acct *model.Account, in Input) ([]model.Alert, error) {
	if strings.TrimSpace(c.NextContactDate) == "" || !c.NextContactAlert {
		return nil, nil
	}
	due, err := dateutil.ParseDate(c.NextContactDate, in.Now.Location())
	if err != nil {
		return nil, err
	}
	days := dateutil.DaysUntil(due, in.Now)
	// Overdue follow-ups are never suppressed by lead-time settings.
	if days >= 0 && !inWindow(days, in.Settings.NextContactAlertOptions) {
		return nil, nil
	}

	priority := model.PriorityMedium
	switch {
	case days < 0:
		priority = model.PriorityCritical
	case days <= 1:
		priority = model.PriorityHigh
	}

	name := c.FullName()
	a := contactScoped(c, acct, in.Now)
	a.ID = "follow-up-" + c.ID
	a.Type = model.AlertTypeFollowUp
	a.Title = "Follow up with " + name
	a.Description = fmt.Sprintf("Follow-up with %s %s", name, dateutil.DuePhrase(days))
	a.Priority = priority
	a.DueDate = due.Format(dateutil.ISODate)
	a.DaysUntil = days
	return []model.Alert{a}, nil
}

func contactEventAlerts(c model.Contact, acct *model.Account, in Input) ([]model.Alert, error) {
	var out []model.Alert
	for i, ev := range c.Events {
		due, days, ok, err := eventDue(ev, in)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", eventID(ev, i), err)
		}
		if !ok {
			continue
		}
		name := c.FullName()
		a := contactScoped(c, acct, in.Now)
		a.ID = fmt.Sprintf("contactEvent-%s-%s", c.ID, eventID(ev, i))
		a.Type = model.AlertTypeContactEvent
		a.Title = fmt.Sprintf("%s: %s", ev.Title, name)
		a.Description = fmt.Sprintf("%s for %s is %s", ev.Title, name, dateutil.Phrase(days))
		a.Priority = eventPriority(days)
		a.DueDate = due.Format(dateutil.ISODate)
		a.DaysUntil = days
		out = append(out, a)
	}
	return out, nil
}

func accountEventAlerts(acct model.Account, in Input) ([]model.Alert, error) {
	var out []model.Alert
	emit := func(idPrefix, relatedName, owner, vp string, events []model.CustomEvent) error {
		for i, ev := range events {
			due, days, ok, err := eventDue(ev, in)
			if err != nil {
				return fmt.Errorf("event %s: %w", eventID(ev, i), err)
			}
			if !ok {
				continue
			}
			a := accountScoped(acct, in.Now)
			a.ID = idPrefix + "-" + eventID(ev, i)
			a.Type = model.AlertTypeAccountEvent
			a.RelatedName = relatedName
			a.ContactOwner = owner
			a.VicePresident = vp
			a.Title = fmt.Sprintf("%s: %s", ev.Title, relatedName)
			a.Description = fmt.Sprintf("%s for %s is %s", ev.Title, relatedName, dateutil.Phrase(days))
			a.Priority = eventPriority(days)
			a.DueDate = due.Format(dateutil.ISODate)
			a.DaysUntil = days
			out = append(out, a)
		}
		return nil
	}

	base := accountScoped(acct, in.Now)
	if err := emit("accountEvent-"+acct.ID, base.RelatedName, base.ContactOwner, base.VicePresident, acct.Events); err != nil {
		return nil, err
	}
	for _, b := range acct.Banners {
		owner, vp := bannerAttribution(acct, b)
		prefix := fmt.Sprintf("accountEvent-%s-%s", acct.ID, b.ID)
		if err := emit(prefix, bannerName(acct, b), owner, vp, b.Events); err != nil {
			return nil, fmt.Errorf("banner %s: %w", b.ID, err)
		}
	}
	return out, nil
}

func jbpAlerts(acct model.Account, in Input) ([]model.Alert, error) {
	var out []model.Alert

	base := accountScoped(acct, in.Now)
	a, ok, err := jbpAlert(acct.IsJBP, acct.NextJBPDate, acct.NextJBPAlert, base, in)
	if err != nil {
		return nil, err
	}
	if ok {
		a.ID = "jbp-" + acct.ID
		out = append(out, a)
	}

	for _, b := range acct.Banners {
		base := accountScoped(acct, in.Now)
		base.RelatedName = bannerName(acct, b)
		base.ContactOwner, base.VicePresident = bannerAttribution(acct, b)
		a, ok, err := jbpAlert(b.IsJBP, b.NextJBPDate, b.NextJBPAlert, base, in)
		if err != nil {
			return nil, fmt.Errorf("banner %s: %w", b.ID, err)
		}
		if ok {
			a.ID = fmt.Sprintf("jbp-%s-%s", acct.ID, b.ID)
			out = append(out, a)
		}
	}
	return out, nil
}

// jbpAlert applies the JBP rule to one account or banner. JBP alerts have
// no overdue escape hatch: a past JBP date produces nothing.
func jbpAlert(isJBP bool, date string, enabled bool, base model.Alert, in Input) (model.Alert, bool, error) {
	if !isJBP || !enabled || strings.TrimSpace(date) == "" {
		return model.Alert{}, false, nil
	}
	due, err := dateutil.ParseDate(date, in.Now.Location())
	if err != nil {
		return model.Alert{}, false, err
	}
	days := dateutil.DaysUntil(due, in.Now)
	if !inWindow(days, in.Settings.JBPAlertOptions) {
		return model.Alert{}, false, nil
	}

	priority := model.PriorityLow
	switch {
	case days <= 7:
		priority = model.PriorityHigh
	case days <= 14:
		priority = model.PriorityMedium
	}

	a := base
	a.Type = model.AlertTypeJBP
	a.Title = "JBP: " + base.RelatedName
	a.Description = fmt.Sprintf("Joint Business Plan for %s %s", base.RelatedName, dateutil.DuePhrase(days))
	a.Priority = priority
	a.DueDate = due.Format(dateutil.ISODate)
	a.DaysUntil = days
	return a, true, nil
}

func taskAlert(t model.Task, contacts map[string]*model.Contact, accounts map[string]*model.Account, in Input) ([]model.Alert, error) {
	if strings.TrimSpace(t.DueDate) == "" || t.IsClosed() {
		return nil, nil
	}
	due, err := dateutil.ParseDate(t.DueDate, in.Now.Location())
	if err != nil {
		return nil, err
	}
	days := dateutil.DaysUntil(due, in.Now)
	// Overdue tasks are never suppressed by lead-time settings.
	if days >= 0 && !inWindow(days, in.Settings.TaskAlertOptions) {
		return nil, nil
	}

	a := model.Alert{
		ID:          "task-" + t.ID,
		Type:        model.AlertTypeTaskDue,
		Title:       "Task due: " + t.Title,
		Description: fmt.Sprintf("%s %s", t.Title, dateutil.DuePhrase(days)),
		Priority:    taskPriority(t.Priority, days),
		DueDate:     due.Format(dateutil.ISODate),
		DaysUntil:   days,
		RelatedID:   t.ID,
		RelatedType: model.RelatedTask,
		RelatedName: t.Title,
		ContactID:   t.ContactID,
		AccountID:   t.AccountID,
		Status:      model.AlertStatusPending,
		CreatedAt:   in.Now,
	}

	acct := accounts[t.AccountID]
	if c, ok := contacts[t.ContactID]; ok {
		if acct == nil {
			acct = accounts[c.AccountID]
			a.AccountID = c.AccountID
		}
		a.ContactOwner, a.VicePresident = ContactAttribution(*c, acct)
	} else if acct != nil {
		a.ContactOwner, a.VicePresident = orUnassigned(acct.AccountOwner), orUnassigned(acct.VP)
	} else {
		a.ContactOwner, a.VicePresident = Unassigned, Unassigned
	}
	return []model.Alert{a}, nil
}

// taskPriority escalates to critical when overdue or already critical, and
// lifts anything below high to high when due within a day.
func taskPriority(p model.Priority, days int) model.Priority {
	if days < 0 || p == model.PriorityCritical {
		return model.PriorityCritical
	}
	switch p {
	case model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
	default:
		p = model.PriorityMedium
	}
	if days <= 1 && p.Rank() > model.PriorityHigh.Rank() {
		return model.PriorityHigh
	}
	return p
}

func eventDue(ev model.CustomEvent, in Input) (time.Time, int, bool, error) {
	if strings.TrimSpace(ev.Date) == "" || !ev.AlertEnabled {
		return time.Time{}, 0, false, nil
	}
	due, err := dateutil.ParseDate(ev.Date, in.Now.Location())
	if err != nil {
		return time.Time{}, 0, false, err
	}
	days := dateutil.DaysUntil(due, in.Now)
	if !inWindow(days, in.Settings.EventAlertOptions) {
		return time.Time{}, 0, false, nil
	}
	return due, days, true, nil
}

func eventPriority(days int) model.Priority {
	switch {
	case days <= 1:
		return model.PriorityHigh
	case days <= 3:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

func eventID(ev model.CustomEvent, index int) string {
	if id := strings.TrimSpace(ev.ID); id != "" {
		return id
	}
	return fmt.Sprintf("%d", index)
}

// ContactAttribution resolves the owner and VP names for a contact-sourced
// alert: primary owners first, then the inline relationship owner, then the
// contact's account, then Unassigned.
func ContactAttribution(c model.Contact, acct *model.Account) (owner, vp string) {
	var candidatesOwner, candidatesVP []string
	if p := c.PrimaryDiageoRelationshipOwners; p != nil {
		candidatesOwner = append(candidatesOwner, p.OwnerName)
		candidatesVP = append(candidatesVP, p.SVP)
	}
	if r := c.RelationshipOwner; r != nil {
		candidatesOwner = append(candidatesOwner, r.Name)
		candidatesVP = append(candidatesVP, r.VicePresident)
	}
	if acct != nil {
		candidatesOwner = append(candidatesOwner, acct.AccountOwner)
		candidatesVP = append(candidatesVP, acct.VP)
	}
	return firstNonBlank(candidatesOwner...), firstNonBlank(candidatesVP...)
}

func contactScoped(c model.Contact, acct *model.Account, now time.Time) model.Alert {
	owner, vp := ContactAttribution(c, acct)
	return model.Alert{
		RelatedID:     c.ID,
		RelatedType:   model.RelatedContact,
		RelatedName:   c.FullName(),
		ContactID:     c.ID,
		AccountID:     c.AccountID,
		ContactOwner:  owner,
		VicePresident: vp,
		Status:        model.AlertStatusPending,
		CreatedAt:     now,
	}
}

// accountScoped builds the shared fields of an account-sourced alert. The
// owner is the account owner; there is no cascade.
func accountScoped(acct model.Account, now time.Time) model.Alert {
	return model.Alert{
		RelatedID:     acct.ID,
		RelatedType:   model.RelatedAccount,
		RelatedName:   acct.AccountName,
		AccountID:     acct.ID,
		ContactOwner:  orUnassigned(acct.AccountOwner),
		VicePresident: orUnassigned(acct.VP),
		Status:        model.AlertStatusPending,
		CreatedAt:     now,
	}
}

func bannerAttribution(acct model.Account, b model.BannerBuyingOffice) (owner, vp string) {
	return firstNonBlank(b.AccountOwner, acct.AccountOwner), firstNonBlank(b.VP, acct.VP)
}

func bannerName(acct model.Account, b model.BannerBuyingOffice) string {
	if strings.TrimSpace(b.Name) == "" {
		return acct.AccountName
	}
	return acct.AccountName + " / " + b.Name
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return Unassigned
}

func orUnassigned(s string) string {
	return firstNonBlank(s)
}

// sortAlerts orders by priority, then due date, then id.
func sortAlerts(alerts []model.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if a.DaysUntil != b.DaysUntil {
			return a.DaysUntil < b.DaysUntil
		}
		return a.ID < b.ID
	})
}
