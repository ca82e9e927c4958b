// Package dispatch resolves who should be notified about an alert and
// sends it through the notification service.
package dispatch

import (
	"regexp"
	"strings"

	"github.com/nhle/crm-alerts/internal/alerts"
	"github.com/nhle/crm-alerts/internal/model"
)

// Source labels reported in a Resolution.
const (
	SourceNotificationEmail = "contact.notificationEmail"
	SourcePrimaryOwnerEmail = "primaryDiageoRelationshipOwners.ownerEmail"
	SourceOwnerDirectory    = "relationshipOwnerDirectory"
	SourceInlineOwnerEmail  = "relationshipOwner.email"
	SourceAccountContact    = "accountContact"
	SourceAccountEmail      = "account.email"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	stripControl = strings.NewReplacer("\r", "", "\n", "", "\t", "")
)

// Attempt is one step of the resolution chain.
type Attempt struct {
	Source  string
	Outcome string
}

func (a Attempt) String() string { return a.Source + ": " + a.Outcome }

// Resolution is the address chosen for an alert and how it was found.
type Resolution struct {
	Email    string
	Source   string
	Attempts []Attempt
}

// Sanitize trims s and removes embedded CR, LF and TAB characters.
func Sanitize(s string) string {
	return stripControl.Replace(strings.TrimSpace(s))
}

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// MatchOwner finds name in the relationship-owner directory: exact match
// first, then case-insensitive, then substring in either direction.
func MatchOwner(dir []model.RelationshipOwner, name string) (model.RelationshipOwner, bool) {
	name = strings.TrimSpace(name)
	if name == "" || name == alerts.Unassigned {
		return model.RelationshipOwner{}, false
	}

	for _, o := range dir {
		if strings.TrimSpace(o.Name) == name {
			return o, true
		}
	}
	for _, o := range dir {
		if strings.EqualFold(strings.TrimSpace(o.Name), name) {
			return o, true
		}
	}
	lower := strings.ToLower(name)
	for _, o := range dir {
		candidate := strings.ToLower(strings.TrimSpace(o.Name))
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, lower) || strings.Contains(lower, candidate) {
			return o, true
		}
	}
	return model.RelationshipOwner{}, false
}

// chain accumulates attempts and stops at the first non-empty candidate.
type chain struct {
	alertID  string
	attempts []Attempt
	found    *Resolution
}

func (c *chain) try(source, raw string) {
	if c.found != nil {
		return
	}
	email := Sanitize(raw)
	if email == "" {
		c.attempts = append(c.attempts, Attempt{Source: source, Outcome: "empty"})
		return
	}
	c.attempts = append(c.attempts, Attempt{Source: source, Outcome: "found " + email})
	c.found = &Resolution{Email: email, Source: source}
}

func (c *chain) skip(source, outcome string) {
	if c.found != nil {
		return
	}
	c.attempts = append(c.attempts, Attempt{Source: source, Outcome: outcome})
}

func (c *chain) result() (Resolution, error) {
	if c.found == nil {
		return Resolution{Attempts: c.attempts}, &ResolutionError{AlertID: c.alertID, Attempts: c.attempts}
	}
	res := *c.found
	res.Attempts = c.attempts
	if !ValidEmail(res.Email) {
		return res, &ValidationError{AlertID: c.alertID, Email: res.Email, Source: res.Source}
	}
	return res, nil
}

// Resolve picks the notification address for a. Contact-scoped alerts, and
// task alerts tied to a contact, use the contact chain; the rest use the
// account chain.
func Resolve(a model.Alert, src alerts.Sources) (Resolution, error) {
	c := &chain{alertID: a.ID}

	switch {
	case a.Type.IsContactScoped():
		contactChain(c, a, src)
	case a.Type == model.AlertTypeTaskDue && a.ContactID != "":
		contactChain(c, a, src)
	case a.AccountID != "" || a.RelatedType == model.RelatedAccount:
		accountChain(c, a, src)
	default:
		directoryStep(c, a, src)
	}
	return c.result()
}

func contactChain(c *chain, a model.Alert, src alerts.Sources) {
	id := a.ContactID
	if id == "" {
		id = a.RelatedID
	}
	contact, ok := src.Contact(id)
	if !ok {
		c.skip("contact", "contact "+id+" not found")
		directoryStep(c, a, src)
		return
	}

	c.try(SourceNotificationEmail, contact.NotificationEmail)
	if p := contact.PrimaryDiageoRelationshipOwners; p != nil {
		c.try(SourcePrimaryOwnerEmail, p.OwnerEmail)
	} else {
		c.skip(SourcePrimaryOwnerEmail, "not set")
	}
	directoryStep(c, a, src)
	if r := contact.RelationshipOwner; r != nil {
		c.try(SourceInlineOwnerEmail, r.Email)
	} else {
		c.skip(SourceInlineOwnerEmail, "not set")
	}
}

func accountChain(c *chain, a model.Alert, src alerts.Sources) {
	directoryStep(c, a, src)

	id := a.AccountID
	if id == "" {
		id = a.RelatedID
	}
	acct, ok := src.Account(id)
	if !ok {
		c.skip("account", "account "+id+" not found")
		return
	}

	for _, contact := range src.Contacts {
		if contact.AccountID != acct.ID {
			continue
		}
		for _, raw := range []string{contact.NotificationEmail, contact.Email} {
			if email := Sanitize(raw); ValidEmail(email) {
				c.try(SourceAccountContact, email)
				break
			}
		}
	}
	if c.found == nil {
		c.skip(SourceAccountContact, "no contact with a valid email")
	}
	c.try(SourceAccountEmail, acct.Email)
}

func directoryStep(c *chain, a model.Alert, src alerts.Sources) {
	if c.found != nil {
		return
	}
	owner, ok := MatchOwner(src.Owners, a.ContactOwner)
	if !ok {
		c.skip(SourceOwnerDirectory, "no entry matching "+quoteName(a.ContactOwner))
		return
	}
	c.try(SourceOwnerDirectory, owner.Email)
}

func quoteName(name string) string {
	if strings.TrimSpace(name) == "" {
		return `""`
	}
	return `"` + name + `"`
}
