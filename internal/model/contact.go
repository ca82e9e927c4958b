package model

import "strings"

// RelationshipOwnerRef is the relationship owner recorded inline on a contact.
type RelationshipOwnerRef struct {
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	VicePresident string `json:"vicePresident,omitempty"`
}

// PrimaryRelationshipOwners holds the primary owner assignment for a
// contact. It takes precedence over RelationshipOwnerRef.
type PrimaryRelationshipOwners struct {
	OwnerName  string `json:"ownerName,omitempty"`
	OwnerEmail string `json:"ownerEmail,omitempty"`
	SVP        string `json:"svp,omitempty"`
}

// Contact is a person at an account.
type Contact struct {
	ID                string `json:"id"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	AccountID         string `json:"accountId,omitempty"`
	Title             string `json:"title,omitempty"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	NotificationEmail string `json:"notificationEmail,omitempty"`

	// Birthday is stored without a reliable year; only month and day are used.
	Birthday      string `json:"birthday,omitempty"`
	BirthdayAlert bool   `json:"birthdayAlert"`

	LastContactDate  string `json:"lastContactDate,omitempty"`
	NextContactDate  string `json:"nextContactDate,omitempty"`
	NextContactAlert bool   `json:"nextContactAlert"`

	RelationshipOwner               *RelationshipOwnerRef      `json:"relationshipOwner,omitempty"`
	PrimaryDiageoRelationshipOwners *PrimaryRelationshipOwners `json:"primaryDiageoRelationshipOwners,omitempty"`

	Events []CustomEvent `json:"events,omitempty"`
}

// FullName returns "First Last", trimmed.
func (c Contact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// RelationshipOwner is an entry of the relationship-owner directory used to
// route notifications by owner name.
type RelationshipOwner struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Title         string `json:"title,omitempty"`
	VicePresident string `json:"vicePresident,omitempty"`
}
