package dispatch_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-alerts/internal/alerts"
	"github.com/nhle/crm-alerts/internal/dispatch"
	"github.com/nhle/crm-alerts/internal/model"
)

func contactAlert(contactID, owner string) model.Alert {
	return model.Alert{
		ID:           "birthday-" + contactID,
		Type:         model.AlertTypeBirthday,
		RelatedID:    contactID,
		RelatedType:  model.RelatedContact,
		ContactID:    contactID,
		ContactOwner: owner,
	}
}

func accountAlert(accountID, owner string) model.Alert {
	return model.Alert{
		ID:           "jbp-" + accountID,
		Type:         model.AlertTypeJBP,
		RelatedID:    accountID,
		RelatedType:  model.RelatedAccount,
		AccountID:    accountID,
		ContactOwner: owner,
	}
}

func TestResolve_ContactChain(t *testing.T) {
	directory := []model.RelationshipOwner{{ID: "o1", Name: "grace hopper", Email: "directory@example.com"}}

	tests := []struct {
		name       string
		contact    model.Contact
		owner      string
		wantEmail  string
		wantSource string
	}{
		{
			name: "notification email first",
			contact: model.Contact{
				NotificationEmail:               "notify@example.com",
				PrimaryDiageoRelationshipOwners: &model.PrimaryRelationshipOwners{OwnerEmail: "primary@example.com"},
			},
			owner:      "Grace Hopper",
			wantEmail:  "notify@example.com",
			wantSource: dispatch.SourceNotificationEmail,
		},
		{
			name: "primary owner email",
			contact: model.Contact{
				PrimaryDiageoRelationshipOwners: &model.PrimaryRelationshipOwners{OwnerEmail: " primary@example.com\r\n"},
			},
			owner:      "Grace Hopper",
			wantEmail:  "primary@example.com",
			wantSource: dispatch.SourcePrimaryOwnerEmail,
		},
		{
			name: "directory before inline owner",
			contact: model.Contact{
				RelationshipOwner: &model.RelationshipOwnerRef{Name: "Grace Hopper", Email: "inline@example.com"},
			},
			owner:      "Grace Hopper",
			wantEmail:  "directory@example.com",
			wantSource: dispatch.SourceOwnerDirectory,
		},
		{
			name: "only inline owner email",
			contact: model.Contact{
				RelationshipOwner: &model.RelationshipOwnerRef{Name: "Alan Turing", Email: "alan@example.com"},
			},
			owner:      "Alan Turing",
			wantEmail:  "alan@example.com",
			wantSource: dispatch.SourceInlineOwnerEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.contact.ID = "c1"
			src := alerts.Sources{Contacts: []model.Contact{tt.contact}, Owners: directory}

			res, err := dispatch.Resolve(contactAlert("c1", tt.owner), src)

			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, res.Email)
			assert.Equal(t, tt.wantSource, res.Source)
			assert.NotEmpty(t, res.Attempts)
		})
	}
}

func TestResolve_AccountChain(t *testing.T) {
	src := alerts.Sources{
		Accounts: []model.Account{
			{ID: "a1", AccountName: "ACME", Email: "acme@example.com"},
			{ID: "a2", AccountName: "Globex", Email: "globex@example.com"},
		},
		Contacts: []model.Contact{
			{ID: "c1", AccountID: "a1", Email: "broken-address"},
			{ID: "c2", AccountID: "a1", Email: "buyer@acme.example.com"},
			{ID: "c3", AccountID: "a1", NotificationEmail: "later@acme.example.com"},
		},
		Owners: []model.RelationshipOwner{{Name: "Barbara Liskov", Email: "barbara@example.com"}},
	}

	res, err := dispatch.Resolve(accountAlert("a1", "Liskov"), src)
	require.NoError(t, err)
	assert.Equal(t, "barbara@example.com", res.Email)
	assert.Equal(t, dispatch.SourceOwnerDirectory, res.Source)

	res, err = dispatch.Resolve(accountAlert("a1", "Nobody"), src)
	require.NoError(t, err)
	assert.Equal(t, "buyer@acme.example.com", res.Email)
	assert.Equal(t, dispatch.SourceAccountContact, res.Source)

	res, err = dispatch.Resolve(accountAlert("a2", alerts.Unassigned), src)
	require.NoError(t, err)
	assert.Equal(t, "globex@example.com", res.Email)
	assert.Equal(t, dispatch.SourceAccountEmail, res.Source)
}

func TestResolve_TaskUsesContactWhenLinked(t *testing.T) {
	src := alerts.Sources{
		Contacts: []model.Contact{{ID: "c1", NotificationEmail: "ada@example.com"}},
		Accounts: []model.Account{{ID: "a1", Email: "acme@example.com"}},
	}
	a := model.Alert{ID: "task-t1", Type: model.AlertTypeTaskDue, RelatedType: model.RelatedTask, ContactID: "c1", AccountID: "a1"}

	res, err := dispatch.Resolve(a, src)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.Email)

	a.ContactID = ""
	res, err = dispatch.Resolve(a, src)
	require.NoError(t, err)
	assert.Equal(t, "acme@example.com", res.Email)
}

func TestResolve_NothingFound(t *testing.T) {
	src := alerts.Sources{Contacts: []model.Contact{{ID: "c1"}}}

	_, err := dispatch.Resolve(contactAlert("c1", alerts.Unassigned), src)

	var resErr *dispatch.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "birthday-c1", resErr.AlertID)
	require.Len(t, resErr.Attempts, 4)
	assert.Equal(t, dispatch.SourceNotificationEmail, resErr.Attempts[0].Source)
	assert.Contains(t, err.Error(), dispatch.SourceInlineOwnerEmail)
}

func TestResolve_MalformedEmail(t *testing.T) {
	src := alerts.Sources{Contacts: []model.Contact{{ID: "c1", NotificationEmail: "ada at example dot com"}}}

	res, err := dispatch.Resolve(contactAlert("c1", ""), src)

	var valErr *dispatch.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "ada at example dot com", valErr.Email)
	assert.Equal(t, dispatch.SourceNotificationEmail, valErr.Source)
	assert.Equal(t, "ada at example dot com", res.Email)
	assert.Contains(t, err.Error(), "clean up")
}

func TestMatchOwner(t *testing.T) {
	dir := []model.RelationshipOwner{
		{ID: "1", Name: "Grace Hopper"},
		{ID: "2", Name: "grace"},
		{ID: "3", Name: "Alan Mathison Turing"},
	}

	tests := []struct {
		name   string
		query  string
		wantID string
		wantOK bool
	}{
		{name: "exact", query: "grace", wantID: "2", wantOK: true},
		{name: "case-insensitive", query: "GRACE HOPPER", wantID: "1", wantOK: true},
		{name: "query inside entry", query: "Turing", wantID: "3", wantOK: true},
		{name: "entry inside query", query: "Dr. Alan Mathison Turing OBE", wantID: "3", wantOK: true},
		{name: "no match", query: "Ada", wantOK: false},
		{name: "unassigned", query: alerts.Unassigned, wantOK: false},
		{name: "blank", query: "  ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := dispatch.MatchOwner(dir, tt.query)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}

func TestSanitizeAndValidate(t *testing.T) {
	assert.Equal(t, "ada@example.com", dispatch.Sanitize("  ada@exam\tple.com\r\n"))
	assert.True(t, dispatch.ValidEmail("ada@example.com"))
	assert.False(t, dispatch.ValidEmail("ada@example"))
	assert.False(t, dispatch.ValidEmail("ada lovelace@example.com"))
	assert.False(t, dispatch.ValidEmail(""))
}
