// Package importer loads a CRM export into the snapshot store.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/crm-alerts/internal/alerts"
	"github.com/nhle/crm-alerts/internal/logger"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/store"
)

// Bundle is the JSON export shape. AlertSettings is optional.
type Bundle struct {
	Accounts           []model.Account           `json:"accounts"`
	Contacts           []model.Contact           `json:"contacts"`
	Tasks              []model.Task              `json:"tasks"`
	RelationshipOwners []model.RelationshipOwner `json:"relationshipOwners"`
	AlertSettings      *model.AlertSettings      `json:"alertSettings,omitempty"`
}

// Summary counts what an import wrote.
type Summary struct {
	Accounts    int
	Contacts    int
	Tasks       int
	Owners      int
	AssignedIDs int
	Settings    bool
}

func (s Summary) String() string {
	out := fmt.Sprintf("%d accounts, %d contacts, %d tasks, %d relationship owners",
		s.Accounts, s.Contacts, s.Tasks, s.Owners)
	if s.AssignedIDs > 0 {
		out += fmt.Sprintf(" (%d ids assigned)", s.AssignedIDs)
	}
	if s.Settings {
		out += ", alert settings"
	}
	return out
}

// Decode reads a Bundle from r. Unknown fields are ignored.
func Decode(r io.Reader) (Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return Bundle{}, fmt.Errorf("decoding import: %w", err)
	}
	return b, nil
}

// AssignIDs gives every record, banner and event without an id a new
// UUID. It returns how many ids were assigned.
func (b *Bundle) AssignIDs() int {
	n := 0
	fill := func(id *string) {
		if strings.TrimSpace(*id) == "" {
			*id = uuid.NewString()
			n++
		}
	}
	fillEvents := func(evs []model.CustomEvent) {
		for i := range evs {
			fill(&evs[i].ID)
		}
	}

	for i := range b.Accounts {
		acct := &b.Accounts[i]
		fill(&acct.ID)
		fillEvents(acct.Events)
		for j := range acct.Banners {
			fill(&acct.Banners[j].ID)
			fillEvents(acct.Banners[j].Events)
		}
	}
	for i := range b.Contacts {
		fill(&b.Contacts[i].ID)
		fillEvents(b.Contacts[i].Events)
	}
	for i := range b.Tasks {
		fill(&b.Tasks[i].ID)
	}
	for i := range b.RelationshipOwners {
		fill(&b.RelationshipOwners[i].ID)
	}
	return n
}

// Apply assigns missing ids and replaces the stored collections with the
// bundle's. Collections absent from the bundle are left untouched.
func (b *Bundle) Apply(ctx context.Context, st store.Store) (Summary, error) {
	if b.AlertSettings != nil {
		if err := alerts.ValidateSettings(*b.AlertSettings); err != nil {
			return Summary{}, fmt.Errorf("import alert settings: %w", err)
		}
	}

	sum := Summary{
		Accounts:    len(b.Accounts),
		Contacts:    len(b.Contacts),
		Tasks:       len(b.Tasks),
		Owners:      len(b.RelationshipOwners),
		AssignedIDs: b.AssignIDs(),
	}

	writes := []struct {
		key   string
		value any
		set   bool
	}{
		{store.KeyAccounts, b.Accounts, b.Accounts != nil},
		{store.KeyContacts, b.Contacts, b.Contacts != nil},
		{store.KeyTasks, b.Tasks, b.Tasks != nil},
		{store.KeyRelationshipOwners, b.RelationshipOwners, b.RelationshipOwners != nil},
	}
	for _, w := range writes {
		if !w.set {
			continue
		}
		if err := store.Save(ctx, st, w.key, w.value); err != nil {
			return Summary{}, fmt.Errorf("importing %s: %w", w.key, err)
		}
	}

	if b.AlertSettings != nil {
		if err := store.Save(ctx, st, store.KeyAlertSettings, *b.AlertSettings); err != nil {
			return Summary{}, fmt.Errorf("importing alert settings: %w", err)
		}
		sum.Settings = true
	}

	logger.FromContext(ctx).Info("import applied",
		slog.Int("accounts", sum.Accounts),
		slog.Int("contacts", sum.Contacts),
		slog.Int("tasks", sum.Tasks),
		slog.Int("owners", sum.Owners),
		slog.Int("assigned_ids", sum.AssignedIDs),
	)
	return sum, nil
}
