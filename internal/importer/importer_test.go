package importer_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-alerts/internal/importer"
	"github.com/nhle/crm-alerts/internal/logger"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/store"
	"github.com/nhle/crm-alerts/tests/testutil"
)

const export = `{
  "accounts": [
    {"id": "a1", "accountName": "Acme", "isJBP": true, "nextJBPDate": "2024-07-01", "nextJBPAlert": true,
     "banners": [{"name": "Acme West", "events": [{"title": "Reset", "date": "2024-06-20", "alertEnabled": true}]}]}
  ],
  "contacts": [{"firstName": "Ada", "birthday": "06/12", "birthdayAlert": true}],
  "tasks": [{"id": "t1", "title": "Quote", "status": "pending", "priority": "high"}],
  "relationshipOwners": [{"name": "Grace Hopper", "email": "grace@example.com"}],
  "somethingElse": 42
}`

func TestDecodeAndApply(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	b, err := importer.Decode(strings.NewReader(export))
	require.NoError(t, err)

	sum, err := b.Apply(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, importer.Summary{Accounts: 1, Contacts: 1, Tasks: 1, Owners: 1, AssignedIDs: 4}, sum)

	accounts, err := store.Load(ctx, s, store.KeyAccounts, []model.Account{})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "a1", accounts[0].ID)
	require.Len(t, accounts[0].Banners, 1)
	_, err = uuid.Parse(accounts[0].Banners[0].ID)
	assert.NoError(t, err)
	assert.NotEmpty(t, accounts[0].Banners[0].Events[0].ID)

	contacts, err := store.Load(ctx, s, store.KeyContacts, []model.Contact{})
	require.NoError(t, err)
	_, err = uuid.Parse(contacts[0].ID)
	assert.NoError(t, err)

	tasks, err := store.Load(ctx, s, store.KeyTasks, []model.Task{})
	require.NoError(t, err)
	assert.Equal(t, "t1", tasks[0].ID)

	_, err = s.Get(ctx, store.KeyAlertSettings)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApply_LeavesMissingCollections(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	testutil.Seed(t, s, store.KeyTasks, []model.Task{{ID: "keep"}})

	b, err := importer.Decode(strings.NewReader(`{"contacts": [{"id": "c1"}]}`))
	require.NoError(t, err)
	_, err = b.Apply(ctx, s)
	require.NoError(t, err)

	tasks, err := store.Load(ctx, s, store.KeyTasks, []model.Task{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "keep", tasks[0].ID)
}

func TestApply_Settings(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	b, err := importer.Decode(strings.NewReader(
		`{"alertSettings": {"birthdayAlertOptions": ["same_day"], "reminderFrequency": "weekly"}}`))
	require.NoError(t, err)

	sum, err := b.Apply(ctx, s)
	require.NoError(t, err)
	assert.True(t, sum.Settings)

	got, err := store.Load(ctx, s, store.KeyAlertSettings, model.AlertSettings{})
	require.NoError(t, err)
	assert.Equal(t, []model.LeadOption{model.LeadSameDay}, got.BirthdayAlertOptions)
	assert.Equal(t, model.FrequencyWeekly, got.ReminderFrequency)
}

func TestApply_RejectsBadSettings(t *testing.T) {
	s := testutil.NewTestStore(t)

	b, err := importer.Decode(strings.NewReader(
		`{"contacts": [], "alertSettings": {"reminderFrequency": "hourly"}}`))
	require.NoError(t, err)

	_, err = b.Apply(context.Background(), s)
	require.Error(t, err)

	_, err = s.Get(context.Background(), store.KeyContacts)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := importer.Decode(strings.NewReader(`{"contacts": [`))
	assert.Error(t, err)
}

func TestApply_LogsThroughContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.New(&buf, "info", "text"))

	b, err := importer.Decode(strings.NewReader(`{"tasks": [{"id": "t1"}]}`))
	require.NoError(t, err)
	_, err = b.Apply(ctx, testutil.NewTestStore(t))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "import applied")
	assert.Contains(t, buf.String(), "tasks=1")
}
