package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/prospector/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(st.Close)
	require.NoError(t, st.Migrate(context.Background(), 50))
	return st
}

func TestInsertLeadIfAbsentIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	lead := &models.Lead{
		LinkedInURL: "https://www.linkedin.com/in/jane-public",
		FirstName:   "Jane",
		LastName:    "Public",
		FullName:    "Jane Public",
		JobTitle:    "Senior Engineer",
	}
	inserted, err := st.InsertLeadIfAbsent(ctx, lead)
	require.NoError(t, err)
	assert.True(t, inserted)

	// second insert is a silent no-op, not an error and not an overwrite
	dup := &models.Lead{LinkedInURL: lead.LinkedInURL, FullName: "Someone Else"}
	inserted, err = st.InsertLeadIfAbsent(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := st.GetLeadByURL(ctx, lead.LinkedInURL)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Jane Public", got.FullName)
	assert.Equal(t, models.StatusNew, got.Status)

	total, err := st.CountLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestGetLeadByURLMissing(t *testing.T) {
	st := newTestStore(t)
	got, err := st.GetLeadByURL(context.Background(), "https://www.linkedin.com/in/nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.InsertLeadIfAbsent(ctx, &models.Lead{LinkedInURL: "https://www.linkedin.com/in/a"})
	require.NoError(t, err)
	lead, err := st.GetLeadByURL(ctx, "https://www.linkedin.com/in/a")
	require.NoError(t, err)

	require.NoError(t, st.UpdateStatus(ctx, lead.ID, models.StatusInvited))

	// no transition ever returns a lead to new
	err = st.UpdateStatus(ctx, lead.ID, models.StatusNew)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = st.UpdateStatus(ctx, lead.ID, models.StatusIgnored)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, st.UpdateStatus(ctx, lead.ID, models.StatusConnected))

	got, err := st.GetLeadByURL(ctx, "https://www.linkedin.com/in/a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConnected, got.Status)
}

func TestActionLogAndDailyCount(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	n, err := st.CountActionsToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, st.LogAction(ctx, models.ActionViewProfile, "https://www.linkedin.com/in/a"))
	require.NoError(t, st.LogAction(ctx, models.ActionSendInvite, "https://www.linkedin.com/in/a"))

	n, err = st.CountActionsToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recent, err := st.RecentActions(ctx, 20)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.ActionSendInvite, recent[0].Type)
	assert.False(t, recent[0].Timestamp.IsZero())
}

func TestDailyActionLimitSeededOnce(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	limit, err := st.DailyActionLimit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, limit)

	// re-migrating with a different default must not clobber the stored value
	require.NoError(t, st.Migrate(ctx, 10))
	limit, err = st.DailyActionLimit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, limit)
}

func TestCountLeadsByStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, u := range []string{"https://www.linkedin.com/in/a", "https://www.linkedin.com/in/b"} {
		_, err := st.InsertLeadIfAbsent(ctx, &models.Lead{LinkedInURL: u})
		require.NoError(t, err)
	}
	lead, err := st.GetLeadByURL(ctx, "https://www.linkedin.com/in/a")
	require.NoError(t, err)
	require.NoError(t, st.UpdateStatus(ctx, lead.ID, models.StatusInvited))

	invited, err := st.CountLeadsByStatus(ctx, models.StatusInvited)
	require.NoError(t, err)
	assert.Equal(t, 1, invited)

	fresh, err := st.ListLeadsByStatus(ctx, models.StatusNew, 50)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "https://www.linkedin.com/in/b", fresh[0].LinkedInURL)
}
