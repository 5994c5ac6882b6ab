package outreach

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/prospector/internal/config"
	"github.com/example/prospector/internal/logging"
	"github.com/example/prospector/internal/models"
	"github.com/example/prospector/internal/pacing"
	"github.com/example/prospector/internal/personalize"
	"github.com/example/prospector/internal/store"
)

type fakeDriver struct {
	visits   []string
	notes    []string
	visitErr error
	outcome  Outcome
	connErr  error
}

func (f *fakeDriver) Visit(ctx context.Context, url string) error {
	f.visits = append(f.visits, url)
	return f.visitErr
}

func (f *fakeDriver) Connect(ctx context.Context, note string) (Outcome, error) {
	f.notes = append(f.notes, note)
	return f.outcome, f.connErr
}

func newTestPipeline(t *testing.T, limit int, drv *fakeDriver) (*Pipeline, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(st.Close)
	require.NoError(t, st.Migrate(context.Background(), limit))

	var cfg config.Config
	cfg.Logging.Level = "error"
	return &Pipeline{
		st:      st,
		drv:     drv,
		cfg:     &cfg,
		pace:    pacing.None(),
		log:     logging.New("error"),
		message: personalize.ConnectionMessage,
	}, st
}

func seedLead(t *testing.T, st *store.Store, url string) *models.Lead {
	t.Helper()
	ctx := context.Background()
	_, err := st.InsertLeadIfAbsent(ctx, &models.Lead{LinkedInURL: url, FirstName: "Jane", FullName: "Jane Public"})
	require.NoError(t, err)
	lead, err := st.GetLeadByURL(ctx, url)
	require.NoError(t, err)
	return lead
}

func TestAttemptBudgetExhausted(t *testing.T) {
	drv := &fakeDriver{outcome: OutcomeSent}
	p, st := newTestPipeline(t, 2, drv)
	ctx := context.Background()
	lead := seedLead(t, st, "https://www.linkedin.com/in/jane")

	require.NoError(t, st.LogAction(ctx, models.ActionViewProfile, lead.LinkedInURL))
	require.NoError(t, st.LogAction(ctx, models.ActionSendInvite, lead.LinkedInURL))

	taken, err := p.Attempt(ctx, lead)
	assert.False(t, taken)
	assert.ErrorIs(t, err, ErrBudgetExhausted)

	// zero action-producing steps: no visit, no extra log, status unchanged
	assert.Empty(t, drv.visits)
	n, err := st.CountActionsToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	got, err := st.GetLeadByURL(ctx, lead.LinkedInURL)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, got.Status)
}

func TestAttemptSent(t *testing.T) {
	drv := &fakeDriver{outcome: OutcomeSent}
	p, st := newTestPipeline(t, 50, drv)
	ctx := context.Background()
	lead := seedLead(t, st, "https://www.linkedin.com/in/jane")

	taken, err := p.Attempt(ctx, lead)
	require.NoError(t, err)
	assert.True(t, taken)

	got, err := st.GetLeadByURL(ctx, lead.LinkedInURL)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInvited, got.Status)

	recent, err := st.RecentActions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.ActionSendInvite, recent[0].Type)
	assert.Equal(t, models.ActionViewProfile, recent[1].Type)
}

func TestAttemptAssumedSentMarksInvitedWithoutInviteLog(t *testing.T) {
	drv := &fakeDriver{outcome: OutcomeAssumedSent}
	p, st := newTestPipeline(t, 50, drv)
	ctx := context.Background()
	lead := seedLead(t, st, "https://www.linkedin.com/in/jane")

	taken, err := p.Attempt(ctx, lead)
	require.NoError(t, err)
	assert.True(t, taken)

	got, err := st.GetLeadByURL(ctx, lead.LinkedInURL)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInvited, got.Status)

	recent, err := st.RecentActions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, models.ActionViewProfile, recent[0].Type)
}

func TestAttemptNoConnectButtonMarksIgnored(t *testing.T) {
	drv := &fakeDriver{outcome: OutcomeSkippedNoConnect}
	p, st := newTestPipeline(t, 50, drv)
	ctx := context.Background()
	lead := seedLead(t, st, "https://www.linkedin.com/in/jane")

	taken, err := p.Attempt(ctx, lead)
	require.NoError(t, err)
	assert.True(t, taken)

	got, err := st.GetLeadByURL(ctx, lead.LinkedInURL)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIgnored, got.Status)
}

func TestAttemptConnectErrorLeavesLeadNew(t *testing.T) {
	drv := &fakeDriver{connErr: errors.New("send button not found in modal")}
	p, st := newTestPipeline(t, 50, drv)
	ctx := context.Background()
	lead := seedLead(t, st, "https://www.linkedin.com/in/jane")

	taken, err := p.Attempt(ctx, lead)
	require.NoError(t, err) // errors never propagate past the boundary
	assert.True(t, taken)

	got, err := st.GetLeadByURL(ctx, lead.LinkedInURL)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, got.Status) // retryable on a future run
}

func TestAttemptVisitErrorStillAuditsView(t *testing.T) {
	drv := &fakeDriver{visitErr: errors.New("net::ERR_TIMED_OUT")}
	p, st := newTestPipeline(t, 50, drv)
	ctx := context.Background()
	lead := seedLead(t, st, "https://www.linkedin.com/in/jane")

	taken, err := p.Attempt(ctx, lead)
	require.NoError(t, err)
	assert.False(t, taken)
	assert.Empty(t, drv.notes)

	// view_profile is recorded once navigation was issued
	n, err := st.CountActionsToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAttemptTruncatesNote(t *testing.T) {
	drv := &fakeDriver{outcome: OutcomeSent}
	p, st := newTestPipeline(t, 50, drv)
	p.message = func(*models.Lead) string { return strings.Repeat("x", 400) }
	lead := seedLead(t, st, "https://www.linkedin.com/in/jane")

	_, err := p.Attempt(context.Background(), lead)
	require.NoError(t, err)
	require.Len(t, drv.notes, 1)
	assert.Len(t, drv.notes[0], 280)
}

func TestAttemptTruncatesNoteOnRuneBoundary(t *testing.T) {
	drv := &fakeDriver{outcome: OutcomeSent}
	p, st := newTestPipeline(t, 50, drv)
	p.message = func(*models.Lead) string { return strings.Repeat("é", 300) }
	lead := seedLead(t, st, "https://www.linkedin.com/in/jane")

	_, err := p.Attempt(context.Background(), lead)
	require.NoError(t, err)
	require.Len(t, drv.notes, 1)
	assert.True(t, utf8.ValidString(drv.notes[0]))
	assert.Equal(t, 280, utf8.RuneCountInString(drv.notes[0]))
}
