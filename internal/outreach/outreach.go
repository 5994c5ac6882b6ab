// Package outreach sends connection requests to stored leads while
// enforcing the shared daily action budget.
package outreach

import (
	"context"
	"errors"
	"time"

	"github.com/example/prospector/internal/browser"
	"github.com/example/prospector/internal/config"
	"github.com/example/prospector/internal/logging"
	"github.com/example/prospector/internal/models"
	"github.com/example/prospector/internal/pacing"
	"github.com/example/prospector/internal/personalize"
	"github.com/example/prospector/internal/store"
)

// ErrBudgetExhausted signals that today's action count has reached the
// configured limit; the caller stops the outreach loop.
var ErrBudgetExhausted = errors.New("daily action budget exhausted")

// Outcome is the explicit result of one connect flow, instead of inferring
// success from the absence of errors.
type Outcome string

const (
	// OutcomeSent means a send control was clicked.
	OutcomeSent Outcome = "sent"
	// OutcomeAssumedSent means the connect click produced no confirmation
	// modal; some profiles use an instant-connect flow. Unverified.
	OutcomeAssumedSent Outcome = "assumed_sent"
	// OutcomeSkippedNoConnect means no actionable connect control was found
	// (already connected, pending, or hidden behind another flow).
	OutcomeSkippedNoConnect Outcome = "skipped_no_connect"
)

// profileDriver drives the profile-page UI. It is an interface so the
// budget and status logic can be exercised without a browser.
type profileDriver interface {
	Visit(ctx context.Context, url string) error
	Connect(ctx context.Context, note string) (Outcome, error)
}

type Pipeline struct {
	st      *store.Store
	drv     profileDriver
	cfg     *config.Config
	pace    pacing.Policy
	log     *logging.Logger
	message func(*models.Lead) string
}

func New(sess *browser.Session, cfg *config.Config, st *store.Store, pace pacing.Policy) *Pipeline {
	log := logging.New(cfg.Logging.Level).With("module", "outreach")
	return &Pipeline{
		st:      st,
		drv:     &rodDriver{sess: sess, pace: pace, log: log},
		cfg:     cfg,
		pace:    pace,
		log:     log,
		message: personalize.ConnectionMessage,
	}
}

// Attempt processes one lead. It reports whether an action was taken.
// Internal UI errors are logged and degrade to actionTaken=false semantics
// for the lead (it stays new for a future run); only budget exhaustion is
// surfaced as an error, so the caller can stop the loop.
func (p *Pipeline) Attempt(ctx context.Context, lead *models.Lead) (bool, error) {
	count, err := p.st.CountActionsToday(ctx)
	if err != nil {
		p.log.Warn("count actions failed", "err", err)
		return false, nil
	}
	limit, err := p.st.DailyActionLimit(ctx)
	if err != nil {
		p.log.Warn("read daily limit failed", "err", err)
		return false, nil
	}
	if count >= limit {
		p.log.Info("daily limit reached, stopping outreach", "count", count, "limit", limit)
		return false, ErrBudgetExhausted
	}

	p.log.Info("visiting profile", "url", lead.LinkedInURL)
	visitErr := p.drv.Visit(ctx, lead.LinkedInURL)
	// The visit is audited once navigation is issued, successful or not.
	if err := p.st.LogAction(ctx, models.ActionViewProfile, lead.LinkedInURL); err != nil {
		p.log.Warn("log view_profile failed", "err", err)
	}
	if visitErr != nil {
		p.log.Warn("profile navigation failed", "url", lead.LinkedInURL, "err", visitErr)
		return false, nil
	}

	p.pace.Sleep(
		time.Duration(p.cfg.Pacing.PreActionMinMs)*time.Millisecond,
		time.Duration(p.cfg.Pacing.PreActionMaxMs)*time.Millisecond,
	)

	note := p.message(lead)
	// Invite notes are capped at 280 characters, not bytes.
	if r := []rune(note); len(r) > 280 {
		note = string(r[:280])
	}

	outcome, err := p.drv.Connect(ctx, note)
	if err != nil {
		// Lead stays new and is retryable on a future run.
		p.log.Warn("connect flow failed", "url", lead.LinkedInURL, "err", err)
		return true, nil
	}

	switch outcome {
	case OutcomeSent:
		if err := p.st.UpdateStatus(ctx, lead.ID, models.StatusInvited); err != nil {
			p.log.Warn("mark invited failed", "id", lead.ID, "err", err)
			return true, nil
		}
		if err := p.st.LogAction(ctx, models.ActionSendInvite, lead.LinkedInURL); err != nil {
			p.log.Warn("log send_invite failed", "err", err)
		}
		p.log.Info("connection request sent", "url", lead.LinkedInURL)
	case OutcomeAssumedSent:
		if err := p.st.UpdateStatus(ctx, lead.ID, models.StatusInvited); err != nil {
			p.log.Warn("mark invited failed", "id", lead.ID, "err", err)
		}
		p.log.Info("no modal appeared, assuming instant connect", "url", lead.LinkedInURL)
	case OutcomeSkippedNoConnect:
		// Mark ignored so the lead is not retried forever against a
		// profile with no reachable connect control.
		if err := p.st.UpdateStatus(ctx, lead.ID, models.StatusIgnored); err != nil {
			p.log.Warn("mark ignored failed", "id", lead.ID, "err", err)
		}
		p.log.Info("connect button not found, lead ignored", "url", lead.LinkedInURL)
	}
	return true, nil
}
