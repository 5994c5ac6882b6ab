// Package followup closes the loop on sent invites: it detects leads that
// accepted and sends each newly connected lead one follow-up message.
package followup

import (
	"context"
	"time"

	"github.com/example/prospector/internal/browser"
	"github.com/example/prospector/internal/config"
	"github.com/example/prospector/internal/logging"
	"github.com/example/prospector/internal/models"
	"github.com/example/prospector/internal/outreach"
	"github.com/example/prospector/internal/pacing"
	"github.com/example/prospector/internal/personalize"
	"github.com/example/prospector/internal/store"
)

// messageDriver drives the profile messaging UI. An interface so the
// acceptance and budget logic can run without a browser.
type messageDriver interface {
	Visit(ctx context.Context, url string) error
	// CanMessage reports whether the profile shows a Message control,
	// which is how an accepted connection presents itself.
	CanMessage(ctx context.Context) (bool, error)
	SendMessage(ctx context.Context, text string) error
}

type Service struct {
	st      *store.Store
	drv     messageDriver
	cfg     *config.Config
	pace    pacing.Policy
	log     *logging.Logger
	compose func(*models.Lead, int) string
}

func New(sess *browser.Session, cfg *config.Config, st *store.Store, pace pacing.Policy) *Service {
	log := logging.New(cfg.Logging.Level).With("module", "followup")
	return &Service{
		st:      st,
		drv:     &rodDriver{sess: sess, pace: pace, log: log},
		cfg:     cfg,
		pace:    pace,
		log:     log,
		compose: personalize.FollowUp,
	}
}

// DetectAcceptances walks invited leads and promotes the ones whose
// profile now shows a Message control. Per-lead failures are logged and
// skipped.
func (s *Service) DetectAcceptances(ctx context.Context, limit int) (int, error) {
	leads, err := s.st.ListLeadsByStatus(ctx, models.StatusInvited, limit)
	if err != nil {
		return 0, err
	}
	s.log.Info("checking for accepted invites", "count", len(leads))
	accepted := 0
	for i := range leads {
		lead := &leads[i]
		if err := ctx.Err(); err != nil {
			return accepted, err
		}
		if err := s.drv.Visit(ctx, lead.LinkedInURL); err != nil {
			s.log.Warn("profile navigation failed", "url", lead.LinkedInURL, "err", err)
			continue
		}
		ok, err := s.drv.CanMessage(ctx)
		if err != nil {
			s.log.Warn("acceptance check failed", "url", lead.LinkedInURL, "err", err)
			continue
		}
		if !ok {
			continue
		}
		if err := s.st.UpdateStatus(ctx, lead.ID, models.StatusConnected); err != nil {
			s.log.Warn("mark connected failed", "id", lead.ID, "err", err)
			continue
		}
		s.log.Info("invite accepted", "url", lead.LinkedInURL)
		accepted++
		s.pace.Sleep(300*time.Millisecond, 900*time.Millisecond)
	}
	return accepted, nil
}

// SendFollowUps messages connected leads that have not been messaged yet.
// Each sent message consumes one unit of the shared daily action budget.
func (s *Service) SendFollowUps(ctx context.Context, limit int) (int, error) {
	leads, err := s.st.ListLeadsByStatus(ctx, models.StatusConnected, limit)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range leads {
		lead := &leads[i]
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		count, err := s.st.CountActionsToday(ctx)
		if err != nil {
			return sent, err
		}
		budget, err := s.st.DailyActionLimit(ctx)
		if err != nil {
			return sent, err
		}
		if count >= budget {
			s.log.Info("daily limit reached, stopping follow-ups", "count", count, "limit", budget)
			return sent, outreach.ErrBudgetExhausted
		}

		done, err := s.st.HasAction(ctx, models.ActionSendMessage, lead.LinkedInURL)
		if err != nil {
			return sent, err
		}
		if done {
			continue
		}

		if err := s.messageOne(ctx, lead); err != nil {
			s.log.Warn("follow-up failed", "url", lead.LinkedInURL, "err", err)
			continue
		}
		sent++
		s.pace.Sleep(
			time.Duration(s.cfg.Pacing.PreActionMinMs)*time.Millisecond,
			time.Duration(s.cfg.Pacing.PreActionMaxMs)*time.Millisecond,
		)
	}
	return sent, nil
}

func (s *Service) messageOne(ctx context.Context, lead *models.Lead) error {
	if err := s.drv.Visit(ctx, lead.LinkedInURL); err != nil {
		return err
	}
	if err := s.drv.SendMessage(ctx, s.compose(lead, 1)); err != nil {
		return err
	}
	if err := s.st.LogAction(ctx, models.ActionSendMessage, lead.LinkedInURL); err != nil {
		s.log.Warn("log send_message failed", "err", err)
	}
	s.log.Info("follow-up sent", "url", lead.LinkedInURL)
	return nil
}
