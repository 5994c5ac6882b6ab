// Package workflow sequences one full prospecting run: session start,
// authentication, a bounded search/extraction pass, then rate-governed
// outreach over the freshly collected leads.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/prospector/internal/auth"
	"github.com/example/prospector/internal/browser"
	"github.com/example/prospector/internal/config"
	"github.com/example/prospector/internal/logging"
	"github.com/example/prospector/internal/models"
	"github.com/example/prospector/internal/outreach"
	"github.com/example/prospector/internal/pacing"
	"github.com/example/prospector/internal/search"
	"github.com/example/prospector/internal/store"
)

type Orchestrator struct {
	cfg  *config.Config
	st   *store.Store
	pace pacing.Policy
	log  *logging.Logger
}

func New(cfg *config.Config, st *store.Store) *Orchestrator {
	return &Orchestrator{
		cfg:  cfg,
		st:   st,
		pace: pacing.Human(),
		log:  logging.New(cfg.Logging.Level).With("module", "workflow"),
	}
}

// Run executes one daily routine. The session is always closed on exit,
// whichever stage failed. Only authentication failure aborts the run;
// search and outreach degrade locally.
func (o *Orchestrator) Run(ctx context.Context, keyword string, creds auth.Credentials) error {
	o.log.Info("starting daily routine", "keyword", keyword)

	sess, err := browser.Open(o.cfg, o.pace)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.Close()

	if err := auth.New(sess, o.cfg).Login(ctx, creds); err != nil {
		return err
	}

	if _, err := search.New(sess, o.cfg, o.st, o.pace).Collect(ctx, keyword, o.cfg.Search.MaxPages); err != nil {
		o.log.Warn("search pass failed", "err", err)
	}

	leads, err := o.st.ListLeadsByStatus(ctx, models.StatusNew, o.cfg.Limits.MaxLeadsPerRun)
	if err != nil {
		return fmt.Errorf("list new leads: %w", err)
	}
	o.log.Info("new leads to process", "count", len(leads))

	actions, err := o.outreachLoop(ctx, outreach.New(sess, o.cfg, o.st, o.pace), leads)
	if err != nil {
		return err
	}

	o.log.Info("daily routine finished", "actions", actions)
	return nil
}

// attempter is what the loop needs from the outreach pipeline.
type attempter interface {
	Attempt(ctx context.Context, lead *models.Lead) (bool, error)
}

func (o *Orchestrator) outreachLoop(ctx context.Context, pipe attempter, leads []models.Lead) (int, error) {
	actions := 0
	for i := range leads {
		taken, err := pipe.Attempt(ctx, &leads[i])
		if errors.Is(err, outreach.ErrBudgetExhausted) {
			break
		}
		if taken {
			actions++
		}
		if ctx.Err() != nil {
			return actions, ctx.Err()
		}
		// Long randomized gap between leads to avoid bursty behavior.
		if i < len(leads)-1 {
			o.pace.Sleep(
				time.Duration(o.cfg.Pacing.LeadDelayMinMs)*time.Millisecond,
				time.Duration(o.cfg.Pacing.LeadDelayMaxMs)*time.Millisecond,
			)
		}
	}
	return actions, nil
}
