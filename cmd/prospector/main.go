package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/example/prospector/internal/auth"
	"github.com/example/prospector/internal/browser"
	"github.com/example/prospector/internal/config"
	"github.com/example/prospector/internal/followup"
	"github.com/example/prospector/internal/logging"
	"github.com/example/prospector/internal/models"
	"github.com/example/prospector/internal/outreach"
	"github.com/example/prospector/internal/pacing"
	"github.com/example/prospector/internal/search"
	"github.com/example/prospector/internal/server"
	"github.com/example/prospector/internal/store"
	"github.com/example/prospector/internal/workflow"
)

func main() {
	ctx := context.Background()

	// Global flags
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to config file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `prospector - LinkedIn prospecting CLI

Usage:
  prospector [--config config.yaml] <command> [options]

Commands:
  login                      Log in and persist the browser session
  search [--keywords K --pages N]
                             Search people and store new leads
  outreach [--limit N]       Visit new leads and send connection invites
  followup [--limit N]       Detect accepted invites and send follow-up messages
  run [--keywords K]         Full routine: login, search, outreach
  serve                      Start the dashboard API server

Credentials are read from LINKEDIN_EMAIL and LINKEDIN_PASSWORD
(a .env file next to the binary is also loaded).

Examples:
  prospector --config config.yaml login
  prospector search --keywords "startup founder" --pages 3
  prospector run --keywords "cto fintech"
`)
	}

	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Logging.Level)
	log.Info("prospector starting", "version", "0.1.0")
	log.Info("config loaded", "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Error("db open failed", "err", err)
		os.Exit(1)
	}
	defer st.Close()
	if err := st.Migrate(ctx, cfg.Limits.DailyActions); err != nil {
		log.Error("db migration failed", "err", err)
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	log.Info("executing command", "command", cmd)
	switch cmd {
	case "login":
		err = runLogin(ctx, cfg)
	case "search":
		err = runSearch(ctx, cfg, st)
	case "outreach":
		err = runOutreach(ctx, cfg, st)
	case "followup":
		err = runFollowUp(ctx, cfg, st)
	case "run":
		err = runAll(ctx, cfg, st)
	case "serve":
		err = runServe(cfg, st)
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		log.Error("command failed", "cmd", cmd, "err", err)
		fmt.Fprintf(os.Stderr, "\n❌ Command failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "💡 Tip: Run with PROSPECTOR_LOG_LEVEL=debug for more details\n")
		os.Exit(1)
	}
	log.Info("command completed successfully", "cmd", cmd)
	fmt.Printf("\n✅ %s completed successfully\n", cmd)
}

func runLogin(ctx context.Context, cfg *config.Config) error {
	creds, err := auth.CredentialsFromEnv()
	if err != nil {
		return err
	}
	pace := pacing.Human()
	sess, err := browser.Open(cfg, pace)
	if err != nil {
		return err
	}
	defer sess.Close()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	return auth.New(sess, cfg).Login(ctx, creds)
}

func runSearch(ctx context.Context, cfg *config.Config, st *store.Store) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	var keywords string
	var pages int
	fs.StringVar(&keywords, "keywords", cfg.Search.Keyword, "Search keywords")
	fs.IntVar(&pages, "pages", cfg.Search.MaxPages, "Max result pages to walk")
	if err := fs.Parse(flag.Args()[1:]); err != nil {
		return err
	}
	if keywords == "" {
		return errors.New("search keywords are required (flag or config)")
	}

	creds, err := auth.CredentialsFromEnv()
	if err != nil {
		return err
	}
	pace := pacing.Human()
	sess, err := browser.Open(cfg, pace)
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := auth.New(sess, cfg).Login(ctx, creds); err != nil {
		return err
	}

	newCount, err := search.New(sess, cfg, st, pace).Collect(ctx, keywords, pages)
	if err != nil {
		return err
	}
	logging.New(cfg.Logging.Level).Info("search complete", "new_leads", newCount)
	return nil
}

func runOutreach(ctx context.Context, cfg *config.Config, st *store.Store) error {
	fs := flag.NewFlagSet("outreach", flag.ContinueOnError)
	var limit int
	fs.IntVar(&limit, "limit", cfg.Limits.MaxLeadsPerRun, "Max leads to process in this run")
	if err := fs.Parse(flag.Args()[1:]); err != nil {
		return err
	}

	creds, err := auth.CredentialsFromEnv()
	if err != nil {
		return err
	}
	pace := pacing.Human()
	sess, err := browser.Open(cfg, pace)
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := auth.New(sess, cfg).Login(ctx, creds); err != nil {
		return err
	}

	leads, err := st.ListLeadsByStatus(ctx, models.StatusNew, limit)
	if err != nil {
		return err
	}
	pipe := outreach.New(sess, cfg, st, pace)
	sent := 0
	for i := range leads {
		taken, err := pipe.Attempt(ctx, &leads[i])
		if errors.Is(err, outreach.ErrBudgetExhausted) {
			break
		}
		if taken {
			sent++
		}
		if i < len(leads)-1 {
			pace.Sleep(
				time.Duration(cfg.Pacing.LeadDelayMinMs)*time.Millisecond,
				time.Duration(cfg.Pacing.LeadDelayMaxMs)*time.Millisecond,
			)
		}
	}
	logging.New(cfg.Logging.Level).Info("outreach complete", "processed", sent)
	return nil
}

func runFollowUp(ctx context.Context, cfg *config.Config, st *store.Store) error {
	fs := flag.NewFlagSet("followup", flag.ContinueOnError)
	var limit int
	fs.IntVar(&limit, "limit", cfg.Limits.MaxLeadsPerRun, "Max leads to process in this run")
	if err := fs.Parse(flag.Args()[1:]); err != nil {
		return err
	}

	creds, err := auth.CredentialsFromEnv()
	if err != nil {
		return err
	}
	pace := pacing.Human()
	sess, err := browser.Open(cfg, pace)
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := auth.New(sess, cfg).Login(ctx, creds); err != nil {
		return err
	}

	svc := followup.New(sess, cfg, st, pace)
	accepted, err := svc.DetectAcceptances(ctx, limit)
	if err != nil {
		return err
	}
	sent, err := svc.SendFollowUps(ctx, limit)
	if err != nil && !errors.Is(err, outreach.ErrBudgetExhausted) {
		return err
	}
	logging.New(cfg.Logging.Level).Info("follow-up complete", "accepted", accepted, "messages_sent", sent)
	return nil
}

func runAll(ctx context.Context, cfg *config.Config, st *store.Store) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var keywords string
	fs.StringVar(&keywords, "keywords", cfg.Search.Keyword, "Search keywords")
	if err := fs.Parse(flag.Args()[1:]); err != nil {
		return err
	}
	if keywords == "" {
		return errors.New("search keywords are required (flag or config)")
	}
	creds, err := auth.CredentialsFromEnv()
	if err != nil {
		return err
	}
	return workflow.New(cfg, st).Run(ctx, keywords, creds)
}

func runServe(cfg *config.Config, st *store.Store) error {
	orc := workflow.New(cfg, st)
	return server.New(cfg, st, orc.Run).ListenAndServe()
}
