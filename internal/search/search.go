// Package search runs the bounded search/extraction pass: it pages through
// people-search results, snapshots each page, feeds the markup to the
// extraction engine and stores new leads.
package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/example/prospector/internal/browser"
	"github.com/example/prospector/internal/config"
	"github.com/example/prospector/internal/extract"
	"github.com/example/prospector/internal/logging"
	"github.com/example/prospector/internal/models"
	"github.com/example/prospector/internal/pacing"
	"github.com/example/prospector/internal/store"
)

// resultsWait bounds how long one page may take to show either result cards
// or the no-results message before the pass gives up on pagination.
const resultsWait = 30 * time.Second

type Service struct {
	sess *browser.Session
	cfg  *config.Config
	st   *store.Store
	pace pacing.Policy
	log  *logging.Logger
}

func New(sess *browser.Session, cfg *config.Config, st *store.Store, pace pacing.Policy) *Service {
	return &Service{
		sess: sess,
		cfg:  cfg,
		st:   st,
		pace: pace,
		log:  logging.New(cfg.Logging.Level).With("module", "search"),
	}
}

// Collect scrapes up to maxPages of people-search results for the keyword
// and stores the extracted leads. Returns the number of leads newly stored.
// A page-level extraction timeout stops pagination but keeps what was
// already collected; diagnostics are persisted for offline debugging.
func (s *Service) Collect(ctx context.Context, keyword string, maxPages int) (int, error) {
	if maxPages <= 0 {
		maxPages = 1
	}
	stored := 0
	for i := 1; i <= maxPages; i++ {
		pageURL := fmt.Sprintf("%ssearch/results/people/?keywords=%s&page=%d",
			s.cfg.LinkedIn.BaseURL, url.QueryEscape(keyword), i)
		s.log.Info("scraping page", "page", i, "url", pageURL)

		if err := s.sess.Navigate(pageURL); err != nil {
			s.log.Warn("navigation failed, stopping pagination", "page", i, "err", err)
			break
		}

		doc, ok := s.waitForResults(ctx)
		if !ok {
			s.log.Warn("timeout waiting for results, saving diagnostics", "page", i)
			s.sess.DumpDiagnostics(s.cfg.Diagnostics.Dir, "debug_error")
			break
		}
		if extract.NoResults(doc) {
			s.log.Info("no matching results for this query")
			break
		}

		// Scroll to trigger lazy loading, then re-snapshot.
		s.sess.ScrollToBottom()
		if d, err := s.snapshot(); err == nil {
			doc = d
		}

		candidates := extract.Extract(doc)
		s.log.Info("profiles found", "page", i, "count", len(candidates))

		for _, c := range candidates {
			first, last := models.SplitName(c.FullName)
			lead := &models.Lead{
				LinkedInURL: c.URL,
				FirstName:   first,
				LastName:    last,
				FullName:    c.FullName,
				JobTitle:    c.JobTitle,
				Location:    c.Location,
			}
			inserted, err := s.st.InsertLeadIfAbsent(ctx, lead)
			if err != nil {
				s.log.Warn("failed to store lead", "url", c.URL, "err", err)
				continue
			}
			if inserted {
				stored++
			}
		}

		if i < maxPages {
			s.pace.Sleep(5*time.Second, 10*time.Second)
		}
	}
	s.log.Info("search pass finished", "new_leads", stored)
	return stored, nil
}

// waitForResults polls the page until result cards or the no-results marker
// appear. After the bound expires it re-checks once more in case the results
// raced the timeout.
func (s *Service) waitForResults(ctx context.Context) (*goquery.Document, bool) {
	deadline := time.Now().Add(resultsWait)
	for time.Now().Before(deadline) {
		doc, err := s.snapshot()
		if err == nil && (extract.HasCards(doc) || extract.NoResults(doc)) {
			return doc, true
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(1 * time.Second):
		}
	}
	doc, err := s.snapshot()
	if err == nil && (extract.HasCards(doc) || extract.NoResults(doc)) {
		s.log.Info("results appeared just after timeout, proceeding")
		return doc, true
	}
	return nil, false
}

func (s *Service) snapshot() (*goquery.Document, error) {
	html, err := s.sess.HTML()
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
