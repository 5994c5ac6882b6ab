// Package browser owns the single authenticated browser session and tab.
// Navigation, human-paced typing and script evaluation all go through the
// Session so nothing else holds ambient browser state.
package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/example/prospector/internal/config"
	"github.com/example/prospector/internal/logging"
	"github.com/example/prospector/internal/pacing"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Session struct {
	browser *rod.Browser
	page    *rod.Page
	pace    pacing.Policy
	log     *logging.Logger
}

// Open launches the browser and prepares the single tab. The user data dir
// persists cookies across runs so an earlier login can be reused.
func Open(cfg *config.Config, pace pacing.Policy) (*Session, error) {
	log := logging.New(cfg.Logging.Level).With("module", "browser")

	// Leakless disabled to avoid AV false positives on Windows.
	l := launcher.New().
		Leakless(false).
		Headless(cfg.Browser.Headless).
		UserDataDir(cfg.Browser.UserDataDir).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("window-size", "1280,800")
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	ua := cfg.Browser.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	_ = proto.EmulationSetUserAgentOverride{UserAgent: ua}.Call(page)

	log.Info("browser started", "headless", cfg.Browser.Headless)
	return &Session{browser: b, page: page, pace: pace, log: log}, nil
}

// Navigate loads a URL and waits for the document to load.
func (s *Session) Navigate(url string) error {
	p := s.page.Timeout(60 * time.Second)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return p.WaitLoad()
}

// CurrentURL returns the tab's current URL, or "" if it cannot be read.
func (s *Session) CurrentURL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// HTML returns the serialized markup of the current page.
func (s *Session) HTML() (string, error) {
	return s.page.Timeout(20 * time.Second).HTML()
}

// Page exposes the underlying tab for flows that drive page-specific UI.
func (s *Session) Page() *rod.Page {
	return s.page
}

// HumanType types text into the element one character at a time with a
// randomized inter-keystroke delay.
func (s *Session) HumanType(sel, text string) error {
	el, err := s.page.Timeout(30 * time.Second).Element(sel)
	if err != nil {
		return fmt.Errorf("find %s: %w", sel, err)
	}
	if err := el.WaitVisible(); err != nil {
		return err
	}
	return TypeHuman(el, text, s.pace)
}

// TypeHuman types into an already-located element at a human pace.
func TypeHuman(el *rod.Element, text string, pace pacing.Policy) error {
	for _, r := range text {
		if err := el.Input(string(r)); err != nil {
			return err
		}
		pace.Keystroke()
	}
	return nil
}

// Click waits for the selector to be visible and clicks it.
func (s *Session) Click(sel string, timeout time.Duration) error {
	el, err := s.page.Timeout(timeout).Element(sel)
	if err != nil {
		return err
	}
	if err := el.WaitVisible(); err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Has reports whether the selector matches within the timeout.
func (s *Session) Has(sel string, timeout time.Duration) bool {
	_, err := s.page.Timeout(timeout).Element(sel)
	return err == nil
}

// WaitElement waits for a selector and returns the element.
func (s *Session) WaitElement(sel string, timeout time.Duration) (*rod.Element, error) {
	return s.page.Timeout(timeout).Element(sel)
}

// ScrollToBottom scrolls the page down in small steps to trigger lazy
// loading of results.
func (s *Session) ScrollToBottom() {
	_, err := s.page.Timeout(30 * time.Second).Eval(`async () => {
		await new Promise((resolve) => {
			let total = 0;
			const distance = 100;
			const timer = setInterval(() => {
				const height = document.body.scrollHeight;
				window.scrollBy(0, distance);
				total += distance;
				if (total >= height - window.innerHeight) {
					clearInterval(timer);
					resolve();
				}
			}, 100);
		});
	}`)
	if err != nil {
		s.log.Debug("scroll failed", "err", err)
	}
}

// DumpDiagnostics persists a screenshot and the raw markup of the current
// page for offline selector debugging. Best effort.
func (s *Session) DumpDiagnostics(dir, label string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Warn("diagnostics dir", "err", err)
		return
	}
	if shot, err := s.page.Timeout(20 * time.Second).Screenshot(true, &proto.PageCaptureScreenshot{}); err == nil {
		_ = os.WriteFile(filepath.Join(dir, label+".png"), shot, 0o644)
	}
	if html, err := s.HTML(); err == nil {
		_ = os.WriteFile(filepath.Join(dir, label+".html"), []byte(html), 0o644)
	}
	s.log.Info("saved diagnostics", "dir", dir, "label", label)
}

// Close shuts the tab and browser down. Safe to call more than once.
func (s *Session) Close() {
	if s.browser == nil {
		return
	}
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	_ = s.browser.Close()
	s.browser = nil
	s.log.Info("browser closed")
}
