// Package auth drives the browser session through login. It handles three
// entry situations: a session restored from cookies (already authenticated),
// a cold login, and an out-of-band security challenge that needs the account
// owner to approve within a bounded wait.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/example/prospector/internal/browser"
	"github.com/example/prospector/internal/config"
	"github.com/example/prospector/internal/logging"
)

// State of the login flow.
type State string

const (
	StateUnauthenticated  State = "unauthenticated"
	StateAuthenticating   State = "authenticating"
	StateChallengePending State = "challenge_pending"
	StateAuthenticated    State = "authenticated"
	StateFailed           State = "failed"
)

// Reason classifies an unrecoverable login failure.
type Reason string

const (
	ReasonTimeout          Reason = "timeout"
	ReasonChallengeTimeout Reason = "challenge_timeout"
	ReasonNavigationError  Reason = "navigation_error"
)

// AuthError is unrecoverable; the run aborts after cleanup.
type AuthError struct {
	Reason Reason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("login failed (%s)", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

type Credentials struct {
	Username string
	Password string
}

// CredentialsFromEnv reads the account credentials from the environment.
func CredentialsFromEnv() (Credentials, error) {
	c := Credentials{
		Username: os.Getenv("LINKEDIN_EMAIL"),
		Password: os.Getenv("LINKEDIN_PASSWORD"),
	}
	if c.Username == "" || c.Password == "" {
		return Credentials{}, errors.New("missing LINKEDIN_EMAIL or LINKEDIN_PASSWORD env")
	}
	return c, nil
}

const challengeWait = 3 * time.Minute

type Controller struct {
	sess  *browser.Session
	cfg   *config.Config
	log   *logging.Logger
	state State
}

func New(sess *browser.Session, cfg *config.Config) *Controller {
	return &Controller{
		sess:  sess,
		cfg:   cfg,
		log:   logging.New(cfg.Logging.Level).With("module", "auth"),
		state: StateUnauthenticated,
	}
}

func (c *Controller) State() State { return c.state }

// Login leaves the shared session authenticated, or fails with an AuthError.
// An already-authenticated session (restored cookies) is detected and reused.
func (c *Controller) Login(ctx context.Context, creds Credentials) error {
	feedURL := c.cfg.LinkedIn.BaseURL + "feed/"

	// The feed often loads slowly; a timeout here is fine, the URL check
	// below decides what to do.
	if err := c.sess.Navigate(feedURL); err != nil {
		c.log.Warn("feed load did not settle, continuing", "err", err)
	}

	if !isLoginWall(c.sess.CurrentURL()) {
		c.state = StateAuthenticated
		c.log.Info("already logged in, session restored")
		c.dismissOverlays()
		return nil
	}

	c.state = StateAuthenticating
	c.log.Info("not logged in, logging in")

	if err := c.sess.Navigate(c.cfg.LinkedIn.BaseURL + "login"); err != nil {
		return c.fail(ReasonNavigationError, err)
	}
	if !c.sess.Has("#username", 15*time.Second) {
		return c.fail(ReasonTimeout, errors.New("username field did not appear"))
	}
	if err := c.sess.HumanType("#username", creds.Username); err != nil {
		return c.fail(ReasonNavigationError, err)
	}
	if err := c.sess.HumanType("#password", creds.Password); err != nil {
		return c.fail(ReasonNavigationError, err)
	}
	if err := c.submit(); err != nil {
		return c.fail(ReasonNavigationError, err)
	}

	if isChallenge(c.sess.CurrentURL()) {
		c.state = StateChallengePending
		c.log.Warn("security challenge detected, waiting for approval",
			"wait", challengeWait.String())
		if err := c.waitChallenge(ctx); err != nil {
			return err
		}
	}

	c.state = StateAuthenticated
	c.log.Info("logged in")
	c.dismissOverlays()
	return nil
}

func (c *Controller) submit() error {
	// Button class differs between login page variants.
	if err := c.sess.Click(".btn__primary--large", 5*time.Second); err != nil {
		if err := c.sess.Click("button[type='submit']", 5*time.Second); err != nil {
			return fmt.Errorf("submit login form: %w", err)
		}
	}
	// Let the post-submit navigation settle before inspecting the URL.
	time.Sleep(5 * time.Second)
	return nil
}

// waitChallenge polls for the redirect to the feed while the account owner
// approves the challenge out of band.
func (c *Controller) waitChallenge(ctx context.Context) error {
	deadline := time.Now().Add(challengeWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return c.fail(ReasonChallengeTimeout, ctx.Err())
		case <-time.After(2 * time.Second):
		}
		if isAuthenticated(c.sess.CurrentURL()) {
			c.log.Info("challenge solved, proceeding")
			return nil
		}
	}
	return c.fail(ReasonChallengeTimeout, errors.New("challenge not solved in time"))
}

// dismissOverlays closes promotional modals if any are showing. Failures
// here never escalate; the overlays are transient.
func (c *Controller) dismissOverlays() {
	time.Sleep(2 * time.Second) // wait for entry animations
	for _, sel := range []string{`button[aria-label="Dismiss"]`, "button.artdeco-modal__dismiss"} {
		if c.sess.Has(sel, 2*time.Second) {
			if err := c.sess.Click(sel, 2*time.Second); err == nil {
				c.log.Info("dismissed a popup")
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (c *Controller) fail(reason Reason, err error) error {
	c.state = StateFailed
	return &AuthError{Reason: reason, Err: err}
}

// URL classification. The login wall shows up either as the login page
// itself or as the logged-out home variant.

func isLoginWall(u string) bool {
	return strings.Contains(u, "login") || strings.Contains(u, "linkedin.com/home")
}

func isChallenge(u string) bool {
	return strings.Contains(u, "checkpoint") || strings.Contains(u, "challenge")
}

func isAuthenticated(u string) bool {
	return strings.Contains(u, "/feed")
}
