package outreach

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/example/prospector/internal/browser"
	"github.com/example/prospector/internal/logging"
	"github.com/example/prospector/internal/pacing"
)

// rodDriver drives the live profile page through the browser session.
type rodDriver struct {
	sess *browser.Session
	pace pacing.Policy
	log  *logging.Logger
}

func (d *rodDriver) Visit(ctx context.Context, url string) error {
	return d.sess.Navigate(url)
}

// Connect runs the multi-step connect/send-note flow on the current page.
func (d *rodDriver) Connect(ctx context.Context, note string) (Outcome, error) {
	btn := d.findConnectButton()
	if btn == nil {
		return OutcomeSkippedNoConnect, nil
	}
	if err := click(btn); err != nil {
		return "", err
	}
	d.log.Info("clicked connect, waiting for modal")

	modal, err := d.sess.WaitElement(".artdeco-modal", 5*time.Second)
	if err != nil {
		// No modal within the bound: some profiles connect instantly.
		return OutcomeAssumedSent, nil
	}

	if noteBtn := buttonWithText(modal, "Add a note"); noteBtn != nil {
		if err := click(noteBtn); err != nil {
			return "", err
		}
		ta, err := d.sess.WaitElement(`textarea[name="message"]`, 10*time.Second)
		if err != nil {
			return "", err
		}
		if err := browser.TypeHuman(ta, note, d.pace); err != nil {
			return "", err
		}
		d.pace.Sleep(1*time.Second, 2*time.Second)
		send := buttonWithText(modal, "Send")
		if send == nil {
			return "", errors.New("send button not found in modal")
		}
		if err := click(send); err != nil {
			return "", err
		}
		return OutcomeSent, nil
	}

	// No note option; some flows only offer a direct send.
	send := buttonWithText(modal, "Send", "Send now")
	if send == nil {
		return "", errors.New("no send control in modal")
	}
	if err := click(send); err != nil {
		return "", err
	}
	return OutcomeSent, nil
}

// findConnectButton prefers the top-card connect button over any styled
// button elsewhere on the page.
func (d *rodDriver) findConnectButton() *rod.Element {
	p := d.sess.Page()
	for _, scope := range []string{".pvs-profile-actions button", ".pv-top-card-v2-ctas button"} {
		if el := elementWithText(p, scope, "Connect"); el != nil {
			return el
		}
	}
	return elementWithText(p, "button.artdeco-button--primary", "Connect")
}

func elementWithText(p *rod.Page, sel string, want ...string) *rod.Element {
	els, err := p.Timeout(5 * time.Second).Elements(sel)
	if err != nil {
		return nil
	}
	return matchText(els, want)
}

func buttonWithText(scope *rod.Element, want ...string) *rod.Element {
	els, err := scope.Timeout(5 * time.Second).Elements("button")
	if err != nil {
		return nil
	}
	return matchText(els, want)
}

func matchText(els rod.Elements, want []string) *rod.Element {
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		for _, w := range want {
			if text == w {
				return el
			}
		}
	}
	return nil
}

func click(el *rod.Element) error {
	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}
