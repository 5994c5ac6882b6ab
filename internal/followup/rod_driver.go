package followup

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

// rodDriver runs the messaging flow on the live profile page.
type rodDriver struct {
	sess *browser.Session
	pace pacing.Policy
	log  *logging.Logger
}

func (d *rodDriver) Visit(ctx context.Context, url string) error {
	return d.sess.Navigate(url)
}

func (d *rodDriver) CanMessage(ctx context.Context) (bool, error) {
	return d.findMessageButton() != nil, nil
}

// SendMessage opens the message box on the current profile, types the
// text and clicks send.
func (d *rodDriver) SendMessage(ctx context.Context, text string) error {
	btn := d.findMessageButton()
	if btn == nil {
		return errors.New("message button not found")
	}
	if err := click(btn); err != nil {
		return err
	}
	d.log.Info("clicked message, waiting for composer")

	input, err := d.findComposer()
	if err != nil {
		return err
	}
	if err := browser.TypeHuman(input, text, d.pace); err != nil {
		return err
	}
	// Brief pause between typing and sending, like a person re-reading.
	pacing.Gaussian(800*time.Millisecond, 200*time.Millisecond)

	send, err := d.findSendButton()
	if err != nil {
		return err
	}
	return click(send)
}

func (d *rodDriver) findMessageButton() *rod.Element {
	p := d.sess.Page()
	if el, err := p.Timeout(5 * time.Second).ElementR("button", "^Message$"); err == nil {
		return el
	}
	if el, err := p.Timeout(5 * time.Second).Element(`button[aria-label*="Message"]`); err == nil {
		return el
	}
	return nil
}

func (d *rodDriver) findComposer() (*rod.Element, error) {
	p := d.sess.Page()
	if el, err := p.Timeout(8 * time.Second).Element(`div.msg-form__contenteditable`); err == nil {
		return el, nil
	}
	el, err := p.Timeout(5 * time.Second).Element(`div[contenteditable="true"]`)
	if err != nil {
		return nil, errors.New("message composer not found")
	}
	return el, nil
}

func (d *rodDriver) findSendButton() (*rod.Element, error) {
	p := d.sess.Page()
	if el, err := p.Timeout(10 * time.Second).Element(`button.msg-form__send-button`); err == nil {
		return el, nil
	}
	els, err := p.Elements("button")
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "Send" {
			return el, nil
		}
	}
	return nil, errors.New("send button not found")
}

func click(el *rod.Element) error {
	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}
