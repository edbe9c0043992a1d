package scenario

import (
	"context"

	"github.com/kuitang/margea-verify/internal/fixtures"
)

const faviconSelector = "link[rel='icon']"

// Favicon checks that the app declares /logo.svg as its icon.
type Favicon struct{}

func (Favicon) Name() string { return "favicon" }

func (Favicon) Description() string {
	return "app declares " + fixtures.FaviconHref + " as its favicon"
}

// Run has no failure boundary: any error propagates unchanged and the
// runner still closes the browser.
func (Favicon) Run(ctx context.Context, run *Run) error {
	s := run.Session
	cfg := run.Config

	if err := s.Goto(step(ctx, "navigate"), cfg.BaseURL, nil); err != nil {
		return err
	}
	if err := s.Settle(step(ctx, "settle"), cfg.SettleDelay); err != nil {
		return err
	}
	if err := s.ExpectAttribute(step(ctx, "check_icon"), faviconSelector, "href", fixtures.FaviconHref, cfg.ElementTimeout); err != nil {
		return err
	}
	if _, err := run.Capture(step(ctx, "screenshot"), "app_with_favicon.png", true); err != nil {
		return err
	}

	run.Progress("Favicon verification passed!")
	return nil
}
