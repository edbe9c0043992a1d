package scenario

import (
	"context"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/margea-verify/internal/errs"
	"github.com/kuitang/margea-verify/internal/obs"
	"github.com/kuitang/margea-verify/internal/urlutil"
)

// NavigationPaths are the routes the navigation scenario visits.
var NavigationPaths = []string{
	"/orgs",
	"/org/facebook",
	"/facebook/react",
}

// Navigation visits each route and requires a non-empty heading.
type Navigation struct{}

func (Navigation) Name() string { return "navigation" }

func (Navigation) Description() string {
	return "organization and repository routes render a heading"
}

func (Navigation) Run(ctx context.Context, run *Run) error {
	s := run.Session
	cfg := run.Config

	for _, path := range NavigationPaths {
		ctx := step(ctx, "visit "+path)
		if err := s.Goto(ctx, urlutil.Join(cfg.BaseURL, path), playwright.WaitUntilStateNetworkidle); err != nil {
			return err
		}
		heading, err := s.Text(ctx, "h1", cfg.ElementTimeout)
		if err != nil {
			return err
		}
		heading = strings.TrimSpace(heading)
		if heading == "" {
			return errs.New(errs.Assertion, path+": empty heading")
		}
		obs.From(ctx).Info("route_rendered", "path", path, "heading", heading)
		run.Progress("%s -> %s", path, heading)
	}

	run.Progress("Navigation verification passed!")
	return nil
}
