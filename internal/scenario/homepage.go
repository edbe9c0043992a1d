package scenario

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/margea-verify/internal/errs"
	"github.com/kuitang/margea-verify/internal/fixtures"
	"github.com/kuitang/margea-verify/internal/urlutil"
)

const (
	searchOwner = "facebook"
	searchRepo  = "react"

	homeTitleSelector    = "h1:has-text('" + fixtures.AppTitle + "')"
	ownerInputSelector   = "input[placeholder*='" + searchOwner + "']"
	repoInputSelector    = "input[placeholder*='" + searchRepo + "']"
	searchButtonSelector = "button:has-text('" + fixtures.SearchButtonLabel + "')"
	filtersSelector      = "text=" + fixtures.FiltersCaption
)

// Homepage checks the landing page elements and that a repository search
// navigates to /<owner>/<repo>.
type Homepage struct{}

func (Homepage) Name() string { return "homepage" }

func (Homepage) Description() string {
	return "landing page renders and search navigates to the repository"
}

func (Homepage) Run(ctx context.Context, run *Run) error {
	s := run.Session
	cfg := run.Config

	if err := s.Goto(step(ctx, "navigate"), urlutil.Join(cfg.BaseURL, "/"), playwright.WaitUntilStateDomcontentloaded); err != nil {
		return err
	}

	for _, sel := range []string{
		homeTitleSelector,
		ownerInputSelector,
		repoInputSelector,
		searchButtonSelector,
		filtersSelector,
	} {
		if err := s.ExpectVisible(step(ctx, "check_layout"), sel, cfg.ElementTimeout); err != nil {
			return err
		}
	}
	if _, err := run.Capture(step(ctx, "screenshot"), "homepage.png", true); err != nil {
		return err
	}

	if err := s.Fill(step(ctx, "fill_owner"), ownerInputSelector, searchOwner); err != nil {
		return err
	}
	if err := s.Fill(step(ctx, "fill_repo"), repoInputSelector, searchRepo); err != nil {
		return err
	}
	if err := s.Click(step(ctx, "search"), searchButtonSelector); err != nil {
		return err
	}

	path := "/" + searchOwner + "/" + searchRepo
	if err := s.WaitForURL(step(ctx, "wait_url"), "**"+path, cfg.NavigationTimeout); err != nil {
		return err
	}
	if got, want := s.Page.URL(), urlutil.Join(cfg.BaseURL, path); !urlutil.SameLocation(got, want) {
		return errs.New(errs.Assertion, "search landed on "+got+", want "+want)
	}

	run.Progress("Homepage verification passed!")
	return nil
}
