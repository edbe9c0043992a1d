package scenario

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/margea-verify/internal/errs"
	"github.com/kuitang/margea-verify/internal/fixtures"
	"github.com/kuitang/margea-verify/internal/intercept"
	"github.com/kuitang/margea-verify/internal/obs"
)

const (
	toastSelector   = ".toast"
	detailsSelector = "button[aria-label='" + fixtures.ToastDetailsLabel + "']"
	errorScreenshot = "error_state.png"
)

// BulkMergeToast drives the dashboard through a bulk merge with mocked
// backend responses and checks the progress toast and modal.
type BulkMergeToast struct {
	// WithoutListingMock leaves the PR listing unmocked so the run fails
	// once the dashboard cannot render the repository group.
	WithoutListingMock bool

	// withoutMergeMock skips swapping in the merge mutation, so merges are
	// answered by the listing mock and report errors.
	withoutMergeMock bool
}

func (t BulkMergeToast) Name() string {
	if t.WithoutListingMock {
		return "bulk-merge-toast-unmocked"
	}
	return "bulk-merge-toast"
}

func (t BulkMergeToast) Description() string {
	return "bulk merge of two mocked PRs shows the progress toast and modal"
}

// Run executes the flow. On any failure it prints the error, attempts an
// error_state.png capture and returns the original error.
func (t BulkMergeToast) Run(ctx context.Context, run *Run) error {
	registry := intercept.NewRegistry(ctx, intercept.ForPage(ctx, run.Session.Page))
	defer func() { run.recordMocks(registry.Rules()) }()
	diag := run.Session.AttachDiagnostics(ctx)

	err := t.run(ctx, run, registry)
	if err == nil {
		return nil
	}

	obs.From(ctx).Error("bulk_merge_toast_failed",
		"code", errs.CodeOf(err),
		"error", err,
		"rules", len(registry.Rules()),
		"console_errors", diag.ConsoleErrors(),
		"page_errors", diag.PageErrors(),
		"failed_requests", diag.FailedRequests(),
	)
	run.Progress("Test failed: %v", err)
	if _, shotErr := run.Capture(context.WithoutCancel(ctx), errorScreenshot, false); shotErr != nil {
		obs.From(ctx).Warn("error_screenshot_failed", "error", shotErr)
	}
	return err
}

func (t BulkMergeToast) run(ctx context.Context, run *Run, registry *intercept.Registry) error {
	s := run.Session
	cfg := run.Config

	if err := installMocks(step(ctx, "install_mocks"), registry, !t.WithoutListingMock); err != nil {
		return err
	}

	run.Progress("Navigating to home...")
	if err := s.Goto(step(ctx, "navigate"), cfg.BaseURL, playwright.WaitUntilStateDomcontentloaded); err != nil {
		return err
	}

	run.Progress("Expanding repository group...")
	groupSelector := "text=" + fixtures.RepoGroup()
	group, err := s.WaitVisible(step(ctx, "wait_group"), groupSelector, cfg.ElementTimeout)
	if err != nil {
		return err
	}
	if err := s.ClickLocator(step(ctx, "expand_group"), groupSelector, group); err != nil {
		return err
	}
	nodes := fixtures.Listing().Data.Search.Nodes
	if err := s.ExpectVisible(step(ctx, "wait_items"), "text="+nodes[0].Title, cfg.DefaultTimeout); err != nil {
		return err
	}

	run.Progress("Selecting all PRs...")
	if err := s.Click(step(ctx, "select_all"), "text="+fixtures.SelectAllLabel); err != nil {
		return err
	}

	run.Progress("Opening merge confirmation...")
	mergeSelector := fmt.Sprintf("button:has-text('%s')", fixtures.MergeButtonLabel(len(nodes)))
	if err := s.Click(step(ctx, "open_confirm"), mergeSelector); err != nil {
		return err
	}
	confirmCaption := "text=" + fixtures.ConfirmMergeCaption
	if err := s.ExpectVisible(step(ctx, "wait_confirm"), confirmCaption, cfg.DefaultTimeout); err != nil {
		return err
	}

	// From here on every GraphQL call is a merge mutation.
	if !t.withoutMergeMock {
		if err := registerJSON(step(ctx, "mock_merge"), registry, fixtures.GraphQLPattern, fixtures.MergeMutation()); err != nil {
			return err
		}
	}
	if err := s.ExpectVisible(step(ctx, "confirm_still_open"), confirmCaption, cfg.DefaultTimeout); err != nil {
		return err
	}

	run.Progress("Confirming merge...")
	// The dialog is appended last, so its button is the last match.
	confirm := s.Page.Locator(mergeSelector).Last()
	if err := s.ClickLocator(step(ctx, "confirm_merge"), mergeSelector, confirm); err != nil {
		return err
	}
	if err := s.ExpectHidden(step(ctx, "wait_confirm_closed"), confirmCaption, cfg.DefaultTimeout); err != nil {
		return err
	}

	run.Progress("Checking toast...")
	if err := s.ExpectVisible(step(ctx, "wait_toast"), toastSelector, cfg.DefaultTimeout); err != nil {
		return err
	}
	if _, err := run.Capture(step(ctx, "screenshot_toast"), "toast_visible.png", false); err != nil {
		return err
	}

	run.Progress("Opening progress details...")
	if err := s.Click(step(ctx, "open_details"), detailsSelector); err != nil {
		return err
	}
	if err := s.ExpectVisible(step(ctx, "wait_progress_modal"), "text="+fixtures.MergeProgressTitle, cfg.DefaultTimeout); err != nil {
		return err
	}
	if _, err := run.Capture(step(ctx, "screenshot_modal"), "global_modal.png", false); err != nil {
		return err
	}

	outcome := fmt.Sprintf("%s:has-text('%s')", toastSelector, fixtures.MergeOutcomeLabel(len(nodes), 0))
	if err := s.ExpectVisible(step(ctx, "wait_merge_outcome"), outcome, cfg.DefaultTimeout); err != nil {
		return err
	}

	obs.From(ctx).Info("bulk_merge_toast_done", "graphql_hits", registry.Hits(fixtures.GraphQLPattern))
	run.Progress("Bulk merge toast verification passed!")
	return nil
}

// installMocks registers the auth mocks and, unless withheld, the listing.
// All of them are in place before the first navigation.
func installMocks(ctx context.Context, registry *intercept.Registry, listing bool) error {
	if listing {
		if err := registerJSON(ctx, registry, fixtures.GraphQLPattern, fixtures.Listing()); err != nil {
			return err
		}
	}
	if err := registerJSON(ctx, registry, fixtures.TokenPattern, fixtures.Token()); err != nil {
		return err
	}
	return registerJSON(ctx, registry, fixtures.PermissionsPattern, fixtures.WritePermissions())
}

func registerJSON(ctx context.Context, registry *intercept.Registry, pattern string, payload any) error {
	responder, err := intercept.JSON(payload)
	if err != nil {
		return errs.Wrap(errs.Internal, "encode mock for "+pattern, err)
	}
	if err := registry.Register(pattern, responder); err != nil {
		return errs.Wrap(errs.Setup, "register mock for "+pattern, err)
	}
	obs.From(ctx).Debug("mock_registered", "pattern", pattern)
	return nil
}
