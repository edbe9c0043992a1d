package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/margea-verify/internal/errs"
	"github.com/kuitang/margea-verify/internal/logutil"
	"github.com/kuitang/margea-verify/internal/obs"
)

// Goto navigates to url and waits for the given load state.
func (s *Session) Goto(ctx context.Context, url string, waitUntil *playwright.WaitUntilState) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.Navigation, "goto "+url, err)
	}
	obs.From(ctx).Info("navigate", "url", url)
	_, err := s.Page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntil,
		Timeout:   playwright.Float(ms(s.opts.NavigationTimeout)),
	})
	if err != nil {
		return errs.Wrap(errs.Navigation, "goto "+url, err)
	}
	return nil
}

// WaitVisible waits up to timeout for the first match of selector to be
// visible and returns it.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) (playwright.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.Timeout, "wait for "+selector, err)
	}
	first := s.Page.Locator(selector).First()
	err := first.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(ms(timeout)),
	})
	if err != nil {
		s.logPageState(ctx)
		return nil, errs.Wrap(errs.Assertion, "wait for "+selector, err)
	}
	return first, nil
}

// Click clicks the first match of selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	return s.ClickLocator(ctx, selector, s.Page.Locator(selector).First())
}

// ClickLocator clicks loc, using label in logs and errors.
func (s *Session) ClickLocator(ctx context.Context, label string, loc playwright.Locator) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.Timeout, "click "+label, err)
	}
	obs.From(ctx).Debug("click", "selector", label)
	if err := loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(ms(s.opts.DefaultTimeout)),
	}); err != nil {
		return errs.Wrap(errs.Assertion, "click "+label, err)
	}
	return nil
}

// Fill types value into the first match of selector.
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.Timeout, "fill "+selector, err)
	}
	if err := s.Page.Locator(selector).First().Fill(value, playwright.LocatorFillOptions{
		Timeout: playwright.Float(ms(s.opts.DefaultTimeout)),
	}); err != nil {
		return errs.Wrap(errs.Assertion, "fill "+selector, err)
	}
	return nil
}

// Text returns the text content of the first visible match of selector.
func (s *Session) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	loc, err := s.WaitVisible(ctx, selector, timeout)
	if err != nil {
		return "", err
	}
	text, err := loc.TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(ms(timeout)),
	})
	if err != nil {
		return "", errs.Wrap(errs.Assertion, "read text of "+selector, err)
	}
	return text, nil
}

// WaitForURL waits until the page URL matches glob.
func (s *Session) WaitForURL(ctx context.Context, glob string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.Timeout, "wait for url "+glob, err)
	}
	if err := s.Page.WaitForURL(glob, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(ms(timeout)),
	}); err != nil {
		return errs.Wrap(errs.Navigation, "wait for url "+glob, err)
	}
	return nil
}

// ExpectVisible asserts selector becomes visible within timeout. An unmet
// expectation is coded Assertion; WaitVisible is the timeout-coded wait.
func (s *Session) ExpectVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.Timeout, "expect visible "+selector, err)
	}
	err := playwright.NewPlaywrightAssertions(ms(timeout)).
		Locator(s.Page.Locator(selector).First()).
		ToBeVisible()
	if err != nil {
		s.logPageState(ctx)
		return errs.Wrap(errs.Assertion, "expect visible "+selector, err)
	}
	return nil
}

// ExpectHidden asserts selector is hidden or absent within timeout.
func (s *Session) ExpectHidden(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.Timeout, "expect hidden "+selector, err)
	}
	err := playwright.NewPlaywrightAssertions(ms(timeout)).
		Locator(s.Page.Locator(selector).First()).
		ToBeHidden()
	if err != nil {
		return errs.Wrap(errs.Assertion, "expect hidden "+selector, err)
	}
	return nil
}

// ExpectAttribute asserts the first match of selector has attribute name
// equal to want within timeout.
func (s *Session) ExpectAttribute(ctx context.Context, selector, name, want string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.Timeout, "expect attribute "+selector, err)
	}
	err := playwright.NewPlaywrightAssertions(ms(timeout)).
		Locator(s.Page.Locator(selector).First()).
		ToHaveAttribute(name, want)
	if err != nil {
		got, _ := s.Page.Locator(selector).First().GetAttribute(name, playwright.LocatorGetAttributeOptions{
			Timeout: playwright.Float(100),
		})
		return errs.Wrap(errs.Assertion, fmt.Sprintf("%s[%s]: want %q, got %q", selector, name, want, got), err)
	}
	return nil
}

// Screenshot captures the page as PNG bytes.
func (s *Session) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	png, err := s.Page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
		Timeout:  playwright.Float(ms(s.opts.DefaultTimeout)),
	})
	if err != nil {
		return nil, errs.Wrap(errs.Artifact, "capture screenshot", err)
	}
	return png, nil
}

// Settle waits a fixed duration, returning early if ctx is cancelled.
func (s *Session) Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errs.Wrap(errs.Timeout, "settle", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (s *Session) logPageState(ctx context.Context) {
	title, _ := s.Page.Title()
	content, _ := s.Page.Content()
	obs.From(ctx).Warn(
		"page_state",
		"url", s.Page.URL(),
		"title", title,
		"content_preview", logutil.TruncateForLog(content, 500),
	)
}
