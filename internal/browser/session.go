// Package browser owns the Playwright lifecycle for one scenario run: one
// driver, one Chromium, one isolated context and one page, all released by
// Close on every exit path.
package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/margea-verify/internal/errs"
	"github.com/kuitang/margea-verify/internal/obs"
)

// Options configures a session.
type Options struct {
	Headless          bool
	Args              []string
	ViewportWidth     int
	ViewportHeight    int
	DefaultTimeout    time.Duration
	NavigationTimeout time.Duration
}

// Session is a launched browser with a single page.
type Session struct {
	Page    playwright.Page
	Context playwright.BrowserContext

	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options

	closeOnce sync.Once
	closeErr  error
}

// Launch starts the Playwright driver, launches Chromium and opens a fresh
// context and page. On failure everything already acquired is released.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	log := obs.From(ctx)

	pw, err := playwright.Run()
	if err != nil {
		return nil, errs.Wrap(errs.Setup, "start playwright", err)
	}
	s := &Session{pw: pw, opts: opts}

	s.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	})
	if err != nil {
		_ = s.Close()
		return nil, errs.Wrap(errs.Setup, "launch chromium", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		contextOpts.Viewport = &playwright.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight}
	}
	s.Context, err = s.browser.NewContext(contextOpts)
	if err != nil {
		_ = s.Close()
		return nil, errs.Wrap(errs.Setup, "create browser context", err)
	}
	s.Context.SetDefaultTimeout(ms(opts.DefaultTimeout))
	s.Context.SetDefaultNavigationTimeout(ms(opts.NavigationTimeout))

	s.Page, err = s.Context.NewPage()
	if err != nil {
		_ = s.Close()
		return nil, errs.Wrap(errs.Setup, "create page", err)
	}

	log.Info("browser_launched", "headless", opts.Headless, "version", s.browser.Version())
	return s, nil
}

// Close releases page, context, browser and driver in that order.
// It is safe to call more than once; later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var closeErrs []error
		if s.Page != nil {
			if err := s.Page.Close(); err != nil && !errors.Is(err, playwright.ErrTargetClosed) {
				closeErrs = append(closeErrs, err)
			}
		}
		if s.Context != nil {
			if err := s.Context.Close(); err != nil && !errors.Is(err, playwright.ErrTargetClosed) {
				closeErrs = append(closeErrs, err)
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil && !errors.Is(err, playwright.ErrTargetClosed) {
				closeErrs = append(closeErrs, err)
			}
		}
		if s.pw != nil {
			if err := s.pw.Stop(); err != nil {
				closeErrs = append(closeErrs, err)
			}
		}
		s.closeErr = errors.Join(closeErrs...)
	})
	return s.closeErr
}

func ms(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
