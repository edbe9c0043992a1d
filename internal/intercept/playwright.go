package intercept

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/margea-verify/internal/obs"
)

// PlaywrightInstaller installs registry routes on a Playwright page.
type PlaywrightInstaller struct {
	ctx     context.Context
	route   func(pattern string, handler func(playwright.Route)) error
	unroute func(pattern string) error
}

// ForPage returns an installer bound to page.
func ForPage(ctx context.Context, page playwright.Page) *PlaywrightInstaller {
	return &PlaywrightInstaller{
		ctx: ctx,
		route: func(pattern string, handler func(playwright.Route)) error {
			return page.Route(pattern, handler)
		},
		unroute: func(pattern string) error {
			return page.Unroute(pattern)
		},
	}
}

// Install registers a single Playwright route that defers to dispatch.
func (p *PlaywrightInstaller) Install(pattern string, dispatch Dispatch) error {
	return p.route(pattern, func(route playwright.Route) {
		req := route.Request()
		postData, _ := req.PostData()
		resp, err := dispatch(Request{
			Method:   req.Method(),
			URL:      req.URL(),
			PostData: postData,
			Headers:  req.Headers(),
		})
		if err != nil {
			// Rule gone or responder failed: let the request fall through
			// instead of hanging the page.
			if ferr := route.Fallback(); ferr != nil {
				obs.From(p.ctx).Warn("intercept_fallback_failed", "pattern", pattern, "error", ferr)
			}
			return
		}
		if ferr := route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(resp.Status),
			ContentType: playwright.String(resp.ContentType),
			Headers:     resp.Headers,
			Body:        resp.Body,
		}); ferr != nil {
			obs.From(p.ctx).Warn("intercept_fulfill_failed", "pattern", pattern, "url", req.URL(), "error", ferr)
		}
	})
}

// Uninstall removes every handler Playwright has for pattern.
func (p *PlaywrightInstaller) Uninstall(pattern string) error {
	return p.unroute(pattern)
}
