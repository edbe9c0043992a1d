package browser

import (
	"context"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/margea-verify/internal/logutil"
	"github.com/kuitang/margea-verify/internal/obs"
)

// Diagnostics collects what the page reported while a scenario ran.
// Listeners only log; they never turn a page event into a failure.
type Diagnostics struct {
	mu             sync.Mutex
	consoleErrors  []string
	pageErrors     []string
	failedRequests []string
}

// AttachDiagnostics logs console messages, uncaught page errors and failed
// requests for the session's page.
func (s *Session) AttachDiagnostics(ctx context.Context) *Diagnostics {
	d := &Diagnostics{}
	log := obs.From(ctx)

	s.Page.OnConsole(func(msg playwright.ConsoleMessage) {
		text := logutil.TruncateForLog(msg.Text(), 500)
		log.Info("browser_console", "type", msg.Type(), "text", text)
		if msg.Type() == "error" {
			d.mu.Lock()
			d.consoleErrors = append(d.consoleErrors, text)
			d.mu.Unlock()
		}
	})
	s.Page.OnPageError(func(err error) {
		log.Warn("browser_page_error", "error", err.Error())
		d.mu.Lock()
		d.pageErrors = append(d.pageErrors, err.Error())
		d.mu.Unlock()
	})
	s.Page.OnRequestFailed(func(req playwright.Request) {
		reason := ""
		if failure := req.Failure(); failure != nil {
			reason = failure.Error()
		}
		log.Warn("browser_request_failed", "method", req.Method(), "url", req.URL(), "failure", reason)
		d.mu.Lock()
		d.failedRequests = append(d.failedRequests, req.URL())
		d.mu.Unlock()
	})
	return d
}

// ConsoleErrors returns console messages of type "error".
func (d *Diagnostics) ConsoleErrors() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.consoleErrors...)
}

// PageErrors returns uncaught page exceptions.
func (d *Diagnostics) PageErrors() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.pageErrors...)
}

// FailedRequests returns URLs of requests that failed at the network level.
func (d *Diagnostics) FailedRequests() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.failedRequests...)
}
