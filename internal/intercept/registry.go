// Package intercept keeps a registry of mocked network routes keyed by URL
// glob. Registering a pattern twice swaps the responder in place: requests
// handled after the second Register see the new response, requests handled
// before it saw the old one. Nothing is retroactive.
package intercept

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kuitang/margea-verify/internal/logutil"
	"github.com/kuitang/margea-verify/internal/obs"
)

// ErrNoRule is returned by Dispatch when the pattern has no active rule.
var ErrNoRule = errors.New("intercept: no active rule")

// Dispatch resolves an intercepted request to a mocked response.
// Installers call it from their route handler.
type Dispatch func(Request) (MockResponse, error)

// Installer hooks a pattern into the browser exactly once.
type Installer interface {
	Install(pattern string, dispatch Dispatch) error
	Uninstall(pattern string) error
}

// Rule is a snapshot of one registered pattern.
type Rule struct {
	Pattern    string
	Generation int // 1 on first registration, +1 per replacement
	Hits       int // requests served across all generations
}

type rule struct {
	responder  Responder
	generation int
	hits       int
}

// Registry maps URL patterns to the responder currently serving them.
type Registry struct {
	mu        sync.Mutex
	installer Installer
	rules     map[string]*rule
	ctx       context.Context
}

// NewRegistry creates a registry that installs routes through installer.
// ctx only carries log correlation for dispatched requests.
func NewRegistry(ctx context.Context, installer Installer) *Registry {
	return &Registry{
		installer: installer,
		rules:     make(map[string]*rule),
		ctx:       ctx,
	}
}

// Register makes responder the active rule for pattern.
// The first registration installs a route; later ones replace the responder.
func (r *Registry) Register(pattern string, responder Responder) error {
	pattern = normalizePattern(pattern)
	if pattern == "" {
		return fmt.Errorf("intercept: empty pattern")
	}
	if responder == nil {
		return fmt.Errorf("intercept: nil responder for %q", pattern)
	}

	r.mu.Lock()
	if existing, ok := r.rules[pattern]; ok {
		existing.responder = responder
		existing.generation++
		gen := existing.generation
		r.mu.Unlock()
		obs.From(r.ctx).Info("intercept_rule_replaced", "pattern", pattern, "generation", gen)
		return nil
	}
	r.rules[pattern] = &rule{responder: responder, generation: 1}
	r.mu.Unlock()

	// Install outside the lock: Playwright may deliver a request for this
	// pattern before Install returns, and the handler needs the mutex.
	if err := r.installer.Install(pattern, func(req Request) (MockResponse, error) {
		return r.Dispatch(pattern, req)
	}); err != nil {
		r.mu.Lock()
		delete(r.rules, pattern)
		r.mu.Unlock()
		return fmt.Errorf("intercept: install %q: %w", pattern, err)
	}
	obs.From(r.ctx).Info("intercept_rule_installed", "pattern", pattern)
	return nil
}

// Unregister removes the rule so matching requests reach the network again.
func (r *Registry) Unregister(pattern string) error {
	pattern = normalizePattern(pattern)
	r.mu.Lock()
	_, ok := r.rules[pattern]
	delete(r.rules, pattern)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	if err := r.installer.Uninstall(pattern); err != nil {
		return fmt.Errorf("intercept: uninstall %q: %w", pattern, err)
	}
	obs.From(r.ctx).Info("intercept_rule_removed", "pattern", pattern)
	return nil
}

// Dispatch serves req with the responder active for pattern right now.
func (r *Registry) Dispatch(pattern string, req Request) (MockResponse, error) {
	pattern = normalizePattern(pattern)
	r.mu.Lock()
	active, ok := r.rules[pattern]
	if !ok {
		r.mu.Unlock()
		return MockResponse{}, ErrNoRule
	}
	responder := active.responder
	gen := active.generation
	active.hits++
	r.mu.Unlock()

	resp, err := responder.Respond(req)
	if err != nil {
		obs.From(r.ctx).Warn("intercept_responder_failed", "pattern", pattern, "url", req.URL, "error", err)
		return MockResponse{}, err
	}
	resp = resp.withDefaults()
	obs.From(r.ctx).Debug(
		"intercept_served",
		"pattern", pattern,
		"generation", gen,
		"method", req.Method,
		"url", req.URL,
		"req_headers", logutil.FormatHeadersForLog(req.Headers),
		"status", resp.Status,
		"body", logutil.FormatBodyForLog(resp.ContentType, resp.Body, 200),
	)
	return resp, nil
}

// Rules returns a snapshot of all active rules sorted by pattern.
func (r *Registry) Rules() []Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Rule, 0, len(r.rules))
	for pattern, rl := range r.rules {
		out = append(out, Rule{Pattern: pattern, Generation: rl.generation, Hits: rl.hits})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pattern < out[j].Pattern })
	return out
}

// Hits returns how many requests pattern has served, 0 if unknown.
func (r *Registry) Hits(pattern string) int {
	pattern = normalizePattern(pattern)
	r.mu.Lock()
	defer r.mu.Unlock()
	if rl, ok := r.rules[pattern]; ok {
		return rl.hits
	}
	return 0
}

func normalizePattern(pattern string) string {
	return strings.TrimSpace(pattern)
}
