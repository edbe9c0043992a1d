// Package scenario holds the Margea verification flows and the runner that
// gives each one its own browser session.
package scenario

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kuitang/margea-verify/internal/artifact"
	"github.com/kuitang/margea-verify/internal/browser"
	"github.com/kuitang/margea-verify/internal/config"
	"github.com/kuitang/margea-verify/internal/errs"
	"github.com/kuitang/margea-verify/internal/intercept"
	"github.com/kuitang/margea-verify/internal/obs"
)

// Scenario is one linear verification flow.
type Scenario interface {
	Name() string
	Description() string
	Run(ctx context.Context, run *Run) error
}

// Run is what a scenario gets to work with while it executes.
type Run struct {
	Session *browser.Session
	Config  *config.Config

	store     *artifact.Store
	out       io.Writer
	artifacts []artifact.Artifact
	mocks     []intercept.Rule
}

// Capture screenshots the page and saves it under name.
func (r *Run) Capture(ctx context.Context, name string, fullPage bool) (artifact.Artifact, error) {
	png, err := r.Session.Screenshot(ctx, fullPage)
	if err != nil {
		return artifact.Artifact{}, err
	}
	art, err := r.store.Save(ctx, name, png)
	if err != nil {
		return artifact.Artifact{}, err
	}
	r.artifacts = append(r.artifacts, art)
	return art, nil
}

// Progress prints a human progress line.
func (r *Run) Progress(format string, args ...any) {
	if r.out == nil {
		return
	}
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Artifacts returns screenshots saved so far.
func (r *Run) Artifacts() []artifact.Artifact {
	return append([]artifact.Artifact(nil), r.artifacts...)
}

func (r *Run) recordMocks(rules []intercept.Rule) {
	r.mocks = rules
}

// step tags ctx with the step name for logs.
func step(ctx context.Context, name string) context.Context {
	ctx = obs.WithStep(ctx, name)
	obs.From(ctx).Debug("step")
	return ctx
}

// Catalog returns every scenario in CLI order.
func Catalog() []Scenario {
	return []Scenario{
		Favicon{},
		BulkMergeToast{},
		Homepage{},
		Navigation{},
	}
}

// Lookup resolves names to scenarios. "all" expands to the whole catalog.
func Lookup(names []string) ([]Scenario, error) {
	byName := make(map[string]Scenario)
	for _, sc := range Catalog() {
		byName[sc.Name()] = sc
	}

	if len(names) == 0 {
		return nil, errs.New(errs.InvalidArgument, "no scenario given (try -list)")
	}

	var out []Scenario
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "all" {
			for _, sc := range Catalog() {
				if !seen[sc.Name()] {
					seen[sc.Name()] = true
					out = append(out, sc)
				}
			}
			continue
		}
		sc, ok := byName[name]
		if !ok {
			known := make([]string, 0, len(byName))
			for k := range byName {
				known = append(known, k)
			}
			sort.Strings(known)
			return nil, errs.New(errs.InvalidArgument, fmt.Sprintf("unknown scenario %q (known: %s)", name, strings.Join(known, ", ")))
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, sc)
		}
	}
	return out, nil
}
