package scenario

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kuitang/margea-verify/internal/artifact"
	"github.com/kuitang/margea-verify/internal/browser"
	"github.com/kuitang/margea-verify/internal/config"
	"github.com/kuitang/margea-verify/internal/errs"
	"github.com/kuitang/margea-verify/internal/intercept"
	"github.com/kuitang/margea-verify/internal/obs"
)

// Result is the outcome of one scenario run.
type Result struct {
	Scenario  string
	RunID     string
	Started   time.Time
	Finished  time.Time
	Artifacts []artifact.Artifact
	Mocks     []intercept.Rule // interception rules as the scenario left them
	Err       error
}

// Passed reports whether the scenario finished without error.
func (r Result) Passed() bool {
	return r.Err == nil
}

// Duration is the wall time of the run, launch and close included.
func (r Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// LaunchFunc starts a browser session.
type LaunchFunc func(ctx context.Context, opts browser.Options) (*browser.Session, error)

// Runner runs scenarios one at a time, each with its own browser.
type Runner struct {
	cfg    *config.Config
	store  *artifact.Store
	out    io.Writer
	launch LaunchFunc
}

// NewRunner creates a runner. out receives progress lines and may be nil.
func NewRunner(cfg *config.Config, store *artifact.Store, out io.Writer) *Runner {
	return &Runner{
		cfg:    cfg,
		store:  store,
		out:    out,
		launch: browser.Launch,
	}
}

// BrowserOptions derives session options from the runner's configuration.
func (r *Runner) BrowserOptions() browser.Options {
	return browser.Options{
		Headless:          r.cfg.Headless,
		Args:              r.cfg.BrowserArgs,
		ViewportWidth:     r.cfg.ViewportWidth,
		ViewportHeight:    r.cfg.ViewportHeight,
		DefaultTimeout:    r.cfg.DefaultTimeout,
		NavigationTimeout: r.cfg.NavigationTimeout,
	}
}

// Run executes sc in a fresh browser and always closes it.
func (r *Runner) Run(ctx context.Context, sc Scenario) Result {
	res := Result{
		Scenario: sc.Name(),
		RunID:    uuid.New().String(),
		Started:  time.Now(),
	}
	ctx = obs.WithCorrelation(ctx, obs.Correlation{RunID: res.RunID, Scenario: sc.Name()})
	log := obs.From(ctx)
	log.Info("scenario_started")

	session, err := r.launch(ctx, r.BrowserOptions())
	if err != nil {
		res.Err = errs.Classify(err, "launch browser")
		res.Finished = time.Now()
		log.Error("scenario_failed", "code", errs.CodeOf(res.Err), "error", res.Err)
		return res
	}

	run := &Run{Session: session, Config: r.cfg, store: r.store, out: r.out}
	runErr := sc.Run(ctx, run)

	if closeErr := session.Close(); closeErr != nil {
		log.Warn("browser_close_failed", "error", closeErr)
		if runErr == nil {
			runErr = errs.Wrap(errs.Setup, "close browser", closeErr)
		}
	}

	res.Artifacts = run.Artifacts()
	res.Mocks = run.mocks
	res.Finished = time.Now()
	if runErr != nil {
		res.Err = errs.Classify(runErr, sc.Name())
		log.Error("scenario_failed",
			"code", errs.CodeOf(res.Err),
			"message", errs.MessageOf(res.Err),
			"error", res.Err,
			"dur_ms", res.Duration().Milliseconds(),
		)
		return res
	}
	log.Info("scenario_passed", "artifacts", len(res.Artifacts), "dur_ms", res.Duration().Milliseconds())
	return res
}

// RunAll runs scenarios sequentially and returns every result. A failure
// does not stop later scenarios, but cancellation of ctx does.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.Run(ctx, sc))
	}
	return results
}
