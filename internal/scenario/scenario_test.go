package scenario

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kuitang/margea-verify/internal/artifact"
	"github.com/kuitang/margea-verify/internal/browser"
	"github.com/kuitang/margea-verify/internal/config"
	"github.com/kuitang/margea-verify/internal/errs"
	"github.com/kuitang/margea-verify/internal/fixtures"
	"github.com/kuitang/margea-verify/internal/intercept"
	"github.com/kuitang/margea-verify/internal/testapp"
)

// =============================================================================
// Catalog
// =============================================================================

func TestLookup_ExpandsAllInCatalogOrder(t *testing.T) {
	t.Parallel()

	got, err := Lookup([]string{"all"})
	require.NoError(t, err)
	require.Len(t, got, len(Catalog()))
	for i, sc := range Catalog() {
		require.Equal(t, sc.Name(), got[i].Name())
	}
}

func TestLookup_DeduplicatesAndKeepsOrder(t *testing.T) {
	t.Parallel()

	got, err := Lookup([]string{"navigation", "favicon", "navigation", "all"})
	require.NoError(t, err)

	var names []string
	for _, sc := range got {
		names = append(names, sc.Name())
	}
	require.Equal(t, []string{"navigation", "favicon", "bulk-merge-toast", "homepage"}, names)
}

func TestLookup_UnknownIsInvalidArgument(t *testing.T) {
	t.Parallel()

	_, err := Lookup([]string{"favicon", "nope"})
	require.Error(t, err)
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
	require.Contains(t, err.Error(), `"nope"`)
	require.Contains(t, err.Error(), "bulk-merge-toast")

	_, err = Lookup(nil)
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}

func TestCatalog_NamesAreUnique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, sc := range Catalog() {
		require.NotEmpty(t, sc.Description())
		require.False(t, seen[sc.Name()], "duplicate scenario %s", sc.Name())
		seen[sc.Name()] = true
	}
	require.False(t, seen["all"])
}

// =============================================================================
// Runner without a browser
// =============================================================================

func TestRunner_LaunchFailureIsSetupError(t *testing.T) {
	t.Parallel()

	r := NewRunner(&config.Config{}, artifact.NewStore(t.TempDir(), nil), nil)
	r.launch = func(ctx context.Context, opts browser.Options) (*browser.Session, error) {
		return nil, errs.New(errs.Setup, "launch chromium")
	}

	res := r.Run(context.Background(), Favicon{})
	require.False(t, res.Passed())
	require.Equal(t, errs.Setup, errs.CodeOf(res.Err))
	require.Equal(t, "favicon", res.Scenario)
	require.NotEmpty(t, res.RunID)
	require.False(t, res.Finished.Before(res.Started))
}

func TestRunner_RunAllStopsOnCancel(t *testing.T) {
	t.Parallel()

	launches := 0
	r := NewRunner(&config.Config{}, artifact.NewStore(t.TempDir(), nil), nil)
	r.launch = func(ctx context.Context, opts browser.Options) (*browser.Session, error) {
		launches++
		return nil, errs.New(errs.Setup, "launch chromium")
	}

	results := r.RunAll(context.Background(), Catalog())
	require.Len(t, results, len(Catalog()))
	require.Equal(t, len(Catalog()), launches)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Empty(t, r.RunAll(ctx, Catalog()))
}

// =============================================================================
// Browser scenarios
// =============================================================================

type browserEnv struct {
	runner *Runner
	store  *artifact.Store
	out    *bytes.Buffer
	dir    string
}

// newBrowserEnv serves the fixture app and returns a runner pointed at it.
// The test is skipped when Playwright or Chromium is not installed.
func newBrowserEnv(t *testing.T, appOpts testapp.Options) *browserEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	srv, err := testapp.Start(appOpts)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		BaseURL:           srv.URL,
		Headless:          true,
		BrowserArgs:       config.DefaultBrowserArgs,
		ViewportWidth:     1280,
		ViewportHeight:    720,
		DefaultTimeout:    5 * time.Second,
		NavigationTimeout: 15 * time.Second,
		ElementTimeout:    3 * time.Second,
		SettleDelay:       200 * time.Millisecond,
		ArtifactDir:       t.TempDir(),
	}

	env := &browserEnv{
		store: artifact.NewStore(cfg.ArtifactDir, nil),
		out:   &bytes.Buffer{},
		dir:   cfg.ArtifactDir,
	}
	env.runner = NewRunner(cfg, env.store, env.out)
	env.runner.launch = func(ctx context.Context, opts browser.Options) (*browser.Session, error) {
		s, err := browser.Launch(ctx, opts)
		if err != nil {
			t.Skip("Playwright not available:", err)
		}
		return s, nil
	}
	return env
}

func (env *browserEnv) requireArtifact(t *testing.T, name string) {
	t.Helper()
	info, err := os.Stat(filepath.Join(env.dir, name))
	require.NoError(t, err, "missing %s", name)
	require.Positive(t, info.Size())
}

func artifactNames(res Result) []string {
	var names []string
	for _, a := range res.Artifacts {
		names = append(names, a.Name)
	}
	return names
}

func findMock(res Result, pattern string) (intercept.Rule, bool) {
	for _, rule := range res.Mocks {
		if rule.Pattern == pattern {
			return rule, true
		}
	}
	return intercept.Rule{}, false
}

func mockRule(t *testing.T, res Result, pattern string) intercept.Rule {
	t.Helper()
	rule, ok := findMock(res, pattern)
	require.True(t, ok, "no mock for %s in %+v", pattern, res.Mocks)
	return rule
}

func TestBrowser_Favicon_Passes(t *testing.T) {
	env := newBrowserEnv(t, testapp.Options{})

	res := env.runner.Run(context.Background(), Favicon{})
	require.NoError(t, res.Err)
	require.Equal(t, []string{"app_with_favicon.png"}, artifactNames(res))
	env.requireArtifact(t, "app_with_favicon.png")
	require.Contains(t, env.out.String(), "Favicon verification passed!")
}

func TestBrowser_Favicon_WrongHrefFails(t *testing.T) {
	env := newBrowserEnv(t, testapp.Options{FaviconHref: "/favicon.ico"})

	res := env.runner.Run(context.Background(), Favicon{})
	require.Error(t, res.Err)
	require.Equal(t, errs.Assertion, errs.CodeOf(res.Err))
	require.Contains(t, res.Err.Error(), "/favicon.ico")
	require.Empty(t, res.Artifacts)
	require.NotContains(t, env.out.String(), "passed")
}

func TestBrowser_BulkMergeToast_Passes(t *testing.T) {
	env := newBrowserEnv(t, testapp.Options{})

	res := env.runner.Run(context.Background(), BulkMergeToast{})
	require.NoError(t, res.Err, env.out.String())
	require.Equal(t, []string{"toast_visible.png", "global_modal.png"}, artifactNames(res))
	env.requireArtifact(t, "toast_visible.png")
	env.requireArtifact(t, "global_modal.png")
	_, err := os.Stat(filepath.Join(env.dir, errorScreenshot))
	require.True(t, os.IsNotExist(err))

	// One listing query on generation 1, then two merges on generation 2.
	graphql := mockRule(t, res, fixtures.GraphQLPattern)
	require.Equal(t, 2, graphql.Generation)
	require.GreaterOrEqual(t, graphql.Hits, 3)
	require.Equal(t, 1, mockRule(t, res, fixtures.TokenPattern).Generation)
	require.Equal(t, 1, mockRule(t, res, fixtures.PermissionsPattern).Generation)
}

func TestBrowser_BulkMergeToast_MergesAnsweredByListingFail(t *testing.T) {
	env := newBrowserEnv(t, testapp.Options{})

	res := env.runner.Run(context.Background(), BulkMergeToast{withoutMergeMock: true})
	require.Error(t, res.Err)
	require.Equal(t, errs.Assertion, errs.CodeOf(res.Err))
	require.Contains(t, res.Err.Error(), fixtures.MergeOutcomeLabel(2, 0))
	env.requireArtifact(t, errorScreenshot)
	require.Equal(t, 1, mockRule(t, res, fixtures.GraphQLPattern).Generation)
	require.Contains(t, env.out.String(), "Test failed:")
}

func TestBrowser_BulkMergeToast_WithoutListingFails(t *testing.T) {
	env := newBrowserEnv(t, testapp.Options{})

	res := env.runner.Run(context.Background(), BulkMergeToast{WithoutListingMock: true})
	require.Error(t, res.Err)
	require.Equal(t, errs.Timeout, errs.CodeOf(res.Err))
	require.Contains(t, res.Err.Error(), "owner/repo")
	require.Equal(t, []string{errorScreenshot}, artifactNames(res))
	env.requireArtifact(t, errorScreenshot)
	_, listed := findMock(res, fixtures.GraphQLPattern)
	require.False(t, listed, "listing must stay unmocked")
	require.True(t, strings.Contains(env.out.String(), "Test failed:"))
}

func TestBrowser_Homepage_SearchNavigates(t *testing.T) {
	env := newBrowserEnv(t, testapp.Options{})

	res := env.runner.Run(context.Background(), Homepage{})
	require.NoError(t, res.Err, env.out.String())
	env.requireArtifact(t, "homepage.png")
}

func TestBrowser_Navigation_AllRoutesHaveHeadings(t *testing.T) {
	env := newBrowserEnv(t, testapp.Options{})

	res := env.runner.Run(context.Background(), Navigation{})
	require.NoError(t, res.Err, env.out.String())
	out := env.out.String()
	require.Contains(t, out, "/orgs -> Organizações")
	require.Contains(t, out, "/org/facebook -> facebook")
	require.Contains(t, out, "/facebook/react -> facebook/react")
}

func TestHomepage_SearchSelectorsTargetTheirFields(t *testing.T) {
	t.Parallel()

	require.Contains(t, ownerInputSelector, "'"+searchOwner+"'")
	require.Contains(t, repoInputSelector, "'"+searchRepo+"'")
	require.NotEqual(t, ownerInputSelector, repoInputSelector)
	require.Contains(t, searchButtonSelector, fixtures.SearchButtonLabel)
	require.Contains(t, homeTitleSelector, fixtures.AppTitle)
}
