package intercept

import (
	"context"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/margea-verify/internal/testapp"
)

// TestBrowser_PlaywrightInstaller_SwapsResponder drives fetches from a real
// page so the route handler, not a fake, sees the swap.
func TestBrowser_PlaywrightInstaller_SwapsResponder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	srv, err := testapp.Start(testapp.Options{})
	require.NoError(t, err)
	defer srv.Close()

	pw, err := playwright.Run()
	if err != nil {
		t.Skip("Playwright not available:", err)
	}
	defer func() { _ = pw.Stop() }()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Skip("Could not launch browser:", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	require.NoError(t, err)
	defer page.Close()

	ctx := context.Background()
	reg := NewRegistry(ctx, ForPage(ctx, page))
	require.NoError(t, reg.Register("**/mocked", RawJSON(`{"v":1}`)))

	_, err = page.Goto(srv.URL + "/orgs")
	require.NoError(t, err)

	fetchV := func() any {
		v, err := page.Evaluate(`() => fetch('/mocked', {method: 'POST', body: 'x'}).then(r => r.json()).then(b => b.v)`)
		require.NoError(t, err)
		return v
	}
	require.EqualValues(t, 1, fetchV())

	require.NoError(t, reg.Register("**/mocked", RawJSON(`{"v":2}`)))
	require.EqualValues(t, 2, fetchV())
	require.Equal(t, 2, reg.Hits("**/mocked"))

	require.NoError(t, reg.Unregister("**/mocked"))
	ct, err := page.Evaluate(`() => fetch('/mocked').then(r => r.headers.get('content-type'))`)
	require.NoError(t, err)
	require.Contains(t, ct, "text/html")
}
