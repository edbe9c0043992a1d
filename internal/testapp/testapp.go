// Package testapp serves a small stand-in for the Margea dashboard with the
// DOM the verification scenarios drive. Its backend endpoints are
// deliberately unreachable so every scenario has to mock them.
package testapp

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/kuitang/margea-verify/internal/obs"
)

//go:embed index.html
var indexHTML string

//go:embed logo.svg
var logoSVG []byte

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

// Options tweaks the fixture app.
type Options struct {
	// FaviconHref is the href of link[rel=icon]. Defaults to /logo.svg.
	FaviconHref string
}

// Handler returns the fixture app's HTTP handler.
func Handler(opts Options) (http.Handler, error) {
	if opts.FaviconHref == "" {
		opts.FaviconHref = "/logo.svg"
	}
	var page bytes.Buffer
	if err := indexTmpl.Execute(&page, opts); err != nil {
		return nil, err
	}
	index := page.Bytes()

	mux := http.NewServeMux()
	mux.HandleFunc("/logo.svg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(logoSVG)
	})
	unreachable := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"backend not available in fixture"}`, http.StatusServiceUnavailable)
	}
	mux.HandleFunc("/graphql", unreachable)
	mux.HandleFunc("/api/", unreachable)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ".") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(index)
	})
	return obs.AccessLogMiddleware("testapp", mux), nil
}

// Start serves the fixture app on a loopback port until the returned server
// is closed.
func Start(opts Options) (*httptest.Server, error) {
	h, err := Handler(opts)
	if err != nil {
		return nil, err
	}
	return httptest.NewServer(h), nil
}
