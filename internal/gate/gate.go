// Package gate keeps a pre-launch site behind a coming-soon page while
// letting API, auth and admin traffic through.
package gate

import (
	"net/http"
	"strings"
)

type Mode string

const (
	// ModeLaunch lets API, auth and admin routes through.
	ModeLaunch Mode = "launch"
	// ModePublic lets only a small set of public pages through.
	ModePublic Mode = "public"
)

// DefaultPlaceholder is where gated requests are rewritten to.
const DefaultPlaceholder = "/coming-soon"

const assetsPrefix = "/_next/"

var launchAllow = []string{"/api", "/sign-in", "/sign-up", "/admin"}

var publicAllow = []string{"/about", "/privacy", "/terms", "/api/waitlist"}

// Gate decides per request path whether to pass or rewrite.
type Gate struct {
	placeholder string
	prefixes    []string
	exact       map[string]bool
}

func New(mode Mode, placeholder string) *Gate {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	g := &Gate{placeholder: placeholder, exact: map[string]bool{placeholder: true}}
	switch mode {
	case ModePublic:
		g.prefixes = publicAllow
		g.exact["/"] = true
	default:
		g.prefixes = launchAllow
	}
	return g
}

// Placeholder returns the rewrite target.
func (g *Gate) Placeholder() string {
	return g.placeholder
}

// Decide returns the path a request for path should be served from.
func (g *Gate) Decide(path string) (target string, pass bool) {
	if g.allowed(path) {
		return path, true
	}
	return g.placeholder, false
}

func (g *Gate) allowed(path string) bool {
	if g.exact[path] {
		return true
	}
	if strings.Contains(path, ".") || strings.HasPrefix(path, assetsPrefix) {
		return true
	}
	for _, p := range g.prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Wrap rewrites gated requests to the placeholder before they reach next.
// Method, query and headers are kept.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target, pass := g.Decide(r.URL.Path)
		if !pass {
			r = r.Clone(r.Context())
			r.URL.Path = target
			r.URL.RawPath = ""
		}
		next.ServeHTTP(w, r)
	})
}
