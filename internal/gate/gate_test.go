package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideLaunchMode(t *testing.T) {
	g := New(ModeLaunch, "")
	cases := []struct {
		path string
		want string
		pass bool
	}{
		{"/admin/x", "/admin/x", true},
		{"/api/countries", "/api/countries", true},
		{"/sign-in", "/sign-in", true},
		{"/app.js", "/app.js", true},
		{"/_next/static/chunk", "/_next/static/chunk", true},
		{"/coming-soon", "/coming-soon", true},
		{"/random/path", "/coming-soon", false},
		{"/", "/coming-soon", false},
		{"/apiary", "/coming-soon", false},
	}
	for _, tc := range cases {
		got, pass := g.Decide(tc.path)
		assert.Equal(t, tc.want, got, tc.path)
		assert.Equal(t, tc.pass, pass, tc.path)
	}
}

func TestDecidePublicMode(t *testing.T) {
	g := New(ModePublic, "/soon")
	cases := map[string]bool{
		"/":             true,
		"/about":        true,
		"/api/waitlist": true,
		"/soon":         true,
		"/favicon.ico":  true,
		"/admin/x":      false,
		"/api/cart":     false,
		"/countries/jp": false,
	}
	for path, pass := range cases {
		_, got := g.Decide(path)
		assert.Equal(t, pass, got, path)
	}
}

func TestWrapRewritesPath(t *testing.T) {
	var seen []string
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
	})
	h := New(ModeLaunch, "").Wrap(next)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/random/path?x=1", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/x", nil))

	assert.Equal(t, []string{"POST /coming-soon?x=1", "GET /admin/x?"}, seen)
}
