/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	cfg := validConfig()
	cfg.mockImages = true
	cfg.playerTimeout = time.Minute
	cfg.seed = 1

	return cfg
}

func serve(t *testing.T, cfg *Config, method, target string) *http.Response {
	t.Helper()

	errs := make(chan error, 8)
	rec := httptest.NewRecorder()
	newRouter(cfg, errs).ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	return rec.Result()
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(raw)
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		target      string
		status      int
		contentType string
		contains    string
	}{
		{"Home", "/", http.StatusOK, "text/html; charset=utf-8", "Start a new game"},
		{"Health", "/healthz", http.StatusOK, "text/plain; charset=utf-8", "Ok"},
		{"Version", "/version", http.StatusOK, "text/plain; charset=utf-8", "promptphone v" + releaseVersion},
		{"Robots", "/robots.txt", http.StatusOK, "text/plain; charset=utf-8", "Disallow: /telephone/"},
		{"Script", "/assets/telephone/app.js", http.StatusOK, "text/javascript; charset=utf-8", ""},
		{"Stylesheet", "/assets/telephone/app.css", http.StatusOK, "text/css; charset=utf-8", ""},
		{"Favicon", "/favicon.svg", http.StatusOK, "image/svg+xml", "<svg"},
		{"Game Page", "/telephone/abcd1234", http.StatusOK, "text/html; charset=utf-8", "<html"},
		{"Missing Asset", "/assets/telephone/nope.js", http.StatusNotFound, "", ""},
		{"Escaping Assets", "/assets/../main.go", http.StatusNotFound, "", ""},
		{"Unknown Path", "/nowhere", http.StatusNotFound, "text/html; charset=utf-8", "Not Found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			resp := serve(t, testConfig(), http.MethodGet, tc.target)

			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.contentType != "" {
				assert.Equal(t, tc.contentType, resp.Header.Get("Content-Type"))
			}
			if tc.contains != "" {
				assert.Contains(t, body(t, resp), tc.contains)
			}
			if resp.StatusCode == http.StatusOK {
				assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			}
		})
	}
}

func TestNewGameRedirect(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.prefix = "/party"

	resp := serve(t, cfg, http.MethodGet, "/party/telephone")

	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	loc := resp.Header.Get("Location")
	assert.True(t, strings.HasPrefix(loc, "/party/telephone/"), loc)
	assert.Len(t, strings.TrimPrefix(loc, "/party/telephone/"), 8)
}

func TestQRCode(t *testing.T) {
	t.Parallel()

	resp := serve(t, testConfig(), http.MethodGet, "/telephone/abcd1234/qr")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body(t, resp), "\x89PNG"))
}

func TestGamePageSetsPlayerCookie(t *testing.T) {
	t.Parallel()

	resp := serve(t, testConfig(), http.MethodGet, "/telephone/abcd1234")

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == playerCookieName {
			found = true
			assert.NotEmpty(t, c.Value)
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found)
}

func TestGetOrSetPlayerID(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: playerCookieName, Value: "returning"})
	w := httptest.NewRecorder()

	assert.Equal(t, "returning", getOrSetPlayerID(w, r))
	assert.Empty(t, w.Result().Cookies())

	w = httptest.NewRecorder()
	id := getOrSetPlayerID(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, id)
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, id, w.Result().Cookies()[0].Value)
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	w := httptest.NewRecorder()
	securityHeaders(cfg, w)
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "img-src 'self' data: https:")

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	w = httptest.NewRecorder()
	securityHeaders(cfg, w)
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRealIP(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{"Remote Address", "192.0.2.1:4000", nil, "192.0.2.1:4000"},
		{"Cloudflare", "192.0.2.1:4000", map[string]string{"CF-Connecting-IP": "198.51.100.7"}, "198.51.100.7:4000"},
		{"Real IP", "192.0.2.1:4000", map[string]string{"X-Real-IP": "198.51.100.8"}, "198.51.100.8:4000"},
		{"Garbage Header", "192.0.2.1:4000", map[string]string{"X-Real-IP": "not an ip"}, "192.0.2.1:4000"},
		{"IPv6", "[2001:db8::1]:4000", nil, "[2001:db8::1]:4000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.header {
				r.Header.Set(k, v)
			}

			assert.Equal(t, tc.want, realIP(r))
		})
	}
}

func TestHumanReadableSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "999 B", humanReadableSize(999))
	assert.Equal(t, "1.5 kB", humanReadableSize(1500))
	assert.Equal(t, "2.0 MB", humanReadableSize(2_000_000))
}
