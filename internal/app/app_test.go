// Package app_test contains unit tests for the app package.
package app_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/wp-inspector/internal/app"
	"github.com/JakeFAU/wp-inspector/internal/clock/system"
	"github.com/JakeFAU/wp-inspector/internal/config"
	"github.com/JakeFAU/wp-inspector/internal/fetcher/fake"
)

const astraPage = `<!doctype html><html><head>
<title>Tienda Demo</title>
<link rel="stylesheet" href="/wp-content/themes/astra/style.css">
</head><body><p>hola</p></body></html>`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Registry.Enabled = false
	cfg.RateLimit.MaxRequests = 1
	return cfg
}

func TestNewAppInspectsThroughHandler(t *testing.T) {
	t.Parallel()

	f := fake.New().HTML("https://shop.example/", astraPage)
	now := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	a, err := app.NewApp(testConfig(t), zap.NewNop(), app.Options{Fetcher: f, Clock: system.NewManual(now)})
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.GetLogger())
	assert.NotNil(t, a.GetInspector())
	assert.Equal(t, 1, a.GetConfig().RateLimit.MaxRequests)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/inspect?url=https://shop.example", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		IsWordPress bool      `json:"isWordPress"`
		SiteName    string    `json:"siteName"`
		ScannedAt   time.Time `json:"scannedAt"`
		Theme       struct {
			Name string `json:"name"`
		} `json:"theme"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.IsWordPress)
	assert.Equal(t, "Tienda Demo", body.SiteName)
	assert.Equal(t, "Astra", body.Theme.Name)
	assert.True(t, now.Equal(body.ScannedAt))
}

func TestNewAppSharesLimiterAcrossRequests(t *testing.T) {
	t.Parallel()

	f := fake.New().HTML("https://shop.example/", astraPage)
	a, err := app.NewApp(testConfig(t), nil, app.Options{Fetcher: f})
	require.NoError(t, err)
	defer a.Close()

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/inspect?url=https://shop.example", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())

	a.GetLimiter().Reset()
	assert.Equal(t, http.StatusOK, do())
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Server.Port = 0
	_, err := app.NewApp(cfg, nil, app.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := testConfig(t)
	cfg.Server.Port = port
	a, err := app.NewApp(cfg, nil, app.Options{Fetcher: fake.New()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestNewAppBlocksPrivateTargets(t *testing.T) {
	t.Parallel()

	f := fake.New().HTML("http://127.0.0.1/", astraPage)
	a, err := app.NewApp(testConfig(t), nil, app.Options{Fetcher: f})
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/inspect?url=http://127.0.0.1/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.Requests())
}
