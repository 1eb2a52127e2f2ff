package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optlattice/internal/config"
	"optlattice/internal/infrastructure"
	api "optlattice/pkg/contracts/api/v1"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	cfg := config.Default()
	cfg.Pricing.OutputDir = t.TempDir()

	otelCfg := &infrastructure.OTelConfig{
		ServiceName:    "optlattice-test",
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
	}

	a, err := NewApplicationWithConfig(cfg, otelCfg)
	require.NoError(t, err)
	t.Cleanup(a.WebSocketHub.Stop)
	return a
}

func TestApplication_HealthRoute(t *testing.T) {
	a := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestApplication_PricingRoute(t *testing.T) {
	a := newTestApplication(t)

	body, err := json.Marshal(api.ValueRequest{
		Spot:       100,
		Strike:     100,
		Maturity:   1,
		Rate:       0.05,
		Volatility: 0.25,
		Kind:       "put",
		Steps:      100,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/pricing/value", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ValueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Greater(t, resp.Value, 0.0)
}

func TestApplication_NotFoundIsProblemJSON(t *testing.T) {
	a := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/no-such-route", nil)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestApplication_SecurityHeaders(t *testing.T) {
	a := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestApplication_RequestIDHeader(t *testing.T) {
	a := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestApplication_MetricsRouteDisabled(t *testing.T) {
	a := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_WebSocketConnect(t *testing.T) {
	a := newTestApplication(t)

	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(msg, &envelope))
	assert.Equal(t, "connection", envelope["type"])
}

func TestApplication_ServerLifecycle(t *testing.T) {
	a := newTestApplication(t)
	a.Config.Server.Port = 0 // not actually listening in this test

	require.NotNil(t, a.Server)
	assert.Equal(t, a.Router, a.Server.Handler)
	assert.Equal(t, a.Config.Server.ReadTimeout, a.Server.ReadTimeout)
}
