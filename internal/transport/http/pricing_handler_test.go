package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optlattice/internal/config"
	"optlattice/internal/services"
	api "optlattice/pkg/contracts/api/v1"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pricingService := services.NewPricingService(config.Default(), nil, nil, logger)
	healthService := services.NewHealthService("test", "", t.TempDir(), nil, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewPricingHandler(pricingService, logger).RegisterRoutes(r)
		NewHealthHandler(healthService, logger).RegisterRoutes(r)
	})
	return r
}

func postJSON(t *testing.T, router chi.Router, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPricingHandler_Value(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/pricing/value", api.ValueRequest{
		Spot:       100,
		Strike:     100,
		Maturity:   1,
		Rate:       0.05,
		Volatility: 0.25,
		Kind:       "put",
		Style:      "american",
		Steps:      300,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ValueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.RequestID)
	assert.InDelta(t, 7.971, resp.Value, 0.01)
	assert.InDelta(t, 7.459, resp.EuropeanValue, 0.02)
	assert.Greater(t, resp.EarlyExercisePremium, 0.0)
	assert.Equal(t, 300, resp.Calibration.StepCount)
}

func TestPricingHandler_Value_WithBoundary(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/pricing/value", api.ValueRequest{
		Spot:         100,
		Strike:       100,
		Maturity:     1,
		Rate:         0.05,
		Volatility:   0.25,
		Kind:         "put",
		Steps:        50,
		WithBoundary: true,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ValueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Boundary, 51)
}

func TestPricingHandler_Value_MalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/pricing/value", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestPricingHandler_Value_ValidationError(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/pricing/value", api.ValueRequest{
		Spot: -1,
		Kind: "put",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, float64(http.StatusBadRequest), problem["status"])
	assert.NotEmpty(t, problem["type"])
}

func TestPricingHandler_Chain(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/pricing/chain", api.ChainRequest{
		Spot:       100,
		Maturity:   1,
		Rate:       0.05,
		Volatility: 0.25,
		Kind:       "put",
		Steps:      100,
		Strikes:    []float64{90, 100, 110},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ChainResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Entries, 3)
	assert.Equal(t, 90.0, resp.Entries[0].Strike)
	assert.Greater(t, resp.Entries[2].Value, resp.Entries[0].Value)
}

func TestPricingHandler_Chain_NoStrikes(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/pricing/chain", api.ChainRequest{
		Spot:       100,
		Maturity:   1,
		Volatility: 0.25,
		Kind:       "put",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPricingHandler_Grid(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/pricing/grid", api.GridRequest{
		Spot:       100,
		Strike:     100,
		Maturity:   1,
		Rate:       0.05,
		Volatility: 0.25,
		Kind:       "put",
		Steps:      10,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.GridResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 10, resp.Steps)
	assert.Len(t, resp.Values, 11)
	assert.Len(t, resp.Values[10], 11)
	assert.Len(t, resp.Policy, 11)
}

func TestPricingHandler_Grid_StepCap(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/pricing/grid", api.GridRequest{
		Spot:       100,
		Strike:     100,
		Maturity:   1,
		Volatility: 0.25,
		Kind:       "put",
		Steps:      config.Default().Pricing.MaxGridSteps + 1,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
