package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Harshitk-cp/adaptplan/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// Handlers reached by these tests never touch the stores.
func testApp(t *testing.T, db pinger, apiKey string) *App {
	t.Helper()
	logger := zap.NewNop()
	models := service.NewModelService(nil, nil, nil, logger)
	return newApp(db, Services{
		Models:   models,
		Planners: service.NewPlannerService(models, nil, nil, service.PlannerOptions{}, logger),
	}, apiKey, logger)
}

func get(app *App, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(testApp(t, fakePinger{}, ""), "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "dev", body["version"])

	rec = get(testApp(t, fakePinger{err: errors.New("connection refused")}, ""), "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetrics(t *testing.T) {
	app := testApp(t, fakePinger{}, "")
	get(app, "/v1/models/not-a-uuid", "")

	rec := get(app, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["request_count"])
	assert.Equal(t, float64(1), body["error_count"])
	assert.Equal(t, float64(0), body["cached_planners"])
}

func TestPrometheusEndpoint(t *testing.T) {
	rec := get(testApp(t, fakePinger{}, ""), "/metrics/prometheus", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestV1RequiresAPIKey(t *testing.T) {
	app := testApp(t, fakePinger{}, "s3cret")

	assert.Equal(t, http.StatusUnauthorized, get(app, "/v1/models/not-a-uuid", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(app, "/v1/adaptations/not-a-uuid", "Bearer wrong").Code)
	assert.Equal(t, http.StatusBadRequest, get(app, "/v1/models/not-a-uuid", "Bearer s3cret").Code)

	// health stays open
	assert.Equal(t, http.StatusOK, get(app, "/health", "").Code)
}
