package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taigahorikawa-droid/body-track/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestMetrics(t *testing.T) {
	metricsManager, registry := metrics.NewTestManagerAndRegistry()

	r := mux.NewRouter()
	r.HandleFunc("/entries", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}).Methods("POST").Name("new-entry")
	r.Use(RequestMetrics(metricsManager))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/entries", nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily)
	for _, mf := range metricFamilies {
		byName[mf.GetName()] = mf
	}

	requests := byName["backend_test_server_request"]
	require.NotNil(t, requests)
	require.Len(t, requests.GetMetric(), 1)
	assert.Equal(t, float64(1), requests.GetMetric()[0].GetCounter().GetValue())

	labels := make(map[string]string)
	for _, l := range requests.GetMetric()[0].GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	assert.Equal(t, "POST", labels["method"])
	assert.Equal(t, "201", labels["status"])

	durations := byName["backend_test_server_request_duration_seconds"]
	require.NotNil(t, durations)
	require.Len(t, durations.GetMetric(), 1)
	assert.Equal(t, uint64(1), durations.GetMetric()[0].GetHistogram().GetSampleCount())

	labels = make(map[string]string)
	for _, l := range durations.GetMetric()[0].GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	assert.Equal(t, "new-entry", labels["route"])
}
