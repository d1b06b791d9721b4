package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountsByRoutePattern(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	router := chi.NewRouter()
	router.Use(m.Handler)
	router.Get("/videos/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Two different IDs must land on the same route label.
	for _, path := range []string{"/videos/abc", "/videos/def"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/videos/{id}", "200"))
	if got != 2 {
		t.Errorf("requests_total{route=/videos/{id}} = %v, want 2", got)
	}
}

func TestMetricsRecordsStatus(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	router := chi.NewRouter()
	router.Use(m.Handler)
	router.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/missing", "404"))
	if got != 1 {
		t.Errorf("requests_total{status=404} = %v, want 1", got)
	}
}
