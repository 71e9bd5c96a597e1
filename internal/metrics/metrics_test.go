package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/api/observations", "/api/observations"},
		{"/healthz", "/healthz"},
		{"/metrics", "/metrics"},

		{"/api/observations/1", "other"},
		{"/wp-admin", "other"},
		{"/.env", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizeRoute(tt.path); got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func scrape(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	b, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestMiddlewareAndCacheCountersExported(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/wp-login.php", nil))
	ObserveCacheResult("HIT")
	ObserveUpstream(20*time.Millisecond, errors.New("boom"))

	body := scrape(t)
	for _, want := range []string{
		`skyproxy_http_requests_total{code="418",method="GET",path="other"}`,
		`skyproxy_cache_results_total{result="HIT"}`,
		`skyproxy_upstream_errors_total`,
		`skyproxy_upstream_duration_seconds_count`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %s", want)
		}
	}
}

func TestEngineRecorderAndOutputLevel(t *testing.T) {
	var r EngineRecorder
	r.Started()
	r.ObservationApplied()
	r.EvolutionTicked()
	r.Stopped()
	if err := RegisterOutputLevel(func() float64 { return 0.25 }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterOutputLevel(func() float64 { return 0.5 }); err != nil {
		t.Fatalf("second register: %v", err)
	}

	body := scrape(t)
	for _, want := range []string{
		"skydrone_engine_starts_total 1",
		"skydrone_engine_stops_total 1",
		"skydrone_observations_applied_total 1",
		"skydrone_evolution_ticks_total 1",
		"skydrone_output_level 0.25",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}
