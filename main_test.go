package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus"
)

// newTestServer builds a server against a private metrics registry so tests
// can run in any order without fighting over the global one.
func newTestServer(t *testing.T) (*server, http.Handler) {
	t.Helper()

	s := &server{
		store:      &zoneStore{},
		classifier: NewZoneClassifier(),
		cfg:        DefaultFeasibilityConfig(),
		metrics:    NewPlannerMetrics(prometheus.NewRegistry()),
	}
	s.engine = NewFeasibilityEngine(s.cfg)
	return s, newRouter(s)
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func zoneFeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Polygon{
		{{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0}},
	})
	f.ID = "square"
	fc.Append(f)
	return fc
}

func TestHandleHealth(t *testing.T) {
	_, h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ready" {
		t.Errorf("got body %v", body)
	}
}

func TestHandleReplaceZonesAndActive(t *testing.T) {
	_, h := newTestServer(t)

	w := postJSON(t, h, "/zones", zoneFeatureCollection())
	if w.Code != http.StatusOK {
		t.Fatalf("replace zones: got status %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/zones/active", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("active zones: got status %d", w.Code)
	}

	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("got %d features, want 1", len(fc.Features))
	}
	if got := fc.Features[0].Properties.MustString("status", ""); got != string(StatusActive) {
		t.Errorf("status property: got %q", got)
	}
}

func TestHandleRouteDetours(t *testing.T) {
	_, h := newTestServer(t)

	if w := postJSON(t, h, "/zones", zoneFeatureCollection()); w.Code != http.StatusOK {
		t.Fatalf("replace zones: got status %d", w.Code)
	}

	w := postJSON(t, h, "/route", routeRequest{
		Start: orb.Point{-0.005, 0.005},
		End:   orb.Point{0.015, 0.005},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("route: got status %d: %s", w.Code, w.Body.String())
	}

	var resp routeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Errorf("route not clean: %+v", resp)
	}
	if len(resp.Path) <= 2 {
		t.Errorf("expected a detour, got %v", resp.Path)
	}
	if resp.DistanceMeters <= 0 {
		t.Errorf("distance missing: %v", resp.DistanceMeters)
	}
}

func TestHandleRouteValidation(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/route", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("broken body: got status %d", w.Code)
	}

	w = postJSON(t, h, "/route", routeRequest{
		Start:     orb.Point{0, 0},
		End:       orb.Point{1, 1},
		Algorithm: "teleport",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown algorithm: got status %d", w.Code)
	}

	w = postJSON(t, h, "/route", routeRequest{
		Start: orb.Point{0, 0},
		End:   orb.Point{1, 1},
		At:    "yesterday",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad timestamp: got status %d", w.Code)
	}
}

func TestHandleFeasibility(t *testing.T) {
	_, h := newTestServer(t)

	w := postJSON(t, h, "/feasibility", feasibilityRequest{
		DistanceMeters:      5000,
		AverageWindSpeedMPS: 2,
		MaxGustSpeedMPS:     3,
		WindFromDegrees:     0,
		Source:              orb.Point{0, 0},
		Destination:         orb.Point{0, 0.05},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", w.Code, w.Body.String())
	}

	var res FeasibilityResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.OK {
		t.Errorf("expected GO: %+v", res)
	}

	w = postJSON(t, h, "/feasibility", feasibilityRequest{DistanceMeters: 0})
	var noGo FeasibilityResult
	if err := json.Unmarshal(w.Body.Bytes(), &noGo); err != nil {
		t.Fatal(err)
	}
	if noGo.OK || len(noGo.NoGoReasons) == 0 {
		t.Errorf("expected NO-GO for zero distance: %+v", noGo)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t)

	postJSON(t, h, "/feasibility", feasibilityRequest{DistanceMeters: 1000,
		Source: orb.Point{0, 0}, Destination: orb.Point{0, 0.01}})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "planner_requests_total") {
		t.Error("request counter missing from metrics output")
	}
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/route", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("preflight: got status %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS header: got %q", got)
	}
}
