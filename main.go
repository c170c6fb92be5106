package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// zoneStore holds the current zone set and its spatial index. The zone list
// is replaced wholesale on refresh; individual zones are never mutated, so
// snapshots are safe to hand to concurrent planning requests.
type zoneStore struct {
	mu    sync.RWMutex
	zones []*Zone
	index *ZoneIndex
}

func (s *zoneStore) Replace(zones []*Zone) {
	index := NewZoneIndex(zones)
	s.mu.Lock()
	s.zones = zones
	s.index = index
	s.mu.Unlock()
}

func (s *zoneStore) Snapshot() ([]*Zone, *ZoneIndex) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zones, s.index
}

type server struct {
	store      *zoneStore
	classifier *ZoneClassifier
	engine     *FeasibilityEngine
	cfg        FeasibilityConfig
	metrics    *PlannerMetrics
}

// newRouter wires the HTTP surface.
func newRouter(s *server) http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.metrics.Handler().ServeHTTP)
	r.Get("/zones/active", s.handleActiveZones)
	r.Post("/zones", s.handleReplaceZones)
	r.Post("/route", s.handleRoute)
	r.Post("/feasibility", s.handleFeasibility)

	return r
}

// corsMiddleware adds CORS headers to allow frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type routeRequest struct {
	Start     orb.Point `json:"start"`
	End       orb.Point `json:"end"`
	At        string    `json:"at,omitempty"`        // RFC3339; empty means now
	Algorithm string    `json:"algorithm,omitempty"` // "detour" (default) or "sampling"
}

type intersectedZone struct {
	ID     string     `json:"id"`
	Status ZoneStatus `json:"status"`
}

type routeResponse struct {
	Path           orb.LineString    `json:"path"`
	DistanceMeters float64           `json:"distanceMeters"`
	Intersected    []intersectedZone `json:"intersected"`
	Success        bool              `json:"success"`
	Message        string            `json:"message,omitempty"`
}

func (s *server) handleRoute(w http.ResponseWriter, r *http.Request) {
	log.Println("========================================")
	log.Println("📍 Route request received")

	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		s.metrics.Requests.WithLabelValues("route", "error").Inc()
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now()
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			s.metrics.Requests.WithLabelValues("route", "error").Inc()
			writeJSONError(w, http.StatusBadRequest, "invalid 'at' timestamp")
			return
		}
		now = parsed
	}

	log.Printf("   Start: (%.6f, %.6f)\n", req.Start[0], req.Start[1])
	log.Printf("   End:   (%.6f, %.6f)\n", req.End[0], req.End[1])

	zones, index := s.store.Snapshot()
	if index != nil {
		margin := planar.Distance(req.Start, req.End) / 2
		zones = index.Near(req.Start, req.End, margin)
	}
	zones = FilterByAltitude(zones, s.cfg.CruiseAltitudeMeters)
	active := ClassifyZones(s.classifier, zones, now)
	log.Printf("   Active zones near route: %d\n", len(active))

	var planner RoutePlanner
	switch req.Algorithm {
	case "", "detour":
		planner = NewDetourPlanner()
	case "sampling":
		planner = NewSamplingPlanner()
	default:
		s.metrics.Requests.WithLabelValues("route", "error").Inc()
		writeJSONError(w, http.StatusBadRequest, "unknown algorithm")
		return
	}

	planStart := time.Now()
	result := planner.Plan(req.Start, req.End, active)
	s.metrics.PlanDuration.Observe(time.Since(planStart).Seconds())

	resp := routeResponse{
		Path:           result.Path,
		DistanceMeters: pathLengthMeters(result.Path),
		Intersected:    make([]intersectedZone, 0, len(result.Intersected)),
		Success:        len(result.Intersected) == 0,
	}
	for _, z := range result.Intersected {
		resp.Intersected = append(resp.Intersected, intersectedZone{ID: z.ID, Status: z.Status})
	}
	if !resp.Success {
		resp.Message = "path still crosses zones; see intersected"
		log.Printf("⚠️  Path still crosses %d zones\n", len(resp.Intersected))
	} else {
		log.Printf("✅ Path found with %d waypoints\n", len(resp.Path))
		log.Printf("   Distance: %.2f meters (%.2f km)\n", resp.DistanceMeters, resp.DistanceMeters/1000)
	}

	s.metrics.Requests.WithLabelValues("route", "ok").Inc()
	writeJSON(w, resp)
	log.Println("========================================")
}

type feasibilityRequest struct {
	DistanceMeters      float64   `json:"distanceMeters"`
	AverageWindSpeedMPS float64   `json:"averageWindSpeed"`
	MaxGustSpeedMPS     float64   `json:"maxGustSpeed"`
	WindFromDegrees     float64   `json:"windFromDegrees"`
	Source              orb.Point `json:"source"`
	Destination         orb.Point `json:"destination"`
}

func (s *server) handleFeasibility(w http.ResponseWriter, r *http.Request) {
	var req feasibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.Requests.WithLabelValues("feasibility", "error").Inc()
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := s.engine.Evaluate(FlightQuery{
		DistanceMeters:      req.DistanceMeters,
		AverageWindSpeedMPS: req.AverageWindSpeedMPS,
		MaxGustSpeedMPS:     req.MaxGustSpeedMPS,
		WindFromDegrees:     req.WindFromDegrees,
		Source:              req.Source,
		Destination:         req.Destination,
	})

	log.Printf("🔋 Feasibility: distance %.0fm, wind %.1fm/s -> go=%v %v\n",
		req.DistanceMeters, req.AverageWindSpeedMPS, result.OK, result.NoGoReasons)

	s.metrics.Requests.WithLabelValues("feasibility", "ok").Inc()
	writeJSON(w, result)
}

func (s *server) handleActiveZones(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	if at := r.URL.Query().Get("at"); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			s.metrics.Requests.WithLabelValues("zones_active", "error").Inc()
			writeJSONError(w, http.StatusBadRequest, "invalid 'at' timestamp")
			return
		}
		now = parsed
	}

	zones, _ := s.store.Snapshot()
	active := ClassifyZones(s.classifier, zones, now)

	fc := geojson.NewFeatureCollection()
	for _, z := range active {
		f := geojson.NewFeature(z.Geometry)
		f.ID = z.ID
		for k, v := range z.Properties {
			f.Properties[k] = v
		}
		f.Properties["status"] = string(z.Status)
		fc.Append(f)
	}

	s.metrics.Requests.WithLabelValues("zones_active", "ok").Inc()
	writeJSON(w, fc)
}

func (s *server) handleReplaceZones(w http.ResponseWriter, r *http.Request) {
	log.Println("========================================")
	log.Println("🗺️  Zone refresh received")

	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r.Body).Decode(&fc); err != nil {
		log.Printf("❌ Invalid feature collection: %v\n", err)
		s.metrics.Requests.WithLabelValues("zones", "error").Inc()
		writeJSONError(w, http.StatusBadRequest, "invalid feature collection")
		return
	}

	zones := RemoveContainedZones(ParseZones(&fc))
	if r.URL.Query().Get("simplify") == "true" {
		zones = SimplifyZones(zones, 0)
	}
	s.store.Replace(zones)
	s.metrics.LoadedZones.Set(float64(len(zones)))

	log.Printf("✅ Zone store replaced: %d zones\n", len(zones))
	log.Println("========================================")

	s.metrics.Requests.WithLabelValues("zones", "ok").Inc()
	writeJSON(w, map[string]interface{}{"success": true, "zones": len(zones)})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	zones, _ := s.store.Snapshot()
	writeJSON(w, map[string]interface{}{
		"status":   "ready",
		"numZones": len(zones),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	zoneDir := flag.String("zones", "nfz-polygons", "directory of no-fly zone GeoJSON files")
	flag.Parse()

	log.Println("========================================")
	log.Println("🚀 Drone Mission Planner Server")
	log.Println("========================================")

	s := &server{
		store:      &zoneStore{},
		classifier: NewZoneClassifier(),
		cfg:        DefaultFeasibilityConfig(),
		metrics:    NewPlannerMetrics(nil),
	}
	s.engine = NewFeasibilityEngine(s.cfg)

	if _, err := os.Stat(*zoneDir); err == nil {
		zones, err := LoadZoneDir(*zoneDir)
		if err != nil {
			log.Printf("⚠️  Failed to load zones from %s: %v\n", *zoneDir, err)
		} else {
			s.store.Replace(RemoveContainedZones(zones))
			s.metrics.LoadedZones.Set(float64(len(zones)))
		}
	} else {
		log.Println("ℹ️  No zone directory found (this is normal on first run)")
		log.Println("   POST a FeatureCollection to /zones to load zones")
	}

	router := newRouter(s)

	log.Printf("Server starting on %s\n", *addr)
	log.Println("")
	log.Println("Endpoints:")
	log.Println("  POST /route         - Compute a zone-avoiding flight path")
	log.Println("  POST /feasibility   - GO/NO-GO verdict for a route under wind")
	log.Println("  GET  /zones/active  - Currently enforceable zones as GeoJSON")
	log.Println("  POST /zones         - Replace the zone set from a FeatureCollection")
	log.Println("  GET  /health        - Check server status")
	log.Println("  GET  /metrics       - Prometheus metrics")
	log.Println("")
	log.Println("CORS enabled for all origins")
	log.Println("========================================")

	if err := http.ListenAndServe(*addr, router); err != nil {
		log.Fatal(err)
	}
}
