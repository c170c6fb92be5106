package main

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func TestParseZones(t *testing.T) {
	fc := geojson.NewFeatureCollection()

	poly := geojson.NewFeature(orb.Polygon{
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}},
	})
	poly.ID = "alpha"
	fc.Append(poly)

	multi := geojson.NewFeature(orb.MultiPolygon{
		{{{2, 2}, {3, 2}, {3, 3}, {2, 3}, {2, 2}}},
	})
	multi.ID = float64(7)
	fc.Append(multi)

	// Non-areal geometry is skipped.
	fc.Append(geojson.NewFeature(orb.Point{0, 0}))

	named := geojson.NewFeature(orb.Polygon{
		{{4, 4}, {5, 4}, {5, 5}, {4, 5}, {4, 4}},
	})
	named.Properties["id"] = "from-props"
	fc.Append(named)

	anon := geojson.NewFeature(orb.Polygon{
		{{6, 6}, {7, 6}, {7, 7}, {6, 7}, {6, 6}},
	})
	fc.Append(anon)

	zones := ParseZones(fc)
	if len(zones) != 4 {
		t.Fatalf("got %d zones, want 4", len(zones))
	}

	if zones[0].ID != "alpha" {
		t.Errorf("string feature ID: got %q", zones[0].ID)
	}
	if len(zones[0].Geometry) != 1 {
		t.Errorf("polygon not wrapped into a multipolygon: %v", zones[0].Geometry)
	}
	if zones[1].ID != "7" {
		t.Errorf("numeric feature ID: got %q", zones[1].ID)
	}
	if zones[2].ID != "from-props" {
		t.Errorf("property ID: got %q", zones[2].ID)
	}
	if zones[3].ID != "zone-4" {
		t.Errorf("ordinal fallback ID: got %q", zones[3].ID)
	}
}

func TestLowerLimitAndAltitudeFilter(t *testing.T) {
	f := geojson.NewFeature(orb.Polygon{
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}},
	})
	f.Properties["lowerLimit"] = float64(500)
	f.Properties["lowerLimitUnit"] = "ft"

	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	zones := ParseZones(fc)

	if !zones[0].HasLowerLimit {
		t.Fatal("lower limit not read")
	}
	want := 500 * feetToMeters
	if zones[0].LowerLimitMeters != want {
		t.Errorf("lower limit: got %v, want %v", zones[0].LowerLimitMeters, want)
	}

	// 500 ft is ~152 m: the restriction starts above a 90 m cruise.
	if got := FilterByAltitude(zones, 90); len(got) != 0 {
		t.Errorf("zone above cruise altitude not filtered: %v", got)
	}
	if got := FilterByAltitude(zones, 200); len(got) != 1 {
		t.Errorf("zone below cruise altitude filtered: %v", got)
	}

	// Zones without a limit always apply.
	unlimited := squareZone("unlimited", 0, 0, 1)
	if got := FilterByAltitude([]*Zone{unlimited}, 10); len(got) != 1 {
		t.Errorf("zone without limit filtered: %v", got)
	}
}

func TestClassifyZonesStampsCopies(t *testing.T) {
	c := NewZoneClassifier()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	active := squareZone("a", 0, 0, 1)
	inactive := squareZone("b", 2, 0, 1)
	inactive.Properties["activationStatus"] = "inactive"

	out := ClassifyZones(c, []*Zone{active, inactive}, now)
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("got %v, want only zone a", out)
	}
	if out[0].Status != StatusActive {
		t.Errorf("status not stamped: %v", out[0].Status)
	}

	// The original zone is untouched; only the returned copy carries a status.
	if active.Status != "" {
		t.Errorf("classification mutated the stored zone: %v", active.Status)
	}
}

func TestRemoveContainedZones(t *testing.T) {
	outer := squareZone("outer", 0, 0, 1)
	inner := squareZone("inner", 0.25, 0.25, 0.5)
	disjoint := squareZone("disjoint", 5, 5, 1)

	out := RemoveContainedZones([]*Zone{inner, outer, disjoint})
	if len(out) != 2 {
		t.Fatalf("got %d zones, want 2: %v", len(out), out)
	}
	for _, z := range out {
		if z.ID == "inner" {
			t.Error("contained zone survived")
		}
	}
}

func TestSimplifyZones(t *testing.T) {
	// A square with a redundant collinear vertex on the bottom edge.
	z := &Zone{
		ID: "square",
		Geometry: orb.MultiPolygon{{
			{
				{0, 0},
				{0.005, 0},
				{0.01, 0},
				{0.01, 0.01},
				{0, 0.01},
				{0, 0},
			},
		}},
		Properties: geojson.Properties{},
	}

	before := countVertices([]*Zone{z})
	out := SimplifyZones([]*Zone{z}, 0.001)
	after := countVertices(out)

	if after >= before {
		t.Errorf("simplification did not drop vertices: %d -> %d", before, after)
	}
	// The input zone keeps its original geometry.
	if countVertices([]*Zone{z}) != before {
		t.Error("simplification mutated the input zone")
	}
}

func TestEstimateEpsilonScalesWithDensity(t *testing.T) {
	if estimateEpsilon(100) >= estimateEpsilon(60000) {
		t.Error("epsilon must grow with vertex count")
	}
}
