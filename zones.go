package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

const feetToMeters = 0.3048

// Zone is a no-fly zone: a multi-polygon geometry plus the activation and
// altitude metadata carried by its source feature. Zones are value objects;
// nothing mutates them after construction except the Status field, which is
// stamped when a zone set is classified for a query time.
type Zone struct {
	ID         string
	Geometry   orb.MultiPolygon
	Properties geojson.Properties

	// LowerLimitMeters is the floor of the restriction, used to filter out
	// zones that start above the cruise altitude. HasLowerLimit distinguishes
	// "no limit given" from a limit of zero.
	LowerLimitMeters float64
	HasLowerLimit    bool

	Status ZoneStatus
}

// ParseZones converts a GeoJSON feature collection into zones. Features with
// non-areal geometry are skipped.
func ParseZones(fc *geojson.FeatureCollection) []*Zone {
	zones := make([]*Zone, 0, len(fc.Features))
	for i, f := range fc.Features {
		var geom orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			geom = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			geom = g
		default:
			continue
		}

		z := &Zone{
			ID:         featureID(f, i),
			Geometry:   geom,
			Properties: f.Properties,
		}
		z.LowerLimitMeters, z.HasLowerLimit = lowerLimit(f.Properties)
		zones = append(zones, z)
	}
	return zones
}

func featureID(f *geojson.Feature, ordinal int) string {
	if s, ok := f.ID.(string); ok && s != "" {
		return s
	}
	if n, ok := f.ID.(float64); ok {
		return fmt.Sprintf("%.0f", n)
	}
	if s := f.Properties.MustString("id", ""); s != "" {
		return s
	}
	return fmt.Sprintf("zone-%d", ordinal)
}

// lowerLimit reads the restriction floor from the property bag, converting
// feet to meters when the unit says so.
func lowerLimit(props geojson.Properties) (float64, bool) {
	v, ok := props["lowerLimit"]
	if !ok {
		return 0, false
	}
	limit, ok := v.(float64)
	if !ok {
		return 0, false
	}

	unit := strings.ToLower(props.MustString("lowerLimitUnit", "m"))
	if unit == "ft" || unit == "feet" {
		limit *= feetToMeters
	}
	return limit, true
}

// FilterByAltitude drops zones whose restriction floor is above the cruise
// altitude; they do not constrain a flight below them. Zones without a limit
// are kept.
func FilterByAltitude(zones []*Zone, cruiseAltitudeMeters float64) []*Zone {
	out := make([]*Zone, 0, len(zones))
	for _, z := range zones {
		if z.HasLowerLimit && z.LowerLimitMeters > cruiseAltitudeMeters {
			continue
		}
		out = append(out, z)
	}
	return out
}

// ClassifyZones returns the zones enforceable at the given instant, each
// stamped active or soon. Returned zones are copies so concurrent queries at
// different times do not race on Status.
func ClassifyZones(c *ZoneClassifier, zones []*Zone, now time.Time) []*Zone {
	out := make([]*Zone, 0, len(zones))
	for _, z := range zones {
		status := c.Classify(z.Properties, now)
		if status == StatusInactive {
			continue
		}
		zc := *z
		zc.Status = status
		out = append(out, &zc)
	}
	return out
}

// RemoveContainedZones drops zones whose geometry lies entirely within
// another zone. They add vertices without changing the blocked area.
func RemoveContainedZones(zones []*Zone) []*Zone {
	if len(zones) <= 1 {
		return zones
	}

	contained := make([]bool, len(zones))
	for i := range zones {
		if contained[i] {
			continue
		}
		for j := range zones {
			if i == j || contained[j] {
				continue
			}
			if zoneContainedIn(zones[i], zones[j]) {
				contained[i] = true
				break
			}
			if zoneContainedIn(zones[j], zones[i]) {
				contained[j] = true
			}
		}
	}

	out := make([]*Zone, 0, len(zones))
	for i, z := range zones {
		if !contained[i] {
			out = append(out, z)
		}
	}
	return out
}

// zoneContainedIn checks whether every outer-ring vertex of a falls inside
// b's geometry. A bounding box comparison short-circuits the common case.
func zoneContainedIn(a, b *Zone) bool {
	if len(a.Geometry) == 0 || len(b.Geometry) == 0 {
		return false
	}
	ab, bb := a.Geometry.Bound(), b.Geometry.Bound()
	if !bb.Contains(ab.Min) || !bb.Contains(ab.Max) {
		return false
	}

	for _, poly := range a.Geometry {
		if len(poly) == 0 {
			return false
		}
		for _, v := range poly[0] {
			if !planar.MultiPolygonContains(b.Geometry, v) {
				return false
			}
		}
	}
	return true
}

// SimplifyZones reduces vertex counts with Douglas-Peucker. An epsilon of
// zero picks a tolerance scaled to the total vertex count, so dense feeds get
// simplified harder.
func SimplifyZones(zones []*Zone, epsilon float64) []*Zone {
	if epsilon <= 0 {
		epsilon = estimateEpsilon(countVertices(zones))
	}

	simplifier := simplify.DouglasPeucker(epsilon)
	out := make([]*Zone, len(zones))
	for i, z := range zones {
		zc := *z
		zc.Geometry = simplifier.Simplify(z.Geometry.Clone()).(orb.MultiPolygon)
		out[i] = &zc
	}
	return out
}

func countVertices(zones []*Zone) int {
	n := 0
	for _, z := range zones {
		for _, poly := range z.Geometry {
			for _, ring := range poly {
				n += len(ring)
			}
		}
	}
	return n
}

// estimateEpsilon scales the simplification tolerance with vertex count.
// The base value of 0.00002 degrees is roughly 2.2 meters.
func estimateEpsilon(vertices int) float64 {
	base := 0.00002
	switch {
	case vertices > 50000:
		return base * 10
	case vertices > 20000:
		return base * 5
	case vertices > 10000:
		return base * 4
	case vertices > 5000:
		return base * 3
	case vertices > 2000:
		return base * 2
	default:
		return base
	}
}

// LoadZoneDir loads every .geojson file in a directory, in the shape of the
// external zone feed: one FeatureCollection per file. Unreadable files are
// logged and skipped.
func LoadZoneDir(dir string) ([]*Zone, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if err != nil {
		return nil, err
	}

	var all []*Zone
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			log.Printf("⚠️  Failed to read %s: %v\n", file, err)
			continue
		}

		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			log.Printf("⚠️  Failed to parse %s: %v\n", file, err)
			continue
		}

		zones := ParseZones(fc)
		all = append(all, zones...)
		log.Printf("   ✅ Loaded %d zones from %s\n", len(zones), filepath.Base(file))
	}

	log.Printf("Total no-fly zones loaded: %d\n", len(all))
	return all, nil
}
