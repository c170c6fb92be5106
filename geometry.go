package main

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// openRing returns the ring's vertices without the duplicated closing point.
// Ring traversal treats the result as implicitly closed; the closing edge is
// re-added when the ring is used as a polygon boundary.
func openRing(r orb.Ring) []orb.Point {
	if len(r) > 1 && r[0].Equal(r[len(r)-1]) {
		return r[:len(r)-1]
	}
	return r
}

// closedRing returns a ring guaranteed to repeat its first point at the end.
func closedRing(r orb.Ring) orb.Ring {
	if len(r) > 1 && !r[0].Equal(r[len(r)-1]) {
		out := make(orb.Ring, len(r)+1)
		copy(out, r)
		out[len(r)] = r[0]
		return out
	}
	return r
}

// segmentIntersection returns the intersection point of segments (p1,p2) and
// (p3,p4), if they cross. Parallel and collinear-overlap cases report no
// single intersection point.
func segmentIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	d1x, d1y := p2[0]-p1[0], p2[1]-p1[1]
	d2x, d2y := p4[0]-p3[0], p4[1]-p3[1]

	den := d1x*d2y - d1y*d2x
	if den == 0 {
		return orb.Point{}, false
	}

	t := ((p3[0]-p1[0])*d2y - (p3[1]-p1[1])*d2x) / den
	u := ((p3[0]-p1[0])*d1y - (p3[1]-p1[1])*d1x) / den
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return orb.Point{}, false
	}

	return orb.Point{p1[0] + t*d1x, p1[1] + t*d1y}, true
}

// Tolerances for the violation predicates. Detour vertices are nudged off
// zone boundaries by a relative epsilon, so a legal path may pass within
// float-noise distance of (or ride exactly along) a boundary. Contacts below
// these thresholds are boundary touches, not incursions.
const (
	// collinearEps classifies a cross product as zero: the point sits on the
	// segment's carrier line. In squared-degree units.
	collinearEps = 1e-12

	// insideEps is the minimum distance (degrees) a point must sit from the
	// boundary to count as strictly inside a zone.
	insideEps = 1e-10
)

// segmentsCross reports whether two segments properly cross. Touching
// contacts do not count: shared endpoints, collinear overlap, and endpoints
// on the other segment's line are all legal for a path that rides a zone
// boundary. Interior penetration that enters through a vertex or edge is
// caught separately by the strict containment checks.
func segmentsCross(p1, p2, p3, p4 orb.Point) bool {
	if (p1.Equal(p3) && p2.Equal(p4)) || (p1.Equal(p4) && p2.Equal(p3)) {
		return false
	}
	if p1.Equal(p3) || p1.Equal(p4) || p2.Equal(p3) || p2.Equal(p4) {
		return false
	}

	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)

	return ((d1 > collinearEps && d2 < -collinearEps) || (d1 < -collinearEps && d2 > collinearEps)) &&
		((d3 > collinearEps && d4 < -collinearEps) || (d3 < -collinearEps && d4 > collinearEps))
}

// cross is the cross product used to determine orientation of p3 relative to
// the segment p1->p2.
func cross(p1, p2, p3 orb.Point) float64 {
	return (p3[0]-p1[0])*(p2[1]-p1[1]) - (p2[0]-p1[0])*(p3[1]-p1[1])
}

// segmentPolygonHits collects the points where segment (a,b) meets the outer
// boundary of poly. Endpoints lying inside the polygon are included as hits
// too, so a segment that starts or ends inside still produces a usable
// entry/exit pair. Results are deduplicated and sorted by distance from a.
func segmentPolygonHits(a, b orb.Point, poly orb.Polygon) []orb.Point {
	if len(poly) == 0 {
		return nil
	}

	ring := closedRing(poly[0])
	var hits []orb.Point
	for i := 0; i+1 < len(ring); i++ {
		if pt, ok := segmentIntersection(a, b, ring[i], ring[i+1]); ok {
			hits = append(hits, pt)
		}
	}

	if pointInsidePolygon(poly, a) {
		hits = append(hits, a)
	}
	if pointInsidePolygon(poly, b) {
		hits = append(hits, b)
	}

	sort.Slice(hits, func(i, j int) bool {
		return planar.DistanceSquared(a, hits[i]) < planar.DistanceSquared(a, hits[j])
	})

	return dedupePoints(hits)
}

// dedupePoints removes near-coincident points from a sorted hit list.
// Tangential contacts (a segment grazing a polygon corner) collapse to a
// single hit and are then ignored by the detour logic.
func dedupePoints(pts []orb.Point) []orb.Point {
	const eps = 1e-12
	out := pts[:0]
	for _, p := range pts {
		if len(out) == 0 || planar.DistanceSquared(out[len(out)-1], p) > eps*eps {
			out = append(out, p)
		}
	}
	return out
}

// nearestRingSegment returns the index i of the ring segment (ring[i],
// ring[i+1]) closest to p, or -1 if the ring is degenerate.
func nearestRingSegment(ring orb.Ring, p orb.Point) int {
	ls := orb.LineString(closedRing(ring))
	if len(ls) < 2 {
		return -1
	}
	_, idx := planar.DistanceFromWithIndex(ls, p)
	return idx
}

// nudgeFromCentroid moves p a relative epsilon outward from the centroid so
// that spliced detour vertices sit strictly outside the boundary they were
// derived from.
func nudgeFromCentroid(p, centroid orb.Point, factor float64) orb.Point {
	return orb.Point{
		centroid[0] + (p[0]-centroid[0])*(1+factor),
		centroid[1] + (p[1]-centroid[1])*(1+factor),
	}
}

// segmentIntersectsPolygon reports whether segment (a,b) conflicts with the
// polygon: it crosses the outer boundary, or either endpoint or the midpoint
// lies inside.
func segmentIntersectsPolygon(a, b orb.Point, poly orb.Polygon) bool {
	if len(poly) == 0 {
		return false
	}

	ring := closedRing(poly[0])
	for i := 0; i+1 < len(ring); i++ {
		if segmentsCross(a, b, ring[i], ring[i+1]) {
			return true
		}
	}

	if pointInsidePolygon(poly, a) || pointInsidePolygon(poly, b) {
		return true
	}

	// Midpoint catches segments that lie entirely inside the polygon.
	mid := orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
	return pointInsidePolygon(poly, mid)
}

// pointInsidePolygon reports strict interior containment. orb's ray casting
// counts boundary points as contained; a path vertex sitting exactly on a
// zone edge (adjacent zones sharing a boundary) must not register as a
// violation, so points within insideEps of the boundary are excluded here.
func pointInsidePolygon(poly orb.Polygon, p orb.Point) bool {
	if len(poly) == 0 || !planar.PolygonContains(poly, p) {
		return false
	}
	d, _ := planar.DistanceFromWithIndex(orb.LineString(closedRing(poly[0])), p)
	return d > insideEps
}

// pathIntersectsPolygon reports whether any segment of the path conflicts
// with the polygon.
func pathIntersectsPolygon(path orb.LineString, poly orb.Polygon) bool {
	for i := 0; i+1 < len(path); i++ {
		if segmentIntersectsPolygon(path[i], path[i+1], poly) {
			return true
		}
	}
	return false
}

// pathClear checks whether a straight line between two points avoids every
// zone polygon.
func pathClear(a, b orb.Point, zones []*Zone) bool {
	for _, z := range zones {
		for _, poly := range z.Geometry {
			if segmentIntersectsPolygon(a, b, poly) {
				return false
			}
		}
	}
	return true
}

// pathLengthMeters sums the haversine length of the path.
func pathLengthMeters(path orb.LineString) float64 {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		total += geo.DistanceHaversine(path[i], path[i+1])
	}
	return total
}
