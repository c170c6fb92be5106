package main

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PlanResult is a computed flight path. Intersected lists the zones the final
// path still conflicts with: non-empty either when the pass budget ran out
// before a clean fixed point, or when a zone had to be skipped because its
// boundary could not be resolved.
type PlanResult struct {
	Path        orb.LineString
	Intersected []*Zone
}

// RoutePlanner is the planning strategy interface. Both implementations are
// pure and safe for concurrent use; callers can swap strategies without
// changing anything else.
type RoutePlanner interface {
	Plan(start, dest orb.Point, zones []*Zone) PlanResult
}

// DetourPlanner routes around zones by splitting path segments where they
// cross a zone boundary and splicing in the shorter walk around the boundary
// ring. It is deterministic, polygon-exact, and only touches zones the path
// actually crosses.
type DetourPlanner struct {
	// MaxPasses bounds the number of full passes over the zone list. A detour
	// around one zone can newly cross another, so a small number of repeat
	// passes is allowed; zero passes degrades to the untouched straight path.
	MaxPasses int

	// Nudge is the relative factor by which detour vertices are pushed
	// outward from the zone centroid, keeping spliced points off the boundary
	// they were derived from. Must stay small enough that a nudged vertex
	// landing inside an adjacent zone sits below the insideEps tolerance,
	// otherwise two zones sharing an edge push the path back and forth.
	Nudge float64
}

func NewDetourPlanner() *DetourPlanner {
	return &DetourPlanner{MaxPasses: 4, Nudge: 1e-9}
}

// Plan computes a path from start to dest that avoids the given zones.
func (p *DetourPlanner) Plan(start, dest orb.Point, zones []*Zone) PlanResult {
	path := orb.LineString{start, dest}

	for pass := 0; pass < p.MaxPasses; pass++ {
		changed := false
		for _, z := range zones {
			for _, poly := range z.Geometry {
				var c bool
				path, c = p.detourPass(path, poly)
				changed = changed || c
			}
		}
		if !changed {
			break
		}
	}

	return PlanResult{Path: path, Intersected: intersectedZones(path, zones)}
}

// detourPass rewrites the path so that no segment crosses the polygon,
// splicing a boundary walk into each offending segment.
func (p *DetourPlanner) detourPass(path orb.LineString, poly orb.Polygon) (orb.LineString, bool) {
	if len(poly) == 0 || len(openRing(poly[0])) < 3 {
		return path, false
	}

	out := make(orb.LineString, 0, len(path))
	out = append(out, path[0])
	changed := false

	for i := 0; i+1 < len(path); i++ {
		if detour, ok := p.segmentDetour(path[i], path[i+1], poly); ok {
			out = append(out, detour...)
			changed = true
		}
		out = append(out, path[i+1])
	}

	return out, changed
}

// segmentDetour builds the detour points to splice between a and b. The
// entry/exit intersection points are located on the boundary ring, both walk
// directions around the ring are priced, and the shorter one wins. A failed
// ring lookup abandons the detour for this zone rather than failing the whole
// plan; the conflict is surfaced later through the Intersected list.
func (p *DetourPlanner) segmentDetour(a, b orb.Point, poly orb.Polygon) ([]orb.Point, bool) {
	hits := segmentPolygonHits(a, b, poly)
	if len(hits) < 2 {
		return nil, false
	}
	entry, exit := hits[0], hits[len(hits)-1]

	ring := poly[0]
	entryIdx := nearestRingSegment(ring, entry)
	exitIdx := nearestRingSegment(ring, exit)
	if entryIdx < 0 || exitIdx < 0 {
		return nil, false
	}

	verts := openRing(ring)
	n := len(verts)
	entryIdx %= n
	exitIdx %= n

	centroid, _ := planar.CentroidArea(poly)

	forward := detourCandidate(entry, exit, ringWalk(verts, entryIdx, exitIdx, true), centroid, p.Nudge)
	backward := detourCandidate(entry, exit, ringWalk(verts, entryIdx, exitIdx, false), centroid, p.Nudge)

	if candidateLength(a, forward, b) <= candidateLength(a, backward, b) {
		return forward, true
	}
	return backward, true
}

// ringWalk returns the ring vertices passed when walking from the entry
// segment to the exit segment, with the ring's winding when fwd and against
// it otherwise. When both points lie on the same segment the forward walk is
// empty (straight along the boundary) and the backward walk circles the whole
// ring.
func ringWalk(verts []orb.Point, from, to int, fwd bool) []orb.Point {
	n := len(verts)
	var out []orb.Point

	if fwd {
		if from == to {
			return nil
		}
		for j := (from + 1) % n; ; j = (j + 1) % n {
			out = append(out, verts[j])
			if j == to {
				break
			}
		}
	} else {
		for j := from; ; j = (j - 1 + n) % n {
			out = append(out, verts[j])
			if j == (to+1)%n {
				break
			}
		}
	}

	return out
}

// detourCandidate assembles entry + walked vertices + exit, every point
// nudged outward from the centroid.
func detourCandidate(entry, exit orb.Point, walk []orb.Point, centroid orb.Point, nudge float64) []orb.Point {
	out := make([]orb.Point, 0, len(walk)+2)
	out = append(out, nudgeFromCentroid(entry, centroid, nudge))
	for _, v := range walk {
		out = append(out, nudgeFromCentroid(v, centroid, nudge))
	}
	out = append(out, nudgeFromCentroid(exit, centroid, nudge))
	return out
}

// candidateLength prices a detour including the connecting stubs from a and
// to b.
func candidateLength(a orb.Point, detour []orb.Point, b orb.Point) float64 {
	total := planar.Distance(a, detour[0])
	for i := 0; i+1 < len(detour); i++ {
		total += planar.Distance(detour[i], detour[i+1])
	}
	return total + planar.Distance(detour[len(detour)-1], b)
}

// intersectedZones is the final verification pass: every zone the path still
// conflicts with.
func intersectedZones(path orb.LineString, zones []*Zone) []*Zone {
	var out []*Zone
	for _, z := range zones {
		for _, poly := range z.Geometry {
			if pathIntersectsPolygon(path, poly) {
				out = append(out, z)
				break
			}
		}
	}
	return out
}
