package main

import (
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// SamplingPlanner is the exploratory fallback strategy: it scatters random
// samples in a margin-expanded box around the route, connects nearby samples
// whose connecting edges avoid every zone, and searches the roadmap with A*.
// Useful when zones are numerous or highly concave and the detour planner's
// boundary walks get long.
type SamplingPlanner struct {
	// Samples is the number of roadmap points to place. Sampling retries up
	// to ten times this many attempts when zones swallow candidates.
	Samples int

	// ConnectionRadius and Margin are in degrees. Zero means scale them to
	// the route: half the route length as margin, a quarter as radius.
	ConnectionRadius float64
	Margin           float64

	// Seed fixes the sample sequence; zero leaves the global source alone and
	// uses a fixed default so planning stays reproducible.
	Seed int64
}

func NewSamplingPlanner() *SamplingPlanner {
	return &SamplingPlanner{Samples: 250, Seed: 1}
}

// Plan grows a roadmap between start and dest and searches it. If sampling
// fails to connect the two endpoints, the straight path is returned and the
// conflicting zones are reported through Intersected.
func (s *SamplingPlanner) Plan(start, dest orb.Point, zones []*Zone) PlanResult {
	routeLen := planar.Distance(start, dest)
	margin := s.Margin
	if margin <= 0 {
		margin = routeLen / 2
	}
	radius := s.ConnectionRadius
	if radius <= 0 {
		radius = routeLen / 4
	}

	minX, minY, maxX, maxY := routeBoundingBox(start, dest, margin)
	rng := rand.New(rand.NewSource(s.Seed))

	graph := &Graph{
		Nodes: map[int]orb.Point{0: start, 1: dest},
		Edges: make(map[int][]Edge),
	}

	// Sample roadmap points outside every zone.
	id := 2
	for attempts := 0; id < s.Samples+2 && attempts < s.Samples*10; attempts++ {
		pt := orb.Point{
			minX + rng.Float64()*(maxX-minX),
			minY + rng.Float64()*(maxY-minY),
		}
		if pointInZones(pt, zones) {
			continue
		}
		graph.Nodes[id] = pt
		id++
	}

	// Connect pairs within the radius whose edge avoids every zone.
	for i := 0; i < id; i++ {
		for j := i + 1; j < id; j++ {
			a, b := graph.Nodes[i], graph.Nodes[j]
			d := planar.Distance(a, b)
			if d > radius {
				continue
			}
			if !pathClear(a, b, zones) {
				continue
			}
			graph.Edges[i] = append(graph.Edges[i], Edge{To: j, Cost: d})
			graph.Edges[j] = append(graph.Edges[j], Edge{To: i, Cost: d})
		}
	}

	path, ok := aStarPath(graph, 0, 1)
	if !ok {
		path = orb.LineString{start, dest}
	}

	return PlanResult{Path: path, Intersected: intersectedZones(path, zones)}
}

// routeBoundingBox expands the box spanned by the two endpoints by a margin
// on every side.
func routeBoundingBox(start, end orb.Point, margin float64) (minX, minY, maxX, maxY float64) {
	minX = min(start[0], end[0]) - margin
	maxX = max(start[0], end[0]) + margin
	minY = min(start[1], end[1]) - margin
	maxY = max(start[1], end[1]) + margin
	return
}

// pointInZones reports whether the point falls inside any zone polygon.
func pointInZones(p orb.Point, zones []*Zone) bool {
	for _, z := range zones {
		if planar.MultiPolygonContains(z.Geometry, p) {
			return true
		}
	}
	return false
}
