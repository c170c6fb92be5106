package main

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// zoneEntry wraps a zone for R-tree storage.
type zoneEntry struct {
	zone *Zone
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *zoneEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// ZoneIndex answers "which zones are near this route" without scanning the
// whole zone set. The index holds bounding boxes only; exact geometry checks
// remain the planner's job.
type ZoneIndex struct {
	tree *rtreego.Rtree
}

// NewZoneIndex builds an R-tree over the zones' bounding boxes.
func NewZoneIndex(zones []*Zone) *ZoneIndex {
	tree := rtreego.NewTree(2, 25, 50)

	for _, z := range zones {
		rect, err := boundRect(z.Geometry.Bound())
		if err != nil {
			continue
		}
		tree.Insert(&zoneEntry{zone: z, bbox: rect})
	}

	return &ZoneIndex{tree: tree}
}

// Near returns the zones whose bounding boxes overlap the route's bounding
// box expanded by the margin.
func (zi *ZoneIndex) Near(start, dest orb.Point, margin float64) []*Zone {
	minX, minY, maxX, maxY := routeBoundingBox(start, dest, margin)

	query, err := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX, maxY - minY},
	)
	if err != nil {
		return nil
	}

	results := zi.tree.SearchIntersect(query)
	zones := make([]*Zone, 0, len(results))
	for _, item := range results {
		zones = append(zones, item.(*zoneEntry).zone)
	}
	return zones
}

// boundRect converts an orb bound to an rtreego rect, padding degenerate
// (zero width or height) bounds so the tree accepts them.
func boundRect(b orb.Bound) (rtreego.Rect, error) {
	const pad = 1e-9
	w := b.Max[0] - b.Min[0]
	h := b.Max[1] - b.Min[1]
	if w <= 0 {
		w = pad
	}
	if h <= 0 {
		h = pad
	}
	return rtreego.NewRect(rtreego.Point{b.Min[0], b.Min[1]}, []float64{w, h})
}
