package main

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestZoneIndexNear(t *testing.T) {
	near := squareZone("near", 0, 0, 0.01)
	far := squareZone("far", 10, 10, 0.01)

	idx := NewZoneIndex([]*Zone{near, far})

	got := idx.Near(orb.Point{-0.005, 0.005}, orb.Point{0.015, 0.005}, 0.01)
	if len(got) != 1 || got[0].ID != "near" {
		t.Errorf("got %d zones, want only the nearby one", len(got))
	}

	if got := idx.Near(orb.Point{5, 5}, orb.Point{5.01, 5}, 0.01); len(got) != 0 {
		t.Errorf("empty region returned zones: %v", got)
	}
}

func TestZoneIndexDegenerateBounds(t *testing.T) {
	// A zone collapsed to a vertical line still has to be indexable.
	line := &Zone{
		ID: "line",
		Geometry: orb.MultiPolygon{{
			{{0, 0}, {0, 0.01}, {0, 0.02}, {0, 0}},
		}},
	}

	idx := NewZoneIndex([]*Zone{line})
	got := idx.Near(orb.Point{-0.01, 0.01}, orb.Point{0.01, 0.01}, 0.01)
	if len(got) != 1 {
		t.Errorf("degenerate zone not indexed: %v", got)
	}
}
