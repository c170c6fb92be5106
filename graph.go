package main

import "github.com/paulmach/orb"

// Graph is the roadmap searched by A*.
type Graph struct {
	Nodes map[int]orb.Point
	Edges map[int][]Edge
}

// Edge is a connection between two roadmap nodes.
type Edge struct {
	To   int
	Cost float64
}
