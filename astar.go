package main

import (
	"container/heap"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// searchNode is a node in the A* search over a roadmap graph.
type searchNode struct {
	NodeID int
	G      float64 // cost from start
	H      float64 // heuristic cost to goal
	F      float64 // G + H
	Parent *searchNode
	Index  int // index in the heap
}

type priorityQueue []*searchNode

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].F < pq[j].F
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	n := len(*pq)
	node := x.(*searchNode)
	node.Index = n
	*pq = append(*pq, node)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.Index = -1
	*pq = old[0 : n-1]
	return node
}

// aStarPath computes the shortest path between two roadmap nodes.
func aStarPath(graph *Graph, startIdx, endIdx int) (orb.LineString, bool) {
	if graph == nil || len(graph.Nodes) == 0 {
		return nil, false
	}

	endPoint := graph.Nodes[endIdx]

	openSet := &priorityQueue{}
	heap.Init(openSet)

	startNode := &searchNode{
		NodeID: startIdx,
		H:      planar.Distance(graph.Nodes[startIdx], endPoint),
	}
	startNode.F = startNode.H
	heap.Push(openSet, startNode)

	closedSet := make(map[int]bool)
	openSetMap := map[int]*searchNode{startIdx: startNode}

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*searchNode)
		delete(openSetMap, current.NodeID)

		if current.NodeID == endIdx {
			var path orb.LineString
			for node := current; node != nil; node = node.Parent {
				path = append(orb.LineString{graph.Nodes[node.NodeID]}, path...)
			}
			return path, true
		}

		closedSet[current.NodeID] = true

		for _, edge := range graph.Edges[current.NodeID] {
			if closedSet[edge.To] {
				continue
			}

			tentativeG := current.G + edge.Cost

			neighbor, exists := openSetMap[edge.To]
			if !exists {
				neighbor = &searchNode{
					NodeID: edge.To,
					G:      tentativeG,
					H:      planar.Distance(graph.Nodes[edge.To], endPoint),
					Parent: current,
				}
				neighbor.F = neighbor.G + neighbor.H
				heap.Push(openSet, neighbor)
				openSetMap[edge.To] = neighbor
			} else if tentativeG < neighbor.G {
				neighbor.G = tentativeG
				neighbor.F = neighbor.G + neighbor.H
				neighbor.Parent = current
				heap.Fix(openSet, neighbor.Index)
			}
		}
	}

	return nil, false
}
