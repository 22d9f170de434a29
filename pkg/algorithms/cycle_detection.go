package algorithms

import (
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
)

// Cycle represents a detected feedback loop as a sequence of device IDs.
type Cycle []string

// Node colors for DFS with three-color marking:
//   - white (0): unvisited
//   - gray  (1): currently on the DFS stack
//   - black (2): finished, all descendants explored
//
// A gray node reached again during DFS is a back edge, which means a cycle.
const (
	white = 0
	gray  = 1
	black = 2
)

// WouldCreateCycle reports whether adding a cable from sourceID to
// targetID would close a feedback loop through the existing cables.
// A self-patch (sourceID == targetID) is always a cycle.
//
// The adjacency relation is built fresh per call at device granularity,
// which is fine at interactive patch sizes, and the input slice is never
// retained. Runs in O(devices + cables).
func WouldCreateCycle(sourceID, targetID string, cables []patch.Cable) bool {
	if sourceID == targetID {
		return true
	}

	adjacency := buildAdjacency(cables)
	adjacency[sourceID] = append(adjacency[sourceID], targetID)

	// The new edge can only close a loop that passes through it, so a
	// single traversal from the proposed source suffices.
	return scanFrom(sourceID, adjacency)
}

// scanFrom runs an iterative DFS from start, reporting whether any back
// edge exists in the reachable subgraph. Iterative with an explicit
// stack so pathological graphs cannot exhaust the goroutine stack.
func scanFrom(start string, adjacency map[string][]string) bool {
	color := make(map[string]int)

	type frame struct {
		device string
		next   int // index of the next neighbor to visit
	}
	stack := []frame{{device: start}}
	color[start] = gray

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		neighbors := adjacency[top.device]

		if top.next >= len(neighbors) {
			color[top.device] = black
			stack = stack[:len(stack)-1]
			continue
		}

		neighbor := neighbors[top.next]
		top.next++

		switch color[neighbor] {
		case gray:
			return true
		case white:
			color[neighbor] = gray
			stack = append(stack, frame{device: neighbor})
		}
	}
	return false
}

// DetectCycles finds all feedback loops in the given cable set, covering
// disconnected components. Each cycle is reported once, as the sequence
// of device IDs along the loop.
func DetectCycles(cables []patch.Cable) []Cycle {
	adjacency := buildAdjacency(cables)

	order := make([]string, 0, len(adjacency))
	seen := make(map[string]bool)
	for _, c := range cables {
		for _, id := range []string{c.SourceDeviceID, c.TargetDeviceID} {
			if !seen[id] {
				seen[id] = true
				order = append(order, id)
			}
		}
	}

	color := make(map[string]int)
	parent := make(map[string]string)
	cycles := make([]Cycle, 0)

	for _, id := range order {
		if color[id] == white {
			dfsDetect(id, adjacency, color, parent, &cycles)
		}
	}
	return cycles
}

func dfsDetect(deviceID string, adjacency map[string][]string, color map[string]int, parent map[string]string, cycles *[]Cycle) {
	color[deviceID] = gray

	for _, neighbor := range adjacency[deviceID] {
		if neighbor == deviceID {
			*cycles = append(*cycles, Cycle{deviceID})
			continue
		}

		switch color[neighbor] {
		case white:
			parent[neighbor] = deviceID
			dfsDetect(neighbor, adjacency, color, parent, cycles)
		case gray:
			// Back edge: reconstruct the loop from parent pointers.
			*cycles = append(*cycles, extractCycle(neighbor, deviceID, parent))
		}
	}

	color[deviceID] = black
}

// extractCycle walks parent pointers from the back edge's tail back to
// its head.
func extractCycle(start, end string, parent map[string]string) Cycle {
	cycle := Cycle{start}
	for current := end; current != start; {
		cycle = append(cycle, current)
		p, ok := parent[current]
		if !ok {
			break
		}
		current = p
	}
	return cycle
}

// CycleStats summarizes detected cycles for diagnostics surfaces.
type CycleStats struct {
	TotalCycles   int     `json:"totalCycles"`
	ShortestCycle int     `json:"shortestCycle"`
	LongestCycle  int     `json:"longestCycle"`
	AverageLength float64 `json:"averageLength"`
	SelfPatches   int     `json:"selfPatches"`
}

// AnalyzeCycles computes statistics about detected cycles.
func AnalyzeCycles(cycles []Cycle) CycleStats {
	if len(cycles) == 0 {
		return CycleStats{}
	}

	stats := CycleStats{
		TotalCycles:   len(cycles),
		ShortestCycle: len(cycles[0]),
		LongestCycle:  len(cycles[0]),
	}

	total := 0
	for _, cycle := range cycles {
		n := len(cycle)
		total += n
		if n == 1 {
			stats.SelfPatches++
		}
		if n < stats.ShortestCycle {
			stats.ShortestCycle = n
		}
		if n > stats.LongestCycle {
			stats.LongestCycle = n
		}
	}
	stats.AverageLength = float64(total) / float64(len(cycles))
	return stats
}

// buildAdjacency collapses the cable set to device granularity. Parallel
// cables between the same device pair become parallel entries, which is
// harmless for reachability.
func buildAdjacency(cables []patch.Cable) map[string][]string {
	adjacency := make(map[string][]string)
	for _, c := range cables {
		adjacency[c.SourceDeviceID] = append(adjacency[c.SourceDeviceID], c.TargetDeviceID)
	}
	return adjacency
}
