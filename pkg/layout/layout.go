package layout

import (
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
)

// Position is a 2D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Config configures layout parameters.
type Config struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Iterations for iterative algorithms
	Padding    float64 // Padding from canvas edges
}

// Layout computes canvas positions for the devices of a patch graph.
type Layout interface {
	Compute(g *patch.Graph) map[string]Position
}

// Apply writes computed positions back onto the devices of a graph copy.
func Apply(g *patch.Graph, positions map[string]Position) {
	for _, d := range g.Devices {
		if p, ok := positions[d.ID]; ok {
			d.X = p.X
			d.Y = p.Y
		}
	}
}

// adjacency returns the device-level neighbor relation of the graph,
// undirected, for force computations.
func adjacency(g *patch.Graph) map[string]map[string]bool {
	adj := make(map[string]map[string]bool, len(g.Devices))
	for _, d := range g.Devices {
		adj[d.ID] = make(map[string]bool)
	}
	for _, c := range g.Cables {
		if adj[c.SourceDeviceID] != nil {
			adj[c.SourceDeviceID][c.TargetDeviceID] = true
		}
		if adj[c.TargetDeviceID] != nil {
			adj[c.TargetDeviceID][c.SourceDeviceID] = true
		}
	}
	return adj
}
