package layout

import (
	"math"
	"math/rand"

	"github.com/dd0wney/cluso-patchbay/pkg/patch"
)

// ForceDirected implements Fruchterman-Reingold force-directed layout
// over the device graph.
type ForceDirected struct {
	config Config
	rng    *rand.Rand
}

// NewForceDirected creates a force-directed layout. A seeded rng keeps
// runs reproducible for tests; pass nil for default randomness.
func NewForceDirected(config Config, rng *rand.Rand) *ForceDirected {
	if config.Iterations == 0 {
		config.Iterations = 50
	}
	if config.Padding == 0 {
		config.Padding = 50
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &ForceDirected{config: config, rng: rng}
}

// Compute computes positions using repulsion between all device pairs
// and attraction along cables, with linear cooling.
func (fd *ForceDirected) Compute(g *patch.Graph) map[string]Position {
	positions := make(map[string]Position, len(g.Devices))
	if len(g.Devices) == 0 {
		return positions
	}
	if len(g.Devices) == 1 {
		positions[g.Devices[0].ID] = Position{X: fd.config.Width / 2, Y: fd.config.Height / 2}
		return positions
	}

	ids := make([]string, 0, len(g.Devices))
	for _, d := range g.Devices {
		ids = append(ids, d.ID)
		positions[d.ID] = Position{
			X: fd.rng.Float64()*(fd.config.Width-2*fd.config.Padding) + fd.config.Padding,
			Y: fd.rng.Float64()*(fd.config.Height-2*fd.config.Padding) + fd.config.Padding,
		}
	}

	adj := adjacency(g)

	// Optimal pair distance for the available area
	k := math.Sqrt((fd.config.Width * fd.config.Height) / float64(len(ids)))
	temperature := fd.config.Width / 10.0

	for iter := 0; iter < fd.config.Iterations; iter++ {
		forces := make(map[string]Position, len(ids))

		// Repulsion between all pairs
		for i, a := range ids {
			for _, b := range ids[i+1:] {
				dx := positions[a].X - positions[b].X
				dy := positions[a].Y - positions[b].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					dist = 0.01
				}

				force := (k * k) / dist
				fx := (dx / dist) * force
				fy := (dy / dist) * force

				forces[a] = Position{X: forces[a].X + fx, Y: forces[a].Y + fy}
				forces[b] = Position{X: forces[b].X - fx, Y: forces[b].Y - fy}
			}
		}

		// Attraction along cables
		for _, a := range ids {
			for b := range adj[a] {
				if _, ok := positions[b]; !ok {
					continue
				}
				dx := positions[a].X - positions[b].X
				dy := positions[a].Y - positions[b].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					continue
				}

				force := (dist * dist) / k
				forces[a] = Position{
					X: forces[a].X - (dx/dist)*force,
					Y: forces[a].Y - (dy/dist)*force,
				}
			}
		}

		// Apply forces with cooling, clamped to the canvas
		cool := temperature * (1.0 - float64(iter)/float64(fd.config.Iterations))
		for _, id := range ids {
			fx := forces[id].X
			fy := forces[id].Y
			mag := math.Sqrt(fx*fx + fy*fy)
			if mag < 0.01 {
				continue
			}
			step := math.Min(mag, cool)
			positions[id] = Position{
				X: clamp(positions[id].X+(fx/mag)*step, fd.config.Padding, fd.config.Width-fd.config.Padding),
				Y: clamp(positions[id].Y+(fy/mag)*step, fd.config.Padding, fd.config.Height-fd.config.Padding),
			}
		}
	}

	return positions
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
