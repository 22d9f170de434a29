package layout

import (
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
)

// SignalFlow arranges devices in columns left to right following signal
// direction: sources (no incoming cables) in the first column, then
// each device one column after its driver. This matches how engineers
// read a patchbay diagram.
type SignalFlow struct {
	config Config
}

// NewSignalFlow creates a signal-flow layout.
func NewSignalFlow(config Config) *SignalFlow {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &SignalFlow{config: config}
}

// Compute assigns each device a column by BFS depth from the source
// devices, then spreads each column vertically.
func (sf *SignalFlow) Compute(g *patch.Graph) map[string]Position {
	positions := make(map[string]Position, len(g.Devices))
	if len(g.Devices) == 0 {
		return positions
	}

	incoming := make(map[string]int)
	outgoing := make(map[string][]string)
	for _, c := range g.Cables {
		incoming[c.TargetDeviceID]++
		outgoing[c.SourceDeviceID] = append(outgoing[c.SourceDeviceID], c.TargetDeviceID)
	}

	// Source devices seed the first column.
	roots := make([]string, 0)
	for _, d := range g.Devices {
		if incoming[d.ID] == 0 {
			roots = append(roots, d.ID)
		}
	}
	if len(roots) == 0 {
		// Pure feedback graph: start from the first device.
		roots = []string{g.Devices[0].ID}
	}

	columns := make([][]string, 0)
	visited := make(map[string]bool)
	current := roots

	for len(current) > 0 {
		columns = append(columns, current)
		next := make([]string, 0)
		for _, id := range current {
			visited[id] = true
			for _, to := range outgoing[id] {
				if !visited[to] {
					visited[to] = true
					next = append(next, to)
				}
			}
		}
		current = next
	}

	// Devices unreachable from any source land in the last column.
	for _, d := range g.Devices {
		if !visited[d.ID] {
			columns[len(columns)-1] = append(columns[len(columns)-1], d.ID)
		}
	}

	columnWidth := (sf.config.Width - 2*sf.config.Padding) / float64(len(columns))
	for colIdx, column := range columns {
		x := sf.config.Padding + float64(colIdx)*columnWidth + columnWidth/2
		spacing := (sf.config.Height - 2*sf.config.Padding) / float64(len(column)+1)
		for rowIdx, id := range column {
			positions[id] = Position{
				X: x,
				Y: sf.config.Padding + spacing*float64(rowIdx+1),
			}
		}
	}
	return positions
}
