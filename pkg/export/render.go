// Package export renders a patch graph into external formats: a JSON
// render document for frontends and Graphviz DOT for diagram tooling.
package export

import (
	"encoding/json"

	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/signal"
)

// RenderNode is one device in a render document, with its resolved
// display color and canvas position.
type RenderNode struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Kind  string       `json:"kind,omitempty"`
	X     float64      `json:"x"`
	Y     float64      `json:"y"`
	Color string       `json:"color"`
	Ports []RenderPort `json:"ports"`
}

// RenderPort is one port of a render node.
type RenderPort struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Direction string `json:"direction"`
	Signal    string `json:"signal"`
	Label     string `json:"label"`
	Connector string `json:"connector"`
	Color     string `json:"color"`
}

// RenderEdge is one cable in a render document.
type RenderEdge struct {
	ID         string `json:"id"`
	SourceNode string `json:"sourceNode"`
	SourcePort string `json:"sourcePort"`
	TargetNode string `json:"targetNode"`
	TargetPort string `json:"targetPort"`
	Signal     string `json:"signal"`
	Color      string `json:"color"`
}

// RenderDocument is the JSON shape consumed by canvas frontends.
type RenderDocument struct {
	Nodes    []RenderNode   `json:"nodes"`
	Edges    []RenderEdge   `json:"edges"`
	Viewport patch.Viewport `json:"viewport"`
}

// Render builds a render document from a graph snapshot. Colors not set
// on the device or cable fall back to the signal registry's palette.
func Render(g *patch.Graph, viewport patch.Viewport) *RenderDocument {
	doc := &RenderDocument{
		Nodes:    make([]RenderNode, 0, len(g.Devices)),
		Edges:    make([]RenderEdge, 0, len(g.Cables)),
		Viewport: viewport,
	}
	for _, d := range g.Devices {
		node := RenderNode{
			ID:    d.ID,
			Name:  d.Name,
			Kind:  d.Kind,
			X:     d.X,
			Y:     d.Y,
			Color: d.Color,
			Ports: make([]RenderPort, 0, len(d.Ports)),
		}
		if node.Color == "" {
			node.Color = signal.FallbackColor
		}
		for _, p := range d.Ports {
			connector := p.Connector
			if connector == "" {
				connector = signal.DefaultConnector(p.Signal)
			}
			node.Ports = append(node.Ports, RenderPort{
				ID:        p.ID,
				Name:      p.Name,
				Direction: string(p.Direction),
				Signal:    string(p.Signal),
				Label:     signal.Label(p.Signal),
				Connector: string(connector),
				Color:     signal.DisplayColor(p.Signal),
			})
		}
		doc.Nodes = append(doc.Nodes, node)
	}
	for _, c := range g.Cables {
		color := c.Color
		if color == "" {
			color = signal.DisplayColor(c.Signal)
		}
		doc.Edges = append(doc.Edges, RenderEdge{
			ID:         c.ID,
			SourceNode: c.SourceDeviceID,
			SourcePort: c.SourcePortID,
			TargetNode: c.TargetDeviceID,
			TargetPort: c.TargetPortID,
			Signal:     string(c.Signal),
			Color:      color,
		})
	}
	return doc
}

// RenderJSON renders the graph and marshals it with indentation.
func RenderJSON(g *patch.Graph, viewport patch.Viewport) ([]byte, error) {
	return json.MarshalIndent(Render(g, viewport), "", "  ")
}
