package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/signal"
)

// DotGenerator renders a patch graph as Graphviz DOT, one record node
// per device with its ports as fields, cables as labeled edges.
type DotGenerator struct{}

// Generate writes a digraph with left-to-right rank direction so signal
// flows across the page the way it does across the canvas.
func (g *DotGenerator) Generate(name string, graph *patch.Graph) string {
	var b bytes.Buffer
	b.WriteString(fmt.Sprintf("digraph %q {\n", name))
	b.WriteString("  rankdir=LR;\n")
	b.WriteString(fmt.Sprintf("  label=%q;\n", name))
	b.WriteString("  node [shape=record];\n")

	for _, d := range graph.Devices {
		b.WriteString(fmt.Sprintf("  %q [label=\"%s\"];\n", d.ID, deviceRecord(d)))
	}
	for _, c := range graph.Cables {
		b.WriteString(fmt.Sprintf("  %q:%q -> %q:%q [label=%q];\n",
			c.SourceDeviceID, portField(c.SourcePortID),
			c.TargetDeviceID, portField(c.TargetPortID),
			signal.Label(c.Signal)))
	}
	b.WriteString("}\n")
	return b.String()
}

// deviceRecord builds a record label with inputs on the left, the
// device name in the middle and outputs on the right.
func deviceRecord(d *patch.Device) string {
	var inputs, outputs []string
	for _, p := range d.Ports {
		field := fmt.Sprintf("<%s> %s", portField(p.ID), escapeLabel(p.Name))
		if p.Direction == patch.Input {
			inputs = append(inputs, field)
		} else {
			outputs = append(outputs, field)
		}
	}
	return fmt.Sprintf("{{%s}|%s|{%s}}",
		strings.Join(inputs, "|"),
		escapeLabel(d.Name),
		strings.Join(outputs, "|"))
}

// portField sanitizes a port ID into a DOT record field name.
func portField(id string) string {
	r := strings.NewReplacer("<", "_", ">", "_", "|", "_", "{", "_", "}", "_", "\"", "_", ":", "_", " ", "_")
	return r.Replace(id)
}

func escapeLabel(s string) string {
	r := strings.NewReplacer("\"", "\\\"", "|", "\\|", "{", "\\{", "}", "\\}", "<", "\\<", ">", "\\>")
	return r.Replace(s)
}
