package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph() *patch.Graph {
	return &patch.Graph{
		Devices: []*patch.Device{
			{
				ID: "synth", Name: "Mono Synth", Kind: "synth", X: 100, Y: 200,
				Ports: []patch.Port{
					{ID: "out", Name: "Out", Direction: patch.Output, Signal: signal.MonoAudio},
				},
			},
			{
				ID: "mixer", Name: "Mixer", Kind: "mixer", X: 400, Y: 200, Color: "#112233",
				Ports: []patch.Port{
					{ID: "ch1", Name: "Ch 1", Direction: patch.Input, Signal: signal.MonoAudio, Connector: signal.TRS},
				},
			},
		},
		Cables: []patch.Cable{
			{
				ID:             "c1",
				SourceDeviceID: "synth", SourcePortID: "out",
				TargetDeviceID: "mixer", TargetPortID: "ch1",
				Signal: signal.MonoAudio,
			},
		},
	}
}

func TestRender(t *testing.T) {
	doc := Render(testGraph(), patch.Viewport{Zoom: 1.5})

	require.Len(t, doc.Nodes, 2)
	require.Len(t, doc.Edges, 1)
	assert.Equal(t, 1.5, doc.Viewport.Zoom)

	synth := doc.Nodes[0]
	assert.Equal(t, "Mono Synth", synth.Name)
	assert.Equal(t, signal.FallbackColor, synth.Color, "unset device color falls back")
	require.Len(t, synth.Ports, 1)
	assert.Equal(t, signal.Label(signal.MonoAudio), synth.Ports[0].Label)
	assert.Equal(t, string(signal.DefaultConnector(signal.MonoAudio)), synth.Ports[0].Connector)

	mixer := doc.Nodes[1]
	assert.Equal(t, "#112233", mixer.Color, "explicit device color preserved")
	assert.Equal(t, string(signal.TRS), mixer.Ports[0].Connector, "explicit connector preserved")

	edge := doc.Edges[0]
	assert.Equal(t, "synth", edge.SourceNode)
	assert.Equal(t, "mixer", edge.TargetNode)
	assert.Equal(t, signal.DisplayColor(signal.MonoAudio), edge.Color, "unset cable color from signal palette")
}

func TestRenderJSON_RoundTrips(t *testing.T) {
	data, err := RenderJSON(testGraph(), patch.Viewport{})
	require.NoError(t, err)

	var doc RenderDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Nodes, 2)
	assert.Len(t, doc.Edges, 1)
}

func TestDotGenerator(t *testing.T) {
	out := (&DotGenerator{}).Generate("Studio A", testGraph())

	assert.True(t, strings.HasPrefix(out, "digraph \"Studio A\" {"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, "rankdir=LR")
	assert.Contains(t, out, `"synth"`)
	assert.Contains(t, out, `"mixer"`)
	assert.Contains(t, out, `"synth":"out" -> "mixer":"ch1"`)
	assert.Contains(t, out, signal.Label(signal.MonoAudio))
}

func TestDotGenerator_EscapesRecordCharacters(t *testing.T) {
	g := &patch.Graph{
		Devices: []*patch.Device{
			{
				ID: "d", Name: "A|B {weird}",
				Ports: []patch.Port{
					{ID: "in 1", Name: "In <1>", Direction: patch.Input, Signal: signal.MonoAudio},
				},
			},
		},
	}
	out := (&DotGenerator{}).Generate("x", g)

	assert.Contains(t, out, `A\|B \{weird\}`)
	assert.Contains(t, out, "<in_1>")
	assert.NotContains(t, out, "<in 1>")
}
