package library

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/signal"
)

// Common sentinel errors
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrDuplicateID      = errors.New("duplicate template id")
)

// Template describes a device type the user can place. Placing copies
// the port list onto a fresh device instance; the template itself is
// never mutated by edits to placed devices.
type Template struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Ports    []patch.Port `json:"ports"`
	Color    string       `json:"color,omitempty"`
}

// Library holds built-in and user device templates.
type Library struct {
	mu        sync.RWMutex
	templates map[string]*Template
	order     []string
}

// New creates a library preloaded with the built-in catalog.
func New() *Library {
	l := &Library{templates: make(map[string]*Template)}
	for _, t := range builtins() {
		l.templates[t.ID] = t
		l.order = append(l.order, t.ID)
	}
	return l
}

// Add registers a user template.
func (l *Library) Add(t *Template) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := l.templates[t.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}
	stored := *t
	stored.Ports = append([]patch.Port{}, t.Ports...)
	l.templates[t.ID] = &stored
	l.order = append(l.order, t.ID)
	return nil
}

// Get returns a copy of the template with the given id.
func (l *Library) Get(id string) (*Template, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	out := *t
	out.Ports = append([]patch.Port{}, t.Ports...)
	return &out, nil
}

// All returns copies of every template in catalog order.
func (l *Library) All() []*Template {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Template, 0, len(l.order))
	for _, id := range l.order {
		t := *l.templates[id]
		t.Ports = append([]patch.Port{}, l.templates[id].Ports...)
		out = append(out, &t)
	}
	return out
}

// Search returns templates whose name or category contains the query,
// case-insensitive, sorted by name.
func (l *Library) Search(query string) []*Template {
	q := strings.ToLower(strings.TrimSpace(query))

	matches := make([]*Template, 0)
	for _, t := range l.All() {
		if q == "" ||
			strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Category), q) {
			matches = append(matches, t)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	return matches
}

// Place builds a new device from a template, at the given position.
// Every placement gets a fresh device ID; port IDs are kept from the
// template since they only need to be unique within the device.
func (l *Library) Place(templateID string, x, y float64) (*patch.Device, error) {
	t, err := l.Get(templateID)
	if err != nil {
		return nil, err
	}
	return &patch.Device{
		ID:    uuid.NewString(),
		Name:  t.Name,
		Kind:  t.Category,
		Ports: t.Ports, // Get already copied
		X:     x,
		Y:     y,
		Color: t.Color,
	}, nil
}

func port(id, name string, dir patch.Direction, sig signal.Type) patch.Port {
	return patch.Port{
		ID:        id,
		Name:      name,
		Direction: dir,
		Signal:    sig,
		Connector: signal.DefaultConnector(sig),
	}
}

// builtins is the stock device catalog.
func builtins() []*Template {
	return []*Template{
		{
			ID: "mixer-8ch", Name: "8-Channel Mixer", Category: "mixer",
			Ports: []patch.Port{
				port("ch1", "Channel 1", patch.Input, signal.MonoAudio),
				port("ch2", "Channel 2", patch.Input, signal.MonoAudio),
				port("ch3", "Channel 3", patch.Input, signal.MonoAudio),
				port("ch4", "Channel 4", patch.Input, signal.MonoAudio),
				port("st1", "Stereo In 1", patch.Input, signal.StereoAudio),
				port("st2", "Stereo In 2", patch.Input, signal.StereoAudio),
				port("main", "Main Out", patch.Output, signal.StereoAudio),
				port("aux1", "Aux Send 1", patch.Output, signal.MonoAudio),
			},
		},
		{
			ID: "synth-mono", Name: "Mono Synth", Category: "synth",
			Ports: []patch.Port{
				port("out", "Audio Out", patch.Output, signal.MonoAudio),
				port("midi-in", "MIDI In", patch.Input, signal.MIDI),
				port("cv-in", "CV In", patch.Input, signal.Control),
			},
		},
		{
			ID: "synth-poly", Name: "Poly Synth", Category: "synth",
			Ports: []patch.Port{
				port("out", "Stereo Out", patch.Output, signal.StereoAudio),
				port("midi-in", "MIDI In", patch.Input, signal.MIDI),
				port("midi-thru", "MIDI Thru", patch.Output, signal.MIDI),
			},
		},
		{
			ID: "audio-interface", Name: "Audio Interface", Category: "interface",
			Ports: []patch.Port{
				port("in1", "Input 1", patch.Input, signal.MonoAudio),
				port("in2", "Input 2", patch.Input, signal.MonoAudio),
				port("monitor", "Monitor Out", patch.Output, signal.StereoAudio),
				port("spdif-in", "S/PDIF In", patch.Input, signal.SPDIF),
				port("spdif-out", "S/PDIF Out", patch.Output, signal.SPDIF),
				port("adat-in", "ADAT In", patch.Input, signal.ADAT),
				port("usb", "USB", patch.Output, signal.DigitalAudio),
			},
		},
		{
			ID: "midi-controller", Name: "MIDI Controller", Category: "controller",
			Ports: []patch.Port{
				port("midi-out", "MIDI Out", patch.Output, signal.MIDI),
				port("usb", "USB MIDI", patch.Output, signal.DigitalMIDI),
			},
		},
		{
			ID: "di-box", Name: "DI Box", Category: "utility",
			Ports: []patch.Port{
				port("in", "Instrument In", patch.Input, signal.MonoAudio),
				port("out", "Balanced Out", patch.Output, signal.MonoAudio),
				port("thru", "Thru", patch.Output, signal.MonoAudio),
			},
		},
		{
			ID: "power-conditioner", Name: "Power Conditioner", Category: "utility",
			Ports: []patch.Port{
				port("mains-in", "Mains In", patch.Input, signal.Power),
				port("out1", "Outlet 1", patch.Output, signal.Power),
				port("out2", "Outlet 2", patch.Output, signal.Power),
				port("out3", "Outlet 3", patch.Output, signal.Power),
			},
		},
		{
			ID: "computer", Name: "Computer", Category: "computer",
			Ports: []patch.Port{
				port("usb-audio", "USB Audio", patch.Input, signal.DigitalAudio),
				port("usb-midi", "USB MIDI", patch.Input, signal.DigitalMIDI),
				port("dante", "Dante", patch.Output, signal.NetworkedAudio),
			},
		},
		{
			ID: "monitor-pair", Name: "Studio Monitors", Category: "monitor",
			Ports: []patch.Port{
				port("in", "Stereo In", patch.Input, signal.StereoAudio),
				port("mains", "Mains", patch.Input, signal.Power),
			},
		},
	}
}
