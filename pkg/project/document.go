package project

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/signal"
)

// CurrentVersion is the document format version written on save.
const CurrentVersion = 2

// Common sentinel errors
var (
	ErrNotFound           = errors.New("project not found")
	ErrUnsupportedVersion = errors.New("unsupported document version")
)

// Document is the serialized form of a whole project: the patch graph
// plus the viewport, versioned so older files stay loadable.
type Document struct {
	Version   int             `json:"version" validate:"required,min=1"`
	Name      string          `json:"name" validate:"required,max=200"`
	SavedAt   time.Time       `json:"savedAt"`
	Devices   []*patch.Device `json:"devices" validate:"dive"`
	Cables    []patch.Cable   `json:"cables" validate:"dive"`
	Viewport  patch.Viewport  `json:"viewport"`
}

var validate = validator.New()

// FromStore captures the current store contents as a document.
func FromStore(name string, s *patch.Store) *Document {
	g := s.Snapshot()
	return &Document{
		Version:  CurrentVersion,
		Name:     name,
		SavedAt:  time.Now().UTC(),
		Devices:  g.Devices,
		Cables:   g.Cables,
		Viewport: s.Viewport(),
	}
}

// Apply loads the document into the store, replacing its contents. The
// document is checked first; a bad document leaves the store untouched.
func (d *Document) Apply(s *patch.Store) error {
	if err := d.Check(); err != nil {
		return err
	}
	return s.Replace(&patch.Graph{Devices: d.Devices, Cables: d.Cables}, d.Viewport)
}

// Check validates a document's structure and referential integrity.
// Documents come from disk or import and are untrusted: every failure
// here is reported, never panicked on.
func (d *Document) Check() error {
	if d.Version < 1 || d.Version > CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version)
	}
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid project document: %w", err)
	}

	devices := make(map[string]*patch.Device, len(d.Devices))
	for _, dev := range d.Devices {
		if _, dup := devices[dev.ID]; dup {
			return fmt.Errorf("duplicate device id %q", dev.ID)
		}
		devices[dev.ID] = dev

		seen := make(map[string]bool, len(dev.Ports))
		for _, p := range dev.Ports {
			if seen[p.ID] {
				return fmt.Errorf("duplicate port id %q on device %q", p.ID, dev.ID)
			}
			seen[p.ID] = true
			if p.Direction != patch.Input && p.Direction != patch.Output {
				return fmt.Errorf("port %q on device %q has invalid direction %q", p.ID, dev.ID, p.Direction)
			}
		}
	}

	cableIDs := make(map[string]bool, len(d.Cables))
	for _, c := range d.Cables {
		if cableIDs[c.ID] {
			return fmt.Errorf("duplicate cable id %q", c.ID)
		}
		cableIDs[c.ID] = true

		src, ok := devices[c.SourceDeviceID]
		if !ok {
			return fmt.Errorf("cable %q references unknown source device %q", c.ID, c.SourceDeviceID)
		}
		if _, ok := src.Port(c.SourcePortID); !ok {
			return fmt.Errorf("cable %q references unknown source port %q", c.ID, c.SourcePortID)
		}
		dst, ok := devices[c.TargetDeviceID]
		if !ok {
			return fmt.Errorf("cable %q references unknown target device %q", c.ID, c.TargetDeviceID)
		}
		if _, ok := dst.Port(c.TargetPortID); !ok {
			return fmt.Errorf("cable %q references unknown target port %q", c.ID, c.TargetPortID)
		}
	}
	return nil
}

// migrate upgrades older documents in place. Version 1 predates cached
// cable signal types; fill them from the source port.
func (d *Document) migrate() {
	if d.Version >= CurrentVersion {
		return
	}
	byID := make(map[string]*patch.Device, len(d.Devices))
	for _, dev := range d.Devices {
		byID[dev.ID] = dev
	}
	for i := range d.Cables {
		if d.Cables[i].Signal != "" {
			continue
		}
		if dev, ok := byID[d.Cables[i].SourceDeviceID]; ok {
			if p, ok := dev.Port(d.Cables[i].SourcePortID); ok {
				d.Cables[i].Signal = p.Signal
			}
		}
		if d.Cables[i].Color == "" {
			d.Cables[i].Color = signal.DisplayColor(d.Cables[i].Signal)
		}
	}
	d.Version = CurrentVersion
}
