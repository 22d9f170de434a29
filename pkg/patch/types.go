package patch

import (
	"github.com/dd0wney/cluso-patchbay/pkg/signal"
)

// Direction indicates whether a port accepts or emits signal.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// Port is a named, directional, typed connection point on a device.
// Its ID is unique among the ports of its owning device. Direction is
// fixed at creation; signal and connector types may be edited later.
type Port struct {
	ID        string           `json:"id" validate:"required"`
	Name      string           `json:"name" validate:"required,max=100"`
	Direction Direction        `json:"direction" validate:"required,oneof=input output"`
	Signal    signal.Type      `json:"signalType" validate:"required"`
	Connector signal.Connector `json:"connectorType,omitempty"`
}

// IsOutput reports whether the port emits signal.
func (p Port) IsOutput() bool { return p.Direction == Output }

// IsInput reports whether the port accepts signal.
func (p Port) IsInput() bool { return p.Direction == Input }

// Device is a placed device instance. It owns copies of its ports, so
// editing one instance never affects the template or other instances.
type Device struct {
	ID    string  `json:"id" validate:"required"`
	Name  string  `json:"name" validate:"required,max=100"`
	Kind  string  `json:"kind,omitempty" validate:"max=50"`
	Ports []Port  `json:"ports" validate:"dive"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color,omitempty"`
}

// Port returns the port with the given id, or false if the device has no
// such port.
func (d *Device) Port(portID string) (Port, bool) {
	for _, p := range d.Ports {
		if p.ID == portID {
			return p, true
		}
	}
	return Port{}, false
}

// Clone returns a deep copy of the device, including its ports.
func (d *Device) Clone() *Device {
	out := *d
	out.Ports = make([]Port, len(d.Ports))
	copy(out.Ports, d.Ports)
	return &out
}

// Cable is a directed connection from an output port to an input port.
// Signal is cached from the source port at creation time so a rehydrated
// document can be rendered without re-resolving every port.
type Cable struct {
	ID             string      `json:"id" validate:"required"`
	SourceDeviceID string      `json:"sourceDeviceId" validate:"required"`
	SourcePortID   string      `json:"sourcePortId" validate:"required"`
	TargetDeviceID string      `json:"targetDeviceId" validate:"required"`
	TargetPortID   string      `json:"targetPortId" validate:"required"`
	Signal         signal.Type `json:"signalType,omitempty"`
	Color          string      `json:"color,omitempty"`
}

// Touches reports whether the cable references the given port on the
// given device, as either endpoint.
func (c Cable) Touches(deviceID, portID string) bool {
	return (c.SourceDeviceID == deviceID && c.SourcePortID == portID) ||
		(c.TargetDeviceID == deviceID && c.TargetPortID == portID)
}

// Viewport captures the editor camera so a reopened project looks the
// way it was left.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Graph is an immutable snapshot of the patch at a point in time, the
// unit the cycle detector and setup auditor operate over.
type Graph struct {
	Devices []*Device `json:"devices"`
	Cables  []Cable   `json:"cables"`
}
