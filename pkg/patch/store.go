package patch

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store is the in-memory patch graph: a directed multigraph of devices
// and cables keyed by id. All methods are safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	devices map[string]*Device
	cables  map[string]*Cable

	// Adjacency indexes: device ID -> cable IDs
	outgoing map[string][]string
	incoming map[string][]string

	// Insertion order, for deterministic listing
	deviceOrder []string
	cableOrder  []string

	viewport Viewport
}

// Statistics reports the current size of the patch graph.
type Statistics struct {
	DeviceCount int
	CableCount  int
	PortCount   int
}

// NewStore creates an empty patch store.
func NewStore() *Store {
	return &Store{
		devices:  make(map[string]*Device),
		cables:   make(map[string]*Cable),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		viewport: Viewport{Zoom: 1},
	}
}

// AddDevice places a device. A missing ID is generated; port IDs must be
// unique within the device.
func (s *Store) AddDevice(d *Device) (*Device, error) {
	if d == nil {
		return nil, storeErr("AddDevice", "device", "", ErrDeviceNotFound)
	}
	seen := make(map[string]bool, len(d.Ports))
	for _, p := range d.Ports {
		if seen[p.ID] {
			return nil, storeErr("AddDevice", "port", p.ID, ErrDuplicatePortID)
		}
		seen[p.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := d.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	} else if _, exists := s.devices[stored.ID]; exists {
		return nil, storeErr("AddDevice", "device", stored.ID, ErrDuplicateID)
	}

	s.devices[stored.ID] = stored
	s.deviceOrder = append(s.deviceOrder, stored.ID)
	return stored.Clone(), nil
}

// GetDevice returns a copy of the device with the given id.
func (s *Store) GetDevice(id string) (*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok {
		return nil, storeErr("GetDevice", "device", id, ErrDeviceNotFound)
	}
	return d.Clone(), nil
}

// UpdateDevice replaces the stored device with the given one. The port
// set may change; cables referencing removed ports are cascade-deleted.
func (s *Store) UpdateDevice(d *Device) (*Device, error) {
	if d == nil || d.ID == "" {
		return nil, storeErr("UpdateDevice", "device", "", ErrDeviceNotFound)
	}
	seen := make(map[string]bool, len(d.Ports))
	for _, p := range d.Ports {
		if seen[p.ID] {
			return nil, storeErr("UpdateDevice", "port", p.ID, ErrDuplicatePortID)
		}
		seen[p.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[d.ID]; !ok {
		return nil, storeErr("UpdateDevice", "device", d.ID, ErrDeviceNotFound)
	}
	s.devices[d.ID] = d.Clone()

	// Drop cables whose port no longer exists on the updated device.
	for _, c := range s.cablesTouchingLocked(d.ID) {
		keep := true
		if c.SourceDeviceID == d.ID && !seen[c.SourcePortID] {
			keep = false
		}
		if c.TargetDeviceID == d.ID && !seen[c.TargetPortID] {
			keep = false
		}
		if !keep {
			s.removeCableLocked(c.ID)
		}
	}
	return s.devices[d.ID].Clone(), nil
}

// DeleteDevice removes a device and cascade-deletes every cable incident
// to it.
func (s *Store) DeleteDevice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[id]; !ok {
		return storeErr("DeleteDevice", "device", id, ErrDeviceNotFound)
	}
	for _, c := range s.cablesTouchingLocked(id) {
		s.removeCableLocked(c.ID)
	}
	delete(s.devices, id)
	s.deviceOrder = removeString(s.deviceOrder, id)
	return nil
}

// Devices returns copies of all devices in insertion order.
func (s *Store) Devices() []*Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Device, 0, len(s.deviceOrder))
	for _, id := range s.deviceOrder {
		out = append(out, s.devices[id].Clone())
	}
	return out
}

// ResolvePort looks up a port by device and port id.
func (s *Store) ResolvePort(deviceID, portID string) (Port, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolvePortLocked(deviceID, portID)
}

func (s *Store) resolvePortLocked(deviceID, portID string) (Port, error) {
	d, ok := s.devices[deviceID]
	if !ok {
		return Port{}, storeErr("ResolvePort", "device", deviceID, ErrDeviceNotFound)
	}
	p, ok := d.Port(portID)
	if !ok {
		return Port{}, storeErr("ResolvePort", "port", portID, ErrPortNotFound)
	}
	return p, nil
}

// AddCable stores a cable. Both endpoints must resolve; the signal type
// is cached from the source port when the caller left it empty. Legality
// of the connection is the validator's concern, not the store's.
func (s *Store) AddCable(c Cable) (Cable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := s.resolvePortLocked(c.SourceDeviceID, c.SourcePortID)
	if err != nil {
		return Cable{}, storeErr("AddCable", "port", c.SourcePortID, err)
	}
	if _, err := s.resolvePortLocked(c.TargetDeviceID, c.TargetPortID); err != nil {
		return Cable{}, storeErr("AddCable", "port", c.TargetPortID, err)
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	} else if _, exists := s.cables[c.ID]; exists {
		return Cable{}, storeErr("AddCable", "cable", c.ID, ErrDuplicateID)
	}
	if c.Signal == "" {
		c.Signal = src.Signal
	}

	stored := c
	s.cables[stored.ID] = &stored
	s.cableOrder = append(s.cableOrder, stored.ID)
	s.outgoing[stored.SourceDeviceID] = append(s.outgoing[stored.SourceDeviceID], stored.ID)
	s.incoming[stored.TargetDeviceID] = append(s.incoming[stored.TargetDeviceID], stored.ID)
	return stored, nil
}

// GetCable returns the cable with the given id.
func (s *Store) GetCable(id string) (Cable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cables[id]
	if !ok {
		return Cable{}, storeErr("GetCable", "cable", id, ErrCableNotFound)
	}
	return *c, nil
}

// DeleteCable removes a cable.
func (s *Store) DeleteCable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cables[id]; !ok {
		return storeErr("DeleteCable", "cable", id, ErrCableNotFound)
	}
	s.removeCableLocked(id)
	return nil
}

// Cables returns all cables in insertion order.
func (s *Store) Cables() []Cable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Cable, 0, len(s.cableOrder))
	for _, id := range s.cableOrder {
		out = append(out, *s.cables[id])
	}
	return out
}

// OutgoingCables returns the cables whose source is the given device.
func (s *Store) OutgoingCables(deviceID string) []Cable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Cable, 0, len(s.outgoing[deviceID]))
	for _, id := range s.outgoing[deviceID] {
		out = append(out, *s.cables[id])
	}
	return out
}

// IncomingCables returns the cables whose target is the given device.
func (s *Store) IncomingCables(deviceID string) []Cable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Cable, 0, len(s.incoming[deviceID]))
	for _, id := range s.incoming[deviceID] {
		out = append(out, *s.cables[id])
	}
	return out
}

// Viewport returns the stored editor viewport.
func (s *Store) Viewport() Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// SetViewport stores the editor viewport.
func (s *Store) SetViewport(v Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = v
}

// Snapshot returns a deep copy of the whole graph. Callers may mutate
// the store immediately after; the snapshot never aliases live state.
func (s *Store) Snapshot() *Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := &Graph{
		Devices: make([]*Device, 0, len(s.deviceOrder)),
		Cables:  make([]Cable, 0, len(s.cableOrder)),
	}
	for _, id := range s.deviceOrder {
		g.Devices = append(g.Devices, s.devices[id].Clone())
	}
	for _, id := range s.cableOrder {
		g.Cables = append(g.Cables, *s.cables[id])
	}
	return g
}

// Replace swaps the entire store contents for the given graph, used when
// loading a project document. Input is copied, not retained.
func (s *Store) Replace(g *Graph, v Viewport) error {
	// Validate referential integrity before touching state.
	byID := make(map[string]*Device, len(g.Devices))
	for _, d := range g.Devices {
		if _, dup := byID[d.ID]; dup {
			return storeErr("Replace", "device", d.ID, ErrDuplicateID)
		}
		byID[d.ID] = d
	}
	for _, c := range g.Cables {
		src, ok := byID[c.SourceDeviceID]
		if !ok {
			return storeErr("Replace", "device", c.SourceDeviceID, ErrDeviceNotFound)
		}
		if _, ok := src.Port(c.SourcePortID); !ok {
			return storeErr("Replace", "port", c.SourcePortID, ErrPortNotFound)
		}
		dst, ok := byID[c.TargetDeviceID]
		if !ok {
			return storeErr("Replace", "device", c.TargetDeviceID, ErrDeviceNotFound)
		}
		if _, ok := dst.Port(c.TargetPortID); !ok {
			return storeErr("Replace", "port", c.TargetPortID, ErrPortNotFound)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.devices = make(map[string]*Device, len(g.Devices))
	s.cables = make(map[string]*Cable, len(g.Cables))
	s.outgoing = make(map[string][]string)
	s.incoming = make(map[string][]string)
	s.deviceOrder = s.deviceOrder[:0]
	s.cableOrder = s.cableOrder[:0]

	for _, d := range g.Devices {
		s.devices[d.ID] = d.Clone()
		s.deviceOrder = append(s.deviceOrder, d.ID)
	}
	for _, c := range g.Cables {
		stored := c
		s.cables[stored.ID] = &stored
		s.cableOrder = append(s.cableOrder, stored.ID)
		s.outgoing[stored.SourceDeviceID] = append(s.outgoing[stored.SourceDeviceID], stored.ID)
		s.incoming[stored.TargetDeviceID] = append(s.incoming[stored.TargetDeviceID], stored.ID)
	}
	s.viewport = v
	return nil
}

// GetStatistics returns current graph size counters.
func (s *Store) GetStatistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ports := 0
	for _, d := range s.devices {
		ports += len(d.Ports)
	}
	return Statistics{
		DeviceCount: len(s.devices),
		CableCount:  len(s.cables),
		PortCount:   ports,
	}
}

// cablesTouchingLocked returns copies of every cable incident to a device.
func (s *Store) cablesTouchingLocked(deviceID string) []Cable {
	ids := make([]string, 0, len(s.outgoing[deviceID])+len(s.incoming[deviceID]))
	ids = append(ids, s.outgoing[deviceID]...)
	ids = append(ids, s.incoming[deviceID]...)
	sort.Strings(ids)

	out := make([]Cable, 0, len(ids))
	var last string
	for _, id := range ids {
		if id == last {
			continue // self-referencing cable appears in both indexes
		}
		last = id
		out = append(out, *s.cables[id])
	}
	return out
}

func (s *Store) removeCableLocked(id string) {
	c, ok := s.cables[id]
	if !ok {
		return
	}
	delete(s.cables, id)
	s.cableOrder = removeString(s.cableOrder, id)
	s.outgoing[c.SourceDeviceID] = removeString(s.outgoing[c.SourceDeviceID], id)
	s.incoming[c.TargetDeviceID] = removeString(s.incoming[c.TargetDeviceID], id)
}

func removeString(list []string, v string) []string {
	for i, s := range list {
		if s == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
