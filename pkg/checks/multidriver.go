package checks

import (
	"fmt"

	"github.com/dd0wney/cluso-patchbay/pkg/patch"
)

// MultipleDriverCheck reports every input port driven by more than one
// cable. The model allows the state, but two outputs feeding one input
// means signal contention on real hardware, so it warrants a warning.
type MultipleDriverCheck struct{}

// Name returns the check name.
func (c *MultipleDriverCheck) Name() string {
	return "MultipleDriver"
}

// Check groups cables by target port and emits one Warning per port
// with more than one driver. Issue order follows the first cable that
// reached each contended port, keeping output deterministic.
func (c *MultipleDriverCheck) Check(g *patch.Graph) []Issue {
	type target struct{ deviceID, portID string }

	counts := make(map[target]int)
	order := make([]target, 0)
	for _, cbl := range g.Cables {
		key := target{cbl.TargetDeviceID, cbl.TargetPortID}
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}

	names := func(deviceID, portID string) (string, string) {
		for _, d := range g.Devices {
			if d.ID != deviceID {
				continue
			}
			if p, ok := d.Port(portID); ok {
				return d.Name, p.Name
			}
			return d.Name, portID
		}
		return deviceID, portID
	}

	issues := make([]Issue, 0)
	for _, key := range order {
		n := counts[key]
		if n < 2 {
			continue
		}
		deviceName, portName := names(key.deviceID, key.portID)
		issues = append(issues, Issue{
			Severity: Warning,
			DeviceID: key.deviceID,
			PortID:   key.portID,
			Check:    c.Name(),
			Message:  fmt.Sprintf("input %q on %q is driven by %d outputs", portName, deviceName, n),
			Details:  map[string]any{"drivers": n},
		})
	}
	return issues
}
