package checks

import (
	"fmt"

	"github.com/dd0wney/cluso-patchbay/pkg/patch"
)

// UnconnectedPortCheck reports every port with no cable on either end.
// An unconnected port is a normal state (nothing downstream yet), so
// the issues are informational only.
type UnconnectedPortCheck struct{}

// Name returns the check name.
func (c *UnconnectedPortCheck) Name() string {
	return "UnconnectedPort"
}

// Check walks every port on every device, in graph order, and emits an
// Info issue for each one no cable touches.
func (c *UnconnectedPortCheck) Check(g *patch.Graph) []Issue {
	connected := make(map[[2]string]bool, len(g.Cables)*2)
	for _, cbl := range g.Cables {
		connected[[2]string{cbl.SourceDeviceID, cbl.SourcePortID}] = true
		connected[[2]string{cbl.TargetDeviceID, cbl.TargetPortID}] = true
	}

	issues := make([]Issue, 0)
	for _, d := range g.Devices {
		for _, p := range d.Ports {
			if connected[[2]string{d.ID, p.ID}] {
				continue
			}
			issues = append(issues, Issue{
				Severity: Info,
				DeviceID: d.ID,
				PortID:   p.ID,
				Check:    c.Name(),
				Message:  fmt.Sprintf("port %q on %q is not connected", p.Name, d.Name),
			})
		}
	}
	return issues
}
