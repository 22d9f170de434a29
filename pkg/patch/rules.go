package patch

import (
	"fmt"

	"github.com/dd0wney/cluso-patchbay/pkg/signal"
)

// Result is the outcome of checking a proposed connection. A rejected
// connection is reported here, never as an error: bad user input is a
// normal interactive condition, not a fault.
type Result struct {
	Valid   bool   `json:"valid"`
	Warning bool   `json:"warning"`
	Message string `json:"message,omitempty"`
}

// connectionRule inspects a source/target port pair once the pair has
// passed the direction and compatibility gates. The first rule to return
// a non-zero result wins.
type connectionRule func(source, target Port) (Result, bool)

// advisoryRules run in order after the hard rules pass. New advisories
// append here without disturbing the hard rules.
var advisoryRules = []connectionRule{
	monoIntoStereo,
}

// ValidateConnection decides whether an output port may be cabled into
// an input port. It is a pure function of its two arguments; it never
// consults the rest of the graph.
//
// Rule order: source direction, target direction, signal compatibility,
// then advisories. First failing rule wins.
func ValidateConnection(source, target Port) Result {
	if !source.IsOutput() {
		return Result{Valid: false, Message: "source must be an output"}
	}
	if !target.IsInput() {
		return Result{Valid: false, Message: "target must be an input"}
	}
	if !signal.CanDrive(source.Signal, target.Signal) {
		return Result{
			Valid: false,
			Message: fmt.Sprintf("%s output cannot drive %s input",
				signal.Label(source.Signal), signal.Label(target.Signal)),
		}
	}
	for _, rule := range advisoryRules {
		if res, fired := rule(source, target); fired {
			return res
		}
	}
	return Result{Valid: true}
}

// monoIntoStereo flags the one documented reduced-fidelity case: a mono
// output feeding a stereo input drives only one channel. The connection
// stays legal.
func monoIntoStereo(source, target Port) (Result, bool) {
	if source.Signal == signal.MonoAudio && target.Signal == signal.StereoAudio {
		return Result{
			Valid:   true,
			Warning: true,
			Message: "mono source into stereo input: only one channel will be driven",
		}, true
	}
	return Result{}, false
}

// ValidateCable resolves both endpoints of a proposed cable against the
// store and validates the connection. Unresolved references fail closed
// as invalid results rather than errors, since cable requests may come
// from untrusted imported documents.
func ValidateCable(s *Store, c Cable) Result {
	source, err := s.ResolvePort(c.SourceDeviceID, c.SourcePortID)
	if err != nil {
		return Result{Valid: false, Message: fmt.Sprintf("source port %s/%s not found", c.SourceDeviceID, c.SourcePortID)}
	}
	target, err := s.ResolvePort(c.TargetDeviceID, c.TargetPortID)
	if err != nil {
		return Result{Valid: false, Message: fmt.Sprintf("target port %s/%s not found", c.TargetDeviceID, c.TargetPortID)}
	}
	return ValidateConnection(source, target)
}
