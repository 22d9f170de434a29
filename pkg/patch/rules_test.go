package patch

import (
	"testing"

	"github.com/dd0wney/cluso-patchbay/pkg/signal"
	"github.com/stretchr/testify/assert"
)

func outPort(id string, s signal.Type) Port {
	return Port{ID: id, Name: id, Direction: Output, Signal: s}
}

func inPort(id string, s signal.Type) Port {
	return Port{ID: id, Name: id, Direction: Input, Signal: s}
}

func TestValidateConnection_SourceMustBeOutput(t *testing.T) {
	for _, s := range signal.All() {
		res := ValidateConnection(inPort("a", s), inPort("b", s))
		assert.False(t, res.Valid, "input source of type %s must be rejected", s)
		assert.Equal(t, "source must be an output", res.Message)
	}
}

func TestValidateConnection_TargetMustBeInput(t *testing.T) {
	for _, s := range signal.All() {
		res := ValidateConnection(outPort("a", s), outPort("b", s))
		assert.False(t, res.Valid, "output target of type %s must be rejected", s)
		assert.Equal(t, "target must be an input", res.Message)
	}
}

// The validator must agree with the registry table for every type pair.
func TestValidateConnection_MatchesCompatibilityTable(t *testing.T) {
	for _, src := range signal.All() {
		targets := signal.CompatibleTargets(src)
		for _, dst := range signal.All() {
			res := ValidateConnection(outPort("out", src), inPort("in", dst))
			if targets[dst] {
				assert.True(t, res.Valid, "%s -> %s should be valid", src, dst)
			} else {
				assert.False(t, res.Valid, "%s -> %s should be invalid", src, dst)
				assert.Contains(t, res.Message, signal.Label(src))
				assert.Contains(t, res.Message, signal.Label(dst))
			}
		}
	}
}

func TestValidateConnection_MonoIntoStereoWarns(t *testing.T) {
	res := ValidateConnection(outPort("out", signal.MonoAudio), inPort("in", signal.StereoAudio))

	assert.True(t, res.Valid)
	assert.True(t, res.Warning)
	assert.NotEmpty(t, res.Message)
}

func TestValidateConnection_StereoIntoMonoRejected(t *testing.T) {
	res := ValidateConnection(outPort("out", signal.StereoAudio), inPort("in", signal.MonoAudio))

	assert.False(t, res.Valid)
	assert.False(t, res.Warning)
}

func TestValidateConnection_CleanConnectionHasNoMessage(t *testing.T) {
	res := ValidateConnection(outPort("out", signal.MIDI), inPort("in", signal.MIDI))

	assert.True(t, res.Valid)
	assert.False(t, res.Warning)
	assert.Empty(t, res.Message)
}

func TestValidateConnection_UnknownSignalFailsClosed(t *testing.T) {
	res := ValidateConnection(outPort("out", signal.Type("quantum-audio")), inPort("in", signal.MonoAudio))
	assert.False(t, res.Valid)
}

func TestValidateCable_UnresolvedReferencesFailClosed(t *testing.T) {
	store := NewStore()
	dev, err := store.AddDevice(&Device{
		Name:  "Synth",
		Ports: []Port{outPort("main-out", signal.MonoAudio)},
	})
	assert.NoError(t, err)

	// Unknown target device
	res := ValidateCable(store, Cable{
		SourceDeviceID: dev.ID, SourcePortID: "main-out",
		TargetDeviceID: "ghost", TargetPortID: "in",
	})
	assert.False(t, res.Valid)
	assert.Contains(t, res.Message, "not found")

	// Known device, unknown port
	res = ValidateCable(store, Cable{
		SourceDeviceID: dev.ID, SourcePortID: "no-such-port",
		TargetDeviceID: dev.ID, TargetPortID: "main-out",
	})
	assert.False(t, res.Valid)
}
