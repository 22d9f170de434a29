package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompatibilityIsAsymmetric(t *testing.T) {
	assert.True(t, CanDrive(MonoAudio, StereoAudio), "mono output should drive stereo input")
	assert.False(t, CanDrive(StereoAudio, MonoAudio), "stereo output must not drive mono input")
}

func TestEveryTypeDrivesItself(t *testing.T) {
	for _, s := range All() {
		assert.True(t, CanDrive(s, s), "type %s should drive itself", s)
	}
}

func TestCompatibleTargetsUnknownType(t *testing.T) {
	targets := CompatibleTargets(Type("quantum-audio"))
	assert.Empty(t, targets, "unknown types must have no compatible targets")
}

func TestCompatibleTargetsReturnsCopy(t *testing.T) {
	targets := CompatibleTargets(MonoAudio)
	targets[Power] = true

	assert.False(t, CanDrive(MonoAudio, Power), "mutating the returned set must not alter the table")
}

func TestLabelFallback(t *testing.T) {
	assert.Equal(t, "Mono Audio", Label(MonoAudio))
	assert.Equal(t, "quantum-audio", Label(Type("quantum-audio")))
}

func TestDefaultConnectorFallback(t *testing.T) {
	assert.Equal(t, DIN5, DefaultConnector(MIDI))
	assert.Equal(t, XLR, DefaultConnector(Type("quantum-audio")))
}

func TestDisplayColorFallback(t *testing.T) {
	assert.Equal(t, "#9C27B0", DisplayColor(MIDI))
	assert.Equal(t, FallbackColor, DisplayColor(Type("quantum-audio")))
}

func TestAllTablesCoverEveryType(t *testing.T) {
	for _, s := range All() {
		assert.True(t, Known(s))
		assert.NotEqual(t, string(s), "", Label(s))
		assert.NotEmpty(t, DefaultConnector(s))
		assert.NotEqual(t, FallbackColor, DisplayColor(s), "registered type %s should have its own color", s)
	}
}

func TestConnectorLabelFallback(t *testing.T) {
	assert.Equal(t, "XLR", ConnectorLabel(XLR))
	assert.Equal(t, "banana", ConnectorLabel(Connector("banana")))
}
