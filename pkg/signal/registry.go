package signal

// Type identifies the kind of signal a port carries.
type Type string

const (
	MonoAudio      Type = "mono-audio"
	StereoAudio    Type = "stereo-audio"
	MIDI           Type = "midi"
	DigitalAudio   Type = "digital-audio"
	DigitalMIDI    Type = "digital-midi"
	Power          Type = "power"
	Control        Type = "control"
	SPDIF          Type = "spdif"
	ADAT           Type = "adat"
	NetworkedAudio Type = "networked-audio"
)

// Connector identifies the physical connector a port presents.
// Connectors are descriptive only; they never affect validation.
type Connector string

const (
	XLR        Connector = "balanced-3-pin"
	TS         Connector = "quarter-inch-unbalanced"
	TRS        Connector = "quarter-inch-balanced"
	RCA        Connector = "phono"
	DIN5       Connector = "5-pin-din"
	USB        Connector = "serial-bus"
	Ethernet   Connector = "structured-cable"
	Optical    Connector = "optical"
	PowerInlet Connector = "power-inlet"
	SpeakON    Connector = "speaker-twist-lock"
)

// compatibility maps each signal type to the set of target types an output
// of that type may drive. The relation is deliberately asymmetric: a mono
// output can feed a stereo input, but not the other way around.
var compatibility = map[Type]map[Type]bool{
	MonoAudio:      {MonoAudio: true, StereoAudio: true},
	StereoAudio:    {StereoAudio: true},
	MIDI:           {MIDI: true},
	DigitalAudio:   {DigitalAudio: true},
	DigitalMIDI:    {DigitalMIDI: true, MIDI: true},
	Power:          {Power: true},
	Control:        {Control: true},
	SPDIF:          {SPDIF: true, DigitalAudio: true},
	ADAT:           {ADAT: true, DigitalAudio: true},
	NetworkedAudio: {NetworkedAudio: true},
}

var labels = map[Type]string{
	MonoAudio:      "Mono Audio",
	StereoAudio:    "Stereo Audio",
	MIDI:           "MIDI",
	DigitalAudio:   "Digital Audio",
	DigitalMIDI:    "Digital MIDI (USB)",
	Power:          "Power",
	Control:        "Control Voltage",
	SPDIF:          "S/PDIF",
	ADAT:           "ADAT Lightpipe",
	NetworkedAudio: "Networked Audio",
}

var defaultConnectors = map[Type]Connector{
	MonoAudio:      XLR,
	StereoAudio:    TRS,
	MIDI:           DIN5,
	DigitalAudio:   USB,
	DigitalMIDI:    USB,
	Power:          PowerInlet,
	Control:        TS,
	SPDIF:          RCA,
	ADAT:           Optical,
	NetworkedAudio: Ethernet,
}

var colors = map[Type]string{
	MonoAudio:      "#4CAF50",
	StereoAudio:    "#2196F3",
	MIDI:           "#9C27B0",
	DigitalAudio:   "#FF9800",
	DigitalMIDI:    "#BA68C8",
	Power:          "#F44336",
	Control:        "#FFEB3B",
	SPDIF:          "#FF7043",
	ADAT:           "#EF6C00",
	NetworkedAudio: "#00BCD4",
}

// FallbackColor is returned for signal types missing from the color table.
const FallbackColor = "#9E9E9E"

// CompatibleTargets returns the set of signal types an output of type t may
// drive. Unknown types get an empty set, so validation fails closed.
func CompatibleTargets(t Type) map[Type]bool {
	targets, ok := compatibility[t]
	if !ok {
		return map[Type]bool{}
	}
	// Copy so callers cannot mutate the table.
	out := make(map[Type]bool, len(targets))
	for k, v := range targets {
		out[k] = v
	}
	return out
}

// CanDrive reports whether an output of type source may drive an input of
// type target.
func CanDrive(source, target Type) bool {
	return compatibility[source][target]
}

// Label returns the human-readable name for a signal type. Unknown types
// fall back to the raw tag so future tags render without a table update.
func Label(t Type) string {
	if l, ok := labels[t]; ok {
		return l
	}
	return string(t)
}

// DefaultConnector returns the connector typically used for a signal type,
// falling back to XLR for unknown tags.
func DefaultConnector(t Type) Connector {
	if c, ok := defaultConnectors[t]; ok {
		return c
	}
	return XLR
}

// DisplayColor returns the hex color used to draw cables of this signal
// type, falling back to a neutral gray for unknown tags.
func DisplayColor(t Type) string {
	if c, ok := colors[t]; ok {
		return c
	}
	return FallbackColor
}

// Known reports whether t is one of the registered signal types.
func Known(t Type) bool {
	_, ok := compatibility[t]
	return ok
}

// All returns every registered signal type in stable order.
func All() []Type {
	return []Type{
		MonoAudio, StereoAudio, MIDI, DigitalAudio, DigitalMIDI,
		Power, Control, SPDIF, ADAT, NetworkedAudio,
	}
}

// AllConnectors returns every registered connector type in stable order.
func AllConnectors() []Connector {
	return []Connector{
		XLR, TS, TRS, RCA, DIN5, USB, Ethernet, Optical, PowerInlet, SpeakON,
	}
}

// ConnectorLabel returns the human-readable name for a connector type,
// falling back to the raw tag.
func ConnectorLabel(c Connector) string {
	if l, ok := connectorLabels[c]; ok {
		return l
	}
	return string(c)
}

var connectorLabels = map[Connector]string{
	XLR:        "XLR",
	TS:         "1/4\" TS",
	TRS:        "1/4\" TRS",
	RCA:        "RCA",
	DIN5:       "5-pin DIN",
	USB:        "USB",
	Ethernet:   "Ethernet",
	Optical:    "TOSLINK",
	PowerInlet: "IEC",
	SpeakON:    "speakON",
}
