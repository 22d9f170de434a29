package checks

import "fmt"

// Severity indicates the importance of an issue.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// MarshalText renders the severity for JSON documents and API responses.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses the textual form produced by MarshalText.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Info":
		*s = Info
	case "Warning":
		*s = Warning
	case "Error":
		*s = Error
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Issue is a single non-fatal diagnostic about the patch. No built-in
// check currently emits Error; the level exists for future checks.
type Issue struct {
	Severity Severity       `json:"severity"`
	DeviceID string         `json:"deviceId,omitempty"`
	PortID   string         `json:"portId,omitempty"`
	Check    string         `json:"check"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}
