package api

import (
	"time"

	"github.com/dd0wney/cluso-patchbay/pkg/algorithms"
	"github.com/dd0wney/cluso-patchbay/pkg/checks"
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
)

// DeviceRequest is the payload for creating or updating a device.
type DeviceRequest struct {
	ID    string       `json:"id,omitempty"`
	Name  string       `json:"name"`
	Kind  string       `json:"kind,omitempty"`
	Ports []patch.Port `json:"ports"`
	X     float64      `json:"x,omitempty"`
	Y     float64      `json:"y,omitempty"`
	Color string       `json:"color,omitempty"`
}

// CableRequest is the payload for creating a cable. Endpoint is the
// shared shape for validation and cycle-check requests too.
type CableRequest struct {
	ID string `json:"id,omitempty"`
	Endpoint
}

// Endpoint names the two port references a cable would connect.
type Endpoint struct {
	SourceDeviceID string `json:"source_device_id"`
	SourcePortID   string `json:"source_port_id"`
	TargetDeviceID string `json:"target_device_id"`
	TargetPortID   string `json:"target_port_id"`
}

// ValidationResponse reports a connection validation outcome.
type ValidationResponse struct {
	Valid   bool   `json:"valid"`
	Warning bool   `json:"warning,omitempty"`
	Message string `json:"message,omitempty"`
}

// CycleCheckResponse reports whether a proposed cable would close a loop.
type CycleCheckResponse struct {
	WouldCreateCycle bool `json:"would_create_cycle"`
}

// HistoryStatusResponse reports undo/redo availability.
type HistoryStatusResponse struct {
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

// HistoryActionResponse names the operation undone or redone.
type HistoryActionResponse struct {
	Action string `json:"action"`
}

// CycleReportResponse lists the feedback loops already in the graph.
type CycleReportResponse struct {
	Cycles []algorithms.Cycle    `json:"cycles"`
	Stats  algorithms.CycleStats `json:"stats"`
}

// AuditResponse carries the issues found by a setup audit.
type AuditResponse struct {
	Issues []checks.Issue `json:"issues"`
	Counts map[string]int `json:"counts"`
}

// PlaceRequest instantiates a library template onto the canvas.
type PlaceRequest struct {
	TemplateID string  `json:"template_id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// LayoutRequest selects a layout algorithm and canvas size.
type LayoutRequest struct {
	Algorithm string  `json:"algorithm"` // "force" or "signal-flow"
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	Apply     bool    `json:"apply,omitempty"`
}

// ProjectRequest names a project for save/load operations.
type ProjectRequest struct {
	Name string `json:"name"`
}

// LoginRequest carries user credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries a signed token and its expiry.
type LoginResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HealthResponse reports server health and uptime.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

// StatsResponse reports patch graph size.
type StatsResponse struct {
	DeviceCount int    `json:"device_count"`
	CableCount  int    `json:"cable_count"`
	PortCount   int    `json:"port_count"`
	Uptime      string `json:"uptime"`
}

// ErrorResponse is the error body for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
