package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check is the result of probing a single component.
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ms"`
}

// CheckFunc performs a single health check.
type CheckFunc func() Check

// Response is the aggregate result of a set of checks.
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
}

// Checker runs registered liveness and readiness probes.
type Checker struct {
	mu          sync.RWMutex
	liveChecks  map[string]CheckFunc
	readyChecks map[string]CheckFunc
}

// NewChecker creates an empty health checker.
func NewChecker() *Checker {
	return &Checker{
		liveChecks:  make(map[string]CheckFunc),
		readyChecks: make(map[string]CheckFunc),
	}
}

// RegisterLiveness registers a liveness check.
func (c *Checker) RegisterLiveness(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveChecks[name] = check
}

// RegisterReadiness registers a readiness check.
func (c *Checker) RegisterReadiness(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyChecks[name] = check
}

// Liveness runs all liveness checks.
func (c *Checker) Liveness() Response {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return runChecks(c.liveChecks)
}

// Readiness runs all readiness checks.
func (c *Checker) Readiness() Response {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return runChecks(c.readyChecks)
}

func runChecks(checks map[string]CheckFunc) Response {
	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check),
	}

	for name, checkFunc := range checks {
		start := time.Now()
		check := checkFunc()
		check.Duration = time.Since(start)
		check.LastChecked = start

		response.Checks[name] = check

		// Worst status wins
		if check.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if check.Status == StatusDegraded && response.Status != StatusUnhealthy {
			response.Status = StatusDegraded
		}
	}

	return response
}

// LivenessHandler serves the liveness probe. Degraded still counts as
// alive; only unhealthy returns 503.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, c.Liveness(), false)
	}
}

// ReadinessHandler serves the readiness probe. Anything short of
// healthy returns 503 so load balancers stop routing traffic.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, c.Readiness(), true)
	}
}

func writeResponse(w http.ResponseWriter, response Response, strict bool) {
	w.Header().Set("Content-Type", "application/json")

	ok := response.Status == StatusHealthy ||
		(!strict && response.Status == StatusDegraded)
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(response)
}
