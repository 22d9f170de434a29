package health

import (
	"context"
	"time"
)

// Common probes for the patchbay server.

// ProjectStoreCheck probes the project store. The ping function should
// perform a cheap round trip, such as listing saved projects.
func ProjectStoreCheck(ping func(ctx context.Context) error) CheckFunc {
	return func() Check {
		check := Check{Name: "project_store"}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Reachable"
		}

		return check
	}
}

// GraphCheck reports on the consistency of the working patch graph.
// Outstanding error-severity audit issues mark the graph degraded, not
// unhealthy, since the server can still serve and repair it.
func GraphCheck(audit func() (errors, warnings int)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "graph",
			Details: make(map[string]any),
		}

		errors, warnings := audit()
		check.Details["error_issues"] = errors
		check.Details["warning_issues"] = warnings

		if errors > 0 {
			check.Status = StatusDegraded
			check.Message = "Graph has unresolved errors"
		} else {
			check.Status = StatusHealthy
			check.Message = "Graph consistent"
		}

		return check
	}
}

// MemoryCheck reports process memory usage.
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()
		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		usagePercent := float64(alloc) / float64(sys) * 100
		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}
