package api

import (
	"net/http"

	"github.com/dd0wney/cluso-patchbay/pkg/algorithms"
	"github.com/dd0wney/cluso-patchbay/pkg/checks"
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
)

// handleValidate checks a proposed connection without creating it.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Post(func() {
			var req Endpoint
			rd := s.NewRequestDecoder(w, r).
				DecodeJSON(&req).
				RequireEndpoint(req)
			if rd.RespondError() {
				return
			}

			result := patch.ValidateCable(s.store, patch.Cable{
				SourceDeviceID: req.SourceDeviceID,
				SourcePortID:   req.SourcePortID,
				TargetDeviceID: req.TargetDeviceID,
				TargetPortID:   req.TargetPortID,
			})
			s.metrics.RecordValidation(result.Valid, result.Warning)
			s.respondJSON(w, http.StatusOK, ValidationResponse{
				Valid:   result.Valid,
				Warning: result.Warning,
				Message: result.Message,
			})
		}).
		NotAllowed()
}

// handleCycleCheck reports whether a proposed cable would close a
// feedback loop, without mutating the graph. A GET instead returns the
// loops already present, with summary statistics.
func (s *Server) handleCycleCheck(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() {
			cycles := algorithms.DetectCycles(s.store.Cables())
			if cycles == nil {
				cycles = []algorithms.Cycle{}
			}
			s.respondJSON(w, http.StatusOK, CycleReportResponse{
				Cycles: cycles,
				Stats:  algorithms.AnalyzeCycles(cycles),
			})
		}).
		Post(func() {
			var req Endpoint
			rd := s.NewRequestDecoder(w, r).
				DecodeJSON(&req).
				Require("source_device_id", req.SourceDeviceID).
				Require("target_device_id", req.TargetDeviceID)
			if rd.RespondError() {
				return
			}

			wouldCycle := algorithms.WouldCreateCycle(
				req.SourceDeviceID, req.TargetDeviceID, s.store.Cables())
			s.metrics.RecordCycleCheck(wouldCycle)
			s.respondJSON(w, http.StatusOK, CycleCheckResponse{WouldCreateCycle: wouldCycle})
		}).
		NotAllowed()
}

// handleAudit runs the full setup audit over a graph snapshot.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() {
			issues := s.auditor.Audit(s.store.Snapshot())
			if issues == nil {
				issues = []checks.Issue{}
			}

			counts := make(map[string]int)
			for _, issue := range issues {
				counts[issue.Severity.String()]++
			}
			s.metrics.RecordAudit(counts)
			s.respondJSON(w, http.StatusOK, AuditResponse{
				Issues: issues,
				Counts: counts,
			})
		}).
		NotAllowed()
}
