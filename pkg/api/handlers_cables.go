package api

import (
	"net/http"

	"github.com/dd0wney/cluso-patchbay/pkg/algorithms"
	"github.com/dd0wney/cluso-patchbay/pkg/events"
	"github.com/dd0wney/cluso-patchbay/pkg/history"
	"github.com/dd0wney/cluso-patchbay/pkg/logging"
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
)

// handleCables serves the cable collection: list and create.
// Creation runs the full connection validation; invalid connections are
// refused, advisory warnings are passed through in a response header.
func (s *Server) handleCables(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() {
			s.respondJSON(w, http.StatusOK, s.store.Cables())
		}).
		Post(func() {
			r2, ok := s.requireEditor(w, r)
			if !ok {
				return
			}
			s.createCable(w, r2)
		}).
		NotAllowed()
}

func (s *Server) createCable(w http.ResponseWriter, r *http.Request) {
	var req CableRequest
	rd := s.NewRequestDecoder(w, r).
		DecodeJSON(&req).
		RequireEndpoint(req.Endpoint)
	if rd.RespondError() {
		return
	}

	cable := patch.Cable{
		ID:             req.ID,
		SourceDeviceID: req.SourceDeviceID,
		SourcePortID:   req.SourcePortID,
		TargetDeviceID: req.TargetDeviceID,
		TargetPortID:   req.TargetPortID,
	}

	result := patch.ValidateCable(s.store, cable)
	s.metrics.RecordValidation(result.Valid, result.Warning)
	if !result.Valid {
		s.respondError(w, http.StatusUnprocessableEntity, result.Message)
		return
	}

	if s.rejectCycles {
		wouldCycle := algorithms.WouldCreateCycle(cable.SourceDeviceID, cable.TargetDeviceID, s.store.Cables())
		s.metrics.RecordCycleCheck(wouldCycle)
		if wouldCycle {
			s.respondError(w, http.StatusUnprocessableEntity, "connection would create a feedback loop")
			return
		}
	}

	var created patch.Cable
	err := s.history.Do(&history.Func{
		Label: "add cable",
		DoFn: func() error {
			got, err := s.store.AddCable(cable)
			if err != nil {
				return err
			}
			// Keep the generated ID so redo recreates the same cable.
			cable = got
			created = got
			return nil
		},
		UndoFn: func() error { return s.store.DeleteCable(cable.ID) },
	})
	if err != nil {
		s.respondStoreError(w, err, "create cable")
		return
	}

	if result.Warning {
		w.Header().Set("X-Patchbay-Warning", result.Message)
	}
	s.logger.Info("cable created",
		logging.CableID(created.ID),
		logging.Bool("warning", result.Warning))
	s.updateGraphGauges()
	s.publish(events.Event{Type: events.CableAdded, CableID: created.ID})
	s.respondJSON(w, http.StatusCreated, created)
}

// handleCable serves a single cable: get and delete.
func (s *Server) handleCable(w http.ResponseWriter, r *http.Request) {
	id, ok := s.NewPathExtractor(w, r).ExtractID("/cables/")
	if !ok {
		return
	}

	s.NewMethodRouter(w, r).
		Get(func() {
			cable, err := s.store.GetCable(id)
			if err != nil {
				s.respondStoreError(w, err, "get cable")
				return
			}
			s.respondJSON(w, http.StatusOK, cable)
		}).
		Delete(func() {
			_, ok := s.requireEditor(w, r)
			if !ok {
				return
			}
			snapshot, err := s.store.GetCable(id)
			if err != nil {
				s.respondStoreError(w, err, "delete cable")
				return
			}
			err = s.history.Do(&history.Func{
				Label: "delete cable",
				DoFn:  func() error { return s.store.DeleteCable(id) },
				UndoFn: func() error {
					_, err := s.store.AddCable(snapshot)
					return err
				},
			})
			if err != nil {
				s.respondStoreError(w, err, "delete cable")
				return
			}
			s.logger.Info("cable deleted", logging.CableID(id))
			s.updateGraphGauges()
			s.publish(events.Event{Type: events.CableRemoved, CableID: id})
			w.WriteHeader(http.StatusNoContent)
		}).
		NotAllowed()
}
