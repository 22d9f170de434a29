package api

import (
	"errors"
	"net/http"

	"github.com/dd0wney/cluso-patchbay/pkg/history"
	"github.com/dd0wney/cluso-patchbay/pkg/logging"
)

// handleHistory reports whether undo and redo are available.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() {
			s.respondJSON(w, http.StatusOK, HistoryStatusResponse{
				CanUndo: s.history.CanUndo(),
				CanRedo: s.history.CanRedo(),
			})
		}).
		NotAllowed()
}

// handleUndo reverts the most recent editing operation.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Post(func() {
			_, ok := s.requireEditor(w, r)
			if !ok {
				return
			}
			name, err := s.history.Undo()
			if err != nil {
				s.respondHistoryError(w, err, "undo")
				return
			}
			s.logger.Info("undo", logging.String("action", name))
			s.updateGraphGauges()
			s.respondJSON(w, http.StatusOK, HistoryActionResponse{Action: name})
		}).
		NotAllowed()
}

// handleRedo re-applies the most recently undone operation.
func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Post(func() {
			_, ok := s.requireEditor(w, r)
			if !ok {
				return
			}
			name, err := s.history.Redo()
			if err != nil {
				s.respondHistoryError(w, err, "redo")
				return
			}
			s.logger.Info("redo", logging.String("action", name))
			s.updateGraphGauges()
			s.respondJSON(w, http.StatusOK, HistoryActionResponse{Action: name})
		}).
		NotAllowed()
}

func (s *Server) respondHistoryError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, history.ErrNothingToUndo),
		errors.Is(err, history.ErrNothingToRedo):
		s.respondError(w, http.StatusConflict, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, s.sanitizeError(err, operation))
	}
}
