package api

import (
	"errors"
	"net/http"

	"github.com/dd0wney/cluso-patchbay/pkg/events"
	"github.com/dd0wney/cluso-patchbay/pkg/logging"
	"github.com/dd0wney/cluso-patchbay/pkg/project"
)

// handleProjects serves the project collection: list saved projects and
// save the current graph under a name.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if s.projects == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Project persistence not configured")
		return
	}

	s.NewMethodRouter(w, r).
		Get(func() {
			names, err := s.projects.List(r.Context())
			if err != nil {
				s.respondError(w, http.StatusInternalServerError, s.sanitizeError(err, "list projects"))
				return
			}
			if names == nil {
				names = []string{}
			}
			s.respondJSON(w, http.StatusOK, names)
		}).
		Post(func() {
			r2, ok := s.requireEditor(w, r)
			if !ok {
				return
			}
			s.saveProject(w, r2)
		}).
		NotAllowed()
}

func (s *Server) saveProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	rd := s.NewRequestDecoder(w, r).
		DecodeJSON(&req).
		Require("name", req.Name)
	if rd.RespondError() {
		return
	}

	doc := project.FromStore(req.Name, s.store)
	if err := s.projects.Save(r.Context(), doc); err != nil {
		s.metrics.RecordProjectSave("error")
		s.respondError(w, http.StatusInternalServerError, s.sanitizeError(err, "save project"))
		return
	}
	s.metrics.RecordProjectSave("ok")
	s.logger.Info("project saved", logging.ProjectID(req.Name))
	s.publish(events.Event{Type: events.ProjectSaved, Project: req.Name})
	s.respondJSON(w, http.StatusCreated, doc)
}

// handleProject serves a single saved project: load it into the live
// graph, or delete it.
func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	if s.projects == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Project persistence not configured")
		return
	}
	name, ok := s.NewPathExtractor(w, r).ExtractID("/projects/")
	if !ok {
		return
	}

	s.NewMethodRouter(w, r).
		Get(func() {
			doc, err := s.projects.Load(r.Context(), name)
			if err != nil {
				s.metrics.RecordProjectLoad("error")
				s.respondProjectError(w, err, "load project")
				return
			}
			s.metrics.RecordProjectLoad("ok")
			s.respondJSON(w, http.StatusOK, doc)
		}).
		Put(func() {
			r2, ok := s.requireEditor(w, r)
			if !ok {
				return
			}
			s.restoreProject(w, r2, name)
		}).
		Delete(func() {
			_, ok := s.requireEditor(w, r)
			if !ok {
				return
			}
			if err := s.projects.Delete(r.Context(), name); err != nil {
				s.respondProjectError(w, err, "delete project")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}).
		NotAllowed()
}

// restoreProject loads a saved document and replaces the live graph
// with it. Replacement is all-or-nothing.
func (s *Server) restoreProject(w http.ResponseWriter, r *http.Request, name string) {
	doc, err := s.projects.Load(r.Context(), name)
	if err != nil {
		s.metrics.RecordProjectLoad("error")
		s.respondProjectError(w, err, "load project")
		return
	}
	if err := doc.Apply(s.store); err != nil {
		s.metrics.RecordProjectLoad("error")
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.metrics.RecordProjectLoad("ok")
	s.logger.Info("project restored", logging.ProjectID(name))
	s.history.Clear()
	s.updateGraphGauges()
	s.publish(events.Event{Type: events.ProjectLoaded, Project: name})
	s.respondJSON(w, http.StatusOK, s.store.GetStatistics())
}

func (s *Server) respondProjectError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, project.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, project.ErrUnsupportedVersion):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, s.sanitizeError(err, operation))
	}
}
