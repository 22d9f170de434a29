package api

import (
	"net/http"

	"github.com/dd0wney/cluso-patchbay/pkg/export"
	"github.com/dd0wney/cluso-patchbay/pkg/layout"
)

// handleLayout computes positions for the current graph. With apply set
// the computed positions are written back to the stored devices.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Post(func() {
			var req LayoutRequest
			rd := s.NewRequestDecoder(w, r).DecodeJSON(&req)
			if rd.RespondError() {
				return
			}
			if req.Width == 0 {
				req.Width = 1600
			}
			if req.Height == 0 {
				req.Height = 900
			}

			cfg := layout.Config{Width: req.Width, Height: req.Height}
			var algo layout.Layout
			switch req.Algorithm {
			case "", "signal-flow":
				algo = layout.NewSignalFlow(cfg)
			case "force":
				algo = layout.NewForceDirected(cfg, nil)
			default:
				s.respondError(w, http.StatusBadRequest, "unknown layout algorithm: "+req.Algorithm)
				return
			}

			graph := s.store.Snapshot()
			positions := algo.Compute(graph)

			if req.Apply {
				if r2, ok := s.requireEditor(w, r); ok {
					r = r2
				} else {
					return
				}
				layout.Apply(graph, positions)
				for _, d := range graph.Devices {
					if _, err := s.store.UpdateDevice(d); err != nil {
						s.respondStoreError(w, err, "apply layout")
						return
					}
				}
			}
			s.respondJSON(w, http.StatusOK, positions)
		}).
		NotAllowed()
}

// handleExportRender returns the JSON render document for the graph.
func (s *Server) handleExportRender(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() {
			doc := export.Render(s.store.Snapshot(), s.store.Viewport())
			s.respondJSON(w, http.StatusOK, doc)
		}).
		NotAllowed()
}

// handleExportDot returns the graph as Graphviz DOT text.
func (s *Server) handleExportDot(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() {
			name := r.URL.Query().Get("name")
			if name == "" {
				name = "patchbay"
			}
			out := (&export.DotGenerator{}).Generate(name, s.store.Snapshot())
			w.Header().Set("Content-Type", "text/vnd.graphviz")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(out))
		}).
		NotAllowed()
}
