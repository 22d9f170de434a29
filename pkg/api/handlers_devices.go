package api

import (
	"errors"
	"net/http"

	"github.com/dd0wney/cluso-patchbay/pkg/events"
	"github.com/dd0wney/cluso-patchbay/pkg/history"
	"github.com/dd0wney/cluso-patchbay/pkg/logging"
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
)

// handleDevices serves the device collection: list and create.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() {
			s.respondJSON(w, http.StatusOK, s.store.Devices())
		}).
		Post(func() {
			r2, ok := s.requireEditor(w, r)
			if !ok {
				return
			}
			s.createDevice(w, r2)
		}).
		NotAllowed()
}

func (s *Server) createDevice(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	rd := s.NewRequestDecoder(w, r).
		DecodeJSON(&req).
		Require("name", req.Name)
	if rd.RespondError() {
		return
	}

	device := patch.Device{
		ID:    req.ID,
		Name:  req.Name,
		Kind:  req.Kind,
		Ports: req.Ports,
		X:     req.X,
		Y:     req.Y,
		Color: req.Color,
	}
	var created *patch.Device
	err := s.history.Do(&history.Func{
		Label: "add device",
		DoFn: func() error {
			d := device
			got, err := s.store.AddDevice(&d)
			if err != nil {
				return err
			}
			// Keep the generated ID so redo recreates the same device.
			device = *got
			created = got
			return nil
		},
		UndoFn: func() error { return s.store.DeleteDevice(device.ID) },
	})
	if err != nil {
		s.respondStoreError(w, err, "create device")
		return
	}

	s.logger.Info("device created", logging.DeviceID(created.ID))
	s.updateGraphGauges()
	s.publish(events.Event{Type: events.DeviceAdded, DeviceID: created.ID})
	s.respondJSON(w, http.StatusCreated, created)
}

// handleDevice serves a single device: get, update, delete.
func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := s.NewPathExtractor(w, r).ExtractID("/devices/")
	if !ok {
		return
	}

	s.NewMethodRouter(w, r).
		Get(func() {
			device, err := s.store.GetDevice(id)
			if err != nil {
				s.respondStoreError(w, err, "get device")
				return
			}
			s.respondJSON(w, http.StatusOK, device)
		}).
		Put(func() {
			r2, ok := s.requireEditor(w, r)
			if !ok {
				return
			}
			s.updateDevice(w, r2, id)
		}).
		Delete(func() {
			_, ok := s.requireEditor(w, r)
			if !ok {
				return
			}
			snapshot, err := s.store.GetDevice(id)
			if err != nil {
				s.respondStoreError(w, err, "delete device")
				return
			}
			attached := s.cablesTouching(id)
			err = s.history.Do(&history.Func{
				Label: "delete device",
				DoFn:  func() error { return s.store.DeleteDevice(id) },
				UndoFn: func() error {
					if _, err := s.store.AddDevice(snapshot); err != nil {
						return err
					}
					return s.restoreCables(attached)
				},
			})
			if err != nil {
				s.respondStoreError(w, err, "delete device")
				return
			}
			s.logger.Info("device deleted", logging.DeviceID(id))
			s.updateGraphGauges()
			s.publish(events.Event{Type: events.DeviceRemoved, DeviceID: id})
			w.WriteHeader(http.StatusNoContent)
		}).
		NotAllowed()
}

func (s *Server) updateDevice(w http.ResponseWriter, r *http.Request, id string) {
	var req DeviceRequest
	rd := s.NewRequestDecoder(w, r).
		DecodeJSON(&req).
		Require("name", req.Name)
	if rd.RespondError() {
		return
	}

	prior, err := s.store.GetDevice(id)
	if err != nil {
		s.respondStoreError(w, err, "update device")
		return
	}
	attached := s.cablesTouching(id)

	next := patch.Device{
		ID:    id,
		Name:  req.Name,
		Kind:  req.Kind,
		Ports: req.Ports,
		X:     req.X,
		Y:     req.Y,
		Color: req.Color,
	}
	var updated *patch.Device
	err = s.history.Do(&history.Func{
		Label: "update device",
		DoFn: func() error {
			got, err := s.store.UpdateDevice(&next)
			if err != nil {
				return err
			}
			updated = got
			return nil
		},
		UndoFn: func() error {
			if _, err := s.store.UpdateDevice(prior); err != nil {
				return err
			}
			// Updates that dropped ports cascade-deleted their cables.
			return s.restoreCables(attached)
		},
	})
	if err != nil {
		s.respondStoreError(w, err, "update device")
		return
	}
	s.updateGraphGauges()
	s.publish(events.Event{Type: events.DeviceUpdated, DeviceID: updated.ID})
	s.respondJSON(w, http.StatusOK, updated)
}

// handleTemplates lists the device library, with optional ?q= search.
func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() {
			if q := r.URL.Query().Get("q"); q != "" {
				s.respondJSON(w, http.StatusOK, s.library.Search(q))
				return
			}
			s.respondJSON(w, http.StatusOK, s.library.All())
		}).
		NotAllowed()
}

// handlePlaceTemplate instantiates a library template as a new device.
func (s *Server) handlePlaceTemplate(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Post(func() {
			r2, ok := s.requireEditor(w, r)
			if !ok {
				return
			}

			var req PlaceRequest
			rd := s.NewRequestDecoder(w, r2).
				DecodeJSON(&req).
				Require("template_id", req.TemplateID)
			if rd.RespondError() {
				return
			}

			device, err := s.library.Place(req.TemplateID, req.X, req.Y)
			if err != nil {
				s.respondError(w, http.StatusNotFound, err.Error())
				return
			}
			var created *patch.Device
			err = s.history.Do(&history.Func{
				Label: "place template",
				DoFn: func() error {
					d := *device
					got, err := s.store.AddDevice(&d)
					if err != nil {
						return err
					}
					*device = *got
					created = got
					return nil
				},
				UndoFn: func() error { return s.store.DeleteDevice(device.ID) },
			})
			if err != nil {
				s.respondStoreError(w, err, "place template")
				return
			}
			s.updateGraphGauges()
			s.publish(events.Event{Type: events.DeviceAdded, DeviceID: created.ID})
			s.respondJSON(w, http.StatusCreated, created)
		}).
		NotAllowed()
}

// respondStoreError maps store sentinels onto HTTP statuses.
func (s *Server) respondStoreError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, patch.ErrDeviceNotFound),
		errors.Is(err, patch.ErrCableNotFound),
		errors.Is(err, patch.ErrPortNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, patch.ErrDuplicateID),
		errors.Is(err, patch.ErrDuplicatePortID):
		s.respondError(w, http.StatusConflict, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, s.sanitizeError(err, operation))
	}
}

func (s *Server) updateGraphGauges() {
	stats := s.store.GetStatistics()
	s.metrics.UpdateGraphSize(stats.DeviceCount, stats.CableCount, stats.PortCount)
}

// cablesTouching snapshots the cables incident to a device, for undo.
func (s *Server) cablesTouching(deviceID string) []patch.Cable {
	var out []patch.Cable
	for _, c := range s.store.Cables() {
		if c.SourceDeviceID == deviceID || c.TargetDeviceID == deviceID {
			out = append(out, c)
		}
	}
	return out
}

// restoreCables re-adds the cables that a cascade delete removed.
// Cables still present are left alone.
func (s *Server) restoreCables(cables []patch.Cable) error {
	for _, c := range cables {
		if _, err := s.store.GetCable(c.ID); err == nil {
			continue
		}
		if _, err := s.store.AddCable(c); err != nil {
			return err
		}
	}
	return nil
}
