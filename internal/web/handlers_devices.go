package web

import (
	"net/http"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/go-chi/chi/v5"
)

// deviceDraftRequest is the body of POST /api/devices.
type deviceDraftRequest struct {
	Device        fieldsJSON `json:"device"`
	Specification fieldsJSON `json:"specification"`
	Display       fieldsJSON `json:"display"`
	Camera        fieldsJSON `json:"camera"`
	Battery       fieldsJSON `json:"battery"`
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceDraftRequest
	if err := readJSON(w, r, &req); err != nil {
		s.respondBadRequest(w, r, "invalid request body: "+err.Error())
		return
	}

	result, err := s.catalog.CreateDevice(requestContext(r), core.DeviceDraft{
		Device:        core.FieldSet(req.Device),
		Specification: core.FieldSet(req.Specification),
		Display:       core.FieldSet(req.Display),
		Camera:        core.FieldSet(req.Camera),
		Battery:       core.FieldSet(req.Battery),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleDeviceDetail(w http.ResponseWriter, r *http.Request) {
	id, err := keyParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	detail, err := s.catalog.DeviceDetail(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, err := keyParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	result, err := s.catalog.DeleteDevice(requestContext(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpsertPart(w http.ResponseWriter, r *http.Request) {
	id, err := keyParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	part, err := core.ParsePart(chi.URLParam(r, "part"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	fs, err := readFields(w, r)
	if err != nil {
		s.respondBadRequest(w, r, "invalid request body: "+err.Error())
		return
	}

	result, err := s.catalog.UpsertDependent(requestContext(r), part, id, fs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, upsertStatus(result), result)
}

func (s *Server) handleUpsertOffer(w http.ResponseWriter, r *http.Request) {
	id, err := keyParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	retailer, err := keyParam(r, "retailer")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	fs, err := readFields(w, r)
	if err != nil {
		s.respondBadRequest(w, r, "invalid request body: "+err.Error())
		return
	}

	result, err := s.catalog.UpsertOffer(requestContext(r), id, retailer, fs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, upsertStatus(result), result)
}

func (s *Server) handleRemoveOffer(w http.ResponseWriter, r *http.Request) {
	id, err := keyParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	retailer, err := keyParam(r, "retailer")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	n, err := s.catalog.RemoveOffer(requestContext(r), id, retailer)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
}

func upsertStatus(res core.UpsertResult) int {
	if res.Created {
		return http.StatusCreated
	}
	return http.StatusOK
}
