package handlers

import (
	"net/http"

	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/utils"
)

// HandleListLoads handles GET /loads
func (h *Handler) HandleListLoads(w http.ResponseWriter, r *http.Request) {
	params, ok := h.listParams(w, r)
	if !ok {
		return
	}
	loads, err := h.backend.Directory.ListLoads(r.Context(), params)
	respond(h, w, r, http.StatusOK, loads, err)
}

// HandleCreateLoad handles POST /loads
func (h *Handler) HandleCreateLoad(w http.ResponseWriter, r *http.Request) {
	var details models.LoadDetails
	if !h.decode(w, r, &details) {
		return
	}
	resp, err := h.backend.Directory.CreateLoad(r.Context(), details)
	respond(h, w, r, http.StatusCreated, resp, err)
}

// HandleUpdateLoad handles PUT /loads/{id}
func (h *Handler) HandleUpdateLoad(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateLoadRequest
	if !h.decode(w, r, &req) {
		return
	}
	load, err := h.backend.Directory.UpdateLoad(r.Context(), idParam(r), req)
	respond(h, w, r, http.StatusOK, load, err)
}

// HandleChangeLoadStatus handles PATCH /loads/{id}/status. The caller is
// recorded as the reviewer.
func (h *Handler) HandleChangeLoadStatus(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := subject(r)
	if !ok {
		_ = utils.WriteUnauthorized(w, "")
		return
	}
	var req models.ChangeLoadStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.backend.Directory.ChangeLoadStatus(r.Context(), idParam(r), req.Status, reviewer)
	respond(h, w, r, http.StatusOK, resp, err)
}

// HandleDeleteLoad handles DELETE /loads/{id}
func (h *Handler) HandleDeleteLoad(w http.ResponseWriter, r *http.Request) {
	err := h.backend.Directory.DeleteLoad(r.Context(), idParam(r))
	respond(h, w, r, http.StatusOK, models.MessageResponse{Message: "Load deleted"}, err)
}
