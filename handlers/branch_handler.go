package handlers

import (
	"net/http"

	"github.com/twy/backoffice/models"
)

// HandleListBranches handles GET /branches
func (h *Handler) HandleListBranches(w http.ResponseWriter, r *http.Request) {
	params, ok := h.listParams(w, r)
	if !ok {
		return
	}
	branches, err := h.backend.Directory.ListBranches(r.Context(), params)
	respond(h, w, r, http.StatusOK, branches, err)
}

// HandleGetBranch handles GET /branches/{id}
func (h *Handler) HandleGetBranch(w http.ResponseWriter, r *http.Request) {
	branch, err := h.backend.Directory.GetBranch(r.Context(), idParam(r))
	respond(h, w, r, http.StatusOK, branch, err)
}

// HandleCreateBranch handles POST /branches
func (h *Handler) HandleCreateBranch(w http.ResponseWriter, r *http.Request) {
	var form models.BranchForm
	if !h.decode(w, r, &form) {
		return
	}
	branch, err := h.backend.Directory.CreateBranch(r.Context(), form)
	respond(h, w, r, http.StatusCreated, branch, err)
}

// HandleUpdateBranch handles PUT /branches/{id}
func (h *Handler) HandleUpdateBranch(w http.ResponseWriter, r *http.Request) {
	req := models.UpdateBranchRequest{ID: idParam(r)}
	if !h.decode(w, r, &req) {
		return
	}
	req.ID = idParam(r)
	branch, err := h.backend.Directory.UpdateBranch(r.Context(), req)
	respond(h, w, r, http.StatusOK, branch, err)
}

// HandleDeleteBranch handles DELETE /branches/{id}
func (h *Handler) HandleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	err := h.backend.Directory.DeleteBranch(r.Context(), idParam(r))
	respond(h, w, r, http.StatusOK, models.MessageResponse{Message: "Branch deleted"}, err)
}
