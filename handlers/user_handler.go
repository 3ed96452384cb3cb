package handlers

import (
	"net/http"

	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/utils"
)

// HandleListUsers handles GET /users
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	params, ok := h.listParams(w, r)
	if !ok {
		return
	}
	users, err := h.backend.Directory.ListUsers(r.Context(), params)
	respond(h, w, r, http.StatusOK, users, err)
}

// HandleGetUser handles GET /users/{id}
func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.backend.Directory.GetUser(r.Context(), idParam(r))
	respond(h, w, r, http.StatusOK, user, err)
}

// HandleCreateUser handles POST /users
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var form models.UserForm
	if !h.decode(w, r, &form) {
		return
	}
	user, err := h.backend.Directory.CreateUser(r.Context(), form)
	respond(h, w, r, http.StatusCreated, user, err)
}

// HandleUpdateUser handles PATCH /users/{id}. The path ID wins over the body.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	req := models.UpdateUserRequest{ID: idParam(r)}
	if !h.decode(w, r, &req) {
		return
	}
	req.ID = idParam(r)
	user, err := h.backend.Directory.UpdateUser(r.Context(), req)
	respond(h, w, r, http.StatusOK, user, err)
}

// HandleDeleteUser handles DELETE /users/{id}
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	err := h.backend.Directory.DeleteUser(r.Context(), idParam(r))
	respond(h, w, r, http.StatusOK, models.MessageResponse{Message: "User deleted"}, err)
}

// HandleCurrentUser handles GET /user
func (h *Handler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	id, ok := subject(r)
	if !ok {
		_ = utils.WriteUnauthorized(w, "")
		return
	}
	user, err := h.backend.Directory.CurrentUser(r.Context(), id)
	respond(h, w, r, http.StatusOK, user, err)
}

// HandleSelfUpdate handles PATCH /user
func (h *Handler) HandleSelfUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := subject(r)
	if !ok {
		_ = utils.WriteUnauthorized(w, "")
		return
	}
	var req models.SelfUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.backend.Directory.SelfUpdate(r.Context(), id, req)
	respond(h, w, r, http.StatusOK, user, err)
}

// listParams parses and validates the shared list query parameters
func (h *Handler) listParams(w http.ResponseWriter, r *http.Request) (models.ListParams, bool) {
	params := models.ParseListParams(r.URL.Query())
	if err := utils.ValidateStruct(&params); err != nil {
		HandleValidationError(w, err, h.logger)
		return params, false
	}
	return params, true
}
