package handlers

import (
	"net/http"

	"github.com/twy/backoffice/middleware"
	"github.com/twy/backoffice/models"
	"go.uber.org/zap"
)

// HandleLogin handles POST /login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	tokens, err := h.backend.Accounts.Login(r.Context(), req.Email, req.Password)
	if err == nil {
		h.logger.Info("user logged in",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("email", req.Email))
	}
	respond(h, w, r, http.StatusOK, tokens, err)
}

// HandleRefreshToken handles POST /refresh-token
func (h *Handler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshTokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	tokens, err := h.backend.Accounts.Refresh(r.Context(), req.RefreshToken)
	respond(h, w, r, http.StatusOK, tokens, err)
}

// HandleSignUp handles POST /signup
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.backend.Accounts.SignUp(r.Context(), req)
	respond(h, w, r, http.StatusCreated, resp, err)
}

// HandleVerify handles POST /verify
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.backend.Accounts.Verify(r.Context(), req.Email, req.Code)
	respond(h, w, r, http.StatusOK, resp, err)
}

// HandleForgotPassword handles POST /forgot-password
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.backend.Accounts.ForgotPassword(r.Context(), req.Email)
	respond(h, w, r, http.StatusOK, resp, err)
}

// HandleCreatePassword handles POST /create-password
func (h *Handler) HandleCreatePassword(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.backend.Accounts.CreatePassword(r.Context(), req)
	respond(h, w, r, http.StatusOK, resp, err)
}

// HandleResendCode handles POST /resend-code
func (h *Handler) HandleResendCode(w http.ResponseWriter, r *http.Request) {
	var req models.ResendCodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.backend.Accounts.ResendCode(r.Context(), req.Email)
	respond(h, w, r, http.StatusOK, resp, err)
}
