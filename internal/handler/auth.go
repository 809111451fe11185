package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nuvoor/careadmin/internal/ctxkeys"
	"github.com/nuvoor/careadmin/internal/service"
	"github.com/nuvoor/careadmin/internal/validation"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgUserNotFound       = "User not found"
	msgRecoveryEmailSent  = "Recovery email sent"
	msgInvalidEmail       = "Please provide a valid email address"
	msgInvalidResetToken  = "Password reset token is invalid or has expired."
	msgPasswordReset      = "Password has been reset"
	msgPasswordRequired   = "Password is required"
	msgPasswordTooLong    = "Password must not exceed 72 bytes"
	msgMalformedBody      = "Malformed request body"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

type meResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *authHandler {
	return &authHandler{
		authService: authService,
	}
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := decode(w, r, &req)
	if err != nil {
		// Missing fields get the same answer as wrong ones
		writeMsg(w, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeMsg(w, http.StatusBadRequest, msgInvalidCredentials)
			return
		}
		slog.Error("login failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: session.Token})
}

func (h *authHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	err := decode(w, r, &req)
	if err != nil {
		if errors.Is(err, errMalformedBody) {
			writeMsg(w, http.StatusBadRequest, msgMalformedBody)
			return
		}
		writeMsg(w, http.StatusBadRequest, msgInvalidEmail)
		return
	}

	err = h.authService.RequestPasswordReset(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeMsg(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		slog.Error("forgot password failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	writeMsg(w, http.StatusOK, msgRecoveryEmailSent)
}

func (h *authHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	var req resetPasswordRequest
	err := decode(w, r, &req)
	if err != nil {
		writeMsg(w, http.StatusBadRequest, msgMalformedBody)
		return
	}

	err = h.authService.ResetPassword(r.Context(), token, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrExpiredToken):
			writeMsg(w, http.StatusBadRequest, msgInvalidResetToken)
		case errors.Is(err, validation.ErrPasswordTooLong):
			writeMsg(w, http.StatusBadRequest, msgPasswordTooLong)
		case errors.Is(err, service.ErrInvalidPassword):
			writeMsg(w, http.StatusBadRequest, msgPasswordRequired)
		default:
			slog.Error("reset password failed", "error", err)
			writeMsg(w, http.StatusInternalServerError, msgServerError)
		}
		return
	}

	writeMsg(w, http.StatusOK, msgPasswordReset)
}

// Me returns the account the session token belongs to.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{ID: user.ID, Email: user.Email})
}
