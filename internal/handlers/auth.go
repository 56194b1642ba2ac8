package handlers

import (
	"net/http"

	"github.com/abrezinsky/cuevote/internal/auth"
)

// handleLogin exchanges the operator password for a session. The token is
// set as a cookie and returned for clients that send it as a bearer header.
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	token, ok := h.Auth.Login(req.Password)
	if !ok {
		respondError(w, Unauthorized("Invalid password"))
		return
	}

	auth.SetSessionCookie(w, token)
	respondOK(w, LoginResponse{
		Message:   "Logged in",
		Token:     token,
		ExpiresIn: int(auth.SessionExpiry.Seconds()),
	})
}

// handleLogout clears the session
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		h.Auth.Logout(token)
	}

	auth.ClearSessionCookie(w)
	respondSuccess(w, "Logged out")
}
