package handlers

import (
	"net/http"

	"github.com/AnshRaj112/clubhub-backend/internal/services"
)

// Signup handles user registration
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.Auth.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "User created successfully", envelope{"user": user})
}

// Signin handles user login
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req services.SigninRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.Auth.Signin(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Login successful", envelope{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       session.User,
	})
}

func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Signout(r.Context(), caller(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Signed out", nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.Auth.Me(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"me": me})
}
