package handlers

import (
	"net/http"
	"strings"

	"github.com/AnshRaj112/clubhub-backend/internal/middleware"
	"github.com/AnshRaj112/clubhub-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// ViewProfile returns a user's profile and counts the visit. The caller
// may be anonymous.
func (h *Handler) ViewProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	profile, err := h.Profiles.View(r.Context(), username, middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"profile": profile})
}

func (h *Handler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.Friends.SendRequest(r.Context(), caller(r).UserID, chi.URLParam(r, "targetId")); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Friend request sent", nil)
}

func (h *Handler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.Friends.AcceptRequest(r.Context(), caller(r).UserID, chi.URLParam(r, "targetId")); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Friend request accepted", nil)
}

func (h *Handler) Unfriend(w http.ResponseWriter, r *http.Request) {
	if err := h.Friends.Unfriend(r.Context(), caller(r).UserID, chi.URLParam(r, "targetId")); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Friend removed", nil)
}

func (h *Handler) ListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.Friends.Friends(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"friends": friends, "total": len(friends)})
}

func (h *Handler) ListFriendRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Friends.Requests(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"requests": requests})
}

// WhoView lists the caller's recent viewers. Without VIP only the counts
// are returned.
func (h *Handler) WhoView(w http.ResponseWriter, r *http.Request) {
	views, err := h.Profiles.WhoViewed(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{
		"viewers":        views.Viewers,
		"total_views":    views.TotalViews,
		"unique_viewers": views.UniqueViewers,
		"vip_required":   views.VIPRequired,
	})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	acc, err := h.Profiles.UpdateProfile(r.Context(), caller(r).UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Profile updated", envelope{"profile": envelope{
		"biography": acc.Biography,
		"instagram": acc.Instagram,
		"birthday":  acc.Birthday,
		"interest":  acc.Interest,
		"school_id": acc.SchoolID,
	}})
}
