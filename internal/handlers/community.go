package handlers

import (
	"net/http"

	"github.com/AnshRaj112/clubhub-backend/internal/middleware"
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.Notifications.List(r.Context(), caller(r).UserID, queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"notifications": list, "total": len(list)})
}

func (h *Handler) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notifications.MarkRead(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"updated": n})
}

// ListClubs shows today's check-in counts; VIP callers also see who.
func (h *Handler) ListClubs(w http.ResponseWriter, r *http.Request) {
	clubs, err := h.Clubs.List(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"clubs": clubs, "total": len(clubs)})
}

func (h *Handler) GetClub(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "clubId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	club, err := h.Clubs.Get(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"club": club})
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "clubId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	club, err := h.Clubs.CheckIn(r.Context(), caller(r).UserID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Checked in", envelope{"club": club})
}

func (h *Handler) CancelCheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "clubId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	club, err := h.Clubs.CancelCheckIn(r.Context(), caller(r).UserID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Check-in cancelled", envelope{"club": club})
}

type createInviteRequest struct {
	MaxUses int `json:"maxUses"`
}

func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	var req createInviteRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	inv, err := h.Invites.Create(r.Context(), caller(r).UserID, req.MaxUses)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Invite created", envelope{"invite": inv})
}

func (h *Handler) ListInvites(w http.ResponseWriter, r *http.Request) {
	list, err := h.Invites.List(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"invites": list, "total": len(list)})
}

func (h *Handler) ListSchools(w http.ResponseWriter, r *http.Request) {
	list, err := h.Schools.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"schools": list, "total": len(list)})
}
