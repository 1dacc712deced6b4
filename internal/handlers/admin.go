package handlers

import (
	"net/http"
	"strings"

	"github.com/AnshRaj112/clubhub-backend/internal/services"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// AdminStats returns user, post, message and coin totals.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"stats": stats})
}

// GrantCoins deposits a positive amount into a user's balance.
func (h *Handler) GrantCoins(w http.ResponseWriter, r *http.Request) {
	var req services.GrantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	txn, err := h.Admin.Grant(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.WithFields(log.Fields{
		"admin":  caller(r).UserID,
		"user":   req.UserID,
		"amount": req.Amount,
	}).Info("admin coin grant")
	writeOK(w, "Coins granted", envelope{"transaction": txn})
}

func (h *Handler) SetUserFlags(w http.ResponseWriter, r *http.Request) {
	var req services.FlagsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.Admin.SetFlags(r.Context(), chi.URLParam(r, "userId"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "User updated", envelope{"user": u})
}

func (h *Handler) CreateClub(w http.ResponseWriter, r *http.Request) {
	var req services.CreateClubRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	club, err := h.Clubs.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Club created", envelope{"club": club})
}

// ResetClubs runs the daily check-in reset immediately.
func (h *Handler) ResetClubs(w http.ResponseWriter, r *http.Request) {
	n, err := h.Clubs.ResetDaily(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Club check-ins reset", envelope{"clubs": n})
}

type createSchoolRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateSchool(w http.ResponseWriter, r *http.Request) {
	var req createSchoolRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	school, err := h.Schools.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "School created", envelope{"school": school})
}

// UnblockIP lifts a rate-limit block for ?ip=.
func (h *Handler) UnblockIP(w http.ResponseWriter, r *http.Request) {
	ip := strings.TrimSpace(r.URL.Query().Get("ip"))
	if ip == "" {
		writeError(w, r, apperr.Validation("IP address is required"))
		return
	}

	blocked, err := h.limiter.IsBlocked(r.Context(), ip)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !blocked {
		writeOK(w, "IP address is not currently blocked", envelope{"ip": ip})
		return
	}

	if err := h.limiter.Unblock(r.Context(), ip); err != nil {
		writeError(w, r, err)
		return
	}
	log.WithField("ip", ip).Info("✅ IP unblocked by admin")
	writeOK(w, "IP address unblocked", envelope{"ip": ip})
}
