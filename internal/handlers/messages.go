package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type sendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessage charges the sender and delivers a direct message.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Messages.Send(r.Context(), caller(r).UserID, chi.URLParam(r, "userId"), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Message sent", envelope{
		"data":    res.Message,
		"balance": res.Balance,
	})
}

// Conversation returns history with another user, oldest first.
// Pagination is based on ?before=<RFC3339> + ?limit.
func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	before, err := queryTime(r, "before")
	if err != nil {
		writeError(w, r, err)
		return
	}

	msgs, hasMore, err := h.Messages.Conversation(r.Context(), caller(r).UserID, chi.URLParam(r, "userId"), before, queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{
		"messages": msgs,
		"has_more": hasMore,
		"total":    len(msgs),
	})
}

func (h *Handler) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Messages.MarkRead(r.Context(), caller(r).UserID, chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"updated": n})
}
