package handlers

import (
	"net/http"

	"github.com/AnshRaj112/clubhub-backend/internal/middleware"
	"github.com/AnshRaj112/clubhub-backend/internal/models"
)

type contentRequest struct {
	Content string `json:"content"`
}

type voteRequest struct {
	Direction models.VoteDirection `json:"direction"`
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	post, err := h.Posts.Create(r.Context(), caller(r).UserID, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Post created", envelope{"post": post})
}

// Feed lists posts newest first; ?author=<userId> narrows it.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Posts.Feed(r.Context(), middleware.UserID(r.Context()), r.URL.Query().Get("author"), queryInt(r, "limit"), queryInt(r, "skip"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"posts": posts, "total": len(posts)})
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "postId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	post, err := h.Posts.Get(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"post": post})
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "postId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Posts.Delete(r.Context(), caller(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Post deleted", nil)
}

func (h *Handler) VotePost(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "postId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req voteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	post, err := h.Posts.Vote(r.Context(), caller(r).UserID, id, req.Direction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"post": post})
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	postID, err := objectIDParam(r, "postId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	comment, err := h.Posts.Comment(r.Context(), caller(r).UserID, postID, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Comment added", envelope{"comment": comment})
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := objectIDParam(r, "postId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	comments, err := h.Posts.Comments(r.Context(), middleware.UserID(r.Context()), postID, queryInt(r, "limit"), queryInt(r, "skip"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"comments": comments, "total": len(comments)})
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "commentId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Posts.DeleteComment(r.Context(), caller(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Comment deleted", nil)
}

func (h *Handler) VoteComment(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "commentId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req voteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	comment, err := h.Posts.VoteComment(r.Context(), caller(r).UserID, id, req.Direction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"comment": comment})
}
