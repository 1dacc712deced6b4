package handlers

import (
	"io"
	"net/http"

	"github.com/AnshRaj112/clubhub-backend/internal/services"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
)

const maxUploadForm = services.MaxAvatarBytes + 1<<20

// UploadAvatar stores a new profile picture from the multipart "file" field.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadForm)
	if err := r.ParseMultipartForm(maxUploadForm); err != nil {
		writeError(w, r, apperr.Validation("Failed to parse form: file must be at most 5MB"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperr.Validation("No file provided"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxAvatarBytes+1))
	if err != nil {
		writeError(w, r, apperr.Validation("Failed to read file"))
		return
	}

	url, err := h.Profiles.SetAvatar(r.Context(), caller(r).UserID, data, http.DetectContentType(data))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Avatar updated successfully", envelope{"url": url})
}
