package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/middleware"
	"github.com/AnshRaj112/clubhub-backend/internal/services"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxBodyBytes = 1 << 20

// Handler serves the JSON API on top of the service container.
type Handler struct {
	*services.Container
	limiter *middleware.RateLimiter
}

func New(c *services.Container, limiter *middleware.RateLimiter) *Handler {
	return &Handler{Container: c, limiter: limiter}
}

// envelope is merged into {"success": ..., "message": ...}.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, message string, payload envelope) {
	body := envelope{"success": status < 400, "message": message}
	for k, v := range payload {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Debug("failed to write response")
	}
}

func writeOK(w http.ResponseWriter, message string, payload envelope) {
	writeJSON(w, http.StatusOK, message, payload)
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNoPendingRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	}

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindInsufficientFunds:
		return http.StatusPaymentRequired
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("❌ request failed")
		message = "Internal server error"
	}
	writeJSON(w, status, message, nil)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

func queryInt(r *http.Request, name string) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.Validation(name + " must be an RFC3339 timestamp")
	}
	return &t, nil
}

func objectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid " + name)
	}
	return id, nil
}

// caller is the identity RequireAuth attached.
func caller(r *http.Request) *services.Identity {
	return middleware.IdentityFrom(r.Context())
}
