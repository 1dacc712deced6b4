package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/metrics"
	"github.com/AnshRaj112/clubhub-backend/pkg/clientip"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request once it has been served.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		entry := log.WithFields(log.Fields{
			"method":   r.Method,
			"route":    metrics.RoutePattern(r),
			"status":   status,
			"duration": time.Since(start).String(),
			"ip":       clientip.RealClientIP(r),
		})
		if id := UserID(r.Context()); id != "" {
			entry = entry.WithField("user_id", id)
		}

		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
	})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
