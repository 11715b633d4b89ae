package devserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/phrazzld/amora-planner/internal/platform/logger"
	"github.com/phrazzld/amora-planner/internal/redact"
)

// errorResponse matches the error envelope of the production API.
type errorResponse struct {
	Detail string `json:"detail"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	logger.FromContext(r.Context()).Debug("sending error response",
		slog.Int("status_code", status),
		slog.String("detail", detail),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method))
	respondJSON(w, r, status, errorResponse{Detail: detail})
}

// respondErrorAndLog hides err from the client and logs it redacted. Server
// errors log at ERROR, the rest at DEBUG.
func respondErrorAndLog(w http.ResponseWriter, r *http.Request, status int, detail string, err error) {
	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.FromContext(r.Context()).Log(r.Context(), level, "API error response",
		slog.Int("status_code", status),
		slog.String("detail", detail),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.String("error", redact.Error(err)))
	respondJSON(w, r, status, errorResponse{Detail: detail})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
