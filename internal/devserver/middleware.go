package devserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/amora-planner/internal/platform/logger"
)

type contextKey string

const userIDKey contextKey = "userID"

// requestLogger attaches a logger tagged with the chi request id to the
// request context.
func requestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithLogger(r.Context(), base)
			if id := r.Header.Get("X-Request-ID"); id != "" {
				ctx = logger.WithRequestID(ctx, id)
			} else if id := chimiddleware.GetReqID(ctx); id != "" {
				ctx = logger.WithRequestID(ctx, id)
			}

			logger.FromContext(ctx).Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate requires a valid bearer token and stores the user id in the
// request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if header == "" || !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondError(w, r, http.StatusUnauthorized, "Not authenticated")
			return
		}

		userID, err := s.tokens.verify(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondErrorAndLog(w, r, http.StatusUnauthorized, "Could not validate credentials", err)
			return
		}
		if _, err := s.db.userByID(userID); err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondErrorAndLog(w, r, http.StatusUnauthorized, "Could not validate credentials", err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}
