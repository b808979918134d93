package api

import (
	"context"
	"net/http"
	"strings"

	"car-rental/internal/shared/jwt"
	"car-rental/internal/shared/middleware"
	"car-rental/internal/shared/util"
)

type contextKey string

const reviewerKey contextKey = "reviewer_id"

func reviewerFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(reviewerKey).(string); ok {
		return id
	}
	return ""
}

func (h *Handler) RegisterRoutes(jwtMgr *jwt.Manager, healthHandler http.HandlerFunc) http.Handler {
	mux := http.NewServeMux()

	auth := func(next http.HandlerFunc) http.Handler {
		return FleetAuthMiddleware(jwtMgr, next)
	}

	mux.Handle("GET /fleet/queue", auth(h.GetQueueHandler))
	mux.Handle("GET /fleet/stats", auth(h.GetStatsHandler))
	mux.Handle("POST /fleet/bookings/{id}/approve", auth(h.ApproveHandler))
	mux.Handle("POST /fleet/bookings/{id}/reject", auth(h.RejectHandler))
	mux.Handle("POST /fleet/bookings/{id}/request-documents", auth(h.RequestDocumentsHandler))
	mux.HandleFunc("GET /health", healthHandler)

	return middleware.RequestID(mux)
}

func FleetAuthMiddleware(jwtMgr *jwt.Manager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			util.WriteJSONError(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			util.WriteJSONError(w, "invalid Authorization format", http.StatusUnauthorized)
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			util.WriteJSONError(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		if claims.Role != "FLEET" {
			util.WriteJSONError(w, "fleet access required", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), reviewerKey, claims.AccountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
