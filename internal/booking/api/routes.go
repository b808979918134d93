package api

import (
	"net/http"

	authapi "car-rental/internal/auth/api"
	"car-rental/internal/shared/middleware"
)

func (h *Handler) RegisterRoutes(autoLogin *authapi.Handler, healthHandler http.HandlerFunc) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /bookings", h.CreateBookingHandler)
	mux.HandleFunc("GET /bookings/{idOrRef}", h.GetBookingHandler)
	mux.HandleFunc("POST /bookings/{id}/cancel", h.CancelBookingHandler)
	mux.HandleFunc("POST /bookings/{id}/complete", h.CompleteBookingHandler)
	mux.HandleFunc("GET /auth/auto-login", autoLogin.AutoLoginHandler)
	mux.HandleFunc("GET /health", healthHandler)

	return mux
}

func WithMiddleware(mux *http.ServeMux) http.Handler {
	return middleware.RequestID(mux)
}
