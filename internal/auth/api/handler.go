package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"car-rental/internal/account/domain"
	"car-rental/internal/auth/app"
	authdomain "car-rental/internal/auth/domain"
	"car-rental/internal/shared/jwt"
	"car-rental/internal/shared/util"
)

type AccountGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

type Handler struct {
	tokens   *app.TokenService
	accounts AccountGetter
	jwt      *jwt.Manager
	logger   *util.Logger
}

func NewHandler(tokens *app.TokenService, accounts AccountGetter, jwtMgr *jwt.Manager, logger *util.Logger) *Handler {
	return &Handler{tokens: tokens, accounts: accounts, jwt: jwtMgr, logger: logger}
}

// AutoLoginHandler redeems a single-use token and exchanges it for a
// dashboard session. A second redemption of the same token fails.
func (h *Handler) AutoLoginHandler(w http.ResponseWriter, r *http.Request) {
	instance := "AutoLoginHandler"
	start := time.Now()

	token := r.URL.Query().Get("token")
	if token == "" {
		util.WriteJSONError(w, "missing token", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	t, err := h.tokens.Consume(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, authdomain.ErrTokenExpired):
			h.logger.Warn(instance, "expired auto-login token presented")
			util.WriteJSONError(w, "login link expired, please sign in normally", http.StatusUnauthorized)
		case errors.Is(err, authdomain.ErrTokenInvalid):
			h.logger.Warn(instance, "invalid auto-login token presented")
			util.WriteJSONError(w, "invalid login link", http.StatusUnauthorized)
		default:
			h.logger.Error(instance, err)
			util.WriteJSONError(w, "auto-login failed", http.StatusInternalServerError)
		}
		return
	}

	acc, err := h.accounts.GetByID(ctx, t.AccountID)
	if err != nil {
		h.logger.Error(instance, err)
		util.WriteJSONError(w, "auto-login failed", http.StatusInternalServerError)
		return
	}

	session, err := h.jwt.GenerateToken(acc.ID, acc.Email, "GUEST", 24*time.Hour)
	if err != nil {
		h.logger.Error(instance, err)
		util.WriteJSONError(w, "auto-login failed", http.StatusInternalServerError)
		return
	}

	util.ResponseInJson(w, http.StatusOK, map[string]interface{}{
		"session_token": session,
		"account_id":    acc.ID,
		"booking_id":    t.BookingID,
	})

	h.logger.OK(instance, "auto-login succeeded for account "+acc.ID)
	h.logger.HTTP(http.StatusOK, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}
