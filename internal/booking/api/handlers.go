package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	accountdomain "car-rental/internal/account/domain"
	"car-rental/internal/booking/app"
	"car-rental/internal/booking/domain"
	"car-rental/internal/shared/apperrors"
	"car-rental/internal/shared/jwt"
	"car-rental/internal/shared/util"
)

type Handler struct {
	service *app.BookingService
	jwt     *jwt.Manager
	logger  *util.Logger
}

func NewHandler(service *app.BookingService, jwtMgr *jwt.Manager, logger *util.Logger) *Handler {
	return &Handler{service: service, jwt: jwtMgr, logger: logger}
}

// sessionClaims parses an optional bearer token; booking creation is open
// to visitors, so a missing or bad header just means no session.
func (h *Handler) sessionClaims(r *http.Request) *jwt.Claims {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil
	}
	claims, err := h.jwt.ParseToken(parts[1])
	if err != nil {
		return nil
	}
	return claims
}

func (h *Handler) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	instance := "CreateBookingHandler"
	start := time.Now()

	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Error(instance, err)
		util.WriteJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		util.WriteJSONError(w, "invalid start_date", http.StatusBadRequest)
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		util.WriteJSONError(w, "invalid end_date", http.StatusBadRequest)
		return
	}

	input := app.CreateBookingInput{
		CarID:           req.CarID,
		StartDate:       startDate,
		EndDate:         endDate,
		DailyRate:       req.DailyRate,
		TripAmount:      req.TripAmount,
		ServiceFee:      req.ServiceFee,
		TaxAmount:       req.TaxAmount,
		SecurityDeposit: req.SecurityDeposit,
		TotalAmount:     req.TotalAmount,
		Contact: domain.GuestContact{
			Name:  req.GuestName,
			Email: req.GuestEmail,
			Phone: req.GuestPhone,
		},
		PaymentCustomerRef: req.PaymentCustomerRef,
		PaymentMethodRef:   req.PaymentMethodRef,
		Documents:          collectDocuments(req),
		Verification:       toVerification(req.AIVerification),
	}
	if claims := h.sessionClaims(r); claims != nil {
		input.AccountID = claims.AccountID
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	h.logger.Info(instance, "creating new booking...")
	result, err := h.service.CreateBooking(ctx, input)
	if err != nil {
		status := apperrors.StatusCode(err)
		if result != nil {
			// a failed payment still leaves a booking behind; surface its
			// reference with a non-leaky message
			h.logger.Warn(instance, "payment authorization failed for booking "+result.BookingID)
			util.ResponseInJson(w, status, map[string]interface{}{
				"error":        "payment could not be authorized, please try another payment method",
				"booking_id":   result.BookingID,
				"reference_id": result.ReferenceID,
			})
			return
		}
		h.logger.Error(instance, err)
		util.WriteJSONError(w, err.Error(), status)
		return
	}

	resp := CreateBookingResponse{
		BookingID:   result.BookingID,
		ReferenceID: result.ReferenceID,
		AccountID:   result.AccountID,
		PaymentRef:  result.PaymentRef,
		AuthToken:   result.AuthToken,
		LoginURL:    result.LoginURL,
		Warning:     result.Warning,
	}
	util.ResponseInJson(w, http.StatusCreated, resp)

	h.logger.OK(instance, "booking created successfully: "+result.BookingID)
	h.logger.HTTP(http.StatusCreated, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

func (h *Handler) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	instance := "GetBookingHandler"

	idOrRef := r.PathValue("idOrRef")
	if idOrRef == "" {
		util.WriteJSONError(w, "invalid URL path", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	booking, err := h.service.GetBooking(ctx, idOrRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			util.WriteJSONError(w, "booking not found", http.StatusNotFound)
			return
		}
		h.logger.Error(instance, err)
		util.WriteJSONError(w, "failed to fetch booking", http.StatusInternalServerError)
		return
	}

	util.ResponseInJson(w, http.StatusOK, toBookingResponse(booking))
}

func (h *Handler) CancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	instance := "CancelBookingHandler"
	start := time.Now()

	bookingID := r.PathValue("id")
	if bookingID == "" {
		util.WriteJSONError(w, "invalid URL path", http.StatusBadRequest)
		return
	}

	claims := h.sessionClaims(r)
	if claims == nil {
		util.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		util.WriteJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Reason) == "" {
		body.Reason = "Cancelled by guest"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.service.CancelBooking(ctx, bookingID, claims.AccountID, body.Reason); err != nil {
		h.logger.Warn(instance, "cancellation failed for booking "+bookingID)
		util.WriteJSONError(w, err.Error(), apperrors.StatusCode(err))
		return
	}

	util.ResponseInJson(w, http.StatusOK, map[string]string{
		"booking_id": bookingID,
		"status":     "CANCELLED",
	})
	h.logger.HTTP(http.StatusOK, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

func (h *Handler) CompleteBookingHandler(w http.ResponseWriter, r *http.Request) {
	instance := "CompleteBookingHandler"

	bookingID := r.PathValue("id")
	if bookingID == "" {
		util.WriteJSONError(w, "invalid URL path", http.StatusBadRequest)
		return
	}

	claims := h.sessionClaims(r)
	if claims == nil || claims.Role != "FLEET" {
		util.WriteJSONError(w, "forbidden: fleet role required", http.StatusForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := h.service.CompleteBooking(ctx, bookingID); err != nil {
		h.logger.Error(instance, err)
		util.WriteJSONError(w, err.Error(), apperrors.StatusCode(err))
		return
	}

	util.ResponseInJson(w, http.StatusOK, map[string]string{
		"booking_id": bookingID,
		"status":     "COMPLETED",
	})
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func collectDocuments(req CreateBookingRequest) []domain.Document {
	var docs []domain.Document
	if req.LicenseFrontURL != "" {
		docs = append(docs, domain.Document{Type: domain.DocLicenseFront, URL: req.LicenseFrontURL})
	}
	if req.LicenseBackURL != "" {
		docs = append(docs, domain.Document{Type: domain.DocLicenseBack, URL: req.LicenseBackURL})
	}
	if req.SelfieURL != "" {
		docs = append(docs, domain.Document{Type: domain.DocSelfie, URL: req.SelfieURL})
	}
	return docs
}

func toVerification(dto *AIVerificationDTO) accountdomain.AIVerification {
	if dto == nil {
		return accountdomain.AIVerification{Result: accountdomain.AINotAttempted}
	}
	if dto.IsValid {
		return accountdomain.AIVerification{Result: accountdomain.AIVerified, Confidence: dto.Confidence}
	}
	return accountdomain.AIVerification{Result: accountdomain.AIRejected, Confidence: dto.Confidence}
}
