package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"car-rental/internal/fleet/app"
	"car-rental/internal/fleet/domain"
	"car-rental/internal/shared/util"
)

type Handler struct {
	service *app.ReviewService
	logger  *util.Logger
}

func NewHandler(service *app.ReviewService, logger *util.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type decisionRequest struct {
	Notes     string   `json:"notes,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Documents []string `json:"documents,omitempty"`
	Message   string   `json:"message,omitempty"`
}

func (h *Handler) GetQueueHandler(w http.ResponseWriter, r *http.Request) {
	instance := "GetQueueHandler"

	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && ps > 0 {
		pageSize = ps
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	queue, err := h.service.Queue(ctx, page, pageSize)
	if err != nil {
		h.logger.Error(instance, err)
		util.WriteJSONError(w, "failed to fetch review queue", http.StatusInternalServerError)
		return
	}

	util.ResponseInJson(w, http.StatusOK, queue)
}

func (h *Handler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	instance := "GetStatsHandler"

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.Error(instance, err)
		util.WriteJSONError(w, "failed to fetch review stats", http.StatusInternalServerError)
		return
	}

	util.ResponseInJson(w, http.StatusOK, stats)
}

func (h *Handler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	instance := "ApproveHandler"
	start := time.Now()

	bookingID := r.PathValue("id")
	reviewerID := reviewerFromContext(r.Context())

	req, ok := h.decodeDecision(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.service.Approve(ctx, bookingID, reviewerID, req.Notes); err != nil {
		h.writeReviewError(w, instance, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, map[string]string{
		"booking_id":   bookingID,
		"fleet_status": "APPROVED",
	})
	h.logger.HTTP(http.StatusOK, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

func (h *Handler) RejectHandler(w http.ResponseWriter, r *http.Request) {
	instance := "RejectHandler"
	start := time.Now()

	bookingID := r.PathValue("id")
	reviewerID := reviewerFromContext(r.Context())

	req, ok := h.decodeDecision(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		util.WriteJSONError(w, "reason is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := h.service.Reject(ctx, bookingID, reviewerID, req.Reason); err != nil {
		h.writeReviewError(w, instance, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, map[string]string{
		"booking_id":   bookingID,
		"fleet_status": "REJECTED",
	})
	h.logger.HTTP(http.StatusOK, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

func (h *Handler) RequestDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	instance := "RequestDocumentsHandler"

	bookingID := r.PathValue("id")
	reviewerID := reviewerFromContext(r.Context())

	req, ok := h.decodeDecision(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.service.RequestDocuments(ctx, bookingID, reviewerID, req.Documents, req.Message); err != nil {
		h.writeReviewError(w, instance, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, map[string]string{
		"booking_id":   bookingID,
		"fleet_status": "NEEDS_INFO",
	})
}

func (h *Handler) decodeDecision(w http.ResponseWriter, r *http.Request) (*decisionRequest, bool) {
	var req decisionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		util.WriteJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (h *Handler) writeReviewError(w http.ResponseWriter, instance string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		util.WriteJSONError(w, "booking not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyJudged):
		util.WriteJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrNotReviewable):
		util.WriteJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error(instance, err)
		util.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
