package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zahran001/e-commerce/cart-service/internal/domain"
	"github.com/zahran001/e-commerce/cart-service/internal/repository"
	"github.com/zahran001/e-commerce/cart-service/internal/service"
)

type CartHandler struct {
	svc     *service.CartService
	timeout time.Duration
	logger  zerolog.Logger
}

func NewCartHandler(svc *service.CartService, timeout time.Duration, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		svc:     svc,
		timeout: timeout,
		logger:  logger,
	}
}

type UpsertItemRequestDTO struct {
	UserID    string `json:"user_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveLineRequestDTO struct {
	LineID int64 `json:"line_id"`
}

type CouponRequestDTO struct {
	UserID     string `json:"user_id"`
	CouponCode string `json:"coupon_code"`
}

type EmailCartRequestDTO struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := chi.URLParam(r, "userID")

	cart, err := h.svc.GetCart(ctx, userID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) UpsertItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpsertItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	cart, err := h.svc.UpsertItem(ctx, req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RemoveLineRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.svc.RemoveLine(ctx, req.LineID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CouponCode == "" {
		respondError(w, http.StatusBadRequest, "invalid_coupon", "coupon_code must not be empty")
		return
	}

	if err := h.svc.ApplyCoupon(ctx, req.UserID, req.CouponCode); err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.svc.RemoveCoupon(ctx, req.UserID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *CartHandler) EmailCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req EmailCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "invalid_email", "email must not be empty")
		return
	}

	if err := h.svc.RequestCartEmail(ctx, req.UserID, req.Email); err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

// respondServiceError maps domain and repository errors onto HTTP statuses.
// Anything unclassified is a persistence or internal failure and surfaces as
// a 500; nothing is swallowed.
func (h *CartHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
	case errors.Is(err, domain.ErrInvalidUserID):
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id must not be empty")
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", "no cart exists for this user")
	case errors.Is(err, repository.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "line_not_found", "no such cart line")
	default:
		h.logger.Error().Err(err).Msg("cart operation failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
	})
}
