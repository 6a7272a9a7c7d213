package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/zahran001/e-commerce/auth-service/internal/identity"
	"github.com/zahran001/e-commerce/internal/events"
)

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

type AuthHandler struct {
	provider  identity.IdentityProvider
	publisher EventPublisher
	timeout   time.Duration
	logger    zerolog.Logger
}

func NewAuthHandler(provider identity.IdentityProvider, publisher EventPublisher, timeout time.Duration, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		provider:  provider,
		publisher: publisher,
		timeout:   timeout,
		logger:    logger,
	}
}

type RegisterRequestDTO struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponseDTO struct {
	User  *identity.User `json:"user"`
	Roles []string       `json:"roles"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.provider.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		h.respondProviderError(w, err)
		return
	}

	// Registration already succeeded; a publish failure must not turn it
	// into an error response. It is logged, never swallowed silently.
	if err := h.publisher.Publish(ctx, events.TopicUserRegistered, events.UserRegistered{Email: user.Email}); err != nil {
		h.logger.Error().Err(err).Str("email", user.Email).Msg("failed to publish user-registered event")
	}

	respondJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.provider.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.respondProviderError(w, err)
		return
	}

	roles, err := h.provider.Roles(ctx, user.ID)
	if err != nil {
		h.respondProviderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponseDTO{User: user, Roles: roles})
}

func (h *AuthHandler) respondProviderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidEmail):
		respondError(w, http.StatusBadRequest, "invalid_email", "email must not be empty")
	case errors.Is(err, identity.ErrWeakPassword):
		respondError(w, http.StatusBadRequest, "weak_password", "password too short")
	case errors.Is(err, identity.ErrEmailTaken):
		respondError(w, http.StatusConflict, "email_taken", "email already registered")
	case errors.Is(err, identity.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	default:
		h.logger.Error().Err(err).Msg("auth operation failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
