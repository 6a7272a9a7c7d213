package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zahran001/e-commerce/internal/events"
)

// NewRouter wires the cart HTTP surface.
func NewRouter(handler *CartHandler, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(events.CorrelationIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/{userID}", handler.GetCart)
			r.Post("/upsert", handler.UpsertItem)
			r.Post("/remove", handler.RemoveLine)
			r.Post("/apply-coupon", handler.ApplyCoupon)
			r.Post("/remove-coupon", handler.RemoveCoupon)
			r.Post("/email", handler.EmailCart)
		})
	})

	return r
}
