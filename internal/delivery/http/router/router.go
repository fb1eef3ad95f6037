package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/listing-risk-service/internal/delivery/http/handler"
	"github.com/user/listing-risk-service/internal/delivery/http/middleware"
)

func New(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)
		r.Post("/analyze", h.HandleAnalyze)
		r.Get("/verdict", h.HandleGetVerdict)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.HandleOpenSession)
			r.Get("/", h.HandleListSessions)
			r.Get("/{id}", h.HandleGetSession)
			r.Delete("/{id}", h.HandleCloseSession)
		})
	})

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
