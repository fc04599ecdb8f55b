package server

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adiallo/debtbook/internal/auth"
	"github.com/adiallo/debtbook/internal/middleware"
)

// RouterConfig carries the knobs the router needs beyond its handlers.
type RouterConfig struct {
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires the middleware stack and routes.
func NewRouter(h *Handler, jwtManager *auth.JWTManager, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Get("/config", h.GetConfig)

		// Everything touching the ledger requires a signed-in user.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwtManager))

			r.Route("/persons", func(r chi.Router) {
				r.Get("/", h.ListPersons)
				r.Post("/{id}/settle", h.SettlePerson)
				r.Delete("/{id}", h.DeletePerson)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", h.AddTransaction)
				r.Put("/amount", h.EditAmount)
				r.Post("/{id}/settle", h.SettleTransaction)
				r.Post("/{id}/unsettle", h.UnsettleTransaction)
			})

			r.Post("/payments", h.RecordPayment)
			r.Get("/settled", h.ListSettledRecords)

			r.With(middleware.RequireAdmin).Get("/activity", h.ListActivity)
		})
	})

	return r
}
