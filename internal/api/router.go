package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/salon-scheduling/internal/appointment"
	"github.com/hackgods/salon-scheduling/internal/auth"
	"github.com/hackgods/salon-scheduling/internal/catalog"
	"github.com/hackgods/salon-scheduling/internal/user"
)

type RouterConfig struct {
	Users        *user.Service
	Catalog      *catalog.Catalog
	Appointments *appointment.Service
	Tokens       *auth.Issuer
	Logger       *zap.Logger

	PgPool *pgxpool.Pool // nil with the memory store
	Redis  *redis.Client // nil with the local locker

	RateLimitRPS   float64
	RateLimitBurst int
	TrustProxy     bool // read client IPs from X-Forwarded-For
	Env            string
	Version        string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxy, cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", registerHandler(cfg.Users))
		r.Post("/auth/token", tokenHandler(cfg.Users))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Tokens))

			r.Get("/users/me", meHandler(cfg.Users))
			r.Get("/users/masters", listMastersHandler(cfg.Users))

			r.Get("/schedule", scheduleHandler(cfg.Appointments))

			// Service endpoints
			r.Get("/services", listServicesHandler(cfg.Catalog))
			r.Post("/services", createServiceHandler(cfg.Catalog))
			r.Get("/services/masters/{master_id}", listMasterServicesHandler(cfg.Catalog))
			r.Get("/services/{id}", getServiceHandler(cfg.Catalog))
			r.Put("/services/{id}", updateServiceHandler(cfg.Catalog))
			r.Patch("/services/{id}", updateServiceHandler(cfg.Catalog))
			r.Delete("/services/{id}", deleteServiceHandler(cfg.Catalog))
			r.Get("/services/{id}/free_quarters", freeQuartersHandler(cfg.Appointments))

			// Appointment endpoints
			r.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
			r.Post("/appointments", createAppointmentHandler(cfg.Appointments))
			r.Get("/appointments/client", listClientAppointmentsHandler(cfg.Appointments))
			r.Get("/appointments/master", listMasterAppointmentsHandler(cfg.Appointments))
			r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments))
			r.Patch("/appointments/{id}", updateAppointmentHandler(cfg.Appointments))
			r.Delete("/appointments/{id}", deleteAppointmentHandler(cfg.Appointments))

			// Payment endpoints
			r.Post("/payments", createPaymentHandler(cfg.Appointments))
			r.Get("/payments/me", listMyPaymentsHandler(cfg.Appointments))
		})
	})

	return r
}
