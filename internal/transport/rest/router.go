package rest

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"

	"github.com/frahmantamala/paynow/internal/payment"
	"github.com/frahmantamala/paynow/internal/transport/middleware"
	"github.com/frahmantamala/paynow/internal/transport/swagger"
)

// Routes collects what RegisterAllRoutes mounts. Optional parts are nil
// when disabled.
type Routes struct {
	PaymentHandler *payment.Handler
	// Sessions wraps the page routes; it attaches the session id.
	Sessions       func(http.Handler) http.Handler
	HealthChecks   map[string]Pinger
	OpenAPI        *openapi3.T
	HTTPObserver   middleware.HTTPObserver
	MetricsHandler http.Handler
	MetricsPath    string
	ServiceName    string
}

func RegisterAllRoutes(router *chi.Mux, routes Routes, logger *slog.Logger) error {
	healthHandler := NewHealthHandler(routes.HealthChecks)

	validator, err := middleware.OpenAPIValidator(routes.OpenAPI)
	if err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(routes.ServiceName))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if routes.HTTPObserver != nil {
		router.Use(middleware.HTTPMetrics(routes.HTTPObserver))
	}

	router.Get(swagger.SpecPath, swagger.SpecHandler)
	router.Handle("/swagger/*", swagger.Handler())

	if routes.MetricsHandler != nil {
		router.Handle(routes.MetricsPath, routes.MetricsHandler)
	}

	// HTML pages, one session per browser
	router.Group(func(r chi.Router) {
		r.Use(routes.Sessions)
		r.Get("/", routes.PaymentHandler.ShowPage)
		r.Post("/payments", routes.PaymentHandler.SubmitPayment)
		r.Post("/payments/clear", routes.PaymentHandler.ClearResult)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Group(func(vr chi.Router) {
			vr.Use(validator)
			vr.Post("/payments/decide", routes.PaymentHandler.Decide) // POST /api/v1/payments/decide
		})
	})

	return nil
}
