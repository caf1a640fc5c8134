package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/paynow/api"
	"github.com/frahmantamala/paynow/internal"
	"github.com/frahmantamala/paynow/internal/core/events"
	"github.com/frahmantamala/paynow/internal/decision"
	"github.com/frahmantamala/paynow/internal/metrics"
	"github.com/frahmantamala/paynow/internal/payment"
	"github.com/frahmantamala/paynow/internal/payment/view"
	"github.com/frahmantamala/paynow/internal/session"
	"github.com/frahmantamala/paynow/internal/tracing"
	"github.com/frahmantamala/paynow/internal/transport/rest"
	"github.com/frahmantamala/paynow/pkg/logger"
)

// Version is set at build time with -ldflags.
var Version = "dev"

const (
	shutdownTimeout = 30 * time.Second
	janitorInterval = time.Minute
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server serving the payment page and the JSON API`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	Router   *chi.Mux
	Sessions *session.Store[payment.Session]
	Tracing  *tracing.Provider
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	log := deps.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go deps.Sessions.RunJanitor(ctx, janitorInterval)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", addr, "decision_service", deps.Config.Decision.BaseURL)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Received signal, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", "error", err)
		}
		if err := deps.Tracing.Shutdown(shutdownCtx); err != nil {
			log.Error("Tracer shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	log.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	obs := config.Observability
	logger.Init(obs.Logging.Level, obs.Logging.Format)
	log := logger.LoggerWrapper()

	ctx := context.Background()
	tp, err := tracing.NewProvider(ctx, obs.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	eventBus := events.NewEventBus(log)

	routes := rest.Routes{
		ServiceName: obs.Tracing.ServiceName,
	}
	if obs.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := metrics.NewMetrics()
		if err := m.Register(registry); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		m.Subscribe(eventBus)

		routes.HTTPObserver = m
		routes.MetricsHandler = metrics.Handler(registry)
		routes.MetricsPath = obs.Metrics.Path
	}

	decisionClient := decision.NewClient(decision.Config{
		BaseURL: config.Decision.BaseURL,
		APIKey:  config.Decision.APIKey,
		Timeout: config.Decision.Timeout,
	}, log)

	sessions := session.NewStore[payment.Session](config.Session.TTL, log)
	cookies := session.NewManager(session.CookieConfig{
		Name:   config.Session.CookieName,
		Secret: config.Session.Secret,
		TTL:    config.Session.TTL,
		Secure: config.Session.Secure,
	}, sessions)

	renderer, err := view.NewRenderer(time.Local)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	doc, err := api.Load(ctx)
	if err != nil {
		return nil, err
	}

	paymentService := payment.NewService(decisionClient, eventBus, log)
	routes.PaymentHandler = payment.NewHandler(paymentService, sessions, renderer, log)
	routes.Sessions = cookies.Middleware
	routes.HealthChecks = map[string]rest.Pinger{
		rest.ComponentDecisionService: decisionClient,
	}
	routes.OpenAPI = doc

	router := chi.NewRouter()
	if err := rest.RegisterAllRoutes(router, routes, log); err != nil {
		return nil, err
	}

	return &Dependencies{
		Config:   config,
		Router:   router,
		Sessions: sessions,
		Tracing:  tp,
		Logger:   log,
	}, nil
}
