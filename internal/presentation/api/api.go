package api

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hilthontt/huddle/internal/infrastructure/configs"
	"github.com/hilthontt/huddle/internal/infrastructure/logging"
	"github.com/hilthontt/huddle/internal/infrastructure/metrics"
	healthHandler "github.com/hilthontt/huddle/internal/presentation/handler/health"
	roomHandler "github.com/hilthontt/huddle/internal/presentation/handler/rooms"
	socketHandler "github.com/hilthontt/huddle/internal/presentation/handler/socket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	serviceName     = "huddle-api"
	shutdownTimeout = 5 * time.Second
)

type Application struct {
	config        *configs.Config
	roomHandler   *roomHandler.Handler
	healthHandler *healthHandler.Handler
	socketHandler *socketHandler.Handler
	logger        logging.Logger
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer
}

func NewApplication(
	config *configs.Config,
	roomHandler *roomHandler.Handler,
	healthHandler *healthHandler.Handler,
	socketHandler *socketHandler.Handler,
	logger logging.Logger,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
) *Application {
	return &Application{
		config:        config,
		roomHandler:   roomHandler,
		healthHandler: healthHandler,
		socketHandler: socketHandler,
		logger:        logger,
		metrics:       m,
		gatherer:      gatherer,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(app.loggerMiddleware)
	r.Use(app.prometheusMiddleware)
	r.Use(app.enableCors)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/{roomId}", app.roomHandler.GetRoomHandler)
		})

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Get("/ws", app.socketHandler.ServeWS)
	r.Handle("/metrics", promhttp.HandlerFor(app.gatherer, promhttp.HandlerOpts{}))
	r.Handle("/debug/vars", expvar.Handler())

	return otelhttp.NewHandler(r, serviceName)
}

// Run serves mux until SIGINT or SIGTERM, then drains for up to five seconds.
// onShutdown runs once the listener has stopped accepting connections.
func (app *Application) Run(mux http.Handler, onShutdown func()) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}
	if onShutdown != nil {
		srv.RegisterOnShutdown(onShutdown)
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		app.healthHandler.SetHealthy(false)
		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"Signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"Addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"Addr": srv.Addr,
	})

	return nil
}
