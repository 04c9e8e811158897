package main

import (
	"context"
	"expvar"
	"log"
	"runtime"
	"time"

	"github.com/hilthontt/huddle/internal/application/coordinator"
	"github.com/hilthontt/huddle/internal/domain"
	"github.com/hilthontt/huddle/internal/infrastructure/configs"
	"github.com/hilthontt/huddle/internal/infrastructure/credentials"
	"github.com/hilthontt/huddle/internal/infrastructure/events"
	"github.com/hilthontt/huddle/internal/infrastructure/logging"
	"github.com/hilthontt/huddle/internal/infrastructure/messaging"
	"github.com/hilthontt/huddle/internal/infrastructure/metrics"
	"github.com/hilthontt/huddle/internal/infrastructure/repository"
	"github.com/hilthontt/huddle/internal/infrastructure/scheduler"
	"github.com/hilthontt/huddle/internal/infrastructure/tracing"
	"github.com/hilthontt/huddle/internal/infrastructure/ws"
	"github.com/hilthontt/huddle/internal/presentation/api"
	"github.com/hilthontt/huddle/internal/presentation/handler/health"
	"github.com/hilthontt/huddle/internal/presentation/handler/rooms"
	"github.com/hilthontt/huddle/internal/presentation/handler/socket"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(&cfg.Logger)
	defer logger.Sync()

	sh, err := tracing.InitTracer(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize the tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sh(ctx)
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	coord := coordinator.New(
		repository.NewRoomRepository(),
		credentials.NewBcryptVerifier(),
		scheduler.New(),
		publisher,
		m,
		logger,
		coordinator.Options{
			BcryptCost:   cfg.Security.BcryptCost,
			CleanupDelay: cfg.Rooms.CleanupDelay,
		},
	)
	defer coord.Shutdown()

	wsCore := ws.NewCore(coord, ws.Config{
		PingInterval:    cfg.WebSocket.PingInterval,
		PingTimeout:     cfg.WebSocket.PingTimeout,
		SendBuffer:      cfg.WebSocket.SendBuffer,
		MaxMessageBytes: cfg.WebSocket.MaxMessageBytes,
	}, logger, m)

	app := api.NewApplication(
		cfg,
		rooms.NewHandler(coord),
		health.NewHandler(),
		socket.NewHandler(wsCore, cfg.HTTP.AllowedOrigins, logger),
		logger,
		m,
		registry,
	)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux, wsCore.Close); err != nil {
		logger.Fatal(logging.General, logging.Startup, "server failed", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
}

// newPublisher connects to RabbitMQ when a URI is configured. Without one, or
// if the broker is unreachable, room events are discarded.
func newPublisher(cfg *configs.Config, logger logging.Logger) (domain.EventPublisher, func()) {
	if cfg.Events.RabbitMQURI == "" {
		return events.NopPublisher{}, func() {}
	}

	rabbitmq, err := messaging.NewRabbitMQ(cfg.Events.RabbitMQURI, cfg.Events.Exchange)
	if err != nil {
		logger.Error(logging.RabbitMQ, logging.Startup, "event publishing disabled", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return events.NopPublisher{}, func() {}
	}

	logger.Info(logging.RabbitMQ, logging.Startup, "publishing room events", map[logging.ExtraKey]any{
		"Exchange": cfg.Events.Exchange,
	})

	publisher := events.NewRoomPublisher(rabbitmq, logger, cfg.Events.QueueSize)
	return publisher, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = publisher.Close(ctx)
		rabbitmq.Close()
	}
}
