// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Shivanand-hulikatti/zeromonos/internal/config"
	"github.com/Shivanand-hulikatti/zeromonos/internal/database"
	"github.com/Shivanand-hulikatti/zeromonos/internal/events"
	"github.com/Shivanand-hulikatti/zeromonos/internal/handler"
	"github.com/Shivanand-hulikatti/zeromonos/internal/repository"
	"github.com/Shivanand-hulikatti/zeromonos/internal/service"
	"github.com/Shivanand-hulikatti/zeromonos/internal/telemetry"
)

const serviceName = "zeromonos"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(serviceName, cfg.OTLPEndpoint, cfg.OTLPInsecure, log)

	// ── 1. Connect to PostgreSQL and apply the schema ─────────────────────
	pool, err := database.NewPool(ctx, cfg.Database(), log)
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	log.Info("connected to PostgreSQL")

	// ── 2. Domain events ─────────────────────────────────────────────────
	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.WithError(err).Fatal("amqp")
		}
		defer amqpPub.Close()
		pub = amqpPub
		log.WithField("exchange", cfg.AMQPExchange).Info("publishing events to RabbitMQ")
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	bookingRepo := repository.NewBookingRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)

	bookingSvc := service.NewBookingService(bookingRepo, historyRepo, pub, log, service.BookingOptions{
		DailyLimit:      cfg.BookingDailyLimit,
		HistoryOnCreate: cfg.BookingHistoryOnCreate,
	})
	employeeSvc := service.NewEmployeeService(employeeRepo, log)
	taskSvc := service.NewTaskService(taskRepo, bookingRepo, employeeRepo, pub, log)
	h := handler.New(bookingSvc, employeeSvc, taskSvc, log)

	// ── 4. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.Logger(log))
	r.Use(handler.CORS(cfg.CORSAllowedOrigin))

	r.Get("/health", handler.HealthCheck)
	r.Mount("/api", h.Routes())

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      otelhttp.NewHandler(r, serviceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server error")
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracer shutdown")
	}
	log.Info("server stopped")
}
