package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"gatherings/config"
	_ "gatherings/docs"
	"gatherings/internal/adapters/auth"
	"gatherings/internal/adapters/email"
	delivery "gatherings/internal/delivery/http"
	"gatherings/internal/delivery/http/controllers"
	"gatherings/internal/delivery/http/middleware"
	"gatherings/internal/repository/postgres"
	"gatherings/internal/services"
)

const serviceTimeout = 10 * time.Second

// @title Gatherings API
// @version 1.0
// @description Public listings of recurring and one-off gatherings, with a moderation lifecycle and a past-event gallery.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	pastEventRepo := postgres.NewPastEventRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFrom,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretKey,
		},
	})
	if err != nil {
		logger.Error("init mailer", "err", err)
		os.Exit(1)
	}
	notifier := services.NewNotificationService(mailer, email.NewTemplateRenderer())

	pastEventService := services.NewPastEventService(pastEventRepo, eventRepo, logger, serviceTimeout)
	eventService := services.NewEventService(eventRepo, pastEventRepo, pastEventService, notifier,
		cfg.ModerationEnabled, logger, serviceTimeout)

	verifier := auth.NewJWTVerifier(cfg.AuthJWTSecret)
	eventController := controllers.NewEventController(logger, eventService)
	pastEventController := controllers.NewPastEventController(logger, pastEventService)

	mux := delivery.NewRouter(eventController, pastEventController, verifier)
	handler := middleware.LoggingMiddleware(logger,
		middleware.CORS(cfg.CORSAllowedOrigins, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment,
			"moderation_enabled", cfg.ModerationEnabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("server stopped")
}
