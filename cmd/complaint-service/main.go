package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"complaint-service/internal/auth"
	"complaint-service/internal/config"
	"complaint-service/internal/db"
	httphandler "complaint-service/internal/http"
	"complaint-service/internal/http/middleware"
	"complaint-service/internal/logger"
	"complaint-service/internal/repository"
	"complaint-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	complaintRepo := repository.NewComplaintRepository(database)
	referenceRepo := repository.NewReferenceRepository(database)
	eventRepo := repository.NewEventRepository(database)
	userRepo := repository.NewUserRepository(database)

	complaintService := service.NewComplaintService(
		complaintRepo,
		referenceRepo,
		eventRepo,
		userRepo,
		cfg.SLA.AckDays,
		cfg.SLA.FinalWeeks,
	)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	healthCheck := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return db.HealthCheck(ctx, database)
	}

	handler := httphandler.NewHandler(complaintService, log)
	router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), healthCheck, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting complaints service")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
