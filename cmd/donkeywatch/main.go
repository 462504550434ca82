package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sahan/donkeywatch/internal/analysis"
	"github.com/sahan/donkeywatch/internal/auth"
	"github.com/sahan/donkeywatch/internal/capture"
	"github.com/sahan/donkeywatch/internal/config"
	"github.com/sahan/donkeywatch/internal/db"
	"github.com/sahan/donkeywatch/internal/excel"
	httphandler "github.com/sahan/donkeywatch/internal/http"
	"github.com/sahan/donkeywatch/internal/http/middleware"
	"github.com/sahan/donkeywatch/internal/logger"
	"github.com/sahan/donkeywatch/internal/media"
	"github.com/sahan/donkeywatch/internal/pdf"
	"github.com/sahan/donkeywatch/internal/repository"
	"github.com/sahan/donkeywatch/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	store, err := media.NewStore(cfg.Media.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init media store")
	}

	forwarder := analysis.NewForwarder(
		cfg.Analysis.WebhookURL,
		cfg.Analysis.Workers,
		cfg.Analysis.QueueSize,
		cfg.Analysis.Timeout,
		log,
	)
	defer forwarder.Close()

	captures := capture.NewStash(cfg.Capture.TTL)
	stop := make(chan struct{})
	defer close(stop)
	go captures.Run(stop, time.Minute)

	reportRepo := repository.NewReportRepository(database)
	leaderboardRepo := repository.NewLeaderboardRepository(database)
	claimRepo := repository.NewClaimRepository(database)

	reportService := service.NewReportService(reportRepo, store, forwarder, captures, cfg, log)
	reviewService := service.NewReviewService(reportRepo)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo)
	claimService := service.NewClaimService(claimRepo, cfg)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(
		reportService,
		reviewService,
		leaderboardService,
		claimService,
		excel.NewGenerator(),
		pdf.NewGenerator(),
		log,
	)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting donkeywatch service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
