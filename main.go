// File: visaflow/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visaflow/config"
	"visaflow/database"
	partnerRepo "visaflow/database/repository/partner"
	scrapetargetRepo "visaflow/database/repository/scrapetarget"
	"visaflow/handlers"
	"visaflow/middleware"
	"visaflow/routes"
	"visaflow/services/acquisition"
	"visaflow/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitRegistry()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	partners := partnerRepo.NewMongoPartnerRepo()
	targets := scrapetargetRepo.NewMongoScrapeTargetRepo()

	// channel adapters.
	officialClient := acquisition.NewOfficialHTTPClient(
		time.Duration(config.AppConfig.OfficialTimeoutSec) * time.Second)
	officialService := acquisition.NewOfficialService(officialClient, logger)

	partnerClients, defaultPartnerClient := acquisition.NewPartnerClients(
		time.Duration(config.AppConfig.PartnerTimeoutSec) * time.Second)
	partnerService := acquisition.NewPartnerService(
		partners, partnerClients, defaultPartnerClient, config.AppConfig.PartnerAPIKeys, logger)

	browser := acquisition.NewChromeBrowser(
		time.Duration(config.AppConfig.ScrapeNavTimeoutSec) * time.Second)
	defer browser.Close()
	scrapingService := acquisition.NewScrapingService(
		targets, browser, config.AppConfig.ScrapeEnabled, logger)

	hybridService := &acquisition.DefaultHybridService{
		Official:       officialService,
		Partner:        partnerService,
		Scraping:       scrapingService,
		CacheClient:    utils.GetCacheClient(),
		RegistryClient: utils.GetRegistryClient(),
		Logger:         logger,
	}

	acquisitionHandler := handlers.NewAcquisitionHandler(hybridService, logger)

	// Register routes.
	routes.RegisterRoutes(router, acquisitionHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
