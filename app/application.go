// Package app wires the application together
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"climascope.app/api"
	"climascope.app/config"
	"climascope.app/database"
	"climascope.app/providers"
	"climascope.app/providers/cache"
	"climascope.app/repository"
	"climascope.app/scheduler"
	"climascope.app/service"
	"gorm.io/gorm"
)

// Application holds the assembled service graph.
type Application struct {
	Config *config.Config
	DB     *gorm.DB

	Weather   *service.WeatherService
	Email     *service.EmailService
	Accounts  *service.AccountService
	Favorites *service.FavoriteService
	Alerts    *service.AlertService
	Summaries *service.SummaryService
	Cleanup   *service.CleanupService
	Health    *service.HealthService

	Scheduler *scheduler.Scheduler
	server    *api.Server
	cache     cache.Cache
}

// New builds the application from configuration: database, cache, providers,
// repositories, services, scheduler and HTTP server.
func New(cfg *config.Config) (*Application, error) {
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		return nil, err
	}

	weatherCache, err := cache.New(&cfg.Cache)
	if err != nil {
		return nil, err
	}

	weatherProvider := providers.NewOpenWeatherMapProvider(&cfg.Weather)
	imageProvider := providers.NewGoogleImageProvider(&cfg.ImageSearch)
	emailProvider := providers.NewSMTPEmailProvider(&cfg.Email)

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	forecastRepo := repository.NewForecastRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	cacheTTL := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
	weatherService := service.NewWeatherService(
		weatherProvider, imageProvider, weatherCache, historyRepo, forecastRepo, cacheTTL)
	emailService := service.NewEmailService(emailProvider, notificationRepo, cfg.AppBaseURL)
	accountService := service.NewAccountService(db, userRepo, profileRepo, emailService)
	favoriteService := service.NewFavoriteService(favoriteRepo, weatherService)
	alertService := service.NewAlertService(
		userRepo, profileRepo, favoriteRepo, alertRepo, weatherService, emailService)
	summaryService := service.NewSummaryService(
		userRepo, profileRepo, favoriteRepo, alertRepo, weatherService, emailService)
	cleanupService := service.NewCleanupService(
		historyRepo, alertRepo, notificationRepo, forecastRepo, cfg.Retention)
	healthService := service.NewHealthService(
		db, weatherProvider, imageProvider, cfg.Email, cfg.Scheduler.TestCity)

	sched, err := scheduler.New(cfg.Scheduler, alertService, summaryService, cleanupService, healthService)
	if err != nil {
		return nil, err
	}

	server := api.NewServer(
		weatherService, accountService, favoriteService, alertService, emailService, healthService, sched)

	return &Application{
		Config:    cfg,
		DB:        db,
		Weather:   weatherService,
		Email:     emailService,
		Accounts:  accountService,
		Favorites: favoriteService,
		Alerts:    alertService,
		Summaries: summaryService,
		Cleanup:   cleanupService,
		Health:    healthService,
		Scheduler: sched,
		server:    server,
		cache:     weatherCache,
	}, nil
}

// Run starts the scheduler and serves HTTP until the context is cancelled,
// then shuts both down.
func (a *Application) Run(ctx context.Context) error {
	a.Scheduler.Start()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: a.server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.shutdown(httpServer)
		return err
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
		a.shutdown(httpServer)
		return nil
	}
}

func (a *Application) shutdown(httpServer *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	a.Scheduler.Stop()
	a.Close()
}

// Close releases held resources.
func (a *Application) Close() {
	if closer, ok := a.cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("Cache close failed", "error", err)
		}
	}
	if stopper, ok := a.cache.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if err := database.CloseDB(a.DB); err != nil {
		slog.Warn("Database close failed", "error", err)
	}
}
