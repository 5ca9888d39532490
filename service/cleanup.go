package service

import (
	"log/slog"
	"time"

	"climascope.app/config"
	"climascope.app/errors"
	"climascope.app/metrics"
	"climascope.app/repository"
)

// CleanupOptions overrides the configured retention windows for one run.
// Zero values fall back to the configured defaults.
type CleanupOptions struct {
	HistoryDays       int
	AlertsDays        int
	NotificationsDays int
	ForecastHours     int
	DryRun            bool
}

// CleanupReport lists how many rows each retention rule removed, or would
// remove in dry-run mode.
type CleanupReport struct {
	DryRun        bool  `json:"dry_run"`
	History       int64 `json:"history"`
	Alerts        int64 `json:"alerts"`
	Notifications int64 `json:"notifications"`
	Forecasts     int64 `json:"forecasts"`
}

// Total returns the combined number of affected rows.
func (r *CleanupReport) Total() int64 {
	return r.History + r.Alerts + r.Notifications + r.Forecasts
}

// CleanupService prunes aged records per the retention policy. Unsent alerts
// are never removed.
type CleanupService struct {
	historyRepo      *repository.HistoryRepository
	alertRepo        *repository.AlertRepository
	notificationRepo *repository.NotificationRepository
	forecastRepo     *repository.ForecastRepository
	retention        config.RetentionConfig
}

// NewCleanupService creates a retention cleanup service
func NewCleanupService(
	historyRepo *repository.HistoryRepository,
	alertRepo *repository.AlertRepository,
	notificationRepo *repository.NotificationRepository,
	forecastRepo *repository.ForecastRepository,
	retention config.RetentionConfig,
) *CleanupService {
	return &CleanupService{
		historyRepo:      historyRepo,
		alertRepo:        alertRepo,
		notificationRepo: notificationRepo,
		forecastRepo:     forecastRepo,
		retention:        retention,
	}
}

// Run applies all retention rules. In dry-run mode rows are counted but not
// deleted. Each rule failing is reported without stopping the others.
func (s *CleanupService) Run(opts CleanupOptions) (*CleanupReport, error) {
	defer metrics.TimeJob("cleanup")()

	historyDays := orDefault(opts.HistoryDays, s.retention.HistoryDays)
	alertsDays := orDefault(opts.AlertsDays, s.retention.AlertsDays)
	notificationsDays := orDefault(opts.NotificationsDays, s.retention.NotificationsDays)
	forecastHours := orDefault(opts.ForecastHours, s.retention.ForecastHours)

	now := time.Now()
	report := &CleanupReport{DryRun: opts.DryRun}
	var firstErr error

	record := func(name string, err error) {
		if err != nil {
			slog.Error("Cleanup rule failed", "rule", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	var n int64
	var err error

	if opts.DryRun {
		n, err = s.historyRepo.CountOlderThan(now.AddDate(0, 0, -historyDays))
	} else {
		n, err = s.historyRepo.DeleteOlderThan(now.AddDate(0, 0, -historyDays))
	}
	report.History = n
	record("history", err)

	if opts.DryRun {
		n, err = s.alertRepo.CountSentOlderThan(now.AddDate(0, 0, -alertsDays))
	} else {
		n, err = s.alertRepo.DeleteSentOlderThan(now.AddDate(0, 0, -alertsDays))
	}
	report.Alerts = n
	record("alerts", err)

	if opts.DryRun {
		n, err = s.notificationRepo.CountSentOlderThan(now.AddDate(0, 0, -notificationsDays))
	} else {
		n, err = s.notificationRepo.DeleteSentOlderThan(now.AddDate(0, 0, -notificationsDays))
	}
	report.Notifications = n
	record("notifications", err)

	forecastCutoff := now.Add(-time.Duration(forecastHours) * time.Hour)
	if opts.DryRun {
		n, err = s.forecastRepo.CountStalerThan(forecastCutoff)
	} else {
		n, err = s.forecastRepo.DeleteStalerThan(forecastCutoff)
	}
	report.Forecasts = n
	record("forecasts", err)

	slog.Info("Cleanup finished", "dry_run", opts.DryRun, "history", report.History,
		"alerts", report.Alerts, "notifications", report.Notifications, "forecasts", report.Forecasts)

	if firstErr != nil {
		return report, errors.NewDatabaseError("cleanup completed with failures", firstErr)
	}
	return report, nil
}

func orDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
