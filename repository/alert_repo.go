package repository

import (
	"log/slog"
	"time"

	"climascope.app/models"
	"gorm.io/gorm"
)

// AlertRepository handles data access operations for weather alerts
type AlertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new repository for weather alerts
func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create persists a new alert in the unsent state
func (r *AlertRepository) Create(alert *models.WeatherAlert) error {
	result := r.db.Create(alert)
	if result.Error != nil {
		slog.Error("Database error when creating alert", "error", result.Error,
			"user_id", alert.UserID, "type", alert.AlertType)
		return result.Error
	}

	slog.Debug("Created alert", "id", alert.ID, "type", alert.AlertType, "city", alert.CityName)
	return nil
}

// MarkSent transitions an alert to the sent state
func (r *AlertRepository) MarkSent(alert *models.WeatherAlert) error {
	now := time.Now()
	alert.IsSent = true
	alert.SentAt = &now

	result := r.db.Save(alert)
	if result.Error != nil {
		slog.Error("Database error when marking alert sent", "error", result.Error, "id", alert.ID)
		return result.Error
	}
	return nil
}

// RecentByUser retrieves the newest alerts for a user
func (r *AlertRepository) RecentByUser(userID uint, limit int) ([]models.WeatherAlert, error) {
	var alerts []models.WeatherAlert
	result := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&alerts)
	if result.Error != nil {
		slog.Error("Database error when listing alerts", "error", result.Error, "user_id", userID)
		return nil, result.Error
	}
	return alerts, nil
}

// CountSentOlderThan counts sent alerts created before the cutoff
func (r *AlertRepository) CountSentOlderThan(cutoff time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.WeatherAlert{}).
		Where("created_at < ? AND is_sent = ?", cutoff, true).Count(&count)
	return count, result.Error
}

// DeleteSentOlderThan prunes sent alerts created before the cutoff.
// Unsent alerts are kept regardless of age.
func (r *AlertRepository) DeleteSentOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ? AND is_sent = ?", cutoff, true).Delete(&models.WeatherAlert{})
	if result.Error != nil {
		slog.Error("Database error when pruning alerts", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// NotificationRepository handles the email delivery audit log
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new repository for email notifications
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create appends a delivery audit record
func (r *NotificationRepository) Create(notification *models.EmailNotification) error {
	result := r.db.Create(notification)
	if result.Error != nil {
		slog.Error("Database error when recording notification", "error", result.Error,
			"user_id", notification.UserID, "type", notification.EmailType)
		return result.Error
	}
	return nil
}

// RecentByUser retrieves the newest notifications for a user
func (r *NotificationRepository) RecentByUser(userID uint, limit int) ([]models.EmailNotification, error) {
	var notifications []models.EmailNotification
	result := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&notifications)
	if result.Error != nil {
		slog.Error("Database error when listing notifications", "error", result.Error, "user_id", userID)
		return nil, result.Error
	}
	return notifications, nil
}

// CountSentOlderThan counts sent notifications created before the cutoff
func (r *NotificationRepository) CountSentOlderThan(cutoff time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.EmailNotification{}).
		Where("created_at < ? AND is_sent = ?", cutoff, true).Count(&count)
	return count, result.Error
}

// DeleteSentOlderThan prunes sent notifications created before the cutoff
func (r *NotificationRepository) DeleteSentOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ? AND is_sent = ?", cutoff, true).Delete(&models.EmailNotification{})
	if result.Error != nil {
		slog.Error("Database error when pruning notifications", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
