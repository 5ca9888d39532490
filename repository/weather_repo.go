package repository

import (
	"errors"
	"log/slog"
	"time"

	"climascope.app/models"
	"gorm.io/gorm"
)

// HistoryRepository handles the append-only weather lookup log
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new repository for weather history
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create appends a weather lookup record
func (r *HistoryRepository) Create(history *models.WeatherHistory) error {
	result := r.db.Create(history)
	if result.Error != nil {
		slog.Error("Database error when recording history", "error", result.Error)
		return result.Error
	}
	return nil
}

// RecentByUser retrieves the newest lookups for a user
func (r *HistoryRepository) RecentByUser(userID uint, limit int) ([]models.WeatherHistory, error) {
	var history []models.WeatherHistory
	result := r.db.Where("user_id = ?", userID).Order("searched_at DESC").Limit(limit).Find(&history)
	if result.Error != nil {
		slog.Error("Database error when listing history", "error", result.Error, "user_id", userID)
		return nil, result.Error
	}
	return history, nil
}

// CountOlderThan counts lookup records older than the cutoff
func (r *HistoryRepository) CountOlderThan(cutoff time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.WeatherHistory{}).Where("searched_at < ?", cutoff).Count(&count)
	return count, result.Error
}

// DeleteOlderThan prunes lookup records older than the cutoff
func (r *HistoryRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("searched_at < ?", cutoff).Delete(&models.WeatherHistory{})
	if result.Error != nil {
		slog.Error("Database error when pruning history", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ForecastRepository handles cached forecast payloads
type ForecastRepository struct {
	db *gorm.DB
}

// NewForecastRepository creates a new repository for forecast data
func NewForecastRepository(db *gorm.DB) *ForecastRepository {
	return &ForecastRepository{db: db}
}

// FindByCity retrieves the cached forecast for a city
func (r *ForecastRepository) FindByCity(cityName string) (*models.WeatherForecast, error) {
	var forecast models.WeatherForecast
	result := r.db.Where("city_name = ?", cityName).First(&forecast)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("Database error when finding forecast", "error", result.Error, "city", cityName)
		return nil, result.Error
	}

	return &forecast, nil
}

// Upsert stores or refreshes the forecast payload for a city
func (r *ForecastRepository) Upsert(forecast *models.WeatherForecast) error {
	existing, err := r.FindByCity(forecast.CityName)
	if err != nil {
		return err
	}

	if existing != nil {
		existing.Data = forecast.Data
		result := r.db.Save(existing)
		if result.Error != nil {
			slog.Error("Database error when refreshing forecast", "error", result.Error, "city", forecast.CityName)
			return result.Error
		}
		forecast.ID = existing.ID
		return nil
	}

	result := r.db.Create(forecast)
	if result.Error != nil {
		slog.Error("Database error when storing forecast", "error", result.Error, "city", forecast.CityName)
		return result.Error
	}
	return nil
}

// CountStalerThan counts forecast payloads not refreshed since the cutoff
func (r *ForecastRepository) CountStalerThan(cutoff time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.WeatherForecast{}).Where("updated_at < ?", cutoff).Count(&count)
	return count, result.Error
}

// DeleteStalerThan prunes forecast payloads not refreshed since the cutoff
func (r *ForecastRepository) DeleteStalerThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("updated_at < ?", cutoff).Delete(&models.WeatherForecast{})
	if result.Error != nil {
		slog.Error("Database error when pruning forecasts", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
