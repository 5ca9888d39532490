package repository

import (
	"errors"
	"log/slog"

	"climascope.app/models"
	"gorm.io/gorm"
)

// FavoriteRepository handles data access operations for favorite cities
type FavoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new repository for favorite city data
func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// ListByUser retrieves all favorite cities for a user, newest first
func (r *FavoriteRepository) ListByUser(userID uint) ([]models.FavoriteCity, error) {
	var favorites []models.FavoriteCity
	result := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&favorites)
	if result.Error != nil {
		slog.Error("Database error when listing favorites", "error", result.Error, "user_id", userID)
		return nil, result.Error
	}

	return favorites, nil
}

// Find retrieves a favorite by user and city name
func (r *FavoriteRepository) Find(userID uint, cityName string) (*models.FavoriteCity, error) {
	var favorite models.FavoriteCity
	result := r.db.Where("user_id = ? AND city_name = ?", userID, cityName).First(&favorite)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("Database error when finding favorite", "error", result.Error,
			"user_id", userID, "city", cityName)
		return nil, result.Error
	}

	return &favorite, nil
}

// Create persists a new favorite city. The (user, city) uniqueness is
// enforced by the database constraint.
func (r *FavoriteRepository) Create(favorite *models.FavoriteCity) error {
	result := r.db.Create(favorite)
	if result.Error != nil {
		slog.Error("Database error when creating favorite", "error", result.Error,
			"user_id", favorite.UserID, "city", favorite.CityName)
		return result.Error
	}

	slog.Debug("Created favorite", "id", favorite.ID, "city", favorite.CityName)
	return nil
}

// Save persists changes to an existing favorite
func (r *FavoriteRepository) Save(favorite *models.FavoriteCity) error {
	result := r.db.Save(favorite)
	if result.Error != nil {
		slog.Error("Database error when saving favorite", "error", result.Error, "id", favorite.ID)
		return result.Error
	}
	return nil
}

// Delete removes a favorite city
func (r *FavoriteRepository) Delete(favorite *models.FavoriteCity) error {
	result := r.db.Delete(favorite)
	if result.Error != nil {
		slog.Error("Database error when deleting favorite", "error", result.Error, "id", favorite.ID)
		return result.Error
	}
	return nil
}
