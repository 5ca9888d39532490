package service

import (
	"log/slog"
	"strings"

	"climascope.app/errors"
	"climascope.app/models"
	"climascope.app/repository"
)

// Default alert thresholds applied when a city is bookmarked.
const (
	DefaultThresholdHigh = 35.0
	DefaultThresholdLow  = 5.0
)

// FavoriteService manages bookmarked cities and their alert preferences.
type FavoriteService struct {
	favoriteRepo *repository.FavoriteRepository
	weather      *WeatherService
}

// NewFavoriteService creates a favorite city service
func NewFavoriteService(favoriteRepo *repository.FavoriteRepository, weather *WeatherService) *FavoriteService {
	return &FavoriteService{
		favoriteRepo: favoriteRepo,
		weather:      weather,
	}
}

// List returns a user's favorite cities, newest first.
func (s *FavoriteService) List(userID uint) ([]models.FavoriteCity, error) {
	favorites, err := s.favoriteRepo.ListByUser(userID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list favorites", err)
	}
	return favorites, nil
}

// Add bookmarks a city with default thresholds. The country is resolved from
// the weather provider when not supplied; a provider failure does not block
// the bookmark.
func (s *FavoriteService) Add(userID uint, req *models.FavoriteRequest) (*models.FavoriteCity, error) {
	cityName := strings.TrimSpace(req.CityName)
	if cityName == "" {
		return nil, errors.NewValidationError("city name cannot be empty")
	}

	existing, err := s.favoriteRepo.Find(userID, cityName)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to check favorite", err)
	}
	if existing != nil {
		return nil, errors.NewAlreadyExistsError("city is already in favorites")
	}

	high := DefaultThresholdHigh
	low := DefaultThresholdLow
	favorite := &models.FavoriteCity{
		UserID:                   userID,
		CityName:                 cityName,
		Country:                  strings.TrimSpace(req.Country),
		Lat:                      req.Lat,
		Lon:                      req.Lon,
		TemperatureThresholdHigh: &high,
		TemperatureThresholdLow:  &low,
		NotifyRain:               true,
		NotifyExtremeWeather:     true,
	}

	if favorite.Country == "" {
		if snapshot, err := s.weather.Current(cityName); err == nil {
			favorite.Country = snapshot.Country
		} else {
			slog.Debug("Could not resolve country for favorite", "error", err, "city", cityName)
		}
	}

	if err := s.favoriteRepo.Create(favorite); err != nil {
		return nil, errors.NewDatabaseError("failed to create favorite", err)
	}

	return favorite, nil
}

// UpdateThresholds changes per-city alert preferences. Nil fields are left
// unchanged. The resulting high threshold must stay above the low one.
func (s *FavoriteService) UpdateThresholds(userID uint, cityName string, req *models.ThresholdRequest) (*models.FavoriteCity, error) {
	favorite, err := s.favoriteRepo.Find(userID, strings.TrimSpace(cityName))
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load favorite", err)
	}
	if favorite == nil {
		return nil, errors.NewNotFoundError("favorite city not found")
	}

	high := favorite.TemperatureThresholdHigh
	low := favorite.TemperatureThresholdLow
	if req.TemperatureThresholdHigh != nil {
		high = req.TemperatureThresholdHigh
	}
	if req.TemperatureThresholdLow != nil {
		low = req.TemperatureThresholdLow
	}
	if high != nil && low != nil && *high <= *low {
		return nil, errors.NewValidationError("high temperature threshold must be greater than the low threshold")
	}

	favorite.TemperatureThresholdHigh = high
	favorite.TemperatureThresholdLow = low
	if req.NotifyRain != nil {
		favorite.NotifyRain = *req.NotifyRain
	}
	if req.NotifyExtremeWeather != nil {
		favorite.NotifyExtremeWeather = *req.NotifyExtremeWeather
	}

	if err := s.favoriteRepo.Save(favorite); err != nil {
		return nil, errors.NewDatabaseError("failed to save favorite", err)
	}

	return favorite, nil
}

// Remove deletes a bookmarked city.
func (s *FavoriteService) Remove(userID uint, cityName string) error {
	favorite, err := s.favoriteRepo.Find(userID, strings.TrimSpace(cityName))
	if err != nil {
		return errors.NewDatabaseError("failed to load favorite", err)
	}
	if favorite == nil {
		return errors.NewNotFoundError("favorite city not found")
	}

	if err := s.favoriteRepo.Delete(favorite); err != nil {
		return errors.NewDatabaseError("failed to delete favorite", err)
	}

	return nil
}
