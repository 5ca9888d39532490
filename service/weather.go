package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"climascope.app/errors"
	"climascope.app/models"
	"climascope.app/providers"
	"climascope.app/providers/cache"
	"climascope.app/repository"
)

// forecastFreshness is how long a stored forecast payload is served before a
// refresh from the provider.
const forecastFreshness = time.Hour

// WeatherService is the weather data gateway: cache in front of the provider,
// with lookup history and forecast storage behind it.
type WeatherService struct {
	provider     providers.WeatherProvider
	images       providers.ImageProvider
	cache        cache.Cache
	historyRepo  *repository.HistoryRepository
	forecastRepo *repository.ForecastRepository
	cacheTTL     time.Duration
}

// NewWeatherService creates a weather gateway
func NewWeatherService(
	provider providers.WeatherProvider,
	images providers.ImageProvider,
	weatherCache cache.Cache,
	historyRepo *repository.HistoryRepository,
	forecastRepo *repository.ForecastRepository,
	cacheTTL time.Duration,
) *WeatherService {
	return &WeatherService{
		provider:     provider,
		images:       images,
		cache:        weatherCache,
		historyRepo:  historyRepo,
		forecastRepo: forecastRepo,
		cacheTTL:     cacheTTL,
	}
}

// Current returns current conditions for a city, served from cache when fresh.
func (s *WeatherService) Current(city string) (*models.WeatherSnapshot, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, errors.NewValidationError("city name cannot be empty")
	}

	key := cacheKey(city)
	if snapshot, ok := s.cache.Get(key); ok {
		return snapshot, nil
	}

	snapshot, err := s.provider.CurrentByCity(city)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, snapshot, s.cacheTTL)
	return snapshot, nil
}

// CurrentByCoords returns current conditions for a coordinate pair. Coordinate
// lookups bypass the cache; the resolved city name seeds it instead.
func (s *WeatherService) CurrentByCoords(lat, lon float64) (*models.WeatherSnapshot, error) {
	snapshot, err := s.provider.CurrentByCoords(lat, lon)
	if err != nil {
		return nil, err
	}

	if snapshot.City != "" {
		s.cache.Set(cacheKey(snapshot.City), snapshot, s.cacheTTL)
	}
	return snapshot, nil
}

// Lookup returns current conditions for a city and records the lookup in the
// user's history. History failures do not fail the lookup.
func (s *WeatherService) Lookup(userID uint, city string) (*models.WeatherSnapshot, error) {
	snapshot, err := s.Current(city)
	if err != nil {
		return nil, err
	}

	s.recordHistory(userID, snapshot)
	return snapshot, nil
}

// LookupByCoords is the coordinate variant of Lookup.
func (s *WeatherService) LookupByCoords(userID uint, lat, lon float64) (*models.WeatherSnapshot, error) {
	snapshot, err := s.CurrentByCoords(lat, lon)
	if err != nil {
		return nil, err
	}

	s.recordHistory(userID, snapshot)
	return snapshot, nil
}

func (s *WeatherService) recordHistory(userID uint, snapshot *models.WeatherSnapshot) {
	humidity := snapshot.Humidity
	pressure := snapshot.Pressure
	windSpeed := snapshot.WindSpeed
	feelsLike := snapshot.FeelsLike

	history := &models.WeatherHistory{
		UserID:      userID,
		CityName:    snapshot.City,
		Country:     snapshot.Country,
		Temperature: snapshot.Temperature,
		Description: snapshot.Description,
		Icon:        snapshot.Icon,
		Humidity:    &humidity,
		Pressure:    &pressure,
		WindSpeed:   &windSpeed,
		FeelsLike:   &feelsLike,
	}
	if err := s.historyRepo.Create(history); err != nil {
		slog.Warn("Failed to record weather lookup", "error", err, "user_id", userID, "city", snapshot.City)
	}
}

// Forecast returns the reduced 5-day forecast for a city, refreshed from the
// provider when the stored payload is stale or missing.
func (s *WeatherService) Forecast(city string) ([]models.ForecastDay, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, errors.NewValidationError("city name cannot be empty")
	}

	stored, err := s.forecastRepo.FindByCity(city)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load stored forecast", err)
	}
	if stored != nil && time.Since(stored.UpdatedAt) < forecastFreshness {
		days, err := stored.Days()
		if err == nil {
			return days, nil
		}
		slog.Warn("Stored forecast payload unreadable, refreshing", "error", err, "city", city)
	}

	days, err := s.provider.Forecast(city)
	if err != nil {
		// Serve a stale payload rather than nothing when the provider is down.
		if stored != nil {
			if staleDays, staleErr := stored.Days(); staleErr == nil {
				slog.Warn("Forecast provider failed, serving stale payload", "error", err, "city", city)
				return staleDays, nil
			}
		}
		return nil, err
	}

	forecast := &models.WeatherForecast{CityName: city}
	if err := forecast.SetDays(days); err != nil {
		slog.Warn("Failed to serialize forecast payload", "error", err, "city", city)
		return days, nil
	}
	if err := s.forecastRepo.Upsert(forecast); err != nil {
		slog.Warn("Failed to store forecast payload", "error", err, "city", city)
	}

	return days, nil
}

// CityImage returns a representative image URL for a city.
func (s *WeatherService) CityImage(city string) string {
	return s.images.CityImage(city)
}

// History returns the newest lookup records for a user.
func (s *WeatherService) History(userID uint, limit int) ([]models.WeatherHistory, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	records, err := s.historyRepo.RecentByUser(userID, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load weather history", err)
	}
	return records, nil
}

func cacheKey(city string) string {
	return fmt.Sprintf("weather:city:%s", strings.ToLower(strings.TrimSpace(city)))
}
