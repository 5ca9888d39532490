package service

import (
	"log/slog"
	"time"

	"climascope.app/errors"
	"climascope.app/metrics"
	"climascope.app/models"
	"climascope.app/repository"
)

// summaryCityLimit caps how many favorite cities appear in a daily digest.
const summaryCityLimit = 5

// SummaryResult summarizes one daily digest run.
type SummaryResult struct {
	UsersProcessed  int `json:"users_processed"`
	UsersFailed     int `json:"users_failed"`
	SummariesSent   int `json:"summaries_sent"`
	UsersSkipped    int `json:"users_skipped"`
	CitiesUnreached int `json:"cities_unreached"`
}

// SummaryService assembles and sends the daily weather digest.
type SummaryService struct {
	userRepo     *repository.UserRepository
	profileRepo  *repository.ProfileRepository
	favoriteRepo *repository.FavoriteRepository
	alertRepo    *repository.AlertRepository
	weather      *WeatherService
	email        *EmailService
}

// NewSummaryService creates a daily summary service
func NewSummaryService(
	userRepo *repository.UserRepository,
	profileRepo *repository.ProfileRepository,
	favoriteRepo *repository.FavoriteRepository,
	alertRepo *repository.AlertRepository,
	weather *WeatherService,
	email *EmailService,
) *SummaryService {
	return &SummaryService{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		favoriteRepo: favoriteRepo,
		alertRepo:    alertRepo,
		weather:      weather,
		email:        email,
	}
}

// RunDaily sends the digest to every user with the daily summary enabled. One
// user's failure does not stop the run.
func (s *SummaryService) RunDaily(dryRun bool) (*SummaryResult, error) {
	defer metrics.TimeJob("daily_summary")()

	users, err := s.userRepo.EligibleForSummaries()
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list eligible users", err)
	}

	result := &SummaryResult{}
	for i := range users {
		userResult, err := s.processUser(&users[i], dryRun)
		if err != nil {
			slog.Error("Daily summary failed for user", "error", err, "user_id", users[i].ID)
			result.UsersFailed++
			continue
		}
		result.UsersProcessed++
		result.SummariesSent += userResult.SummariesSent
		result.UsersSkipped += userResult.UsersSkipped
		result.CitiesUnreached += userResult.CitiesUnreached
	}

	slog.Info("Daily summary finished", "users", result.UsersProcessed, "failed", result.UsersFailed,
		"sent", result.SummariesSent, "skipped", result.UsersSkipped, "dry_run", dryRun)
	return result, nil
}

// RunForUser sends the digest to a single user. Used by the operational CLI.
func (s *SummaryService) RunForUser(userID uint, dryRun bool) (*SummaryResult, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load user", err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("user not found")
	}

	return s.processUser(user, dryRun)
}

func (s *SummaryService) processUser(user *models.User, dryRun bool) (*SummaryResult, error) {
	profile, err := s.profileRepo.GetOrCreate(user.ID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load profile", err)
	}

	result := &SummaryResult{UsersProcessed: 1}
	if !s.email.CanSend(profile) || !profile.DailySummary {
		result.UsersSkipped++
		return result, nil
	}

	favorites, err := s.favoriteRepo.ListByUser(user.ID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list favorites", err)
	}
	if len(favorites) == 0 {
		result.UsersSkipped++
		return result, nil
	}
	if len(favorites) > summaryCityLimit {
		favorites = favorites[:summaryCityLimit]
	}

	var cities []models.CitySummary
	for i := range favorites {
		snapshot, err := s.weather.Current(favorites[i].CityName)
		if err != nil {
			slog.Warn("Skipping city in summary, weather unavailable", "error", err,
				"user_id", user.ID, "city", favorites[i].CityName)
			result.CitiesUnreached++
			continue
		}
		cities = append(cities, models.CitySummary{
			City:        snapshot.City,
			Country:     snapshot.Country,
			Temperature: snapshot.Temperature,
			Description: snapshot.Description,
			Icon:        snapshot.Icon,
			Humidity:    snapshot.Humidity,
			FeelsLike:   snapshot.FeelsLike,
		})
	}

	// A digest goes out as long as at least one city resolved.
	if len(cities) == 0 {
		result.UsersSkipped++
		return result, nil
	}

	if dryRun {
		slog.Info("Dry run: summary would be sent", "user_id", user.ID, "cities", len(cities))
		result.SummariesSent++
		return result, nil
	}

	if err := s.email.SendDailySummary(user, profile, cities); err != nil {
		return nil, err
	}
	s.recordSummaryAlert(user, cities)
	result.SummariesSent++

	return result, nil
}

// recordSummaryAlert keeps a daily_summary row in the alert log so digests
// show up in the user's alert history.
func (s *SummaryService) recordSummaryAlert(user *models.User, cities []models.CitySummary) {
	now := time.Now()
	alert := &models.WeatherAlert{
		UserID:    user.ID,
		CityName:  cities[0].City,
		AlertType: models.AlertDailySummary,
		Message:   "Daily weather summary sent",
		IsSent:    true,
		SentAt:    &now,
	}
	if err := s.alertRepo.Create(alert); err != nil {
		slog.Warn("Failed to record summary in alert log", "error", err, "user_id", user.ID)
	}
}
