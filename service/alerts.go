package service

import (
	"log/slog"

	"climascope.app/errors"
	"climascope.app/metrics"
	"climascope.app/models"
	"climascope.app/repository"
)

// SweepResult summarizes one alert sweep.
type SweepResult struct {
	UsersProcessed int `json:"users_processed"`
	UsersFailed    int `json:"users_failed"`
	AlertsCreated  int `json:"alerts_created"`
	AlertsSent     int `json:"alerts_sent"`
}

// AlertService evaluates favorite cities against current conditions and
// dispatches alert emails. Alerts repeat on every sweep while the condition
// holds; there is no suppression window.
type AlertService struct {
	userRepo     *repository.UserRepository
	profileRepo  *repository.ProfileRepository
	favoriteRepo *repository.FavoriteRepository
	alertRepo    *repository.AlertRepository
	weather      *WeatherService
	email        *EmailService
}

// NewAlertService creates an alert dispatch service
func NewAlertService(
	userRepo *repository.UserRepository,
	profileRepo *repository.ProfileRepository,
	favoriteRepo *repository.FavoriteRepository,
	alertRepo *repository.AlertRepository,
	weather *WeatherService,
	email *EmailService,
) *AlertService {
	return &AlertService{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		favoriteRepo: favoriteRepo,
		alertRepo:    alertRepo,
		weather:      weather,
		email:        email,
	}
}

// RunSweep evaluates alerts for every eligible user. One user's failure does
// not stop the sweep. In dry-run mode conditions are evaluated and counted but
// nothing is persisted or sent.
func (s *AlertService) RunSweep(dryRun bool) (*SweepResult, error) {
	defer metrics.TimeJob("alert_sweep")()

	users, err := s.userRepo.EligibleForAlerts()
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list eligible users", err)
	}

	result := &SweepResult{}
	for i := range users {
		userResult, err := s.processUser(&users[i], dryRun)
		if err != nil {
			slog.Error("Alert sweep failed for user", "error", err, "user_id", users[i].ID)
			result.UsersFailed++
			continue
		}
		result.UsersProcessed++
		result.AlertsCreated += userResult.AlertsCreated
		result.AlertsSent += userResult.AlertsSent
	}

	slog.Info("Alert sweep finished", "users", result.UsersProcessed, "failed", result.UsersFailed,
		"created", result.AlertsCreated, "sent", result.AlertsSent, "dry_run", dryRun)
	return result, nil
}

// RunForUser evaluates and dispatches alerts for a single user, re-checking
// eligibility first. Used by the operational CLI.
func (s *AlertService) RunForUser(userID uint, dryRun bool) (*SweepResult, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load user", err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("user not found")
	}

	return s.processUser(user, dryRun)
}

func (s *AlertService) processUser(user *models.User, dryRun bool) (*SweepResult, error) {
	profile, err := s.profileRepo.GetOrCreate(user.ID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load profile", err)
	}

	result := &SweepResult{UsersProcessed: 1}

	// Re-check eligibility: toggles may have changed since the user list was
	// built, and RunForUser bypasses the list entirely.
	if !s.email.CanSend(profile) || !profile.WeatherAlerts {
		slog.Debug("User not eligible for alerts", "user_id", user.ID)
		return result, nil
	}

	favorites, err := s.favoriteRepo.ListByUser(user.ID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list favorites", err)
	}

	for i := range favorites {
		favorite := &favorites[i]
		snapshot, err := s.weather.Current(favorite.CityName)
		if err != nil {
			// An unavailable city must produce zero side effects for it.
			slog.Warn("Skipping favorite, weather unavailable", "error", err,
				"user_id", user.ID, "city", favorite.CityName)
			continue
		}

		intents := EvaluateAlerts(favorite, snapshot)
		for _, intent := range intents {
			if intent.Type == models.AlertSevere && !profile.SevereWeatherAlerts {
				continue
			}

			if dryRun {
				slog.Info("Dry run: alert would fire", "user_id", user.ID,
					"city", favorite.CityName, "type", intent.Type, "message", intent.Message)
				result.AlertsCreated++
				continue
			}

			alert, err := s.dispatch(user, profile, favorite, intent)
			if err != nil {
				slog.Error("Failed to dispatch alert", "error", err, "user_id", user.ID,
					"city", favorite.CityName, "type", intent.Type)
				continue
			}
			result.AlertsCreated++
			if alert.IsSent {
				result.AlertsSent++
			}
		}
	}

	return result, nil
}

// dispatch persists the alert and attempts delivery. The alert row is created
// unsent first so a delivery failure still leaves a record.
func (s *AlertService) dispatch(user *models.User, profile *models.UserProfile, favorite *models.FavoriteCity, intent models.AlertIntent) (*models.WeatherAlert, error) {
	alert := &models.WeatherAlert{
		UserID:           user.ID,
		CityName:         favorite.CityName,
		AlertType:        intent.Type,
		Message:          intent.Message,
		Temperature:      intent.Temperature,
		WeatherCondition: intent.Condition,
	}
	if err := s.alertRepo.Create(alert); err != nil {
		return nil, errors.NewDatabaseError("failed to create alert", err)
	}
	metrics.RecordAlertCreated(string(intent.Type))

	sent, err := s.email.SendWeatherAlert(user, profile, alert)
	if err != nil {
		slog.Warn("Alert created but email delivery failed", "error", err, "alert_id", alert.ID)
		return alert, nil
	}
	if !sent {
		// Gate closed between eligibility check and delivery: the alert row
		// stays unsent rather than being marked for an email that never left.
		slog.Debug("Alert created but delivery skipped", "alert_id", alert.ID)
		return alert, nil
	}

	if err := s.alertRepo.MarkSent(alert); err != nil {
		slog.Warn("Alert sent but could not be marked", "error", err, "alert_id", alert.ID)
		return alert, nil
	}
	metrics.RecordAlertSent(string(intent.Type))

	return alert, nil
}

// RecentAlerts returns the newest alerts for a user.
func (s *AlertService) RecentAlerts(userID uint, limit int) ([]models.WeatherAlert, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	alerts, err := s.alertRepo.RecentByUser(userID, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load alerts", err)
	}
	return alerts, nil
}
