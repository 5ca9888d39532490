package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"climascope.app/config"
	"climascope.app/errors"
	"climascope.app/models"
	"climascope.app/providers/cache"
	"climascope.app/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared in-memory database keeps every pooled connection on the
	// same data while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.FavoriteCity{},
		&models.WeatherHistory{},
		&models.WeatherForecast{},
		&models.WeatherAlert{},
		&models.EmailNotification{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// fakeWeatherProvider serves canned snapshots per city and fails for unknown
// cities.
type fakeWeatherProvider struct {
	snapshots map[string]*models.WeatherSnapshot
	forecasts map[string][]models.ForecastDay
	calls     int
}

func newFakeWeatherProvider() *fakeWeatherProvider {
	return &fakeWeatherProvider{
		snapshots: make(map[string]*models.WeatherSnapshot),
		forecasts: make(map[string][]models.ForecastDay),
	}
}

func (f *fakeWeatherProvider) setCity(city string, temperature float64, description string) {
	f.snapshots[city] = &models.WeatherSnapshot{
		City:        city,
		Country:     "GB",
		Temperature: temperature,
		Description: description,
		Icon:        "01d",
		Humidity:    60,
		Pressure:    1012,
		WindSpeed:   3.5,
		FeelsLike:   temperature - 1,
	}
}

func (f *fakeWeatherProvider) CurrentByCity(city string) (*models.WeatherSnapshot, error) {
	f.calls++
	snapshot, ok := f.snapshots[city]
	if !ok {
		return nil, errors.NewNotFoundError("city not found")
	}
	copied := *snapshot
	return &copied, nil
}

func (f *fakeWeatherProvider) CurrentByCoords(lat, lon float64) (*models.WeatherSnapshot, error) {
	for _, snapshot := range f.snapshots {
		copied := *snapshot
		return &copied, nil
	}
	return nil, errors.NewNotFoundError("no city for coordinates")
}

func (f *fakeWeatherProvider) Forecast(city string) ([]models.ForecastDay, error) {
	days, ok := f.forecasts[city]
	if !ok {
		return nil, errors.NewNotFoundError("city not found")
	}
	return days, nil
}

// fakeEmailProvider records outbound emails and can be told to fail.
type fakeEmailProvider struct {
	sent     []sentEmail
	failNext bool
	failAll  bool
}

type sentEmail struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

func (f *fakeEmailProvider) SendEmail(to, subject, textBody, htmlBody string) error {
	if f.failAll || f.failNext {
		f.failNext = false
		return errors.NewEmailError("smtp unavailable", fmt.Errorf("dial tcp: refused"))
	}
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, TextBody: textBody, HTMLBody: htmlBody})
	return nil
}

type fakeImageProvider struct{}

func (fakeImageProvider) CityImage(city string) string {
	return "https://example.com/" + city + ".jpg"
}

// testEnv bundles the full service graph over an in-memory database.
type testEnv struct {
	db       *gorm.DB
	weather  *fakeWeatherProvider
	emails   *fakeEmailProvider
	users    *repository.UserRepository
	profiles *repository.ProfileRepository
	favs     *repository.FavoriteRepository
	alertsDB *repository.AlertRepository
	notifs   *repository.NotificationRepository
	history  *repository.HistoryRepository
	forecast *repository.ForecastRepository

	weatherSvc *WeatherService
	emailSvc   *EmailService
	accountSvc *AccountService
	favSvc     *FavoriteService
	alertSvc   *AlertService
	summarySvc *SummaryService
	cleanupSvc *CleanupService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	env := &testEnv{
		db:       db,
		weather:  newFakeWeatherProvider(),
		emails:   &fakeEmailProvider{},
		users:    repository.NewUserRepository(db),
		profiles: repository.NewProfileRepository(db),
		favs:     repository.NewFavoriteRepository(db),
		alertsDB: repository.NewAlertRepository(db),
		notifs:   repository.NewNotificationRepository(db),
		history:  repository.NewHistoryRepository(db),
		forecast: repository.NewForecastRepository(db),
	}

	weatherCache, err := cache.New(&config.CacheConfig{Type: "memory", TTLMinutes: 10})
	require.NoError(t, err)

	env.weatherSvc = NewWeatherService(
		env.weather, fakeImageProvider{}, weatherCache, env.history, env.forecast, time.Minute)
	env.emailSvc = NewEmailService(env.emails, env.notifs, "http://localhost:8080")
	env.accountSvc = NewAccountService(db, env.users, env.profiles, env.emailSvc)
	env.favSvc = NewFavoriteService(env.favs, env.weatherSvc)
	env.alertSvc = NewAlertService(env.users, env.profiles, env.favs, env.alertsDB, env.weatherSvc, env.emailSvc)
	env.summarySvc = NewSummaryService(env.users, env.profiles, env.favs, env.alertsDB, env.weatherSvc, env.emailSvc)
	env.cleanupSvc = NewCleanupService(env.history, env.alertsDB, env.notifs, env.forecast, config.RetentionConfig{
		HistoryDays:       90,
		AlertsDays:        30,
		NotificationsDays: 60,
		ForecastHours:     24,
	})

	return env
}

// createVerifiedUser creates a user whose notification gate is fully open.
func (env *testEnv) createVerifiedUser(t *testing.T, username string) (*models.User, *models.UserProfile) {
	t.Helper()

	user := &models.User{Username: username, FirstName: "Test", Email: username + "@example.com"}
	require.NoError(t, env.users.Create(user))

	profile, err := env.profiles.GetOrCreate(user.ID)
	require.NoError(t, err)
	profile.IsEmailVerified = true
	require.NoError(t, env.profiles.Save(profile))

	return user, profile
}

func (env *testEnv) addFavorite(t *testing.T, userID uint, city string, high, low *float64) *models.FavoriteCity {
	t.Helper()

	favorite := &models.FavoriteCity{
		UserID:                   userID,
		CityName:                 city,
		TemperatureThresholdHigh: high,
		TemperatureThresholdLow:  low,
		NotifyRain:               true,
		NotifyExtremeWeather:     true,
	}
	require.NoError(t, env.favs.Create(favorite))
	return favorite
}

func floatPtr(v float64) *float64 { return &v }
