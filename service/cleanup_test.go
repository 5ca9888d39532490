package service

import (
	"testing"
	"time"

	"climascope.app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// backdate rewrites created/searched timestamps gorm stamps automatically.
func backdate(t *testing.T, db *gorm.DB, table, column string, id uint, when time.Time) {
	t.Helper()
	err := db.Table(table).Where("id = ?", id).Update(column, when).Error
	require.NoError(t, err)
}

func seedAgedData(t *testing.T, env *testEnv, userID uint) {
	t.Helper()
	now := time.Now()

	oldHistory := &models.WeatherHistory{UserID: userID, CityName: "London", Temperature: 10}
	require.NoError(t, env.history.Create(oldHistory))
	backdate(t, env.db, "weather_histories", "searched_at", oldHistory.ID, now.AddDate(0, 0, -120))

	freshHistory := &models.WeatherHistory{UserID: userID, CityName: "Paris", Temperature: 20}
	require.NoError(t, env.history.Create(freshHistory))

	sentAt := now.AddDate(0, 0, -60)
	oldSentAlert := &models.WeatherAlert{UserID: userID, CityName: "London",
		AlertType: models.AlertRain, IsSent: true, SentAt: &sentAt}
	require.NoError(t, env.alertsDB.Create(oldSentAlert))
	backdate(t, env.db, "weather_alerts", "created_at", oldSentAlert.ID, now.AddDate(0, 0, -60))

	oldUnsentAlert := &models.WeatherAlert{UserID: userID, CityName: "London", AlertType: models.AlertRain}
	require.NoError(t, env.alertsDB.Create(oldUnsentAlert))
	backdate(t, env.db, "weather_alerts", "created_at", oldUnsentAlert.ID, now.AddDate(0, 0, -60))

	oldNotification := &models.EmailNotification{UserID: userID, EmailType: EmailKindWeatherAlert,
		IsSent: true, SentAt: &sentAt}
	require.NoError(t, env.notifs.Create(oldNotification))
	backdate(t, env.db, "email_notifications", "created_at", oldNotification.ID, now.AddDate(0, 0, -90))

	staleForecast := &models.WeatherForecast{CityName: "London", Data: "[]"}
	require.NoError(t, env.forecast.Upsert(staleForecast))
	backdate(t, env.db, "weather_forecasts", "updated_at", staleForecast.ID, now.Add(-48*time.Hour))
}

func TestCleanup_DryRunCountsWithoutDeleting(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "alice")
	seedAgedData(t, env, user.ID)

	report, err := env.cleanupSvc.Run(CleanupOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, int64(1), report.History)
	assert.Equal(t, int64(1), report.Alerts)
	assert.Equal(t, int64(1), report.Notifications)
	assert.Equal(t, int64(1), report.Forecasts)
	assert.Equal(t, int64(4), report.Total())

	// Nothing removed.
	history, err := env.history.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestCleanup_RemovesAgedRows(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "bob")
	seedAgedData(t, env, user.ID)

	report, err := env.cleanupSvc.Run(CleanupOptions{})
	require.NoError(t, err)
	assert.False(t, report.DryRun)
	assert.Equal(t, int64(4), report.Total())

	history, err := env.history.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Paris", history[0].CityName)

	// The aged unsent alert survives; only the sent one is pruned.
	alerts, err := env.alertsDB.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].IsSent)

	forecast, err := env.forecast.FindByCity("London")
	require.NoError(t, err)
	assert.Nil(t, forecast)
}

func TestCleanup_OverridesShortenWindows(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "carol")

	record := &models.WeatherHistory{UserID: user.ID, CityName: "London", Temperature: 10}
	require.NoError(t, env.history.Create(record))
	backdate(t, env.db, "weather_histories", "searched_at", record.ID, time.Now().AddDate(0, 0, -10))

	// Default 90-day window keeps it.
	report, err := env.cleanupSvc.Run(CleanupOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.History)

	// A 7-day override catches it.
	report, err = env.cleanupSvc.Run(CleanupOptions{HistoryDays: 7, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.History)
}
