package service

import (
	"strings"
	"testing"

	"climascope.app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertSweep_CreatesAndSendsAlert(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "alice")
	env.addFavorite(t, user.ID, "London", floatPtr(35), nil)
	env.weather.setCity("London", 40, "clear sky")

	result, err := env.alertSvc.RunSweep(false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.UsersProcessed)
	assert.Equal(t, 1, result.AlertsCreated)
	assert.Equal(t, 1, result.AlertsSent)

	alerts, err := env.alertsDB.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertTemperatureHigh, alerts[0].AlertType)
	assert.True(t, alerts[0].IsSent)
	require.NotNil(t, alerts[0].SentAt)

	require.Len(t, env.emails.sent, 1)
	assert.Equal(t, "alice@example.com", env.emails.sent[0].To)
	assert.Contains(t, env.emails.sent[0].Subject, "London")
	assert.False(t, strings.HasPrefix(env.emails.sent[0].Subject, "URGENT"))
}

func TestAlertSweep_SevereAlertGetsUrgentSubject(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "bob")
	env.addFavorite(t, user.ID, "Miami", nil, nil)
	env.weather.setCity("Miami", 28, "hurricane conditions")

	result, err := env.alertSvc.RunSweep(false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AlertsSent)

	require.Len(t, env.emails.sent, 1)
	assert.True(t, strings.HasPrefix(env.emails.sent[0].Subject, "URGENT:"))
}

func TestAlertSweep_UnverifiedUserGetsNothing(t *testing.T) {
	env := setupEnv(t)

	user := &models.User{Username: "carol", Email: "carol@example.com"}
	require.NoError(t, env.users.Create(user))
	_, err := env.profiles.GetOrCreate(user.ID)
	require.NoError(t, err)
	env.addFavorite(t, user.ID, "London", floatPtr(35), nil)
	env.weather.setCity("London", 40, "clear sky")

	result, err := env.alertSvc.RunSweep(false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.AlertsCreated)
	assert.Empty(t, env.emails.sent)
}

func TestAlertSweep_DeactivatedUserGetsNothing(t *testing.T) {
	env := setupEnv(t)
	user, profile := env.createVerifiedUser(t, "dave")
	profile.IsDeactivated = true
	require.NoError(t, env.profiles.Save(profile))
	env.addFavorite(t, user.ID, "London", floatPtr(35), nil)
	env.weather.setCity("London", 40, "clear sky")

	result, err := env.alertSvc.RunSweep(false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.AlertsCreated)
	assert.Empty(t, env.emails.sent)
}

func TestAlertSweep_WeatherAlertsToggleOff(t *testing.T) {
	env := setupEnv(t)
	user, profile := env.createVerifiedUser(t, "erin")
	profile.WeatherAlerts = false
	require.NoError(t, env.profiles.Save(profile))
	env.addFavorite(t, user.ID, "London", floatPtr(35), nil)
	env.weather.setCity("London", 40, "clear sky")

	result, err := env.alertSvc.RunSweep(false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.AlertsCreated)
	assert.Empty(t, env.emails.sent)
}

func TestAlertSweep_SevereToggleOffSkipsOnlySevere(t *testing.T) {
	env := setupEnv(t)
	user, profile := env.createVerifiedUser(t, "frank")
	profile.SevereWeatherAlerts = false
	require.NoError(t, env.profiles.Save(profile))
	env.addFavorite(t, user.ID, "Miami", floatPtr(25), nil)
	env.weather.setCity("Miami", 30, "thunderstorm")

	result, err := env.alertSvc.RunSweep(false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AlertsCreated)

	alerts, err := env.alertsDB.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertTemperatureHigh, alerts[0].AlertType)
}

func TestAlertSweep_UnavailableCityHasZeroSideEffects(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "grace")
	env.addFavorite(t, user.ID, "Atlantis", floatPtr(35), nil)

	result, err := env.alertSvc.RunSweep(false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.UsersProcessed)
	assert.Equal(t, 0, result.AlertsCreated)

	alerts, err := env.alertsDB.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Empty(t, env.emails.sent)
}

func TestAlertSweep_DryRunPersistsNothing(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "heidi")
	env.addFavorite(t, user.ID, "London", floatPtr(35), nil)
	env.weather.setCity("London", 40, "clear sky")

	result, err := env.alertSvc.RunSweep(true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AlertsCreated)
	assert.Equal(t, 0, result.AlertsSent)

	alerts, err := env.alertsDB.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Empty(t, env.emails.sent)
}

func TestAlertSweep_EmailFailureLeavesAlertUnsent(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "ivan")
	env.addFavorite(t, user.ID, "London", floatPtr(35), nil)
	env.weather.setCity("London", 40, "clear sky")
	env.emails.failAll = true

	result, err := env.alertSvc.RunSweep(false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AlertsCreated)
	assert.Equal(t, 0, result.AlertsSent)

	alerts, err := env.alertsDB.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].IsSent)
	assert.Nil(t, alerts[0].SentAt)

	// No audit record for the failed delivery.
	notifications, err := env.notifs.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestAlertSweep_RepeatsWhileConditionHolds(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "judy")
	env.addFavorite(t, user.ID, "London", floatPtr(35), nil)
	env.weather.setCity("London", 40, "clear sky")

	_, err := env.alertSvc.RunSweep(false)
	require.NoError(t, err)
	_, err = env.alertSvc.RunSweep(false)
	require.NoError(t, err)

	alerts, err := env.alertsDB.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
	assert.Len(t, env.emails.sent, 2)
}

func TestRunForUser_UnknownUser(t *testing.T) {
	env := setupEnv(t)

	_, err := env.alertSvc.RunForUser(9999, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user not found")
}

func TestRunForUser_TargetsSingleUser(t *testing.T) {
	env := setupEnv(t)
	user1, _ := env.createVerifiedUser(t, "kim")
	user2, _ := env.createVerifiedUser(t, "leo")
	env.addFavorite(t, user1.ID, "London", floatPtr(35), nil)
	env.addFavorite(t, user2.ID, "London", floatPtr(35), nil)
	env.weather.setCity("London", 40, "clear sky")

	result, err := env.alertSvc.RunForUser(user1.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AlertsSent)

	alerts, err := env.alertsDB.RecentByUser(user2.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
