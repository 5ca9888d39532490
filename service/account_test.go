package service

import (
	"testing"
	"time"

	"climascope.app/errors"
	"climascope.app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertErrorType(t *testing.T, err error, expected errors.ErrorType) {
	t.Helper()
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expected, appErr.Type)
}

func TestRegister_CreatesUserAndSendsVerification(t *testing.T) {
	env := setupEnv(t)

	user, err := env.accountSvc.Register(&models.RegisterRequest{
		Username:  "alice",
		FirstName: "Alice",
		Email:     "alice@example.com",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	profile, err := env.profiles.GetOrCreate(user.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsEmailVerified)
	assert.NotEmpty(t, profile.VerificationToken)
	require.NotNil(t, profile.VerificationSentAt)

	require.Len(t, env.emails.sent, 1)
	assert.Contains(t, env.emails.sent[0].TextBody, profile.VerificationToken)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := setupEnv(t)

	_, err := env.accountSvc.Register(&models.RegisterRequest{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)

	_, err = env.accountSvc.Register(&models.RegisterRequest{Username: "bob", Email: "other@example.com"})
	assertErrorType(t, err, errors.ErrorTypeAlreadyExists)
}

func TestRegister_EmailFailureDoesNotFailRegistration(t *testing.T) {
	env := setupEnv(t)
	env.emails.failAll = true

	user, err := env.accountSvc.Register(&models.RegisterRequest{Username: "carol", Email: "carol@example.com"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
}

func TestVerifyEmail_HappyPath(t *testing.T) {
	env := setupEnv(t)

	user, err := env.accountSvc.Register(&models.RegisterRequest{Username: "dave", Email: "dave@example.com"})
	require.NoError(t, err)

	profile, err := env.profiles.GetOrCreate(user.ID)
	require.NoError(t, err)
	token := profile.VerificationToken

	verified, err := env.accountSvc.VerifyEmail(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)

	profile, err = env.profiles.GetOrCreate(user.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsEmailVerified)
	assert.Empty(t, profile.VerificationToken)

	// Registration email plus welcome email.
	require.Len(t, env.emails.sent, 2)
	assert.Contains(t, env.emails.sent[1].Subject, "Welcome")
}

func TestVerifyEmail_UnknownToken(t *testing.T) {
	env := setupEnv(t)

	_, err := env.accountSvc.VerifyEmail("not-a-token")
	assertErrorType(t, err, errors.ErrorTypeToken)

	_, err = env.accountSvc.VerifyEmail("")
	assertErrorType(t, err, errors.ErrorTypeToken)
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	env := setupEnv(t)

	user, err := env.accountSvc.Register(&models.RegisterRequest{Username: "erin", Email: "erin@example.com"})
	require.NoError(t, err)

	profile, err := env.profiles.GetOrCreate(user.ID)
	require.NoError(t, err)
	expired := time.Now().Add(-25 * time.Hour)
	profile.VerificationSentAt = &expired
	require.NoError(t, env.profiles.Save(profile))

	_, err = env.accountSvc.VerifyEmail(profile.VerificationToken)
	assertErrorType(t, err, errors.ErrorTypeToken)
	assert.Contains(t, err.Error(), "expired")
}

func TestResendVerification_RotatesToken(t *testing.T) {
	env := setupEnv(t)

	user, err := env.accountSvc.Register(&models.RegisterRequest{Username: "frank", Email: "frank@example.com"})
	require.NoError(t, err)

	before, err := env.profiles.GetOrCreate(user.ID)
	require.NoError(t, err)
	oldToken := before.VerificationToken

	require.NoError(t, env.accountSvc.ResendVerification(user.ID))

	after, err := env.profiles.GetOrCreate(user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldToken, after.VerificationToken)

	// The old token no longer verifies.
	_, err = env.accountSvc.VerifyEmail(oldToken)
	assertErrorType(t, err, errors.ErrorTypeToken)
}

func TestResendVerification_AlreadyVerified(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "grace")

	err := env.accountSvc.ResendVerification(user.ID)
	assertErrorType(t, err, errors.ErrorTypeValidation)
}

func TestUpdateSettings_AppliesOnlyProvidedFields(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "heidi")

	off := false
	on := true
	profile, err := env.accountSvc.UpdateSettings(user.ID, &models.SettingsRequest{
		WeatherAlerts: &off,
		DailySummary:  &on,
	})
	require.NoError(t, err)

	assert.False(t, profile.WeatherAlerts)
	assert.True(t, profile.DailySummary)
	assert.True(t, profile.EmailNotifications, "untouched field must keep its value")
	assert.True(t, profile.SevereWeatherAlerts, "untouched field must keep its value")
}

func TestDeactivateAndReactivate(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "ivan")

	require.NoError(t, env.accountSvc.Deactivate(user.ID))

	profile, err := env.profiles.GetOrCreate(user.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsDeactivated)
	require.NotNil(t, profile.DeactivatedAt)

	// The confirmation bypasses the gate even though the account is now off.
	require.Len(t, env.emails.sent, 1)

	err = env.accountSvc.Deactivate(user.ID)
	assertErrorType(t, err, errors.ErrorTypeValidation)

	require.NoError(t, env.accountSvc.Reactivate(user.ID))
	profile, err = env.profiles.GetOrCreate(user.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsDeactivated)
	assert.Nil(t, profile.DeactivatedAt)

	// Welcome-back notice on top of the deactivation confirmation.
	require.Len(t, env.emails.sent, 2)
	assert.Contains(t, env.emails.sent[1].Subject, "Welcome back")

	err = env.accountSvc.Reactivate(user.ID)
	assertErrorType(t, err, errors.ErrorTypeValidation)
}

func TestNotifyPasswordChanged(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "kira")

	require.NoError(t, env.accountSvc.NotifyPasswordChanged(user.ID))
	require.Len(t, env.emails.sent, 1)
	assert.Contains(t, env.emails.sent[0].Subject, "password was changed")

	err := env.accountSvc.NotifyPasswordChanged(9999)
	assertErrorType(t, err, errors.ErrorTypeNotFound)
}

func TestDelete_RemovesAllUserData(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "judy")
	env.addFavorite(t, user.ID, "London", floatPtr(35), nil)
	env.weather.setCity("London", 40, "light rain")

	_, err := env.alertSvc.RunForUser(user.ID, false)
	require.NoError(t, err)
	_, err = env.weatherSvc.Lookup(user.ID, "London")
	require.NoError(t, err)

	require.NoError(t, env.accountSvc.Delete(user.ID))

	found, err := env.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	favorites, err := env.favs.ListByUser(user.ID)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	alerts, err := env.alertsDB.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	notifications, err := env.notifs.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, notifications)

	history, err := env.history.RecentByUser(user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDelete_UnknownUser(t *testing.T) {
	env := setupEnv(t)

	err := env.accountSvc.Delete(12345)
	assertErrorType(t, err, errors.ErrorTypeNotFound)
}
