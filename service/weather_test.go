package service

import (
	"testing"
	"time"

	"climascope.app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherCurrent_CachesSnapshots(t *testing.T) {
	env := setupEnv(t)
	env.weather.setCity("London", 18, "cloudy")

	first, err := env.weatherSvc.Current("London")
	require.NoError(t, err)
	assert.Equal(t, 18.0, first.Temperature)
	assert.Equal(t, 1, env.weather.calls)

	second, err := env.weatherSvc.Current("London")
	require.NoError(t, err)
	assert.Equal(t, first.Temperature, second.Temperature)
	assert.Equal(t, 1, env.weather.calls, "second lookup served from cache")

	// Case and surrounding whitespace do not split cache entries.
	_, err = env.weatherSvc.Current("  LONDON ")
	require.NoError(t, err)
	assert.Equal(t, 1, env.weather.calls)
}

func TestWeatherCurrent_EmptyCity(t *testing.T) {
	env := setupEnv(t)

	_, err := env.weatherSvc.Current("")
	require.Error(t, err)

	_, err = env.weatherSvc.Current("   ")
	require.Error(t, err)
}

func TestWeatherLookup_RecordsHistory(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "alice")
	env.weather.setCity("London", 18, "cloudy")

	_, err := env.weatherSvc.Lookup(user.ID, "London")
	require.NoError(t, err)

	history, err := env.weatherSvc.History(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "London", history[0].CityName)
	assert.Equal(t, 18.0, history[0].Temperature)
	require.NotNil(t, history[0].Humidity)
	assert.Equal(t, 60.0, *history[0].Humidity)
}

func TestWeatherCurrent_NoHistoryWithoutUser(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.createVerifiedUser(t, "bob")
	env.weather.setCity("London", 18, "cloudy")

	_, err := env.weatherSvc.Current("London")
	require.NoError(t, err)

	history, err := env.weatherSvc.History(user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestForecast_StoresAndServesPayload(t *testing.T) {
	env := setupEnv(t)
	env.weather.forecasts["London"] = []models.ForecastDay{
		{Date: "2026-08-30", TempMax: 21, TempMin: 12, Description: "cloudy", Icon: "03d"},
		{Date: "2026-08-31", TempMax: 23, TempMin: 13, Description: "clear sky", Icon: "01d"},
	}

	days, err := env.weatherSvc.Forecast("London")
	require.NoError(t, err)
	require.Len(t, days, 2)

	stored, err := env.forecast.FindByCity("London")
	require.NoError(t, err)
	require.NotNil(t, stored)

	// A fresh stored payload short-circuits the provider.
	delete(env.weather.forecasts, "London")
	days, err = env.weatherSvc.Forecast("London")
	require.NoError(t, err)
	assert.Len(t, days, 2)
}

func TestForecast_ServesStalePayloadWhenProviderDown(t *testing.T) {
	env := setupEnv(t)
	env.weather.forecasts["London"] = []models.ForecastDay{
		{Date: "2026-08-30", TempMax: 21, TempMin: 12, Description: "cloudy", Icon: "03d"},
	}

	_, err := env.weatherSvc.Forecast("London")
	require.NoError(t, err)

	stored, err := env.forecast.FindByCity("London")
	require.NoError(t, err)
	backdate(t, env.db, "weather_forecasts", "updated_at", stored.ID, time.Now().Add(-2*time.Hour))

	delete(env.weather.forecasts, "London")
	days, err := env.weatherSvc.Forecast("London")
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func TestForecast_UnknownCityWithNoStoredPayload(t *testing.T) {
	env := setupEnv(t)

	_, err := env.weatherSvc.Forecast("Atlantis")
	require.Error(t, err)
}

func TestCityImage_DelegatesToProvider(t *testing.T) {
	env := setupEnv(t)
	assert.Equal(t, "https://example.com/London.jpg", env.weatherSvc.CityImage("London"))
}
