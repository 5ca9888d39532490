package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVerificationTokenValid(t *testing.T) {
	profile := &UserProfile{}
	assert.False(t, profile.IsVerificationTokenValid(), "no send time means no valid token")

	recent := time.Now().Add(-time.Hour)
	profile.VerificationSentAt = &recent
	assert.True(t, profile.IsVerificationTokenValid())

	expired := time.Now().Add(-VerificationTokenValidity - time.Minute)
	profile.VerificationSentAt = &expired
	assert.False(t, profile.IsVerificationTokenValid())
}

func TestWeatherForecastPayloadRoundTrip(t *testing.T) {
	forecast := &WeatherForecast{CityName: "London"}

	days := []ForecastDay{
		{Date: "Sun, Aug 30", TempMax: 21.5, TempMin: 12.3, Description: "cloudy", Icon: "03d"},
		{Date: "Mon, Aug 31", TempMax: 23.0, TempMin: 13.1, Description: "clear sky", Icon: "01d"},
	}
	require.NoError(t, forecast.SetDays(days))

	decoded, err := forecast.Days()
	require.NoError(t, err)
	assert.Equal(t, days, decoded)
}

func TestWeatherForecastCorruptPayload(t *testing.T) {
	forecast := &WeatherForecast{Data: "{not json"}
	_, err := forecast.Days()
	assert.Error(t, err)
}
