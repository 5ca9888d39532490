package providers

import "climascope.app/models"

// WeatherProvider defines the interface for weather data providers
type WeatherProvider interface {
	CurrentByCity(city string) (*models.WeatherSnapshot, error)
	CurrentByCoords(lat, lon float64) (*models.WeatherSnapshot, error)
	Forecast(city string) ([]models.ForecastDay, error)
}

// ImageProvider defines the interface for city image lookup
type ImageProvider interface {
	CityImage(city string) string
}

// EmailProvider defines the interface for email delivery
type EmailProvider interface {
	SendEmail(to, subject, textBody, htmlBody string) error
}
