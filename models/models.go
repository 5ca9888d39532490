// Package models defines data structures used throughout the application
package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. Authentication is handled by an
// external system; only identity and ownership live here.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Username  string         `json:"username" gorm:"uniqueIndex;not null"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email" gorm:"index;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserProfile holds verification state, notification toggles and account
// status for a user. One per user, created lazily when missing.
type UserProfile struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"user_id" gorm:"uniqueIndex;not null"`

	Location string `json:"location"`

	IsEmailVerified    bool       `json:"is_email_verified" gorm:"default:false"`
	VerificationToken  string     `json:"-" gorm:"index"`
	VerificationSentAt *time.Time `json:"-"`

	EmailNotifications  bool `json:"email_notifications" gorm:"default:true"`
	WeatherAlerts       bool `json:"weather_alerts" gorm:"default:true"`
	DailySummary        bool `json:"daily_summary" gorm:"default:false"`
	SevereWeatherAlerts bool `json:"severe_weather_alerts" gorm:"default:true"`

	IsDeactivated bool       `json:"is_deactivated" gorm:"default:false"`
	DeactivatedAt *time.Time `json:"deactivated_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VerificationTokenValidity is how long an email verification link stays usable.
const VerificationTokenValidity = 24 * time.Hour

// IsVerificationTokenValid reports whether the current verification token is
// still within its validity window.
func (p *UserProfile) IsVerificationTokenValid() bool {
	if p.VerificationSentAt == nil {
		return false
	}
	return time.Now().Before(p.VerificationSentAt.Add(VerificationTokenValidity))
}

// FavoriteCity is a bookmarked city carrying its own alert thresholds.
// The (user, city_name) pair is unique.
type FavoriteCity struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	UserID   uint     `json:"user_id" gorm:"not null;uniqueIndex:idx_user_city"`
	CityName string   `json:"city_name" gorm:"not null;uniqueIndex:idx_user_city"`
	Country  string   `json:"country"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`

	TemperatureThresholdHigh *float64 `json:"temperature_threshold_high"`
	TemperatureThresholdLow  *float64 `json:"temperature_threshold_low"`
	NotifyRain               bool     `json:"notify_rain" gorm:"default:true"`
	NotifyExtremeWeather     bool     `json:"notify_extreme_weather" gorm:"default:true"`

	CreatedAt time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"-"`
}

// WeatherHistory is an append-only log of a weather lookup.
type WeatherHistory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"index"`
	CityName    string    `json:"city_name" gorm:"not null"`
	Country     string    `json:"country"`
	Temperature float64   `json:"temperature"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Humidity    *float64  `json:"humidity"`
	Pressure    *float64  `json:"pressure"`
	WindSpeed   *float64  `json:"wind_speed"`
	FeelsLike   *float64  `json:"feels_like"`
	SearchedAt  time.Time `json:"searched_at" gorm:"autoCreateTime;index"`
}

// WeatherForecast caches a serialized 5-day forecast payload per city.
type WeatherForecast struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CityName  string    `json:"city_name" gorm:"uniqueIndex;not null"`
	Data      string    `json:"-"`
	UpdatedAt time.Time `json:"last_updated"`
}

// SetDays serializes forecast days into the stored payload.
func (f *WeatherForecast) SetDays(days []ForecastDay) error {
	data, err := json.Marshal(days)
	if err != nil {
		return err
	}
	f.Data = string(data)
	return nil
}

// Days deserializes the stored forecast payload.
func (f *WeatherForecast) Days() ([]ForecastDay, error) {
	var days []ForecastDay
	if err := json.Unmarshal([]byte(f.Data), &days); err != nil {
		return nil, err
	}
	return days, nil
}

// AlertType enumerates the kinds of weather alert the evaluator can produce.
type AlertType string

const (
	AlertTemperatureHigh AlertType = "temperature_high"
	AlertTemperatureLow  AlertType = "temperature_low"
	AlertRain            AlertType = "rain"
	AlertStorm           AlertType = "storm"
	AlertSevere          AlertType = "severe"
	AlertDailySummary    AlertType = "daily_summary"
)

// WeatherAlert is one triggered alert condition for a user and city.
// Created unsent; the notification sender flips is_sent on delivery.
type WeatherAlert struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	UserID           uint       `json:"user_id" gorm:"index;not null"`
	CityName         string     `json:"city_name" gorm:"not null"`
	AlertType        AlertType  `json:"alert_type" gorm:"not null"`
	Message          string     `json:"message"`
	Temperature      *float64   `json:"temperature"`
	WeatherCondition string     `json:"weather_condition"`
	IsSent           bool       `json:"is_sent" gorm:"default:false"`
	SentAt           *time.Time `json:"sent_at"`
	CreatedAt        time.Time  `json:"created_at" gorm:"index"`
}

// EmailNotification is the delivery-audit record of an outbound email.
type EmailNotification struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"index;not null"`
	Subject   string     `json:"subject"`
	Message   string     `json:"message"`
	EmailType string     `json:"email_type"`
	IsSent    bool       `json:"is_sent" gorm:"default:false"`
	SentAt    *time.Time `json:"sent_at"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
}

// WeatherSnapshot is the normalized output of the weather data gateway.
type WeatherSnapshot struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	WindSpeed   float64 `json:"wind_speed"`
	FeelsLike   float64 `json:"feels_like"`
}

// ForecastDay is one reduced day of the 5-day forecast.
type ForecastDay struct {
	Date        string  `json:"date"`
	TempMax     float64 `json:"temp_max"`
	TempMin     float64 `json:"temp_min"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// AlertIntent is a proposed, not-yet-persisted notification decision.
type AlertIntent struct {
	Type        AlertType
	Message     string
	Temperature *float64
	Condition   string
}

// CitySummary is one city's entry in a daily digest email.
type CitySummary struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Humidity    float64 `json:"humidity"`
	FeelsLike   float64 `json:"feels_like"`
}

// RegisterRequest is the payload for creating a new account.
type RegisterRequest struct {
	Username  string `json:"username" form:"username" binding:"required,notblank"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Email     string `json:"email" form:"email" binding:"required,email"`
}

// FavoriteRequest is the payload for bookmarking a city.
type FavoriteRequest struct {
	CityName string   `json:"city_name" form:"city_name" binding:"required,notblank,max=100"`
	Country  string   `json:"country" form:"country"`
	Lat      *float64 `json:"lat" form:"lat"`
	Lon      *float64 `json:"lon" form:"lon"`
}

// ThresholdRequest updates per-city alert preferences. Pointer fields
// distinguish "leave unchanged" from explicit values.
type ThresholdRequest struct {
	TemperatureThresholdHigh *float64 `json:"temperature_threshold_high"`
	TemperatureThresholdLow  *float64 `json:"temperature_threshold_low"`
	NotifyRain               *bool    `json:"notify_rain"`
	NotifyExtremeWeather     *bool    `json:"notify_extreme_weather"`
}

// SettingsRequest updates a profile's notification toggles.
type SettingsRequest struct {
	EmailNotifications  *bool `json:"email_notifications"`
	WeatherAlerts       *bool `json:"weather_alerts"`
	DailySummary        *bool `json:"daily_summary"`
	SevereWeatherAlerts *bool `json:"severe_weather_alerts"`
}

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}
