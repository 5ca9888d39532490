package config

import (
	"fmt"
	"strings"

	"climascope.app/errors"
	"github.com/kelseyhightower/envconfig"
)

// Config represents the application configuration structure
type Config struct {
	Server      ServerConfig      `split_words:"true"`
	Database    DatabaseConfig    `split_words:"true"`
	Weather     WeatherConfig     `split_words:"true"`
	ImageSearch ImageSearchConfig `split_words:"true"`
	Email       EmailConfig       `split_words:"true"`
	Scheduler   SchedulerConfig   `split_words:"true"`
	Retention   RetentionConfig   `split_words:"true"`
	Cache       CacheConfig       `split_words:"true"`
	AppBaseURL  string            `envconfig:"APP_URL" default:"http://localhost:8080"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"climascope"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

// GetDSN returns a formatted database connection string
func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// WeatherConfig contains settings for the OpenWeatherMap API
type WeatherConfig struct {
	APIKey  string `envconfig:"WEATHER_API_KEY" required:"true"`
	BaseURL string `envconfig:"WEATHER_API_BASE_URL" default:"https://api.openweathermap.org/data/2.5"`
}

// ImageSearchConfig contains settings for the Google Custom Search image
// lookup. Optional: when the key is empty the fallback images are used.
type ImageSearchConfig struct {
	APIKey         string `envconfig:"GOOGLE_API_KEY"`
	SearchEngineID string `envconfig:"GOOGLE_SEARCH_ENGINE_ID"`
	BaseURL        string `envconfig:"GOOGLE_SEARCH_BASE_URL" default:"https://www.googleapis.com/customsearch/v1"`
}

// Configured reports whether image search credentials are present.
func (i ImageSearchConfig) Configured() bool {
	return i.APIKey != "" && i.SearchEngineID != ""
}

// EmailConfig contains email server and sending settings
type EmailConfig struct {
	SMTPHost     string `envconfig:"EMAIL_SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort     int    `envconfig:"EMAIL_SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"EMAIL_SMTP_USERNAME" required:"true"`
	SMTPPassword string `envconfig:"EMAIL_SMTP_PASSWORD" required:"true"`
	FromName     string `envconfig:"EMAIL_FROM_NAME" default:"Climascope"`
	FromAddress  string `envconfig:"EMAIL_FROM_ADDRESS" default:"no-reply@climascope.app"`
}

// SchedulerConfig contains settings for the background task scheduler
type SchedulerConfig struct {
	PollIntervalSeconds int    `envconfig:"SCHEDULER_POLL_INTERVAL" default:"60"`
	DailySummaryAt      string `envconfig:"DAILY_SUMMARY_AT" default:"07:00"`
	CleanupAt           string `envconfig:"CLEANUP_AT" default:"02:00"`
	HealthCheckHours    int    `envconfig:"HEALTH_CHECK_HOURS" default:"6"`
	TestCity            string `envconfig:"HEALTH_TEST_CITY" default:"London"`
}

// RetentionConfig contains how long each record kind is kept
type RetentionConfig struct {
	HistoryDays       int `envconfig:"RETENTION_HISTORY_DAYS" default:"90"`
	AlertsDays        int `envconfig:"RETENTION_ALERTS_DAYS" default:"30"`
	NotificationsDays int `envconfig:"RETENTION_NOTIFICATIONS_DAYS" default:"60"`
	ForecastHours     int `envconfig:"RETENTION_FORECAST_HOURS" default:"24"`
}

// CacheConfig contains weather cache settings
type CacheConfig struct {
	Type          string `envconfig:"CACHE_TYPE" default:"memory"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	TTLMinutes    int    `envconfig:"CACHE_TTL_MINUTES" default:"10"`
}

// LoadConfig loads and validates application configuration from environment variables
func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Weather.Validate(); err != nil {
		return err
	}
	if err := c.Email.Validate(); err != nil {
		return err
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if err := c.Retention.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.validateAppBaseURL(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAppBaseURL() error {
	if c.AppBaseURL == "" {
		return errors.NewConfigurationError("APP_URL cannot be empty", nil)
	}
	if !strings.HasPrefix(c.AppBaseURL, "http://") && !strings.HasPrefix(c.AppBaseURL, "https://") {
		return errors.NewConfigurationError("APP_URL must start with http:// or https://", nil)
	}
	return nil
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return errors.NewConfigurationError("SERVER_PORT must be between 1 and 65535", nil)
	}
	return nil
}

// ValidateSSLMode validates the SSL mode configuration
func (d *DatabaseConfig) ValidateSSLMode() error {
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	for _, mode := range validSSLModes {
		if d.SSLMode == mode {
			return nil
		}
	}
	return errors.NewConfigurationError(
		fmt.Sprintf("DB_SSL_MODE must be one of: %s", strings.Join(validSSLModes, ", ")), nil)
}

// Validate checks database configuration
func (d *DatabaseConfig) Validate() error {
	if d.Host == "" {
		return errors.NewConfigurationError("DB_HOST cannot be empty", nil)
	}
	if d.Port < 1 || d.Port > 65535 {
		return errors.NewConfigurationError("DB_PORT must be between 1 and 65535", nil)
	}
	if d.User == "" {
		return errors.NewConfigurationError("DB_USER cannot be empty", nil)
	}
	if d.Name == "" {
		return errors.NewConfigurationError("DB_NAME cannot be empty", nil)
	}
	if err := d.ValidateSSLMode(); err != nil {
		return err
	}
	return nil
}

// Validate checks weather API configuration
func (w *WeatherConfig) Validate() error {
	if w.APIKey == "" {
		return errors.NewConfigurationError("WEATHER_API_KEY is required", nil)
	}
	if w.BaseURL == "" {
		return errors.NewConfigurationError("WEATHER_API_BASE_URL cannot be empty", nil)
	}
	if !strings.HasPrefix(w.BaseURL, "http://") && !strings.HasPrefix(w.BaseURL, "https://") {
		return errors.NewConfigurationError("WEATHER_API_BASE_URL must start with http:// or https://", nil)
	}
	return nil
}

// Validate checks email configuration
func (e *EmailConfig) Validate() error {
	if e.SMTPHost == "" {
		return errors.NewConfigurationError("EMAIL_SMTP_HOST cannot be empty", nil)
	}
	if e.SMTPPort < 1 || e.SMTPPort > 65535 {
		return errors.NewConfigurationError("EMAIL_SMTP_PORT must be between 1 and 65535", nil)
	}
	if e.SMTPUsername == "" {
		return errors.NewConfigurationError("EMAIL_SMTP_USERNAME is required", nil)
	}
	if e.SMTPPassword == "" {
		return errors.NewConfigurationError("EMAIL_SMTP_PASSWORD is required", nil)
	}
	if e.FromName == "" {
		return errors.NewConfigurationError("EMAIL_FROM_NAME cannot be empty", nil)
	}
	if e.FromAddress == "" {
		return errors.NewConfigurationError("EMAIL_FROM_ADDRESS cannot be empty", nil)
	}
	if !strings.Contains(e.FromAddress, "@") {
		return errors.NewConfigurationError("EMAIL_FROM_ADDRESS must be a valid email address", nil)
	}
	return nil
}

// Validate checks scheduler configuration
func (s *SchedulerConfig) Validate() error {
	if s.PollIntervalSeconds < 1 {
		return errors.NewConfigurationError("SCHEDULER_POLL_INTERVAL must be at least 1 second", nil)
	}
	if s.HealthCheckHours < 1 {
		return errors.NewConfigurationError("HEALTH_CHECK_HOURS must be at least 1", nil)
	}
	if _, _, err := ParseClock(s.DailySummaryAt); err != nil {
		return errors.NewConfigurationError("DAILY_SUMMARY_AT must be in HH:MM format", err)
	}
	if _, _, err := ParseClock(s.CleanupAt); err != nil {
		return errors.NewConfigurationError("CLEANUP_AT must be in HH:MM format", err)
	}
	return nil
}

// Validate checks retention configuration
func (r *RetentionConfig) Validate() error {
	if r.HistoryDays < 1 {
		return errors.NewConfigurationError("RETENTION_HISTORY_DAYS must be at least 1", nil)
	}
	if r.AlertsDays < 1 {
		return errors.NewConfigurationError("RETENTION_ALERTS_DAYS must be at least 1", nil)
	}
	if r.NotificationsDays < 1 {
		return errors.NewConfigurationError("RETENTION_NOTIFICATIONS_DAYS must be at least 1", nil)
	}
	if r.ForecastHours < 1 {
		return errors.NewConfigurationError("RETENTION_FORECAST_HOURS must be at least 1", nil)
	}
	return nil
}

// Validate checks cache configuration
func (c *CacheConfig) Validate() error {
	if c.Type != "memory" && c.Type != "redis" {
		return errors.NewConfigurationError("CACHE_TYPE must be either 'memory' or 'redis'", nil)
	}
	if c.Type == "redis" && c.RedisAddr == "" {
		return errors.NewConfigurationError("REDIS_ADDR cannot be empty when CACHE_TYPE is redis", nil)
	}
	if c.TTLMinutes < 1 {
		return errors.NewConfigurationError("CACHE_TTL_MINUTES must be at least 1", nil)
	}
	return nil
}

// ParseClock parses a HH:MM wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock %q out of range", s)
	}
	return hour, minute, nil
}
