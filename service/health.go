package service

import (
	"log/slog"
	"time"

	"climascope.app/config"
	"climascope.app/providers"
	"gorm.io/gorm"
)

// ComponentStatus is one component's health probe result.
type ComponentStatus struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// HealthReport aggregates all component probes.
type HealthReport struct {
	Healthy    bool              `json:"healthy"`
	CheckedAt  time.Time         `json:"checked_at"`
	Components []ComponentStatus `json:"components"`
}

// HealthService probes the database, the weather provider, the image lookup
// and the email configuration.
type HealthService struct {
	db       *gorm.DB
	weather  providers.WeatherProvider
	images   providers.ImageProvider
	email    config.EmailConfig
	testCity string
}

// NewHealthService creates a health check service
func NewHealthService(
	db *gorm.DB,
	weather providers.WeatherProvider,
	images providers.ImageProvider,
	email config.EmailConfig,
	testCity string,
) *HealthService {
	return &HealthService{
		db:       db,
		weather:  weather,
		images:   images,
		email:    email,
		testCity: testCity,
	}
}

// Check runs every probe and reports the aggregate. A single failing
// component marks the whole report unhealthy.
func (s *HealthService) Check() *HealthReport {
	report := &HealthReport{
		Healthy:   true,
		CheckedAt: time.Now(),
	}

	report.add(s.checkDatabase())
	report.add(s.checkWeatherProvider())
	report.add(s.checkImageProvider())
	report.add(s.checkEmailConfig())

	if !report.Healthy {
		slog.Warn("Health check reported failures", "components", len(report.Components))
	}
	return report
}

func (r *HealthReport) add(status ComponentStatus) {
	r.Components = append(r.Components, status)
	if !status.OK {
		r.Healthy = false
	}
}

func (s *HealthService) checkDatabase() ComponentStatus {
	start := time.Now()
	status := ComponentStatus{Name: "database", OK: true}

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		status.OK = false
		status.Detail = err.Error()
	}

	status.LatencyMS = time.Since(start).Milliseconds()
	return status
}

func (s *HealthService) checkWeatherProvider() ComponentStatus {
	start := time.Now()
	status := ComponentStatus{Name: "weather_provider", OK: true}

	snapshot, err := s.weather.CurrentByCity(s.testCity)
	if err != nil {
		status.OK = false
		status.Detail = err.Error()
	} else if snapshot.City == "" {
		status.OK = false
		status.Detail = "provider returned an empty snapshot"
	}

	status.LatencyMS = time.Since(start).Milliseconds()
	return status
}

func (s *HealthService) checkImageProvider() ComponentStatus {
	start := time.Now()
	status := ComponentStatus{Name: "image_lookup", OK: true}

	// The image provider always falls back to a stock image, so an empty
	// result means the lookup itself is broken.
	if url := s.images.CityImage(s.testCity); url == "" {
		status.OK = false
		status.Detail = "image lookup returned no url"
	}

	status.LatencyMS = time.Since(start).Milliseconds()
	return status
}

func (s *HealthService) checkEmailConfig() ComponentStatus {
	status := ComponentStatus{Name: "email_config", OK: true}

	if s.email.SMTPHost == "" || s.email.SMTPUsername == "" || s.email.SMTPPassword == "" {
		status.OK = false
		status.Detail = "smtp settings are incomplete"
	}

	return status
}
