package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"climascope.app/errors"
	"climascope.app/metrics"
	"climascope.app/models"
	"climascope.app/providers"
	"climascope.app/repository"
)

// EmailService renders and delivers notification emails, enforcing the
// per-user notification gate and recording an audit trail of deliveries.
type EmailService struct {
	provider         providers.EmailProvider
	notificationRepo *repository.NotificationRepository
	appBaseURL       string
}

// NewEmailService creates an email notification service
func NewEmailService(
	provider providers.EmailProvider,
	notificationRepo *repository.NotificationRepository,
	appBaseURL string,
) *EmailService {
	return &EmailService{
		provider:         provider,
		notificationRepo: notificationRepo,
		appBaseURL:       strings.TrimRight(appBaseURL, "/"),
	}
}

// CanSend reports whether notification emails may be sent to this profile.
// All three conditions must hold; verification and account lifecycle emails
// bypass this gate.
func (s *EmailService) CanSend(profile *models.UserProfile) bool {
	if profile == nil {
		return false
	}
	return profile.EmailNotifications && !profile.IsDeactivated && profile.IsEmailVerified
}

// SendVerificationEmail delivers the email verification link. Bypasses the
// notification gate: unverified users must be reachable.
func (s *EmailService) SendVerificationEmail(user *models.User, token string) error {
	data := map[string]any{
		"Name":      displayName(user),
		"VerifyURL": fmt.Sprintf("%s/api/verify/%s", s.appBaseURL, token),
	}
	subject := "Verify your email address"
	text := fmt.Sprintf("Hi %s,\n\nVerify your email address by opening this link:\n%s\n\nThe link is valid for 24 hours.",
		data["Name"], data["VerifyURL"])

	return s.deliver(user, EmailKindVerification, subject, text, data)
}

// SendWelcomeEmail confirms a completed verification. Bypasses the gate.
func (s *EmailService) SendWelcomeEmail(user *models.User) error {
	data := map[string]any{"Name": displayName(user)}
	subject := "Welcome to Climascope"
	text := fmt.Sprintf("Hi %s,\n\nYour email address is verified. Add favorite cities to start receiving weather alerts.",
		data["Name"])

	return s.deliver(user, EmailKindWelcome, subject, text, data)
}

// SendWeatherAlert delivers one triggered alert. Severe alerts get an URGENT
// subject prefix. Respects the notification gate; the boolean reports whether
// the email actually went out, so callers never treat a gate skip as a
// delivery.
func (s *EmailService) SendWeatherAlert(user *models.User, profile *models.UserProfile, alert *models.WeatherAlert) (bool, error) {
	if !s.CanSend(profile) {
		slog.Debug("Skipping alert email, notification gate closed", "user_id", user.ID)
		return false, nil
	}

	subject := fmt.Sprintf("Weather alert for %s", alert.CityName)
	if alert.AlertType == models.AlertSevere || alert.AlertType == models.AlertStorm {
		subject = "URGENT: " + subject
	}

	var temperature float64
	if alert.Temperature != nil {
		temperature = *alert.Temperature
	}
	data := map[string]any{
		"Name":        displayName(user),
		"City":        alert.CityName,
		"Message":     alert.Message,
		"Temperature": temperature,
		"Condition":   alert.WeatherCondition,
	}
	text := fmt.Sprintf("Hi %s,\n\n%s", data["Name"], alert.Message)

	if err := s.deliver(user, EmailKindWeatherAlert, subject, text, data); err != nil {
		return false, err
	}
	return true, nil
}

// SendDailySummary delivers the daily digest of favorite-city conditions.
// Respects the notification gate.
func (s *EmailService) SendDailySummary(user *models.User, profile *models.UserProfile, cities []models.CitySummary) error {
	if !s.CanSend(profile) {
		slog.Debug("Skipping summary email, notification gate closed", "user_id", user.ID)
		return nil
	}
	if len(cities) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Your daily weather summary - %s", time.Now().Format("Jan 2"))
	data := map[string]any{
		"Name":   displayName(user),
		"Cities": cities,
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\nToday's weather for your favorite cities:\n", data["Name"])
	for _, city := range cities {
		fmt.Fprintf(&sb, "\n%s: %.1f°C, %s (humidity %.0f%%)", city.City, city.Temperature, city.Description, city.Humidity)
	}

	return s.deliver(user, EmailKindDailySummary, subject, sb.String(), data)
}

// SendAccountDeactivated confirms a deactivation. Bypasses the gate since the
// deactivated flag would otherwise block it.
func (s *EmailService) SendAccountDeactivated(user *models.User) error {
	data := map[string]any{"Name": displayName(user)}
	text := fmt.Sprintf("Hi %s,\n\nYour account has been deactivated.", data["Name"])
	return s.deliver(user, EmailKindDeactivated, "Your account has been deactivated", text, data)
}

// SendAccountReactivated welcomes a user back after reactivation. Bypasses
// the gate, like the other lifecycle notices.
func (s *EmailService) SendAccountReactivated(user *models.User) error {
	data := map[string]any{"Name": displayName(user)}
	text := fmt.Sprintf("Hi %s,\n\nWelcome back! Your account is active again and weather notifications will resume.", data["Name"])
	return s.deliver(user, EmailKindReactivated, "Welcome back to Climascope", text, data)
}

// SendAccountDeleted confirms a deletion. Bypasses the gate.
func (s *EmailService) SendAccountDeleted(user *models.User) error {
	data := map[string]any{"Name": displayName(user)}
	text := fmt.Sprintf("Hi %s,\n\nYour account and all associated data have been deleted.", data["Name"])
	return s.deliver(user, EmailKindDeleted, "Your account has been deleted", text, data)
}

// SendSettingsChanged notifies about a settings update. Respects the gate.
func (s *EmailService) SendSettingsChanged(user *models.User, profile *models.UserProfile) error {
	if !s.CanSend(profile) {
		return nil
	}
	data := map[string]any{"Name": displayName(user)}
	text := fmt.Sprintf("Hi %s,\n\nYour notification settings were updated.", data["Name"])
	return s.deliver(user, EmailKindSettings, "Your notification settings were updated", text, data)
}

// SendPasswordChanged notifies that the password was changed upstream.
// Respects the gate.
func (s *EmailService) SendPasswordChanged(user *models.User, profile *models.UserProfile) error {
	if !s.CanSend(profile) {
		return nil
	}
	data := map[string]any{"Name": displayName(user)}
	text := fmt.Sprintf("Hi %s,\n\nYour password was changed. If you did not make this change, please review your account immediately.", data["Name"])
	return s.deliver(user, EmailKindPasswordChanged, "Your password was changed", text, data)
}

// SendTest delivers a plain test email, used by health checks.
func (s *EmailService) SendTest(to string) error {
	user := &models.User{Email: to, FirstName: "there"}
	data := map[string]any{
		"Name":    "there",
		"Message": "This is a test email confirming that email delivery works.",
	}
	return s.deliver(user, EmailKindGeneric, "Climascope test email", "This is a test email confirming that email delivery works.", data)
}

// deliver renders the template, sends the email and records the audit entry.
// Audit records are written only for successful deliveries.
func (s *EmailService) deliver(user *models.User, kind, subject, textBody string, data map[string]any) error {
	var html strings.Builder
	if err := emailTemplates.ExecuteTemplate(&html, kind, data); err != nil {
		slog.Error("Failed to render email template", "error", err, "kind", kind)
		metrics.RecordEmailFailed(kind)
		return errors.NewEmailError("failed to render email template", err)
	}

	if err := s.provider.SendEmail(user.Email, subject, textBody, html.String()); err != nil {
		slog.Error("Failed to send email", "error", err, "kind", kind, "user_id", user.ID)
		metrics.RecordEmailFailed(kind)
		return err
	}

	metrics.RecordEmailSent(kind)
	slog.Info("Email sent", "kind", kind, "user_id", user.ID)

	if user.ID != 0 {
		now := time.Now()
		record := &models.EmailNotification{
			UserID:    user.ID,
			Subject:   subject,
			Message:   textBody,
			EmailType: kind,
			IsSent:    true,
			SentAt:    &now,
		}
		if err := s.notificationRepo.Create(record); err != nil {
			slog.Warn("Failed to record email audit entry", "error", err, "kind", kind, "user_id", user.ID)
		}
	}

	return nil
}

// RecentNotifications returns the newest delivery audit records for a user.
func (s *EmailService) RecentNotifications(userID uint, limit int) ([]models.EmailNotification, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	records, err := s.notificationRepo.RecentByUser(userID, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load notifications", err)
	}
	return records, nil
}

func displayName(user *models.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.Username != "" {
		return user.Username
	}
	return "there"
}
