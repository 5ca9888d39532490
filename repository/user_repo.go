// Package repository implements data access layer for the application
package repository

import (
	"errors"
	"log/slog"
	"time"

	"climascope.app/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository handles data access operations for users
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository for user data
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a new user
func (r *UserRepository) Create(user *models.User) error {
	result := r.db.Create(user)
	if result.Error != nil {
		slog.Error("Database error when creating user", "error", result.Error)
		return result.Error
	}

	slog.Debug("Created user", "id", user.ID, "username", user.Username)
	return nil
}

// FindByID retrieves a user by its ID
func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	result := r.db.First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("Database error when finding user by ID", "error", result.Error, "id", id)
		return nil, result.Error
	}

	return &user, nil
}

// FindByUsername retrieves a user by username
func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	result := r.db.Where("username = ?", username).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("Database error when finding user by username", "error", result.Error, "username", username)
		return nil, result.Error
	}

	return &user, nil
}

// EligibleForAlerts retrieves users who pass the notification gate and have
// weather alerts enabled.
func (r *UserRepository) EligibleForAlerts() ([]models.User, error) {
	return r.eligibleWith("user_profiles.weather_alerts = ?")
}

// EligibleForSummaries retrieves users who pass the notification gate and
// have the daily summary enabled.
func (r *UserRepository) EligibleForSummaries() ([]models.User, error) {
	return r.eligibleWith("user_profiles.daily_summary = ?")
}

func (r *UserRepository) eligibleWith(toggleCondition string) ([]models.User, error) {
	var users []models.User
	result := r.db.
		Joins("JOIN user_profiles ON user_profiles.user_id = users.id").
		Where("user_profiles.is_email_verified = ?", true).
		Where("user_profiles.email_notifications = ?", true).
		Where("user_profiles.is_deactivated = ?", false).
		Where(toggleCondition, true).
		Find(&users)
	if result.Error != nil {
		slog.Error("Database error when listing eligible users", "error", result.Error)
		return nil, result.Error
	}

	slog.Debug("Found eligible users", "count", len(users))
	return users, nil
}

// ProfileRepository handles data access operations for user profiles
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository for profile data
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetOrCreate retrieves the profile for a user, creating a default one when
// missing. Missing profiles are treated as unverified.
func (r *ProfileRepository) GetOrCreate(userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	result := r.db.Where("user_id = ?", userID).First(&profile)
	if result.Error == nil {
		return &profile, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		slog.Error("Database error when finding profile", "error", result.Error, "user_id", userID)
		return nil, result.Error
	}

	profile = models.UserProfile{
		UserID:              userID,
		EmailNotifications:  true,
		WeatherAlerts:       true,
		SevereWeatherAlerts: true,
	}
	if err := r.db.Create(&profile).Error; err != nil {
		slog.Error("Database error when creating profile", "error", err, "user_id", userID)
		return nil, err
	}

	slog.Debug("Created profile lazily", "user_id", userID)
	return &profile, nil
}

// FindByVerificationToken retrieves a profile by its verification token
func (r *ProfileRepository) FindByVerificationToken(token string) (*models.UserProfile, error) {
	var profile models.UserProfile
	result := r.db.Where("verification_token = ?", token).First(&profile)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("Database error when finding profile by token", "error", result.Error)
		return nil, result.Error
	}

	return &profile, nil
}

// Save persists profile changes
func (r *ProfileRepository) Save(profile *models.UserProfile) error {
	result := r.db.Save(profile)
	if result.Error != nil {
		slog.Error("Database error when saving profile", "error", result.Error, "user_id", profile.UserID)
		return result.Error
	}
	return nil
}

// IssueVerificationToken rotates the verification token and stamps the send
// time, starting a fresh 24h validity window.
func (r *ProfileRepository) IssueVerificationToken(profile *models.UserProfile) (string, error) {
	now := time.Now()
	profile.VerificationToken = uuid.New().String()
	profile.VerificationSentAt = &now

	if err := r.Save(profile); err != nil {
		return "", err
	}

	return profile.VerificationToken, nil
}
