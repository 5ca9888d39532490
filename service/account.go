package service

import (
	"log/slog"
	"strings"
	"time"

	"climascope.app/errors"
	"climascope.app/models"
	"climascope.app/repository"
	"gorm.io/gorm"
)

// AccountService handles registration, email verification and account
// lifecycle operations.
type AccountService struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	profileRepo *repository.ProfileRepository
	email       *EmailService
}

// NewAccountService creates an account management service
func NewAccountService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	profileRepo *repository.ProfileRepository,
	email *EmailService,
) *AccountService {
	return &AccountService{
		db:          db,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		email:       email,
	}
}

// Register creates a user with a default profile and sends the verification
// email. A verification delivery failure does not fail registration; the user
// can request a resend.
func (s *AccountService) Register(req *models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" {
		return nil, errors.NewValidationError("username cannot be empty")
	}
	if email == "" {
		return nil, errors.NewValidationError("email cannot be empty")
	}

	existing, err := s.userRepo.FindByUsername(username)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to check username", err)
	}
	if existing != nil {
		return nil, errors.NewAlreadyExistsError("username is already taken")
	}

	user := &models.User{
		Username:  username,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     email,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, errors.NewDatabaseError("failed to create user", err)
	}

	profile, err := s.profileRepo.GetOrCreate(user.ID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to create profile", err)
	}

	token, err := s.profileRepo.IssueVerificationToken(profile)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to issue verification token", err)
	}

	if err := s.email.SendVerificationEmail(user, token); err != nil {
		slog.Warn("Verification email failed during registration", "error", err, "user_id", user.ID)
	}

	slog.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// VerifyEmail redeems a verification token. Expired or unknown tokens are
// rejected; verifying an already verified profile is a no-op.
func (s *AccountService) VerifyEmail(token string) (*models.User, error) {
	if token == "" {
		return nil, errors.NewTokenError("verification token is missing")
	}

	profile, err := s.profileRepo.FindByVerificationToken(token)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to look up verification token", err)
	}
	if profile == nil {
		return nil, errors.NewTokenError("invalid verification token")
	}

	user, err := s.userRepo.FindByID(profile.UserID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load user", err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("user not found")
	}

	if profile.IsEmailVerified {
		return user, nil
	}
	if !profile.IsVerificationTokenValid() {
		return nil, errors.NewTokenError("verification token has expired")
	}

	profile.IsEmailVerified = true
	profile.VerificationToken = ""
	profile.VerificationSentAt = nil
	if err := s.profileRepo.Save(profile); err != nil {
		return nil, errors.NewDatabaseError("failed to save profile", err)
	}

	if err := s.email.SendWelcomeEmail(user); err != nil {
		slog.Warn("Welcome email failed", "error", err, "user_id", user.ID)
	}

	slog.Info("Email verified", "user_id", user.ID)
	return user, nil
}

// ResendVerification rotates the verification token and re-sends the link.
func (s *AccountService) ResendVerification(userID uint) error {
	user, profile, err := s.load(userID)
	if err != nil {
		return err
	}
	if profile.IsEmailVerified {
		return errors.NewValidationError("email is already verified")
	}

	token, err := s.profileRepo.IssueVerificationToken(profile)
	if err != nil {
		return errors.NewDatabaseError("failed to issue verification token", err)
	}

	return s.email.SendVerificationEmail(user, token)
}

// GetProfile returns a user together with their profile.
func (s *AccountService) GetProfile(userID uint) (*models.User, *models.UserProfile, error) {
	user, profile, err := s.load(userID)
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

// UpdateSettings applies notification toggle changes. Nil fields are left
// unchanged.
func (s *AccountService) UpdateSettings(userID uint, req *models.SettingsRequest) (*models.UserProfile, error) {
	user, profile, err := s.load(userID)
	if err != nil {
		return nil, err
	}

	if req.EmailNotifications != nil {
		profile.EmailNotifications = *req.EmailNotifications
	}
	if req.WeatherAlerts != nil {
		profile.WeatherAlerts = *req.WeatherAlerts
	}
	if req.DailySummary != nil {
		profile.DailySummary = *req.DailySummary
	}
	if req.SevereWeatherAlerts != nil {
		profile.SevereWeatherAlerts = *req.SevereWeatherAlerts
	}

	if err := s.profileRepo.Save(profile); err != nil {
		return nil, errors.NewDatabaseError("failed to save settings", err)
	}

	if err := s.email.SendSettingsChanged(user, profile); err != nil {
		slog.Warn("Settings change email failed", "error", err, "user_id", userID)
	}

	return profile, nil
}

// Deactivate pauses the account. All notification emails stop until
// reactivation.
func (s *AccountService) Deactivate(userID uint) error {
	user, profile, err := s.load(userID)
	if err != nil {
		return err
	}
	if profile.IsDeactivated {
		return errors.NewValidationError("account is already deactivated")
	}

	now := time.Now()
	profile.IsDeactivated = true
	profile.DeactivatedAt = &now
	if err := s.profileRepo.Save(profile); err != nil {
		return errors.NewDatabaseError("failed to deactivate account", err)
	}

	if err := s.email.SendAccountDeactivated(user); err != nil {
		slog.Warn("Deactivation email failed", "error", err, "user_id", userID)
	}

	slog.Info("Account deactivated", "user_id", userID)
	return nil
}

// Reactivate resumes a deactivated account and sends a welcome-back notice.
func (s *AccountService) Reactivate(userID uint) error {
	user, profile, err := s.load(userID)
	if err != nil {
		return err
	}
	if !profile.IsDeactivated {
		return errors.NewValidationError("account is not deactivated")
	}

	profile.IsDeactivated = false
	profile.DeactivatedAt = nil
	if err := s.profileRepo.Save(profile); err != nil {
		return errors.NewDatabaseError("failed to reactivate account", err)
	}

	if err := s.email.SendAccountReactivated(user); err != nil {
		slog.Warn("Reactivation email failed", "error", err, "user_id", userID)
	}

	slog.Info("Account reactivated", "user_id", userID)
	return nil
}

// NotifyPasswordChanged sends the password-change notice. The credential
// change itself happens in the upstream auth system; this only records and
// delivers the notification.
func (s *AccountService) NotifyPasswordChanged(userID uint) error {
	user, profile, err := s.load(userID)
	if err != nil {
		return err
	}
	return s.email.SendPasswordChanged(user, profile)
}

// Delete removes the user and all dependent records in one transaction. The
// goodbye email goes out first since the address is gone afterwards.
func (s *AccountService) Delete(userID uint) error {
	user, _, err := s.load(userID)
	if err != nil {
		return err
	}

	if err := s.email.SendAccountDeleted(user); err != nil {
		slog.Warn("Deletion email failed", "error", err, "user_id", userID)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.FavoriteCity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.WeatherAlert{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.EmailNotification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.WeatherHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserProfile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return errors.NewDatabaseError("failed to delete account", err)
	}

	slog.Info("Account deleted", "user_id", userID)
	return nil
}

func (s *AccountService) load(userID uint) (*models.User, *models.UserProfile, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, nil, errors.NewDatabaseError("failed to load user", err)
	}
	if user == nil {
		return nil, nil, errors.NewNotFoundError("user not found")
	}

	profile, err := s.profileRepo.GetOrCreate(userID)
	if err != nil {
		return nil, nil, errors.NewDatabaseError("failed to load profile", err)
	}

	return user, profile, nil
}
