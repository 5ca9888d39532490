package api

import (
	"net/http"
	"strconv"

	"climascope.app/errors"
	"climascope.app/models"
	"github.com/gin-gonic/gin"
)

func (s *Server) healthHandler(c *gin.Context) {
	report := s.health.Check()
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func (s *Server) weatherHandler(c *gin.Context) {
	userID := optionalUserID(c)

	latParam := c.Query("lat")
	lonParam := c.Query("lon")
	if latParam != "" || lonParam != "" {
		lat, latErr := strconv.ParseFloat(latParam, 64)
		lon, lonErr := strconv.ParseFloat(lonParam, 64)
		if latErr != nil || lonErr != nil {
			s.handleError(c, errors.NewValidationError("lat and lon must both be valid numbers"))
			return
		}

		snapshot, err := s.lookupByCoords(userID, lat, lon)
		if err != nil {
			s.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, snapshot)
		return
	}

	city := c.Query("city")
	if city == "" {
		s.handleError(c, errors.NewValidationError("city query parameter is required"))
		return
	}

	snapshot, err := s.lookupByCity(userID, city)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// Anonymous lookups skip history recording.
func (s *Server) lookupByCity(userID uint, city string) (*models.WeatherSnapshot, error) {
	if userID == 0 {
		return s.weather.Current(city)
	}
	return s.weather.Lookup(userID, city)
}

func (s *Server) lookupByCoords(userID uint, lat, lon float64) (*models.WeatherSnapshot, error) {
	if userID == 0 {
		return s.weather.CurrentByCoords(lat, lon)
	}
	return s.weather.LookupByCoords(userID, lat, lon)
}

func (s *Server) forecastHandler(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		s.handleError(c, errors.NewValidationError("city query parameter is required"))
		return
	}

	days, err := s.weather.Forecast(city)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": city, "days": days})
}

func (s *Server) cityImageHandler(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		s.handleError(c, errors.NewValidationError("city query parameter is required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": city, "image_url": s.weather.CityImage(city)})
}

func (s *Server) registerHandler(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		s.handleError(c, errors.NewValidationError("invalid registration payload: "+err.Error()))
		return
	}

	user, err := s.accounts.Register(&req)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) verifyHandler(c *gin.Context) {
	user, err := s.accounts.VerifyEmail(c.Param("token"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email verified", "user_id": user.ID})
}

func (s *Server) resendVerificationHandler(c *gin.Context) {
	if err := s.accounts.ResendVerification(currentUserID(c)); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification email sent"})
}

func (s *Server) profileHandler(c *gin.Context) {
	user, profile, err := s.accounts.GetProfile(currentUserID(c))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

func (s *Server) updateSettingsHandler(c *gin.Context) {
	var req models.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.handleError(c, errors.NewValidationError("invalid settings payload: "+err.Error()))
		return
	}

	profile, err := s.accounts.UpdateSettings(currentUserID(c), &req)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) deactivateHandler(c *gin.Context) {
	if err := s.accounts.Deactivate(currentUserID(c)); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deactivated"})
}

func (s *Server) reactivateHandler(c *gin.Context) {
	if err := s.accounts.Reactivate(currentUserID(c)); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account reactivated"})
}

// passwordChangedHandler is called by the upstream auth system after a
// password change so the user gets notified.
func (s *Server) passwordChangedHandler(c *gin.Context) {
	if err := s.accounts.NotifyPasswordChanged(currentUserID(c)); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password change notification sent"})
}

func (s *Server) deleteAccountHandler(c *gin.Context) {
	if err := s.accounts.Delete(currentUserID(c)); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

func (s *Server) listFavoritesHandler(c *gin.Context) {
	favorites, err := s.favorites.List(currentUserID(c))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, favorites)
}

func (s *Server) addFavoriteHandler(c *gin.Context) {
	var req models.FavoriteRequest
	if err := c.ShouldBind(&req); err != nil {
		s.handleError(c, errors.NewValidationError("invalid favorite payload: "+err.Error()))
		return
	}

	favorite, err := s.favorites.Add(currentUserID(c), &req)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, favorite)
}

func (s *Server) updateThresholdsHandler(c *gin.Context) {
	var req models.ThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.handleError(c, errors.NewValidationError("invalid threshold payload: "+err.Error()))
		return
	}

	favorite, err := s.favorites.UpdateThresholds(currentUserID(c), c.Param("city"), &req)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, favorite)
}

func (s *Server) removeFavoriteHandler(c *gin.Context) {
	if err := s.favorites.Remove(currentUserID(c), c.Param("city")); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "favorite removed"})
}

// dashboardHandler bundles the reads the dashboard page needs in one call.
func (s *Server) dashboardHandler(c *gin.Context) {
	userID := currentUserID(c)

	favorites, err := s.favorites.List(userID)
	if err != nil {
		s.handleError(c, err)
		return
	}
	history, err := s.weather.History(userID, 10)
	if err != nil {
		s.handleError(c, err)
		return
	}
	alerts, err := s.alerts.RecentAlerts(userID, 10)
	if err != nil {
		s.handleError(c, err)
		return
	}
	notifications, err := s.email.RecentNotifications(userID, 10)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"favorites":            favorites,
		"recent_history":       history,
		"recent_alerts":        alerts,
		"recent_notifications": notifications,
	})
}

func (s *Server) jobsHandler(c *gin.Context) {
	if s.sched == nil {
		c.JSON(http.StatusOK, gin.H{"jobs": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": s.sched.Status()})
}
