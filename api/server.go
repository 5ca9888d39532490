// Package api exposes the HTTP surface of the application
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	stderrors "errors"

	"climascope.app/errors"
	"climascope.app/scheduler"
	"climascope.app/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// userIDHeader carries the authenticated user's id, set by the upstream auth
// proxy. Authentication itself happens outside this service.
const userIDHeader = "X-User-ID"

// Server wires HTTP routes to the application services.
type Server struct {
	router    *gin.Engine
	weather   *service.WeatherService
	accounts  *service.AccountService
	favorites *service.FavoriteService
	alerts    *service.AlertService
	email     *service.EmailService
	health    *service.HealthService
	sched     *scheduler.Scheduler
}

// NewServer creates the HTTP server and registers all routes
func NewServer(
	weather *service.WeatherService,
	accounts *service.AccountService,
	favorites *service.FavoriteService,
	alerts *service.AlertService,
	email *service.EmailService,
	health *service.HealthService,
	sched *scheduler.Scheduler,
) *Server {
	server := &Server{
		router:    gin.Default(),
		weather:   weather,
		accounts:  accounts,
		favorites: favorites,
		alerts:    alerts,
		email:     email,
		health:    health,
		sched:     sched,
	}
	registerValidators()
	server.setupRoutes()
	return server
}

// registerValidators installs the custom binding rules request payloads use.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("/health", s.healthHandler)

		api.GET("/weather", s.weatherHandler)
		api.GET("/forecast", s.forecastHandler)
		api.GET("/city-image", s.cityImageHandler)

		api.POST("/register", s.registerHandler)
		api.GET("/verify/:token", s.verifyHandler)

		authed := api.Group("", s.requireUser())
		{
			authed.POST("/verification/resend", s.resendVerificationHandler)
			authed.GET("/profile", s.profileHandler)
			authed.PUT("/settings", s.updateSettingsHandler)
			authed.POST("/account/deactivate", s.deactivateHandler)
			authed.POST("/account/reactivate", s.reactivateHandler)
			authed.POST("/account/password-changed", s.passwordChangedHandler)
			authed.DELETE("/account", s.deleteAccountHandler)

			authed.GET("/favorites", s.listFavoritesHandler)
			authed.POST("/favorites", s.addFavoriteHandler)
			authed.PUT("/favorites/:city/thresholds", s.updateThresholdsHandler)
			authed.DELETE("/favorites/:city", s.removeFavoriteHandler)

			authed.GET("/dashboard", s.dashboardHandler)
		}

		api.GET("/jobs", s.jobsHandler)
	}
}

// Handler returns the underlying http handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server on the given address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// requireUser extracts the authenticated user id from the proxy header.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.GetHeader(userIDHeader), 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid user identity"})
			return
		}
		c.Set("userID", uint(id))
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	if id, ok := c.Get("userID"); ok {
		return id.(uint)
	}
	return 0
}

// optionalUserID reads the identity header without requiring it.
func optionalUserID(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.GetHeader(userIDHeader), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// handleError maps application errors to HTTP responses.
func (s *Server) handleError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		slog.Error("Unhandled error", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var status int
	switch appErr.Type {
	case errors.ErrorTypeValidation, errors.ErrorTypeToken:
		status = http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case errors.ErrorTypeAlreadyExists:
		status = http.StatusConflict
	case errors.ErrorTypeExternalAPI, errors.ErrorTypeEmail:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "path", c.Request.URL.Path)
	}
	c.JSON(status, gin.H{"error": appErr.Message})
}
