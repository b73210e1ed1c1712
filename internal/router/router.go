package router

import (
	"time"

	"github.com/devevents/devevents/internal/attendance"
	"github.com/devevents/devevents/internal/auth"
	"github.com/devevents/devevents/internal/config"
	"github.com/devevents/devevents/internal/geocode"
	"github.com/devevents/devevents/internal/handlers"
	"github.com/devevents/devevents/internal/mailer"
	"github.com/devevents/devevents/internal/middleware"
	"github.com/devevents/devevents/internal/ratelimit"
	"github.com/devevents/devevents/internal/upload"
	"github.com/devevents/devevents/internal/validation"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps holds everything the route handlers need; main constructs it once.
type Deps struct {
	Config    config.Config
	DB        *gorm.DB
	Sessions  *auth.SessionManager
	Engine    *attendance.Engine
	Uploader  upload.Uploader
	Geocoder  geocode.Geocoder
	Mailer    mailer.Mailer
	RateLimit ratelimit.Store
}

func New(deps Deps) *gin.Engine {
	validation.Init()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if deps.RateLimit != nil {
		r.Use(middleware.RateLimit(deps.RateLimit, deps.Config.RateLimitPerMinute))
	}

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Sessions)
	userHandler := handlers.NewUserHandler(deps.DB, deps.Sessions)
	eventHandler := handlers.NewEventHandler(deps.DB, deps.Engine, deps.Uploader, deps.Geocoder, deps.Mailer)

	requireAuth := middleware.Auth(deps.Sessions)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.DELETE("/logout", requireAuth, authHandler.Logout)
		}

		users := api.Group("/users")
		{
			users.POST("", userHandler.Create)
			users.GET("", userHandler.List)
			users.GET("/events", requireAuth, userHandler.AuthUserEvents)
			users.GET("/:id", requireAuth, userHandler.Get)
			users.PUT("/:id", requireAuth, userHandler.Update)
			users.PUT("/:id/password", requireAuth, userHandler.UpdatePassword)
			users.DELETE("/:id", requireAuth, userHandler.Delete)
			users.GET("/:id/events", requireAuth, userHandler.UserEvents)
		}

		events := api.Group("/events")
		{
			events.GET("/categories", eventHandler.ListCategories)
			events.GET("", requireAuth, eventHandler.List)
			events.POST("", requireAuth, eventHandler.Create)
			events.GET("/:id", requireAuth, eventHandler.Get)
			events.PUT("/:id", requireAuth, eventHandler.Update)
			events.DELETE("/:id", requireAuth, eventHandler.Delete)
			events.PUT("/:id/cover-image", requireAuth, eventHandler.CoverImage)
			events.PUT("/:id/attendees", requireAuth, eventHandler.Join)
			events.DELETE("/:id/attendees", requireAuth, eventHandler.Leave)
		}
	}

	return r
}
