package api

import (
	"github.com/gin-gonic/gin"

	adminapi "github.com/BastienLeGuellec/PARROT-rating/internal/api/admin"
	authapi "github.com/BastienLeGuellec/PARROT-rating/internal/api/auth"
	ratingapi "github.com/BastienLeGuellec/PARROT-rating/internal/api/rating"
	"github.com/BastienLeGuellec/PARROT-rating/internal/service"
	"github.com/BastienLeGuellec/PARROT-rating/internal/session"
)

// Deps holds everything the HTTP layer needs.
type Deps struct {
	Auth     *service.Auth
	Admin    *service.Admin
	Sessions *session.Manager
}

// SetupRouter configures all routes
func SetupRouter(r *gin.Engine, d Deps) {
	r.Use(CORSMiddleware())

	// Health check
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "PARROT rating API is running",
			"version": "1.0.0",
		})
	})

	authHandler := authapi.NewHandler(d.Auth, d.Sessions)
	ratingHandler := ratingapi.NewHandler(d.Sessions)
	adminHandler := adminapi.NewHandler(d.Admin)

	// Auth routes
	authRoutes := r.Group("/api/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.GET("/me", authapi.AuthMiddleware(), authHandler.GetCurrentUser)
		authRoutes.POST("/logout", authapi.AuthMiddleware(), authHandler.Logout)
	}

	// API routes that require authentication
	api := r.Group("/api")
	api.Use(authapi.AuthMiddleware())
	{
		ratingGroup := api.Group("/rating")
		{
			ratingGroup.GET("/next", ratingHandler.Next)
			ratingGroup.POST("/submit", ratingHandler.Submit)
			ratingGroup.GET("/progress", ratingHandler.Progress)
		}

		// Admin routes (read-only)
		adminGroup := api.Group("/admin")
		adminGroup.Use(authapi.AdminMiddleware(d.Auth))
		{
			adminGroup.GET("/users", adminHandler.GetUsers)
			adminGroup.GET("/logs/:username", adminHandler.GetLog)
		}
	}
}

// CORSMiddleware provides CORS support
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
