package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BastienLeGuellec/PARROT-rating/internal/model"
	"github.com/BastienLeGuellec/PARROT-rating/internal/pkg/jwt"
	"github.com/BastienLeGuellec/PARROT-rating/internal/service"
	"github.com/BastienLeGuellec/PARROT-rating/internal/session"
)

// Handler serves the auth endpoints.
type Handler struct {
	auth     *service.Auth
	sessions *session.Manager
}

// NewHandler creates the auth handler.
func NewHandler(auth *service.Auth, sessions *session.Manager) *Handler {
	return &Handler{auth: auth, sessions: sessions}
}

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var req model.UserLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	tokenResp, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tokenResp)
}

// Logout records the logout and closes the live session
func (h *Handler) Logout(c *gin.Context) {
	username := c.GetString("username")
	h.auth.Logout(c.Request.Context(), username)
	h.sessions.Close(c.Request.Context(), username)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetCurrentUser returns the current user
func (h *Handler) GetCurrentUser(c *gin.Context) {
	username := c.GetString("username")

	user, err := h.auth.CurrentUser(username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// AuthMiddleware validates JWT token
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authorization header missing"})
			c.Abort()
			return
		}

		token, err := jwt.ExtractTokenFromHeader(authHeader)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			if err == jwt.ErrExpiredToken {
				c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token has expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
			}
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// AdminMiddleware checks if user is admin
func AdminMiddleware(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString("username")
		if !auth.IsAdmin(username) {
			c.JSON(http.StatusForbidden, gin.H{"detail": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
