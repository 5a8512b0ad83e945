package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BastienLeGuellec/PARROT-rating/internal/service"
)

// Handler serves the read-only admin endpoints.
type Handler struct {
	admin *service.Admin
}

// NewHandler creates the admin handler.
func NewHandler(admin *service.Admin) *Handler {
	return &Handler{admin: admin}
}

// GetUsers returns all provisioned users
func (h *Handler) GetUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.admin.ListUsers()})
}

// GetLog returns a user's full action log
func (h *Handler) GetLog(c *gin.Context) {
	username := c.Param("username")

	events, err := h.admin.ReadLog(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": username, "events": events})
}
