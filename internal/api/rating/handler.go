package rating

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BastienLeGuellec/PARROT-rating/internal/assignment"
	"github.com/BastienLeGuellec/PARROT-rating/internal/catalog"
	"github.com/BastienLeGuellec/PARROT-rating/internal/model"
	"github.com/BastienLeGuellec/PARROT-rating/internal/repository"
	"github.com/BastienLeGuellec/PARROT-rating/internal/session"
)

// Handler serves the rating flow: next item, submit, progress.
type Handler struct {
	sessions *session.Manager
}

// NewHandler creates the rating handler.
func NewHandler(sessions *session.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// Next returns the item the rater should see, or the all_done state.
func (h *Handler) Next(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}

	item, err := ctrl.Next(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	if item == nil {
		c.JSON(http.StatusOK, gin.H{"state": session.StateAllDone.String()})
		return
	}

	// item serializes without the hidden flag
	c.JSON(http.StatusOK, gin.H{
		"state": session.StateAwaitingSubmit.String(),
		"item":  item,
	})
}

// Submit records the verdict for the current item.
func (h *Handler) Submit(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}

	var req model.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	err := ctrl.Submit(c.Request.Context(), req.Verdict, req.Comments)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicateRating):
		// no-op with a warning, the case was already rated
		c.JSON(http.StatusOK, gin.H{
			"message": "Case already rated, submission ignored",
			"warning": true,
		})
		return
	case errors.Is(err, session.ErrNoCurrentItem):
		c.JSON(http.StatusConflict, gin.H{"detail": "No item awaiting submission"})
		return
	case errors.Is(err, session.ErrInvalidVerdict):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	default:
		// the rating was not recorded; the client must retry the same
		// submission, the session has not advanced
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": "Failed to record rating, please retry",
		})
		return
	}

	progress, err := ctrl.Progress(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "Rating submitted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Rating submitted",
		"progress": progress,
	})
}

// Progress returns the rater's progress snapshot.
func (h *Handler) Progress(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}

	progress, err := ctrl.Progress(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress)
}

// session resolves the caller's session controller, writing the error
// response itself when setup fails.
func (h *Handler) session(c *gin.Context) (*session.Controller, bool) {
	username := c.GetString("username")

	ctrl, err := h.sessions.Session(c.Request.Context(), username)
	switch {
	case err == nil:
		return ctrl, true
	case errors.Is(err, assignment.ErrUnknownUser):
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not provisioned for rating"})
	case errors.Is(err, catalog.ErrMissingCase):
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": "Assignment and report collection are out of sync: " + err.Error(),
		})
	case errors.Is(err, session.ErrSessionHeld):
		c.JSON(http.StatusConflict, gin.H{"detail": "Session active elsewhere"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
	}
	return nil, false
}
