package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oakyard/oakyard/internal/domain"
)

// writeError maps a classified domain error to an HTTP status. Unclassified
// errors are treated as bad input, matching how handlers respond to
// validation failures.
func writeError(c *gin.Context, err error) {
	var slotErr *domain.SlotUnavailableError
	var transitionErr *domain.InvalidTransitionError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &slotErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":          slotErr.Error(),
			"conflict_start": slotErr.ConflictStart,
			"conflict_end":   slotErr.ConflictEnd,
		})
	case errors.As(err, &transitionErr),
		errors.Is(err, domain.ErrRoomFull),
		errors.Is(err, domain.ErrDuplicateReview):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAccessDenied),
		errors.Is(err, domain.ErrNotAParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRoomExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCollaboratorUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
