package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/domain"
)

// writeError maps engine errors to HTTP statuses. Internal failures are
// not leaked beyond a generic message.
func writeError(c *gin.Context, err error) {
	var conflict *domain.SlotConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": "slot conflict",
			"conflict": gin.H{
				"start_time": conflict.StartTime.Format("15:04"),
				"end_time":   conflict.EndTime.Format("15:04"),
			},
		})
	case errors.Is(err, domain.ErrInvalidInterval):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
	case errors.Is(err, domain.ErrUnknownPayment), errors.Is(err, domain.ErrBookingNotFound), errors.Is(err, domain.ErrFieldNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrLockContention):
		c.Header("Retry-After", "2")
		c.JSON(http.StatusConflict, gin.H{"error": "payment transition in progress, retry later"})
	case errors.Is(err, domain.ErrBookingPaid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
