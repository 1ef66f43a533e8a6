package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pos-dispatch/internal/pkg/apperrors"
)

// Bulkhead caps concurrent requests on a route group. The location
// endpoints get their own pool so a burst of position reports cannot
// starve claims and status changes.
func Bulkhead(maxConcurrent int) gin.HandlerFunc {
	sem := make(chan struct{}, maxConcurrent)

	return func(c *gin.Context) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, apperrors.ErrorResponse{
				Error: apperrors.ErrorBody{
					Code:    "SERVICE_UNAVAILABLE",
					Message: "server is at capacity, please try again later",
				},
			})
		}
	}
}
