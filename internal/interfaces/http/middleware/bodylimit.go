package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zenheart/ordersync/internal/interfaces/http/dto"
)

// BodyLimit rejects request bodies over maxBytes. Raw order snapshots are
// posted as full platform payloads, so the limit guards the ingest endpoint
// against runaway bodies.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
			))
			return
		}

		// Cap streaming requests that omit Content-Length.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
