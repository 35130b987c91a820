package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmacy/pos-backend/internal/interfaces/http/dto"
)

// BodyLimit caps the request body size. Billing payloads are small JSON
// documents, so anything near the limit is a client gone wrong.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			resp := dto.NewErrorResponse(dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp)
			return
		}

		// Chunked requests declare no length up front, so cap the reader too
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
