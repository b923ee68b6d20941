package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is the header used to correlate fragment uploads and
// comparison runs across client retries.
const HeaderRequestID = "X-Request-Id"

// maxRequestIDLen guards against clients stuffing arbitrary data into the
// correlation header.
const maxRequestIDLen = 64

// RequestID injects a request ID into every request/response. A valid ID
// supplied by the client is kept so mobile recorders can correlate retried
// fragment submissions; anything else gets a fresh UUID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
