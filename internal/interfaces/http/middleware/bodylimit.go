package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyTooLargeMessage is the failure message for a request body over the configured cap
const BodyTooLargeMessage = "Request body exceeds maximum allowed size"

// RequestBodyLimit caps request bodies at maxBytes. A declared Content-Length
// over the cap is answered with 413 before the handler runs. Bodies of unknown
// length are wrapped so that reading past the cap fails with an error that
// BodyTooLarge recognises. A non-positive maxBytes disables the cap.
func RequestBodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			abortWithFailure(c, http.StatusRequestEntityTooLarge, BodyTooLargeMessage)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// BodyTooLarge reports whether err comes from reading past the body cap
func BodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}
