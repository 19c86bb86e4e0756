package middleware

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	ierr "github.com/subkit/subkit/internal/errors"
)

// ErrorHandler translates errors attached to the gin context into the
// standard error response shape. Handlers call c.Error and return; status
// codes come from the error's mark.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			response := ierr.ErrorResponse{
				Success: false,
				Error: ierr.ErrorDetail{
					Display: getDisplayMessage(err),
					Details: getSafeDetails(err),
				},
			}

			c.JSON(ierr.HTTPStatusFromErr(err), response)
		}
	}
}

func getDisplayMessage(err error) string {
	// hints are post-order; the first non-empty one is the most specific
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		for _, hint := range hints {
			if hint = strings.TrimSpace(hint); hint != "" {
				return hint
			}
		}
	}

	return "An unexpected error occurred"
}

func getSafeDetails(err error) map[string]any {
	details := make(map[string]any)

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			if len(payload) > 9 && strings.HasPrefix(payload, "__json__:") {
				var jsonDetails map[string]any
				if err := json.Unmarshal([]byte(payload[9:]), &jsonDetails); err == nil {
					for k, v := range jsonDetails {
						details[k] = v
					}
				}
			}
		}
	}

	return details
}
