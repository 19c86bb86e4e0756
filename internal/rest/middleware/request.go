package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/subkit/subkit/internal/types"
)

// RequestIDMiddleware tags every request with a correlation id and carries
// the acting user onto the request context.
func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)

	if userID := c.GetHeader(types.HeaderUserID); userID != "" {
		ctx = context.WithValue(ctx, types.CtxUserID, userID)
	}

	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}
