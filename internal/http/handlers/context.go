package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// boundedCtx derives from the request so trace and principal values survive.
func boundedCtx(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}
