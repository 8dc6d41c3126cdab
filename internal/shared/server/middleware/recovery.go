package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"resume-workspace/internal/shared/server/respond"
	"resume-workspace/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500. The open session for the
// resume is left as it was; nothing here touches editor state.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			}
			if op := c.GetString("sessionOp"); op != "" {
				fields["session_op"] = op
				fields["resume_id"] = c.GetString("resumeId")
			}
			telemetry.Error("panic", fields)
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
