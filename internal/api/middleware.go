package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

const actorKey = "actor"

// RequireActor takes the acting user from the Authorization header. The
// header value is opaque; it is recorded verbatim on every event.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader("Authorization"))
		if actor == "" {
			respondError(c, http.StatusUnauthorized, CodeUnauthorized, errors.New("authorization required"))
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorOf(c *gin.Context) string {
	return c.GetString(actorKey)
}

// RequestLogger logs one line per request at a level chosen by status.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			attrs = append(attrs, "trace_id", sc.TraceID().String())
		}
		if actor := actorOf(c); actor != "" {
			attrs = append(attrs, "actor", actor)
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.ErrorContext(ctx, "HTTP request", attrs...)
		case status >= 400:
			log.WarnContext(ctx, "HTTP request", attrs...)
		default:
			log.InfoContext(ctx, "HTTP request", attrs...)
		}
	}
}
