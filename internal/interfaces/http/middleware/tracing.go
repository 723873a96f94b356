package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing returns a middleware that creates a server span for each request
// and propagates incoming trace context
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// TracingEnrichment adds request-scoped attributes to the active span.
// Must run after RequestID and JWT middleware so their values are available.
func TracingEnrichment() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.SpanContext().IsValid() {
			attrs := make([]attribute.KeyValue, 0, 3)
			if requestID := c.GetString("request_id"); requestID != "" {
				attrs = append(attrs, attribute.String("request_id", requestID))
			}
			if userID := GetJWTUserID(c); userID != "" {
				attrs = append(attrs, attribute.String("user_id", userID))
			}
			if role := GetJWTRole(c); role != "" {
				attrs = append(attrs, attribute.String("role", role))
			}
			span.SetAttributes(attrs...)
		}

		c.Next()
	}
}

// SpanErrorMarker marks the active span as errored for 5xx responses and
// records handler errors collected by gin
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.SpanContext().IsValid() {
			return
		}

		status := c.Writer.Status()
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}

		for _, ginErr := range c.Errors {
			span.RecordError(ginErr.Err)
		}
	}
}
