package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware opens a span per request. An incoming X-Trace-ID is
// continued; otherwise the request id becomes the trace id.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := TraceID(c.GetHeader(HeaderTraceID))
		if traceID == "" {
			traceID = TraceID(c.Writer.Header().Get("X-Request-ID"))
		}
		ctx := ContextWith(c.Request.Context(), traceID, SpanID(c.GetHeader(HeaderSpanID)))

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+route)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)
		if user := c.GetHeader("X-User-ID"); user != "" {
			span.SetTag("user_id", user)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderTraceID, string(span.TraceID))
		c.Header(HeaderSpanID, string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		span.Finish()
		tracer.Submit(span)
	}
}
