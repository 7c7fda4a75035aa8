/*
Package tracing provides lightweight request tracing for the cardspace service.

# Overview

Every HTTP request gets a span. Trace ids travel in the X-Trace-ID and
X-Span-ID headers, so a layout push from one cardspace server to another
(the remote storage backend) shows up under the same trace on both sides.
Finished spans are written to the structured log; successful spans at debug
level, failed ones at error level.

# Usage

	tracer := tracing.New("cardspace", logger.Component("tracing"))
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "sync.pull")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

	// Outgoing requests
	headers := map[string]string{}
	tracing.InjectTraceContext(ctx, headers)
*/
package tracing
