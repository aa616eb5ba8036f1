package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	httpTracer             = otel.Tracer("arena/http")
	httpMeter              = otel.Meter("arena/http")
	httpRequestDuration, _ = httpMeter.Float64Histogram("arena.http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	httpRequestTotal, _ = httpMeter.Int64Counter("arena.http.request.total",
		metric.WithDescription("Total HTTP requests"),
	)
)

// Tracing opens a server span per request and records duration and count.
// Place it inside Identity so spans carry the user. Unmatched paths share one
// route label to keep metric cardinality bounded.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := httpTracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()
		if userID, ok := UserIDFromContext(ctx); ok {
			span.SetAttributes(attribute.String("enduser.id", userID))
		}

		start := time.Now()
		rec := wrapResponseWriter(w)
		req := r.WithContext(ctx)
		next.ServeHTTP(rec, req)

		status := rec.Status()
		if status == 0 {
			status = http.StatusOK
		}
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.Int("http.response_size", rec.bytes),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		set := metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		httpRequestDuration.Record(ctx, time.Since(start).Seconds(), set)
		httpRequestTotal.Add(ctx, 1, set)
	})
}
