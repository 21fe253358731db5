package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("pyramid-league/internal/interfaces/httpapi")

// startHandlerSpan opens a child of the otelhttp request span, tagged with the
// season from the route when there is one. Untraced requests get no span.
func startHandlerSpan(r *http.Request, name string) (context.Context, trace.Span) {
	ctx := r.Context()
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, trace.SpanFromContext(ctx)
	}

	var opts []trace.SpanStartOption
	if raw := r.PathValue("seasonID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			opts = append(opts, trace.WithAttributes(attribute.Int64("pyramid.season_id", id)))
		}
	}
	return apiTracer.Start(ctx, "httpapi.Handler."+name, opts...)
}

// markSpanFailed flags server-side failures only; 4xx responses are the caller's fault.
func markSpanFailed(ctx context.Context, status int, err error) {
	if status < http.StatusInternalServerError {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, http.StatusText(status))
}
