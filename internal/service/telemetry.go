package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "brokerage-chat/backend/internal/service"

// startOp opens a span for a service operation. The returned func ends it and
// records the duration, marking the span failed for anything but client errors.
func startOp(ctx context.Context, name, sessionID string) (context.Context, func(error)) {
	attrs := []attribute.KeyValue{attribute.String("chat.operation", name)}
	if sessionID != "" {
		attrs = append(attrs, attribute.String("chat.session_id", sessionID))
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			if isClientError(err) {
				outcome = "rejected"
			} else {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		}

		if hist, herr := otel.Meter(instrumentationName).Float64Histogram(
			"chat.operation.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of chat service operations"),
		); herr == nil {
			hist.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
				attribute.String("operation", name),
				attribute.String("outcome", outcome),
			))
		}

		span.End()
	}
}

func isClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionClaimed) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrOperatorInactive) ||
		errors.Is(err, ErrOperatorExists)
}
