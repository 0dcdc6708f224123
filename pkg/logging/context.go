package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
)

// WithLogger returns ctx carrying logger. A nil logger means Default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the context logger, or Default when there is none.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// Ctx is FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithRequestID stores id on ctx and adds it to the context logger.
func WithRequestID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, id)
	return withStr(ctx, "request_id", id)
}

// RequestID returns the id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTenant adds the tenant id to the context logger.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return withStr(ctx, "tenant_id", tenantID)
}

// WithActor adds the acting user id to the context logger.
func WithActor(ctx context.Context, actorID string) context.Context {
	return withStr(ctx, "actor_id", actorID)
}

// WithRecord adds a record id to the context logger.
func WithRecord(ctx context.Context, recordID string) context.Context {
	return withStr(ctx, "record_id", recordID)
}

// WithBatch adds a promotion batch id to the context logger.
func WithBatch(ctx context.Context, batchID string) context.Context {
	return withStr(ctx, "batch_id", batchID)
}

func withStr(ctx context.Context, key, value string) context.Context {
	if value == "" {
		return ctx
	}
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, &logger)
}
