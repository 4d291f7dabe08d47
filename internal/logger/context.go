package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithRequestLogger attaches the HTTP request logger to ctx.
func WithRequestLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// ForTransaction returns the request logger, or base for requests that did not
// arrive over HTTP, tagged with the protocol transaction ID when there is one.
func ForTransaction(ctx context.Context, base *zap.Logger, txID string) *zap.Logger {
	l, ok := ctx.Value(ctxKey{}).(*zap.Logger)
	if !ok || l == nil {
		l = base
	}
	if txID == "" {
		return l
	}
	return l.With(zap.String("transaction_id", txID))
}
