// Package requestid provides request ID propagation via context. The HTTP
// layer seeds the ID from the X-Request-ID header (or mints one) and every
// log line and upstream call downstream of the handler carries it.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header the request ID travels in.
const Header = "X-Request-ID"

type ctxKey struct{}

// WithRequestID returns a context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the request ID from context, or generates a new one.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// New generates a new request ID and returns the enriched context and ID.
func New(ctx context.Context) (context.Context, string) {
	id := uuid.New().String()
	return WithRequestID(ctx, id), id
}
