package integration

import "context"

type scopeKey struct{}

// WithScope returns a context carrying the scope whose credential authorized the request
func WithScope(ctx context.Context, scopeID string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scopeID)
}

// ScopeFromContext returns the authorized scope, or "" if none is set
func ScopeFromContext(ctx context.Context) string {
	if scopeID, ok := ctx.Value(scopeKey{}).(string); ok {
		return scopeID
	}
	return ""
}
