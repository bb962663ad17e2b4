package core

import "context"

type contextKey struct{}

// RequestMeta describes the client behind a request. Audit entries carry it.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// ContextWithRequestMeta attaches m to ctx.
func ContextWithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, contextKey{}, m)
}

// RequestMetaFromContext returns the metadata attached to ctx, or the zero
// value.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(contextKey{}).(RequestMeta)
	return m
}
