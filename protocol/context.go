package protocol

import (
	"context"
	"maps"
)

// Well-known request metadata keys set by the transports.
const (
	MetaTransport     = "transport"
	MetaAuthorization = "authorization"
	MetaRequestID     = "request-id"
	MetaRemoteAddr    = "remote-addr"
)

type requestMetaKey struct{}

// RequestMeta carries transport-level facts about an inbound message
// (headers, peer address) to middleware and handlers.
type RequestMeta map[string]string

// ContextWithRequestMeta returns a new context with the request metadata attached.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the request metadata from the context, or nil.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return meta
	}
	return nil
}

// GetRequestMeta returns a single metadata value, or "" when absent.
func GetRequestMeta(ctx context.Context, key string) string {
	return RequestMetaFromContext(ctx)[key]
}

// SetRequestMeta returns a context whose metadata includes key=value.
// The metadata already attached to ctx is not mutated.
func SetRequestMeta(ctx context.Context, key, value string) context.Context {
	meta := maps.Clone(RequestMetaFromContext(ctx))
	if meta == nil {
		meta = make(RequestMeta, 1)
	}
	meta[key] = value
	return ContextWithRequestMeta(ctx, meta)
}
