package observability

import (
	"context"
	"log/slog"

	"github.com/geocoder89/shopsphere/internal/actorctx"
	"go.opentelemetry.io/otel/trace"
)

// ContextHandler stamps every record with what the context knows about the
// request: trace and span ids, the request id, and the authenticated
// principal with the strategy that authenticated it.
type ContextHandler struct {
	next slog.Handler
}

func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx == nil {
		return h.next.Handle(ctx, r)
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	if id, ok := actorctx.RequestIDFrom(ctx); ok {
		r.AddAttrs(slog.String("request_id", id))
	}

	if p, ok := actorctx.PrincipalFrom(ctx); ok {
		r.AddAttrs(
			slog.String("user_id", p.UserID),
			slog.String("role", string(p.Role)),
			slog.String("session_type", string(p.SessionType)),
		)
	}

	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
