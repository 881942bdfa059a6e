package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/storefront/internal/pkg/reqctx"
)

const tracerName = "github.com/jcmexdev/storefront/internal/gateway/httpx"

// AttachTracingMetadata starts a server span for the request, continuing any
// incoming W3C trace, and stores the idempotency key in the context.
func AttachTracingMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := otel.Tracer(tracerName).Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
				attribute.String("request.id", middleware.GetReqID(r.Context())),
				attribute.String("session.id", reqctx.SessionID(r.Context())),
			),
		)
		defer span.End()

		if key := r.Header.Get(reqctx.HeaderIdempotencyKey); key != "" {
			ctx = reqctx.WithIdempotencyKey(ctx, key)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
