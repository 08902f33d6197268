package httppresentation

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/krishibazaar/marketplace/internal/observability"
	"github.com/krishibazaar/marketplace/internal/observability/logctx"
)

type routeKeyType struct{}

var routeKey routeKeyType

func contextWithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey, route)
}

func routeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(routeKey).(string); ok {
		return v
	}
	return "unknown"
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// withTrace extracts any upstream trace context and opens a server span named
// after the route template.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		route := routeFrom(ctx)

		ctx, span := h.tel.Tracer().Start(ctx, "HTTP "+route,
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withRequestLogger binds a request-scoped logger into the context so lower
// layers log with request_id and actor_id attached.
func (h *Handler) withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		fields := []observability.Field{observability.F("request_id", requestID)}
		if act, ok := actorFromRequest(r); ok {
			fields = append(fields, observability.F("actor_id", act.ID))
		}

		ctx := logctx.With(r.Context(), h.log.With(fields...))
		w.Header().Set(headerRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(rec, r)

		labels := []observability.Label{
			observability.L("route", routeFrom(r.Context())),
			observability.L("method", r.Method),
			observability.L("status", strconv.Itoa(rec.status)),
		}
		h.tel.Metrics().Counter(observability.MHTTPRequests).Add(1, labels...)
		h.tel.Metrics().Histogram(observability.MHTTPRequestDuration).Observe(time.Since(start).Seconds(), labels...)
	})
}

func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logctx.FromOr(r.Context(), h.log).Info("http_request_done",
			observability.F("route", routeFrom(r.Context())),
			observability.F("method", r.Method),
			observability.F("status", rec.status),
			observability.F("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}
