package api

import (
	"net/http"
	"time"

	"github.com/signalsfoundry/foors-plus/internal/logging"
)

// requestLoggingMiddleware assigns every inbound request a request_id
// (reusing one supplied via the X-Request-ID header, if present) and
// attaches a logger carrying that id to the request's context, so
// ScenarioState's own logging picks it up through logging.LoggerFromContext
// and every log line for one call correlates under the same id.
func (srv *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if incoming := r.Header.Get("X-Request-ID"); incoming != "" {
			ctx = logging.ContextWithRequestID(ctx, incoming)
		}
		ctx, requestLog := logging.WithRequestLogger(ctx, srv.log)
		ctx = logging.ContextWithLogger(ctx, requestLog)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		requestLog.Debug(ctx, "request handled",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Any("duration", time.Since(start)),
		)
	})
}
