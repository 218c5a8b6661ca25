package webhook

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HealthPath answers liveness probes.
const HealthPath = "/healthz"

// newRouter configures the HTTP router.
func newRouter(path string, state *endpointState, logger *zap.SugaredLogger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Post(path, state.handleUpdate)
	r.Get(HealthPath, state.handleHealth)

	return r
}

// loggingMiddleware logs requests without headers or body content.
func loggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			}
			if info, ok := ConnInfoFromContext(r.Context()); ok && info.PeerCred != nil {
				fields = append(fields,
					"peer_pid", info.PeerCred.PID,
					"peer_uid", info.PeerCred.UID,
				)
			}
			logger.Debugw("webhook request", fields...)
		})
	}
}
