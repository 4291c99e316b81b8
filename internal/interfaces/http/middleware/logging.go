// Package middleware holds the HTTP middleware chain.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/prometheus"
)

// LoggingMiddleware logs every request and records request metrics.
type LoggingMiddleware struct {
	logger  logging.Logger
	metrics *prometheus.CuratorMetrics
}

// NewLoggingMiddleware constructs the middleware. Metrics may be nil.
func NewLoggingMiddleware(logger logging.Logger, metrics *prometheus.CuratorMetrics) *LoggingMiddleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &LoggingMiddleware{logger: logger.Named("http"), metrics: metrics}
}

// Handler wraps next with access logging and metrics.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		m.logger.Info("request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("duration", duration),
			logging.String("request_id", chimw.GetReqID(r.Context())))

		if m.metrics != nil {
			m.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, httpStatusLabel(ww.Status())).Inc()
			m.metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration.Seconds())
		}
	})
}

// httpStatusLabel keeps the status_code label cardinality bounded and maps
// the zero value handlers leave on implicit 200s.
func httpStatusLabel(status int) string {
	if status == 0 {
		status = http.StatusOK
	}
	return strconv.Itoa(status)
}
