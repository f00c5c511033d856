package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/DioGolang/GeoDispatch/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// statusStrings caches the label for every valid status code.
var statusStrings [600]string

func init() {
	for i := 100; i < 600; i++ {
		statusStrings[i] = strconv.Itoa(i)
	}
}

func getStatusString(code int) string {
	if code >= 100 && code < 600 {
		return statusStrings[code]
	}
	return strconv.Itoa(code)
}

// MetricsWrapper labels by route pattern, never by raw path, so driver ids
// do not blow up label cardinality.
func MetricsWrapper(m metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				path := "unknown"
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					path = rctx.RoutePattern()
				}
				status := getStatusString(ww.Status())
				m.ObserveHTTPRequestDuration(r.Method, path, status, time.Since(start).Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
