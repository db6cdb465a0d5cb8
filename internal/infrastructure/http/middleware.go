package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lumipay/payflow/internal/observability"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument wraps a handler with request counting and latency observation.
// Labels stay low-cardinality: method and status class only.
func Instrument(tel observability.Observability, next http.Handler) http.Handler {
	requests := observability.NopCounter()
	duration := observability.NopHistogram()
	if tel != nil {
		requests = tel.Metrics().Counter(observability.MHTTPRequests)
		duration = tel.Metrics().Histogram(observability.MHTTPRequestDuration)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("status", strconv.Itoa(rec.status/100)+"xx"),
		}
		requests.Add(1, labels...)
		duration.Observe(time.Since(start).Seconds(), labels...)
	})
}
