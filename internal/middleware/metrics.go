package middleware

import (
	"net/http"
	"time"
)

// RequestObserver records finished HTTP requests. metrics.Metrics implements it.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Instrument reports every request handled by next under the fixed route
// label, keeping label cardinality bounded by the route table.
func Instrument(observer RequestObserver, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if observer == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := record(w)
			start := time.Now()
			next.ServeHTTP(rec, r)
			observer.ObserveRequest(r.Method, route, rec.Status(), time.Since(start))
		})
	}
}
