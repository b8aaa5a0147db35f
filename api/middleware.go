package api

import (
	"net/http"
	"time"

	"github.com/safing/rpsldb/log"
)

// Middleware is a function that can be added as a middleware to the API endpoint.
type Middleware func(next http.Handler) http.Handler

// EnrichedResponseWriter records the status code of a response.
type EnrichedResponseWriter struct {
	http.ResponseWriter
	Status int
}

// NewEnrichedResponseWriter wraps w.
func NewEnrichedResponseWriter(w http.ResponseWriter) *EnrichedResponseWriter {
	return &EnrichedResponseWriter{
		ResponseWriter: w,
		Status:         http.StatusOK,
	}
}

// WriteHeader records and writes the status code.
func (ew *EnrichedResponseWriter) WriteHeader(code int) {
	ew.Status = code
	ew.ResponseWriter.WriteHeader(code)
}

// RequestLogger is a logging middleware.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ew := NewEnrichedResponseWriter(w)
		next.ServeHTTP(ew, r)
		log.Infof("api request: %s %d %s %s", r.RemoteAddr, ew.Status, r.RequestURI, time.Since(start))
	})
}

// LogTracer is an http middleware that attaches a log tracer to the request context.
func LogTracer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, tracer := log.AddTracer(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
		tracer.Submit(log.DebugLevel, "api: "+r.Method+" "+r.URL.Path)
	})
}
