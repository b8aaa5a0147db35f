package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/safing/rpsldb/database"
	"github.com/safing/rpsldb/formats/dsd"
	"github.com/safing/rpsldb/log"
	"github.com/safing/rpsldb/metrics"
)

// Server serves the read-only lookup API of a database.
type Server struct {
	db         *database.Database
	router     *mux.Router
	format     uint8
	registered []*Endpoint
}

// NewServer returns a Server for db. Responses are JSON unless the client
// asks for another format in the Accept header.
func NewServer(db *database.Database, middlewares ...Middleware) *Server {
	s := &Server{
		db:     db,
		router: mux.NewRouter(),
		format: dsd.JSON,
	}

	for _, endpoint := range s.endpoints() {
		s.router.Handle(endpoint.Path, endpoint.handler(s)).Methods(http.MethodGet, http.MethodHead)
		s.registered = append(s.registered, endpoint)
	}
	s.router.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		metrics.WritePrometheus(w, true)
	}).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.write(w, r, &errorResponse{Status: http.StatusNotFound, Error: "no such endpoint"}, http.StatusNotFound)
	})

	s.router.Use(LogTracer, RequestLogger)
	for _, mw := range middlewares {
		s.router.Use(mux.MiddlewareFunc(mw))
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves the API on address until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warningf("api: failed to shut down server: %s", err)
		}
	}()

	log.Infof("api: starting to listen on %s", address)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-shutdownDone
		return nil
	}
	log.Errorf("api: failed to listen on %s: %s", address, err)
	return err
}
