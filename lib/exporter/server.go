package exporter

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Handler serves the Prometheus text format. Every request triggers a
// collection.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		e.WritePrometheus(w)
	})
}

// Serve listens on endpoint and serves /metrics until ctx is cancelled, then
// shuts the server down gracefully. With debug set every request is logged.
func (e *Exporter) Serve(ctx context.Context, endpoint string, debug bool) error {
	mux := http.NewServeMux()
	if debug {
		mux.Handle("GET /metrics", loggerMiddleware(e.Handler()))
	} else {
		mux.Handle("GET /metrics", e.Handler())
	}

	srv := &http.Server{Addr: endpoint, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		Logger.Infof("serving metrics on %s/metrics", endpoint)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	Logger.Infof("shutting down metrics server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// --------------------------------------------------------------------------
// Middleware (logging)
// --------------------------------------------------------------------------

// responseWriter captures the status code of a response
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggerMiddleware logs method, path, status and duration of every request
func loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		Logger.Debugf("%s %s => %d took %s", r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
