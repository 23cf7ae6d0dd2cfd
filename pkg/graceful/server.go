// Package graceful runs the bot's operational HTTP surface. Health and
// metrics endpoints share one server whose lifetime is tied to the process
// signal context: cancel the context and the server drains within the
// configured timeout.
package graceful

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const readHeaderTimeout = 5 * time.Second

// Server serves the operational endpoints and shuts down with the process.
type Server struct {
	srv             *http.Server
	log             *slog.Logger
	shutdownTimeout time.Duration
}

// New mounts handlers on a fresh mux under their patterns, wraps the mux
// with middleware when given, and returns a server bound to addr.
func New(log *slog.Logger, addr string, shutdownTimeout time.Duration, handlers map[string]http.Handler, middleware func(http.Handler) http.Handler) *Server {
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		if pattern == "" || handler == nil {
			continue
		}
		mux.Handle(pattern, handler)
	}

	var root http.Handler = mux
	if middleware != nil {
		root = middleware(mux)
	}

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           root,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}
}

// ListenAndServe serves until ctx is canceled, then drains in-flight
// requests within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	serveErr := make(chan error, 1)

	go func() {
		s.log.Info("http server listening", slog.String("addr", s.srv.Addr))
		serveErr <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		// The listener failed before shutdown was requested.
		s.log.Error("http server error", slog.Any("error", err))
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.log.Info("shutting down http server", slog.Duration("timeout", s.shutdownTimeout))

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("http server shutdown error", slog.Any("error", err))
		return err
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
