package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dropDatabas3/warp10-fixture/internal/observability/logger"
)

// Server expone las credenciales de un fixture mientras vive.
type Server struct {
	srv *http.Server
}

// NewServer arma el http.Server sobre addr con handler.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Serve escucha en ln hasta que ctx se cancela; entonces hace shutdown ordenado.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logger.From(ctx).With(logger.Component("http"))
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(ln) }()
	log.Info("credentials endpoint listening", logger.Addr(ln.Addr().String()))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errc
		return nil
	}
}

// ListenAndServe es Serve sobre un listener TCP en Addr.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
