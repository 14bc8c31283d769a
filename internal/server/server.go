// Package server runs the gRPC and HTTP surfaces on one TCP listener. cmux
// routes HTTP/2 connections carrying content-type application/grpc to the
// gRPC server and everything else to the chi router.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/soheilhy/cmux"

	"github.com/nyashahama/order-ready-notifier/internal/rpc"
)

// Server multiplexes one listener between gRPC and HTTP.
type Server struct {
	mux    cmux.CMux
	grpcL  net.Listener
	httpL  net.Listener
	grpc   *rpc.Server
	http   *http.Server
	logger *slog.Logger

	closing atomic.Bool
}

// New prepares a Server on l. Nothing is accepted until Serve is called.
func New(l net.Listener, grpcSrv *rpc.Server, handler http.Handler, logger *slog.Logger) *Server {
	m := cmux.New(l)
	m.SetReadTimeout(5 * time.Second)

	// grpc-go clients wait for the server SETTINGS frame before sending
	// headers, so the matcher must write settings itself.
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	return &Server{
		mux:   m,
		grpcL: grpcL,
		httpL: httpL,
		grpc:  grpcSrv,
		http: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Serve blocks until Shutdown is called (returns nil) or one of the servers
// fails (returns its error).
func (s *Server) Serve() error {
	errc := make(chan error, 3)

	go func() { errc <- s.grpc.Serve(s.grpcL) }()
	go func() { errc <- s.http.Serve(s.httpL) }()
	go func() { errc <- s.mux.Serve() }()

	s.logger.Info("server: listening", "addr", s.grpcL.Addr().String())

	err := <-errc
	if s.closing.Load() {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight gRPC calls and
// HTTP requests until ctx is done, after which remaining gRPC calls are
// cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closing.Store(true)

	grpcDone := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(grpcDone)
	}()

	httpErr := s.http.Shutdown(ctx)
	s.mux.Close()

	select {
	case <-grpcDone:
	case <-ctx.Done():
		s.logger.Warn("server: grpc graceful stop timed out, forcing")
		s.grpc.Stop()
		<-grpcDone
	}
	return httpErr
}
