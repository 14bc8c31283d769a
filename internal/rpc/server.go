package rpc

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/nyashahama/order-ready-notifier/internal/notificationpb"
	"github.com/nyashahama/order-ready-notifier/internal/notify"
)

// ServiceName is the fully-qualified gRPC service name, also used as the
// health-check service key.
const ServiceName = "NotificationService"

// Server bundles the grpc.Server with its health service so both are stopped
// together.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

// NewServer builds a gRPC server exposing NotificationService, the standard
// health service, and server reflection. Interceptors run in order:
// request id, logger, recoverer.
func NewServer(n notify.Notifier, logger *slog.Logger) *Server {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			requestIDInterceptor,
			loggingInterceptor(logger),
			recoveryInterceptor(logger),
		),
	)

	notificationpb.RegisterNotificationServiceServer(gs, NewNotificationServer(n))

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	reflection.Register(gs)

	return &Server{grpc: gs, health: hs, logger: logger}
}

// Serve accepts gRPC connections on l until Stop or GracefulStop is called.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("rpc: serving", "addr", l.Addr().String())
	return s.grpc.Serve(l)
}

// GracefulStop marks every service NOT_SERVING, then waits for in-flight
// calls to finish.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// Stop closes all connections immediately.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.Stop()
}
