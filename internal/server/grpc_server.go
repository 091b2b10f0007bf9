package server

import (
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/model-agency/internal/config"
)

// GRPCServer is the ops listener: the standard health service plus
// reflection for grpcurl.
type GRPCServer struct {
	addr   string
	srv    *grpc.Server
	health *health.Server
}

func NewGRPCServer(cfg *config.Config) *GRPCServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(srv)

	return &GRPCServer{
		addr:   fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port),
		srv:    srv,
		health: hs,
	}
}

// Addr is the configured listen address.
func (s *GRPCServer) Addr() string { return s.addr }

// SetServing flips the overall health status reported to health checks.
func (s *GRPCServer) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Serve accepts on lis until Stop. Useful in tests with a bufconn or :0 listener.
func (s *GRPCServer) Serve(lis net.Listener) error {
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Start listens on the configured address and serves until Stop.
func (s *GRPCServer) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Stop marks the server NOT_SERVING and drains in-flight calls.
func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
