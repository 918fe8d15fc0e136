// Package grpc exposes the authentication service over gRPC. Handlers
// translate wire requests into service calls and service errors into fixed,
// non-sensitive status messages.
package grpc

import (
	"context"
	"net"

	"github.com/akozlenkov/authgate/internal/logging"
	pb "github.com/akozlenkov/authgate/internal/proto"
	"github.com/akozlenkov/authgate/internal/server/queue"
	"github.com/akozlenkov/authgate/internal/server/users"
	"google.golang.org/grpc"
)

// userService is the surface of users.Service the transport depends on.
type userService interface {
	Authenticate(ctx context.Context, username, password string) (*users.User, string, error)
	ValidateToken(ctx context.Context, tokenString string) bool
	GetByID(ctx context.Context, id string) (*users.User, error)
}

type GRPCServer struct {
	pb.UnimplementedAuthServiceServer
	address     string
	users       userService
	logger      logging.Logger
	newDelivery func() queue.Delivery
}

func NewGRPCServer(a string, l logging.Logger, us *users.Service) (*GRPCServer, error) {
	return &GRPCServer{
		address:     a,
		logger:      l.With("module", "grpc_server"),
		users:       us,
		newDelivery: queue.Noop,
	}, nil
}

func (s *GRPCServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestIDInterceptor))

	pb.RegisterAuthServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
