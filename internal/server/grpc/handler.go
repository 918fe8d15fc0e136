package grpc

import (
	"context"
	"errors"

	"github.com/akozlenkov/authgate/internal/common"
	pb "github.com/akozlenkov/authgate/internal/proto"
	"github.com/akozlenkov/authgate/internal/server/queue"
	"github.com/akozlenkov/authgate/internal/server/users"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Fixed response messages. Underlying failure details stay in the logs;
// the wire carries only the operation that failed.
const (
	msgAuthenticateFailed = "error on authenticate user"
	msgValidateFailed     = "error on validate token"
	msgGetUserFailed      = "error on get user"
)

// acknowledge settles the request's delivery exactly once, whatever exit
// path the handler took. A panic is converted into a fixed Internal status
// and the delivery is still acknowledged, so a crashing request is never
// redelivered.
func (s *GRPCServer) acknowledge(ctx context.Context, d queue.Delivery, msg string, recovered any, err *error) {
	if recovered != nil {
		s.logger.Error(ctx, "panic in handler", "panic", recovered)
		*err = status.Error(codes.Internal, msg)
	}
	if ackErr := d.Ack(); ackErr != nil {
		s.logger.Error(ctx, "delivery ack failed", "error", ackErr.Error())
	}
}

func toProtoUser(u *users.User) *pb.User {
	return &pb.User{
		Id:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Name:     u.Name,
		Surname:  u.Surname,
	}
}

func (s *GRPCServer) Authenticate(ctx context.Context, req *pb.AuthenticateRequest) (resp *pb.AuthenticateResponse, err error) {

	d := queue.Once(s.newDelivery())
	defer func() { s.acknowledge(ctx, d, msgAuthenticateFailed, recover(), &err) }()

	s.logger.Info(ctx, "Authentication request", "username", req.GetUsername())

	user, token, err := s.users.Authenticate(ctx, req.GetUsername(), req.GetPassword())
	if err != nil {
		s.logger.Warn(ctx, "authentication failed", "username", req.GetUsername(), "error", err.Error())
		if errors.Is(err, common.ErrorInvalidCredentials) {
			return nil, status.Error(codes.Unauthenticated, msgAuthenticateFailed)
		}
		return nil, status.Error(codes.Internal, msgAuthenticateFailed)
	}

	s.logger.Info(ctx, "Authenticated", "username", user.Username)
	return &pb.AuthenticateResponse{User: toProtoUser(user), AccessToken: token}, nil
}

func (s *GRPCServer) ValidateToken(ctx context.Context, req *pb.ValidateTokenRequest) (resp *pb.ValidateTokenResponse, err error) {

	d := queue.Once(s.newDelivery())
	defer func() { s.acknowledge(ctx, d, msgValidateFailed, recover(), &err) }()

	// The token travels in the request body; clients that already attach it
	// as metadata may leave the body empty.
	token := req.GetAccessToken()
	if token == "" {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
				token = values[0]
			}
		}
	}

	valid := s.users.ValidateToken(ctx, token)

	return &pb.ValidateTokenResponse{Valid: valid}, nil
}

func (s *GRPCServer) GetUser(ctx context.Context, req *pb.GetUserRequest) (resp *pb.GetUserResponse, err error) {

	d := queue.Once(s.newDelivery())
	defer func() { s.acknowledge(ctx, d, msgGetUserFailed, recover(), &err) }()

	user, err := s.users.GetByID(ctx, req.GetUserId())
	if err != nil {
		s.logger.Warn(ctx, "user lookup failed", "user_id", req.GetUserId(), "error", err.Error())
		if errors.Is(err, common.ErrorNotFound) {
			return nil, status.Error(codes.NotFound, msgGetUserFailed)
		}
		return nil, status.Error(codes.Internal, msgGetUserFailed)
	}

	return &pb.GetUserResponse{User: toProtoUser(user)}, nil
}
