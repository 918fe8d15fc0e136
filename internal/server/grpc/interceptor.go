package grpc

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
)

type ctxKey string

const requestIDKey ctxKey = "requestID"

// RequestIDFromContext returns the request id assigned by the interceptor.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// requestIDInterceptor tags every RPC with a generated request id so log
// lines from one request can be correlated across components.
func (s *GRPCServer) requestIDInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	id := uuid.NewString()
	ctx = context.WithValue(ctx, requestIDKey, id)

	s.logger.Debug(ctx, "rpc received", "method", info.FullMethod, "request_id", id)

	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Warn(ctx, "rpc failed", "method", info.FullMethod, "request_id", id, "error", err.Error())
	}

	return resp, err
}
