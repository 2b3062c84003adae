package server

import (
	"errors"

	"github.com/pixperk/lockcache/pkg/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// converts domain errors to gRPC status errors
// invalid release is not an error on the wire, it travels as RPCERR in the response
func toGRPCError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, types.ErrEmptyClientID):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, types.ErrInvalidRelease):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, types.ErrCallbackBind):
		return status.Error(codes.Unavailable, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
