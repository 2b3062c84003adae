package server

import (
	"context"
	"errors"

	"github.com/google/uuid"
	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/lockserver"
	"github.com/pixperk/lockcache/pkg/types"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Server struct {
	pb.UnimplementedLockServiceServer
	locks  *lockserver.LockServer
	nodeID uuid.UUID
}

// wraps the lock server into a gRPC service
func NewServer(nodeID uuid.UUID, locks *lockserver.LockServer) *Server {
	return &Server{
		locks:  locks,
		nodeID: nodeID,
	}
}

func (s *Server) Acquire(ctx context.Context, req *pb.AcquireRequest) (*pb.AcquireResponse, error) {
	res, err := s.locks.Acquire(ctx, types.LockID(req.LockId), types.ClientID(req.ClientId))
	if err != nil {
		return nil, toGRPCError(err)
	}

	return &pb.AcquireResponse{
		Status:  toStatus(res.Result),
		Waiters: res.Waiters,
	}, nil
}

func (s *Server) Release(ctx context.Context, req *pb.ReleaseRequest) (*pb.ReleaseResponse, error) {
	err := s.locks.Release(ctx, types.LockID(req.LockId), types.ClientID(req.ClientId))
	if errors.Is(err, types.ErrInvalidRelease) {
		return &pb.ReleaseResponse{Status: pb.Status_RPCERR}, nil
	}
	if err != nil {
		return nil, toGRPCError(err)
	}

	return &pb.ReleaseResponse{Status: pb.Status_OK}, nil
}

func (s *Server) Stat(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int64Value, error) {
	count := s.locks.Stat(ctx, types.LockID(req.GetValue()))
	return wrapperspb.Int64(int64(count)), nil
}

func (s *Server) GetStatus(ctx context.Context, req *pb.GetStatusRequest) (*pb.GetStatusResponse, error) {
	stats := s.locks.Stats()

	return &pb.GetStatusResponse{
		NodeId:        s.nodeID.String(),
		UptimeSeconds: int64(s.locks.Uptime().Seconds()),
		Stats: &pb.Stats{
			Locks:   int32(stats.Locks),
			Free:    int32(stats.Free),
			Lent:    int32(stats.Lent),
			Revoked: int32(stats.Revoked),
			Waiters: int32(stats.Waiters),
			Grants:  stats.Grants,
		},
	}, nil
}

func toStatus(r types.Result) pb.Status {
	switch r {
	case types.ResultOK:
		return pb.Status_OK
	case types.ResultRetry:
		return pb.Status_RETRY
	default:
		return pb.Status_RPCERR
	}
}
