package server

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/google/uuid"
	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/lockserver"
	"github.com/pixperk/lockcache/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type notification struct {
	kind   string
	client types.ClientID
	lockID types.LockID
}

type recordingBinder struct {
	mu   sync.Mutex
	sent []notification
}

func (b *recordingBinder) Bind(client types.ClientID) (lockserver.Callback, error) {
	return &recordingCallback{binder: b, client: client}, nil
}

func (b *recordingBinder) Sent() []notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]notification(nil), b.sent...)
}

type recordingCallback struct {
	binder *recordingBinder
	client types.ClientID
}

func (c *recordingCallback) Revoke(ctx context.Context, lockID types.LockID) (types.Ack, error) {
	c.binder.mu.Lock()
	defer c.binder.mu.Unlock()
	c.binder.sent = append(c.binder.sent, notification{"revoke", c.client, lockID})
	return 0, nil
}

func (c *recordingCallback) Retry(ctx context.Context, lockID types.LockID) (types.Ack, error) {
	c.binder.mu.Lock()
	defer c.binder.mu.Unlock()
	c.binder.sent = append(c.binder.sent, notification{"retry", c.client, lockID})
	return 0, nil
}

// starts the service on an in-memory listener
func newTestClient(t *testing.T) (pb.LockServiceClient, *recordingBinder, uuid.UUID) {
	t.Helper()

	binder := &recordingBinder{}
	nodeID := uuid.New()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(zap.NewNop())))
	pb.RegisterLockServiceServer(srv, NewServer(nodeID, lockserver.New(binder)))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return pb.NewLockServiceClient(conn), binder, nodeID
}

// TestScenarioOverGRPC runs the lock 7 handoff through the wire codec
func TestScenarioOverGRPC(t *testing.T) {
	client, binder, _ := newTestClient(t)
	ctx := context.Background()

	stat, err := client.Stat(ctx, wrapperspb.Int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(0), stat.GetValue())

	resp, err := client.Acquire(ctx, &pb.AcquireRequest{LockId: 7, ClientId: "a:1"})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_OK, resp.Status)
	assert.False(t, resp.Waiters)

	resp, err = client.Acquire(ctx, &pb.AcquireRequest{LockId: 7, ClientId: "b:1"})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_RETRY, resp.Status)

	rel, err := client.Release(ctx, &pb.ReleaseRequest{LockId: 7, ClientId: "a:1"})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_OK, rel.Status)

	resp, err = client.Acquire(ctx, &pb.AcquireRequest{LockId: 7, ClientId: "b:1"})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_OK, resp.Status)

	stat, err = client.Stat(ctx, wrapperspb.Int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stat.GetValue())

	assert.Equal(t, []notification{
		{"revoke", "a:1", 7},
		{"retry", "b:1", 7},
	}, binder.Sent())
}

// TestInvalidReleaseIsAStatus tests that invalid release is not a gRPC error
func TestInvalidReleaseIsAStatus(t *testing.T) {
	client, _, _ := newTestClient(t)
	ctx := context.Background()

	rel, err := client.Release(ctx, &pb.ReleaseRequest{LockId: 1, ClientId: "a:1"})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_RPCERR, rel.Status)

	client.Acquire(ctx, &pb.AcquireRequest{LockId: 1, ClientId: "a:1"})
	rel, err = client.Release(ctx, &pb.ReleaseRequest{LockId: 1, ClientId: "b:1"})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_RPCERR, rel.Status)
}

// TestEmptyClientIDRejected tests request validation
func TestEmptyClientIDRejected(t *testing.T) {
	client, _, _ := newTestClient(t)
	ctx := context.Background()

	_, err := client.Acquire(ctx, &pb.AcquireRequest{LockId: 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Release(ctx, &pb.ReleaseRequest{LockId: 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestGetStatus tests the status RPC
func TestGetStatus(t *testing.T) {
	client, _, nodeID := newTestClient(t)
	ctx := context.Background()

	client.Acquire(ctx, &pb.AcquireRequest{LockId: 1, ClientId: "a:1"})
	client.Acquire(ctx, &pb.AcquireRequest{LockId: 1, ClientId: "b:1"})
	client.Stat(ctx, wrapperspb.Int64(2))

	resp, err := client.GetStatus(ctx, &pb.GetStatusRequest{})
	require.NoError(t, err)

	assert.Equal(t, nodeID.String(), resp.NodeId)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, int32(2), resp.Stats.Locks)
	assert.Equal(t, int32(1), resp.Stats.Free)
	assert.Equal(t, int32(1), resp.Stats.Revoked)
	assert.Equal(t, int32(1), resp.Stats.Waiters)
	assert.Equal(t, uint64(1), resp.Stats.Grants)
}

func TestToGRPCError(t *testing.T) {
	assert.Nil(t, toGRPCError(nil))
	assert.Equal(t, codes.InvalidArgument, status.Code(toGRPCError(types.ErrEmptyClientID)))
	assert.Equal(t, codes.FailedPrecondition, status.Code(toGRPCError(types.ErrInvalidRelease)))
	assert.Equal(t, codes.Unavailable, status.Code(toGRPCError(types.ErrCallbackBind)))
	assert.Equal(t, codes.Internal, status.Code(toGRPCError(assert.AnError)))
}
