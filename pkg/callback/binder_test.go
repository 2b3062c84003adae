package callback

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// records callbacks the way a lock client would receive them
type recordingClient struct {
	pb.UnimplementedCallbackServiceServer

	mu      sync.Mutex
	revokes []int64
	retries []int64
}

func (r *recordingClient) Revoke(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int32Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revokes = append(r.revokes, req.GetValue())
	return wrapperspb.Int32(1), nil
}

func (r *recordingClient) Retry(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int32Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries = append(r.retries, req.GetValue())
	return wrapperspb.Int32(2), nil
}

func startClient(t *testing.T) (types.ClientID, *recordingClient) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	rec := &recordingClient{}
	srv := grpc.NewServer()
	pb.RegisterCallbackServiceServer(srv, rec)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	return types.ClientID(lis.Addr().String()), rec
}

func TestBindDeliversCallbacks(t *testing.T) {
	id, rec := startClient(t)

	b := NewBinder()
	defer b.Close()

	cb, err := b.Bind(id)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ack, err := cb.Revoke(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, types.Ack(1), ack)

	ack, err = cb.Retry(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, types.Ack(2), ack)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []int64{7}, rec.revokes)
	assert.Equal(t, []int64{7}, rec.retries)
}

func TestBindCachesConnections(t *testing.T) {
	id, _ := startClient(t)

	b := NewBinder()
	defer b.Close()

	_, err := b.Bind(id)
	require.NoError(t, err)
	_, err = b.Bind(id)
	require.NoError(t, err)

	b.mu.Lock()
	assert.Len(t, b.conns, 1)
	b.mu.Unlock()
}

func TestBindRejectsMalformedID(t *testing.T) {
	b := NewBinder()
	defer b.Close()

	_, err := b.Bind("not-an-address")
	assert.ErrorIs(t, err, types.ErrCallbackBind)
}

func TestUnreachableClientFailsCall(t *testing.T) {
	//grab a free port and close it so nothing listens there
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	lis.Close()

	b := NewBinder()
	defer b.Close()

	cb, err := b.Bind(types.ClientID(addr))
	require.NoError(t, err, "bind is lazy and succeeds")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err = cb.Revoke(ctx, 1)
	assert.Error(t, err)
}
