package callback

import (
	"context"
	"fmt"
	"net"
	"sync"

	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/lockserver"
	"github.com/pixperk/lockcache/pkg/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// opens callback connections to clients, keyed by client id
// a client id is the host:port of that client's CallbackService
// connections are created lazily and cached for the life of the binder
type Binder struct {
	mu    sync.Mutex
	conns map[types.ClientID]*grpc.ClientConn
	opts  []grpc.DialOption
}

var _ lockserver.Binder = (*Binder)(nil)

func NewBinder(opts ...grpc.DialOption) *Binder {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &Binder{
		conns: make(map[types.ClientID]*grpc.ClientConn),
		opts:  opts,
	}
}

// returns a handle for the client, reusing a cached connection
// grpc.NewClient does not touch the network, so this never blocks;
// an unreachable client surfaces later as an error from Revoke/Retry
func (b *Binder) Bind(client types.ClientID) (lockserver.Callback, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if conn, ok := b.conns[client]; ok {
		return &handle{client: pb.NewCallbackServiceClient(conn)}, nil
	}

	if _, _, err := net.SplitHostPort(string(client)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrCallbackBind, client, err)
	}

	conn, err := grpc.NewClient(string(client), b.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrCallbackBind, client, err)
	}
	b.conns[client] = conn

	return &handle{client: pb.NewCallbackServiceClient(conn)}, nil
}

// closes every cached connection
func (b *Binder) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for id, conn := range b.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(b.conns, id)
	}
	return firstErr
}

// bound connection to one client
type handle struct {
	client pb.CallbackServiceClient
}

func (h *handle) Revoke(ctx context.Context, lockID types.LockID) (types.Ack, error) {
	resp, err := h.client.Revoke(ctx, wrapperspb.Int64(int64(lockID)))
	if err != nil {
		return 0, fmt.Errorf("revoke lock %d: %w", lockID, err)
	}
	return types.Ack(resp.GetValue()), nil
}

func (h *handle) Retry(ctx context.Context, lockID types.LockID) (types.Ack, error) {
	resp, err := h.client.Retry(ctx, wrapperspb.Int64(int64(lockID)))
	if err != nil {
		return 0, fmt.Errorf("retry lock %d: %w", lockID, err)
	}
	return types.Ack(resp.GetValue()), nil
}
