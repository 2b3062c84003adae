package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/types"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	defaultPollInterval    = time.Second
	defaultMaxPollInterval = 30 * time.Second
)

// caching lock client
// the client id is the address of the callback service the client runs,
// the server uses it to send revoke and retry notifications back
type Client struct {
	id     types.ClientID
	conn   *grpc.ClientConn
	client pb.LockServiceClient

	callbackSrv *grpc.Server

	onRevoke        func(types.LockID)
	pollInterval    time.Duration
	maxPollInterval time.Duration
	logger          *zap.Logger

	mu      sync.Mutex
	retries map[types.LockID]chan struct{}
}

type Option func(*Client)

// called (in its own goroutine) when the server asks for a lock back
// the usual reaction is to finish the critical section and Release
func WithRevokeHandler(fn func(types.LockID)) Option {
	return func(c *Client) {
		c.onRevoke = fn
	}
}

// how long Lock first waits for a retry notification before asking again anyway
// retries are best effort, so Lock never relies on them alone
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// cap for the doubling wait between unanswered acquire attempts
func WithMaxPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.maxPollInterval = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// dials the lock server at serverAddr and serves callbacks on callbackAddr
// callbackAddr may use port 0; the bound address becomes the client id
func NewClient(serverAddr, callbackAddr string, opts ...Option) (*Client, error) {
	conn, err := grpc.NewClient(serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	lis, err := net.Listen("tcp", callbackAddr)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to listen for callbacks on %s: %w", callbackAddr, err)
	}

	c := &Client{
		id:           types.ClientID(lis.Addr().String()),
		conn:         conn,
		client:       pb.NewLockServiceClient(conn),
		pollInterval:    defaultPollInterval,
		maxPollInterval: defaultMaxPollInterval,
		logger:          zap.NewNop(),
		retries:         make(map[types.LockID]chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.maxPollInterval < c.pollInterval {
		c.maxPollInterval = c.pollInterval
	}

	c.callbackSrv = grpc.NewServer()
	pb.RegisterCallbackServiceServer(c.callbackSrv, &callbackService{client: c})
	go func() {
		if err := c.callbackSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			c.logger.Error("callback server stopped", zap.Error(err))
		}
	}()

	return c, nil
}

func (c *Client) ID() types.ClientID {
	return c.id
}

// single acquire round trip, RETRY is returned as a result, not an error
func (c *Client) Acquire(ctx context.Context, lockID types.LockID) (types.AcquireResult, error) {
	resp, err := c.client.Acquire(ctx, &pb.AcquireRequest{
		LockId:   int64(lockID),
		ClientId: string(c.id),
	})
	if err != nil {
		return types.AcquireResult{}, fmt.Errorf("acquire lock: %w", err)
	}

	switch resp.Status {
	case pb.Status_OK:
		return types.AcquireResult{Result: types.ResultOK, Waiters: resp.Waiters}, nil
	case pb.Status_RETRY:
		return types.AcquireResult{Result: types.ResultRetry}, nil
	default:
		return types.AcquireResult{}, fmt.Errorf("acquire lock: unexpected status %s", resp.Status)
	}
}

// blocks until the lock is granted or ctx is done
// every RETRY puts this client in the server's wait queue again, so once queued
// Lock waits for the retry callback and only re-asks on a doubling timer
func (c *Client) Lock(ctx context.Context, lockID types.LockID) (*Lock, error) {
	retry := c.retryChan(lockID)

	//a notification left over from an earlier wait belongs to a stale queue entry
	select {
	case <-retry:
	default:
	}

	wait := c.pollInterval
	for {
		res, err := c.Acquire(ctx, lockID)
		if err != nil {
			return nil, err
		}
		if res.Result == types.ResultOK {
			return &Lock{client: c, id: lockID, waiters: res.Waiters}, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-retry:
			wait = c.pollInterval
		case <-timer.C:
			//retry was lost or is late, back off so the queue is not flooded
			wait = min(wait*2, c.maxPollInterval)
			c.logger.Debug("no retry received, asking again",
				zap.Int64("lock_id", int64(lockID)), zap.Duration("next_wait", wait))
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
		timer.Stop()
	}
}

// returns types.ErrInvalidRelease if the server says this client does not hold the lock
func (c *Client) Release(ctx context.Context, lockID types.LockID) error {
	return c.ReleaseAs(ctx, lockID, c.id)
}

// releases a lock on behalf of another client id, for operator tooling
func (c *Client) ReleaseAs(ctx context.Context, lockID types.LockID, owner types.ClientID) error {
	resp, err := c.client.Release(ctx, &pb.ReleaseRequest{
		LockId:   int64(lockID),
		ClientId: string(owner),
	})
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if resp.Status == pb.Status_RPCERR {
		return fmt.Errorf("release lock %d: %w", lockID, types.ErrInvalidRelease)
	}
	return nil
}

// number of times the lock has been granted since the server started
func (c *Client) Stat(ctx context.Context, lockID types.LockID) (int64, error) {
	resp, err := c.client.Stat(ctx, wrapperspb.Int64(int64(lockID)))
	if err != nil {
		return 0, fmt.Errorf("stat lock: %w", err)
	}
	return resp.GetValue(), nil
}

func (c *Client) Status(ctx context.Context) (*pb.GetStatusResponse, error) {
	return c.client.GetStatus(ctx, &pb.GetStatusRequest{})
}

func (c *Client) Stop() error {
	c.callbackSrv.Stop()

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}

// one buffered slot per lock, extra retry notifications collapse into one
func (c *Client) retryChan(lockID types.LockID) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.retries[lockID]
	if !ok {
		ch = make(chan struct{}, 1)
		c.retries[lockID] = ch
	}
	return ch
}

func (c *Client) notifyRetry(lockID types.LockID) {
	select {
	case c.retryChan(lockID) <- struct{}{}:
	default:
	}
}

// receives revoke/retry from the lock server
type callbackService struct {
	pb.UnimplementedCallbackServiceServer
	client *Client
}

func (s *callbackService) Revoke(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int32Value, error) {
	lockID := types.LockID(req.GetValue())
	s.client.logger.Info("revoke received", zap.Int64("lock_id", int64(lockID)))

	if s.client.onRevoke != nil {
		go s.client.onRevoke(lockID)
	}
	return wrapperspb.Int32(int32(pb.Status_OK)), nil
}

func (s *callbackService) Retry(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int32Value, error) {
	lockID := types.LockID(req.GetValue())
	s.client.logger.Info("retry received", zap.Int64("lock_id", int64(lockID)))

	s.client.notifyRetry(lockID)
	return wrapperspb.Int32(int32(pb.Status_OK)), nil
}
