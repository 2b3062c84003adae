package lockserver

import (
	"context"
	"sync"
	tm "time"

	"github.com/pixperk/lockcache/pkg/metrics"
	"github.com/pixperk/lockcache/pkg/table"
	"github.com/pixperk/lockcache/pkg/time"
	"github.com/pixperk/lockcache/pkg/types"
	"go.uber.org/zap"
)

// deadline for a single revoke/retry call unless WithCallbackTimeout overrides it
const DefaultCallbackTimeout = 5 * tm.Second

// bound handle to one client's callback service
// the returned ack is part of the protocol but the lock server never branches on it
type Callback interface {
	Revoke(ctx context.Context, lockID types.LockID) (types.Ack, error)
	Retry(ctx context.Context, lockID types.LockID) (types.Ack, error)
}

// opens (or reuses) a callback handle for a client id
// Bind is called with the table mutex held and must not block on the network
type Binder interface {
	Bind(client types.ClientID) (Callback, error)
}

// caching lock server: grants locks, revokes them from holders on contention
// and tells queued waiters to retry once a lock is released
// critical :
// - the table is only touched with mu held
// - mu is released around every outbound callback, so anything read before
//   a callback is stale after it; the revoked status is what keeps the
//   two halves of the critical section consistent
type LockServer struct {
	mu    sync.Mutex
	table *table.Table

	binder          Binder
	callbackTimeout tm.Duration

	clock  *time.Clock
	logger *zap.Logger
}

// configures a LockServer built by New
type Option func(*LockServer)

// logger for grants, revokes and callback failures, defaults to a no-op logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *LockServer) {
		s.logger = logger
	}
}

// bounds each outbound revoke/retry call, <= 0 disables the deadline
func WithCallbackTimeout(d tm.Duration) Option {
	return func(s *LockServer) {
		s.callbackTimeout = d
	}
}

func New(binder Binder, opts ...Option) *LockServer {
	s := &LockServer{
		table:           table.New(),
		binder:          binder,
		callbackTimeout: DefaultCallbackTimeout,
		clock:           time.NewClock(),
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// grants the lock if it is free, otherwise queues the caller and returns RETRY
// the first waiter behind a lent lock triggers exactly one revoke to the owner
func (s *LockServer) Acquire(ctx context.Context, lockID types.LockID, client types.ClientID) (types.AcquireResult, error) {
	if client == "" {
		return types.AcquireResult{}, types.ErrEmptyClientID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("acquire request", lockField(lockID), clientField(client))

	lock := s.entry(lockID)

	if !lock.IsOwned() {
		lock.Status = types.StatusLent
		lock.Owner = client
		lock.AcquireCount++
		lock.LentAt = s.clock.Elapsed()

		metrics.AcquireTotal.WithLabelValues("ok").Inc()
		metrics.LocksOwned.Inc()
		s.logger.Info("lock granted",
			lockField(lockID), clientField(client),
			zap.Int("acquire_count", lock.AcquireCount),
			zap.Int("waiters", len(lock.WaitQueue)))

		return types.AcquireResult{
			Result:  types.ResultOK,
			Waiters: len(lock.WaitQueue) > 0,
		}, nil
	}

	s.table.Enqueue(lock, client)
	metrics.Waiters.Inc()
	metrics.AcquireTotal.WithLabelValues("retry").Inc()

	//a revoke is already outstanding, just wait in line
	if lock.Status == types.StatusRevoked {
		return types.AcquireResult{Result: types.ResultRetry}, nil
	}

	owner := lock.Owner
	cb, err := s.binder.Bind(owner)
	if err != nil {
		//lock stays lent so the next contender tries the revoke again
		metrics.CallbackTotal.WithLabelValues("revoke", "failed").Inc()
		s.logger.Warn("cannot bind owner for revoke",
			lockField(lockID), clientField(owner), zap.Error(err))
		return types.AcquireResult{Result: types.ResultRetry}, nil
	}

	lock.Status = types.StatusRevoked
	s.logger.Info("revoking lock", lockField(lockID), clientField(owner), zap.String("requested_by", string(client)))

	s.mu.Unlock()
	s.notify(ctx, "revoke", lockID, owner, cb.Revoke)
	s.mu.Lock()

	return types.AcquireResult{Result: types.ResultRetry}, nil
}

// frees the lock held by client and tells the head of the queue to retry
// the waiter is not granted anything here, it has to come back through Acquire
func (s *LockServer) Release(ctx context.Context, lockID types.LockID, client types.ClientID) error {
	if client == "" {
		return types.ErrEmptyClientID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("release request", lockField(lockID), clientField(client))

	lock, exists := s.table.Lookup(lockID)
	if !exists || !lock.IsOwned() {
		metrics.ReleaseTotal.WithLabelValues("invalid").Inc()
		s.logger.Warn("release of unknown or free lock", lockField(lockID), clientField(client))
		return types.ErrInvalidRelease
	}
	if lock.Owner != client {
		metrics.ReleaseTotal.WithLabelValues("invalid").Inc()
		s.logger.Warn("release by non-owner",
			lockField(lockID), clientField(client), zap.String("owner", string(lock.Owner)))
		return types.ErrInvalidRelease
	}

	lock.Status = types.StatusFree
	lock.Owner = ""

	metrics.ReleaseTotal.WithLabelValues("ok").Inc()
	metrics.LocksOwned.Dec()
	metrics.LockHoldDuration.Observe(s.clock.Since(lock.LentAt).Seconds())
	s.logger.Info("lock released", lockField(lockID), clientField(client))

	next, ok := s.table.Dequeue(lock)
	if !ok {
		return nil
	}
	metrics.Waiters.Dec()

	cb, err := s.binder.Bind(next)
	if err != nil {
		metrics.CallbackTotal.WithLabelValues("retry", "failed").Inc()
		s.logger.Warn("cannot bind waiter for retry",
			lockField(lockID), clientField(next), zap.Error(err))
		return nil
	}

	s.logger.Info("telling waiter to retry", lockField(lockID), clientField(next))

	s.mu.Unlock()
	s.notify(ctx, "retry", lockID, next, cb.Retry)
	s.mu.Lock()

	return nil
}

// number of grants of the lock since server start, 0 for ids never granted
func (s *LockServer) Stat(ctx context.Context, lockID types.LockID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("stat request", lockField(lockID))
	metrics.StatTotal.Inc()

	return s.entry(lockID).AcquireCount
}

// point-in-time copy of a lock entry, never creates one
func (s *LockServer) Inspect(lockID types.LockID) (types.Lock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.table.Inspect(lockID)
}

func (s *LockServer) Stats() table.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.table.Stats()
}

// duration since the server started
func (s *LockServer) Uptime() tm.Duration {
	return s.clock.Elapsed()
}

// find-or-create that keeps the table gauge in sync; mu must be held
func (s *LockServer) entry(lockID types.LockID) *types.Lock {
	lock, exists := s.table.Lookup(lockID)
	if !exists {
		lock = s.table.FindOrCreate(lockID)
		metrics.Locks.Inc()
	}
	return lock
}

// performs one outbound callback; must be called with mu released
// failures are logged and counted, never retried and never change lock state
func (s *LockServer) notify(ctx context.Context, kind string, lockID types.LockID, client types.ClientID,
	call func(context.Context, types.LockID) (types.Ack, error)) {

	//the inbound request finishing must not cut the callback short
	ctx = context.WithoutCancel(ctx)
	if s.callbackTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callbackTimeout)
		defer cancel()
	}

	start := tm.Now()
	ack, err := call(ctx, lockID)
	metrics.CallbackDuration.WithLabelValues(kind).Observe(tm.Since(start).Seconds())

	if err != nil {
		metrics.CallbackTotal.WithLabelValues(kind, "failed").Inc()
		s.logger.Warn("callback not delivered",
			zap.String("kind", kind), lockField(lockID), clientField(client), zap.Error(err))
		return
	}

	metrics.CallbackTotal.WithLabelValues(kind, "delivered").Inc()
	s.logger.Debug("callback delivered",
		zap.String("kind", kind), lockField(lockID), clientField(client), zap.Int32("ack", int32(ack)))
}

func lockField(id types.LockID) zap.Field {
	return zap.Int64("lock_id", int64(id))
}

func clientField(id types.ClientID) zap.Field {
	return zap.String("client_id", string(id))
}
