package client

import (
	"context"

	"github.com/pixperk/lockcache/pkg/types"
)

type Lock struct {
	client  *Client
	id      types.LockID
	waiters bool
}

func (l *Lock) ID() types.LockID {
	return l.id
}

// reports whether other clients were already queued when the lock was granted
// if so a revoke is likely to follow soon
func (l *Lock) Waiters() bool {
	return l.waiters
}

func (l *Lock) Release(ctx context.Context) error {
	return l.client.Release(ctx, l.id)
}
