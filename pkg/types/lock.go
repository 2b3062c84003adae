package types

import "time"

// identifies a lock instance, opaque to the server
type LockID int64

// names a remote client; it is also the address of the client's callback service
type ClientID string

// lifecycle of a single lock
// free -> lent -> revoked -> free
// lent and revoked both mean "owned", revoked means a revoke was already sent
type LockStatus int

const (
	StatusFree LockStatus = iota
	StatusLent
	StatusRevoked
)

func (s LockStatus) String() string {
	switch s {
	case StatusFree:
		return "free"
	case StatusLent:
		return "lent"
	case StatusRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

// lock is the per-id state held in the lock table
// owner is set iff status != free
// acquire count only grows, one per grant
type Lock struct {
	ID           LockID
	Status       LockStatus
	Owner        ClientID
	WaitQueue    []ClientID //FIFO, head is the next client to be told to retry
	AcquireCount int
	LentAt       time.Duration //monotonic time from server start of the last grant
}

// IsOwned reports whether some client currently holds the lock
func (l *Lock) IsOwned() bool {
	return l.Status != StatusFree
}
