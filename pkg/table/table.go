package table

import (
	"github.com/pixperk/lockcache/pkg/types"
)

// holds per-lock state, no policy lives here
// not safe for concurrent use: the owner (lock server) guards every call with its mutex
// entries are created lazily and never removed
type Table struct {
	locks map[types.LockID]*types.Lock // lock id -> Lock
}

func New() *Table {
	return &Table{
		locks: make(map[types.LockID]*types.Lock),
	}
}

// returns the entry for id, inserting a free one if it was never referenced
func (t *Table) FindOrCreate(id types.LockID) *types.Lock {
	lock, exists := t.locks[id]
	if !exists {
		lock = &types.Lock{ID: id, Status: types.StatusFree}
		t.locks[id] = lock
	}
	return lock
}

// point lookup, never inserts
func (t *Table) Lookup(id types.LockID) (*types.Lock, bool) {
	lock, exists := t.locks[id]
	return lock, exists
}

// appends a waiter to the tail of the lock's queue
func (t *Table) Enqueue(lock *types.Lock, client types.ClientID) {
	lock.WaitQueue = append(lock.WaitQueue, client)
}

// pops the head of the lock's queue
func (t *Table) Dequeue(lock *types.Lock) (types.ClientID, bool) {
	if len(lock.WaitQueue) == 0 {
		return "", false
	}
	head := lock.WaitQueue[0]
	lock.WaitQueue[0] = ""
	lock.WaitQueue = lock.WaitQueue[1:]
	return head, true
}

// returns a deep copy of the entry, safe to hand out once the caller drops its mutex
func (t *Table) Inspect(id types.LockID) (types.Lock, bool) {
	lock, exists := t.locks[id]
	if !exists {
		return types.Lock{}, false
	}
	snapshot := *lock
	snapshot.WaitQueue = append([]types.ClientID(nil), lock.WaitQueue...)
	return snapshot, true
}

// aggregate view of the table
type Stats struct {
	Locks   int
	Free    int
	Lent    int
	Revoked int
	Waiters int
	Grants  uint64 // sum of acquire counts
}

func (t *Table) Stats() Stats {
	var s Stats
	s.Locks = len(t.locks)
	for _, lock := range t.locks {
		switch lock.Status {
		case types.StatusFree:
			s.Free++
		case types.StatusLent:
			s.Lent++
		case types.StatusRevoked:
			s.Revoked++
		}
		s.Waiters += len(lock.WaitQueue)
		s.Grants += uint64(lock.AcquireCount)
	}
	return s
}
