// Package lock serializes writes to a single group so that validation against the current
// member list and the write that depends on it cannot interleave with another writer.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAcquired is returned when the lock could not be taken before giving up.
var ErrNotAcquired = errors.New("group lock not acquired")

// GroupLocker runs fn while holding the group's write lock.
type GroupLocker interface {
	WithGroupLock(ctx context.Context, groupID string, fn func(ctx context.Context) error) error
}

// LocalLocker is a keyed mutex for single-process deployments.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*groupLock
}

type groupLock struct {
	ch   chan struct{}
	refs int
}

var _ GroupLocker = (*LocalLocker)(nil)

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*groupLock)}
}

func (l *LocalLocker) WithGroupLock(ctx context.Context, groupID string, fn func(ctx context.Context) error) error {
	gl := l.acquireRef(groupID)
	defer l.releaseRef(groupID, gl)

	select {
	case gl.ch <- struct{}{}:
	case <-ctx.Done():
		return errors.Join(ErrNotAcquired, ctx.Err())
	}
	defer func() { <-gl.ch }()

	return fn(ctx)
}

func (l *LocalLocker) acquireRef(groupID string) *groupLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	gl, ok := l.locks[groupID]
	if !ok {
		gl = &groupLock{ch: make(chan struct{}, 1)}
		l.locks[groupID] = gl
	}
	gl.refs++
	return gl
}

// releaseRef drops the entry once no goroutine holds or waits on it.
func (l *LocalLocker) releaseRef(groupID string, gl *groupLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gl.refs--
	if gl.refs == 0 {
		delete(l.locks, groupID)
	}
}
