package application

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

type sessionLock struct {
	sem  *semaphore.Weighted
	refs int
}

// sessionLocks serialises turns per session id. Entries are dropped once no
// caller holds or waits on them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// acquire blocks until the caller owns id or ctx is done. The returned func
// must be called exactly once.
func (l *sessionLocks) acquire(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &sessionLock{sem: semaphore.NewWeighted(1)}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	if err := lock.sem.Acquire(ctx, 1); err != nil {
		l.release(id, lock)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			lock.sem.Release(1)
			l.release(id, lock)
		})
	}, nil
}

func (l *sessionLocks) release(id string, lock *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.refs--
	if lock.refs == 0 && l.locks[id] == lock {
		delete(l.locks, id)
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
