package mpd

import (
	"context"
	"sync"
)

// revisionGate is the monotonic counter long-polling clients are parked on.
// A waiter for revision r is released exactly when the counter reaches r;
// all waiters for r are released before any waiter for r+1.
type revisionGate struct {
	mu      sync.Mutex
	rev     int
	waiters map[int][]chan struct{}
}

func (me *revisionGate) init() {
	me.rev = 1
	me.waiters = make(map[int][]chan struct{})
}

func (me *revisionGate) current() int {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.rev
}

// bump advances the counter and releases the waiters parked on the new
// value
func (me *revisionGate) bump() {
	me.mu.Lock()
	me.rev++
	released := me.waiters[me.rev]
	delete(me.waiters, me.rev)
	me.mu.Unlock()

	for _, ch := range released {
		close(ch)
	}
}

// await blocks until the counter reaches revno. Waiters behind the counter
// return immediately; a done context abandons the wait.
func (me *revisionGate) await(ctx context.Context, revno int) error {
	me.mu.Lock()
	if revno <= me.rev {
		me.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	me.waiters[revno] = append(me.waiters[revno], ch)
	me.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
