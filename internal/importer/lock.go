package importer

import "sync/atomic"

// importLock is a non-blocking lock that rejects overlapping imports
// instead of queueing them.
type importLock struct {
	state atomic.Int32 // 0 = idle, 1 = importing
}

// tryAcquire reports whether the caller now owns the lock
func (l *importLock) tryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// release must only be called by the owner
func (l *importLock) release() {
	l.state.Store(0)
}

// held reports whether an import is running
func (l *importLock) held() bool {
	return l.state.Load() == 1
}
