// Package ctxsync provides synchronization primitives whose blocking
// operations can be abandoned through a [context.Context].
package ctxsync

import (
	"container/list"
	"context"
	"sync"
)

// NewMutex creates a new instance of Mutex.
func NewMutex() *Mutex {
	return &Mutex{}
}

// A Mutex is a fair mutual exclusion lock: goroutines acquire it in the order
// they started waiting. It is not reentrant.
//
// The zero value is an unlocked mutex. A Mutex must not be copied after first
// use.
type Mutex struct {
	noCopy noCopy

	mu      sync.Mutex
	locked  bool
	waiters list.List // of chan struct{}
}

// Lock locks the mutex with a context.Background()
func (m *Mutex) Lock() {
	_ = m.LockWithContext(context.Background())
}

// LockWithContext locks m, waiting behind every earlier caller. If ctx is
// done before or while waiting the call gives up its place in the queue and
// returns ctx.Err(); it never acquires m in that case.
func (m *Mutex) LockWithContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if !m.locked && m.waiters.Len() == 0 {
		m.locked = true
		m.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	elem := m.waiters.PushBack(ready)
	m.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		defer m.mu.Unlock()
		select {
		case <-ready:
			// ownership was handed over concurrently, pass it on
			m.handOff()
		default:
			m.waiters.Remove(elem)
		}
		return ctx.Err()
	}
}

// TryLock tries to lock m and reports whether it succeeded. It fails if m is
// held or if other goroutines are already waiting.
func (m *Mutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked || m.waiters.Len() > 0 {
		return false
	}
	m.locked = true
	return true
}

// Unlock unlocks m, handing it to the oldest waiter if there is one.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.locked {
		panic("ctxsync: unlock of unlocked mutex")
	}
	m.handOff()
}

// handOff must be called with m.mu held and m locked.
func (m *Mutex) handOff() {
	front := m.waiters.Front()
	if front == nil {
		m.locked = false
		return
	}
	m.waiters.Remove(front)
	close(front.Value.(chan struct{}))
}

// noCopy may be added to structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
