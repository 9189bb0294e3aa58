// Package locking provides ClinicLocker implementations that serialize
// queue mutations per clinic.
package locking

import (
	"context"
	"sync"

	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
)

// MemoryLocker serializes per clinic inside one process. Each clinic gets a
// one-slot semaphore so waiting honours context cancellation.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewMemoryLocker creates an in-process clinic locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]chan struct{})}
}

var _ providers.ClinicLocker = (*MemoryLocker)(nil)

func (l *MemoryLocker) slot(clinicID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[clinicID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[clinicID] = slot
	}
	return slot
}

// Lock blocks until the clinic is free or ctx is done
func (l *MemoryLocker) Lock(ctx context.Context, clinicID string) (func(), error) {
	slot := l.slot(clinicID)
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-slot })
	}, nil
}

// NoopLocker performs no serialization. Concurrent bookings at one clinic
// may then read the same tail position.
type NoopLocker struct{}

var _ providers.ClinicLocker = NoopLocker{}

// Lock returns immediately
func (NoopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}
