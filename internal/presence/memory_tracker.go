package presence

import (
	"context"
	"sync"
)

// MemoryTracker is an in-process Tracker for single-instance deployments and
// tests.
type MemoryTracker struct {
	mu       sync.Mutex
	sessions map[string]map[string]struct{}
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{sessions: make(map[string]map[string]struct{})}
}

func (t *MemoryTracker) Connect(_ context.Context, userID, connID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conns, ok := t.sessions[userID]
	if !ok {
		conns = make(map[string]struct{})
		t.sessions[userID] = conns
	}
	conns[connID] = struct{}{}
	return len(conns) == 1, nil
}

func (t *MemoryTracker) Disconnect(_ context.Context, userID, connID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conns, ok := t.sessions[userID]
	if !ok {
		return true, nil
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(t.sessions, userID)
		return true, nil
	}
	return false, nil
}
