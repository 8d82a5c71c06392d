package meshindex

import (
	"context"
	"sync"
)

// Local is an in-process map. The default.
type Local struct {
	mu sync.RWMutex
	m  map[string]Entry
}

var _ Index = (*Local)(nil)

func NewLocal() *Local { return &Local{m: make(map[string]Entry)} }

func (l *Local) Get(_ context.Context, key string) (Entry, bool, error) {
	l.mu.RLock()
	e, ok := l.m[key]
	l.mu.RUnlock()
	return e, ok, nil
}

func (l *Local) Set(_ context.Context, key string, e Entry) error {
	l.mu.Lock()
	l.m[key] = e
	l.mu.Unlock()
	return nil
}

func (l *Local) Del(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.m, key)
	l.mu.Unlock()
	return nil
}

func (l *Local) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.m)
}

func (l *Local) Close(context.Context) error { return nil }
