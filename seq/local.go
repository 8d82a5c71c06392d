package seq

import (
	"context"
	"sync/atomic"
)

// Local is an in-process counter starting at 1.
type Local struct {
	n atomic.Uint64
}

var _ Sequence = (*Local)(nil)

func NewLocal() *Local { return &Local{} }

// NewLocalFrom resumes after last; the first id issued is last+1.
func NewLocalFrom(last uint64) *Local {
	l := &Local{}
	l.n.Store(last)
	return l
}

func (l *Local) Next(context.Context) (uint64, error) { return l.n.Add(1), nil }

// Last returns the most recently issued id (0 if none).
func (l *Local) Last() uint64 { return l.n.Load() }

func (l *Local) Close(context.Context) error { return nil }
