// Package singleton implements a reference-counted process-wide singleton:
// the first Acquire constructs the value, the last Release destroys it, and
// concurrent acquirers during a cold start are serialized on one mutex so
// the value is never constructed twice.
package singleton

import (
	"context"
	"fmt"
	"sync"

	"github.com/xaionaro-go/nvvfx/logger"
	"github.com/xaionaro-go/xsync"
)

// Shared holds the construction/destruction logic and the current instance
// (if any) of a reference-counted singleton of T.
type Shared[T any] struct {
	Construct func(ctx context.Context) (*T, error)
	Destroy   func(ctx context.Context, value *T)

	locker   xsync.Mutex
	current  *T
	refCount uint64
}

// New returns a Shared with the given constructor and destructor. The
// destructor may be nil.
func New[T any](
	construct func(ctx context.Context) (*T, error),
	destroy func(ctx context.Context, value *T),
) *Shared[T] {
	return &Shared[T]{
		Construct: construct,
		Destroy:   destroy,
	}
}

// Ref is one reference to the shared instance. Release it when done;
// releasing twice is a no-op.
type Ref[T any] struct {
	shared      *Shared[T]
	value       *T
	releaseOnce sync.Once
}

// Acquire returns a reference to the shared instance, constructing it if
// this is the first live reference.
func (s *Shared[T]) Acquire(ctx context.Context) (_ret *Ref[T], _err error) {
	logger.Tracef(ctx, "Acquire[%T]", (*T)(nil))
	defer func() { logger.Tracef(ctx, "/Acquire[%T]: %v", (*T)(nil), _err) }()
	return xsync.DoA1R2(ctx, &s.locker, s.acquire, ctx)
}

func (s *Shared[T]) acquire(ctx context.Context) (*Ref[T], error) {
	if s.refCount == 0 {
		value, err := s.Construct(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to construct %T: %w", (*T)(nil), err)
		}
		s.current = value
	}
	s.refCount++
	return &Ref[T]{
		shared: s,
		value:  s.current,
	}, nil
}

// RefCount returns the amount of currently live references.
func (s *Shared[T]) RefCount(ctx context.Context) uint64 {
	return xsync.DoR1(ctx, &s.locker, func() uint64 {
		return s.refCount
	})
}

// Value returns the shared instance this reference points at.
func (r *Ref[T]) Value() *T {
	return r.value
}

// Release drops the reference; when the last reference is dropped the
// shared instance is destroyed. Idempotent.
func (r *Ref[T]) Release(ctx context.Context) {
	r.releaseOnce.Do(func() {
		r.shared.locker.Do(ctx, func() {
			r.shared.refCount--
			if r.shared.refCount != 0 {
				return
			}
			value := r.shared.current
			r.shared.current = nil
			if r.shared.Destroy != nil {
				r.shared.Destroy(ctx, value)
			}
		})
		r.value = nil
	})
}
