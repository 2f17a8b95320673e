package singleton

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSharedRefCounting(t *testing.T) {
	ctx := context.Background()
	constructed := 0
	destroyed := 0
	shared := New(
		func(ctx context.Context) (*int, error) {
			constructed++
			v := constructed
			return &v, nil
		},
		func(ctx context.Context, value *int) {
			destroyed++
		},
	)

	ref1, err := shared.Acquire(ctx)
	require.NoError(t, err)
	ref2, err := shared.Acquire(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, constructed)
	require.Same(t, ref1.Value(), ref2.Value())
	require.Equal(t, uint64(2), shared.RefCount(ctx))

	ref1.Release(ctx)
	require.Equal(t, 0, destroyed)

	// releasing the same reference twice must not decrement twice
	ref1.Release(ctx)
	require.Equal(t, uint64(1), shared.RefCount(ctx))

	ref2.Release(ctx)
	require.Equal(t, 1, destroyed)
	require.Equal(t, uint64(0), shared.RefCount(ctx))

	// the next acquire after full teardown constructs a fresh instance
	ref3, err := shared.Acquire(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, constructed)
	require.Equal(t, 2, *ref3.Value())
	ref3.Release(ctx)
}

func TestSharedConstructFailure(t *testing.T) {
	ctx := context.Background()
	attempts := 0
	shared := New(
		func(ctx context.Context) (*int, error) {
			attempts++
			if attempts == 1 {
				return nil, fmt.Errorf("not this time")
			}
			v := 42
			return &v, nil
		},
		nil,
	)

	_, err := shared.Acquire(ctx)
	require.Error(t, err)
	require.Equal(t, uint64(0), shared.RefCount(ctx))

	// a failed construction does not poison the singleton
	ref, err := shared.Acquire(ctx)
	require.NoError(t, err)
	require.Equal(t, 42, *ref.Value())
	ref.Release(ctx)
}
