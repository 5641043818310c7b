package asyncutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollect_DrainsUntilEndOfIteration(t *testing.T) {
	q := NewAsyncQueue[int]()
	q.Send(1)
	q.Send(2)
	q.Send(3)
	q.Terminate()

	got, err := Collect(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestCollect_PropagatesNonTerminationError(t *testing.T) {
	q := NewAsyncQueue[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, q)
	require.ErrorIs(t, err, context.Canceled)
}

func TestForEach_AggregatesTaggedErrors(t *testing.T) {
	q := NewAsyncQueue[int]()
	for i := 0; i < 5; i++ {
		q.Send(i)
	}
	q.Terminate()

	boom := errors.New("boom")
	err := ForEach(context.Background(), q, func(_ context.Context, v int) error {
		if v%2 == 0 {
			return boom
		}
		return nil
	})

	require.Error(t, err)
	var indices []int
	for _, e := range unwrapJoined(err) {
		idx, ok := ExtractItemIndex(e)
		require.True(t, ok)
		indices = append(indices, idx)
		require.ErrorIs(t, e, boom)
	}
	sort.Ints(indices)
	require.Equal(t, []int{0, 2, 4}, indices)
}

func TestForEach_NoErrors_ReturnsNil(t *testing.T) {
	q := NewAsyncQueue[int]()
	q.Send(1)
	q.Send(2)
	q.Terminate()

	err := ForEach(context.Background(), q, func(context.Context, int) error { return nil })
	require.NoError(t, err)
}

func TestMap_TransformsAndTerminates(t *testing.T) {
	in := NewAsyncQueue[int]()
	in.Send(1)
	in.Send(2)
	in.Send(3)
	in.Terminate()

	out := Map(context.Background(), in, func(_ context.Context, v int) (int, error) {
		return v * 10, nil
	})

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	require.Equal(t, []int{10, 20, 30}, got)
}

func TestMap_DropsFailedItems(t *testing.T) {
	in := NewAsyncQueue[int]()
	in.Send(1)
	in.Send(2)
	in.Send(3)
	in.Terminate()

	out := Map(context.Background(), in, func(_ context.Context, v int) (int, error) {
		if v == 2 {
			return 0, errors.New("skip")
		}
		return v, nil
	})

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, got)
}

func TestConcat_MergesAllSourcesThenTerminates(t *testing.T) {
	a := NewAsyncQueue[int]()
	b := NewAsyncQueue[int]()
	a.Send(1)
	a.Send(2)
	b.Send(10)
	b.Send(20)
	a.Terminate()
	b.Terminate()

	out := Concat(context.Background(), a, b)
	got, err := Collect(context.Background(), out)
	require.NoError(t, err)

	sort.Ints(got)
	require.Equal(t, []int{1, 2, 10, 20}, got)
	require.True(t, out.Terminated())
}

func TestConcat_NoSources_TerminatesImmediately(t *testing.T) {
	out := Concat[int](context.Background())
	require.True(t, out.Terminated())

	_, err := out.NextStage().Wait(context.Background())
	require.ErrorIs(t, err, ErrEndOfIteration)
}

// unwrapJoined flattens an errors.Join tree into its leaf errors.
func unwrapJoined(err error) []error {
	type multi interface{ Unwrap() []error }
	if m, ok := err.(multi); ok {
		var out []error
		for _, e := range m.Unwrap() {
			out = append(out, unwrapJoined(e)...)
		}
		return out
	}
	return []error{err}
}

func TestForEach_ConcurrentDispatch_NoRace(t *testing.T) {
	q := NewAsyncQueue[int]()
	for i := 0; i < 20; i++ {
		q.Send(i)
	}
	q.Terminate()

	var mu sync.Mutex
	var seen []int
	err := ForEach(context.Background(), q, func(_ context.Context, v int) error {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
		return nil
	}, WithDynamicExecutor())
	require.NoError(t, err)
	require.Len(t, seen, 20)
}
