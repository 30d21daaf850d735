package lazy

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/transformgrid/internal/node"
	"github.com/specialistvlad/transformgrid/internal/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counting[T any](calls *atomic.Int32, v T, err error) CalculationFunc[T] {
	return CalculationFunc[T]{
		Name: "counted",
		Fn: func(context.Context, *node.ExecutionContext) (T, error) {
			calls.Add(1)
			return v, err
		},
	}
}

func TestValue_CalculatesOnce(t *testing.T) {
	var calls atomic.Int32
	v := New[string](counting(&calls, "out", nil))

	assert.False(t, v.IsCalculated())
	first := v.CalculateNow(context.Background(), nil)
	for range 5 {
		assert.Equal(t, first, v.CalculateNow(context.Background(), &node.ExecutionContext{WorkerID: 3}))
	}
	assert.True(t, v.IsCalculated())
	assert.Equal(t, int32(1), calls.Load())

	got, err := v.Get().Get()
	require.NoError(t, err)
	assert.Equal(t, "out", got)
}

func TestValue_CachesFailure(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	v := New[int](counting(&calls, 0, boom))

	r1 := v.CalculateNow(context.Background(), nil)
	r2 := v.CalculateNow(context.Background(), nil)

	assert.Same(t, boom, r1.Err())
	assert.Same(t, boom, r2.Err())
	assert.Same(t, boom, v.Get().Err())
	assert.Equal(t, int32(1), calls.Load())
}

func TestValue_GetDoesNotCalculate(t *testing.T) {
	var calls atomic.Int32
	v := New[int](counting(&calls, 1, nil))

	r := v.Get()
	assert.ErrorIs(t, r.Err(), ErrNotCalculated)
	assert.Contains(t, r.Err().Error(), "counted")
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, v.IsCalculated())
}

func TestValue_ConcurrentCallersShareOneCalculation(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	v := New[*int](CalculationFunc[*int]{
		Name: "slow",
		Fn: func(context.Context, *node.ExecutionContext) (*int, error) {
			calls.Add(1)
			<-release
			n := 7
			return &n, nil
		},
	})

	const callers = 32
	results := make([]result.Result[*int], callers)
	var started, wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		started.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			results[i] = v.CalculateNow(context.Background(), &node.ExecutionContext{WorkerID: i})
		}()
	}
	started.Wait()
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	first, err := results[0].Get()
	require.NoError(t, err)
	for _, r := range results {
		got, err := r.Get()
		require.NoError(t, err)
		assert.Same(t, first, got)
	}
}

func TestValue_ReadsResolvedPredecessorWithoutDeadlock(t *testing.T) {
	upstream := New[int](CalculationFunc[int]{
		Name: "upstream",
		Fn:   func(context.Context, *node.ExecutionContext) (int, error) { return 20, nil },
	})
	downstream := New[int](CalculationFunc[int]{
		Name: "downstream",
		Fn: func(ctx context.Context, ec *node.ExecutionContext) (int, error) {
			up, err := upstream.CalculateNow(ctx, ec).Get()
			return up + 1, err
		},
	})

	upstream.CalculateNow(context.Background(), nil)
	got, err := downstream.CalculateNow(context.Background(), nil).Get()
	require.NoError(t, err)
	assert.Equal(t, 21, got)
}

func TestValue_PanicIsStoredAndReraised(t *testing.T) {
	var calls atomic.Int32
	v := New[int](CalculationFunc[int]{
		Name: "explosive",
		Fn: func(context.Context, *node.ExecutionContext) (int, error) {
			calls.Add(1)
			panic("kaboom")
		},
	})

	assert.PanicsWithValue(t, "kaboom", func() {
		v.CalculateNow(context.Background(), nil)
	})

	r := v.CalculateNow(context.Background(), nil)
	require.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), "kaboom")
	assert.True(t, v.IsCalculated())
	assert.Equal(t, int32(1), calls.Load())
}

func TestValue_GoexitReleasesWaiters(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	v := New[int](CalculationFunc[int]{
		Name: "leaver",
		Fn: func(context.Context, *node.ExecutionContext) (int, error) {
			close(started)
			<-release
			runtime.Goexit()
			return 0, nil
		},
	})

	var panicked atomic.Bool
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		defer func() {
			if recover() != nil {
				panicked.Store(true)
			}
		}()
		v.CalculateNow(context.Background(), nil)
	}()

	<-started
	waiter := make(chan result.Result[int], 1)
	go func() { waiter <- v.CalculateNow(context.Background(), nil) }()
	close(release)

	select {
	case r := <-waiter:
		assert.ErrorContains(t, r.Err(), "leaver: calculation exited without a result")
	case <-time.After(5 * time.Second):
		t.Fatal("waiter was not released")
	}
	<-exited
	assert.False(t, panicked.Load())
	assert.True(t, v.IsCalculated())
}

func TestValue_DisplayName(t *testing.T) {
	v := New[int](CalculationFunc[int]{Name: "described"})
	assert.Equal(t, "described", v.DisplayName())
	assert.Equal(t, "described", v.String())
}
