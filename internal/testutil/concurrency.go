package testutil

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/specialistvlad/transformgrid/internal/registry"
)

// SleeperModule registers a "sleep" action that records when each step ran.
// Its input files pass through unchanged.
type SleeperModule struct {
	mu             sync.Mutex
	executionTimes map[string]ExecutionRecord
	sleepDuration  time.Duration
}

// NewSleeperModule returns a sleeper whose steps each take sleep.
func NewSleeperModule(sleep time.Duration) *SleeperModule {
	return &SleeperModule{
		executionTimes: make(map[string]ExecutionRecord),
		sleepDuration:  sleep,
	}
}

type sleeperInput struct {
	ID string `hcl:"id"`
}

// Register implements the registry.Module interface.
func (m *SleeperModule) Register(r *registry.Registry) {
	r.RegisterAction("sleep", &registry.RegisteredAction{
		NewInput:  func() any { return new(sleeperInput) },
		InputType: reflect.TypeOf(sleeperInput{}),
		Fn: func(ctx context.Context, input *sleeperInput, req *registry.Request) ([]string, error) {
			start := time.Now()
			select {
			case <-time.After(m.sleepDuration):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			end := time.Now()

			m.mu.Lock()
			m.executionTimes[input.ID] = ExecutionRecord{Start: start, End: end}
			m.mu.Unlock()
			return req.Files, nil
		},
	})
}

// Record returns the execution record of the step with the given id.
func (m *SleeperModule) Record(id string) (ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.executionTimes[id]
	return r, ok
}
