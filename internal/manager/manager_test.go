package manager

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type fakeHarvest struct {
	id   string
	name string
	err  error

	runs    *atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (f *fakeHarvest) ID() string   { return f.id }
func (f *fakeHarvest) Name() string { return f.name }

func (f *fakeHarvest) Run(ctx context.Context) error {
	if f.runs != nil {
		f.runs.Add(1)
	}
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.err
}

func TestRunSequential(t *testing.T) {
	t.Run("a failing harvest does not block later ones", func(t *testing.T) {
		var runs atomic.Int32
		failing := &fakeHarvest{id: "1", name: "bad", err: fmt.Errorf("boom"), runs: &runs}
		passing := &fakeHarvest{id: "2", name: "good", runs: &runs}

		m := New()
		m.Register(failing)
		m.Register(passing)

		err := m.RunSequential(context.Background())
		require.Error(t, err)
		assert.Equal(t, int32(2), runs.Load())
		assert.Contains(t, err.Error(), "bad")
	})

	t.Run("all passing yields nil", func(t *testing.T) {
		m := New()
		m.Register(&fakeHarvest{id: "1", name: "a"})
		m.Register(&fakeHarvest{id: "2", name: "b"})
		assert.NoError(t, m.RunSequential(context.Background()))
	})
}

func TestRunConcurrent(t *testing.T) {
	t.Run("waits for every harvest", func(t *testing.T) {
		var runs atomic.Int32
		m := New()
		for i := 0; i < 5; i++ {
			m.Register(&fakeHarvest{id: fmt.Sprint(i), name: fmt.Sprintf("h-%d", i), runs: &runs})
		}

		require.NoError(t, m.RunConcurrent(context.Background()))
		assert.Equal(t, int32(5), runs.Load())
	})

	t.Run("one failure never cancels siblings", func(t *testing.T) {
		siblingStarted := make(chan struct{})
		release := make(chan struct{})

		failing := &fakeHarvest{id: "1", name: "bad", err: fmt.Errorf("boom")}
		slow := &fakeHarvest{id: "2", name: "slow", started: siblingStarted, release: release}

		m := New()
		m.Register(failing)
		m.Register(slow)

		done := make(chan error, 1)
		go func() { done <- m.RunConcurrent(context.Background()) }()

		<-siblingStarted
		close(release)

		err := <-done
		require.Error(t, err)
		assert.Len(t, multierr.Errors(err), 1)
		assert.Contains(t, err.Error(), "bad")
	})

	t.Run("failures from all harvests are collected", func(t *testing.T) {
		m := New()
		m.Register(&fakeHarvest{id: "1", name: "a", err: fmt.Errorf("one")})
		m.Register(&fakeHarvest{id: "2", name: "b", err: fmt.Errorf("two")})

		err := m.RunConcurrent(context.Background())
		require.Error(t, err)
		assert.Len(t, multierr.Errors(err), 2)
	})
}
