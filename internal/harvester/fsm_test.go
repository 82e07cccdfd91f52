package harvester

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSM(t *testing.T) {
	t.Run("starts in the created state", func(t *testing.T) {
		f := NewFSM()
		assert.Equal(t, StateCreated, f.Current())
	})

	t.Run("full lifecycle", func(t *testing.T) {
		f := NewFSM()
		require.NoError(t, f.Transition(StateBrowserReady))
		require.NoError(t, f.Transition(StateHarvesting))
		require.NoError(t, f.Transition(StateClosed))
		assert.Equal(t, StateClosed, f.Current())
	})

	t.Run("abandoned run closes from browser ready", func(t *testing.T) {
		f := NewFSM()
		require.NoError(t, f.Transition(StateBrowserReady))
		require.NoError(t, f.Transition(StateClosed))
	})

	t.Run("error always reaches closed", func(t *testing.T) {
		f := NewFSM()
		require.NoError(t, f.Transition(StateError))
		require.NoError(t, f.Transition(StateClosed))
	})

	t.Run("illegal transitions are rejected", func(t *testing.T) {
		f := NewFSM()
		err := f.Transition(StateHarvesting)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StateCreated, f.Current())

		f = NewFSM(FSMWithInitialState(StateClosed))
		assert.ErrorIs(t, f.Transition(StateHarvesting), ErrInvalidTransition)
	})
}
