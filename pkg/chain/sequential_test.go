package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStep считает вызовы, чтобы проверять, что шаг не выполнялся.
type countingStep struct {
	name   string
	result StepResult
	calls  int
}

func (s *countingStep) Name() string { return s.name }

func (s *countingStep) Execute(context.Context, *Context) StepResult {
	s.calls++
	return s.result
}

func TestSequential_AllStepsComplete(t *testing.T) {
	a := &countingStep{name: "research", result: Continue()}
	b := &countingStep{name: "planning", result: Final()}

	seq, err := NewSequential(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"research", "planning"}, seq.Steps())

	out := seq.Execute(context.Background(), NewContext())
	assert.True(t, out.OK())
	assert.Equal(t, []string{"research", "planning"}, out.Completed)
	assert.Equal(t, SignalFinalAnswer, out.Signal)
	assert.Empty(t, out.FailedStep)
}

func TestSequential_StopsOnError(t *testing.T) {
	boom := errors.New("connection refused")
	a := &countingStep{name: "research", result: Continue().WithError(boom)}
	b := &countingStep{name: "planning", result: Final()}

	seq, err := NewSequential(a, b)
	require.NoError(t, err)

	out := seq.Execute(context.Background(), NewContext())
	assert.False(t, out.OK())
	assert.Equal(t, "research", out.FailedStep)
	assert.ErrorIs(t, out.Err, boom)
	assert.Equal(t, SignalError, out.Signal)
	assert.Empty(t, out.Completed)
	assert.Equal(t, 0, b.calls)
}

func TestSequential_ErrorWithoutCause(t *testing.T) {
	a := &countingStep{name: "research", result: StepResult{Action: ActionError}}
	seq, err := NewSequential(a)
	require.NoError(t, err)

	out := seq.Execute(context.Background(), NewContext())
	assert.EqualError(t, out.Err, "step research failed")
}

func TestSequential_Break(t *testing.T) {
	a := &countingStep{name: "research", result: StepResult{Action: ActionBreak, Signal: SignalFinalAnswer}}
	b := &countingStep{name: "planning", result: Final()}

	seq, err := NewSequential(a, b)
	require.NoError(t, err)

	out := seq.Execute(context.Background(), NewContext())
	assert.True(t, out.OK())
	assert.Equal(t, []string{"research"}, out.Completed)
	assert.Equal(t, 0, b.calls)
}

func TestSequential_CancelledContext(t *testing.T) {
	a := &countingStep{name: "research", result: Continue()}
	seq, err := NewSequential(a)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := seq.Execute(ctx, NewContext())
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Equal(t, "research", out.FailedStep)
	assert.Equal(t, 0, a.calls)
}

func TestNewSequential_NilStep(t *testing.T) {
	_, err := NewSequential(&countingStep{name: "a"}, nil)
	assert.Error(t, err)
}
