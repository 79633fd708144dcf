package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChanEmitter_DeliversInOrder(t *testing.T) {
	em := NewChanEmitter(4)
	ctx := context.Background()

	em.Emit(ctx, New(EventStageStarted, StageData{Stage: "research"}))
	em.Emit(ctx, New(EventStageCompleted, StageData{Stage: "research", Message: "✓ Research completed"}))
	em.Close()

	var got []EventType
	for ev := range em.Subscribe().Events() {
		got = append(got, ev.Type)
		assert.False(t, ev.Timestamp.IsZero())
	}
	assert.Equal(t, []EventType{EventStageStarted, EventStageCompleted}, got)
}

func TestChanEmitter_EmitAfterCloseIsNoop(t *testing.T) {
	em := NewChanEmitter(1)
	em.Close()
	em.Close()

	assert.NotPanics(t, func() {
		em.Emit(context.Background(), New(EventDone, DoneData{OK: true}))
	})
}

func TestChanEmitter_RespectsContext(t *testing.T) {
	em := NewChanEmitter(0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		em.Emit(ctx, New(EventDone, DoneData{}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit did not return after context cancellation")
	}
}

func TestMulti(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	record := func(name string) Emitter {
		return FuncEmitter(func(_ context.Context, ev Event) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, name+":"+string(ev.Type))
		})
	}

	m := Multi(record("a"), nil, NopEmitter{}, record("b"))
	m.Emit(context.Background(), New(EventToolCall, ToolCallData{ToolName: "search_google"}))

	require.Len(t, seen, 2)
	assert.Equal(t, []string{"a:tool_call", "b:tool_call"}, seen)
}

func TestContextEmitter(t *testing.T) {
	ctx := context.Background()
	_, isNop := FromContext(ctx).(NopEmitter)
	assert.True(t, isNop)

	var shared, first, second []EventType
	ctx = WithEmitter(ctx, FuncEmitter(func(_ context.Context, ev Event) { first = append(first, ev.Type) }))
	ctx = WithEmitter(ctx, FuncEmitter(func(_ context.Context, ev Event) { second = append(second, ev.Type) }))
	ctx = WithEmitter(ctx, nil)

	Emit(ctx, FuncEmitter(func(_ context.Context, ev Event) { shared = append(shared, ev.Type) }), New(EventDone, DoneData{OK: true}))
	Emit(ctx, nil, New(EventToolCall, ToolCallData{}))

	assert.Equal(t, []EventType{EventDone}, shared)
	assert.Equal(t, []EventType{EventDone, EventToolCall}, first)
	assert.Equal(t, []EventType{EventDone, EventToolCall}, second)
}
