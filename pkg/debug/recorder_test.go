package debug

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ilkoid/poncho-travel/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrace_Finalize(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	rec, err := NewRecorder(RecorderConfig{LogsDir: dir, IncludeToolResults: true, MaxResultSize: 5})
	require.NoError(t, err)

	trace := rec.Begin("Paris", 5)
	assert.True(t, strings.HasPrefix(trace.RunID(), "trip_"))

	trace.StartStage("research")
	em := trace.Emitter()
	em.Emit(context.Background(), events.New(events.EventToolResult, events.ToolResultData{
		Agent: "Researcher", ToolName: "search_google", Result: "Eiffel Tower tour", Duration: 40 * time.Millisecond,
	}))
	em.Emit(context.Background(), events.New(events.EventToolResult, events.ToolResultData{
		Agent: "Researcher", ToolName: "search_google", Err: errors.New("timeout"),
	}))
	// Не tool_result — игнорируется
	em.Emit(context.Background(), events.New(events.EventToolCall, events.ToolCallData{ToolName: "x"}))
	trace.EndStage("gemini-2.5-flash", 3, "Eiffel Tower tour; Louvre visit", time.Second, nil)

	trace.StartStage("planning")
	trace.EndStage("gemini-2.5-flash", 1, "", 200*time.Millisecond, errors.New("model unavailable"))

	path, err := trace.Finalize("Planner failed: model unavailable", 1200*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var log TripLog
	require.NoError(t, json.Unmarshal(raw, &log))
	assert.Equal(t, "Paris", log.Destination)
	assert.Equal(t, 5, log.Days)
	assert.EqualValues(t, 1200, log.Duration)
	require.Len(t, log.Stages, 2)
	assert.Equal(t, 3, log.Stages[0].Iterations)
	require.Len(t, log.Stages[0].Tools, 2)
	assert.Equal(t, "Eiffe... (truncated)", log.Stages[0].Tools[0].Result)
	assert.True(t, log.Stages[0].Tools[0].ResultTruncated)
	assert.Empty(t, log.Stages[0].Tools[0].Args)
	assert.Equal(t, "model unavailable", log.Stages[1].Error)

	assert.Equal(t, 2, log.Summary.TotalToolCalls)
	assert.Equal(t, []string{"search_google"}, log.Summary.VisitedTools)
	assert.Len(t, log.Summary.Errors, 2)
	assert.Equal(t, "Planner failed: model unavailable", log.Notice)
}

func TestTrace_RecordOutsideStageIsIgnored(t *testing.T) {
	rec, err := NewRecorder(RecorderConfig{LogsDir: t.TempDir()})
	require.NoError(t, err)

	trace := rec.Begin("Rome", 3)
	trace.RecordToolExecution(ToolExecution{Name: "search_google", Success: true})
	trace.EndStage("m", 1, "x", time.Second, nil)

	path, err := trace.Finalize("", time.Second)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var log TripLog
	require.NoError(t, json.Unmarshal(raw, &log))
	assert.Empty(t, log.Stages)
	assert.Equal(t, 0, log.Summary.TotalToolCalls)
}

func TestRecorder_SameInstantDistinctFiles(t *testing.T) {
	rec, err := NewRecorder(RecorderConfig{LogsDir: t.TempDir()})
	require.NoError(t, err)
	fixed := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return fixed }

	paris := rec.Begin("Paris", 5)
	tokyo := rec.Begin("Tokyo", 3)
	assert.NotEqual(t, paris.RunID(), tokyo.RunID())

	p1, err := paris.Finalize("", time.Second)
	require.NoError(t, err)
	p2, err := tokyo.Finalize("", time.Second)
	require.NoError(t, err)
	require.NotEqual(t, p1, p2)

	raw, err := os.ReadFile(p1)
	require.NoError(t, err)
	var log TripLog
	require.NoError(t, json.Unmarshal(raw, &log))
	assert.Equal(t, "Paris", log.Destination)
}

func TestTrace_ToolArgs(t *testing.T) {
	for _, include := range []bool{true, false} {
		rec, err := NewRecorder(RecorderConfig{LogsDir: t.TempDir(), IncludeToolArgs: include})
		require.NoError(t, err)

		trace := rec.Begin("Lisbon", 4)
		trace.StartStage("research")
		trace.Emitter().Emit(context.Background(), events.New(events.EventToolResult, events.ToolResultData{
			Agent: "Researcher", ToolName: "search_google", Args: `{"query":"Lisbon attractions"}`, Result: "ok",
		}))
		trace.EndStage("gemini-2.5-flash", 2, "ok", time.Second, nil)

		path, err := trace.Finalize("", time.Second)
		require.NoError(t, err)
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		var log TripLog
		require.NoError(t, json.Unmarshal(raw, &log))
		require.Len(t, log.Stages[0].Tools, 1)

		if include {
			assert.Equal(t, `{"query":"Lisbon attractions"}`, log.Stages[0].Tools[0].Args)
		} else {
			assert.Empty(t, log.Stages[0].Tools[0].Args)
		}
	}
}

func TestTrace_TruncateKeepsRunes(t *testing.T) {
	rec, err := NewRecorder(RecorderConfig{LogsDir: t.TempDir(), IncludeToolResults: true, MaxResultSize: 4})
	require.NoError(t, err)

	trace := rec.Begin("Zürich", 2)
	trace.StartStage("research")
	// "aéé": 'é' занимает два байта, граница 4 попадает внутрь второй
	trace.RecordToolExecution(ToolExecution{Name: "search_google", Result: "aééz", Success: true})
	trace.EndStage("m", 1, "x", time.Second, nil)

	path, err := trace.Finalize("", time.Second)
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var log TripLog
	require.NoError(t, json.Unmarshal(raw, &log))

	got := log.Stages[0].Tools[0].Result
	assert.Equal(t, "aé... (truncated)", got)
	assert.True(t, utf8.ValidString(got))
}
