package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-travel/internal/agent"
	"github.com/ilkoid/poncho-travel/internal/trip"
	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/events"
)

type stubPlanner struct {
	calls    int
	lastDays int
	failure  *agent.StageFailure
}

func (p *stubPlanner) Plan(ctx context.Context, destination string, days int) (agent.Outcome, error) {
	p.calls++
	p.lastDays = days

	req, err := trip.New(destination, days)
	if err != nil {
		return agent.Outcome{}, err
	}

	events.Emit(ctx, nil, events.New(events.EventStageCompleted, events.StageData{
		Stage: "research", Message: agent.MsgResearchDone,
	}))

	out := agent.Outcome{Request: req}
	if p.failure != nil {
		out.Failure = p.failure
		return out, nil
	}
	out.Research = &trip.ResearchResult{Content: "Eiffel Tower tour; Louvre visit"}
	out.Itinerary = &trip.Itinerary{Content: "Day 1: Eiffel Tower"}
	return out, nil
}

func newTestModel(p Planner) *Model {
	m := New(context.Background(), Config{Planner: p, Model: "gemini-2.5-flash"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_BlockedShowsOnlyConfigError(t *testing.T) {
	credErr := &config.CredentialError{Var: "SERPAPI_API_KEY"}
	m := New(context.Background(), Config{ConfigErr: credErr})

	view := m.View()
	assert.Contains(t, view, "Please set your SERPAPI_API_KEY environment variable.")
	assert.NotContains(t, view, "Where do you want to go?")
	assert.Nil(t, m.Init())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.CanSubmit())
}

func TestView_Form(t *testing.T) {
	m := newTestModel(&stubPlanner{})

	view := m.View()
	assert.Contains(t, view, "AI Travel Planner using gemini-2.5-flash")
	assert.Contains(t, view, "Where do you want to go?")
	assert.Contains(t, view, "How many days do you want to travel for? (1-30)")
	assert.Contains(t, view, "Generate Itinerary")
	assert.Equal(t, "7", m.days.Value())
}

func TestSubmit_EmptyDestinationDoesNothing(t *testing.T) {
	p := &stubPlanner{}
	m := newTestModel(p)

	m.destination.SetValue("   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, m.running)
	assert.Equal(t, 0, p.calls)
}

func TestDaysField_DigitsOnly(t *testing.T) {
	m := newTestModel(&stubPlanner{})

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, fieldDays, m.focus)

	m.Update(runes("x"))
	assert.Equal(t, "7", m.days.Value())

	m.Update(runes("2"))
	assert.Equal(t, "72", m.days.Value())
}

func TestSwitchFocus_ClampsDays(t *testing.T) {
	m := newTestModel(&stubPlanner{})

	m.days.SetValue("0")
	m.focus = fieldDays
	m.switchFocus()

	assert.Equal(t, "1", m.days.Value())
	assert.Equal(t, fieldDestination, m.focus)
}

func TestSubmit_ClampsDaysAndStarts(t *testing.T) {
	m := newTestModel(&stubPlanner{})

	m.destination.SetValue("Paris")
	m.days.SetValue("99")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.True(t, m.running)
	assert.Equal(t, "30", m.days.Value())
	assert.Equal(t, agent.MsgResearching, m.progress)
	assert.False(t, m.CanSubmit(), "second submit is blocked while running")
}

func TestPlanCmd_DeliversEventsAndResult(t *testing.T) {
	p := &stubPlanner{}
	m := newTestModel(p)

	emitter := events.NewChanEmitter(4)
	sub := emitter.Subscribe()

	msg := m.planCmd("Paris", 5, emitter)()
	done, ok := msg.(planDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	assert.True(t, done.outcome.OK())
	assert.Equal(t, 5, p.lastDays)

	// событие ушло в канал заявки, после Close канал закрыт
	evMsg := ReceiveEventCmd(sub, toEventMsg)()
	ev, ok := evMsg.(EventMsg)
	require.True(t, ok)
	assert.Equal(t, events.EventStageCompleted, ev.Type)
	assert.Nil(t, ReceiveEventCmd(sub, toEventMsg)())
}

func TestEventMsg_UpdatesStatus(t *testing.T) {
	m := newTestModel(&stubPlanner{})
	m.running = true

	m.Update(EventMsg(events.New(events.EventStageStarted, events.StageData{Message: agent.MsgPlanning})))
	assert.Equal(t, agent.MsgPlanning, m.progress)

	m.Update(EventMsg(events.New(events.EventStageCompleted, events.StageData{Message: agent.MsgResearchDone})))
	m.Update(EventMsg(events.New(events.EventStageCompleted, events.StageData{Message: agent.MsgResearchDone})))
	assert.Equal(t, []string{agent.MsgResearchDone}, m.statuses)
	assert.Contains(t, m.View(), "✓ Research completed")
}

func TestPlanEvent_StaleSubmissionDropped(t *testing.T) {
	m := newTestModel(&stubPlanner{})

	old := events.NewChanEmitter(1).Subscribe()
	current := events.NewChanEmitter(1)
	m.sub = current.Subscribe()
	m.running = true

	_, cmd := m.Update(planEventMsg{sub: old, event: events.New(events.EventStageCompleted,
		events.StageData{Message: agent.MsgResearchDone})})
	assert.Nil(t, cmd, "stale event must not start a second reader")
	assert.Empty(t, m.statuses)

	_, cmd = m.Update(planEventMsg{sub: m.sub, event: events.New(events.EventStageCompleted,
		events.StageData{Message: agent.MsgResearchDone})})
	assert.NotNil(t, cmd)
	assert.Equal(t, []string{agent.MsgResearchDone}, m.statuses)

	// следующее событие приходит с той же подпиской
	current.Emit(context.Background(), events.New(events.EventStageStarted, events.StageData{Message: agent.MsgPlanning}))
	next, ok := cmd().(planEventMsg)
	require.True(t, ok)
	assert.Equal(t, m.sub, next.sub)
	assert.Equal(t, events.EventStageStarted, next.event.Type)
}

func TestPlanDone_Success(t *testing.T) {
	m := newTestModel(&stubPlanner{})
	m.running = true

	req, err := trip.New("Paris", 5)
	require.NoError(t, err)
	m.Update(planDoneMsg{outcome: agent.Outcome{
		Request:   req,
		Research:  &trip.ResearchResult{Content: "Eiffel Tower tour; Louvre visit"},
		Itinerary: &trip.Itinerary{Content: "Day 1: Eiffel Tower"},
	}})

	assert.False(t, m.running)
	assert.Empty(t, m.notice)
	view := m.View()
	assert.Contains(t, view, "✓ Research completed")
	assert.Contains(t, view, "Day 1: Eiffel Tower")
}

func TestPlanDone_ResearchFailure(t *testing.T) {
	m := newTestModel(&stubPlanner{})
	m.running = true

	m.Update(planDoneMsg{outcome: agent.Outcome{
		Failure: &agent.StageFailure{Stage: agent.StageResearch, Err: errors.New("connection refused")},
	}})

	assert.Equal(t, "Research failed: connection refused", m.notice)
	assert.Empty(t, m.statuses)
	assert.Empty(t, m.itinerary)
	assert.Contains(t, m.View(), "Research failed: connection refused")
}

func TestPlanDone_PlannerFailureKeepsResearchStatus(t *testing.T) {
	m := newTestModel(&stubPlanner{})

	m.Update(planDoneMsg{outcome: agent.Outcome{
		Research: &trip.ResearchResult{Content: "notes"},
		Failure:  &agent.StageFailure{Stage: agent.StagePlanning, Err: errors.New("quota exceeded")},
	}})

	assert.Equal(t, []string{agent.MsgResearchDone}, m.statuses)
	assert.Equal(t, "Planner failed: quota exceeded", m.notice)
}

func TestSaveCmd(t *testing.T) {
	dir := t.TempDir()
	m := New(context.Background(), Config{Planner: &stubPlanner{}, SaveDir: dir})

	assert.Nil(t, m.saveCmd(), "nothing to save yet")

	req, err := trip.New("New York", 3)
	require.NoError(t, err)
	m.handlePlanDone(planDoneMsg{outcome: agent.Outcome{
		Request:   req,
		Research:  &trip.ResearchResult{Content: "r"},
		Itinerary: &trip.Itinerary{Content: "Day 1: Central Park"},
	}})

	msg := m.saveCmd()()
	saved, ok := msg.(saveSuccessMsg)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "itinerary-new-york.md"), saved.filename)

	data, err := os.ReadFile(saved.filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# New York (3 days)")
	assert.Contains(t, string(data), "Day 1: Central Park")
}

func TestQuit(t *testing.T) {
	m := newTestModel(&stubPlanner{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
