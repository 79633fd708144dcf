// Package agent реализует двухстадийный конвейер: исследование направления,
// затем составление маршрута.
//
// Стадии — это шаги pkg/chain. Каждый шаг возвращает явный StepResult,
// и планировщик запускается только если исследование успешно и вернуло
// непустой текст. Повторов нет: одна попытка на стадию.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilkoid/poncho-travel/internal/trip"
	llmagent "github.com/ilkoid/poncho-travel/pkg/agent"
	"github.com/ilkoid/poncho-travel/pkg/chain"
	"github.com/ilkoid/poncho-travel/pkg/debug"
	"github.com/ilkoid/poncho-travel/pkg/events"
	"github.com/ilkoid/poncho-travel/pkg/utils"
)

// Stage — стадия конвейера.
type Stage string

const (
	StageResearch Stage = "research"
	StagePlanning Stage = "planning"
)

// Строки статуса для UI.
const (
	MsgResearching    = "Researching your destination..."
	MsgResearchDone   = "✓ Research completed"
	MsgPlanning       = "Creating your personalized itinerary..."
	MsgItineraryReady = "✓ Itinerary ready"
)

// ErrEmptyResearch — исследователь отработал без ошибки, но текста нет.
var ErrEmptyResearch = errors.New("researcher returned no content")

// Delegate — контракт исследователя и планировщика.
// pkg/agent.Agent ему удовлетворяет.
type Delegate interface {
	Run(ctx context.Context, instruction string) (llmagent.Response, error)
}

// StageFailure — ошибка конкретной стадии.
type StageFailure struct {
	Stage Stage
	Err   error
}

func (f *StageFailure) Error() string {
	return fmt.Sprintf("%s stage: %v", f.Stage, f.Err)
}

func (f *StageFailure) Unwrap() error {
	return f.Err
}

// Notice — сообщение для пользователя.
func (f *StageFailure) Notice() string {
	if f.Stage == StagePlanning {
		return fmt.Sprintf("Planner failed: %v", f.Err)
	}
	return fmt.Sprintf("Research failed: %v", f.Err)
}

// Outcome — итог одной заявки.
type Outcome struct {
	Request   trip.Request
	Research  *trip.ResearchResult
	Itinerary *trip.Itinerary
	Failure   *StageFailure
	Duration  time.Duration

	// TracePath — путь к JSON трейсу, если включён debug.
	TracePath string
}

// OK — маршрут получен.
func (o Outcome) OK() bool {
	return o.Failure == nil && o.Itinerary != nil
}

// Notice — сообщение об ошибке для пользователя, пусто при успехе.
func (o Outcome) Notice() string {
	if o.Failure == nil {
		return ""
	}
	return o.Failure.Notice()
}

// ResearchInstruction — инструкция исследователю.
func ResearchInstruction(req trip.Request) string {
	return fmt.Sprintf("Research %s for a %d day trip", req.Destination, req.Days)
}

// PlanInstruction — инструкция планировщику. Текст исследования вставляется
// без изменений.
func PlanInstruction(req trip.Request, research string) string {
	return fmt.Sprintf("Destination: %s\nDuration: %d days\nResearch Results: %s\n\nPlease create a detailed itinerary based on this research.",
		req.Destination, req.Days, research)
}

// Config — зависимости Orchestrator.
type Config struct {
	Researcher Delegate
	Planner    Delegate

	// Emitter — общий получатель событий; события запроса идут через context.
	Emitter events.Emitter

	// Recorder — debug трейсы. nil = выключено.
	Recorder *debug.Recorder

	Now func() time.Time
}

// Orchestrator — конвейер исследование → планирование.
//
// Состояния между вызовами Run нет, безопасен для параллельных запросов.
type Orchestrator struct {
	cfg   Config
	chain *chain.Sequential
}

// ключи chain.Context
const (
	keyRequest   = "request"
	keyResearch  = "research"
	keyItinerary = "itinerary"
	keyTrace     = "trace"
)

// New создаёт Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Researcher == nil {
		return nil, fmt.Errorf("researcher is required")
	}
	if cfg.Planner == nil {
		return nil, fmt.Errorf("planner is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	o := &Orchestrator{cfg: cfg}
	seq, err := chain.NewSequential(
		chain.NewStepFunc(string(StageResearch), o.researchStep),
		chain.NewStepFunc(string(StagePlanning), o.planningStep),
	)
	if err != nil {
		return nil, err
	}
	o.chain = seq
	return o, nil
}

// Run обрабатывает одну заявку. Ошибки не возвращаются, а попадают
// в Outcome.Failure.
func (o *Orchestrator) Run(ctx context.Context, req trip.Request) Outcome {
	start := o.cfg.Now()
	outcome := Outcome{Request: req}

	chainCtx := chain.NewContext()
	chainCtx.Set(keyRequest, req)

	var trace *debug.Trace
	if o.cfg.Recorder != nil {
		trace = o.cfg.Recorder.Begin(req.Destination, req.Days)
		chainCtx.Set(keyTrace, trace)
		ctx = events.WithEmitter(ctx, trace.Emitter())
	}

	utils.Info("Trip request started", "destination", req.Destination, "days", req.Days)

	out := o.chain.Execute(ctx, chainCtx)

	if v, ok := chainCtx.Get(keyResearch); ok {
		r := v.(trip.ResearchResult)
		outcome.Research = &r
	}
	if v, ok := chainCtx.Get(keyItinerary); ok {
		it := v.(trip.Itinerary)
		outcome.Itinerary = &it
	}

	if out.Err != nil {
		var failure *StageFailure
		if !errors.As(out.Err, &failure) {
			// отмена context между шагами
			failure = &StageFailure{Stage: Stage(out.FailedStep), Err: out.Err}
		}
		outcome.Failure = failure
	}

	outcome.Duration = o.cfg.Now().Sub(start)

	if outcome.Failure != nil {
		utils.Error("Trip request failed",
			"destination", req.Destination,
			"stage", string(outcome.Failure.Stage),
			"error", fmt.Sprintf("%+v", outcome.Failure.Err))
	} else {
		utils.Info("Trip request finished",
			"destination", req.Destination,
			"duration_ms", outcome.Duration.Milliseconds())
	}

	if trace != nil {
		path, err := trace.Finalize(outcome.Notice(), outcome.Duration)
		if err != nil {
			utils.Warn("Failed to write debug trace", "error", err)
		} else {
			outcome.TracePath = path
			utils.Debug("Debug trace written", "path", path)
		}
	}

	events.Emit(ctx, o.cfg.Emitter, events.New(events.EventDone, events.DoneData{
		OK:       outcome.OK(),
		Notice:   outcome.Notice(),
		Duration: outcome.Duration,
	}))

	return outcome
}

func (o *Orchestrator) researchStep(ctx context.Context, chainCtx *chain.Context) chain.StepResult {
	req := requestFrom(chainCtx)

	resp, err := o.runStage(ctx, chainCtx, StageResearch, MsgResearching, o.cfg.Researcher, ResearchInstruction(req))
	if err != nil {
		return chain.StepResult{}.WithError(err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return chain.StepResult{}.WithError(o.fail(ctx, StageResearch, ErrEmptyResearch, resp.Duration))
	}

	chainCtx.Set(keyResearch, trip.ResearchResult{
		Content:    resp.Content,
		Model:      resp.Model,
		Iterations: resp.Iterations,
		ToolCalls:  resp.ToolCalls,
		Duration:   resp.Duration,
	})
	o.emitStage(ctx, events.EventStageCompleted, StageResearch, MsgResearchDone, nil, resp.Duration)
	return chain.Continue()
}

func (o *Orchestrator) planningStep(ctx context.Context, chainCtx *chain.Context) chain.StepResult {
	req := requestFrom(chainCtx)

	v, _ := chainCtx.Get(keyResearch)
	research, ok := v.(trip.ResearchResult)
	if !ok {
		return chain.StepResult{}.WithError(&StageFailure{Stage: StagePlanning, Err: ErrEmptyResearch})
	}

	resp, err := o.runStage(ctx, chainCtx, StagePlanning, MsgPlanning, o.cfg.Planner, PlanInstruction(req, research.Content))
	if err != nil {
		return chain.StepResult{}.WithError(err)
	}

	chainCtx.Set(keyItinerary, trip.Itinerary{
		Content:  resp.Content,
		Model:    resp.Model,
		Duration: resp.Duration,
	})
	o.emitStage(ctx, events.EventStageCompleted, StagePlanning, MsgItineraryReady, nil, resp.Duration)
	return chain.Final()
}

// runStage вызывает делегата и ведёт трейс стадии.
// Ошибка делегата возвращается уже как *StageFailure.
func (o *Orchestrator) runStage(ctx context.Context, chainCtx *chain.Context, stage Stage, msg string, d Delegate, instruction string) (llmagent.Response, error) {
	trace := traceFrom(chainCtx)
	if trace != nil {
		trace.StartStage(string(stage))
	}
	o.emitStage(ctx, events.EventStageStarted, stage, msg, nil, 0)

	resp, err := d.Run(ctx, instruction)

	if trace != nil {
		traceErr := err
		if traceErr == nil && stage == StageResearch && strings.TrimSpace(resp.Content) == "" {
			traceErr = ErrEmptyResearch
		}
		trace.EndStage(resp.Model, resp.Iterations, resp.Content, resp.Duration, traceErr)
	}

	if err != nil {
		return resp, o.fail(ctx, stage, err, resp.Duration)
	}
	return resp, nil
}

func (o *Orchestrator) fail(ctx context.Context, stage Stage, err error, d time.Duration) *StageFailure {
	failure := &StageFailure{Stage: stage, Err: err}
	o.emitStage(ctx, events.EventStageFailed, stage, failure.Notice(), err, d)
	return failure
}

func (o *Orchestrator) emitStage(ctx context.Context, t events.EventType, stage Stage, msg string, err error, d time.Duration) {
	events.Emit(ctx, o.cfg.Emitter, events.New(t, events.StageData{
		Stage:    string(stage),
		Message:  msg,
		Err:      err,
		Duration: d,
	}))
}

func requestFrom(chainCtx *chain.Context) trip.Request {
	v, _ := chainCtx.Get(keyRequest)
	req, _ := v.(trip.Request)
	return req
}

func traceFrom(chainCtx *chain.Context) *debug.Trace {
	v, ok := chainCtx.Get(keyTrace)
	if !ok {
		return nil
	}
	t, _ := v.(*debug.Trace)
	return t
}
