package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/ilkoid/poncho-travel/pkg/events"
)

// RecorderConfig конфигурация для создания Recorder.
type RecorderConfig struct {
	// LogsDir — директория для сохранения трейсов
	LogsDir string

	// IncludeToolArgs — включать аргументы инструментов в лог
	IncludeToolArgs bool

	// IncludeToolResults — включать результаты инструментов в лог
	IncludeToolResults bool

	// MaxResultSize — максимальный размер результата (превышение обрезается).
	// 0 означает без ограничений
	MaxResultSize int
}

// Recorder — общая (на процесс) фабрика трейсов.
//
// Сам по себе состояния запроса не хранит: на каждый запрос Begin
// создаёт отдельный Trace, поэтому параллельные запросы не смешиваются.
type Recorder struct {
	config RecorderConfig
	now    func() time.Time

	// seq — порядковый номер трейса; различает запросы в одну миллисекунду
	seq atomic.Uint64
}

// NewRecorder создает Recorder. Если LogsDir не существует, создаёт её.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
	}
	return &Recorder{config: cfg, now: time.Now}, nil
}

// Begin начинает трейс одного запроса.
func (r *Recorder) Begin(destination string, days int) *Trace {
	started := r.now()
	n := r.seq.Add(1)
	return &Trace{
		config: r.config,
		log: TripLog{
			RunID:       fmt.Sprintf("trip_%s_%04d", started.Format("20060102_150405.000"), n),
			Timestamp:   started,
			Destination: destination,
			Days:        days,
		},
		visitedTools: make(map[string]struct{}),
	}
}

// Trace — трейс одного запроса. Потокобезопасен.
type Trace struct {
	mu sync.Mutex

	config RecorderConfig
	log    TripLog

	// current — стадия в процессе; nil между стадиями
	current *StageTrace

	visitedTools map[string]struct{}
	errors       []string
}

// RunID возвращает идентификатор трейса.
func (t *Trace) RunID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.RunID
}

// StartStage открывает новую стадию.
func (t *Trace) StartStage(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = &StageTrace{Name: name}
}

// EndStage закрывает текущую стадию.
func (t *Trace) EndStage(model string, iterations int, output string, duration time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return
	}
	t.current.Model = model
	t.current.Iterations = iterations
	t.current.OutputLength = len(output)
	t.current.Duration = duration.Milliseconds()
	if err != nil {
		t.current.Error = err.Error()
		t.errors = append(t.errors, fmt.Sprintf("%s: %v", t.current.Name, err))
	}
	t.log.Stages = append(t.log.Stages, *t.current)
	t.current = nil
}

// RecordToolExecution записывает вызов инструмента в текущую стадию.
func (t *Trace) RecordToolExecution(exec ToolExecution) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return
	}

	if !t.config.IncludeToolArgs {
		exec.Args = ""
	}
	if !t.config.IncludeToolResults {
		exec.Result = ""
	} else if t.config.MaxResultSize > 0 && len(exec.Result) > t.config.MaxResultSize {
		exec.Result = truncateUTF8(exec.Result, t.config.MaxResultSize) + "... (truncated)"
		exec.ResultTruncated = true
	}

	t.current.Tools = append(t.current.Tools, exec)
	t.visitedTools[exec.Name] = struct{}{}

	if !exec.Success && exec.Error != "" {
		t.errors = append(t.errors, fmt.Sprintf("Tool %s: %s", exec.Name, exec.Error))
	}
}

// Emitter возвращает адаптер, который пишет tool_result события в трейс.
//
// Подключается через events.WithEmitter к context запроса.
func (t *Trace) Emitter() events.Emitter {
	return events.FuncEmitter(func(_ context.Context, ev events.Event) {
		data, ok := ev.Data.(events.ToolResultData)
		if ev.Type != events.EventToolResult || !ok {
			return
		}
		exec := ToolExecution{
			Agent:    data.Agent,
			Name:     data.ToolName,
			Args:     data.Args,
			Result:   data.Result,
			Duration: data.Duration.Milliseconds(),
			Success:  data.Err == nil,
		}
		if data.Err != nil {
			exec.Error = data.Err.Error()
		}
		t.RecordToolExecution(exec)
	})
}

// Finalize сохраняет трейс в <logs_dir>/<run_id>.json и возвращает путь.
func (t *Trace) Finalize(notice string, duration time.Duration) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.log.Notice = notice
	t.log.Duration = duration.Milliseconds()
	t.buildSummary()

	data, err := json.MarshalIndent(t.log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal debug log: %w", err)
	}

	filePath := t.log.RunID + ".json"
	if t.config.LogsDir != "" {
		filePath = filepath.Join(t.config.LogsDir, filePath)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write debug log: %w", err)
	}
	return filePath, nil
}

// buildSummary формирует агрегированную статистику. Вызывается под mu.
func (t *Trace) buildSummary() {
	summary := Summary{
		Errors:       t.errors,
		VisitedTools: make([]string, 0, len(t.visitedTools)),
	}
	for tool := range t.visitedTools {
		summary.VisitedTools = append(summary.VisitedTools, tool)
	}
	sort.Strings(summary.VisitedTools)

	for _, stage := range t.log.Stages {
		for _, tool := range stage.Tools {
			summary.TotalToolCalls++
			summary.TotalToolDuration += tool.Duration
		}
	}
	t.log.Summary = summary
}

// truncateUTF8 обрезает s до max байт, не разрывая руну.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
