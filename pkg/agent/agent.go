// Package agent — runtime LLM агента с tool-calling циклом.
//
// Agent получает инструкцию на естественном языке, собирает системный промпт
// из определения роли и крутит ReAct цикл: вызов модели, выполнение
// запрошенных инструментов, снова вызов модели, пока модель не ответит
// без вызовов инструментов.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilkoid/poncho-travel/pkg/events"
	"github.com/ilkoid/poncho-travel/pkg/llm"
	"github.com/ilkoid/poncho-travel/pkg/models"
	"github.com/ilkoid/poncho-travel/pkg/tools"
	"github.com/ilkoid/poncho-travel/pkg/utils"
)

// ErrMaxIterations — модель так и не дала ответ без вызова инструментов.
var ErrMaxIterations = errors.New("max iterations exceeded without final answer")

const (
	defaultMaxIterations = 6
	defaultToolTimeout   = 30 * time.Second
)

// Config — параметры агента.
type Config struct {
	Name         string
	Role         string
	Description  string
	Instructions []string

	// Model — алиас из models.definitions; DefaultModel — fallback.
	Model        string
	Models       *models.Registry
	DefaultModel string

	// Tools — инструменты, доступные этой роли. nil = без инструментов.
	Tools *tools.Registry

	AddDatetime   bool
	MaxIterations int
	Temperature   float64
	MaxTokens     int
	ToolTimeout   time.Duration

	// Emitter — общий получатель событий (в дополнение к events.FromContext).
	Emitter events.Emitter

	// Now — источник времени для AddDatetime; nil = time.Now.
	Now func() time.Time
}

// Response — результат одного запуска.
type Response struct {
	Content    string
	Model      string
	Iterations int
	ToolCalls  int
	Duration   time.Duration
}

// Agent — LLM агент одной роли. Без состояния между запусками, безопасен
// для параллельного использования.
type Agent struct {
	cfg       Config
	provider  llm.Provider
	modelName string
}

// New создаёт агента и сразу разрешает модель через реестр.
func New(cfg Config) (*Agent, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("agent: name is required")
	}
	if cfg.Models == nil {
		return nil, fmt.Errorf("agent %s: model registry is required", cfg.Name)
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = defaultToolTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	entry, err := cfg.Models.Resolve(cfg.Model, cfg.DefaultModel)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", cfg.Name, err)
	}
	if cfg.Model != "" && entry.Name != cfg.Model {
		utils.Warn("Agent model not found, using default", "agent", cfg.Name, "requested", cfg.Model, "actual", entry.Name)
	}

	return &Agent{cfg: cfg, provider: entry.Provider, modelName: entry.Name}, nil
}

// Name — имя роли.
func (a *Agent) Name() string {
	return a.cfg.Name
}

// Model — фактический алиас модели.
func (a *Agent) Model() string {
	return a.modelName
}

// SystemPrompt собирает системный промпт из определения роли.
func (a *Agent) SystemPrompt() string {
	var b strings.Builder

	if d := strings.TrimSpace(a.cfg.Description); d != "" {
		b.WriteString(d)
		b.WriteString("\n\n")
	}
	if r := strings.TrimSpace(a.cfg.Role); r != "" {
		b.WriteString("<your_role>\n")
		b.WriteString(r)
		b.WriteString("\n</your_role>\n\n")
	}
	if len(a.cfg.Instructions) > 0 {
		b.WriteString("<instructions>\n")
		for i, ins := range a.cfg.Instructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(ins))
		}
		b.WriteString("</instructions>\n\n")
	}
	if a.cfg.AddDatetime {
		fmt.Fprintf(&b, "The current date and time is %s.\n", a.cfg.Now().Format("Monday, 02 January 2006 15:04 MST"))
	}

	return strings.TrimSpace(b.String())
}

// Run выполняет инструкцию.
//
// Ошибка модели или отмена context возвращаются сразу, без повторов.
// Ошибка инструмента не фатальна: текст ошибки уходит модели как результат.
func (a *Agent) Run(ctx context.Context, instruction string) (Response, error) {
	start := time.Now()
	resp := Response{Model: a.modelName}

	messages := []llm.Message{
		llm.SystemMessage(a.SystemPrompt()),
		llm.UserMessage(instruction),
	}

	var opts []any
	if a.cfg.Tools != nil && a.cfg.Tools.Len() > 0 {
		opts = append(opts, a.cfg.Tools.Definitions())
	}
	if a.cfg.Temperature > 0 {
		opts = append(opts, llm.WithTemperature(a.cfg.Temperature))
	}
	if a.cfg.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(a.cfg.MaxTokens))
	}

	utils.Info("Agent run started", "agent", a.cfg.Name, "model", a.modelName)

	for iter := 1; iter <= a.cfg.MaxIterations; iter++ {
		resp.Iterations = iter

		msg, err := a.provider.Generate(ctx, messages, opts...)
		if err != nil {
			resp.Duration = time.Since(start)
			return resp, fmt.Errorf("%s: llm call failed: %w", a.cfg.Name, err)
		}

		if !msg.HasToolCalls() {
			resp.Content = msg.Content
			resp.Duration = time.Since(start)
			utils.Info("Agent run finished",
				"agent", a.cfg.Name,
				"iterations", iter,
				"tool_calls", resp.ToolCalls,
				"duration_ms", resp.Duration.Milliseconds())
			return resp, nil
		}

		messages = append(messages, msg)
		for _, tc := range msg.ToolCalls {
			resp.ToolCalls++
			messages = append(messages, llm.ToolResultMessage(tc.ID, a.executeTool(ctx, tc)))
		}

		if err := ctx.Err(); err != nil {
			resp.Duration = time.Since(start)
			return resp, err
		}
	}

	resp.Duration = time.Since(start)
	return resp, fmt.Errorf("%s: %w (%d)", a.cfg.Name, ErrMaxIterations, a.cfg.MaxIterations)
}

// executeTool выполняет один вызов инструмента с таймаутом.
//
// Всегда возвращает строку для модели: результат или "Error: ...".
func (a *Agent) executeTool(ctx context.Context, tc llm.ToolCall) string {
	args := utils.NormalizeToolArgs(tc.Args)

	events.Emit(ctx, a.cfg.Emitter, events.New(events.EventToolCall, events.ToolCallData{
		Agent: a.cfg.Name, ToolName: tc.Name, Args: args,
	}))

	start := time.Now()
	result, err := a.runTool(ctx, tc.Name, args)
	duration := time.Since(start)

	events.Emit(ctx, a.cfg.Emitter, events.New(events.EventToolResult, events.ToolResultData{
		Agent: a.cfg.Name, ToolName: tc.Name, Args: args, Result: result, Err: err, Duration: duration,
	}))

	if err != nil {
		utils.Warn("Tool execution failed",
			"agent", a.cfg.Name,
			"tool", tc.Name,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return fmt.Sprintf("Error: %v", err)
	}

	utils.Debug("Tool executed",
		"agent", a.cfg.Name,
		"tool", tc.Name,
		"result_length", len(result),
		"duration_ms", duration.Milliseconds())
	return result
}

func (a *Agent) runTool(ctx context.Context, name, args string) (string, error) {
	if a.cfg.Tools == nil {
		return "", fmt.Errorf("tool '%s' not found", name)
	}
	tool, err := a.cfg.Tools.Get(name)
	if err != nil {
		return "", err
	}

	toolCtx, cancel := context.WithTimeout(ctx, a.cfg.ToolTimeout)
	defer cancel()

	type outcome struct {
		result string
		err    error
	}
	done := make(chan outcome, 1)

	// Инструмент может не уважать context, поэтому ждём в select
	go func() {
		r, e := tool.Execute(toolCtx, args)
		done <- outcome{result: r, err: e}
	}()

	select {
	case o := <-done:
		if o.err != nil && ctx.Err() == nil && errors.Is(toolCtx.Err(), context.DeadlineExceeded) {
			return "", a.timeoutError(name)
		}
		return o.result, o.err
	case <-toolCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", a.timeoutError(name)
	}
}

func (a *Agent) timeoutError(name string) error {
	return fmt.Errorf("tool '%s' timed out after %s: %w", name, a.cfg.ToolTimeout, context.DeadlineExceeded)
}
