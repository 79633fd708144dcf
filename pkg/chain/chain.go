// Package chain предоставляет Chain Pattern: компоновку поведения из
// изолированных шагов (Step).
//
// Каждый Step возвращает явный StepResult (продолжить / остановиться / ошибка),
// и цепочка решает, идти ли дальше, по результату, а не по панике.
//
// Правила:
//   - Rule 5: Thread-safe через Context
//   - Rule 7: Все ошибки возвращаются, нет panic
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/poncho-travel/pkg/utils"
)

// Chain представляет последовательность шагов.
type Chain interface {
	// Execute выполняет цепочку на переданном контексте.
	Execute(ctx context.Context, chainCtx *Context) Output
}

// Output — результат выполнения цепочки.
type Output struct {
	// Completed — имена успешно выполненных шагов по порядку.
	Completed []string

	// FailedStep — имя шага, на котором цепочка остановилась с ошибкой.
	FailedStep string

	// Signal — сигнал последнего выполненного шага.
	Signal ExecutionSignal

	// Err — ошибка упавшего шага или отмены context.
	Err error

	// Duration — общее время выполнения.
	Duration time.Duration
}

// OK — цепочка дошла до конца или штатно остановилась через ActionBreak.
func (o Output) OK() bool {
	return o.Err == nil
}

// Sequential выполняет шаги строго по порядку.
//
// Останавливается на первом ActionError или ActionBreak.
// Между шагами проверяет ctx.Done().
type Sequential struct {
	steps []Step
}

// NewSequential создаёт цепочку из шагов. Пустые (nil) шаги — ошибка.
func NewSequential(steps ...Step) (*Sequential, error) {
	for i, s := range steps {
		if s == nil {
			return nil, fmt.Errorf("step %d is nil", i)
		}
	}
	return &Sequential{steps: steps}, nil
}

// Steps возвращает имена шагов.
func (s *Sequential) Steps() []string {
	names := make([]string, len(s.steps))
	for i, st := range s.steps {
		names[i] = st.Name()
	}
	return names
}

// Execute выполняет шаги.
func (s *Sequential) Execute(ctx context.Context, chainCtx *Context) Output {
	start := time.Now()
	out := Output{Completed: make([]string, 0, len(s.steps))}

	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			out.FailedStep = step.Name()
			out.Signal = SignalError
			out.Err = err
			break
		}

		stepStart := time.Now()
		result := step.Execute(ctx, chainCtx)
		utils.Debug("Chain step finished",
			"step", step.Name(),
			"result", result.String(),
			"duration_ms", time.Since(stepStart).Milliseconds())

		out.Signal = result.Signal

		if result.Action == ActionError {
			out.FailedStep = step.Name()
			out.Err = result.Error
			if out.Err == nil {
				out.Err = fmt.Errorf("step %s failed", step.Name())
			}
			break
		}

		out.Completed = append(out.Completed, step.Name())
		if result.Action == ActionBreak {
			break
		}
	}

	out.Duration = time.Since(start)
	return out
}

var _ Chain = (*Sequential)(nil)
