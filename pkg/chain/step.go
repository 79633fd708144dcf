package chain

import (
	"context"
	"fmt"
)

// NextAction определяет поведение Chain после выполнения Step.
type NextAction int

const (
	// ActionContinue — продолжить выполнение следующего Step.
	ActionContinue NextAction = iota

	// ActionBreak — штатно остановить цепочку (например, результат уже получен).
	ActionBreak

	// ActionError — прервать выполнение с ошибкой.
	ActionError
)

// String возвращает строковое представление NextAction (для дебага).
func (a NextAction) String() string {
	switch a {
	case ActionContinue:
		return "Continue"
	case ActionBreak:
		return "Break"
	case ActionError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ExecutionSignal — типизированный сигнал о причине завершения шага.
type ExecutionSignal int

const (
	// SignalNone — обычное выполнение.
	SignalNone ExecutionSignal = iota

	// SignalFinalAnswer — получен финальный результат цепочки.
	SignalFinalAnswer

	// SignalError — шаг завершился ошибкой.
	SignalError
)

// String возвращает строковое представление ExecutionSignal.
func (s ExecutionSignal) String() string {
	switch s {
	case SignalNone:
		return "None"
	case SignalFinalAnswer:
		return "FinalAnswer"
	case SignalError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// StepResult — явный результат шага.
type StepResult struct {
	Action NextAction
	Signal ExecutionSignal
	Error  error
}

// Continue — успешный шаг, идём дальше.
func Continue() StepResult {
	return StepResult{Action: ActionContinue, Signal: SignalNone}
}

// Final — успешный шаг, который даёт финальный результат.
func Final() StepResult {
	return StepResult{Action: ActionContinue, Signal: SignalFinalAnswer}
}

// WithError превращает результат в ошибочный.
func (r StepResult) WithError(err error) StepResult {
	r.Action = ActionError
	r.Signal = SignalError
	r.Error = err
	return r
}

// String — для логов.
func (r StepResult) String() string {
	return fmt.Sprintf("StepResult{Action: %s, Signal: %s, Error: %v}", r.Action, r.Signal, r.Error)
}

// Step — атомарный шаг выполнения Chain.
//
// Rule 7: Step возвращает ошибку в StepResult, а не паникует.
type Step interface {
	// Name возвращает уникальное имя Step (для логирования).
	Name() string

	// Execute выполняет Step. Состояние меняется только через методы Context.
	Execute(ctx context.Context, chainCtx *Context) StepResult
}

// StepFunc — функциональная обёртка для простых Step.
type StepFunc struct {
	name string
	fn   func(context.Context, *Context) StepResult
}

// Name возвращает имя StepFunc.
func (s StepFunc) Name() string {
	return s.name
}

// Execute выполняет функцию StepFunc.
func (s StepFunc) Execute(ctx context.Context, chainCtx *Context) StepResult {
	return s.fn(ctx, chainCtx)
}

// NewStepFunc создаёт новый StepFunc из функции.
func NewStepFunc(name string, fn func(context.Context, *Context) StepResult) Step {
	return StepFunc{
		name: name,
		fn:   fn,
	}
}
