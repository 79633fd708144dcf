// Package events — Port для событий прогресса планирования.
//
// Оркестратор и агенты отправляют события через Emitter, не зная про UI.
// TUI рисует по ним спиннер и строку статуса, web отдаёт их как SSE.
//
//	em := events.NewChanEmitter(32)
//	go func() {
//	    for ev := range em.Subscribe().Events() {
//	        switch ev.Type {
//	        case events.EventStageCompleted:
//	            ui.showStatus(ev.Data)
//	        }
//	    }
//	}()
//
// Все реализации Emitter должны быть thread-safe и уважать context.Context.
package events

import (
	"context"
	"time"
)

// EventType представляет тип события.
type EventType string

const (
	// EventStageStarted — стадия (research / planning) началась.
	EventStageStarted EventType = "stage_started"

	// EventStageCompleted — стадия завершилась успешно.
	EventStageCompleted EventType = "stage_completed"

	// EventStageFailed — стадия завершилась ошибкой, дальше не идём.
	EventStageFailed EventType = "stage_failed"

	// EventToolCall отправляется когда агент вызывает инструмент.
	EventToolCall EventType = "tool_call"

	// EventToolResult отправляется когда инструмент вернул результат.
	EventToolResult EventType = "tool_result"

	// EventDone — запрос обработан (успешно или нет).
	EventDone EventType = "done"
)

// EventData — sealed interface для данных события.
//
// Только типы из пакета events могут реализовать этот интерфейс.
type EventData interface {
	eventData()
}

// StageData — данные для EventStageStarted/Completed/Failed.
type StageData struct {
	Stage    string        // "research" или "planning"
	Message  string        // Строка статуса для пользователя
	Err      error         // Только для EventStageFailed
	Duration time.Duration // Для Completed/Failed
}

func (StageData) eventData() {}

// ToolCallData содержит данные о вызове инструмента.
type ToolCallData struct {
	Agent    string
	ToolName string
	Args     string
}

func (ToolCallData) eventData() {}

// ToolResultData содержит результат выполнения инструмента.
type ToolResultData struct {
	Agent    string
	ToolName string
	Args     string // те же аргументы, что в ToolCallData
	Result   string
	Err      error
	Duration time.Duration
}

func (ToolResultData) eventData() {}

// DoneData — итог обработки запроса.
type DoneData struct {
	OK       bool
	Notice   string // Сообщение об ошибке для пользователя; пусто при успехе
	Duration time.Duration
}

func (DoneData) eventData() {}

// Event — одно событие.
//
// Data соответствует Type:
//   - EventStageStarted/Completed/Failed: StageData
//   - EventToolCall: ToolCallData
//   - EventToolResult: ToolResultData
//   - EventDone: DoneData
type Event struct {
	Type      EventType
	Data      EventData
	Timestamp time.Time
}

// New создаёт событие с текущим временем.
func New(t EventType, data EventData) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// Emitter — это Port для отправки событий.
//
// Rule 11: все операции должны уважать context.Context.
type Emitter interface {
	// Emit отправляет событие. Если context отменён, событие теряется.
	Emit(ctx context.Context, event Event)
}

// Subscriber позволяет читать события из канала.
type Subscriber interface {
	// Events возвращает read-only канал событий.
	Events() <-chan Event

	// Close освобождает подписчика.
	Close()
}

// FuncEmitter адаптирует функцию к Emitter.
type FuncEmitter func(ctx context.Context, event Event)

// Emit вызывает функцию.
func (f FuncEmitter) Emit(ctx context.Context, event Event) {
	if f != nil {
		f(ctx, event)
	}
}

// NopEmitter игнорирует все события.
type NopEmitter struct{}

// Emit ничего не делает.
func (NopEmitter) Emit(context.Context, Event) {}

// Multi рассылает событие в несколько Emitter по порядку. nil пропускаются.
func Multi(emitters ...Emitter) Emitter {
	var list []Emitter
	for _, e := range emitters {
		if e != nil {
			list = append(list, e)
		}
	}
	return FuncEmitter(func(ctx context.Context, event Event) {
		for _, e := range list {
			e.Emit(ctx, event)
		}
	})
}

var (
	_ Emitter = FuncEmitter(nil)
	_ Emitter = NopEmitter{}
)
