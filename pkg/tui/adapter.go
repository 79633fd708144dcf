// Package tui — терминальная форма планировщика на Bubble Tea.
//
// Port & Adapter:
//   - pkg/events.* — Port (интерфейсы)
//   - pkg/tui.* — Adapter: события оркестратора становятся tea.Msg
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/poncho-travel/pkg/events"
)

// EventMsg — events.Event как Bubble Tea сообщение.
type EventMsg events.Event

// ReceiveEventCmd возвращает Cmd, который ждёт следующее событие.
//
// Закрытый канал означает конец заявки: Cmd возвращает nil,
// и Bubble Tea просто не получает сообщения.
func ReceiveEventCmd(sub events.Subscriber, converter func(events.Event) tea.Msg) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-sub.Events()
		if !ok {
			return nil
		}
		return converter(event)
	}
}

func toEventMsg(e events.Event) tea.Msg {
	return EventMsg(e)
}
