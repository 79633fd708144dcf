package events

import (
	"context"
	"sync"
)

// ChanEmitter — реализация Emitter через канал.
//
// Thread-safe. Потребитель обязан вычитывать канал, иначе Emit блокируется
// до отмены context.
type ChanEmitter struct {
	mu     sync.RWMutex
	ch     chan Event
	closed bool
}

// NewChanEmitter создаёт ChanEmitter с буферизованным каналом.
//
// buffer = 0 — небуферизованный (blocking) канал.
func NewChanEmitter(buffer int) *ChanEmitter {
	return &ChanEmitter{
		ch: make(chan Event, buffer),
	}
}

// Emit отправляет событие в канал.
//
// Read-lock держится на время отправки, чтобы Close не закрыл канал
// посреди send.
func (e *ChanEmitter) Emit(ctx context.Context, event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return
	}

	select {
	case e.ch <- event:
	case <-ctx.Done():
	}
}

// Subscribe возвращает Subscriber для чтения событий.
//
// Все подписчики читают один канал: каждое событие получит только один из них.
func (e *ChanEmitter) Subscribe() Subscriber {
	return &chanSubscriber{ch: e.ch}
}

// Close закрывает канал. После закрытия Emit больше не отправляет события.
func (e *ChanEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}

// chanSubscriber реализует Subscriber интерфейс.
type chanSubscriber struct {
	ch <-chan Event
}

// Events возвращает read-only канал событий.
func (s *chanSubscriber) Events() <-chan Event {
	return s.ch
}

// Close — no-op: канал общий, закрывается через ChanEmitter.Close().
func (s *chanSubscriber) Close() {}

var (
	_ Emitter    = (*ChanEmitter)(nil)
	_ Subscriber = (*chanSubscriber)(nil)
)
