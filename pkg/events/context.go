package events

import "context"

type emitterKey struct{}

// WithEmitter привязывает Emitter к context конкретного запроса.
//
// Так SSE-обработчик получает события только своего запроса, хотя агенты
// и оркестратор общие для всех запросов.
func WithEmitter(ctx context.Context, e Emitter) context.Context {
	if e == nil {
		return ctx
	}
	if prev, ok := ctx.Value(emitterKey{}).(Emitter); ok {
		e = Multi(prev, e)
	}
	return context.WithValue(ctx, emitterKey{}, e)
}

// FromContext возвращает Emitter запроса или NopEmitter.
func FromContext(ctx context.Context) Emitter {
	if e, ok := ctx.Value(emitterKey{}).(Emitter); ok {
		return e
	}
	return NopEmitter{}
}

// Emit отправляет событие в общий Emitter (может быть nil) и в Emitter запроса.
func Emit(ctx context.Context, shared Emitter, event Event) {
	if shared != nil {
		shared.Emit(ctx, event)
	}
	FromContext(ctx).Emit(ctx, event)
}
