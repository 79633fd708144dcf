// Интерфейс Tool и структуры определений.

package tools

import "context"

// JSONSchema — JSON Schema параметров инструмента (Function Calling format).
type JSONSchema map[string]any

// ToolDefinition описывает инструмент для LLM.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"` // JSON Schema объекта аргументов
}

// Tool — контракт, который должен реализовать любой инструмент.
type Tool interface {
	// Definition возвращает описание инструмента для LLM.
	Definition() ToolDefinition

	// Execute выполняет логику инструмента.
	// argsJSON — сырой JSON с аргументами, который прислала LLM.
	// Результат (обычно JSON) уходит обратно модели как сообщение role=tool.
	Execute(ctx context.Context, argsJSON string) (string, error)
}
