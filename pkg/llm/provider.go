// Интерфейс Провайдера через который работает всё приложение.

package llm

import "context"

// Provider — абстракция над LLM API.
//
// Все адаптеры (OpenAI-совместимые Gemini, OpenRouter, Ollama) реализуют его.
type Provider interface {
	// Generate принимает историю сообщений и возвращает ответ модели.
	//
	// opts может содержать:
	//   - []tools.ToolDefinition — включает Function Calling
	//   - GenerateOption — runtime переопределения параметров
	Generate(ctx context.Context, messages []Message, opts ...any) (Message, error)
}
