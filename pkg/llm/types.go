// Базовые типы - определяем универсальный язык общения с моделями.
package llm

// Role — роль автора сообщения.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message — одно сообщение диалога.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // Заполнено, если модель решила вызвать функции
	ToolCallID string     // Для Role == RoleTool: на какой вызов это ответ
}

// ToolCall — запрос модели на вызов инструмента.
type ToolCall struct {
	ID   string
	Name string
	Args string // Сырой JSON аргументов
}

// HasToolCalls сообщает, просит ли модель вызвать инструменты.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// SystemMessage / UserMessage — короткие конструкторы.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ToolResultMessage — ответ инструмента на конкретный вызов.
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}
