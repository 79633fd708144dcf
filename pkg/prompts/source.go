package prompts

// PromptSource — источник определений ролей.
//
// Реализации: file, database, s3, api и встроенный default.
type PromptSource interface {
	// Load загружает определение по идентификатору ("researcher", "planner").
	// Отсутствие определения — ошибка, оборачивающая ErrNotFound.
	Load(promptID string) (*AgentPrompt, error)
}
