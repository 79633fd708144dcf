package std

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/tools"
)

// DateTimeTool отдаёт модели текущие дату и время.
//
// Researcher использует его, чтобы учитывать сезон и ближайшие события.
type DateTimeTool struct {
	description string
	now         func() time.Time
}

// NewDateTimeTool создает инструмент. now == nil означает time.Now.
func NewDateTimeTool(toolCfg config.ToolConfig, now func() time.Time) *DateTimeTool {
	desc := toolCfg.Description
	if desc == "" {
		desc = "Returns the current date, time and weekday. Use it to reason about seasons and upcoming events."
	}
	if now == nil {
		now = time.Now
	}
	return &DateTimeTool{description: desc, now: now}
}

// Definition возвращает определение инструмента для function calling.
func (t *DateTimeTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "current_datetime",
		Description: t.description,
		Parameters: tools.JSONSchema{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

// Execute игнорирует аргументы.
func (t *DateTimeTool) Execute(_ context.Context, _ string) (string, error) {
	now := t.now()
	data, err := json.Marshal(map[string]string{
		"datetime": now.Format(time.RFC3339),
		"weekday":  now.Weekday().String(),
		"month":    now.Month().String(),
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
