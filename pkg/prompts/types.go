package prompts

import (
	"fmt"
	"strings"

	"github.com/ilkoid/poncho-travel/pkg/prompts/sources"
)

// AgentPrompt — определение роли агента.
//
// Из него pkg/agent собирает системный промпт: описание, роль,
// нумерованные инструкции и (опционально) текущее время.
type AgentPrompt struct {
	Name         string         `yaml:"name" json:"name"`
	Role         string         `yaml:"role" json:"role"`
	Description  string         `yaml:"description" json:"description"`
	Instructions []string       `yaml:"instructions" json:"instructions"`
	AddDatetime  bool           `yaml:"add_datetime" json:"add_datetime"`
	Metadata     map[string]any `yaml:"metadata" json:"metadata,omitempty"`
}

// Validate проверяет, что из определения можно собрать промпт.
func (p *AgentPrompt) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("agent prompt: name is required")
	}
	if strings.TrimSpace(p.Description) == "" && len(p.Instructions) == 0 {
		return fmt.Errorf("agent prompt '%s': description or instructions required", p.Name)
	}
	return nil
}

// ErrNotFound возвращается когда источник не содержит определение.
var ErrNotFound = sources.ErrNotFound

// fromData конвертирует сырые данные источника в AgentPrompt.
func fromData(d *sources.PromptData) *AgentPrompt {
	return &AgentPrompt{
		Name:         d.Name,
		Role:         d.Role,
		Description:  d.Description,
		Instructions: d.Instructions,
		AddDatetime:  d.AddDatetime,
		Metadata:     d.Metadata,
	}
}
