package agent

import "github.com/ilkoid/poncho-travel/pkg/prompts"

// FromPrompt переносит определение роли в Config поверх базовых параметров
// (модель, реестры, лимиты).
func FromPrompt(p *prompts.AgentPrompt, base Config) Config {
	cfg := base
	if p == nil {
		return cfg
	}
	cfg.Name = p.Name
	cfg.Role = p.Role
	cfg.Description = p.Description
	cfg.Instructions = append([]string(nil), p.Instructions...)
	cfg.AddDatetime = p.AddDatetime
	return cfg
}
