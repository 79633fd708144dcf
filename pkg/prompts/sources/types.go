// Package sources — реализации источников определений ролей агентов.
//
// Пакет не импортирует pkg/prompts, чтобы не было цикла: все источники
// отдают *PromptData, а pkg/prompts адаптирует их к PromptSource.
package sources

import "errors"

// PromptData — сырое определение роли.
type PromptData struct {
	Name         string         `yaml:"name" json:"name"`
	Role         string         `yaml:"role" json:"role"`
	Description  string         `yaml:"description" json:"description"`
	Instructions []string       `yaml:"instructions" json:"instructions"`
	AddDatetime  bool           `yaml:"add_datetime" json:"add_datetime"`
	Metadata     map[string]any `yaml:"metadata" json:"metadata,omitempty"`
}

// ErrNotFound — источник не содержит определение.
var ErrNotFound = errors.New("prompt not found in source")
