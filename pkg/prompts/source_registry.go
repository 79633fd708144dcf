package prompts

import (
	"errors"
	"fmt"

	"github.com/ilkoid/poncho-travel/pkg/utils"
)

// SourceRegistry — реестр источников с fallback chain.
//
// Источники пробуются по порядку добавления, возвращается первый успешный Load.
type SourceRegistry struct {
	sources []namedSource
}

type namedSource struct {
	name string
	src  PromptSource
}

// NewSourceRegistry создаёт новый реестр источников.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{}
}

// AddSource добавляет источник в конец fallback chain.
func (r *SourceRegistry) AddSource(name string, source PromptSource) {
	r.sources = append(r.sources, namedSource{name: name, src: source})
}

// Names возвращает имена источников в порядке опроса.
func (r *SourceRegistry) Names() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.name
	}
	return names
}

// Load загружает определение из первого источника, где оно есть.
//
// "Не найдено" молча переходит к следующему источнику. Прочие ошибки
// (битый YAML, недоступная БД) логируются и тоже не прерывают цепочку:
// встроенные определения в конце гарантируют, что роль всегда есть.
func (r *SourceRegistry) Load(promptID string) (*AgentPrompt, error) {
	var lastErr error

	for _, s := range r.sources {
		p, err := s.src.Load(promptID)
		if err == nil {
			if vErr := p.Validate(); vErr != nil {
				lastErr = fmt.Errorf("source %s: %w", s.name, vErr)
				utils.Warn("Invalid agent prompt skipped", "source", s.name, "prompt_id", promptID, "error", vErr)
				continue
			}
			utils.Debug("Agent prompt loaded", "source", s.name, "prompt_id", promptID)
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			utils.Warn("Prompt source failed", "source", s.name, "prompt_id", promptID, "error", err)
		}
		lastErr = fmt.Errorf("source %s: %w", s.name, err)
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all sources failed for '%s': %w", promptID, lastErr)
	}
	return nil, fmt.Errorf("no sources configured for prompt '%s'", promptID)
}

// HasSources проверяет, есть ли хотя бы один источник.
func (r *SourceRegistry) HasSources() bool {
	return len(r.sources) > 0
}
