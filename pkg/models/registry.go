// Package models — реестр моделей, доступных ролям агентов.
//
// Определения берутся из config.yaml; клиент провайдера создаётся при первом
// обращении к модели, поэтому описанная, но не выбранная локальная модель
// ничего не стоит. Неизвестный алиас роли откатывается на default_chat.
//
// Rule 3: Registry pattern (similar to tools.Registry)
// Rule 5: Thread-safe via sync.RWMutex
package models

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/factory"
	"github.com/ilkoid/poncho-travel/pkg/llm"
)

// Builder создаёт провайдера по определению модели.
type Builder func(config.ModelDef) (llm.Provider, error)

// Entry — модель, выбранная для роли.
type Entry struct {
	Name     string
	Config   config.ModelDef
	Provider llm.Provider
}

type slot struct {
	def      config.ModelDef
	provider llm.Provider // nil до первого Resolve
}

// Registry — потокобезопасное хранилище моделей.
type Registry struct {
	mu    sync.RWMutex
	slots map[string]*slot
	build Builder
}

// NewRegistry создаёт пустой реестр. build == nil — factory.NewLLMProvider.
func NewRegistry(build Builder) *Registry {
	if build == nil {
		build = factory.NewLLMProvider
	}
	return &Registry{
		slots: make(map[string]*slot),
		build: build,
	}
}

// Define добавляет определение; провайдер будет создан при первом Resolve.
func (r *Registry) Define(name string, def config.ModelDef) error {
	return r.add(name, &slot{def: def})
}

// Register добавляет готового провайдера (тесты, внешние клиенты).
func (r *Registry) Register(name string, def config.ModelDef, provider llm.Provider) error {
	if provider == nil {
		return fmt.Errorf("model '%s': provider is nil", name)
	}
	return r.add(name, &slot{def: def, provider: provider})
}

func (r *Registry) add(name string, s *slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.slots[name]; exists {
		return fmt.Errorf("model '%s' already registered", name)
	}
	r.slots[name] = s
	return nil
}

// Resolve возвращает модель requested, а если её нет — fallback.
//
// Entry.Name показывает, какая модель выбрана на самом деле.
func (r *Registry) Resolve(requested, fallback string) (Entry, error) {
	name := requested
	if !r.has(name) {
		name = fallback
	}
	if !r.has(name) {
		return Entry{}, fmt.Errorf("neither requested model '%s' nor default '%s' found in registry", requested, fallback)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.slots[name]
	if s.provider == nil {
		provider, err := r.build(s.def)
		if err != nil {
			return Entry{}, fmt.Errorf("failed to create provider for model '%s': %w", name, err)
		}
		s.provider = provider
	}
	return Entry{Name: name, Config: s.def, Provider: s.provider}, nil
}

func (r *Registry) has(name string) bool {
	if name == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.slots[name]
	return ok
}

// ListNames возвращает отсортированный список моделей.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.slots))
	for name := range r.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRegistryFromConfig описывает все модели из конфигурации.
//
// Неизвестный провайдер — ошибка сразу, даже если модель не выбрана ролью.
// Rule 7: Возвращает ошибку вместо panic.
func NewRegistryFromConfig(cfg *config.AppConfig) (*Registry, error) {
	registry := NewRegistry(nil)

	for name, modelDef := range cfg.Models.Definitions {
		if !factory.IsSupported(modelDef.Provider) {
			return nil, fmt.Errorf("model '%s': unknown provider type: %s", name, modelDef.Provider)
		}
		if err := registry.Define(name, modelDef); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
