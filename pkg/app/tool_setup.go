package app

import (
	"fmt"
	"time"

	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/tools"
	"github.com/ilkoid/poncho-travel/pkg/tools/std"
	"github.com/ilkoid/poncho-travel/pkg/utils"
)

// SetupTools регистрирует стандартные инструменты.
//
// Инструмент регистрируется, если он не выключен явно в секции tools
// (enabled: false). Роли получают только перечисленные в agents.*.tools.
//
// Rule 3: Все инструменты регистрируются через Registry.Register().
func SetupTools(cfg *config.AppConfig, searcher std.Searcher) (*tools.Registry, error) {
	registry := tools.NewRegistry()

	candidates := []tools.Tool{
		std.NewGoogleSearchTool(searcher, cfg.Tools["search_google"]),
		std.NewDateTimeTool(cfg.Tools["current_datetime"], time.Now),
		std.NewLLMPingTool(cfg, cfg.Tools["ping_llm_provider"]),
	}

	for _, tool := range candidates {
		name := tool.Definition().Name
		if !toolEnabled(cfg, name) {
			utils.Debug("Tool disabled, skipping", "tool", name)
			continue
		}
		if err := registry.Register(tool); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", name, err)
		}
	}

	for _, role := range []config.AgentConfig{cfg.Agents.Researcher, cfg.Agents.Planner} {
		for _, name := range role.Tools {
			if _, err := registry.Get(name); err != nil {
				return nil, fmt.Errorf("agent %s requires tool %s: %w", role.PromptID, name, err)
			}
		}
	}

	utils.Info("Tools registered", "count", registry.Len(), "tools", registry.Names())
	return registry, nil
}

func toolEnabled(cfg *config.AppConfig, name string) bool {
	tc, ok := cfg.Tools[name]
	return !ok || tc.Enabled
}
