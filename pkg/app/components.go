// Package app собирает компоненты приложения из конфигурации.
//
// Одна и та же сборка используется web сервером, TUI и CLI:
// реестр моделей, клиент поиска, инструменты, определения ролей,
// два агента и оркестратор.
//
// Правило 6: entry points только инициализируют и запускают.
// Правило 7: все ошибки возвращаются, никаких panic.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Драйверы для prompt source "database"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ilkoid/poncho-travel/internal/agent"
	"github.com/ilkoid/poncho-travel/internal/trip"
	llmagent "github.com/ilkoid/poncho-travel/pkg/agent"
	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/debug"
	"github.com/ilkoid/poncho-travel/pkg/events"
	"github.com/ilkoid/poncho-travel/pkg/models"
	"github.com/ilkoid/poncho-travel/pkg/prompts"
	"github.com/ilkoid/poncho-travel/pkg/search"
	"github.com/ilkoid/poncho-travel/pkg/tools"
	"github.com/ilkoid/poncho-travel/pkg/utils"
)

// Components — собранное приложение.
//
// Если ключей не хватает, ConfigErr != nil и все остальные поля
// кроме Config пустые: UI показывает ошибку вместо формы.
type Components struct {
	Config *config.AppConfig

	// ConfigErr — *config.CredentialError, блокирует сессию.
	ConfigErr error

	Models       *models.Registry
	Search       *search.Client
	Tools        *tools.Registry
	Prompts      *prompts.SourceRegistry
	Researcher   *llmagent.Agent
	Planner      *llmagent.Agent
	Orchestrator *agent.Orchestrator
	Recorder     *debug.Recorder

	closePrompts prompts.Closer
}

// Options — необязательные зависимости Initialize.
type Options struct {
	// Emitter — общий получатель событий (логирование прогресса).
	Emitter events.Emitter

	// PromptDeps — фабрики ресурсов источников промптов (тесты).
	PromptDeps prompts.Deps

	// SearchOptions — опции клиента SerpAPI (тесты).
	SearchOptions []search.Option
}

// ConfigPathFinder определяет стратегию поиска config.yaml.
type ConfigPathFinder interface {
	FindConfigPath() string
}

// DefaultConfigPathFinder ищет config.yaml.
//
// Порядок поиска:
// 1. Флаг --config (если указан)
// 2. Текущая директория
// 3. Директория бинарника
//
// Если ничего не найдено, возвращает "config.yaml": config.LoadOrDefault
// тогда соберёт конфигурацию из ENV.
type DefaultConfigPathFinder struct {
	ConfigFlag string
}

// FindConfigPath находит путь к config.yaml.
func (f *DefaultConfigPathFinder) FindConfigPath() string {
	if f.ConfigFlag != "" {
		return resolveAbsPath(f.ConfigFlag)
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		return resolveAbsPath("config.yaml")
	}

	if execPath, err := os.Executable(); err == nil {
		cfgPath := filepath.Join(filepath.Dir(execPath), "config.yaml")
		if _, err := os.Stat(cfgPath); err == nil {
			return cfgPath
		}
	}

	return "config.yaml"
}

func resolveAbsPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// InitializeConfig загружает .env и конфигурацию.
//
// Явно указанный через флаг, но отсутствующий файл — ошибка.
// Без флага отсутствие файла не ошибка.
func InitializeConfig(finder ConfigPathFinder, envFiles ...string) (*config.AppConfig, string, error) {
	if err := config.LoadEnv(envFiles...); err != nil {
		return nil, "", err
	}

	cfgPath := finder.FindConfigPath()
	if f, ok := finder.(*DefaultConfigPathFinder); ok && f.ConfigFlag != "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
		}
		return cfg, cfgPath, nil
	}

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

// Initialize создаёт все компоненты.
//
// Отсутствие ключа не ошибка Initialize: возвращается Components с ConfigErr.
// Ошибка означает сломанную конфигурацию (неизвестный провайдер,
// недоступный источник промптов и т.п.).
func Initialize(ctx context.Context, cfg *config.AppConfig, opts Options) (*Components, error) {
	c := &Components{Config: cfg}

	if err := cfg.CheckCredentials(); err != nil {
		utils.Error("Configuration check failed", "error", err)
		c.ConfigErr = err
		return c, nil
	}

	// 1. Модели
	modelRegistry, err := models.NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create model registry: %w", err)
	}
	c.Models = modelRegistry
	utils.Info("Models registered", "models", modelRegistry.ListNames(), "default", cfg.Models.DefaultChat)

	// 2. Поиск
	searchClient, err := search.NewFromConfig(cfg.Search, opts.SearchOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}
	c.Search = searchClient
	utils.Info("Search client initialized",
		"provider", cfg.Search.Provider,
		"rate_limit", cfg.Search.RateLimit,
		"results_limit", cfg.Search.ResultsLimit)

	// 3. Инструменты
	toolRegistry, err := SetupTools(cfg, searchClient)
	if err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	c.Tools = toolRegistry

	// 4. Определения ролей
	promptRegistry, closePrompts, err := prompts.CreateSourceRegistry(ctx, cfg, opts.PromptDeps)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt sources: %w", err)
	}
	c.Prompts = promptRegistry
	c.closePrompts = closePrompts

	// 5. Агенты
	c.Researcher, err = buildAgent(cfg, cfg.Agents.Researcher, c, opts.Emitter)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create researcher: %w", err)
	}
	c.Planner, err = buildAgent(cfg, cfg.Agents.Planner, c, opts.Emitter)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create planner: %w", err)
	}

	// 6. Debug трейсы
	if cfg.App.Debug {
		c.Recorder, err = debug.NewRecorder(debug.RecorderConfig{
			LogsDir:            cfg.App.LogsDir,
			IncludeToolArgs:    true,
			IncludeToolResults: true,
			MaxResultSize:      5000,
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create debug recorder: %w", err)
		}
	}

	// 7. Оркестратор
	c.Orchestrator, err = agent.New(agent.Config{
		Researcher: c.Researcher,
		Planner:    c.Planner,
		Emitter:    opts.Emitter,
		Recorder:   c.Recorder,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	utils.Info("Components initialized",
		"researcher_model", c.Researcher.Model(),
		"planner_model", c.Planner.Model(),
		"tools", toolRegistry.Names(),
		"prompt_sources", promptRegistry.Names())
	return c, nil
}

func buildAgent(cfg *config.AppConfig, agentCfg config.AgentConfig, c *Components, emitter events.Emitter) (*llmagent.Agent, error) {
	prompt, err := c.Prompts.Load(agentCfg.PromptID)
	if err != nil {
		return nil, err
	}

	var roleTools *tools.Registry
	if len(agentCfg.Tools) > 0 {
		roleTools, err = c.Tools.Subset(agentCfg.Tools)
		if err != nil {
			return nil, err
		}
	}

	return llmagent.New(llmagent.FromPrompt(prompt, llmagent.Config{
		Model:         agentCfg.Model,
		Models:        c.Models,
		DefaultModel:  cfg.Models.DefaultChat,
		Tools:         roleTools,
		MaxIterations: agentCfg.MaxIterations,
		ToolTimeout:   maxToolTimeout(cfg, agentCfg.Tools),
		Emitter:       emitter,
	}))
}

// maxToolTimeout — наибольший из таймаутов инструментов роли; 0 = дефолт агента.
func maxToolTimeout(cfg *config.AppConfig, names []string) (d time.Duration) {
	for _, name := range names {
		if t := cfg.Tools[name].Timeout; t > d {
			d = t
		}
	}
	return d
}

// Blocked — сессия заблокирована ошибкой конфигурации.
func (c *Components) Blocked() bool {
	return c.ConfigErr != nil
}

// Plan валидирует ввод и запускает оркестратор.
//
// Ошибка возвращается только для невалидного ввода (trip.ValidationError)
// и заблокированной сессии. Ошибки стадий — в Outcome.Failure.
func (c *Components) Plan(ctx context.Context, destination string, days int) (agent.Outcome, error) {
	if c.Blocked() {
		return agent.Outcome{}, c.ConfigErr
	}
	req, err := trip.New(destination, days)
	if err != nil {
		return agent.Outcome{}, err
	}
	return c.Orchestrator.Run(ctx, req), nil
}

// Close освобождает ресурсы (соединения БД источников промптов).
func (c *Components) Close() error {
	if c.closePrompts == nil {
		return nil
	}
	err := c.closePrompts()
	c.closePrompts = nil
	return err
}
