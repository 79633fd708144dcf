package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig — корневая структура конфигурации.
// Зеркалит структуру config.yaml.
type AppConfig struct {
	Models        ModelsConfig          `yaml:"models"`
	Search        SearchConfig          `yaml:"search"`
	Agents        AgentsConfig          `yaml:"agents"`
	Tools         map[string]ToolConfig `yaml:"tools"`
	PromptSources []PromptSourceConfig  `yaml:"prompt_sources"`
	S3            S3Config              `yaml:"s3"`
	Server        ServerConfig          `yaml:"server"`
	App           AppSpecific           `yaml:"app"`
}

// ModelsConfig — настройки AI моделей.
type ModelsConfig struct {
	DefaultChat string              `yaml:"default_chat"` // Алиас модели по умолчанию (например, "gemini-2.5-flash")
	Definitions map[string]ModelDef `yaml:"definitions"`  // Словарь определений моделей
}

// ModelDef — параметры конкретной модели.
type ModelDef struct {
	Provider    string        `yaml:"provider"`    // "gemini", "openai", "openrouter", "ollama"
	ModelName   string        `yaml:"model_name"`  // Реальное имя в API
	APIKey      string        `yaml:"api_key"`     // Поддерживает ${VAR}
	APIKeyEnv   string        `yaml:"api_key_env"` // Имя ENV переменной с ключом (для сообщений и fallback)
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"` // "60s", "2m"
}

// RequiresAPIKey сообщает, нужен ли модели ключ (локальный Ollama работает без ключа).
func (m ModelDef) RequiresAPIKey() bool {
	return m.Provider != "ollama"
}

// SearchConfig — настройки web-поиска (SerpAPI).
type SearchConfig struct {
	Provider      string `yaml:"provider"`       // пока только "serpapi"
	APIKey        string `yaml:"api_key"`        // Поддерживает ${VAR}
	APIKeyEnv     string `yaml:"api_key_env"`    // Обычно SERPAPI_API_KEY
	BaseURL       string `yaml:"base_url"`       // https://serpapi.com
	Engine        string `yaml:"engine"`         // google
	ResultsLimit  int    `yaml:"results_limit"`  // Сколько результатов отдавать модели
	RateLimit     int    `yaml:"rate_limit"`     // Запросов в минуту
	BurstLimit    int    `yaml:"burst_limit"`    // Burst для rate limiter
	RetryAttempts int    `yaml:"retry_attempts"` // Повторы на 429/5xx
	Timeout       string `yaml:"timeout"`        // "15s"
}

// GetDefaults возвращает копию с дефолтными значениями для незаполненных полей.
func (c SearchConfig) GetDefaults() SearchConfig {
	result := c

	if result.Provider == "" {
		result.Provider = "serpapi"
	}
	if result.APIKeyEnv == "" {
		result.APIKeyEnv = "SERPAPI_API_KEY"
	}
	if result.BaseURL == "" {
		result.BaseURL = "https://serpapi.com"
	}
	if result.Engine == "" {
		result.Engine = "google"
	}
	if result.ResultsLimit == 0 {
		result.ResultsLimit = 10
	}
	if result.RateLimit == 0 {
		result.RateLimit = 30
	}
	if result.BurstLimit == 0 {
		result.BurstLimit = 3
	}
	if result.RetryAttempts == 0 {
		result.RetryAttempts = 3
	}
	if result.Timeout == "" {
		result.Timeout = "15s"
	}

	return result
}

// TimeoutDuration парсит Timeout, при ошибке возвращает 15s.
func (c SearchConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// AgentsConfig — роли агентов.
type AgentsConfig struct {
	Researcher AgentConfig `yaml:"researcher"`
	Planner    AgentConfig `yaml:"planner"`
}

// AgentConfig — настройки одной роли.
type AgentConfig struct {
	Model         string   `yaml:"model"`          // Алиас из models.definitions; пусто = default_chat
	PromptID      string   `yaml:"prompt_id"`      // ID определения роли в prompt sources
	MaxIterations int      `yaml:"max_iterations"` // Лимит итераций tool-calling цикла
	Tools         []string `yaml:"tools"`          // Имена инструментов, доступных роли
}

// ToolConfig — настройки инструментов.
type ToolConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Description string        `yaml:"description"`
	Timeout     time.Duration `yaml:"timeout"`
}

// PromptSourceConfig — один источник определений ролей.
//
// Type: "file", "database", "s3".
type PromptSourceConfig struct {
	Type   string            `yaml:"type"`
	Config map[string]string `yaml:"config"`
}

// S3Config — настройки объектного хранилища (источник промптов "s3").
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
}

// ServerConfig — настройки HTTP сервера.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	GinMode        string   `yaml:"gin_mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AppSpecific — общие настройки приложения.
type AppSpecific struct {
	Debug      bool   `yaml:"debug"`
	PromptsDir string `yaml:"prompts_dir"`
	LogsDir    string `yaml:"logs_dir"`
	LogFile    string `yaml:"log_file"` // Пусто = только консоль оператора
}

// LoadEnv подгружает .env файлы в окружение процесса.
//
// Отсутствующий файл не ошибка: ключи могут прийти из настоящего окружения.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(rawBytes)
}

// Parse разбирает YAML после подстановки ${VAR}.
func Parse(raw []byte) (*AppConfig, error) {
	contentWithEnv := os.ExpandEnv(string(raw))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault загружает config.yaml, а если файла нет, строит конфигурацию
// только из ENV переменных.
func LoadOrDefault(path string) (*AppConfig, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	cfg := Default()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Default возвращает встроенную конфигурацию: Gemini через OpenAI-совместимый
// endpoint, опциональная локальная Llama через Ollama, SerpAPI поиск.
func Default() *AppConfig {
	cfg := &AppConfig{
		Models: ModelsConfig{
			DefaultChat: "gemini-2.5-flash",
			Definitions: map[string]ModelDef{
				"gemini-2.5-flash": {
					Provider:  "gemini",
					ModelName: "gemini-2.5-flash",
					APIKeyEnv: "GOOGLE_API_KEY",
					Timeout:   2 * time.Minute,
				},
				"llama3.2": {
					Provider:  "ollama",
					ModelName: "llama3.2:latest",
					BaseURL:   os.Getenv("OLLAMA_HOST"),
					Timeout:   5 * time.Minute,
				},
			},
		},
		Search: SearchConfig{APIKeyEnv: "SERPAPI_API_KEY"},
		Agents: AgentsConfig{
			Researcher: AgentConfig{PromptID: "researcher", Tools: []string{"search_google"}},
			Planner:    AgentConfig{PromptID: "planner"},
		},
		Tools: map[string]ToolConfig{
			"search_google":    {Enabled: true},
			"current_datetime": {Enabled: true},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults заполняет незаданные поля и подтягивает ключи из *_env.
func (c *AppConfig) applyDefaults() {
	c.Search = c.Search.GetDefaults()
	if c.Search.APIKey == "" {
		c.Search.APIKey = strings.TrimSpace(os.Getenv(c.Search.APIKeyEnv))
	}

	for name, def := range c.Models.Definitions {
		if def.APIKey == "" && def.APIKeyEnv != "" {
			def.APIKey = strings.TrimSpace(os.Getenv(def.APIKeyEnv))
		}
		if def.ModelName == "" {
			def.ModelName = name
		}
		c.Models.Definitions[name] = def
	}

	if c.Agents.Researcher.PromptID == "" {
		c.Agents.Researcher.PromptID = "researcher"
	}
	if c.Agents.Planner.PromptID == "" {
		c.Agents.Planner.PromptID = "planner"
	}
	if c.Agents.Researcher.MaxIterations == 0 {
		c.Agents.Researcher.MaxIterations = 6
	}
	if c.Agents.Planner.MaxIterations == 0 {
		c.Agents.Planner.MaxIterations = 2
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8501"
	}
	if c.App.PromptsDir == "" {
		c.App.PromptsDir = "./prompts"
	}
	if c.App.LogsDir == "" {
		c.App.LogsDir = "./logs"
	}
}

// validate проверяет структурные ошибки конфигурации.
//
// Отсутствие ключей сюда не входит: это проверяет CheckCredentials,
// чтобы UI мог показать ошибку вместо формы.
func (c *AppConfig) validate() error {
	if len(c.Models.Definitions) == 0 {
		return fmt.Errorf("models.definitions must not be empty")
	}
	if c.Models.DefaultChat == "" {
		return fmt.Errorf("models.default_chat is required")
	}
	if _, ok := c.Models.Definitions[c.Models.DefaultChat]; !ok {
		return fmt.Errorf("default_chat model '%s' is not defined in definitions", c.Models.DefaultChat)
	}
	for _, agentCfg := range []AgentConfig{c.Agents.Researcher, c.Agents.Planner} {
		if agentCfg.Model == "" {
			continue
		}
		if _, ok := c.Models.Definitions[agentCfg.Model]; !ok {
			return fmt.Errorf("agent model '%s' is not defined in definitions", agentCfg.Model)
		}
	}
	if c.Search.Provider != "serpapi" {
		return fmt.Errorf("unsupported search provider: '%s'", c.Search.Provider)
	}
	return nil
}

// GetModel возвращает определение модели по имени (пусто = default_chat).
func (c *AppConfig) GetModel(name string) (ModelDef, bool) {
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}

// AgentModels возвращает алиасы моделей, реально используемых ролями.
func (c *AppConfig) AgentModels() []string {
	seen := make(map[string]struct{}, 2)
	var out []string
	for _, name := range []string{c.Agents.Researcher.Model, c.Agents.Planner.Model} {
		if name == "" {
			name = c.Models.DefaultChat
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
