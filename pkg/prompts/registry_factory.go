package prompts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/prompts/sources"
	"github.com/ilkoid/poncho-travel/pkg/s3storage"
	"github.com/ilkoid/poncho-travel/pkg/utils"
)

// Deps — внешние ресурсы для источников.
//
// OpenDB по умолчанию sql.Open; драйверы (sqlite3, mysql) регистрирует
// вызывающий код blank-импортом. NewS3 по умолчанию s3storage.New.
type Deps struct {
	OpenDB func(driver, dsn string) (*sql.DB, error)
	NewS3  func(cfg config.S3Config) (s3storage.ClientInterface, error)
}

// Closer — ресурсы, которые нужно закрыть при остановке (соединения БД).
type Closer func() error

// CreateSourceRegistry создаёт реестр источников из prompt_sources.
//
// Порядок: источники из YAML в порядке объявления, затем встроенные
// определения. Возвращает функцию закрытия открытых соединений.
func CreateSourceRegistry(ctx context.Context, cfg *config.AppConfig, deps Deps) (*SourceRegistry, Closer, error) {
	if deps.OpenDB == nil {
		deps.OpenDB = sql.Open
	}
	if deps.NewS3 == nil {
		deps.NewS3 = func(c config.S3Config) (s3storage.ClientInterface, error) {
			return s3storage.New(c)
		}
	}

	registry := NewSourceRegistry()
	var dbs []*sql.DB
	closer := func() error {
		var firstErr error
		for _, db := range dbs {
			if err := db.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for i, sourceCfg := range cfg.PromptSources {
		name := fmt.Sprintf("%s#%d", sourceCfg.Type, i)

		switch sourceCfg.Type {
		case "file":
			baseDir := sourceCfg.Config["base_dir"]
			if baseDir == "" {
				baseDir = cfg.App.PromptsDir
			}
			registry.AddSource(name, adapt(sources.NewFileSource(baseDir)))

		case "database":
			driver := sourceCfg.Config["driver"]
			dsn := sourceCfg.Config["dsn"]
			if driver == "" || dsn == "" {
				_ = closer()
				return nil, nil, fmt.Errorf("prompt source %s: 'driver' and 'dsn' are required", name)
			}
			db, err := deps.OpenDB(driver, dsn)
			if err != nil {
				_ = closer()
				return nil, nil, fmt.Errorf("prompt source %s: open %s: %w", name, driver, err)
			}
			dbs = append(dbs, db)

			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = db.PingContext(pingCtx)
			cancel()
			if err != nil {
				// Недоступная БД не блокирует старт: останутся другие источники
				utils.Warn("Prompt database unreachable", "source", name, "driver", driver, "error", err)
			}

			src, err := sources.NewDatabaseSource(db, sourceCfg.Config["table"])
			if err != nil {
				_ = closer()
				return nil, nil, fmt.Errorf("prompt source %s: %w", name, err)
			}
			registry.AddSource(name, adapt(src))

		case "s3":
			client, err := deps.NewS3(cfg.S3)
			if err != nil {
				_ = closer()
				return nil, nil, fmt.Errorf("prompt source %s: %w", name, err)
			}
			registry.AddSource(name, adapt(sources.NewS3Source(client, sourceCfg.Config["prefix"])))

		case "api":
			endpoint := sourceCfg.Config["endpoint"]
			if endpoint == "" {
				_ = closer()
				return nil, nil, fmt.Errorf("prompt source %s: 'endpoint' is required", name)
			}
			registry.AddSource(name, adapt(sources.NewAPISource(endpoint, sourceCfg.Config["auth_token"])))

		default:
			_ = closer()
			return nil, nil, fmt.Errorf("unknown prompt source type: '%s'", sourceCfg.Type)
		}
	}

	registry.AddSource("default", adapt(sources.NewDefaultSource()))

	return registry, closer, nil
}

// dataLoader — общий контракт всех sources.*Source.
type dataLoader interface {
	Load(promptID string) (*sources.PromptData, error)
}

// sourceAdapter адаптирует sources.* к PromptSource.
type sourceAdapter struct {
	src dataLoader
}

func adapt(src dataLoader) PromptSource {
	return &sourceAdapter{src: src}
}

func (a *sourceAdapter) Load(promptID string) (*AgentPrompt, error) {
	data, err := a.src.Load(promptID)
	if err != nil {
		return nil, err
	}
	return fromData(data), nil
}
