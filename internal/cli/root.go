// Package cli — команды poncho-travel на cobra.
//
// Правило 6: команды только собирают компоненты через pkg/app и запускают
// нужную поверхность (web, tui, plan).
package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ilkoid/poncho-travel/pkg/app"
	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/events"
	"github.com/ilkoid/poncho-travel/pkg/utils"
)

var (
	okColor    = color.New(color.FgGreen)
	infoColor  = color.New(color.FgCyan)
	errColor   = color.New(color.FgRed, color.Bold)
	titleColor = color.New(color.FgBlue, color.Bold)
)

// globalFlags — флаги, общие для всех команд.
type globalFlags struct {
	configPath string
	envFiles   []string
	debug      bool
}

// NewRootCmd собирает дерево команд.
func NewRootCmd(version string) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:     "poncho-travel",
		Version: version,
		Short:   "AI Travel Planner",
		Long: `poncho-travel researches a destination with a web-search agent and
turns the findings into a day-by-day itinerary.

Run "poncho-travel serve" for the web form or "poncho-travel tui" for the terminal form.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading config")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "write debug traces and DEBUG log lines")

	root.AddCommand(
		newServeCmd(flags),
		newTUICmd(flags),
		newPlanCmd(flags),
		newPingCmd(flags),
	)
	return root
}

// Execute запускает CLI.
func Execute(ctx context.Context, version string) error {
	return NewRootCmd(version).ExecuteContext(ctx)
}

// loadConfig читает .env и config.yaml, применяет --debug.
func loadConfig(flags *globalFlags) (*config.AppConfig, string, error) {
	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: flags.configPath}, flags.envFiles...)
	if err != nil {
		return nil, "", err
	}
	if flags.debug {
		cfg.App.Debug = true
	}
	return cfg, cfgPath, nil
}

// setupLogger направляет лог в файл из конфигурации; quiet убирает консоль.
func setupLogger(cfg *config.AppConfig, quiet bool) {
	if err := utils.InitLogger(utils.LoggerOptions{
		FilePath: cfg.App.LogFile,
		Debug:    cfg.App.Debug,
		Quiet:    quiet,
	}); err != nil {
		utils.Warn("Failed to init log file", "path", cfg.App.LogFile, "error", err)
	}
}

// buildComponents — общий путь команд: конфиг, логгер, сборка приложения.
func buildComponents(ctx context.Context, flags *globalFlags, quiet bool, emitter events.Emitter) (*app.Components, error) {
	cfg, cfgPath, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	setupLogger(cfg, quiet)
	utils.Info("Config loaded", "path", cfgPath, "default_model", cfg.Models.DefaultChat)

	c, err := app.Initialize(ctx, cfg, app.Options{Emitter: emitter})
	if err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}
	return c, nil
}
