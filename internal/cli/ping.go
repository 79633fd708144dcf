package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ilkoid/poncho-travel/pkg/search"
	"github.com/ilkoid/poncho-travel/pkg/tools/std"
)

func newPingCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the configured models and the SerpAPI key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withSignals(cmd.Context())
			defer cancel()

			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			setupLogger(cfg, true)
			out := cmd.OutOrStdout()
			failed := 0

			pinger := std.NewLLMPingTool(cfg, cfg.Tools["ping_llm_provider"])
			for _, alias := range cfg.AgentModels() {
				res := pinger.Ping(ctx, alias)
				if res.Available {
					okColor.Fprintf(out, "✓ model %s (%s) %dms\n", alias, res.Provider, res.LatencyMs)
					continue
				}
				failed++
				errColor.Fprintf(out, "✗ model %s: %s\n", alias, res.Message)
			}

			client, err := search.NewFromConfig(cfg.Search)
			if err != nil {
				failed++
				errColor.Fprintf(out, "✗ search: %v\n", err)
			} else {
				start := time.Now()
				if _, err := client.Search(ctx, "travel", 1); err != nil {
					failed++
					errColor.Fprintf(out, "✗ search: %s (%v)\n", search.ClassifyError(err).HumanMessage(), err)
				} else {
					okColor.Fprintf(out, "✓ search %s %dms\n", cfg.Search.Provider, time.Since(start).Milliseconds())
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}
