package cli

import (
	"github.com/spf13/cobra"

	"github.com/ilkoid/poncho-travel/pkg/tui"
)

func newTUICmd(flags *globalFlags) *cobra.Command {
	var scheme string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the terminal form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withSignals(cmd.Context())
			defer cancel()

			// консольный лог сломал бы экран
			c, err := buildComponents(ctx, flags, true, nil)
			if err != nil {
				return err
			}
			defer c.Close()

			cfg := tui.Config{
				ConfigErr:   c.ConfigErr,
				Model:       c.Config.Models.DefaultChat,
				ColorScheme: scheme,
			}
			if !c.Blocked() {
				cfg.Planner = c
				cfg.Model = c.Planner.Model()
			}
			return tui.Run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&scheme, "colors", "default", "color scheme: default, light, dracula")
	return cmd
}
