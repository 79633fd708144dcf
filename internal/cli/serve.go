package cli

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ilkoid/poncho-travel/internal/web"
	"github.com/ilkoid/poncho-travel/pkg/utils"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web form",
		Long: `Start the HTTP server with the trip form, the JSON API and the SSE progress stream.

Missing API keys do not stop the server: the page shows the configuration error instead of the form.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withSignals(cmd.Context())
			defer cancel()

			c, err := buildComponents(ctx, flags, false, nil)
			if err != nil {
				return err
			}
			defer c.Close()

			if mode := c.Config.Server.GinMode; mode != "" {
				gin.SetMode(mode)
			}
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			srv, err := web.NewServer(addr, web.FromComponents(c))
			if err != nil {
				return err
			}
			if c.Blocked() {
				utils.Warn("Serving configuration error page", "error", c.ConfigErr)
			}
			infoColor.Fprintf(cmd.OutOrStdout(), "AI Travel Planner listening on %s\n", addr)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8501)")
	return cmd
}
