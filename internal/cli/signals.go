package cli

import (
	"context"

	"github.com/ilkoid/poncho-travel/pkg/utils"
)

// withSignals отменяет ctx по SIGINT/SIGTERM.
func withSignals(parent context.Context) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	shutdown := utils.SetupGracefulShutdown(cancel)
	return ctx, func() {
		shutdown()
		cancel()
	}
}
