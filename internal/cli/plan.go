package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ilkoid/poncho-travel/internal/trip"
	"github.com/ilkoid/poncho-travel/pkg/events"
)

// ErrPlanFailed — стадия завершилась ошибкой; уведомление уже напечатано.
var ErrPlanFailed = errors.New("trip planning failed")

func newPlanCmd(flags *globalFlags) *cobra.Command {
	var (
		destination string
		days        int
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Research a destination and print the itinerary",
		Example: `  poncho-travel plan --destination Paris --days 5
  poncho-travel plan -d "Kyoto, Japan"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withSignals(cmd.Context())
			defer cancel()

			out := cmd.OutOrStdout()

			if !trip.CanSubmit(destination) {
				return fmt.Errorf("--destination is required")
			}
			if clamped := trip.ClampDays(days); clamped != days {
				infoColor.Fprintf(out, "Days adjusted to %d (allowed %d-%d)\n", clamped, trip.MinDays, trip.MaxDays)
				days = clamped
			}

			c, err := buildComponents(ctx, flags, !flags.debug, statusPrinter(out))
			if err != nil {
				return err
			}
			defer c.Close()

			if c.Blocked() {
				errColor.Fprintln(out, c.ConfigErr.Error())
				return c.ConfigErr
			}

			outcome, err := c.Plan(ctx, destination, days)
			if err != nil {
				return err
			}
			if !outcome.OK() {
				errColor.Fprintln(out, outcome.Notice())
				return ErrPlanFailed
			}

			fmt.Fprintln(out)
			titleColor.Fprintf(out, "%s\n\n", outcome.Request)
			fmt.Fprintln(out, outcome.Itinerary.Content)
			if outcome.TracePath != "" {
				infoColor.Fprintf(out, "\nDebug trace: %s\n", outcome.TracePath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&destination, "destination", "d", "", "where do you want to go?")
	cmd.Flags().IntVarP(&days, "days", "n", trip.DefaultDays, "how many days do you want to travel for? (1-30)")
	return cmd
}

// statusPrinter печатает строки прогресса по событиям оркестратора.
func statusPrinter(out io.Writer) events.Emitter {
	return events.FuncEmitter(func(_ context.Context, ev events.Event) {
		data, ok := ev.Data.(events.StageData)
		if !ok {
			return
		}
		switch ev.Type {
		case events.EventStageStarted:
			infoColor.Fprintln(out, data.Message)
		case events.EventStageCompleted:
			okColor.Fprintln(out, data.Message)
		}
	})
}
