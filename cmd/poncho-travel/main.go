// poncho-travel — AI Travel Planner.
//
// Точка входа только запускает CLI (Правило 6).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ilkoid/poncho-travel/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(context.Background(), version); err != nil {
		// уведомление о сбое стадии уже напечатано командой
		if !errors.Is(err, cli.ErrPlanFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
