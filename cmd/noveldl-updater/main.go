// noveldl-updater is the detached install helper. It is spawned by the
// main binary after an update has been staged, waits for the parent to
// exit, swaps the installed files, and optionally relaunches the app.
// It communicates only through the shared update log.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomato-novel/noveldl/internal/helper"
)

func main() {
	manifestPath := flag.String("manifest", "", "path to the staged update manifest")
	timeout := flag.Int("timeout", 60, "seconds to wait for the parent process to exit")
	flag.Parse()

	if *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "noveldl-updater: --manifest is required")
		os.Exit(2)
	}

	runner, err := helper.New(*manifestPath, time.Duration(*timeout)*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "noveldl-updater: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		os.Exit(1)
	}
}
