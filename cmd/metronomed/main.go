package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"metronome/internal/daemon"
	"metronome/pkg/sdnotify"
)

func main() {
	var cfgPath string
	var drainTimeout time.Duration
	flag.StringVar(&cfgPath, "config", "./metronome.yaml", "path to config file (yaml or json)")
	flag.DurationVar(&drainTimeout, "drain", 30*time.Second, "how long shutdown waits for running jobs")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	// Jobs run on a background context so a signal drains instead of killing.
	if err := d.Start(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		os.Exit(1)
	}
	sdnotify.Ready()
	sdnotify.Status("scheduling from %s", cfgPath)

	<-ctx.Done()
	sdnotify.Stopping()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), drainTimeout)
	defer stopCancel()
	d.Stop(stopCtx)
}
