package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rivet-web/rivet/internal/config"
	"github.com/rivet-web/rivet/internal/dev"
)

func devCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server with live updates.

The dev server watches the app directory, debounces bursts of
saves, recompiles only the routes a change touches, and pushes
one ordered notification per change batch to connected browsers.

Examples:
  rivet dev
  rivet dev --port=8080
  rivet dev --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(port, host)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from rivet.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from rivet.json)")

	return cmd
}

func runDev(port int, host string) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Dev.Port = port
	}
	if host != "" {
		cfg.Dev.Host = host
	}

	resolver, store, comp, err := newToolchain(cfg)
	if err != nil {
		return err
	}

	printBanner()
	fmt.Println("  dev")
	fmt.Println()

	session := dev.NewSession(cfg, resolver, store, comp)
	session.OnChange(func(ev dev.ChangeEvent) {
		success("update #%d (%d files changed)", ev.Sequence, len(ev.ChangedFiles))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		session.Stop()
		cancel()
	}()

	info("Serving on %s", cfg.DevURL())
	info("Watching %s", cfg.AppPath())
	fmt.Println()

	return session.Start(ctx)
}
