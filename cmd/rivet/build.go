package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rivet-web/rivet/internal/build"
	"github.com/rivet-web/rivet/internal/config"
)

func buildCmd() *cobra.Command {
	var (
		output      string
		parallelism int
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build all routes for production",
		Long: `Compile every resolved route into server and client bundles.

Unchanged routes are served from the compilation cache. One
failing route never blocks the rest; the report lists each
route's outcome.

Examples:
  rivet build
  rivet build --output=dist
  rivet build --parallelism=4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(output, parallelism)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "dist", "Output directory")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "Concurrent route builds (0 = NumCPU)")

	return cmd
}

func runBuild(output string, parallelism int) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if parallelism <= 0 {
		parallelism = cfg.Build.Parallelism
	}

	resolver, store, comp, err := newToolchain(cfg)
	if err != nil {
		return err
	}

	fmt.Println("  Building routes...")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	builder := build.New(resolver, store, comp, build.Options{
		Parallelism: parallelism,
		OutDir:      output,
		OnProgress: func(routePath string) {
			info("built %s", routePath)
		},
	})

	report, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	for _, r := range report.PerRouteResults {
		if r.Error != "" {
			errorMsg("%s: %s", r.RoutePath, r.Error)
		}
	}
	if report.Failed > 0 {
		warn("%d of %d routes failed", report.Failed, report.TotalRoutes)
	}
	success("%d/%d routes built into %s", report.Succeeded, report.TotalRoutes, output)

	stats := store.Stats()
	info("cache: %d entries, %d hits, %d misses", stats.EntryCount, stats.HitCount, stats.MissCount)

	if report.Failed > 0 {
		return fmt.Errorf("build finished with %d failed route(s)", report.Failed)
	}
	return nil
}
