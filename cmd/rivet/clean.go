package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rivet-web/rivet/internal/cache"
	"github.com/rivet-web/rivet/internal/config"
)

func cleanCmd() *cobra.Command {
	var (
		olderThanDays int
		category      string
		optimize      bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Evict compilation cache entries",
		Long: `Remove entries from the compilation cache.

With no flags the whole cache is cleared. Filters narrow the
eviction to one category or to entries older than a cutoff.

Examples:
  rivet clean
  rivet clean --older-than-days=7
  rivet clean --category=bundles
  rivet clean --optimize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(category, olderThanDays, optimize)
		},
	}

	cmd.Flags().IntVar(&olderThanDays, "older-than-days", 0, "Only evict entries older than this many days")
	cmd.Flags().StringVar(&category, "category", "", "Only evict this category")
	cmd.Flags().BoolVar(&optimize, "optimize", false, "Also drop orphaned records and empty directories")

	return cmd
}

func runClean(category string, olderThanDays int, optimize bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	store, err := cache.New(cfg.CachePath())
	if err != nil {
		return err
	}

	removed, err := store.Evict(category, time.Duration(olderThanDays)*24*time.Hour)
	if err != nil {
		return err
	}
	success("evicted %d cache entries", removed)

	if optimize {
		orphaned, emptyDirs := store.Optimize()
		info("dropped %d orphaned records, %d empty directories", orphaned, emptyDirs)
	}

	stats := store.Stats()
	info("cache now holds %d entries (%d bytes)", stats.EntryCount, stats.TotalBytes)
	return nil
}
