package main

import (
	"time"

	"github.com/rivet-web/rivet/internal/cache"
	"github.com/rivet-web/rivet/internal/compiler"
	"github.com/rivet-web/rivet/internal/config"
	"github.com/rivet-web/rivet/pkg/router"
)

// newToolchain wires the resolver, cache, and compiler a command needs
// from the loaded configuration.
func newToolchain(cfg *config.Config) (*router.Resolver, *cache.Cache, *compiler.Compiler, error) {
	store, err := cache.New(cfg.CachePath())
	if err != nil {
		return nil, nil, nil, err
	}

	comp, err := compiler.New(compiler.Config{
		Command:    cfg.Compiler.Command,
		Timeout:    time.Duration(cfg.Compiler.TimeoutSeconds) * time.Second,
		SourceMaps: cfg.Compiler.SourceMaps,
		WorkDir:    cfg.Dir(),
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return router.NewResolver(cfg.AppPath()), store, comp, nil
}
