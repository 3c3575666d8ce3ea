// Package build compiles every resolved route into its server and
// client bundles and reports per-route outcomes.
package build

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rivet-web/rivet/internal/cache"
	"github.com/rivet-web/rivet/internal/compiler"
	"github.com/rivet-web/rivet/internal/compose"
	"github.com/rivet-web/rivet/internal/errors"
	"github.com/rivet-web/rivet/pkg/router"
)

// RouteResult is one route's slot in the build report. A failed route
// fills Error and never blocks the rest of the batch.
type RouteResult struct {
	RoutePath      string  `json:"routePath"`
	ClientSize     int64   `json:"clientSize"`
	ServerSize     int64   `json:"serverSize"`
	CacheHit       bool    `json:"cacheHit"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	Error          string  `json:"error,omitempty"`
}

// Report summarizes a whole-project build.
type Report struct {
	TotalRoutes     int           `json:"totalRoutes"`
	Succeeded       int           `json:"succeeded"`
	Failed          int           `json:"failed"`
	PerRouteResults []RouteResult `json:"perRouteResults"`
}

// Options configures a builder.
type Options struct {
	// Parallelism bounds concurrent route builds; zero means NumCPU.
	Parallelism int
	// OutDir, when set, receives the compiled bundles and a manifest.
	OutDir string
	// Logger defaults to slog.Default.
	Logger *slog.Logger
	// OnProgress is called once per completed route.
	OnProgress func(routePath string)
}

// Builder drives resolve, compose, and compile for every route.
type Builder struct {
	resolver *router.Resolver
	store    *cache.Cache
	comp     *compiler.Compiler
	opts     Options
}

// New wires a builder from its collaborators.
func New(resolver *router.Resolver, store *cache.Cache, comp *compiler.Compiler, opts Options) *Builder {
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Builder{resolver: resolver, store: store, comp: comp, opts: opts}
}

// Build compiles all routes. Project-wide problems (unreadable route
// root) fail immediately; per-route compile failures land in that
// route's result slot and the rest of the batch proceeds.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	routes, err := b.resolver.ResolveRoutes()
	if err != nil {
		return nil, err
	}
	for _, warn := range b.resolver.Warnings() {
		b.opts.Logger.Warn("route resolution warning", "warning", warn.Error())
	}

	results := make([]RouteResult, len(routes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Parallelism)
	for i := range routes {
		g.Go(func() error {
			results[i] = b.buildRoute(ctx, &routes[i])
			if b.opts.OnProgress != nil {
				b.opts.OnProgress(routes[i].RoutePath)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{TotalRoutes: len(routes), PerRouteResults: results}
	for _, r := range results {
		if r.Error == "" {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	if b.opts.OutDir != "" {
		if err := b.writeManifest(report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// buildRoute compiles one route in both modes through the cache.
func (b *Builder) buildRoute(ctx context.Context, entry *router.RouteEntry) RouteResult {
	start := time.Now()
	result := RouteResult{RoutePath: entry.RoutePath}

	defer func() {
		result.ElapsedSeconds = time.Since(start).Seconds()
	}()

	if entry.PageFile == "" {
		// Handler-only route: nothing to compile.
		return result
	}

	composed, err := compose.Compose(entry.LayoutChain, entry.PageFile)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	source := []byte(composed)

	if err := b.store.WriteDebug(entry.RoutePath, source); err != nil {
		b.opts.Logger.Warn("debug snapshot write failed", "route", entry.RoutePath, "error", err)
	}

	version := b.comp.Version()

	server, serverHit, err := b.compileMode(ctx, source, compiler.ModeServerRender, version)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	client, clientHit, err := b.compileMode(ctx, source, compiler.ModeClientHydration, version)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.ServerSize = server.Size
	result.ClientSize = client.Size
	result.CacheHit = serverHit && clientHit

	if b.opts.OutDir != "" {
		if err := b.writeBundles(entry.RoutePath, server.Output, client.Output); err != nil {
			result.Error = err.Error()
		}
	}
	return result
}

func (b *Builder) compileMode(ctx context.Context, source []byte, mode compiler.Mode, version string) (*cache.Entry, bool, error) {
	key := cache.NewKey(source, mode.String(), version)
	return b.store.GetOrCompute(ctx, key, cache.DefaultCategory,
		func(ctx context.Context) ([]byte, error) {
			result, err := b.comp.Compile(ctx, source, mode)
			if err != nil {
				return nil, err
			}
			return result.OutputCode, nil
		})
}

// writeBundles places a route's compiled output under OutDir.
func (b *Builder) writeBundles(routePath string, server, client []byte) error {
	if err := os.MkdirAll(b.opts.OutDir, 0755); err != nil {
		return errors.New(errors.KindFileSystem, "creating output directory: %v", err).WithPath(b.opts.OutDir)
	}
	slug := bundleSlug(routePath)
	if err := os.WriteFile(filepath.Join(b.opts.OutDir, slug+".server.js"), server, 0644); err != nil {
		return errors.New(errors.KindFileSystem, "writing server bundle: %v", err).WithPath(b.opts.OutDir)
	}
	if err := os.WriteFile(filepath.Join(b.opts.OutDir, slug+".client.js"), client, 0644); err != nil {
		return errors.New(errors.KindFileSystem, "writing client bundle: %v", err).WithPath(b.opts.OutDir)
	}
	return nil
}

// writeManifest records the route-to-bundle mapping for servers to
// load.
func (b *Builder) writeManifest(report *Report) error {
	if err := os.MkdirAll(b.opts.OutDir, 0755); err != nil {
		return errors.New(errors.KindFileSystem, "creating output directory: %v", err).WithPath(b.opts.OutDir)
	}
	manifest := make(map[string]map[string]string)
	sorted := append([]RouteResult(nil), report.PerRouteResults...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RoutePath < sorted[j].RoutePath })
	for _, r := range sorted {
		if r.Error != "" || (r.ServerSize == 0 && r.ClientSize == 0) {
			continue
		}
		slug := bundleSlug(r.RoutePath)
		manifest[r.RoutePath] = map[string]string{
			"server": slug + ".server.js",
			"client": slug + ".client.js",
		}
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(b.opts.OutDir, "manifest.json"), data, 0644)
}

// bundleSlug flattens a route path into a file-name stem.
func bundleSlug(routePath string) string {
	trimmed := strings.Trim(routePath, "/")
	if trimmed == "" {
		return "root"
	}
	replacer := strings.NewReplacer("/", "__", "{", "", "}", "", ".", "_")
	return replacer.Replace(trimmed)
}
