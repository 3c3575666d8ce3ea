package dev

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rivet-web/rivet/internal/cache"
	"github.com/rivet-web/rivet/internal/compiler"
	"github.com/rivet-web/rivet/internal/compose"
	"github.com/rivet-web/rivet/internal/config"
	"github.com/rivet-web/rivet/internal/errors"
	"github.com/rivet-web/rivet/internal/metrics"
	"github.com/rivet-web/rivet/pkg/router"
)

// State is the session's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateWatching
	StateDebouncing
	StateRecompiling
	StateNotifying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWatching:
		return "watching"
	case StateDebouncing:
		return "debouncing"
	case StateRecompiling:
		return "recompiling"
	case StateNotifying:
		return "notifying"
	default:
		return "stopped"
	}
}

// ChangeEvent is one debounced burst of filesystem changes. Sequence
// numbers are assigned in burst order and never reused.
type ChangeEvent struct {
	Sequence     uint64   `json:"sequence"`
	ChangedFiles []string `json:"changedFiles"`
}

// Session owns one development loop: watcher, debounce state, callback
// registry, and reload hub. Sessions are independent; running several
// in one process (test harnesses do) causes no cross-talk.
type Session struct {
	cfg      *config.Config
	resolver *router.Resolver
	store    *cache.Cache
	comp     *compiler.Compiler
	hub      *ReloadHub
	logger   *slog.Logger
	metrics  *metrics.Metrics
	debounce time.Duration

	events   chan string
	stopped  chan struct{}
	stopOnce sync.Once

	// flushMu serializes notification delivery; see complete.
	flushMu sync.Mutex

	mu        sync.Mutex
	state     State
	callbacks []func(ChangeEvent)
	seq       uint64
	nextFlush uint64
	completed map[uint64]ChangeEvent
	routeKeys map[string][]cache.Key
	bundles   map[string][]byte
}

// NewSession wires a session from its collaborators.
func NewSession(cfg *config.Config, resolver *router.Resolver, store *cache.Cache, comp *compiler.Compiler) *Session {
	m := metrics.Default()
	return &Session{
		cfg:       cfg,
		resolver:  resolver,
		store:     store,
		comp:      comp,
		hub:       NewReloadHub(m),
		logger:    slog.Default(),
		metrics:   m,
		debounce:  time.Duration(cfg.Dev.DebounceMillis) * time.Millisecond,
		events:    make(chan string, 256),
		stopped:   make(chan struct{}),
		state:     StateIdle,
		nextFlush: 1,
		completed: make(map[uint64]ChangeEvent),
		routeKeys: make(map[string][]cache.Key),
		bundles:   make(map[string][]byte),
	}
}

// SetLogger replaces the session logger. Call before Start.
func (s *Session) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// OnChange registers a callback invoked once per ChangeEvent, after
// recompilation. Callbacks run in registration order.
func (s *Session) OnChange(fn func(ChangeEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// State reports the current lifecycle position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins watching and serves the dev HTTP endpoint. It blocks
// until Stop is called, the context is cancelled, or a fatal error
// occurs. An unreadable route root is fatal; per-route compile
// failures are logged and the session keeps watching.
func (s *Session) Start(ctx context.Context) error {
	if _, err := s.resolver.ResolveRoutes(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New(errors.KindFileSystem, "starting file watcher: %v", err)
	}
	if err := addWatchTree(watcher, s.cfg.AppPath()); err != nil {
		watcher.Close()
		return errors.New(errors.KindFileSystem, "watching route tree: %v", err).
			WithPath(s.cfg.AppPath())
	}

	s.setState(StateWatching)
	go s.watchLoop(watcher)
	go s.debounceLoop()

	srv := &http.Server{Addr: s.cfg.DevAddress(), Handler: s.handler()}
	shutdownDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-s.stopped:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		watcher.Close()
		close(shutdownDone)
	}()

	err = srv.ListenAndServe()
	s.Stop()
	<-shutdownDone
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop terminates the session from any state. It cancels a pending
// debounce window, drops reload clients, and unblocks Start. An
// in-flight compile is allowed to finish; its result is simply not
// notified. Stop is idempotent.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		close(s.stopped)
		s.hub.Close()
	})
}

// setState moves the lifecycle position; Stopped is terminal.
func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStopped {
		s.state = state
	}
}

// addWatchTree registers root and every non-hidden subdirectory.
func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// watchLoop forwards raw watcher events into the debounce channel. New
// directories are added to the watch set as they appear.
func (s *Session) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-s.stopped:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if s.ignored(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchTree(watcher, event.Name); err != nil {
						s.logger.Warn("watching new directory failed", "path", event.Name, "error", err)
					}
				}
			}
			s.enqueue(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("file watcher error", "error", err)
		}
	}
}

// enqueue adds one changed path to the pending buffer.
func (s *Session) enqueue(path string) {
	select {
	case s.events <- path:
	case <-s.stopped:
	}
}

// ignored filters editor droppings and configured patterns.
func (s *Session) ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return true
	}
	if strings.Contains(path, string(filepath.Separator)+"node_modules"+string(filepath.Separator)) {
		return true
	}
	for _, pattern := range s.cfg.Dev.Ignore {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// debounceLoop owns the single debounce timer. Every incoming path
// restarts the window; the buffer flushes into one ChangeEvent only
// when the window elapses quietly. There is never more than one active
// window per session.
func (s *Session) debounceLoop() {
	pending := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-s.stopped:
			if timer != nil {
				timer.Stop()
			}
			return

		case path := <-s.events:
			pending[path] = true
			s.setState(StateDebouncing)
			if timer == nil {
				timer = time.NewTimer(s.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			pending = make(map[string]bool)
			sort.Strings(files)

			s.mu.Lock()
			s.seq++
			event := ChangeEvent{Sequence: s.seq, ChangedFiles: files}
			s.mu.Unlock()

			s.metrics.ChangeEvents.Inc()
			s.setState(StateRecompiling)
			// Compilation runs off this goroutine so a slow compile
			// cannot delay the next debounce window.
			go s.process(event)
		}
	}
}

// process recompiles every route impacted by the event, then hands the
// event to the ordered flush.
func (s *Session) process(event ChangeEvent) {
	defer s.complete(event)

	routes := s.currentRoutes(event.ChangedFiles)
	for i := range routes {
		entry := &routes[i]
		if !intersects(entry, event.ChangedFiles) {
			continue
		}
		if err := s.rebuildRoute(context.Background(), entry); err != nil {
			// Per-route failure: log, tell clients, keep the session
			// and the rest of the batch alive.
			s.logger.Error("route recompilation failed",
				"route", entry.RoutePath, "error", errors.Summary(err))
			s.hub.NotifyError(errors.Format(err))
		}
	}
}

// currentRoutes returns the route table, rebuilding it first when the
// change touched the tree's structure (added, removed, or renamed
// route files or directories).
func (s *Session) currentRoutes(changed []string) []router.RouteEntry {
	routes, err := s.resolver.ResolveRoutes()
	if err != nil {
		s.logger.Error("route resolution failed", "error", errors.Summary(err))
		return nil
	}
	if structuralChange(routes, changed) {
		s.resolver.Invalidate()
		s.metrics.RouteRebuilds.Inc()
		if routes, err = s.resolver.ResolveRoutes(); err != nil {
			s.logger.Error("route resolution failed", "error", errors.Summary(err))
			return nil
		}
	}
	return routes
}

// structuralChange reports whether any changed path implies the route
// table itself moved: a path that vanished, a directory, or a route
// file the current table does not know about.
func structuralChange(routes []router.RouteEntry, changed []string) bool {
	known := make(map[string]bool)
	for i := range routes {
		for f := range routes[i].AllFiles {
			known[f] = true
		}
	}
	for _, f := range changed {
		info, err := os.Stat(f)
		if err != nil {
			return true
		}
		if info.IsDir() {
			return true
		}
		if !known[f] && isRouteFile(f) {
			return true
		}
	}
	return false
}

// isRouteFile matches the file names the resolver gives meaning to.
func isRouteFile(path string) bool {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	switch stem {
	case "page", "layout", "loading", "error", "not-found", "route":
		return true
	}
	return false
}

func intersects(entry *router.RouteEntry, changed []string) bool {
	for _, f := range changed {
		if entry.ContainsFile(f) {
			return true
		}
	}
	return false
}

// rebuildRoute recomposes and recompiles one route in both modes,
// dropping the route's previous cache entries first.
func (s *Session) rebuildRoute(ctx context.Context, entry *router.RouteEntry) error {
	if entry.PageFile == "" {
		return nil
	}

	composed, err := compose.Compose(entry.LayoutChain, entry.PageFile)
	if err != nil {
		return err
	}
	source := []byte(composed)

	if err := s.store.WriteDebug(entry.RoutePath, source); err != nil {
		s.logger.Warn("debug snapshot write failed", "route", entry.RoutePath, "error", err)
	}

	s.mu.Lock()
	oldKeys := s.routeKeys[entry.RoutePath]
	s.mu.Unlock()
	for _, key := range oldKeys {
		s.store.Invalidate(key)
	}

	version := s.comp.Version()
	newKeys := make([]cache.Key, 0, 2)
	var clientBundle []byte
	for _, mode := range []compiler.Mode{compiler.ModeServerRender, compiler.ModeClientHydration} {
		key := cache.NewKey(source, mode.String(), version)
		cached, _, err := s.store.GetOrCompute(ctx, key, cache.DefaultCategory,
			func(ctx context.Context) ([]byte, error) {
				result, err := s.comp.Compile(ctx, source, mode)
				if err != nil {
					return nil, err
				}
				return result.OutputCode, nil
			})
		if err != nil {
			return err
		}
		newKeys = append(newKeys, key)
		if mode == compiler.ModeClientHydration {
			clientBundle = cached.Output
		}
	}

	s.mu.Lock()
	s.routeKeys[entry.RoutePath] = newKeys
	s.bundles[entry.RoutePath] = clientBundle
	s.mu.Unlock()
	return nil
}

// complete buffers the finished event and flushes everything that is
// next in sequence order. Events finishing out of order wait here, so
// subscribers always observe sequence numbers in ascending order.
func (s *Session) complete(event ChangeEvent) {
	// flushMu is held from batch computation through delivery, so a
	// completer whose batch was unblocked by this one cannot overtake it
	// between the mutex release and the callbacks.
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	s.completed[event.Sequence] = event
	var ready []ChangeEvent
	for {
		next, ok := s.completed[s.nextFlush]
		if !ok {
			break
		}
		delete(s.completed, s.nextFlush)
		s.nextFlush++
		ready = append(ready, next)
	}
	callbacks := append([]func(ChangeEvent){}, s.callbacks...)
	s.mu.Unlock()

	if len(ready) == 0 {
		return
	}
	s.setState(StateNotifying)
	for _, ev := range ready {
		select {
		case <-s.stopped:
			// Stopped sessions swallow completed work instead of
			// notifying.
			return
		default:
		}
		for _, cb := range callbacks {
			cb(ev)
		}
		s.hub.NotifyChange(ev)
	}
	s.setState(StateWatching)
}
