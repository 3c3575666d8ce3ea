package cache

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/rivet-web/rivet/internal/errors"
	"github.com/rivet-web/rivet/internal/metrics"
)

const (
	// DefaultCategory partitions compiled route bundles.
	DefaultCategory = "bundles"

	debugDirName   = "debug"
	defaultHotSize = 256
)

// Entry is one immutable cached compilation result.
type Entry struct {
	Key          Key
	Category     string
	Output       []byte
	Size         int64
	Created      time.Time
	LastAccessed time.Time
}

// Stats is a point-in-time snapshot of the store.
type Stats struct {
	EntryCount int      `json:"entryCount"`
	TotalBytes int64    `json:"totalBytes"`
	HitCount   uint64   `json:"hitCount"`
	MissCount  uint64   `json:"missCount"`
	Categories []string `json:"categories"`
}

// Cache is a disk-backed, content-addressed store with an in-memory
// hot tier. One Cache instance owns one directory; instances never
// share state.
type Cache struct {
	dir     string
	logger  *slog.Logger
	metrics *metrics.Metrics
	mirror  Mirror

	group singleflight.Group
	hot   *lru.Cache[string, *Entry]

	mu     sync.Mutex
	index  *indexFile
	hits   uint64
	misses uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for non-fatal store events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithMirror attaches a remote mirror consulted on local misses and
// populated best-effort on store.
func WithMirror(m Mirror) Option {
	return func(c *Cache) { c.mirror = m }
}

// WithMetrics overrides the instruments the store reports to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New opens (or creates) the store rooted at dir.
func New(dir string, opts ...Option) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New(errors.KindFileSystem, "creating cache directory: %v", err).WithPath(dir)
	}

	c := &Cache{
		dir:     dir,
		logger:  slog.Default(),
		metrics: metrics.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	hot, err := lru.New[string, *Entry](defaultHotSize)
	if err != nil {
		return nil, err
	}
	c.hot = hot
	c.index = loadIndex(dir, c.logger)
	return c, nil
}

// Dir returns the store's root directory.
func (c *Cache) Dir() string {
	return c.dir
}

type flightResult struct {
	entry *Entry
	hit   bool
}

// GetOrCompute returns the entry for key, invoking compute on a miss.
// At most one compute runs per key at a time; concurrent callers for
// the same key join the in-flight computation and share its result.
// The in-flight marker clears on success and failure alike, so a
// failed compute can be retried by the next call.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, category string, compute func(context.Context) ([]byte, error)) (*Entry, bool, error) {
	v, err, _ := c.group.Do(key.ID(), func() (interface{}, error) {
		if entry, ok := c.Retrieve(key, category); ok {
			c.recordHit()
			return flightResult{entry, true}, nil
		}

		if c.mirror != nil {
			if data, ok := c.mirror.Fetch(ctx, key); ok {
				if entry, err := c.Store(key, category, data); err == nil {
					c.recordHit()
					return flightResult{entry, true}, nil
				}
			}
		}

		c.recordMiss()
		output, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		entry, err := c.Store(key, category, output)
		if err != nil {
			return nil, err
		}
		return flightResult{entry, false}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(flightResult)
	return res.entry, res.hit, nil
}

// Retrieve is a pure storage read; it never invokes the compiler. An
// unreadable blob drops the entry and reads as absent.
func (c *Cache) Retrieve(key Key, category string) (*Entry, bool) {
	id := key.ID()

	if entry, ok := c.hot.Get(id); ok && entry.Category == category {
		c.touch(id)
		return entry, true
	}

	c.mu.Lock()
	meta, ok := c.index.Entries[id]
	c.mu.Unlock()
	if !ok || meta.Category != category {
		return nil, false
	}

	data, err := os.ReadFile(c.blobPath(category, id))
	if err != nil {
		c.logger.Warn("cache blob unreadable, dropping entry", "id", id, "error", err)
		c.Invalidate(key)
		return nil, false
	}

	entry := &Entry{
		Key:          key,
		Category:     category,
		Output:       data,
		Size:         int64(len(data)),
		Created:      meta.Created,
		LastAccessed: time.Now(),
	}
	c.touch(id)
	c.hot.Add(id, entry)
	return entry, true
}

// Store writes the output blob and index record for key. Storing never
// mutates an existing entry in place: the same key always carries the
// same bytes, and different bytes arrive under a different key.
func (c *Cache) Store(key Key, category string, output []byte) (*Entry, error) {
	id := key.ID()
	if err := os.MkdirAll(filepath.Join(c.dir, category), 0755); err != nil {
		return nil, errors.New(errors.KindFileSystem, "creating cache category: %v", err).
			WithPath(filepath.Join(c.dir, category))
	}
	if err := writeAtomic(c.blobPath(category, id), output); err != nil {
		return nil, err
	}

	now := time.Now()
	c.mu.Lock()
	c.index.Entries[id] = &indexEntry{
		Category:     category,
		Mode:         key.Mode,
		Size:         int64(len(output)),
		Created:      now,
		LastAccessed: now,
		AccessCount:  1,
	}
	err := c.index.save(c.dir)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Key:          key,
		Category:     category,
		Output:       output,
		Size:         int64(len(output)),
		Created:      now,
		LastAccessed: now,
	}
	c.hot.Add(id, entry)

	if c.mirror != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := c.mirror.Put(ctx, key, output); err != nil {
				c.logger.Warn("cache mirror put failed", "id", id, "error", err)
			}
		}()
	}
	return entry, nil
}

// Invalidate removes the entry for key, if present.
func (c *Cache) Invalidate(key Key) bool {
	id := key.ID()

	c.mu.Lock()
	meta, ok := c.index.Entries[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.index.Entries, id)
	if err := c.index.save(c.dir); err != nil {
		c.logger.Warn("cache index save failed", "error", err)
	}
	c.mu.Unlock()

	c.hot.Remove(id)
	if err := os.Remove(c.blobPath(meta.Category, id)); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("cache blob remove failed", "id", id, "error", err)
	}
	return true
}

// Evict removes entries matching the filters and reports how many were
// removed. An empty category matches all categories; a non-positive
// maxAge disables the age filter. With neither filter the whole store
// is cleared.
func (c *Cache) Evict(category string, maxAge time.Duration) (int, error) {
	var cutoff time.Time
	if maxAge > 0 {
		cutoff = time.Now().Add(-maxAge)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, meta := range c.index.Entries {
		if category != "" && meta.Category != category {
			continue
		}
		if maxAge > 0 && !meta.Created.Before(cutoff) {
			continue
		}
		if err := os.Remove(c.blobPath(meta.Category, id)); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("cache blob remove failed", "id", id, "error", err)
		}
		delete(c.index.Entries, id)
		c.hot.Remove(id)
		removed++
	}

	if removed > 0 {
		c.metrics.CacheEvictions.Add(float64(removed))
		if err := c.index.save(c.dir); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Stats returns a read-only snapshot; it is always available even when
// the store is empty or was just recovered from corruption.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{HitCount: c.hits, MissCount: c.misses}
	cats := make(map[string]bool)
	for _, meta := range c.index.Entries {
		s.EntryCount++
		s.TotalBytes += meta.Size
		cats[meta.Category] = true
	}
	s.Categories = make([]string, 0, len(cats))
	for cat := range cats {
		s.Categories = append(s.Categories, cat)
	}
	sort.Strings(s.Categories)
	return s
}

// Optimize drops index records whose blob has disappeared and removes
// empty category directories. It returns the orphaned-record and
// removed-directory counts.
func (c *Cache) Optimize() (orphaned, emptyDirs int) {
	c.mu.Lock()
	for id, meta := range c.index.Entries {
		if _, err := os.Stat(c.blobPath(meta.Category, id)); os.IsNotExist(err) {
			delete(c.index.Entries, id)
			c.hot.Remove(id)
			orphaned++
		}
	}
	if orphaned > 0 {
		if err := c.index.save(c.dir); err != nil {
			c.logger.Warn("cache index save failed", "error", err)
		}
	}
	c.mu.Unlock()

	dirents, err := os.ReadDir(c.dir)
	if err != nil {
		return orphaned, emptyDirs
	}
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		sub := filepath.Join(c.dir, d.Name())
		if children, err := os.ReadDir(sub); err == nil && len(children) == 0 {
			if os.Remove(sub) == nil {
				emptyDirs++
			}
		}
	}
	return orphaned, emptyDirs
}

// WriteDebug records the last composed source unit for a route under
// the debug subdirectory, for inspection of what the compiler actually
// received.
func (c *Cache) WriteDebug(routePath string, composed []byte) error {
	dir := filepath.Join(c.dir, debugDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.New(errors.KindFileSystem, "creating debug directory: %v", err).WithPath(dir)
	}
	return writeAtomic(filepath.Join(dir, debugName(routePath)+".tsx"), composed)
}

// debugName renders a route path as a flat file name.
func debugName(routePath string) string {
	trimmed := strings.Trim(routePath, "/")
	if trimmed == "" {
		return "root"
	}
	return sanitize(strings.ReplaceAll(trimmed, "/", "__"))
}

func (c *Cache) blobPath(category, id string) string {
	return filepath.Join(c.dir, category, id+blobExt)
}

// touch bumps access metadata for id and persists the index.
func (c *Cache) touch(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	meta, ok := c.index.Entries[id]
	if !ok {
		return
	}
	meta.LastAccessed = time.Now()
	meta.AccessCount++
	if err := c.index.save(c.dir); err != nil {
		c.logger.Warn("cache index save failed", "error", err)
	}
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	c.metrics.CacheHits.Inc()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	c.metrics.CacheMisses.Inc()
}
