package cache

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rivet-web/rivet/internal/errors"
)

const (
	indexVersion  = 1
	indexFileName = "index.json"
	blobExt       = ".js"
)

// indexEntry is the on-disk metadata for one stored blob.
type indexEntry struct {
	Category     string    `json:"category"`
	Mode         string    `json:"mode"`
	Size         int64     `json:"size"`
	Created      time.Time `json:"created"`
	LastAccessed time.Time `json:"lastAccessed"`
	AccessCount  int       `json:"accessCount"`
}

// indexFile is the versioned, self-describing index. Version mismatches
// are treated the same as corruption.
type indexFile struct {
	Version int                    `json:"version"`
	Entries map[string]*indexEntry `json:"entries"`
}

func newIndex() *indexFile {
	return &indexFile{Version: indexVersion, Entries: make(map[string]*indexEntry)}
}

// loadIndex reads the index from dir. A missing index is a fresh cache;
// an unparsable or wrong-version index degrades to empty so callers get
// a full rebuild instead of an error. The corrupt file is removed so
// the next save starts clean.
func loadIndex(dir string, logger *slog.Logger) *indexFile {
	path := filepath.Join(dir, indexFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cache index unreadable, starting empty",
				"path", path, "error", err)
		}
		return newIndex()
	}

	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil || idx.Version != indexVersion {
		corrupt := errors.New(errors.KindCacheCorruption,
			"cache index unparsable or wrong version, degrading to empty cache").
			WithPath(path).Wrap(err)
		logger.Warn(corrupt.Error(), "version", idx.Version)
		os.Remove(path)
		return newIndex()
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]*indexEntry)
	}
	return &idx
}

// save writes the index atomically: temp file in the same directory,
// then rename over the old index.
func (idx *indexFile) save(dir string) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return errors.New(errors.KindFileSystem, "encoding cache index: %v", err)
	}
	return writeAtomic(filepath.Join(dir, indexFileName), data)
}

// writeAtomic writes data to path via a same-directory temp file and
// rename so readers never observe a partial file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return errors.New(errors.KindFileSystem, "creating temp file: %v", err).WithPath(path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.New(errors.KindFileSystem, "writing temp file: %v", err).WithPath(path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.New(errors.KindFileSystem, "closing temp file: %v", err).WithPath(path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.New(errors.KindFileSystem, "replacing file: %v", err).WithPath(path)
	}
	return nil
}
