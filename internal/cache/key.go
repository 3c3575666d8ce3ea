package cache

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key addresses one cache entry. Two keys are equal exactly when the
// source bytes, compilation mode, and compiler version all match.
type Key struct {
	ContentHash     uint64
	Mode            string
	CompilerVersion string
}

// NewKey hashes the composed source and binds it to the compilation
// mode and compiler version.
func NewKey(source []byte, mode, compilerVersion string) Key {
	return Key{
		ContentHash:     xxhash.Sum64(source),
		Mode:            mode,
		CompilerVersion: compilerVersion,
	}
}

// ID renders the key as a filesystem- and index-safe identifier.
func (k Key) ID() string {
	return fmt.Sprintf("%016x-%s-%s", k.ContentHash, sanitize(k.Mode), sanitize(k.CompilerVersion))
}

// sanitize keeps identifiers safe as file-name components.
func sanitize(s string) string {
	if s == "" {
		return "none"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
