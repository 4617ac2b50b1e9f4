package normalize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reelworks/tapeprep/internal/audio"
)

// CacheKey identifies one normalized rendition of one source file. Two
// runs with the same key may reuse each other's cached output; any
// change to the method or target produces a different key.
type CacheKey struct {
	SourceName string
	Method     Method
	TargetLUFS float64 // only part of the key in lufs mode
}

// Filename returns the deterministic cache file name for this key.
func (k CacheKey) Filename() string {
	stem := strings.TrimSuffix(filepath.Base(k.SourceName), filepath.Ext(k.SourceName))
	stem = sanitizeStem(stem)
	if k.Method == LUFSMethod {
		return fmt.Sprintf("%s_norm_lufs%.1f.wav", stem, k.TargetLUFS)
	}
	return fmt.Sprintf("%s_norm_peak.wav", stem)
}

// Path returns the cache file location under cacheDir.
func (k CacheKey) Path(cacheDir string) string {
	return filepath.Join(cacheDir, k.Filename())
}

// Cached reports whether a prior run already produced this rendition,
// returning its path when it has.
func Cached(cacheDir string, key CacheKey) (string, bool) {
	path := key.Path(cacheDir)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return "", false
	}
	return path, true
}

// Store writes a normalized buffer into the cache and returns its path.
func Store(cacheDir string, key CacheKey, buf *audio.Buffer) (string, error) {
	path := key.Path(cacheDir)
	if err := audio.WriteWAV(path, buf); err != nil {
		return "", fmt.Errorf("failed to cache normalized audio: %w", err)
	}
	return path, nil
}

// sanitizeStem keeps cache names portable across filesystems.
func sanitizeStem(stem string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, stem)
}
