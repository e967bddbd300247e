package grammar

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheFormat is bumped whenever the on-disk layout of cached grammar tables
// changes; stale files are rebuilt, never migrated.
const cacheFormat = 1

// compiledCache memoizes compiled grammars per version. Compiled grammars are
// immutable, so sharing entries across concurrent parse calls is safe.
var compiledCache, _ = lru.New[int, *Compiled](4)

type cacheEntry struct {
	Format  int
	Grammar Grammar
}

// CacheDir returns the directory used for the best-effort on-disk grammar
// table cache.
func CacheDir() string {
	return os.TempDir()
}

func cachePath(version int) string {
	return filepath.Join(CacheDir(), fmt.Sprintf("whatrecord-grammar-v%d.gob", version))
}

// Load returns the compiled grammar for a version, building it at most once
// per process. The on-disk cache is purely an optimization: a missing,
// unreadable, or corrupt cache file only forces a rebuild from the bundled
// definition, and concurrent writers are tolerated as last-writer-wins.
func Load(version int) (*Compiled, error) {
	if c, ok := compiledCache.Get(version); ok {
		return c, nil
	}

	g, fromDisk := readCache(version)
	if g == nil {
		var err error
		g, err = Definition(version)
		if err != nil {
			return nil, err
		}
	}

	c, err := Compile(g)
	if err != nil {
		if !fromDisk {
			return nil, err
		}
		// A stale cache produced uncompilable tables; fall back to the
		// bundled definition.
		g, err = Definition(version)
		if err != nil {
			return nil, err
		}
		c, err = Compile(g)
		if err != nil {
			return nil, err
		}
		fromDisk = false
	}

	compiledCache.Add(version, c)
	if !fromDisk {
		writeCache(version, g)
	}
	return c, nil
}

func readCache(version int) (g *Grammar, ok bool) {
	raw, err := os.ReadFile(cachePath(version))
	if err != nil {
		return nil, false
	}

	var entry cacheEntry
	if err = gob.NewDecoder(bytes.NewReader(raw)).Decode(&entry); err != nil {
		slog.Debug("grammar cache decode failed", "version", version, "error", err)
		return nil, false
	}
	if entry.Format != cacheFormat || entry.Grammar.Version != version || len(entry.Grammar.Terms) == 0 {
		return nil, false
	}
	return &entry.Grammar, true
}

func writeCache(version int, g *Grammar) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cacheEntry{Format: cacheFormat, Grammar: *g}); err != nil {
		return
	}
	if err := os.WriteFile(cachePath(version), buf.Bytes(), 0o644); err != nil {
		slog.Debug("grammar cache write failed", "version", version, "error", err)
	}
}
