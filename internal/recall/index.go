package recall

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ppiankov/mediator/internal/cache"
	"github.com/ppiankov/mediator/internal/extract"
	"github.com/ppiankov/mediator/internal/logging"
	"github.com/ppiankov/mediator/internal/model"
)

// Index is the citation-recall index over a directory of canon documents.
// It is built lazily on first use. Rebuilds publish a fresh snapshot, so
// readers always see either the old or the new index in full.
type Index struct {
	dir    string
	parser *extract.CanonParser
	terms  *extract.TermExtractor
	cache  cache.Cache
	ttl    time.Duration
	logger *logging.Logger

	buildMu sync.Mutex // Serializes builds

	mu      sync.RWMutex
	entries []model.IndexEntry
	built   bool
	gen     uint64 // Bumped by Invalidate
}

// Option configures an Index
type Option func(*Index)

// WithCache persists built snapshots through c
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(idx *Index) {
		idx.cache = c
		idx.ttl = ttl
	}
}

// WithLogger sets the index logger
func WithLogger(l *logging.Logger) Option {
	return func(idx *Index) {
		idx.logger = l.WithComponent("recall")
	}
}

// NewIndex creates an index over dir using the given rule tables
func NewIndex(dir string, rules *model.Rules, opts ...Option) *Index {
	terms := extract.NewTermExtractor(rules)
	idx := &Index{
		dir:    dir,
		parser: extract.NewCanonParser(terms),
		terms:  terms,
		cache:  cache.Nop{},
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Dir returns the canon directory
func (idx *Index) Dir() string {
	return idx.dir
}

// Entries returns the current snapshot, building it if needed.
// The returned slice must not be modified.
func (idx *Index) Entries(ctx context.Context) ([]model.IndexEntry, error) {
	idx.mu.RLock()
	if idx.built {
		entries := idx.entries
		idx.mu.RUnlock()
		return entries, nil
	}
	idx.mu.RUnlock()

	return idx.build(ctx, false)
}

// Rebuild re-parses every canon document, bypassing the cache
func (idx *Index) Rebuild(ctx context.Context) ([]model.IndexEntry, error) {
	return idx.build(ctx, true)
}

// Invalidate drops the current snapshot. The next read rebuilds it.
func (idx *Index) Invalidate() {
	idx.mu.Lock()
	idx.built = false
	idx.entries = nil
	idx.gen++
	idx.mu.Unlock()
}

func (idx *Index) build(ctx context.Context, force bool) ([]model.IndexEntry, error) {
	idx.buildMu.Lock()
	defer idx.buildMu.Unlock()

	// Another caller may have finished a build while we waited
	if !force {
		idx.mu.RLock()
		if idx.built {
			entries := idx.entries
			idx.mu.RUnlock()
			return entries, nil
		}
		idx.mu.RUnlock()
	}

	idx.mu.RLock()
	gen := idx.gen
	idx.mu.RUnlock()

	files, key, err := idx.scan()
	if err != nil {
		return nil, err
	}

	var entries []model.IndexEntry
	if !force && cache.GetJSON(idx.cache, key, &entries) {
		idx.logger.Debug("index loaded from cache", "entries", len(entries))
	} else {
		entries = make([]model.IndexEntry, 0, len(files))
		for _, name := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			entry, err := idx.parser.ParseFile(filepath.Join(idx.dir, name))
			if err != nil {
				idx.logger.Warn("skipping unreadable canon", "file", name, "error", err)
				continue
			}
			entries = append(entries, entry)
		}
		if err := cache.SetJSON(idx.cache, key, entries, idx.ttl); err != nil {
			idx.logger.Warn("index cache write failed", "error", err)
		}
		idx.logger.Info("index built", "dir", idx.dir, "entries", len(entries))
	}

	// A snapshot scanned before an invalidation is returned but not kept
	idx.mu.Lock()
	if idx.gen == gen {
		idx.entries = entries
		idx.built = true
	}
	idx.mu.Unlock()

	return entries, nil
}

// scan lists canon documents in name order and derives a cache key from
// their names, sizes and modification times. A missing directory is an
// empty index.
func (idx *Index) scan() ([]string, string, error) {
	dirEntries, err := os.ReadDir(idx.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cache.Key("recall", idx.dir), nil
		}
		return nil, "", fmt.Errorf("read canon dir: %w", err)
	}

	var files []string
	parts := []string{idx.dir}
	for _, de := range dirEntries {
		if de.IsDir() || !extract.IsCanonDocument(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		files = append(files, de.Name())
		parts = append(parts, de.Name()+":"+strconv.FormatInt(info.Size(), 10)+":"+strconv.FormatInt(info.ModTime().UnixNano(), 10))
	}
	sort.Strings(files)
	sort.Strings(parts[1:])

	return files, cache.Key("recall", parts...), nil
}
