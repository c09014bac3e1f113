package feather

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/jward/feather/internal/extract"
	"github.com/jward/feather/internal/gml"
	"github.com/jward/feather/internal/metrics"
	"github.com/jward/feather/internal/store"
	"github.com/jward/feather/internal/syntax"
)

// workItem holds one file as it moves through the indexing phases.
type workItem struct {
	path  string
	src   []byte
	hash  string
	asset extract.AssetKind

	root     *syntax.Node
	parseErr error
}

// IndexFiles indexes the given GML files with a three-phase pipeline:
//
//	Phase A (serial):   Read, hash check, skip unchanged files.
//	Phase B (parallel): Parse on a bounded worker pool.
//	Phase C (serial):   Apply each tree to the registry under the write
//	                    lock, one file at a time, in input order.
//
// A file that fails to read or parse is skipped and reported; the others
// are still applied. Cancelling ctx stops parsing and discards every result
// not yet applied.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	var errs []error

	// ---- Phase A: Serial file preparation ----
	var items []*workItem
	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		path = filepath.Clean(path)
		if seen[path] || !gml.IsSource(path) {
			continue
		}
		seen[path] = true
		item, skip, err := e.prepareFile(path)
		if err != nil {
			e.metrics.FileDone(metrics.OutcomeFailed)
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			e.metrics.FileDone(metrics.OutcomeUnchanged)
			continue
		}
		items = append(items, item)
	}

	// ---- Phase B: Parallel parsing ----
	if len(items) > 0 {
		e.parseAll(ctx, items)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("feather: index: %w", err)
	}

	// ---- Phase C: Serial application ----
	if len(items) > 0 {
		errs = append(errs, e.applyAll(items)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("feather: indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// prepareFile reads path and reports skip=true when its content hash
// matches the indexed one.
func (e *Engine) prepareFile(path string) (*workItem, bool, error) {
	src, err := readSource(path)
	if err != nil {
		return nil, false, err
	}
	hash := store.ContentHash(src)

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return nil, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return nil, true, nil
	}
	return &workItem{
		path:  path,
		src:   src,
		hash:  hash,
		asset: e.assetKind(path),
	}, false, nil
}

func (e *Engine) parseAll(ctx context.Context, items []*workItem) {
	numWorkers := min(e.parallel, len(items))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan *workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				if ctx.Err() != nil {
					item.parseErr = ctx.Err()
					continue
				}
				start := time.Now()
				item.root, item.parseErr = e.parser.Parse(ctx, item.path, item.src)
				e.metrics.ObserveParse(time.Since(start).Seconds())
			}
		}()
	}
	wg.Wait()
}

func (e *Engine) applyAll(items []*workItem) []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.refreshGaugesLocked()

	var errs []error
	for _, item := range items {
		if item.parseErr != nil {
			e.metrics.FileDone(metrics.OutcomeFailed)
			e.logger.Warn("parse failed", "path", item.path, "error", item.parseErr)
			errs = append(errs, fmt.Errorf("parse %s: %w", item.path, item.parseErr))
			continue
		}
		f := &store.File{
			Path:        item.path,
			AssetKind:   string(item.asset),
			Hash:        item.hash,
			LineCount:   store.LineCount(item.src),
			LastIndexed: time.Now(),
		}
		if _, err := e.applyLocked(f, item.asset, item.root); err != nil {
			e.metrics.FileDone(metrics.OutcomeFailed)
			errs = append(errs, err)
			continue
		}
		e.metrics.FileDone(metrics.OutcomeIndexed)
		e.logger.Info("indexed file", "path", item.path, "asset", item.asset)
	}
	return errs
}
