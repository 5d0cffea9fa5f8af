// Package translate drives batch translation of a catalog: it plans the
// owed units per language, groups them into provider requests, and merges
// the results back without disturbing the catalog's structure.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/minios-linux/xcstrans/cache"
	"github.com/minios-linux/xcstrans/catalog"
	"github.com/minios-linux/xcstrans/resolve"
	"github.com/minios-linux/xcstrans/stats"
)

// DefaultBatchSize is the number of units sent per provider request.
const DefaultBatchSize = 15

// ErrMissingTranslation marks a unit the provider returned no text for.
var ErrMissingTranslation = errors.New("missing translation")

// Request is one entry of a batch request.
type Request struct {
	ID      catalog.UnitRef
	Text    string
	Context string
	// Variant names the plural category or device of a variant unit,
	// e.g. "plural:few". Empty for default units.
	Variant string
}

// Translator translates a batch of requests into lang. Omitting an ID from
// the result is valid and means no translation was produced for it; an
// error fails the whole batch.
type Translator interface {
	TranslateBatch(ctx context.Context, lang string, reqs []Request) (map[catalog.UnitRef]string, error)
}

// BatchError reports a failed provider call.
type BatchError struct {
	Lang  string
	Batch int // 1-based
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s batch %d: %v", e.Lang, e.Batch, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// ItemError reports a single unit that could not be translated.
type ItemError struct {
	Lang  string
	Batch int
	Ref   catalog.UnitRef
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s batch %d: %s: %v", e.Lang, e.Batch, e.Ref, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Options configures an Engine.
type Options struct {
	// BatchSize is the number of units per provider call (default 15).
	BatchSize int
	// DryRun enumerates batches without calling the provider or writing.
	DryRun bool
	// Force retranslates units that are already current.
	Force bool
	// Keys restricts the run to these keys when non-empty.
	Keys []string
	// Cache deduplicates requests across the run. Nil creates one.
	Cache *cache.Cache
	// Stats receives the run counters. Nil creates one.
	Stats *stats.Stats
	// Logger receives progress and error output. Nil discards it.
	Logger *log.Logger
	// OnProgress is called after each batch.
	OnProgress func(lang string, done, total int)
}

// Engine runs batch translation against one Translator.
type Engine struct {
	tr       Translator
	opts     Options
	cache    *cache.Cache
	stats    *stats.Stats
	log      *log.Logger
	failures []error
}

// New returns an Engine. The cache and stats in opts are shared with the
// caller, so one run can span several catalogs.
func New(tr Translator, opts Options) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	e := &Engine{tr: tr, opts: opts, cache: opts.Cache, stats: opts.Stats, log: opts.Logger}
	if e.cache == nil {
		e.cache = cache.New()
	}
	if e.stats == nil {
		e.stats = &stats.Stats{}
	}
	if e.log == nil {
		e.log = log.New(io.Discard)
	}
	return e
}

// Stats returns the counters accumulated so far.
func (e *Engine) Stats() *stats.Stats {
	return e.stats
}

// Failures returns every batch and item error recorded so far.
func (e *Engine) Failures() []error {
	return e.failures
}

// Run translates cat into each of langs in order. Batch failures are
// recorded in the stats and in Failures; Run itself only fails when ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context, cat *catalog.Catalog, langs []string) error {
	for _, lang := range langs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runLanguage(ctx, cat, lang); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runLanguage(ctx context.Context, cat *catalog.Catalog, lang string) error {
	plan := resolve.WorkItems(cat, lang, resolve.Options{Keys: e.opts.Keys, Force: e.opts.Force})
	e.stats.Total += plan.Considered
	e.stats.SkippedExcluded += len(plan.Excluded)
	e.stats.SkippedCurrent += len(plan.Current)

	for _, key := range plan.Excluded {
		e.log.Debug("skipped (shouldTranslate=false)", "lang", lang, "key", key)
	}
	if len(plan.Items) == 0 {
		return nil
	}

	batches := Partition(plan.Items, e.opts.BatchSize)
	e.log.Info("translating", "lang", lang, "units", len(plan.Items), "batches", len(batches))

	done := 0
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := i + 1
		if e.opts.DryRun {
			for _, it := range batch {
				e.log.Info("would translate", "lang", lang, "batch", n, "unit", it.Ref.String(), "text", it.SourceText)
			}
			e.stats.Translated += len(batch)
		} else if pending, err := e.runBatch(ctx, cat, lang, n, batch); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.failures = append(e.failures, &BatchError{Lang: lang, Batch: n, Err: err})
			e.stats.Errors += pending
			e.log.Error("batch failed", "lang", lang, "batch", n, "units", pending, "err", err)
		}

		done += len(batch)
		if e.opts.OnProgress != nil {
			e.opts.OnProgress(lang, done, len(plan.Items))
		}
	}
	return nil
}

// runBatch sends one batch and merges the result. Items whose triple is
// already cached are written directly; items sharing a triple share one
// request entry. On error, pending is the number of items that were
// waiting on the failed provider call.
func (e *Engine) runBatch(ctx context.Context, cat *catalog.Catalog, lang string, n int, batch []resolve.WorkItem) (pending int, err error) {
	var (
		reqs    []Request
		members = make(map[cache.Key][]resolve.WorkItem)
		owner   = make(map[catalog.UnitRef]cache.Key)
	)
	for _, it := range batch {
		k := cache.Key{Text: it.SourceText, Lang: lang, Context: cacheContext(it)}
		if text, ok := e.cache.Get(k.Text, k.Lang, k.Context); ok {
			cat.SetUnit(it.Ref, lang, text, catalog.StateTranslated)
			e.stats.CacheHits++
			e.stats.Translated++
			continue
		}
		if _, seen := members[k]; !seen {
			reqs = append(reqs, Request{ID: it.Ref, Text: it.SourceText, Context: it.Context, Variant: it.Ref.Variant()})
			owner[it.Ref] = k
		}
		members[k] = append(members[k], it)
		pending++
	}
	if len(reqs) == 0 {
		e.log.Debug("batch served from cache", "lang", lang, "batch", n)
		return 0, nil
	}

	got, err := e.tr.TranslateBatch(ctx, lang, reqs)
	if err != nil {
		return pending, err
	}

	for _, r := range reqs {
		k := owner[r.ID]
		text, ok := got[r.ID]
		if !ok || text == "" {
			for _, it := range members[k] {
				ierr := &ItemError{Lang: lang, Batch: n, Ref: it.Ref, Err: ErrMissingTranslation}
				e.failures = append(e.failures, ierr)
				e.stats.Errors++
				e.log.Error("missing translation", "lang", lang, "batch", n, "unit", it.Ref.String())
			}
			continue
		}
		e.cache.Put(k.Text, k.Lang, k.Context, text)
		for _, it := range members[k] {
			cat.SetUnit(it.Ref, lang, text, catalog.StateTranslated)
			e.stats.Translated++
		}
	}
	return 0, nil
}

// cacheContext is the context part of an item's cache key. Variant units
// also carry their kind and selector: plural categories fed the same source
// text still need different grammatical forms.
func cacheContext(it resolve.WorkItem) string {
	v := it.Ref.Variant()
	if v == "" {
		return it.Context
	}
	if it.Context == "" {
		return "[" + v + "]"
	}
	return it.Context + " [" + v + "]"
}

// TranslateText translates a single string through the run cache.
func (e *Engine) TranslateText(ctx context.Context, text, lang, comment string) (string, error) {
	if got, ok := e.cache.Get(text, lang, comment); ok {
		return got, nil
	}
	ref := catalog.UnitRef{Key: text}
	res, err := e.tr.TranslateBatch(ctx, lang, []Request{{ID: ref, Text: text, Context: comment}})
	if err != nil {
		return "", err
	}
	got, ok := res[ref]
	if !ok || got == "" {
		return "", fmt.Errorf("%q: %w", text, ErrMissingTranslation)
	}
	e.cache.Put(text, lang, comment, got)
	return got, nil
}

// Partition splits items into consecutive batches of at most size.
func Partition(items []resolve.WorkItem, size int) [][]resolve.WorkItem {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]resolve.WorkItem
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
