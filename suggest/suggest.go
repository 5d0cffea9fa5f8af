// Package suggest reviews existing translations: it asks an Analyzer for
// improvement suggestions, presents them one by one to a DecisionSource and
// applies the accepted ones to the catalog.
//
// The workflow is a small state machine:
//
//	Idle → Collecting → Analyzing → Presenting → Accepted|Rejected → Presenting … → Done
//	                                          └→ Stopped (quit)
package suggest

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/minios-linux/xcstrans/catalog"
	"github.com/minios-linux/xcstrans/resolve"
	"github.com/minios-linux/xcstrans/stats"
)

// DefaultBatchSize is the number of candidates sent per analyze call.
const DefaultBatchSize = 15

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Candidate is an existing translation offered for review.
type Candidate struct {
	Ref         catalog.UnitRef
	Original    string
	Translation string
	Context     string
}

// Suggestion is a proposed replacement for an existing translation.
type Suggestion struct {
	Ref        catalog.UnitRef
	Lang       string
	Original   string
	Current    string
	Suggested  string
	Confidence int // 1-5
	Reasoning  string
}

// Analyzer reviews a batch of candidates in lang. An empty result is valid.
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, lang string, cands []Candidate) ([]Suggestion, error)
}

// State is a workflow state.
type State int

const (
	Idle State = iota
	Collecting
	Analyzing
	Presenting
	Accepted
	Rejected
	Done
	Stopped
)

var stateNames = [...]string{"idle", "collecting", "analyzing", "presenting", "accepted", "rejected", "done", "stopped"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options configures a Workflow.
type Options struct {
	// BatchSize is the number of candidates per analyze call (default 15).
	BatchSize int
	// Keys restricts review to these keys when non-empty.
	Keys []string
	// Stats receives the suggestion counters. Nil creates one.
	Stats *stats.Stats
	// Logger receives progress and error output. Nil discards it.
	Logger *log.Logger
	// OnTransition is called on every state change.
	OnTransition func(from, to State)
}

// Result is the outcome of one review run.
type Result struct {
	Suggestions []Suggestion
	Accepted    int
	Rejected    int
	Unreviewed  int
	Errors      int
	Final       State
}

// Changed reports whether at least one suggestion was applied, i.e.
// whether the catalog needs saving.
func (r Result) Changed() bool {
	return r.Accepted > 0
}

// ---------------------------------------------------------------------------
// Workflow
// ---------------------------------------------------------------------------

// Workflow runs review passes.
type Workflow struct {
	an    Analyzer
	dec   DecisionSource
	opts  Options
	stats *stats.Stats
	log   *log.Logger
	state State
}

// New returns a Workflow in the Idle state.
func New(an Analyzer, dec DecisionSource, opts Options) *Workflow {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	w := &Workflow{an: an, dec: dec, opts: opts, stats: opts.Stats, log: opts.Logger}
	if w.stats == nil {
		w.stats = &stats.Stats{}
	}
	if w.log == nil {
		w.log = log.New(io.Discard)
	}
	return w
}

// State returns the current state.
func (w *Workflow) State() State {
	return w.state
}

func (w *Workflow) transition(to State) {
	from := w.state
	w.state = to
	if w.opts.OnTransition != nil {
		w.opts.OnTransition(from, to)
	}
}

// Run reviews cat in each of langs. All suggestions are collected before
// the first one is presented. Analyze failures are counted and skipped;
// Run fails only on cancellation or a broken decision source.
func (w *Workflow) Run(ctx context.Context, cat *catalog.Catalog, langs []string) (Result, error) {
	var res Result
	w.state = Idle

	w.transition(Collecting)
	type langCands struct {
		lang  string
		cands []Candidate
	}
	var work []langCands
	for _, lang := range langs {
		if c := Candidates(cat, lang, w.opts.Keys); len(c) > 0 {
			work = append(work, langCands{lang, c})
		}
	}

	w.transition(Analyzing)
	for _, lc := range work {
		for start := 0; start < len(lc.cands); start += w.opts.BatchSize {
			if err := ctx.Err(); err != nil {
				return w.finish(res), err
			}
			batch := lc.cands[start:min(start+w.opts.BatchSize, len(lc.cands))]
			n := start/w.opts.BatchSize + 1
			got, err := w.an.AnalyzeBatch(ctx, lc.lang, batch)
			if err != nil {
				if ctx.Err() != nil {
					return w.finish(res), ctx.Err()
				}
				res.Errors++
				w.log.Error("analysis failed", "lang", lc.lang, "batch", n, "err", err)
				continue
			}
			for i := range got {
				got[i].Lang = lc.lang
			}
			res.Suggestions = append(res.Suggestions, got...)
			w.log.Debug("analyzed", "lang", lc.lang, "batch", n, "suggestions", len(got))
		}
	}

	total := len(res.Suggestions)
	for i, s := range res.Suggestions {
		w.transition(Presenting)
		d, err := w.dec.Decide(ctx, s, i+1, total)
		if err != nil {
			res.Unreviewed = total - i
			return w.finish(res), err
		}
		switch d {
		case Accept:
			w.transition(Accepted)
			cat.SetUnit(s.Ref, s.Lang, s.Suggested, catalog.StateTranslated)
			res.Accepted++
			w.log.Info("accepted", "lang", s.Lang, "unit", s.Ref.String(), "value", s.Suggested)
		case Quit:
			res.Unreviewed = total - i
			w.transition(Stopped)
			return w.finish(res), nil
		default:
			w.transition(Rejected)
			res.Rejected++
		}
	}

	w.transition(Done)
	return w.finish(res), nil
}

func (w *Workflow) finish(res Result) Result {
	res.Final = w.state
	w.stats.Suggested += len(res.Suggestions)
	w.stats.Accepted += res.Accepted
	w.stats.Rejected += res.Rejected
	w.stats.Unreviewed += res.Unreviewed
	w.stats.Errors += res.Errors
	return res
}

// Candidates lists every non-empty translated unit of lang in catalog
// order, paired with its source text. Excluded entries are left out.
func Candidates(cat *catalog.Catalog, lang string, keys []string) []Candidate {
	var only map[string]bool
	if len(keys) > 0 {
		only = make(map[string]bool, len(keys))
		for _, k := range keys {
			only[k] = true
		}
	}

	var out []Candidate
	for _, key := range cat.Keys() {
		if only != nil && !only[key] {
			continue
		}
		e := cat.Strings[key]
		if !resolve.ShouldTranslateKey(e) {
			continue
		}
		loc := e.Localization(lang)
		if loc == nil {
			continue
		}
		sources := resolve.SourceTexts(key, e, cat.SourceLanguage)
		for _, u := range loc.Units() {
			if u.Unit == nil || u.Unit.Value == "" {
				continue
			}
			out = append(out, Candidate{
				Ref:         catalog.UnitRef{Key: key, Kind: u.Kind, Selector: u.Selector},
				Original:    sourceFor(sources, u.Kind, u.Selector),
				Translation: u.Unit.Value,
				Context:     e.Comment,
			})
		}
	}
	return out
}

func sourceFor(sources []resolve.SourceText, kind catalog.VariantKind, sel string) string {
	fallback := sources[0].Text
	for _, s := range sources {
		if s.Kind == kind && s.Selector == sel {
			return s.Text
		}
		if s.Kind == kind && s.Selector == "other" {
			fallback = s.Text
		}
	}
	return fallback
}
