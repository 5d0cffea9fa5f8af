// Package resolve decides which catalog units need translation.
//
// Resolution is a read-only pass over the catalog: it produces the work
// items for one language and classifies every key it skips. Nothing here
// mutates the catalog; writes happen afterwards in the orchestrator.
package resolve

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/minios-linux/xcstrans/catalog"
	"github.com/minios-linux/xcstrans/langmeta"
)

// ErrNoLanguages is returned when no target language is left after
// combining declared languages with the requested filter.
var ErrNoLanguages = errors.New("no target languages")

// ---------------------------------------------------------------------------
// Target languages
// ---------------------------------------------------------------------------

// LanguagesToTranslate returns the union of project-declared and
// catalog-declared languages minus the source language, intersected with
// requested when it is non-empty. Codes are compared after
// canonicalization; the catalog's own spelling wins when both exist.
func LanguagesToTranslate(cat *catalog.Catalog, projectLangs, requested []string) ([]string, error) {
	byCanon := make(map[string]string)
	add := func(lang string, fromCatalog bool) {
		c := langmeta.Canonicalize(lang)
		if c == "" {
			return
		}
		if fromCatalog {
			byCanon[c] = lang
			return
		}
		if _, ok := byCanon[c]; !ok {
			byCanon[c] = c
		}
	}
	for _, l := range projectLangs {
		add(l, false)
	}
	for _, l := range cat.Languages() {
		add(l, true)
	}
	delete(byCanon, langmeta.Canonicalize(cat.SourceLanguage))

	if len(requested) > 0 {
		filtered := make(map[string]string)
		for _, r := range requested {
			c := langmeta.Canonicalize(r)
			if lang, ok := byCanon[c]; ok {
				filtered[c] = lang
			}
		}
		if len(filtered) == 0 {
			return nil, fmt.Errorf("%w: requested %s, available %s",
				ErrNoLanguages, strings.Join(requested, ", "), strings.Join(sortedValues(byCanon), ", "))
		}
		byCanon = filtered
	}

	if len(byCanon) == 0 {
		return nil, fmt.Errorf("%w: catalog declares no languages besides %q", ErrNoLanguages, cat.SourceLanguage)
	}
	return sortedValues(byCanon), nil
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// Per-entry decisions
// ---------------------------------------------------------------------------

// ShouldTranslateKey reports whether the entry takes part in translation at
// all. An explicit shouldTranslate=false always wins, force included.
func ShouldTranslateKey(e *catalog.StringEntry) bool {
	return !e.Excluded()
}

// NeedsTranslation reports whether lang owes work for the entry: the
// localization is missing, force is set, or any of its units (default or
// variant) is new or empty. A localization without any unit counts as
// needing translation.
func NeedsTranslation(e *catalog.StringEntry, lang string, force bool) bool {
	if force {
		return true
	}
	l := e.Localization(lang)
	if l == nil {
		return true
	}
	units := l.Units()
	if len(units) == 0 {
		return true
	}
	for _, u := range units {
		if u.Unit.Owed() {
			return true
		}
	}
	return false
}

// SourceText is one translatable source string of an entry together with
// the location it came from.
type SourceText struct {
	Kind     catalog.VariantKind
	Selector string
	Text     string
}

// SourceTexts picks the text to translate from the source language: the
// default unit when it has a value, otherwise every variant unit that has
// one, otherwise the key itself.
func SourceTexts(key string, e *catalog.StringEntry, sourceLang string) []SourceText {
	l := e.Localization(sourceLang)
	if l != nil {
		if l.StringUnit != nil && l.StringUnit.Value != "" {
			return []SourceText{{Text: l.StringUnit.Value}}
		}
		var out []SourceText
		for _, u := range l.Units() {
			if u.Kind == catalog.NoVariant || u.Unit.Value == "" {
				continue
			}
			out = append(out, SourceText{Kind: u.Kind, Selector: u.Selector, Text: u.Unit.Value})
		}
		if len(out) > 0 {
			return out
		}
	}
	return []SourceText{{Text: key}}
}

// ---------------------------------------------------------------------------
// Work planning
// ---------------------------------------------------------------------------

// WorkItem is one unit of text owed for one language.
type WorkItem struct {
	Ref        catalog.UnitRef
	Lang       string
	SourceText string
	Context    string
}

// Options narrows planning.
type Options struct {
	// Keys restricts planning to these keys when non-empty.
	Keys []string
	// Force retranslates units that are already current.
	Force bool
}

// Plan is the outcome of resolving one language.
type Plan struct {
	Lang string
	// Items are the owed units in catalog order.
	Items []WorkItem
	// Considered counts the keys examined.
	Considered int
	// Excluded lists keys skipped by explicit opt-out.
	Excluded []string
	// Current lists keys whose translation is already up to date.
	Current []string
}

// WorkItems resolves every key of the catalog for lang.
func WorkItems(cat *catalog.Catalog, lang string, opts Options) Plan {
	plan := Plan{Lang: lang}

	var only map[string]bool
	if len(opts.Keys) > 0 {
		only = make(map[string]bool, len(opts.Keys))
		for _, k := range opts.Keys {
			only[k] = true
		}
	}

	for _, key := range cat.Keys() {
		if only != nil && !only[key] {
			continue
		}
		e := cat.Strings[key]
		plan.Considered++

		if !ShouldTranslateKey(e) {
			plan.Excluded = append(plan.Excluded, key)
			continue
		}
		if !NeedsTranslation(e, lang, opts.Force) && !missingSourceUnits(key, e, cat.SourceLanguage, lang) {
			plan.Current = append(plan.Current, key)
			continue
		}

		items := entryItems(key, e, cat.SourceLanguage, lang, opts.Force)
		if len(items) == 0 {
			plan.Current = append(plan.Current, key)
			continue
		}
		plan.Items = append(plan.Items, items...)
	}
	return plan
}

// missingSourceUnits reports whether the target localization lacks a unit
// at any location the source provides text for, e.g. a plural "one" that
// was never added although "other" is translated.
func missingSourceUnits(key string, e *catalog.StringEntry, sourceLang, lang string) bool {
	target := e.Localization(lang)
	for _, src := range SourceTexts(key, e, sourceLang) {
		if target.Unit(src.Kind, src.Selector) == nil {
			return true
		}
	}
	return false
}

// entryItems enumerates the owed units of one entry. Source locations come
// first. Units that exist only in the target (e.g. a "few" plural category
// the source language lacks) follow, using the closest source text.
func entryItems(key string, e *catalog.StringEntry, sourceLang, lang string, force bool) []WorkItem {
	target := e.Localization(lang)
	sources := SourceTexts(key, e, sourceLang)

	newItem := func(kind catalog.VariantKind, sel, text string) WorkItem {
		return WorkItem{
			Ref:        catalog.UnitRef{Key: key, Kind: kind, Selector: sel},
			Lang:       lang,
			SourceText: text,
			Context:    e.Comment,
		}
	}

	var items []WorkItem
	covered := make(map[catalog.UnitRef]bool)
	for _, src := range sources {
		ref := catalog.UnitRef{Key: key, Kind: src.Kind, Selector: src.Selector}
		covered[ref] = true
		if force || target == nil || target.Unit(src.Kind, src.Selector).Owed() {
			items = append(items, newItem(src.Kind, src.Selector, src.Text))
		}
	}

	for _, u := range target.Units() {
		ref := catalog.UnitRef{Key: key, Kind: u.Kind, Selector: u.Selector}
		if covered[ref] || (!force && !u.Unit.Owed()) {
			continue
		}
		items = append(items, newItem(u.Kind, u.Selector, fallbackText(sources, u.Kind)))
	}
	return items
}

// fallbackText picks the source text for a target-only unit: the source
// "other" category of the same kind, else the last source of that kind,
// else the first source text.
func fallbackText(sources []SourceText, kind catalog.VariantKind) string {
	text := ""
	for _, s := range sources {
		if s.Kind != kind {
			continue
		}
		text = s.Text
		if s.Selector == "other" {
			return s.Text
		}
	}
	if text != "" {
		return text
	}
	return sources[0].Text
}
