// Package catalog implements reading, writing and structural editing of
// string catalogs (.xcstrings JSON documents).
//
// A catalog maps string keys to entries; each entry holds per-language
// localizations that are either a single string unit or a set of plural
// and device variations. Serialization is deterministic so that a run
// which changes nothing leaves the file byte-identical.
package catalog

import (
	"fmt"
	"sort"
)

// ---------------------------------------------------------------------------
// Unit states
// ---------------------------------------------------------------------------

const (
	StateNew         = "new"
	StateTranslated  = "translated"
	StateNeedsReview = "needs_review"
	StateStale       = "stale"
)

// ---------------------------------------------------------------------------
// Variant addressing
// ---------------------------------------------------------------------------

// VariantKind selects which variation map of a localization a unit lives in.
type VariantKind string

const (
	NoVariant VariantKind = ""
	Plural    VariantKind = "plural"
	Device    VariantKind = "device"
)

// UnitRef addresses one string unit of an entry: the default unit when Kind
// is NoVariant, otherwise the variation Selector (e.g. "one", "ipad") inside
// the Kind map. It is comparable and is used as the work item identifier
// throughout a run.
type UnitRef struct {
	Key      string
	Kind     VariantKind
	Selector string
}

// IsVariant reports whether the ref points into a variation map.
func (r UnitRef) IsVariant() bool {
	return r.Kind != NoVariant
}

// Variant describes the variation the ref points into, e.g. "plural:few".
// It is empty for the default unit.
func (r UnitRef) Variant() string {
	if !r.IsVariant() {
		return ""
	}
	return string(r.Kind) + ":" + r.Selector
}

// String renders the ref for logs, e.g. `files_count [plural:one]`.
func (r UnitRef) String() string {
	if !r.IsVariant() {
		return r.Key
	}
	return fmt.Sprintf("%s [%s:%s]", r.Key, r.Kind, r.Selector)
}

// ---------------------------------------------------------------------------
// Document model
// ---------------------------------------------------------------------------

// Catalog is the top-level .xcstrings document.
type Catalog struct {
	SourceLanguage string                  `json:"sourceLanguage"`
	Strings        map[string]*StringEntry `json:"strings"`
	Version        string                  `json:"version,omitempty"`

	// Extra holds members this package does not model, written back as read.
	Extra map[string]RawJSON `json:"-"`
}

// StringEntry holds everything known about one key.
type StringEntry struct {
	Comment         string                   `json:"comment,omitempty"`
	ExtractionState string                   `json:"extractionState,omitempty"`
	Localizations   map[string]*Localization `json:"localizations,omitempty"`
	// ShouldTranslate is nil unless the document sets it explicitly.
	ShouldTranslate *bool `json:"shouldTranslate,omitempty"`

	Extra map[string]RawJSON `json:"-"`
}

// Localization is one language's translation of an entry. A well-formed
// catalog populates only one of StringUnit and Variations, but both are
// tolerated.
type Localization struct {
	StringUnit    *StringUnit   `json:"stringUnit,omitempty"`
	Substitutions RawJSON       `json:"substitutions,omitempty"`
	Variations    *VariationSet `json:"variations,omitempty"`

	Extra map[string]RawJSON `json:"-"`
}

// VariationSet holds the plural and device variations of a localization.
type VariationSet struct {
	Device map[string]*Variation `json:"device,omitempty"`
	Plural map[string]*Variation `json:"plural,omitempty"`

	Extra map[string]RawJSON `json:"-"`
}

// Variation wraps the unit of one plural category or device. Nested
// variations (device → plural) are carried through untouched.
type Variation struct {
	StringUnit *StringUnit `json:"stringUnit,omitempty"`
	Variations RawJSON     `json:"variations,omitempty"`

	Extra map[string]RawJSON `json:"-"`
}

// StringUnit is a single translatable value.
type StringUnit struct {
	State string `json:"state"`
	Value string `json:"value"`

	Extra map[string]RawJSON `json:"-"`
}

// Owed reports whether the unit still needs a translation: a missing unit,
// an empty value, or the "new" state.
func (u *StringUnit) Owed() bool {
	return u == nil || u.Value == "" || u.State == StateNew
}

// New returns an empty catalog for the given source language.
func New(sourceLang string) *Catalog {
	return &Catalog{
		SourceLanguage: sourceLang,
		Strings:        make(map[string]*StringEntry),
		Version:        "1.0",
	}
}

// ---------------------------------------------------------------------------
// Read access
// ---------------------------------------------------------------------------

// Keys returns all keys in catalog iteration order (sorted).
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.Strings))
	for k := range c.Strings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entry returns the entry for key, or nil.
func (c *Catalog) Entry(key string) *StringEntry {
	return c.Strings[key]
}

// Languages returns every language that has a localization somewhere in the
// catalog, plus the source language, sorted.
func (c *Catalog) Languages() []string {
	seen := map[string]bool{}
	if c.SourceLanguage != "" {
		seen[c.SourceLanguage] = true
	}
	for _, e := range c.Strings {
		if e == nil {
			continue
		}
		for lang := range e.Localizations {
			seen[lang] = true
		}
	}
	langs := make([]string, 0, len(seen))
	for l := range seen {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Unit returns the unit addressed by ref in lang, or nil.
func (c *Catalog) Unit(ref UnitRef, lang string) *StringUnit {
	e := c.Strings[ref.Key]
	if e == nil {
		return nil
	}
	return e.Localization(lang).Unit(ref.Kind, ref.Selector)
}

// Excluded reports whether the entry explicitly opts out of translation.
func (e *StringEntry) Excluded() bool {
	return e != nil && e.ShouldTranslate != nil && !*e.ShouldTranslate
}

// Localization returns the localization for lang, or nil.
func (e *StringEntry) Localization(lang string) *Localization {
	if e == nil {
		return nil
	}
	return e.Localizations[lang]
}

// Unit returns the unit at (kind, selector), or nil.
func (l *Localization) Unit(kind VariantKind, selector string) *StringUnit {
	if l == nil {
		return nil
	}
	if kind == NoVariant {
		return l.StringUnit
	}
	if l.Variations == nil {
		return nil
	}
	v := l.Variations.byKind(kind)[selector]
	if v == nil {
		return nil
	}
	return v.StringUnit
}

// Located is a unit together with its position inside a localization.
type Located struct {
	Kind     VariantKind
	Selector string
	Unit     *StringUnit
}

// Units enumerates the units of the localization: the default unit first,
// then plural categories in CLDR order, then devices sorted by name.
// Variations without a unit are skipped.
func (l *Localization) Units() []Located {
	if l == nil {
		return nil
	}
	var out []Located
	if l.StringUnit != nil {
		out = append(out, Located{Kind: NoVariant, Unit: l.StringUnit})
	}
	if l.Variations == nil {
		return out
	}
	for _, kind := range []VariantKind{Plural, Device} {
		m := l.Variations.byKind(kind)
		for _, sel := range sortSelectors(kind, m) {
			if v := m[sel]; v != nil && v.StringUnit != nil {
				out = append(out, Located{Kind: kind, Selector: sel, Unit: v.StringUnit})
			}
		}
	}
	return out
}

func (vs *VariationSet) byKind(kind VariantKind) map[string]*Variation {
	switch kind {
	case Plural:
		return vs.Plural
	case Device:
		return vs.Device
	}
	return nil
}

var pluralOrder = map[string]int{
	"zero": 0, "one": 1, "two": 2, "few": 3, "many": 4, "other": 5,
}

func sortSelectors(kind VariantKind, m map[string]*Variation) []string {
	sels := make([]string, 0, len(m))
	for s := range m {
		sels = append(sels, s)
	}
	sort.Slice(sels, func(i, j int) bool {
		if kind == Plural {
			oi, iok := pluralOrder[sels[i]]
			oj, jok := pluralOrder[sels[j]]
			switch {
			case iok && jok:
				return oi < oj
			case iok != jok:
				return iok
			}
		}
		return sels[i] < sels[j]
	})
	return sels
}

// ---------------------------------------------------------------------------
// Structural writes
// ---------------------------------------------------------------------------

// SetUnit writes value and state at ref in lang, creating the entry, the
// localization and the variation containers on first write. Other keys,
// languages and units are left as they are.
func (c *Catalog) SetUnit(ref UnitRef, lang, value, state string) {
	if c.Strings == nil {
		c.Strings = make(map[string]*StringEntry)
	}
	e := c.Strings[ref.Key]
	if e == nil {
		e = &StringEntry{}
		c.Strings[ref.Key] = e
	}
	if e.Localizations == nil {
		e.Localizations = make(map[string]*Localization)
	}
	l := e.Localizations[lang]
	if l == nil {
		l = &Localization{}
		e.Localizations[lang] = l
	}

	if !ref.IsVariant() {
		l.StringUnit = updateUnit(l.StringUnit, value, state)
		return
	}

	if l.Variations == nil {
		l.Variations = &VariationSet{}
	}
	var m map[string]*Variation
	switch ref.Kind {
	case Plural:
		if l.Variations.Plural == nil {
			l.Variations.Plural = make(map[string]*Variation)
		}
		m = l.Variations.Plural
	case Device:
		if l.Variations.Device == nil {
			l.Variations.Device = make(map[string]*Variation)
		}
		m = l.Variations.Device
	default:
		panic(fmt.Sprintf("catalog: unknown variant kind %q", ref.Kind))
	}
	v := m[ref.Selector]
	if v == nil {
		v = &Variation{}
		m[ref.Selector] = v
	}
	v.StringUnit = updateUnit(v.StringUnit, value, state)
}

// updateUnit sets value and state on u, allocating it if needed, so members
// the package does not model stay attached to the unit.
func updateUnit(u *StringUnit, value, state string) *StringUnit {
	if u == nil {
		u = &StringUnit{}
	}
	u.State = state
	u.Value = value
	return u
}
