// Package langmeta provides language code canonicalization and display
// names used by the resolver, provider prompts and CLI output.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Code is the canonical BCP 47 code (pt-BR, zh-Hans).
	Code string
	// Name is the language's own name for itself (Français).
	Name string
	// English is the English name (French).
	English string
}

// Canonicalize normalizes a language code: underscores become dashes and
// subtags get their conventional case (pt_br → pt-BR, zh-hans → zh-Hans).
// Codes that do not parse are returned trimmed but otherwise unchanged.
func Canonicalize(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return lang
	}
	return tag.String()
}

// Same reports whether two codes name the same language after
// canonicalization.
func Same(a, b string) bool {
	return Canonicalize(a) == Canonicalize(b)
}

// Resolve returns best-effort metadata for a language code. Unknown codes
// come back with the code itself as both names.
func Resolve(lang string) Meta {
	code := Canonicalize(lang)
	m := Meta{Code: code, Name: code, English: code}

	tag, err := language.Parse(code)
	if err != nil {
		return m
	}
	if name := display.Self.Name(tag); name != "" {
		m.Name = name
	}
	if name := display.English.Tags().Name(tag); name != "" {
		m.English = name
	}
	return m
}

// Label renders "French (français)" style labels for prompts and reports.
func (m Meta) Label() string {
	if m.Name == m.English || m.Name == "" {
		return m.English
	}
	return m.English + " (" + m.Name + ")"
}
