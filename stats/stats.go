// Package stats aggregates the counters of a translation or suggestion run
// and renders the end-of-run report.
package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/minios-linux/xcstrans/i18n"
)

// Stats holds the counters of one run. Translation counters and suggestion
// counters live side by side; a run fills whichever applies.
type Stats struct {
	// Total is the number of (key, language) pairs considered.
	Total int
	// Translated counts units written (or, in dry-run, that would be).
	Translated int
	// SkippedExcluded counts keys skipped by shouldTranslate=false.
	SkippedExcluded int
	// SkippedCurrent counts keys whose translation was already current.
	SkippedCurrent int
	// Errors counts failed units: batch failures and missing translations.
	Errors int

	// CacheHits counts units served from the run cache.
	CacheHits int

	Suggested  int
	Accepted   int
	Rejected   int
	Unreviewed int
}

// Merge adds o's counters to s.
func (s *Stats) Merge(o Stats) {
	s.Total += o.Total
	s.Translated += o.Translated
	s.SkippedExcluded += o.SkippedExcluded
	s.SkippedCurrent += o.SkippedCurrent
	s.Errors += o.Errors
	s.CacheHits += o.CacheHits
	s.Suggested += o.Suggested
	s.Accepted += o.Accepted
	s.Rejected += o.Rejected
	s.Unreviewed += o.Unreviewed
}

// HasErrors reports whether any error was recorded.
func (s *Stats) HasErrors() bool {
	return s.Errors > 0
}

// Line is one row of the report.
type Line struct {
	Label string
	Value int
	// Alert marks rows that should stand out when non-zero.
	Alert bool
}

// Lines returns the translation report rows.
func (s *Stats) Lines() []Line {
	return []Line{
		{Label: i18n.T("Total keys"), Value: s.Total},
		{Label: i18n.T("Translated"), Value: s.Translated},
		{Label: i18n.T("Skipped (shouldTranslate=false)"), Value: s.SkippedExcluded},
		{Label: i18n.T("Skipped (already current)"), Value: s.SkippedCurrent},
		{Label: i18n.T("Errors"), Value: s.Errors, Alert: true},
	}
}

// SuggestionLines returns the suggestion report rows.
func (s *Stats) SuggestionLines() []Line {
	return []Line{
		{Label: i18n.T("Suggestions"), Value: s.Suggested},
		{Label: i18n.T("Accepted"), Value: s.Accepted},
		{Label: i18n.T("Rejected"), Value: s.Rejected},
		{Label: i18n.T("Not reviewed"), Value: s.Unreviewed},
		{Label: i18n.T("Errors"), Value: s.Errors, Alert: true},
	}
}

// Summary renders rows as a single plain line, e.g. for logs.
func Summary(lines []Line) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s: %d", l.Label, l.Value))
	}
	return strings.Join(parts, ", ")
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	alertStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Render writes a boxed report with a title. Colors follow the terminal
// profile lipgloss detects for w's default renderer.
func Render(w io.Writer, title string, lines []Line) {
	width := 0
	for _, l := range lines {
		if n := lipgloss.Width(l.Label); n > width {
			width = n
		}
	}

	rows := []string{titleStyle.Render(title), ""}
	for _, l := range lines {
		label := labelStyle.Render(l.Label + strings.Repeat(" ", width-lipgloss.Width(l.Label)))
		value := valueStyle.Render(fmt.Sprintf("%6d", l.Value))
		if l.Alert && l.Value > 0 {
			value = alertStyle.Render(fmt.Sprintf("%6d", l.Value))
		}
		rows = append(rows, label+"  "+value)
	}
	fmt.Fprintln(w, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
}
