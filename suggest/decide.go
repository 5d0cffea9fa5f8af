package suggest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/minios-linux/xcstrans/i18n"
)

// Decision is the answer to one presented suggestion. The zero value
// rejects.
type Decision int

const (
	Reject Decision = iota
	Accept
	Quit
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Quit:
		return "quit"
	}
	return "reject"
}

// DecisionSource decides on suggestions. pos is 1-based out of total.
type DecisionSource interface {
	Decide(ctx context.Context, s Suggestion, pos, total int) (Decision, error)
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

var (
	keyStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	newStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Describe renders a suggestion for display.
func Describe(s Suggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  [%s]\n", keyStyle.Render(s.Ref.String()), s.Lang)
	if s.Original != "" {
		fmt.Fprintf(&b, "  %s %s\n", dimStyle.Render(i18n.T("Source:")), s.Original)
	}
	fmt.Fprintf(&b, "  %s %s\n", dimStyle.Render(i18n.T("Current:")), currentStyle.Render(s.Current))
	fmt.Fprintf(&b, "  %s %s\n", dimStyle.Render(i18n.T("Suggested:")), newStyle.Render(s.Suggested))
	fmt.Fprintf(&b, "  %s %d/5\n", dimStyle.Render(i18n.T("Confidence:")), s.Confidence)
	if s.Reasoning != "" {
		fmt.Fprintf(&b, "  %s %s\n", dimStyle.Render(i18n.T("Reason:")), s.Reasoning)
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Interactive prompt
// ---------------------------------------------------------------------------

// Prompt asks on the terminal with a huh select. Aborting the form
// (Ctrl+C, Esc) quits.
type Prompt struct{}

func (Prompt) Decide(ctx context.Context, s Suggestion, pos, total int) (Decision, error) {
	d := Reject
	sel := huh.NewSelect[Decision]().
		Title(fmt.Sprintf(i18n.T("Suggestion %d of %d"), pos, total)).
		Description(Describe(s)).
		Options(
			huh.NewOption(i18n.T("Accept"), Accept),
			huh.NewOption(i18n.T("Reject"), Reject),
			huh.NewOption(i18n.T("Quit"), Quit),
		).
		Value(&d)

	form := huh.NewForm(huh.NewGroup(sel)).WithAccessible(false)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return Quit, nil
		}
		return Reject, fmt.Errorf("prompt: %w", err)
	}
	return d, nil
}

// ---------------------------------------------------------------------------
// Line-based input
// ---------------------------------------------------------------------------

// LineReader reads one answer per line: a/accept, r/reject, q/quit.
// Anything else, and end of input, rejects.
type LineReader struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLineReader reads answers from in and writes the suggestion and the
// question to out.
func NewLineReader(in io.Reader, out io.Writer) *LineReader {
	return &LineReader{in: bufio.NewReader(in), out: out}
}

func (r *LineReader) Decide(ctx context.Context, s Suggestion, pos, total int) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Reject, err
	}
	fmt.Fprintf(r.out, "\n(%d/%d) %s", pos, total, Describe(s))
	fmt.Fprint(r.out, i18n.T("[a]ccept, [r]eject, [q]uit? "))

	line, err := r.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Reject, err
	}
	return ParseAnswer(line), nil
}

// ParseAnswer maps a typed answer to a decision.
func ParseAnswer(s string) Decision {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "accept", "y", "yes":
		return Accept
	case "q", "quit":
		return Quit
	}
	return Reject
}

// ---------------------------------------------------------------------------
// Non-interactive sources
// ---------------------------------------------------------------------------

// Scripted replays a fixed list of decisions; once exhausted it rejects.
type Scripted struct {
	Decisions []Decision
	next      int
}

func (sc *Scripted) Decide(_ context.Context, _ Suggestion, _, _ int) (Decision, error) {
	if sc.next >= len(sc.Decisions) {
		return Reject, nil
	}
	d := sc.Decisions[sc.next]
	sc.next++
	return d, nil
}

// AutoAccept accepts suggestions at or above MinConfidence and rejects the
// rest.
type AutoAccept struct {
	MinConfidence int
}

func (a AutoAccept) Decide(_ context.Context, s Suggestion, _, _ int) (Decision, error) {
	if s.Confidence >= a.MinConfidence {
		return Accept, nil
	}
	return Reject, nil
}

// NewDecisionSource picks a source for the CLI: auto-accept when yes is
// set, the huh prompt on an interactive terminal, line input otherwise.
func NewDecisionSource(yes bool, minConfidence int, in *os.File, out io.Writer) DecisionSource {
	if yes {
		return AutoAccept{MinConfidence: minConfidence}
	}
	if isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()) {
		return Prompt{}
	}
	return NewLineReader(in, out)
}
