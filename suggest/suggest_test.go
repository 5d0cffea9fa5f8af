package suggest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/minios-linux/xcstrans/catalog"
	"github.com/minios-linux/xcstrans/stats"
)

// fakeAnalyzer proposes "better:<translation>" for every candidate whose
// translation is listed in weak. Calls listed in failOn (1-based) fail.
type fakeAnalyzer struct {
	weak   map[string]int
	failOn map[int]bool
	calls  int
	seen   []Candidate
}

func (f *fakeAnalyzer) AnalyzeBatch(_ context.Context, lang string, cands []Candidate) ([]Suggestion, error) {
	f.calls++
	f.seen = append(f.seen, cands...)
	if f.failOn[f.calls] {
		return nil, errors.New("boom")
	}
	var out []Suggestion
	for _, c := range cands {
		conf, ok := f.weak[c.Translation]
		if !ok {
			continue
		}
		out = append(out, Suggestion{
			Ref:        c.Ref,
			Original:   c.Original,
			Current:    c.Translation,
			Suggested:  "better:" + c.Translation,
			Confidence: conf,
			Reasoning:  "more natural",
		})
	}
	return out, nil
}

func reviewCatalog() *catalog.Catalog {
	c := catalog.New("en")
	set := func(key, lang, value string) {
		c.SetUnit(catalog.UnitRef{Key: key}, lang, value, catalog.StateTranslated)
	}
	set("cancel", "en", "Cancel")
	set("cancel", "fr", "Annuler")
	set("save", "en", "Save")
	set("save", "fr", "Sauver")
	set("brand", "en", "Acme")
	set("brand", "fr", "Acme")
	no := false
	c.Strings["brand"].ShouldTranslate = &no

	one := catalog.UnitRef{Key: "files", Kind: catalog.Plural, Selector: "one"}
	other := catalog.UnitRef{Key: "files", Kind: catalog.Plural, Selector: "other"}
	c.SetUnit(one, "en", "%lld file", catalog.StateTranslated)
	c.SetUnit(other, "en", "%lld files", catalog.StateTranslated)
	c.SetUnit(one, "fr", "%lld fichier", catalog.StateTranslated)
	c.SetUnit(other, "fr", "%lld fichiers", catalog.StateTranslated)
	return c
}

func TestCandidates(t *testing.T) {
	got := Candidates(reviewCatalog(), "fr", nil)

	want := []struct {
		ref      string
		original string
	}{
		{"cancel", "Cancel"},
		{"files [plural:one]", "%lld file"},
		{"files [plural:other]", "%lld files"},
		{"save", "Save"},
	}
	if len(got) != len(want) {
		t.Fatalf("Candidates() returned %d, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Ref.String() != w.ref || got[i].Original != w.original {
			t.Errorf("[%d] = %s %q, want %s %q", i, got[i].Ref, got[i].Original, w.ref, w.original)
		}
	}
}

func TestRejectLeavesCatalogUnchanged(t *testing.T) {
	cat := reviewCatalog()
	before, _ := catalog.Marshal(cat)

	an := &fakeAnalyzer{weak: map[string]int{"Sauver": 5}}
	w := New(an, &Scripted{Decisions: []Decision{Reject}}, Options{})
	res, err := w.Run(context.Background(), cat, []string{"fr"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	after, _ := catalog.Marshal(cat)
	if !bytes.Equal(before, after) {
		t.Fatal("catalog changed after reject")
	}
	if res.Changed() {
		t.Fatal("Changed() = true after reject")
	}
	if len(res.Suggestions) != 1 || res.Rejected != 1 || res.Final != Done {
		t.Fatalf("result = %+v", res)
	}
}

func TestAcceptAppliesSuggestion(t *testing.T) {
	cat := reviewCatalog()
	an := &fakeAnalyzer{weak: map[string]int{"Sauver": 5, "%lld fichier": 4}}
	w := New(an, &Scripted{Decisions: []Decision{Accept, Reject}}, Options{})
	res, err := w.Run(context.Background(), cat, []string{"fr"})
	if err != nil {
		t.Fatal(err)
	}

	if !res.Changed() || res.Accepted != 1 || res.Rejected != 1 {
		t.Fatalf("result = %+v", res)
	}
	// Collection order: files/one comes before save.
	one := cat.Unit(catalog.UnitRef{Key: "files", Kind: catalog.Plural, Selector: "one"}, "fr")
	if one.Value != "better:%lld fichier" || one.State != catalog.StateTranslated {
		t.Fatalf("files/one = %+v", one)
	}
	if save := cat.Unit(catalog.UnitRef{Key: "save"}, "fr"); save.Value != "Sauver" {
		t.Fatalf("save = %q, want unchanged", save.Value)
	}
}

func TestQuitLeavesRestUnreviewed(t *testing.T) {
	cat := reviewCatalog()
	an := &fakeAnalyzer{weak: map[string]int{"Annuler": 4, "Sauver": 5, "%lld fichiers": 4}}
	st := &stats.Stats{}

	var states []State
	w := New(an, &Scripted{Decisions: []Decision{Accept, Quit}}, Options{
		Stats:        st,
		OnTransition: func(_, to State) { states = append(states, to) },
	})
	res, err := w.Run(context.Background(), cat, []string{"fr"})
	if err != nil {
		t.Fatal(err)
	}

	if res.Accepted != 1 || res.Rejected != 0 || res.Unreviewed != 2 || res.Final != Stopped {
		t.Fatalf("result = %+v", res)
	}
	if st.Suggested != 3 || st.Accepted != 1 || st.Unreviewed != 2 {
		t.Fatalf("stats = %+v", *st)
	}

	want := []State{Collecting, Analyzing, Presenting, Accepted, Presenting, Stopped}
	if len(states) != len(want) {
		t.Fatalf("transitions = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", states, want)
		}
	}
}

func TestNoSuggestionsGoesStraightToDone(t *testing.T) {
	var states []State
	w := New(&fakeAnalyzer{}, &Scripted{}, Options{
		OnTransition: func(_, to State) { states = append(states, to) },
	})
	res, err := w.Run(context.Background(), reviewCatalog(), []string{"fr"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Final != Done || len(states) != 3 {
		t.Fatalf("final=%v transitions=%v", res.Final, states)
	}
}

func TestAnalyzeFailureIsBatchScoped(t *testing.T) {
	an := &fakeAnalyzer{weak: map[string]int{"Sauver": 5}, failOn: map[int]bool{1: true}}
	w := New(an, AutoAccept{MinConfidence: 1}, Options{BatchSize: 2})
	res, err := w.Run(context.Background(), reviewCatalog(), []string{"fr"})
	if err != nil {
		t.Fatal(err)
	}
	// Batch 1 (cancel, files/one) fails; batch 2 (files/other, save) still runs.
	if an.calls != 2 || res.Errors != 1 || res.Accepted != 1 {
		t.Fatalf("calls=%d result=%+v", an.calls, res)
	}
}

func TestExcludedEntriesNotAnalyzed(t *testing.T) {
	an := &fakeAnalyzer{}
	if _, err := New(an, &Scripted{}, Options{}).Run(context.Background(), reviewCatalog(), []string{"fr"}); err != nil {
		t.Fatal(err)
	}
	for _, c := range an.seen {
		if c.Ref.Key == "brand" {
			t.Fatal("excluded key sent for analysis")
		}
	}
}

func TestAutoAccept(t *testing.T) {
	a := AutoAccept{MinConfidence: 4}
	for conf, want := range map[int]Decision{3: Reject, 4: Accept, 5: Accept} {
		if got, _ := a.Decide(context.Background(), Suggestion{Confidence: conf}, 1, 1); got != want {
			t.Errorf("confidence %d: %v, want %v", conf, got, want)
		}
	}
}

func TestLineReader(t *testing.T) {
	in := strings.NewReader("a\nmaybe\nq\n")
	var out bytes.Buffer
	r := NewLineReader(in, &out)

	want := []Decision{Accept, Reject, Quit, Reject}
	for i, w := range want {
		got, err := r.Decide(context.Background(), Suggestion{Current: "x", Suggested: "y"}, i+1, len(want))
		if err != nil {
			t.Fatal(err)
		}
		if got != w {
			t.Errorf("answer %d = %v, want %v", i+1, got, w)
		}
	}
	if !strings.Contains(out.String(), "(1/4)") {
		t.Errorf("prompt output missing position:\n%s", out.String())
	}
}

func TestParseAnswer(t *testing.T) {
	tests := map[string]Decision{
		"a":        Accept,
		" Accept ": Accept,
		"y":        Accept,
		"r":        Reject,
		"":         Reject,
		"Q":        Quit,
		"quit\n":   Quit,
		"whatever": Reject,
	}
	for in, want := range tests {
		if got := ParseAnswer(in); got != want {
			t.Errorf("ParseAnswer(%q) = %v, want %v", in, got, want)
		}
	}
}
