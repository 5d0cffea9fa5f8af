package resolve

import (
	"errors"
	"reflect"
	"testing"

	"github.com/minios-linux/xcstrans/catalog"
)

func unit(value, state string) *catalog.StringUnit {
	return &catalog.StringUnit{Value: value, State: state}
}

func plural(units map[string]*catalog.StringUnit) *catalog.Localization {
	m := make(map[string]*catalog.Variation, len(units))
	for k, u := range units {
		m[k] = &catalog.Variation{StringUnit: u}
	}
	return &catalog.Localization{Variations: &catalog.VariationSet{Plural: m}}
}

func no() *bool {
	f := false
	return &f
}

func testCatalog() *catalog.Catalog {
	c := catalog.New("en")
	c.Strings["welcome"] = &catalog.StringEntry{
		Comment: "Title on the start screen",
		Localizations: map[string]*catalog.Localization{
			"en": {StringUnit: unit("Welcome", catalog.StateTranslated)},
			"de": {StringUnit: unit("Willkommen", catalog.StateTranslated)},
		},
	}
	c.Strings["files"] = &catalog.StringEntry{
		Localizations: map[string]*catalog.Localization{
			"en": plural(map[string]*catalog.StringUnit{
				"one":   unit("%lld file", catalog.StateTranslated),
				"other": unit("%lld files", catalog.StateTranslated),
			}),
			"de": plural(map[string]*catalog.StringUnit{
				"other": unit("%lld Dateien", catalog.StateTranslated),
			}),
		},
	}
	c.Strings["brand"] = &catalog.StringEntry{
		ShouldTranslate: no(),
		Localizations: map[string]*catalog.Localization{
			"en": {StringUnit: unit("Acme", catalog.StateTranslated)},
		},
	}
	c.Strings["Cancel"] = &catalog.StringEntry{}
	return c
}

func refs(items []WorkItem) []catalog.UnitRef {
	var out []catalog.UnitRef
	for _, it := range items {
		out = append(out, it.Ref)
	}
	return out
}

// ---------------------------------------------------------------------------
// LanguagesToTranslate
// ---------------------------------------------------------------------------

func TestLanguagesToTranslate(t *testing.T) {
	c := testCatalog()

	t.Run("union minus source", func(t *testing.T) {
		got, err := LanguagesToTranslate(c, []string{"fr", "pt_BR", "en"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"de", "fr", "pt-BR"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("intersect with requested", func(t *testing.T) {
		got, err := LanguagesToTranslate(c, []string{"fr"}, []string{"FR", "it"})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, []string{"fr"}) {
			t.Fatalf("got %v, want [fr]", got)
		}
	})

	t.Run("empty intersection is an error", func(t *testing.T) {
		_, err := LanguagesToTranslate(c, nil, []string{"ja"})
		if !errors.Is(err, ErrNoLanguages) {
			t.Fatalf("err = %v, want ErrNoLanguages", err)
		}
	})

	t.Run("source-only catalog is an error", func(t *testing.T) {
		_, err := LanguagesToTranslate(catalog.New("en"), nil, nil)
		if !errors.Is(err, ErrNoLanguages) {
			t.Fatalf("err = %v, want ErrNoLanguages", err)
		}
	})
}

// ---------------------------------------------------------------------------
// NeedsTranslation / ShouldTranslateKey
// ---------------------------------------------------------------------------

func TestNeedsTranslation(t *testing.T) {
	tests := []struct {
		name  string
		entry *catalog.StringEntry
		force bool
		want  bool
	}{
		{
			name:  "no localization",
			entry: &catalog.StringEntry{},
			want:  true,
		},
		{
			name: "current",
			entry: &catalog.StringEntry{Localizations: map[string]*catalog.Localization{
				"fr": {StringUnit: unit("Bonjour", catalog.StateTranslated)},
			}},
			want: false,
		},
		{
			name: "current but forced",
			entry: &catalog.StringEntry{Localizations: map[string]*catalog.Localization{
				"fr": {StringUnit: unit("Bonjour", catalog.StateTranslated)},
			}},
			force: true,
			want:  true,
		},
		{
			name: "state new",
			entry: &catalog.StringEntry{Localizations: map[string]*catalog.Localization{
				"fr": {StringUnit: unit("Bonjour", catalog.StateNew)},
			}},
			want: true,
		},
		{
			name: "empty plural variant",
			entry: &catalog.StringEntry{Localizations: map[string]*catalog.Localization{
				"fr": plural(map[string]*catalog.StringUnit{
					"one":   unit("", catalog.StateTranslated),
					"other": unit("fichiers", catalog.StateTranslated),
				}),
			}},
			want: true,
		},
		{
			name: "localization without units",
			entry: &catalog.StringEntry{Localizations: map[string]*catalog.Localization{
				"fr": {},
			}},
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NeedsTranslation(tc.entry, "fr", tc.force); got != tc.want {
				t.Fatalf("NeedsTranslation() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOptOutWinsOverForce(t *testing.T) {
	c := testCatalog()
	for _, force := range []bool{false, true} {
		plan := WorkItems(c, "fr", Options{Force: force})
		for _, it := range plan.Items {
			if it.Ref.Key == "brand" {
				t.Fatalf("force=%v: excluded key planned: %#v", force, it)
			}
		}
		if !reflect.DeepEqual(plan.Excluded, []string{"brand"}) {
			t.Fatalf("force=%v: Excluded = %v", force, plan.Excluded)
		}
	}
}

// ---------------------------------------------------------------------------
// SourceTexts
// ---------------------------------------------------------------------------

func TestSourceTexts(t *testing.T) {
	c := testCatalog()

	t.Run("default unit", func(t *testing.T) {
		got := SourceTexts("welcome", c.Strings["welcome"], "en")
		want := []SourceText{{Text: "Welcome"}}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %#v, want %#v", got, want)
		}
	})

	t.Run("variants when default is absent", func(t *testing.T) {
		got := SourceTexts("files", c.Strings["files"], "en")
		want := []SourceText{
			{Kind: catalog.Plural, Selector: "one", Text: "%lld file"},
			{Kind: catalog.Plural, Selector: "other", Text: "%lld files"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %#v, want %#v", got, want)
		}
	})

	t.Run("empty default falls through to variants", func(t *testing.T) {
		e := &catalog.StringEntry{Localizations: map[string]*catalog.Localization{
			"en": {
				StringUnit: unit("", catalog.StateNew),
				Variations: &catalog.VariationSet{Device: map[string]*catalog.Variation{
					"mac": {StringUnit: unit("Click", catalog.StateTranslated)},
				}},
			},
		}}
		got := SourceTexts("k", e, "en")
		want := []SourceText{{Kind: catalog.Device, Selector: "mac", Text: "Click"}}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %#v, want %#v", got, want)
		}
	})

	t.Run("key when source is absent", func(t *testing.T) {
		got := SourceTexts("Cancel", c.Strings["Cancel"], "en")
		if !reflect.DeepEqual(got, []SourceText{{Text: "Cancel"}}) {
			t.Fatalf("got %#v", got)
		}
	})
}

// ---------------------------------------------------------------------------
// WorkItems
// ---------------------------------------------------------------------------

func TestVariantCompleteness(t *testing.T) {
	plan := WorkItems(testCatalog(), "de", Options{Keys: []string{"files"}})
	want := []catalog.UnitRef{{Key: "files", Kind: catalog.Plural, Selector: "one"}}
	if got := refs(plan.Items); !reflect.DeepEqual(got, want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	if plan.Items[0].SourceText != "%lld file" {
		t.Fatalf("source text = %q", plan.Items[0].SourceText)
	}
}

func TestWorkItemsForMissingLanguage(t *testing.T) {
	plan := WorkItems(testCatalog(), "fr", Options{})
	want := []catalog.UnitRef{
		{Key: "Cancel"},
		{Key: "files", Kind: catalog.Plural, Selector: "one"},
		{Key: "files", Kind: catalog.Plural, Selector: "other"},
		{Key: "welcome"},
	}
	if got := refs(plan.Items); !reflect.DeepEqual(got, want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	if plan.Considered != 4 {
		t.Fatalf("Considered = %d, want 4", plan.Considered)
	}
	if plan.Items[3].Context != "Title on the start screen" || plan.Items[3].Lang != "fr" {
		t.Fatalf("welcome item = %#v", plan.Items[3])
	}
}

func TestWorkItemsCurrentAndForce(t *testing.T) {
	c := testCatalog()

	plan := WorkItems(c, "de", Options{Keys: []string{"welcome"}})
	if len(plan.Items) != 0 || !reflect.DeepEqual(plan.Current, []string{"welcome"}) {
		t.Fatalf("plan = %#v, want welcome current", plan)
	}

	plan = WorkItems(c, "de", Options{Keys: []string{"welcome"}, Force: true})
	if got := refs(plan.Items); !reflect.DeepEqual(got, []catalog.UnitRef{{Key: "welcome"}}) {
		t.Fatalf("forced items = %v", got)
	}
}

func TestTargetOnlyPluralCategories(t *testing.T) {
	c := testCatalog()
	c.Strings["files"].Localizations["ru"] = plural(map[string]*catalog.StringUnit{
		"one":   unit("%lld файл", catalog.StateTranslated),
		"few":   unit("", catalog.StateNew),
		"many":  unit("%lld файлов", catalog.StateTranslated),
		"other": unit("%lld файла", catalog.StateTranslated),
	})

	plan := WorkItems(c, "ru", Options{Keys: []string{"files"}})
	want := []catalog.UnitRef{{Key: "files", Kind: catalog.Plural, Selector: "few"}}
	if got := refs(plan.Items); !reflect.DeepEqual(got, want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	if plan.Items[0].SourceText != "%lld files" {
		t.Fatalf("fallback source = %q, want the source other form", plan.Items[0].SourceText)
	}
}
