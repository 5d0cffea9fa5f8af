package langmeta

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "pt_br", want: "pt-BR"},
		{in: " EN-us ", want: "en-US"},
		{in: "zh-hans", want: "zh-Hans"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
		{in: "not a code", want: "not a code"},
	}

	for _, tc := range cases {
		got := Canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("known language", func(t *testing.T) {
		got := Resolve("fr")
		if got.English != "French" || got.Name != "français" {
			t.Fatalf("unexpected result: %#v", got)
		}
		if got.Label() != "French (français)" {
			t.Fatalf("Label() = %q", got.Label())
		}
	})

	t.Run("normalized match", func(t *testing.T) {
		got := Resolve("pt_br")
		if got.Code != "pt-BR" || got.English == "pt-BR" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("!!")
		if got.Name != "!!" || got.English != "!!" {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestSame(t *testing.T) {
	if !Same("pt_BR", "pt-br") {
		t.Fatal("Same(pt_BR, pt-br) = false")
	}
	if Same("pt", "pt-BR") {
		t.Fatal("Same(pt, pt-BR) = true")
	}
}
