package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDataDirAndFilePathUseXDGDataHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir() error: %v", err)
	}
	if want := filepath.Join(tmp, "xcstrans"); dir != want {
		t.Fatalf("DataDir() = %q, want %q", dir, want)
	}
	if want := filepath.Join(tmp, "xcstrans", "auth.json"); FilePath() != want {
		t.Fatalf("FilePath() = %q, want %q", FilePath(), want)
	}
}

func TestSaveLoadRemoveLifecycle(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	store := Store{
		"openai":        {Key: "sk-123456789"},
		"custom-openai": {Key: "local", BaseURL: "http://localhost:8080/v1"},
	}
	if err := Save(store); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	path := filepath.Join(tmp, "xcstrans", "auth.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat auth.json: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("auth.json mode = %o, want 600", info.Mode().Perm())
	}

	loaded := Load()
	if got := loaded.Providers(); !reflect.DeepEqual(got, []string{"custom-openai", "openai"}) {
		t.Fatalf("Providers() = %v", got)
	}
	if Get("custom-openai").BaseURL != "http://localhost:8080/v1" {
		t.Fatalf("Get(custom-openai) = %#v", Get("custom-openai"))
	}

	if err := Remove("openai"); err != nil {
		t.Fatalf("Remove(openai) error: %v", err)
	}
	if Get("openai") != nil {
		t.Fatal("openai should be gone")
	}
	if Get("custom-openai") == nil {
		t.Fatal("custom-openai should remain")
	}
	if err := Remove("missing-provider"); err != nil {
		t.Fatalf("Remove(missing) should be no-op, got: %v", err)
	}

	if err := RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("auth.json should be removed, stat err=%v", err)
	}
	if got := Load(); len(got) != 0 {
		t.Fatalf("Load() after RemoveAll should be empty, got=%#v", got)
	}
}

func TestLoadIgnoresCorruptFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)
	path := filepath.Join(tmp, "xcstrans", "auth.json")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := Load(); got == nil || len(got) != 0 {
		t.Fatalf("Load() = %#v, want empty store", got)
	}
}

func TestAPIKeyPriority(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	if err := Set("anthropic", &Credential{Key: "stored-key"}); err != nil {
		t.Fatal(err)
	}

	if got := APIKey("anthropic", "flag-or-env"); got != "flag-or-env" {
		t.Fatalf("explicit key should win, got %q", got)
	}
	if got := APIKey("anthropic", ""); got != "stored-key" {
		t.Fatalf("stored key expected, got %q", got)
	}
	if got := APIKey("groq", ""); got != "" {
		t.Fatalf("unknown provider = %q, want empty", got)
	}
	if got := BaseURL("anthropic", "https://x"); got != "https://x" {
		t.Fatalf("BaseURL explicit = %q", got)
	}
}

func TestMaskKey(t *testing.T) {
	cases := map[string]string{
		"short":     "****",
		"12345678":  "****",
		"123456789": "1234...6789",
	}
	for in, want := range cases {
		if got := MaskKey(in); got != want {
			t.Errorf("MaskKey(%q) = %q, want %q", in, got, want)
		}
	}
}
