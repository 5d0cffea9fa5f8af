package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadProjectFileMissing(t *testing.T) {
	pf, err := LoadProjectFile(t.TempDir())
	if err != nil || pf != nil {
		t.Fatalf("LoadProjectFile() = %v, %v, want nil, nil", pf, err)
	}
}

func TestLoadProjectFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"valid", "source_lang: en\nlanguages: [de, fr]\nbatch_size: 10\n", ""},
		{"bad yaml", "languages: [de\n", "parsing"},
		{"negative batch", "batch_size: -1\n", "batch_size"},
		{"empty language", "languages: [de, '']\n", "language #2 is empty"},
		{"duplicate language", "languages: [pt_BR, pt-BR]\n", "listed twice"},
		{"source as target", "source_lang: en\nlanguages: [en, de]\n", "also listed as a target"},
		{"bad glob", "catalogs: ['[']\n", "catalog pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, FileName), tt.content)
			_, err := LoadProjectFile(dir)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDiscoverSkipsBuildDirs(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{
		"App/Localizable.xcstrings",
		"App/Settings/InfoPlist.xcstrings",
		"Widget/Localizable.xcstrings",
		"build/App/Localizable.xcstrings",
		"DerivedData/x/Localizable.xcstrings",
		"Pods/Lib/Localizable.xcstrings",
		".git/Localizable.xcstrings",
		"App/Localizable.strings",
	} {
		writeFile(t, filepath.Join(dir, p), "{}")
	}

	got, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "App/Localizable.xcstrings"),
		filepath.Join(dir, "App/Settings/InfoPlist.xcstrings"),
		filepath.Join(dir, "Widget/Localizable.xcstrings"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Discover() = %v, want %v", got, want)
	}
}

func TestCatalogPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "App/Localizable.xcstrings"), "{}")
	writeFile(t, filepath.Join(dir, "Widget/Localizable.xcstrings"), "{}")
	writeFile(t, filepath.Join(dir, "Extra/Strings.xcstrings"), "{}")
	writeFile(t, filepath.Join(dir, FileName), "catalogs:\n  - App/Localizable.xcstrings\n  - '*/Localizable.xcstrings'\n  - Extra\n")

	pf, err := LoadProjectFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := pf.CatalogPaths(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "App/Localizable.xcstrings"),
		filepath.Join(dir, "Extra/Strings.xcstrings"),
		filepath.Join(dir, "Widget/Localizable.xcstrings"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CatalogPaths() = %v, want %v", got, want)
	}

	writeFile(t, filepath.Join(dir, FileName), "catalogs: [Missing.xcstrings]\n")
	pf, _ = LoadProjectFile(dir)
	if _, err := pf.CatalogPaths(dir); err == nil {
		t.Fatal("missing declared catalog should fail")
	}
}

func TestCatalogPathsWithoutProjectFileDiscovers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "A/Localizable.xcstrings"), "{}")
	var pf *ProjectFile
	got, err := pf.CatalogPaths(dir)
	if err != nil || len(got) != 1 {
		t.Fatalf("CatalogPaths() = %v, %v", got, err)
	}
}

func TestLoadSettingsLayering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "provider: groq\nmodel: from-project\nbatch_size: 20\napp_description: Notes app\nlanguages: [de]\n")
	writeFile(t, filepath.Join(dir, DotEnvFile), "XCSTRANS_MODEL=from-dotenv\nXCSTRANS_PROXY=http://dotenv:3128\nOTHER=ignored\n")
	t.Setenv("XCSTRANS_PROXY", "http://env:3128")
	t.Setenv("XCSTRANS_API_KEY", "env-key")

	pf, err := LoadProjectFile(dir)
	if err != nil {
		t.Fatal(err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("model", "", "")
	flags.Int("batch-size", 0, "")
	flags.Duration("timeout", 0, "")
	flags.String("api-key", "", "")
	if err := flags.Parse([]string{"--batch-size", "5", "--timeout", "30s"}); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(dir, pf, flags)
	if err != nil {
		t.Fatal(err)
	}

	checks := []struct {
		name      string
		got, want any
	}{
		{"provider (project)", s.Provider, "groq"},
		{"model (.env over project)", s.Model, "from-dotenv"},
		{"proxy (env over .env)", s.Proxy, "http://env:3128"},
		{"api key (env, flag unset)", s.APIKey, "env-key"},
		{"batch size (flag over project)", s.BatchSize, 5},
		{"timeout (flag)", s.Timeout, 30 * time.Second},
		{"app description (project)", s.AppDescription, "Notes app"},
		{"languages (project)", s.Languages, []string{"de"}},
	}
	for _, c := range checks {
		if !reflect.DeepEqual(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Provider != "openai" || s.BatchSize != 15 || s.MaxRetries != 0 || s.RPM != 0 {
		t.Fatalf("defaults = %+v", *s)
	}
}

func TestLoadSettingsRejectsBadBatchSize(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("batch-size", 0, "")
	_ = flags.Parse([]string{"--batch-size", "0"})
	if _, err := LoadSettings(t.TempDir(), nil, flags); err == nil {
		t.Fatal("batch size 0 should be rejected")
	}
}
