package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read as settings,
// e.g. XCSTRANS_MODEL.
const EnvPrefix = "XCSTRANS"

// DotEnvFile is the optional per-project environment file.
const DotEnvFile = ".env"

// Settings are the effective run settings. Sources are layered, lowest
// first: defaults, project file, .env, XCSTRANS_* environment, flags.
type Settings struct {
	Provider       string        `mapstructure:"provider"`
	Model          string        `mapstructure:"model"`
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Proxy          string        `mapstructure:"proxy"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RPM            int           `mapstructure:"rpm"`
	BatchSize      int           `mapstructure:"batch_size"`
	AppDescription string        `mapstructure:"app_description"`
	Prompt         string        `mapstructure:"prompt"`
	SourceLang     string        `mapstructure:"source_lang"`
	Languages      []string      `mapstructure:"languages"`
}

// flagKeys maps setting keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"provider":        "provider",
	"model":           "model",
	"api_key":         "api-key",
	"base_url":        "base-url",
	"proxy":           "proxy",
	"timeout":         "timeout",
	"max_retries":     "max-retries",
	"rpm":             "rpm",
	"batch_size":      "batch-size",
	"app_description": "context",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("provider", "openai")
	v.SetDefault("model", "")
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("proxy", "")
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("max_retries", 0)
	v.SetDefault("rpm", 0)
	v.SetDefault("batch_size", 15)
	v.SetDefault("app_description", "")
	v.SetDefault("prompt", "")
	v.SetDefault("source_lang", "")
	v.SetDefault("languages", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSettings layers the settings for a run rooted at rootDir. pf may be
// nil; flags may be nil or contain only some of the known flags.
func LoadSettings(rootDir string, pf *ProjectFile, flags *pflag.FlagSet) (*Settings, error) {
	v := newViper()

	if pf != nil {
		if err := v.MergeConfigMap(pf.settingsMap()); err != nil {
			return nil, fmt.Errorf("merging %s: %w", pf.path, err)
		}
	}

	env, err := readDotEnv(filepath.Join(rootDir, DotEnvFile))
	if err != nil {
		return nil, err
	}
	if len(env) > 0 {
		if err := v.MergeConfigMap(env); err != nil {
			return nil, fmt.Errorf("merging %s: %w", DotEnvFile, err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if s.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive (got %d)", s.BatchSize)
	}
	if s.MaxRetries < 0 || s.RPM < 0 {
		return nil, errors.New("max-retries and rpm must not be negative")
	}
	return &s, nil
}

func (pf *ProjectFile) settingsMap() map[string]any {
	m := make(map[string]any)
	set := func(key, val string) {
		if val != "" {
			m[key] = val
		}
	}
	set("provider", pf.Provider)
	set("model", pf.Model)
	set("app_description", pf.AppDescription)
	set("prompt", pf.Prompt)
	set("source_lang", pf.SourceLang)
	if pf.BatchSize > 0 {
		m["batch_size"] = pf.BatchSize
	}
	if len(pf.Languages) > 0 {
		m["languages"] = pf.Languages
	}
	return m
}

// readDotEnv returns the XCSTRANS_* entries of a dotenv file as setting
// keys. A missing file yields nothing.
func readDotEnv(path string) (map[string]any, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")
	if err := ev.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	prefix := strings.ToLower(EnvPrefix) + "_"
	out := make(map[string]any)
	for _, k := range ev.AllKeys() {
		if key, ok := strings.CutPrefix(k, prefix); ok && key != "" {
			out[key] = ev.GetString(k)
		}
	}
	return out, nil
}
