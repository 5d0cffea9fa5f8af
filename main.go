// xcstrans translates Xcode string catalogs (.xcstrings) with AI providers.
//
// Commands:
//
//	translate   Translate owed units of every catalog
//	suggest     Review existing translations and offer improvements
//	text        Translate a single string
//	status      Show per-language progress
//	auth        Manage stored provider credentials
//	version     Print version information
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/minios-linux/xcstrans/cache"
	"github.com/minios-linux/xcstrans/catalog"
	"github.com/minios-linux/xcstrans/config"
	"github.com/minios-linux/xcstrans/i18n"
	"github.com/minios-linux/xcstrans/langmeta"
	"github.com/minios-linux/xcstrans/provider"
	"github.com/minios-linux/xcstrans/resolve"
	"github.com/minios-linux/xcstrans/settings"
	"github.com/minios-linux/xcstrans/stats"
	"github.com/minios-linux/xcstrans/suggest"
	"github.com/minios-linux/xcstrans/translate"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

var logger = newLogger(false)

var okStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))

// newLogger returns the stderr logger. verbose enables debug output and
// timestamps.
func newLogger(verbose bool) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: verbose,
		TimeFormat:      time.TimeOnly,
	})
	styles := log.DefaultStyles()
	styles.Levels[log.DebugLevel] = lipgloss.NewStyle().
		SetString("[DEBUG]").Foreground(lipgloss.Color("245"))
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("[INFO]").Bold(true).Foreground(lipgloss.Color("39"))
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("[WARN]").Bold(true).Foreground(lipgloss.Color("214"))
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("[ERROR]").Bold(true).Foreground(lipgloss.Color("196"))
	styles.Keys["lang"] = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	l.SetStyles(styles)
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

func logInfo(format string, args ...any) {
	logger.Info(fmt.Sprintf(format, args...))
}

func logSuccess(format string, args ...any) {
	logger.Print(okStyle.Render("[OK]") + " " + fmt.Sprintf(format, args...))
}

func logWarning(format string, args ...any) {
	logger.Warn(fmt.Sprintf(format, args...))
}

func logError(format string, args ...any) {
	logger.Error(fmt.Sprintf(format, args...))
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

// errReported marks a failure that has already been logged; main only sets
// the exit status.
var errReported = errors.New("errors reported")

func main() {
	i18n.Init("")

	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			logError("%v", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootDir string

	root := &cobra.Command{
		Use:   "xcstrans",
		Short: "Translate Xcode string catalogs with AI providers",
		Long: `xcstrans translates the owed units of Xcode string catalogs (.xcstrings)
in batches, merges the results back into the catalog and reports what was
done. It can also review existing translations and offer improvements.

Settings are read from .xcstrans.yaml, .env, XCSTRANS_* environment
variables and flags, in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newTranslateCmd(&rootDir),
		newSuggestCmd(&rootDir),
		newTextCmd(&rootDir),
		newStatusCmd(&rootDir),
		newAuthCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("xcstrans %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// ---------------------------------------------------------------------------
// Shared run options
// ---------------------------------------------------------------------------

// runFlags are the flags shared by translate, suggest and text.
type runFlags struct {
	output        string
	keys          []string
	langs         []string
	force         bool
	dryRun        bool
	suggest       bool
	verbose       bool
	yes           bool
	minConfidence int
}

// addProviderFlags declares the provider flags. Their values are read back
// through config.LoadSettings, so defaults here only document the layer
// below.
func addProviderFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("provider", "openai", "AI provider (openai, anthropic, google, groq, ollama, custom-openai or an endpoint URL)")
	f.String("model", "", "Model name")
	f.String("api-key", "", "API key (overrides XCSTRANS_API_KEY and stored credentials)")
	f.String("base-url", "", "Custom API endpoint")
	f.Int("batch-size", translate.DefaultBatchSize, "Units per provider request")
	f.String("context", "", "App description passed to the provider")
	f.Duration("timeout", 0, "Request timeout (0 = provider default)")
	f.String("proxy", "", "HTTP/HTTPS proxy URL")
	f.Int("max-retries", 0, "Retries on rate limits and server errors (0 = none)")
	f.Int("rpm", 0, "Maximum requests per minute (0 = unlimited)")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return provider.IDs(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("model", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		p, _ := cmd.Flags().GetString("provider")
		return provider.ExampleModels(provider.Resolve(p, "", "", "", "", 0).ID), cobra.ShellCompDirectiveNoFileComp
	})
}

func addRunFlags(cmd *cobra.Command, rf *runFlags) {
	f := cmd.Flags()
	f.StringVarP(&rf.output, "output", "o", "", "Write the result to this file (single catalog only)")
	f.StringArrayVarP(&rf.keys, "key", "k", nil, "Only process this key (repeatable)")
	f.StringSliceVarP(&rf.langs, "lang", "l", nil, "Target languages (repeatable or comma-separated)")
	f.BoolVar(&rf.dryRun, "dry-run", false, "Show what would be done without calling the provider or writing")
	f.BoolVarP(&rf.verbose, "verbose", "v", false, "Verbose output")
	f.BoolVarP(&rf.yes, "yes", "y", false, "Accept suggestions without asking")
	f.IntVar(&rf.minConfidence, "min-confidence", 4, "Minimum confidence accepted by --yes")
}

// sourceMismatch reports whether the configured source language names a
// different language than the catalog declares. An unset value never does.
func sourceMismatch(configured, declared string) bool {
	return configured != "" && !langmeta.Same(configured, declared)
}

// session is everything one command run needs.
type session struct {
	root     string
	project  *config.ProjectFile
	settings *config.Settings
	client   *provider.Client
	log      *log.Logger
	runID    string
}

// newSession loads the project file and settings and builds the provider
// client. The provider is only validated when it will be called.
func newSession(cmd *cobra.Command, rootDir string, verbose, needProvider bool) (*session, error) {
	logger = newLogger(verbose)

	pf, err := config.LoadProjectFile(rootDir)
	if err != nil {
		return nil, err
	}
	s, err := config.LoadSettings(rootDir, pf, cmd.Flags())
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()[:8]
	sess := &session{
		root:     rootDir,
		project:  pf,
		settings: s,
		log:      logger.With("run", runID),
		runID:    runID,
	}
	if pf != nil {
		logger.Debug("project file loaded", "path", pf.Path())
	}
	if env := filepath.Join(rootDir, config.DotEnvFile); fileExists(env) {
		logger.Debug("environment file loaded", "path", env)
	}

	prov := resolveProvider(s)
	if needProvider {
		if err := prov.Validate(); err != nil {
			return nil, err
		}
	}
	sess.client = provider.New(prov, provider.Options{
		AppContext:        s.AppDescription,
		SystemPrompt:      s.Prompt,
		MaxRetries:        s.MaxRetries,
		RequestsPerMinute: s.RPM,
		Logger:            sess.log,
	})
	return sess, nil
}

// resolveProvider applies stored credentials below the flag and
// environment layers.
func resolveProvider(s *config.Settings) provider.Provider {
	prov := provider.Resolve(s.Provider, s.BaseURL, s.APIKey, s.Model, s.Proxy, s.Timeout)
	prov.APIKey = settings.APIKey(prov.ID, prov.APIKey)
	if s.BaseURL == "" && prov.ID == provider.ProviderCustomOpenAI {
		prov.BaseURL = settings.BaseURL(prov.ID, prov.BaseURL)
	}
	return prov
}

// catalogPaths returns the catalogs named on the command line, or those of
// the project when none are.
func (s *session) catalogPaths(args []string) ([]string, error) {
	if len(args) == 0 {
		return s.project.CatalogPaths(s.root)
	}
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			found, err := config.Discover(arg)
			if err != nil {
				return nil, err
			}
			paths = append(paths, found...)
			continue
		}
		if !config.IsCatalog(arg) {
			return nil, fmt.Errorf("%s: not a string catalog (expected %s)", arg, catalog.FileExt)
		}
		paths = append(paths, arg)
	}
	return paths, nil
}

func (s *session) projectLangs() []string {
	return s.settings.Languages
}

// signalContext returns a context cancelled on Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			logWarning("%s", i18n.T("Interrupted, finishing up..."))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// outputPath returns where the catalog loaded from path is written.
func outputPath(path, output string) string {
	if output != "" {
		return output
	}
	return path
}

// checkOutput rejects --output for runs over more than one catalog.
func checkOutput(output string, paths []string) error {
	if output != "" && len(paths) != 1 {
		return fmt.Errorf("--output needs exactly one catalog, found %d", len(paths))
	}
	return nil
}

// ---------------------------------------------------------------------------
// translate / suggest
// ---------------------------------------------------------------------------

func newTranslateCmd(rootDir *string) *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "translate [catalog|dir ...]",
		Short: "Translate owed units of string catalogs",
		Long: `Translate every unit of the given catalogs that is missing, new or empty
in a target language. Without arguments the catalogs of the project are
used (from .xcstrans.yaml, or every .xcstrings file under the root).

Target languages are the project languages plus the languages already in
each catalog, minus its source language. --lang narrows them.

Examples:
  xcstrans translate --provider openai --model gpt-4o
  xcstrans translate Localizable.xcstrings --lang fr,de --dry-run
  xcstrans translate --suggest --yes --min-confidence 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogs(cmd, *rootDir, args, rf, true)
		},
	}
	addRunFlags(cmd, &rf)
	cmd.Flags().BoolVar(&rf.force, "force", false, "Retranslate units that are already translated")
	cmd.Flags().BoolVar(&rf.suggest, "suggest", false, "Review existing translations after translating")
	addProviderFlags(cmd)
	return cmd
}

func newSuggestCmd(rootDir *string) *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "suggest [catalog|dir ...]",
		Short: "Review existing translations and offer improvements",
		Long: `Ask the provider to review the current translations of each catalog and
present every proposed improvement for a decision. Accepted suggestions
are written to the catalog; nothing is written if none are accepted.

On a terminal each suggestion is shown in an interactive menu; otherwise
answers are read line by line from stdin (a, r or q). --yes accepts every
suggestion at or above --min-confidence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rf.suggest = true
			return runCatalogs(cmd, *rootDir, args, rf, false)
		},
	}
	addRunFlags(cmd, &rf)
	addProviderFlags(cmd)
	return cmd
}

// runCatalogs is the body of translate and suggest. Catalogs are processed
// one after another with a shared cache and shared stats; a catalog that
// fails to load or has no target language is reported and skipped.
func runCatalogs(cmd *cobra.Command, rootDir string, args []string, rf runFlags, doTranslate bool) error {
	sess, err := newSession(cmd, rootDir, rf.verbose, !rf.dryRun || rf.suggest)
	if err != nil {
		return err
	}
	paths, err := sess.catalogPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		logWarning("%s", i18n.T("No string catalogs found"))
		return nil
	}
	if err := checkOutput(rf.output, paths); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	st := &stats.Stats{}
	tc := cache.New()
	var loadErrs *multierror.Error
	var failures []error

	if rf.dryRun {
		logInfo("%s", i18n.T("Dry run: no provider calls, no files written"))
	}
	logInfo(i18n.N("Processing %d catalog", "Processing %d catalogs", len(paths)), len(paths))

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		fileLog := sess.log.With("file", filepath.Base(path))

		cat, err := catalog.Load(path)
		if err != nil {
			loadErrs = multierror.Append(loadErrs, err)
			logError("%v", err)
			continue
		}
		if sourceMismatch(sess.settings.SourceLang, cat.SourceLanguage) {
			logWarning("%s: source_lang %q differs from the catalog's sourceLanguage %q; using %q",
				path, sess.settings.SourceLang, cat.SourceLanguage, cat.SourceLanguage)
		}
		langs, err := resolve.LanguagesToTranslate(cat, sess.projectLangs(), rf.langs)
		if err != nil {
			loadErrs = multierror.Append(loadErrs, fmt.Errorf("%s: %w", path, err))
			logError("%s: %v", path, err)
			continue
		}
		logInfo("%s → %s", path, strings.Join(langs, ", "))

		changed := false
		if doTranslate {
			before := st.Translated
			eng := translate.New(sess.client, translate.Options{
				BatchSize: sess.settings.BatchSize,
				DryRun:    rf.dryRun,
				Force:     rf.force,
				Keys:      rf.keys,
				Cache:     tc,
				Stats:     st,
				Logger:    fileLog,
				OnProgress: func(lang string, done, total int) {
					fileLog.Debug("progress", "lang", lang, "batch", fmt.Sprintf("%d/%d", done, total))
				},
			})
			runErr := eng.Run(ctx, cat, langs)
			failures = append(failures, eng.Failures()...)
			changed = st.Translated > before
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
		}

		if rf.suggest && ctx.Err() == nil {
			wf := suggest.New(sess.client, suggest.NewDecisionSource(rf.yes, rf.minConfidence, os.Stdin, os.Stderr), suggest.Options{
				BatchSize: sess.settings.BatchSize,
				Keys:      rf.keys,
				Stats:     st,
				Logger:    fileLog,
				OnTransition: func(from, to suggest.State) {
					fileLog.Debug("suggest", "from", from, "to", to)
				},
			})
			res, err := wf.Run(ctx, cat, langs)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if len(res.Suggestions) > 0 {
				logInfo(i18n.N("%d suggestion", "%d suggestions", len(res.Suggestions)), len(res.Suggestions))
			}
			if res.Changed() {
				changed = true
			}
		}

		if rf.dryRun {
			continue
		}
		if changed || rf.output != "" {
			dest := outputPath(path, rf.output)
			if err := catalog.Save(cat, dest); err != nil {
				return fmt.Errorf("saving %s: %w", dest, err)
			}
			logSuccess("%s %s", i18n.T("Saved"), dest)
		}
	}

	fmt.Fprintln(os.Stderr)
	if doTranslate {
		stats.Render(os.Stderr, i18n.T("Translation summary"), st.Lines())
	}
	if rf.suggest {
		stats.Render(os.Stderr, i18n.T("Suggestion summary"), st.SuggestionLines())
	}
	sess.log.Debug("summary", "stats", stats.Summary(st.Lines()), "cache", tc.Len(), "hits", tc.Hits(), "misses", tc.Misses(), "failures", len(failures))

	if ctx.Err() != nil {
		return errReported
	}
	if err := loadErrs.ErrorOrNil(); err != nil || st.HasErrors() {
		return errReported
	}
	return nil
}

// ---------------------------------------------------------------------------
// text
// ---------------------------------------------------------------------------

func newTextCmd(rootDir *string) *cobra.Command {
	var (
		langs   []string
		comment string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "text TEXT",
		Short: "Translate a single string",
		Long: `Translate one string into each --lang and print the results, one per
line, as "lang<TAB>translation".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(langs) == 0 {
				return errors.New("at least one --lang is required")
			}
			sess, err := newSession(cmd, *rootDir, verbose, true)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			eng := translate.New(sess.client, translate.Options{Logger: sess.log})
			var errs *multierror.Error
			for _, lang := range langs {
				out, err := eng.TranslateText(ctx, args[0], lang, comment)
				if err != nil {
					errs = multierror.Append(errs, fmt.Errorf("%s: %w", lang, err))
					continue
				}
				fmt.Printf("%s\t%s\n", lang, out)
			}
			return errs.ErrorOrNil()
		},
	}
	cmd.Flags().StringSliceVarP(&langs, "lang", "l", nil, "Target languages (repeatable or comma-separated)")
	cmd.Flags().StringVar(&comment, "comment", "", "Developer comment describing the string")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	addProviderFlags(cmd)
	return cmd
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
