package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/minios-linux/xcstrans/catalog"
	"github.com/minios-linux/xcstrans/i18n"
	"github.com/minios-linux/xcstrans/langmeta"
	"github.com/minios-linux/xcstrans/resolve"
)

func newStatusCmd(rootDir *string) *cobra.Command {
	var langs []string

	cmd := &cobra.Command{
		Use:   "status [catalog|dir ...]",
		Short: "Show per-language translation progress",
		Long: `Show, for every catalog and target language, how many keys are current,
how many still owe units and how many are excluded from translation.
Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd, *rootDir, false, false)
			if err != nil {
				return err
			}
			paths, err := sess.catalogPaths(args)
			if err != nil {
				return err
			}
			return runStatus(sess, paths, langs)
		},
	}
	cmd.Flags().StringSliceVarP(&langs, "lang", "l", nil, "Only show these languages")
	return cmd
}

// statusRow is one line of the status table.
type statusRow struct {
	Lang     string
	Keys     int
	Current  int
	Owed     int
	Units    int
	Excluded int
}

// Percent is the share of translatable keys that are current.
func (r statusRow) Percent() int {
	n := r.Keys - r.Excluded
	if n <= 0 {
		return 100
	}
	return r.Current * 100 / n
}

// langStatus classifies every key of cat for lang without touching it.
func langStatus(cat *catalog.Catalog, lang string) statusRow {
	plan := resolve.WorkItems(cat, lang, resolve.Options{})
	return statusRow{
		Lang:     lang,
		Keys:     plan.Considered,
		Current:  len(plan.Current),
		Owed:     plan.Considered - len(plan.Current) - len(plan.Excluded),
		Units:    len(plan.Items),
		Excluded: len(plan.Excluded),
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	doneStyle   = cellStyle.Foreground(lipgloss.Color("42"))
	gapStyle    = cellStyle.Foreground(lipgloss.Color("214"))
)

func runStatus(sess *session, paths, langs []string) error {
	if len(paths) == 0 {
		logWarning("%s", i18n.T("No string catalogs found"))
		return nil
	}
	if sess.project != nil {
		logInfo("%s %s", i18n.T("Project file:"), sess.project.Path())
	}

	failed := false
	for _, path := range paths {
		cat, err := catalog.Load(path)
		if err != nil {
			logError("%v", err)
			failed = true
			continue
		}
		targets, err := resolve.LanguagesToTranslate(cat, sess.projectLangs(), langs)
		if err != nil {
			logWarning("%s: %v", path, err)
			continue
		}

		rel, err := filepath.Rel(sess.root, path)
		if err != nil {
			rel = path
		}
		fmt.Fprintf(os.Stderr, "\n%s (%s: %s)\n", headerStyle.Render(rel), i18n.T("source"), langmeta.Resolve(cat.SourceLanguage).Label())

		rows := make([]statusRow, 0, len(targets))
		for _, lang := range targets {
			rows = append(rows, langStatus(cat, lang))
		}
		fmt.Fprintln(os.Stderr, renderStatus(rows))
	}
	fmt.Fprintln(os.Stderr)

	if failed {
		return errReported
	}
	return nil
}

func renderStatus(rows []statusRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(i18n.T("Language"), i18n.T("Current"), i18n.T("Owed"), i18n.T("Units"), i18n.T("Excluded"), "%").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 5 && row >= 0 && row < len(rows) {
				if rows[row].Percent() == 100 {
					return doneStyle
				}
				return gapStyle
			}
			return cellStyle
		})
	for _, r := range rows {
		t.Row(
			langmeta.Resolve(r.Lang).Label(),
			strconv.Itoa(r.Current),
			strconv.Itoa(r.Owed),
			strconv.Itoa(r.Units),
			strconv.Itoa(r.Excluded),
			strconv.Itoa(r.Percent())+"%",
		)
	}
	return t.Render()
}
