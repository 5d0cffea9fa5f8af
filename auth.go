package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/minios-linux/xcstrans/config"
	"github.com/minios-linux/xcstrans/i18n"
	"github.com/minios-linux/xcstrans/provider"
	"github.com/minios-linux/xcstrans/settings"
)

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	setStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	unsetStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// authProviders are the providers that take stored credentials, in menu
// order.
var authProviders = []string{
	provider.ProviderOpenAI,
	provider.ProviderAnthropic,
	provider.ProviderGoogle,
	provider.ProviderGroq,
	provider.ProviderCustomOpenAI,
}

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider credentials",
		Long: `Manage API keys stored for AI providers.

Keys are stored in ` + settings.FilePath() + ` with 0600 permissions.
--api-key and XCSTRANS_API_KEY take precedence over stored keys.

Examples:
  xcstrans auth login                          Interactive provider selection
  xcstrans auth login --provider anthropic     Store an Anthropic API key
  xcstrans auth logout --provider openai       Remove the OpenAI key
  xcstrans auth logout                         Remove all credentials
  xcstrans auth list                           Show stored credentials`,
	}
	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)
	return cmd
}

func completeAuthProviders(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, id := range provider.IDs() {
		name, _, _ := strings.Cut(id, "\t")
		if isAuthProvider(name) {
			out = append(out, id)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func isAuthProvider(id string) bool {
	for _, p := range authProviders {
		if p == id {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// login
// ---------------------------------------------------------------------------

func newAuthLoginCmd() *cobra.Command {
	var (
		providerID string
		baseURL    string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key for a provider",
		Long: `Store an API key for a provider. If --provider is not given you are
asked to choose one. custom-openai also stores the endpoint URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(os.Stdin)
			interactive := isatty.IsTerminal(os.Stdin.Fd())

			if providerID == "" {
				id, err := chooseProvider(in, os.Stderr)
				if err != nil {
					return err
				}
				providerID = id
			}
			if !isAuthProvider(providerID) {
				return fmt.Errorf("unknown provider %q; choose one of: %s", providerID, strings.Join(authProviders, ", "))
			}

			existing := settings.Get(providerID)
			if providerID == provider.ProviderCustomOpenAI && baseURL == "" {
				prompt := i18n.T("Endpoint URL")
				if existing != nil && existing.BaseURL != "" {
					prompt += " [" + existing.BaseURL + "]"
				}
				u, err := readValue(in, os.Stderr, prompt+": ")
				if err != nil {
					return err
				}
				baseURL = u
				if baseURL == "" && existing != nil {
					baseURL = existing.BaseURL
				}
				if baseURL == "" {
					return errors.New("custom-openai needs an endpoint URL")
				}
			}

			key, err := readKey(in, interactive, existing)
			if err != nil {
				return err
			}
			if key == "" {
				if existing != nil && existing.Key != "" {
					key = existing.Key
					logInfo("%s", i18n.T("Keeping existing key"))
				} else if providerID != provider.ProviderCustomOpenAI {
					return errors.New("no API key provided")
				}
			}

			if err := settings.Set(providerID, &settings.Credential{Key: key, BaseURL: baseURL}); err != nil {
				return fmt.Errorf("saving credentials: %w", err)
			}
			logSuccess("%s: %s", providerID, i18n.T("credentials saved"))
			return nil
		},
	}
	cmd.Flags().StringVar(&providerID, "provider", "", "Provider to authenticate")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Endpoint URL (custom-openai)")
	_ = cmd.RegisterFlagCompletionFunc("provider", completeAuthProviders)
	return cmd
}

// chooseProvider shows the numbered provider menu and reads a number or
// an ID.
func chooseProvider(in *bufio.Reader, out io.Writer) (string, error) {
	fmt.Fprintf(out, "\n%s\n\n", sectionStyle.Render(i18n.T("Select provider to authenticate:")))
	for i, id := range authProviders {
		fmt.Fprintf(out, "  %d. %s\n", i+1, keyStyle.Render(id))
	}
	fmt.Fprintln(out)
	choice, err := readValue(in, out, i18n.T("Enter choice (number or name): "))
	if err != nil {
		return "", err
	}
	return parseProviderChoice(choice)
}

// parseProviderChoice accepts a 1-based menu number or a provider ID.
func parseProviderChoice(choice string) (string, error) {
	if n, err := strconv.Atoi(choice); err == nil {
		if n >= 1 && n <= len(authProviders) {
			return authProviders[n-1], nil
		}
		return "", fmt.Errorf("invalid choice %d", n)
	}
	choice = strings.ToLower(choice)
	if isAuthProvider(choice) {
		return choice, nil
	}
	return "", fmt.Errorf("invalid choice %q", choice)
}

// readKey asks for the API key, hiding input on a terminal.
func readKey(in *bufio.Reader, interactive bool, existing *settings.Credential) (string, error) {
	title := i18n.T("Enter API key")
	if existing != nil && existing.Key != "" {
		title = fmt.Sprintf("%s (%s %s)", i18n.T("Enter new key, or leave empty to keep"), i18n.T("current:"), settings.MaskKey(existing.Key))
	}
	if !interactive {
		return readValue(in, os.Stderr, title+": ")
	}
	var key string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&key).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", errors.New("cancelled")
	}
	return strings.TrimSpace(key), err
}

// readValue prints prompt and reads one trimmed line. End of input yields
// an error.
func readValue(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", errors.New("no input received")
	}
	return strings.TrimSpace(line), nil
}

// ---------------------------------------------------------------------------
// logout
// ---------------------------------------------------------------------------

func newAuthLogoutCmd() *cobra.Command {
	var providerID string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long: `Remove stored credentials for one provider, or for all providers when
--provider is not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if providerID == "" {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess("%s", i18n.T("All stored credentials removed"))
				return nil
			}
			if err := settings.Remove(providerID); err != nil {
				return fmt.Errorf("removing %s credentials: %w", providerID, err)
			}
			logSuccess("%s: %s", providerID, i18n.T("credentials removed"))
			return nil
		},
	}
	cmd.Flags().StringVar(&providerID, "provider", "", "Provider to log out (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("provider", completeAuthProviders)
	return cmd
}

// ---------------------------------------------------------------------------
// list
// ---------------------------------------------------------------------------

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored credentials",
		Run: func(cmd *cobra.Command, args []string) {
			writeCredentials(os.Stderr, settings.Load(), os.Getenv(config.EnvPrefix+"_API_KEY"))
		},
	}
}

// writeCredentials prints the credential table. envKey is the value of
// the API key environment variable, if any.
func writeCredentials(w io.Writer, store settings.Store, envKey string) {
	fmt.Fprintf(w, "\n%s\n\n", sectionStyle.Render(i18n.T("Stored credentials")))

	ids := append([]string{}, authProviders...)
	for _, id := range store.Providers() {
		if !isAuthProvider(id) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		c := store[id]
		switch {
		case c != nil && c.Key != "":
			fmt.Fprintf(w, "  %-14s %s (%s)\n", id, setStyle.Render(i18n.T("configured")), settings.MaskKey(c.Key))
		case c != nil && c.BaseURL != "":
			fmt.Fprintf(w, "  %-14s %s (%s)\n", id, setStyle.Render(i18n.T("configured")), i18n.T("no key"))
		default:
			fmt.Fprintf(w, "  %-14s %s\n", id, unsetStyle.Render(i18n.T("not configured")))
		}
		if c != nil && c.BaseURL != "" {
			fmt.Fprintf(w, "  %-14s endpoint: %s\n", "", c.BaseURL)
		}
	}

	name := config.EnvPrefix + "_API_KEY"
	fmt.Fprintf(w, "\n%s\n", sectionStyle.Render(i18n.T("Environment")))
	if envKey != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", name, setStyle.Render(settings.MaskKey(envKey)), i18n.T("overrides stored keys"))
	} else {
		fmt.Fprintf(w, "  %s: %s\n", name, unsetStyle.Render(i18n.T("not set")))
	}
	fmt.Fprintln(w)
}
