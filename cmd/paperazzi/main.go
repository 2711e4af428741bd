// Package main is the paperazzi command: search Semantic Scholar from the
// terminal and browse the results one paper at a time.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roysti10/paperazzi/internal/config"
	"github.com/roysti10/paperazzi/internal/httpx"
	"github.com/roysti10/paperazzi/internal/mirror"
	"github.com/roysti10/paperazzi/internal/scholar"
	"github.com/roysti10/paperazzi/internal/tui"
)

// version is set at build time via ldflags.
var version = "dev"

const logEnv = "PAPERAZZI_LOG"

func newRootCmd(v *viper.Viper) *cobra.Command {
	var (
		cfgFile  string
		download string
	)
	cmd := &cobra.Command{
		Use:   "paperazzi [query]",
		Short: "Search for papers and browse them in the terminal",
		Long: `paperazzi searches Semantic Scholar for a query and shows the results one at
a time. From the browser a paper can be opened in the system browser or, for
papers with a DOI, downloaded as a PDF through a mirror.

With --download the browser is skipped and the given DOI link is fetched
directly into the output directory.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.ReadFile(v, cfgFile); err != nil {
				return err
			}
			in := config.Input{
				Download:      download,
				NumResultsSet: cmd.Flags().Changed("num_results"),
			}
			if len(args) == 1 {
				in.Query = args[0]
			}
			settings, err := config.Resolve(v, in)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if settings.Mode == config.ModeDownload {
				return runDownload(ctx, cmd.OutOrStdout(), settings)
			}
			return runBrowser(ctx, cmd.OutOrStdout(), settings)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./paperazzi.yaml or ~/.config/paperazzi/paperazzi.yaml)")
	flags.StringVarP(&download, "download", "d", "", "download the paper behind a DOI link and exit")
	flags.IntP("num_results", "r", config.DefaultNumResults, "number of results to fetch")
	flags.Bool("skip-malformed", false, "drop malformed search results instead of failing")
	flags.String("out", ".", "directory downloaded PDFs are written to")
	flags.String("mirror", mirror.DefaultHost, "mirror host used to resolve PDFs")
	flags.Bool("no-alt-screen", false, "disable the alternate screen buffer")

	bind := map[string]string{
		config.KeyNumResults:    "num_results",
		config.KeySkipMalformed: "skip-malformed",
		config.KeyDownloadDir:   "out",
		config.KeyMirrorHost:    "mirror",
		config.KeyNoAltScreen:   "no-alt-screen",
	}
	for key, name := range bind {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
	return cmd
}

func newHTTPClients(settings config.Settings, logger *log.Logger) (*scholar.Client, *mirror.Resolver) {
	client := httpx.NewClient(settings.HTTP)
	search := &scholar.Client{
		Endpoint:   settings.Endpoint,
		APIKey:     settings.APIKey,
		HTTPClient: client,
		Tolerance:  settings.Tolerance,
		Logger:     logger,
	}
	resolver := &mirror.Resolver{
		Mirror:     settings.Mirror,
		HTTPClient: client,
		Dir:        settings.DownloadDir,
		Logger:     logger,
	}
	return search, resolver
}

func runDownload(ctx context.Context, out io.Writer, settings config.Settings) error {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	_, resolver := newHTTPClients(settings, logger)

	fmt.Fprintln(out, "Downloading...!")
	artifact, err := resolver.Resolve(ctx, settings.DownloadURL)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Download complete!! Saved %s (%d bytes", artifact.Path, artifact.Size)
	if artifact.Pages > 0 {
		fmt.Fprintf(out, ", %d pages", artifact.Pages)
	}
	fmt.Fprintln(out, ")")
	return nil
}

func runBrowser(ctx context.Context, out io.Writer, settings config.Settings) error {
	logger, closeLog, err := browserLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	search, resolver := newHTTPClients(settings, logger)
	results, err := search.Search(ctx, settings.Query, settings.NumResults)
	if err != nil {
		return err
	}
	if results.Len() == 0 {
		fmt.Fprintf(out, "No results found for %q\n", settings.Query)
		return nil
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if !settings.NoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return tui.Run(tui.Config{
		Results:  results,
		Resolver: resolver,
		OpenURL:  browser.OpenURL,
		Logger:   logger,
	}, opts...)
}

// browserLogger keeps log output off the screen while the browser runs. It
// goes to the file named by PAPERAZZI_LOG, or nowhere.
func browserLogger() (*log.Logger, func(), error) {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	path := strings.TrimSpace(os.Getenv(logEnv))
	if path == "" {
		log.SetOutput(io.Discard)
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	f, err := tea.LogToFile(path, "paperazzi")
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return log.Default(), func() { _ = f.Close() }, nil
}

func main() {
	if err := newRootCmd(config.New()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "paperazzi: %v\n", err)
		if errors.Is(err, tui.ErrTerminal) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
