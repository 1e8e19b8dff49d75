// Package cli wires configuration, logging and the catalog client into the
// artscout commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/csheth/artscout/internal/artic"
	"github.com/csheth/artscout/internal/config"
	"github.com/csheth/artscout/internal/favorites"
	"github.com/csheth/artscout/internal/tui"
)

type options struct {
	configPath    string
	apiBase       string
	iiifBase      string
	favoritesPath string
	logFile       string
	logLevel      string
	noAltScreen   bool
	search        string
}

func NewRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "artscout",
		Short: "Browse the Art Institute of Chicago collection from the terminal",
		Long: `Artscout is an endless-scrolling browser for the Art Institute of Chicago
public catalog. Pages load as you scroll in either direction while only a
few pages are held in memory at once.

Without a subcommand it opens the interactive browser.`,
		Example: `  # Open the browser on the highlights feed
  artscout

  # Jump straight into a search
  artscout --search "water lilies"

  # Print one page of search results
  artscout page 3 --query monet --public-domain`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowser(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.apiBase, "api-base", "", "catalog API base URL")
	flags.StringVar(&opts.iiifBase, "iiif-base", "", "IIIF image service base URL")
	flags.StringVar(&opts.favoritesPath, "favorites", "", "favorites file (.json, or .db for SQLite)")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.Flags().BoolVar(&opts.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	cmd.Flags().StringVar(&opts.search, "search", "", "open the Search screen with this term")

	cmd.AddCommand(newPageCmd(opts), newFavoritesCmd(opts))
	return cmd
}

func runBrowser(cmd *cobra.Command, opts *options) error {
	a, err := opts.open()
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.favorites()
	if err != nil {
		return err
	}

	progOpts := []tea.ProgramOption{
		tea.WithContext(cmd.Context()),
		tea.WithMouseCellMotion(),
	}
	if !opts.noAltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(tui.New(tui.Config{
		Catalog:        a.client,
		Favorites:      store,
		RetainPages:    a.cfg.RetainPages,
		DownloadDir:    a.cfg.DownloadDir,
		RequestTimeout: a.cfg.RequestTimeout,
		InitialSearch:  opts.search,
		Logger:         a.logger,
	}), progOpts...)

	a.logger.Info("browser starting", "api", a.cfg.APIBase, "favorites", a.cfg.FavoritesPath)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

// app is the wiring shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	client   *artic.Client
	store    favorites.Store
	closeLog func() error
}

func (o *options) open() (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	o.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closeLog, err := newLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	client := artic.NewClient(artic.Config{
		BaseURL:           cfg.APIBase,
		IIIFURL:           cfg.IIIFBase,
		UserAgent:         cfg.UserAgent,
		RequestsPerMinute: cfg.RequestsPerMinute,
		HTTPClient:        &http.Client{Timeout: cfg.RequestTimeout},
		Logger:            logger,
	})
	return &app{cfg: cfg, logger: logger, client: client, closeLog: closeLog}, nil
}

// apply layers command-line flags over the loaded config.
func (o *options) apply(cfg *config.Config) {
	if o.apiBase != "" {
		cfg.APIBase = o.apiBase
	}
	if o.iiifBase != "" {
		cfg.IIIFBase = o.iiifBase
	}
	if o.favoritesPath != "" {
		cfg.FavoritesPath = o.favoritesPath
	}
	if o.logFile != "" {
		cfg.LogFile = o.logFile
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
}

func (a *app) favorites() (favorites.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := favorites.Open(a.cfg.FavoritesPath)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

func (a *app) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.closeLog != nil {
		errs = append(errs, a.closeLog())
	}
	return errors.Join(errs...)
}

// newLogger writes text logs to path. Without a path logs are discarded,
// since the browser owns the terminal.
func newLogger(path, level string) (*slog.Logger, func() error, error) {
	var lvl slog.Level
	if strings.TrimSpace(level) != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
	}
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl}))
	return logger, f.Close, nil
}
