package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/mrkt/internal/catalog"
	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/debuglog"
	"github.com/pders01/mrkt/internal/importer"
	"github.com/pders01/mrkt/internal/navigate"
	"github.com/pders01/mrkt/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	dbPath     string
	quiet      bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "mrkt",
		Short: "mrkt - marketplace search for the terminal",
		Long: `mrkt searches a local marketplace catalog of stores and their
products and services.

Run without arguments to start the interactive search interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "Path to database file (overrides config)")
	root.Flags().BoolVar(&flags.quiet, "quiet", false, "Skip startup banner")

	root.AddCommand(
		newSearchCmd(flags),
		newSeedCmd(flags),
		newImportCmd(flags),
		newRefreshCmd(flags),
		newReindexCmd(flags),
		newGenerateConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads and validates the configuration and starts logging.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flags.dbPath != "" {
		cfg.Database.Path = flags.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openCatalog(cfg *config.Config) (*catalog.DB, error) {
	db, err := catalog.Open(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", cfg.Database.Path, err)
	}
	return db, nil
}

func runInteractive(ctx context.Context, flags *globalFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !flags.quiet {
		tui.ShowBanner(Version)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	defer debuglog.Close()
	tui.ApplyColors(cfg.UI.Colors)

	db, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	manager := importer.NewManager(db, cfg)
	backend, err := newBackend(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer backend.Close()
	if backend.indexer != nil {
		manager.SetIndexer(backend.indexer)
	}

	opts := tui.Options{
		Catalog:   db,
		Source:    backend.source,
		Refresher: manager,
	}
	if opener, err := navigate.NewBrowserOpener(cfg.Navigate.BaseURL, cfg.Navigate.Opener); err != nil {
		debuglog.Warnf("browser opening disabled: %v", err)
	} else {
		opts.Opener = opener
	}

	app := tui.NewApp(cfg, opts)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
