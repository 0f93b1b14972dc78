package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"patientsearch/internal/config"
	"patientsearch/internal/directory"
	"patientsearch/internal/eventbus"
	"patientsearch/internal/logging"
	"patientsearch/internal/recents"
	"patientsearch/internal/storage"
	"patientsearch/internal/storage/leveldb"
	"patientsearch/internal/storage/sqlite"
	"patientsearch/internal/ui"
	"patientsearch/internal/ui/search"
)

var (
	// Global flags
	configPath  string
	apiURL      string
	rosterPath  string
	backend     string
	storagePath string
	debug       bool
)

// rootCmd starts the interactive search
var rootCmd = &cobra.Command{
	Use:   "patientsearch",
	Short: "Type-ahead patient search for the terminal",
	Long: `patientsearch looks up patients by name, patient ID, phone or email
while you type, and remembers the patients you picked most recently.

Patients come from the HTTP patient API or from a local YAML roster
(--roster), which is reloaded whenever the file changes.`,
	SilenceUsage: true,
	RunE:         runSearch,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (default is the user config directory)")
	flags.StringVar(&apiURL, "api-url", "", "base URL of the patient API")
	flags.StringVar(&rosterPath, "roster", "", "search a local YAML roster instead of the API")
	flags.StringVar(&backend, "storage", "", "storage backend: leveldb, sqlite or memory")
	flags.StringVar(&storagePath, "storage-path", "", "storage location")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the flags set on cmd
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.NewConfigService(configPath).Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.Directory.Provider = directory.KindHTTP
		cfg.Directory.APIURL = apiURL
	}
	if flags.Changed("roster") {
		cfg.Directory.Provider = directory.KindLocal
		cfg.Directory.RosterPath = rosterPath
	}
	if flags.Changed("storage") {
		cfg.Storage.Backend = backend
	}
	if flags.Changed("storage-path") {
		cfg.Storage.Path = storagePath
	}
	if flags.Changed("debug") {
		cfg.Log.Debug = debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStore opens the configured key/value backend. The returned close
// function is never nil.
func openStore(cfg *config.Config) (storage.Store, func() error, error) {
	switch cfg.Storage.Backend {
	case storage.BackendMemory:
		return storage.NewMemory(), func() error { return nil }, nil
	case storage.BackendLevelDB:
		s, err := leveldb.New(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case storage.BackendSQLite:
		s, err := sqlite.New(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func openRecents(cfg *config.Config, logger *zap.Logger) (*recents.Store, func() error, error) {
	kv, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	store := recents.New(kv, logger,
		recents.WithKey(cfg.Recents.Key),
		recents.WithCapacity(cfg.Recents.Capacity),
	)
	return store, closeStore, nil
}

// newProvider builds the configured directory. A local roster is watched
// until ctx is done.
func newProvider(ctx context.Context, cfg *config.Config, bus eventbus.EventBus, logger *zap.Logger) (directory.Provider, error) {
	switch cfg.Directory.Provider {
	case directory.KindHTTP:
		timeout, err := cfg.LookupTimeout()
		if err != nil {
			return nil, err
		}
		return directory.NewHTTPProvider(cfg.Directory.APIURL,
			directory.WithToken(cfg.Directory.Token),
			directory.WithTimeout(timeout),
		)

	case directory.KindLocal:
		patients, err := directory.LoadRoster(cfg.Directory.RosterPath)
		if err != nil {
			return nil, err
		}
		provider := directory.NewLocalProvider(patients, cfg.Directory.Limit)
		go func() {
			if err := directory.WatchRoster(ctx, cfg.Directory.RosterPath, provider, bus, logger); err != nil {
				logger.Error("roster watcher stopped", zap.Error(err))
			}
		}()
		return provider, nil
	}
	return nil, fmt.Errorf("unknown directory provider %q", cfg.Directory.Provider)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Path, cfg.Log.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := eventbus.New(logger)
	defer bus.Close()

	recentStore, closeStore, err := openRecents(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close storage", zap.Error(err))
		}
	}()

	provider, err := newProvider(ctx, cfg, bus, logger)
	if err != nil {
		return err
	}

	delay, err := cfg.DebounceDelay()
	if err != nil {
		return err
	}

	widget := search.New(provider, recentStore,
		search.WithBus(bus),
		search.WithLogger(logger),
		search.WithDelay(delay),
		search.WithMinChars(cfg.Search.MinChars),
		search.WithShowRecents(cfg.Search.ShowRecents),
	)
	app := ui.NewModel(widget, bus, logger)

	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	app.SetProgram(p)

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
			p.Quit()
		case <-ctx.Done():
		}
	}()

	logger.Info("starting UI",
		zap.String("provider", cfg.Directory.Provider),
		zap.String("storage", cfg.Storage.Backend),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error("error running program", zap.Error(err))
		return fmt.Errorf("error running program: %w", err)
	}
	logger.Info("UI exited normally")
	return nil
}
