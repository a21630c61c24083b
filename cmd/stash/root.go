package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stash/internal/config"
	"stash/internal/logging"
	"stash/internal/store"
	boltstore "stash/internal/store/bolt"
	dirstore "stash/internal/store/dir"
)

const version = "0.1.0"

var logger = logging.For("cli")

// app carries the pieces every subcommand needs once the root's setup
// hook has run.
type app struct {
	cfg        *config.Config
	store      store.Store
	closeStore func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		cfgPath   string
		dataDir   string
		backend   string
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:   "stash",
		Short: "Store and retrieve byte streams by name",
		Long: `stash keeps byte streams from stdin and plays them back on demand.

Entries are grouped into named stacks. Pushing to a name creates the
next numbered entry; popping writes the newest one to stdout and
removes it. Entries are addressed as "name:index", as plain "name" for
the newest entry of that stack, or with no name at all for the
anonymous stack.`,
		Example: `  echo secret | stash push creds
  stash show creds
  stash pop creds`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			// Flags beat the environment, the environment beats the file.
			if dataDir == "" {
				dataDir = os.Getenv("STASH_DATA_DIR")
			}
			if dataDir != "" {
				cfg.Storage.DataDir = dataDir
			}
			if backend != "" {
				cfg.Storage.Backend = backend
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}
			cfg.Storage.DataDir = config.ExpandHome(cfg.Storage.DataDir)

			if err := cfg.Validate(); err != nil {
				return err
			}

			logging.Init(cfg.Log.Level, cfg.Log.Format)

			if err := os.MkdirAll(cfg.Storage.DataDir, 0o700); err != nil {
				return fmt.Errorf("creating data dir: %w", err)
			}

			st, closeFn, err := openStore(cfg)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.store = st
			a.closeStore = closeFn
			logger.Debug("store ready",
				"data_dir", cfg.Storage.DataDir,
				"backend", cfg.Storage.Backend)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closeStore != nil {
				return a.closeStore()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides config)")
	root.PersistentFlags().StringVar(&backend, "backend", "", `storage backend, "dir" or "bolt" (overrides config)`)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", `log format, "text" or "json" (overrides config)`)

	root.AddCommand(
		newListCmd(a),
		newPushCmd(a),
		newShowCmd(a),
		newPopCmd(a),
		newDeleteCmd(a),
		newClearCmd(a),
	)
	return root
}

func openStore(cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.Storage.Backend {
	case "", "dir":
		s, err := dirstore.Open(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case "bolt":
		s, err := boltstore.Open(filepath.Join(cfg.Storage.DataDir, "stash.db"))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// notFound reports a miss without failing the command. A missing entry
// is an answer, not an error, so the process still exits zero.
func notFound(cmd *cobra.Command) {
	fmt.Fprintln(cmd.ErrOrStderr(), "Stash does not exist")
}
