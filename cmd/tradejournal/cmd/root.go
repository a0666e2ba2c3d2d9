package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rustyeddy/tradejournal/config"
	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tradejournal",
	Short: "An offline-first trading journal",
	Long: `Tradejournal keeps a daily trading ledger built from broker statement
exports and keeps it in sync with a remote snapshot.

It provides tools for:
  - Importing MT4/MT5 style statements (XLSX or CSV, English or Arabic)
  - Recording withdrawals and daily results
  - Exporting the ledger to CSV or XLSX
  - Synchronising the ledger with a remote store, offline first
  - Serving a remote snapshot store over HTTP

Complete documentation is available at https://github.com/rustyeddy/tradejournal`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
			logCloser = nil
		}
	},
}

var (
	cfgFile string
	dbPath  string

	cfg       *config.Config
	logCloser io.Closer
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is "+config.DefaultPath()+" when present)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to the local journal database (overrides store.path)")
}

func setup() error {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(config.DefaultPath()); err == nil {
			path = config.DefaultPath()
		}
	}
	c, err := config.LoadFromFile(path)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.Store.Path = dbPath
	}
	cfg = c

	logger.SetLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		logCloser = logger.SetFile(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
	}
	return nil
}

// openStore opens the local key-value database.
func openStore() (*store.SQLite, error) {
	if dir := filepath.Dir(cfg.Store.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	kv, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return kv, nil
}

// openJournal opens the local store and loads the journal from it. Closing
// the returned store is the caller's job.
func openJournal() (*journal.Journal, *store.SQLite, error) {
	kv, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	j, err := journal.Open(kv, journal.Options{})
	if err != nil {
		kv.Close()
		return nil, nil, fmt.Errorf("load journal: %w", err)
	}
	return j, kv, nil
}
