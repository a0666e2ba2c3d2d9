package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/remote"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a remote snapshot store over HTTP",
	Long: `Run the HTTP snapshot store that the "http" remote driver talks to.
Snapshots are kept in a SQLite database.

Endpoints:
  GET /healthz
  GET /v1/snapshots/:uid
  PUT /v1/snapshots/:uid

Example:
  tradejournal serve --addr :8080 --token secret`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr  string
	serveToken string
	serveDB    string
)

const shutdownTimeout = 5 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "bearer token required by clients (overrides server.token)")
	serveCmd.Flags().StringVar(&serveDB, "db-path", "", "snapshot database (overrides server.db_path)")
}

func runServe(cmd *cobra.Command, args []string) error {
	sc := cfg.Server
	if serveAddr != "" {
		sc.Addr = serveAddr
	}
	if serveToken != "" {
		sc.Token = serveToken
	}
	if serveDB != "" {
		sc.DBPath = serveDB
	}

	snapshots, err := remote.NewGormStore(sc.DBPath)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer snapshots.Close()

	srv := &http.Server{
		Addr:              sc.Addr,
		Handler:           remote.NewServer(snapshots, sc.Token, sc.Mode).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		logger.Infof("serve: listening on %s (snapshots in %s)", sc.Addr, sc.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
