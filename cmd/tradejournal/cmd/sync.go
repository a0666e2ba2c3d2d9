package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/reconcile"
	"github.com/rustyeddy/tradejournal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errNoRemote = errors.New("no remote configured: set remote.driver in the config file")

var signinCmd = &cobra.Command{
	Use:   "signin <user-id>",
	Short: "Sign in and synchronise",
	Long: `Record the identity the journal is synchronised under and run a first
sync. The user id is opaque; it names the remote snapshot.

Example:
  tradejournal signin 4f1c9e --name "Sam"`,
	Args: cobra.ExactArgs(1),
	RunE: runSignin,
}

var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Forget the signed-in identity",
	Long:  `Sign out. The local journal is kept; sync state is forgotten.`,
	Args:  cobra.NoArgs,
	RunE:  runSignout,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the remote snapshot, merge it and push the result",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync identity and last sync time",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the journal in sync until interrupted",
	Long: `Poll the remote snapshot and push local changes as they happen.
Writes made to the journal database by other tradejournal commands are
picked up and pushed as well.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var (
	signinName  string
	signinEmail string
)

func init() {
	rootCmd.AddCommand(signinCmd)
	rootCmd.AddCommand(signoutCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)

	signinCmd.Flags().StringVar(&signinName, "name", "", "display name")
	signinCmd.Flags().StringVar(&signinEmail, "email", "", "email address")
}

func runSignin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	j, kv, err := openJournal()
	if err != nil {
		return err
	}
	defer kv.Close()

	e, rs, err := newEngine(ctx, j, kv, false)
	if err != nil {
		return err
	}
	if e == nil {
		return errNoRemote
	}
	defer rs.Close()
	defer e.Close()

	id := reconcile.Identity{UID: args[0], DisplayName: signinName, Email: signinEmail}
	if err := e.SignIn(ctx, id); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := e.Sync(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Signed in as %s\n", id.UID)
	printSyncStatus(cmd, e.Status())
	return nil
}

func runSignout(cmd *cobra.Command, args []string) error {
	kv, err := openStore()
	if err != nil {
		return err
	}
	defer kv.Close()

	if err := kv.Remove(reconcile.KeyIdentity, reconcile.KeyLastSynced); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed out")
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	j, kv, err := openJournal()
	if err != nil {
		return err
	}
	defer kv.Close()

	e, rs, err := newEngine(ctx, j, kv, false)
	if err != nil {
		return err
	}
	if e == nil {
		return errNoRemote
	}
	defer rs.Close()
	defer e.Close()

	ok, err := e.Resume(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return reconcile.ErrNotSignedIn
	}
	if err := e.Sync(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Synchronised")
	printSyncStatus(cmd, e.Status())
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	kv, err := openStore()
	if err != nil {
		return err
	}
	defer kv.Close()

	e := reconcile.New(nil, nil, kv, reconcile.Options{DisablePolling: true})
	id, ok, err := e.StoredIdentity()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintln(out, "Not signed in")
		return nil
	}
	fmt.Fprintf(out, "Signed in as: %s\n", id.UID)
	if id.DisplayName != "" {
		fmt.Fprintf(out, "Name:         %s\n", id.DisplayName)
	}
	last := "never"
	if v, ok, err := kv.Get(reconcile.KeyLastSynced); err == nil && ok && v != "" {
		last = v
	}
	fmt.Fprintf(out, "Last synced:  %s\n", last)
	fmt.Fprintf(out, "Remote:       %s\n", cfg.Remote.Driver)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	j, kv, err := openJournal()
	if err != nil {
		return err
	}
	defer kv.Close()

	g, ctx := errgroup.WithContext(cmd.Context())
	e, rs, err := newEngine(ctx, j, kv, true)
	if err != nil {
		return err
	}
	if e == nil {
		return errNoRemote
	}
	defer rs.Close()
	defer e.Close()

	ok, err := e.Resume(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return reconcile.ErrNotSignedIn
	}

	settle, _ := cfg.Sync.WatchSettleDuration()
	g.Go(func() error {
		return store.Watch(ctx, kv.Path(), settle, func() {
			stale, err := j.Stale()
			if err != nil {
				logger.Errorf("watch: read journal: %v", err)
				return
			}
			// our own merges and sync bookkeeping leave the book unchanged
			if !stale || !e.ExternalChanged() {
				return
			}
			if err := j.Reload(); err != nil {
				logger.Errorf("watch: reload journal: %v", err)
			}
		})
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", kv.Path())
	return g.Wait()
}

func printSyncStatus(cmd *cobra.Command, st reconcile.Status) {
	out := cmd.OutOrStdout()
	if !st.LastSynced.IsZero() {
		fmt.Fprintf(out, "  Last synced: %s\n", st.LastSynced.Local().Format(time.RFC1123))
	}
	if st.Pending {
		fmt.Fprintln(out, "  Local changes are waiting to be pushed")
	}
}
