package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jon4hz/moodiary/internal/config"
	"github.com/jon4hz/moodiary/internal/i18n"
	"github.com/jon4hz/moodiary/internal/kv"
	"github.com/jon4hz/moodiary/internal/storage"
	"github.com/jon4hz/moodiary/internal/storage/local"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Remember a user for the command line",
	Long:  `Look up an existing user and keep it as the current user of the command line in the local store.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithSession(cmd.Context(), func(st *storage.Storage, slot storage.SessionSlot) error {
			return loginUser(cmd.Context(), os.Stdout, st, slot, args[0])
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current command line user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWithSession(cmd.Context(), func(st *storage.Storage, slot storage.SessionSlot) error {
			return whoami(os.Stdout, st, slot)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the current command line user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWithSession(cmd.Context(), func(st *storage.Storage, slot storage.SessionSlot) error {
			return logoutUser(os.Stdout, st, slot)
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, whoamiCmd, logoutCmd)
}

// runWithSession opens the storage and the slot the command line session lives in.
func runWithSession(ctx context.Context, fn func(*storage.Storage, storage.SessionSlot) error) error {
	cfg, st, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	slot, closeSlot, err := sessionSlot(cfg, st)
	if err != nil {
		return err
	}
	defer closeSlot() //nolint:errcheck

	return fn(st, slot)
}

// sessionSlot returns the slot of a local backend. A remote backend keeps its
// session in the configured local store, like a browser keeps it on the client.
func sessionSlot(cfg *config.Config, st *storage.Storage) (*local.KVSlot, func() error, error) {
	if store, ok := st.LocalStore(); ok {
		return local.NewKVSlot(store), func() error { return nil }, nil
	}
	if cfg.Local == nil {
		return nil, nil, errors.New("no local store configured for the session")
	}
	store, err := kv.Open(kv.Options{
		Kind:     cfg.Local.Store,
		Path:     cfg.Local.Path,
		RedisURL: cfg.Local.RedisURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local store: %w", err)
	}
	return local.NewKVSlot(store), store.Close, nil
}

func loginUser(ctx context.Context, w io.Writer, st *storage.Storage, slot storage.SessionSlot, username string) error {
	user, err := st.LoginUser(ctx, slot, username)
	if err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	if user == nil {
		return errors.New(st.Translator().T(i18n.UserNotFound))
	}
	fmt.Fprintf(w, "Logged in as %s\n", describeUser(user.Username, user.IsAdmin))
	return nil
}

func whoami(w io.Writer, st *storage.Storage, slot storage.SessionSlot) error {
	user := st.CurrentUser(slot)
	if user == nil {
		return errors.New(st.Translator().T(i18n.LoginRequired))
	}
	fmt.Fprintln(w, describeUser(user.Username, user.IsAdmin))
	return nil
}

func logoutUser(w io.Writer, st *storage.Storage, slot storage.SessionSlot) error {
	if err := st.LogoutUser(slot); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	fmt.Fprintln(w, "Logged out")
	return nil
}

func describeUser(name string, admin bool) string {
	if admin {
		return name + " (admin)"
	}
	return name
}
