package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskdeck/internal/credentials"
	"taskdeck/internal/utils"
	"taskdeck/internal/watcher"
)

// newLoginCmd creates the 'login' subcommand
func newLoginCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store the remote sync token",
		Long:  "Prompt for the sync token and store it in the system keyring under the configured user id.",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			appCfg, err := loadConfigOnly(cfg)
			if err != nil {
				return err
			}
			if appCfg.Sync.UserID == "" {
				return utils.ErrSyncNotEnabled()
			}

			stdin := cfg.Stdin
			if stdin == nil {
				stdin = os.Stdin
			}
			token, err := credentials.PromptToken(stdin, stdout, appCfg.Sync.UserID)
			if err != nil {
				return err
			}
			if token == "" {
				return fmt.Errorf("empty token")
			}

			mgr := credentials.NewManager()
			if err := mgr.Set(context.Background(), appCfg.Sync.UserID, token); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Token stored for %s\n", appCfg.Sync.UserID)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newLogoutCmd creates the 'logout' subcommand
func newLogoutCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored sync token",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			appCfg, err := loadConfigOnly(cfg)
			if err != nil {
				return err
			}
			if appCfg.Sync.UserID == "" {
				return utils.ErrSyncNotEnabled()
			}

			mgr := credentials.NewManager()
			if err := mgr.Delete(context.Background(), appCfg.Sync.UserID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Token removed for %s\n", appCfg.Sync.UserID)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newSyncCmd creates the 'sync' subcommand
func newSyncCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize with the remote store",
		Long:  "Pull the remote copy, adopt it if it is newer, and push the local dataset. With --watch, keep polling for remote changes and pushing local ones until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			watch, _ := cmd.Flags().GetBool("watch")

			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.reconciler == nil {
				return utils.ErrSyncNotEnabled()
			}

			ctx := context.Background()
			adopted := app.reconciler.Pull(ctx)
			if adopted {
				_, _ = fmt.Fprintln(stdout, "Adopted newer remote data.")
			}
			app.reconciler.Flush(ctx)
			_, _ = fmt.Fprintln(stdout, "Sync complete.")

			if !watch {
				return nil
			}
			return watchSync(ctx, app, cfg, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	syncCmd.Flags().Bool("watch", false, "Keep syncing until interrupted")
	return syncCmd
}

// watchSync polls the remote at the configured interval and watches the
// local store for writes by other processes, pushing them as they happen.
func watchSync(ctx context.Context, a *app, cfg *Config, stdout io.Writer) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	storePath := a.cfg.GetStorePath()
	if cfg.StorePath != "" {
		storePath = cfg.StorePath
	}
	w, err := watcher.New(watcher.Config{
		StorePath: storePath,
		OnChange: func() {
			a.reconciler.SchedulePush()
		},
	})
	if err == nil {
		if err := w.Start(); err != nil {
			utils.Warnf("store watcher disabled: %v", err)
		} else {
			defer w.Stop()
		}
	}

	_, _ = fmt.Fprintf(stdout, "Watching (poll every %s). Press Ctrl+C to stop.\n", a.cfg.GetPollInterval())
	a.reconciler.Subscribe(ctx, a.cfg.GetPollInterval())
	return nil
}
