package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"taskdeck/internal/config"
	"taskdeck/internal/credentials"
	"taskdeck/internal/state"
	"taskdeck/internal/sync"
	"taskdeck/internal/utils"
	"taskdeck/store"
	"taskdeck/store/diskstore"
	"taskdeck/store/sqlite"
)

// Version is set at build time
var Version = "dev"

// Config holds CLI-level configuration
type Config struct {
	ConfigPath string
	StorePath  string // Override for testing
	Verbose    bool
	Yes        bool      // Skip confirmation prompts
	Stdin      io.Reader // Confirmation input (defaults to os.Stdin)
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewTaskdeck(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// NewTaskdeck creates the root command with injectable IO
func NewTaskdeck(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}

	cmd := &cobra.Command{
		Use:     "taskdeck",
		Short:   "A personal task list manager",
		Long:    "taskdeck manages folders of tasks with filtering, import/export and optional remote sync.",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return doList(app, listOptions{}, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().BoolP("yes", "y", false, "Skip confirmation prompts")
	cmd.PersistentFlags().String("config", "", "Path to config file")

	cmd.AddCommand(newFolderCmd(stdout, cfg))
	cmd.AddCommand(newAddCmd(stdout, cfg))
	cmd.AddCommand(newDoneCmd(stdout, cfg))
	cmd.AddCommand(newUndoneCmd(stdout, cfg))
	cmd.AddCommand(newEditCmd(stdout, cfg))
	cmd.AddCommand(newDeleteCmd(stdout, cfg))
	cmd.AddCommand(newClearCmd(stdout, cfg))
	cmd.AddCommand(newSubCmd(stdout, cfg))
	cmd.AddCommand(newListCmd(stdout, cfg))
	cmd.AddCommand(newStatsCmd(stdout, cfg))
	cmd.AddCommand(newMonthsCmd(stdout, cfg))
	cmd.AddCommand(newYearsCmd(stdout, cfg))
	cmd.AddCommand(newExportCmd(stdout, cfg))
	cmd.AddCommand(newImportCmd(stdout, cfg))
	cmd.AddCommand(newLoginCmd(stdout, stderr, cfg))
	cmd.AddCommand(newLogoutCmd(stdout, cfg))
	cmd.AddCommand(newSyncCmd(stdout, cfg))
	cmd.AddCommand(newTUICmd(stdout, cfg))

	return cmd
}

// applyGlobalFlags folds persistent flag values into the CLI config.
func applyGlobalFlags(cmd *cobra.Command, cfg *Config) {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Verbose = true
		utils.SetVerboseMode(true)
	}
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		cfg.Yes = true
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg.ConfigPath = path
	}
}

// loadConfigOnly loads and validates the config without opening the store.
// Credential commands use it so they work even when the store is locked.
func loadConfigOnly(cliCfg *Config) (*config.Config, error) {
	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app bundles everything a command run needs: the loaded config, the open
// store and the controller over it, plus the optional sync reconciler.
type app struct {
	cfg        *config.Config
	kv         store.KV
	ctrl       *state.Controller
	mirror     func()
	reconciler *sync.Reconciler
	remote     *sync.Client
}

// openApp loads configuration, opens the local store (and the secondary
// recovery channel), builds the controller and wires sync when enabled and
// a token is available.
func openApp(cliCfg *Config) (*app, error) {
	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Verbose {
		utils.SetVerboseMode(true)
	}

	storePath := cfg.GetStorePath()
	if cliCfg.StorePath != "" {
		storePath = cliCfg.StorePath
	}

	var kv store.KV
	if cfg.Store.Driver == "disk" {
		kv = diskstore.New(storePath)
	} else {
		kv, err = sqlite.New(storePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
	}

	// The recovery channel is best-effort: without it, recovery just has
	// fewer places to look.
	secondary := store.KV(diskstore.New(cfg.GetSecondaryPath()))

	a := &app{
		cfg:  cfg,
		kv:   kv,
		ctrl: state.Load(kv, secondary),
	}
	if secondary != nil {
		a.mirror = mirrorFunc(a.ctrl, secondary)
		a.mirror()
		a.ctrl.OnMutate(a.mirror)
	}

	if cfg.IsSyncEnabled() {
		if err := a.wireSync(); err != nil {
			utils.Warnf("sync unavailable: %v", err)
		}
	}

	return a, nil
}

// mirrorFunc returns a hook that copies the dataset into the recovery
// channel so a lost primary store can be rebuilt from it.
func mirrorFunc(ctrl *state.Controller, secondary store.KV) func() {
	return func() {
		ds := ctrl.Snapshot()
		store.WriteJSON(secondary, store.KeyFolders, ds.Folders)
		store.WriteJSON(secondary, store.KeyTasks, ds.Tasks)
		store.WriteJSON(secondary, store.KeyLastModified, ds.LastModified)
	}
}

// wireSync builds the remote client and reconciler and chains the push
// trigger onto the controller's mutation hook.
func (a *app) wireSync() error {
	mgr := credentials.NewManager()
	info, err := mgr.Get(context.Background(), a.cfg.Sync.UserID)
	if err != nil {
		return err
	}
	if !info.Found {
		return utils.ErrCredentialsNotFound(a.cfg.Sync.UserID)
	}

	remote, err := sync.NewClient(sync.Config{
		Token:   info.Token,
		BaseURL: a.cfg.Sync.BaseURL,
	})
	if err != nil {
		return err
	}
	a.remote = remote

	a.reconciler = sync.NewReconciler(remote, a.cfg.GetDebounce(), a.ctrl.Snapshot, a.ctrl.ReplaceAll)

	mirror := a.mirror
	a.ctrl.OnMutate(func() {
		if mirror != nil {
			mirror()
		}
		a.reconciler.SchedulePush()
	})
	a.reconciler.HandleIdentity(context.Background(), &sync.User{
		ID:          a.cfg.Sync.UserID,
		Email:       a.cfg.Sync.Email,
		DisplayName: a.cfg.Sync.DisplayName,
	})
	return nil
}

// Close flushes any pending push and releases the store.
func (a *app) Close() {
	if a.reconciler != nil {
		a.reconciler.Flush(context.Background())
	}
	if a.remote != nil {
		_ = a.remote.Close()
	}
	_ = a.kv.Close()
}

// findTask locates a task in the active folder by case-insensitive title
// substring, preferring an exact title match.
func findTask(ctrl *state.Controller, term string) (*store.Task, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	var partial *store.Task
	for _, t := range ctrl.Tasks() {
		if strings.EqualFold(t.Title, term) {
			match := t
			return &match, nil
		}
		if partial == nil && strings.Contains(strings.ToLower(t.Title), needle) {
			match := t
			partial = &match
		}
	}
	if partial != nil {
		return partial, nil
	}
	return nil, utils.ErrTaskNotFound(term)
}

// confirm asks a yes/no question on stdout and reads the answer from the
// configured input. --yes answers every question affirmatively.
func confirm(cfg *Config, stdout io.Writer, prompt string) bool {
	if cfg.Yes {
		return true
	}
	_, _ = fmt.Fprintf(stdout, "%s [y/N]: ", prompt)
	var answer string
	_, _ = fmt.Fscanln(cfg.Stdin, &answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
