package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taskdeck/internal/query"
	"taskdeck/internal/utils"
)

// newFolderCmd creates the 'folder' subcommand for list management
func newFolderCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	folderCmd := &cobra.Command{
		Use:     "folder",
		Aliases: []string{"lists"},
		Short:   "Manage task lists",
		Long:    "View all lists or manage lists with subcommands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return doFolderView(app, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	folderCmd.AddCommand(newFolderCreateCmd(stdout, cfg))
	folderCmd.AddCommand(newFolderRenameCmd(stdout, cfg))
	folderCmd.AddCommand(newFolderDeleteCmd(stdout, cfg))
	folderCmd.AddCommand(newFolderSwitchCmd(stdout, cfg))

	return folderCmd
}

// doFolderView displays all lists with their task counts
func doFolderView(a *app, stdout io.Writer) error {
	folders := a.ctrl.Folders()
	currentID := a.ctrl.CurrentFolderID()

	_, _ = fmt.Fprintf(stdout, "Lists (%d):\n\n", len(folders))
	_, _ = fmt.Fprintf(stdout, "  %-24s %-6s %s\n", "NAME", "TASKS", "DONE")
	for _, f := range folders {
		marker := " "
		if f.ID == currentID {
			marker = "*"
		}
		totals := query.CountTotals(a.ctrl.TasksFor(f.ID))
		_, _ = fmt.Fprintf(stdout, "%s %-24s %-6d %d%%\n", marker, f.Name, totals.Total, totals.Percent())
	}
	return nil
}

// newFolderCreateCmd creates the 'folder create' subcommand
func newFolderCreateCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new list",
		Long:  "Create a new task list with the given name and make it active.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			f, err := app.ctrl.CreateFolder(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Created list: %s\n", f.Name)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newFolderRenameCmd creates the 'folder rename' subcommand
func newFolderRenameCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "rename [name] [new-name]",
		Short: "Rename a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			f := app.ctrl.FolderByName(args[0])
			if f == nil {
				return utils.ErrFolderNotFound(args[0])
			}
			if err := app.ctrl.RenameFolder(f.ID, args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Renamed list: %s -> %s\n", args[0], args[1])
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newFolderDeleteCmd creates the 'folder delete' subcommand
func newFolderDeleteCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a list and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			f := app.ctrl.FolderByName(args[0])
			if f == nil {
				return utils.ErrFolderNotFound(args[0])
			}
			totals := query.CountTotals(app.ctrl.TasksFor(f.ID))
			prompt := fmt.Sprintf("Delete list %q and its %d task(s)?", f.Name, totals.Total)
			if !confirm(cfg, stdout, prompt) {
				_, _ = fmt.Fprintln(stdout, "Aborted.")
				return nil
			}
			if err := app.ctrl.DeleteFolder(f.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Deleted list: %s\n", f.Name)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newFolderSwitchCmd creates the 'folder switch' subcommand
func newFolderSwitchCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "switch [name]",
		Short: "Make a list the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			f := app.ctrl.FolderByName(args[0])
			if f == nil {
				return utils.ErrFolderNotFound(args[0])
			}
			app.ctrl.SwitchFolder(f.ID)
			_, _ = fmt.Fprintf(stdout, "Switched to list: %s\n", f.Name)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
