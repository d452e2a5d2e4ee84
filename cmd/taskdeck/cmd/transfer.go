package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taskdeck/internal/utils"
	"taskdeck/internal/xlsx"
)

// newExportCmd creates the 'export' subcommand
func newExportCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export [file.xlsx]",
		Short: "Export tasks to an .xlsx workbook",
		Long:  "Export the active list (or every list with --all) to a workbook, one sheet per list.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			all, _ := cmd.Flags().GetBool("all")

			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			var sheets []xlsx.Sheet
			if all {
				for _, f := range app.ctrl.Folders() {
					sheets = append(sheets, xlsx.Sheet{Name: f.Name, Tasks: app.ctrl.TasksFor(f.ID)})
				}
			} else {
				folder := app.ctrl.CurrentFolder()
				if folder == nil {
					return fmt.Errorf("no active list")
				}
				sheets = append(sheets, xlsx.Sheet{Name: folder.Name, Tasks: app.ctrl.Tasks()})
			}

			if err := xlsx.Export(args[0], sheets); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Exported to %s\n", args[0])
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	exportCmd.Flags().Bool("all", false, "Export every list, one sheet each")
	return exportCmd
}

// newImportCmd creates the 'import' subcommand
func newImportCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import [file.xlsx]",
		Short: "Import tasks from an .xlsx workbook",
		Long:  "Read tasks from the first sheet of a workbook into a list. By default imported tasks are merged in at the top; --replace swaps the list's tasks entirely.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			replace, _ := cmd.Flags().GetBool("replace")
			folderName, _ := cmd.Flags().GetString("folder")

			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			folder := app.ctrl.CurrentFolder()
			if folderName != "" {
				folder = app.ctrl.FolderByName(folderName)
				if folder == nil {
					return utils.ErrFolderNotFound(folderName)
				}
			}
			if folder == nil {
				return fmt.Errorf("no active list")
			}

			tasks, err := xlsx.Import(args[0])
			if err != nil {
				return err
			}

			if replace {
				count := len(app.ctrl.TasksFor(folder.ID))
				prompt := fmt.Sprintf("Replace the %d task(s) in %q with %d imported task(s)?", count, folder.Name, len(tasks))
				if !confirm(cfg, stdout, prompt) {
					_, _ = fmt.Fprintln(stdout, "Aborted.")
					return nil
				}
				app.ctrl.ReplaceTasks(folder.ID, tasks)
			} else {
				app.ctrl.PrependTasks(folder.ID, tasks)
			}

			_, _ = fmt.Fprintf(stdout, "Imported %d task(s) into %s\n", len(tasks), folder.Name)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	importCmd.Flags().Bool("replace", false, "Replace the list's tasks instead of merging")
	importCmd.Flags().String("folder", "", "Target list (default: active list)")
	return importCmd
}
