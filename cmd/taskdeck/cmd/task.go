package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"taskdeck/internal/state"
	"taskdeck/internal/utils"
	"taskdeck/store"
)

// findSubtask locates a subtask by case-insensitive title substring.
func findSubtask(subs []store.Subtask, term string) *store.Subtask {
	needle := strings.ToLower(strings.TrimSpace(term))
	for i := range subs {
		if strings.Contains(strings.ToLower(subs[i].Title), needle) {
			return &subs[i]
		}
	}
	return nil
}

// newAddCmd creates the 'add' subcommand
func newAddCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task to the active list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			t, err := app.ctrl.AddTask(strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Added: %s\n", t.Title)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// setCompleted marks the matching task completed or active.
func setCompleted(a *app, term string, completed bool, stdout io.Writer) error {
	t, err := findTask(a.ctrl, term)
	if err != nil {
		return err
	}
	a.ctrl.UpdateTask(t.ID, state.TaskUpdate{Completed: &completed})
	if completed {
		_, _ = fmt.Fprintf(stdout, "Completed: %s\n", t.Title)
	} else {
		_, _ = fmt.Fprintf(stdout, "Reopened: %s\n", t.Title)
	}
	return nil
}

// newDoneCmd creates the 'done' subcommand
func newDoneCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "done [task]",
		Short: "Mark a task completed",
		Long:  "Mark the task matching the given title (or substring) completed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return setCompleted(app, args[0], true, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newUndoneCmd creates the 'undone' subcommand
func newUndoneCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "undone [task]",
		Short: "Mark a completed task active again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return setCompleted(app, args[0], false, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newEditCmd creates the 'edit' subcommand
func newEditCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	editCmd := &cobra.Command{
		Use:   "edit [task]",
		Short: "Edit a task's title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			title, _ := cmd.Flags().GetString("title")
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("--title is required")
			}

			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			t, err := findTask(app.ctrl, args[0])
			if err != nil {
				return err
			}
			app.ctrl.UpdateTask(t.ID, state.TaskUpdate{Title: &title})
			_, _ = fmt.Fprintf(stdout, "Updated: %s\n", strings.TrimSpace(title))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	editCmd.Flags().String("title", "", "New task title")
	return editCmd
}

// newDeleteCmd creates the 'delete' subcommand
func newDeleteCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [task]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			t, err := findTask(app.ctrl, args[0])
			if err != nil {
				return err
			}
			if !confirm(cfg, stdout, fmt.Sprintf("Delete task %q?", t.Title)) {
				_, _ = fmt.Fprintln(stdout, "Aborted.")
				return nil
			}
			app.ctrl.DeleteTask(t.ID)
			_, _ = fmt.Fprintf(stdout, "Deleted: %s\n", t.Title)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newClearCmd creates the 'clear' subcommand
func newClearCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all completed tasks from the active list",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			removed := app.ctrl.ClearCompleted()
			_, _ = fmt.Fprintf(stdout, "Removed %d completed task(s)\n", removed)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newSubCmd creates the 'sub' subcommand group for subtasks
func newSubCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "sub",
		Short: "Manage subtasks of a task",
	}

	subCmd.AddCommand(&cobra.Command{
		Use:   "add [task] [title]",
		Short: "Add a subtask to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			t, err := findTask(app.ctrl, args[0])
			if err != nil {
				return err
			}
			if err := app.ctrl.AddSubtask(t.ID, args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Added subtask to %s: %s\n", t.Title, strings.TrimSpace(args[1]))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	subCmd.AddCommand(&cobra.Command{
		Use:   "done [task] [subtask]",
		Short: "Toggle a subtask's completion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			t, err := findTask(app.ctrl, args[0])
			if err != nil {
				return err
			}
			sub := findSubtask(t.Subtasks, args[1])
			if sub == nil {
				return utils.ErrTaskNotFound(args[1])
			}
			completed := !sub.Completed
			app.ctrl.UpdateSubtask(t.ID, sub.ID, state.SubtaskUpdate{Completed: &completed})
			if completed {
				_, _ = fmt.Fprintf(stdout, "Completed subtask: %s\n", sub.Title)
			} else {
				_, _ = fmt.Fprintf(stdout, "Reopened subtask: %s\n", sub.Title)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	subCmd.AddCommand(&cobra.Command{
		Use:   "del [task] [subtask]",
		Short: "Delete a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			t, err := findTask(app.ctrl, args[0])
			if err != nil {
				return err
			}
			sub := findSubtask(t.Subtasks, args[1])
			if sub == nil {
				return utils.ErrTaskNotFound(args[1])
			}
			app.ctrl.DeleteSubtask(t.ID, sub.ID)
			_, _ = fmt.Fprintf(stdout, "Deleted subtask: %s\n", sub.Title)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return subCmd
}
