package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"taskdeck/internal/query"
	"taskdeck/store"
)

// listOptions are the one-shot filter overrides for 'taskdeck list'. Empty
// fields fall back to the persisted filter state.
type listOptions struct {
	Status string
	Search string
	Year   string
	Month  string
	JSON   bool
}

// effectiveFilters merges the one-shot overrides over the persisted state.
func effectiveFilters(a *app, opts listOptions) query.Filters {
	f := query.Filters{
		Status: a.ctrl.Filter(),
		Search: a.ctrl.Search(),
		Year:   a.ctrl.YearFilter(),
		Month:  a.ctrl.MonthFilter(),
	}
	if opts.Status != "" {
		f.Status = opts.Status
	}
	if opts.Search != "" {
		f.Search = opts.Search
	}
	if opts.Year != "" {
		f.Year = opts.Year
	}
	if opts.Month != "" {
		f.Month = opts.Month
		// An explicit month implies its year.
		if parts := strings.SplitN(opts.Month, "-", 2); len(parts) == 2 {
			f.Year = parts[0]
		}
	}
	return f
}

// doList prints the active list's tasks through the filters.
func doList(a *app, opts listOptions, stdout io.Writer) error {
	folder := a.ctrl.CurrentFolder()
	if folder == nil {
		return fmt.Errorf("no active list")
	}

	all := a.ctrl.Tasks()
	filters := effectiveFilters(a, opts)
	visible := query.ApplyFilters(all, filters)
	totals := query.CountTotals(all)

	if opts.JSON {
		type taskJSON struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Completed   bool   `json:"completed"`
			CreatedAt   int64  `json:"createdAt"`
			CompletedAt *int64 `json:"completedAt,omitempty"`
			Subtasks    int    `json:"subtasks"`
		}
		output := make([]taskJSON, 0, len(visible))
		for _, t := range visible {
			output = append(output, taskJSON{
				ID:          t.ID,
				Title:       t.Title,
				Completed:   t.Completed,
				CreatedAt:   t.CreatedAt,
				CompletedAt: t.CompletedAt,
				Subtasks:    len(t.Subtasks),
			})
		}
		jsonBytes, err := json.Marshal(output)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, string(jsonBytes))
		return nil
	}

	_, _ = fmt.Fprintf(stdout, "%s — %d/%d done (%d%%)\n\n", folder.Name, totals.Completed, totals.Total, totals.Percent())

	if len(visible) == 0 {
		_, _ = fmt.Fprintln(stdout, "No tasks match.")
		return nil
	}

	for _, t := range visible {
		status := "[ ]"
		if t.Completed {
			status = "[x]"
		}
		created := store.Millis(t.CreatedAt).Format("2006-01-02")
		_, _ = fmt.Fprintf(stdout, "%s %s  (%s)\n", status, t.Title, created)
		for _, sub := range t.Subtasks {
			subStatus := "[ ]"
			if sub.Completed {
				subStatus = "[x]"
			}
			_, _ = fmt.Fprintf(stdout, "    %s %s\n", subStatus, sub.Title)
		}
	}
	return nil
}

// newListCmd creates the 'list' subcommand
func newListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show tasks in the active list",
		Long:  "Show the active list's tasks, optionally restricted by status, search text, year or month.",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			opts := listOptions{}
			opts.Status, _ = cmd.Flags().GetString("status")
			opts.Search, _ = cmd.Flags().GetString("search")
			opts.Year, _ = cmd.Flags().GetString("year")
			opts.Month, _ = cmd.Flags().GetString("month")
			opts.JSON, _ = cmd.Flags().GetBool("json")

			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return doList(app, opts, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	listCmd.Flags().StringP("status", "s", "", "Status filter (all, active, completed)")
	listCmd.Flags().String("search", "", "Title search text")
	listCmd.Flags().String("year", "", "Restrict to a year (YYYY)")
	listCmd.Flags().String("month", "", "Restrict to a month (YYYY-MM)")
	listCmd.Flags().Bool("json", false, "Output in JSON format")
	return listCmd
}

// newStatsCmd creates the 'stats' subcommand
func newStatsCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion activity for the active list",
		Long:  "Render a histogram of task completions, per month of a year or per day of a month.",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			yearFlag, _ := cmd.Flags().GetString("year")
			monthFlag, _ := cmd.Flags().GetString("month")

			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return doStats(app, yearFlag, monthFlag, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	statsCmd.Flags().String("year", "", "Year to chart (default: current year)")
	statsCmd.Flags().String("month", "", "Month to chart (1-12; switches to per-day buckets)")
	return statsCmd
}

// doStats renders the activity histogram as text bars.
func doStats(a *app, yearFlag, monthFlag string, stdout io.Writer) error {
	year := time.Now().Year()
	if yearFlag != "" {
		y, err := strconv.Atoi(yearFlag)
		if err != nil {
			return fmt.Errorf("invalid year: %q", yearFlag)
		}
		year = y
	}

	var month time.Month
	if monthFlag != "" {
		m, err := strconv.Atoi(monthFlag)
		if err != nil || m < 1 || m > 12 {
			return fmt.Errorf("invalid month: %q", monthFlag)
		}
		month = time.Month(m)
	}

	tasks := a.ctrl.Tasks()
	h := query.ActivityHistogram(tasks, year, month)

	if month != 0 {
		_, _ = fmt.Fprintf(stdout, "Completions in %s %d (%d total):\n\n", month, year, h.Total)
	} else {
		_, _ = fmt.Fprintf(stdout, "Completions in %d (%d total):\n\n", year, h.Total)
	}

	scale := h.Scale()
	for i, n := range h.Buckets {
		label := time.Month(i + 1).String()[:3]
		if month != 0 {
			label = fmt.Sprintf("%2d ", i+1)
		}
		bar := strings.Repeat("█", n*20/scale)
		_, _ = fmt.Fprintf(stdout, "%s %-20s %d\n", label, bar, n)
	}
	return nil
}

// newMonthsCmd creates the 'months' subcommand
func newMonthsCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	monthsCmd := &cobra.Command{
		Use:   "months",
		Short: "List months with task activity in the active list",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			yearFlag, _ := cmd.Flags().GetString("year")

			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			months := query.AvailableMonths(app.ctrl.Tasks(), yearFlag)
			if len(months) == 0 {
				_, _ = fmt.Fprintln(stdout, "No activity.")
				return nil
			}
			for _, m := range months {
				_, _ = fmt.Fprintf(stdout, "%s  %s\n", m.Key, m.Label())
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	monthsCmd.Flags().String("year", "", "Restrict to a year (YYYY)")
	return monthsCmd
}

// newYearsCmd creates the 'years' subcommand
func newYearsCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List years with task activity in the active list",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			years := query.AvailableYears(app.ctrl.Tasks())
			if len(years) == 0 {
				_, _ = fmt.Fprintln(stdout, "No activity.")
				return nil
			}
			for _, y := range years {
				_, _ = fmt.Fprintln(stdout, y)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
