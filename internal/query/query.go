// Package query computes the derived views every rendering surface reads:
// counts, filtered task sequences, the month/year choices the filters can
// offer, and the completion activity histogram. Everything here is a pure
// function over task slices; nothing mutates.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"taskdeck/store"
)

// Filters is the filter state applied to a folder's task list. Zero
// values mean "no restriction"; Status accepts "all", "active" and
// "completed".
type Filters struct {
	Status string
	Search string
	Year   string // "YYYY"
	Month  string // "YYYY-MM"
}

// Totals summarizes a task list.
type Totals struct {
	Total     int
	Completed int
}

// CountTotals counts all and completed tasks.
func CountTotals(tasks []store.Task) Totals {
	t := Totals{Total: len(tasks)}
	for _, task := range tasks {
		if task.Completed {
			t.Completed++
		}
	}
	return t
}

// Percent returns the completion percentage, rounded, 0 for an empty list.
func (t Totals) Percent() int {
	if t.Total == 0 {
		return 0
	}
	return int(float64(t.Completed)/float64(t.Total)*100 + 0.5)
}

// ApplyFilters returns the tasks matching every active filter, preserving
// order. Status and the year/month scoping (createdAt-based) apply first;
// a search query then gates inclusion by case-insensitive title substring,
// so all four conditions must hold.
func ApplyFilters(tasks []store.Task, f Filters) []store.Task {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]store.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Status == "active" && t.Completed {
			continue
		}
		if f.Status == "completed" && !t.Completed {
			continue
		}
		created := store.Millis(t.CreatedAt)
		if f.Year != "" && strconv.Itoa(created.Year()) != f.Year {
			continue
		}
		if f.Month != "" && created.Format("2006-01") != f.Month {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(t.Title), needle) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Month identifies one calendar month offered by the month filter.
type Month struct {
	Key   string // "YYYY-MM"
	Year  int
	Month time.Month
}

// Label renders the month for display, e.g. "January 2026".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month.String(), m.Year)
}

// AvailableMonths derives the months any task was created or completed in,
// restricted to yearFilter when set, sorted newest first.
func AvailableMonths(tasks []store.Task, yearFilter string) []Month {
	seen := make(map[string]Month)
	for _, t := range tasks {
		for _, ts := range timestampsOf(t) {
			d := store.Millis(ts)
			if yearFilter != "" && strconv.Itoa(d.Year()) != yearFilter {
				continue
			}
			key := d.Format("2006-01")
			seen[key] = Month{Key: key, Year: d.Year(), Month: d.Month()}
		}
	}
	out := make([]Month, 0, len(seen))
	for _, m := range seen {
		out = append(out, m)
	}
	sortMonthsDesc(out)
	return out
}

// AvailableYears derives the years any task was created or completed in,
// sorted newest first.
func AvailableYears(tasks []store.Task) []int {
	seen := make(map[int]bool)
	for _, t := range tasks {
		for _, ts := range timestampsOf(t) {
			seen[store.Millis(ts).Year()] = true
		}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// timestampsOf lists the timestamps that make a task visible in a period:
// creation always, completion when present.
func timestampsOf(t store.Task) []int64 {
	if t.CompletedAt != nil {
		return []int64{t.CreatedAt, *t.CompletedAt}
	}
	return []int64{t.CreatedAt}
}

func sortMonthsDesc(months []Month) {
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year > months[j].Year
		}
		return months[i].Month > months[j].Month
	})
}

// Histogram is a sequence of completion counts, one bucket per calendar
// day (month view) or per calendar month (year view).
type Histogram struct {
	Buckets []int
	Total   int
}

// Scale returns the denominator for rendering bar heights: the largest
// bucket, never less than 1.
func (h Histogram) Scale() int {
	max := 1
	for _, n := range h.Buckets {
		if n > max {
			max = n
		}
	}
	return max
}

// ActivityHistogram buckets task completions. With month set (1..12) it
// produces one bucket per day of that month in year; with month zero it
// produces twelve buckets, one per month of year. Only tasks with a
// completion timestamp contribute.
func ActivityHistogram(tasks []store.Task, year int, month time.Month) Histogram {
	var h Histogram
	if month != 0 {
		h.Buckets = make([]int, daysIn(year, month))
	} else {
		h.Buckets = make([]int, 12)
	}
	for _, t := range tasks {
		if t.CompletedAt == nil {
			continue
		}
		d := store.Millis(*t.CompletedAt)
		if d.Year() != year {
			continue
		}
		if month != 0 {
			if d.Month() != month {
				continue
			}
			h.Buckets[d.Day()-1]++
		} else {
			h.Buckets[int(d.Month())-1]++
		}
		h.Total++
	}
	return h
}

// daysIn returns the number of days in a month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}
