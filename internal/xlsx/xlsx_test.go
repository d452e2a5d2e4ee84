package xlsx

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"taskdeck/internal/utils"
	"taskdeck/store"
)

// writeWorkbook builds a minimal workbook from string rows for import tests.
func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "import.xlsx")
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName error: %v", err)
		}
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow error: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	return path
}

func TestImportCompletedRow(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Title", "Status", "Created Date", "Completed Date"},
		{"Demo", "Completed", "2024-01-05", "2024-01-06"},
	})

	tasks, err := Import(path)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}

	got := tasks[0]
	if got.Title != "Demo" || !got.Completed {
		t.Errorf("task = %+v", got)
	}
	created := store.Millis(got.CreatedAt)
	if created.Year() != 2024 || created.Month() != time.January || created.Day() != 5 {
		t.Errorf("createdAt = %v, want 2024-01-05", created)
	}
	if got.CompletedAt == nil {
		t.Fatal("completed row must have CompletedAt")
	}
	completed := store.Millis(*got.CompletedAt)
	if completed.Day() != 6 {
		t.Errorf("completedAt = %v, want 2024-01-06", completed)
	}
	if got.UpdatedAt != *got.CompletedAt {
		t.Error("updatedAt should mirror completedAt for completed rows")
	}
}

func TestImportHeaderVariants(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"task", "done", "created date"},
		{"lowercase headers", "true", "01/05/2024"},
		{"numeric status", "1", "25/03/2024"},
		{"inactive", "no", ""},
	})

	tasks, err := Import(path)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("len(tasks) = %d, want 3", len(tasks))
	}
	if !tasks[0].Completed || !tasks[1].Completed || tasks[2].Completed {
		t.Errorf("completion flags = %v %v %v", tasks[0].Completed, tasks[1].Completed, tasks[2].Completed)
	}

	// Day-first heuristic applied to 25/03/2024.
	d := store.Millis(tasks[1].CreatedAt)
	if d.Month() != time.March || d.Day() != 25 {
		t.Errorf("createdAt = %v, want March 25", d)
	}

	// Missing date cell falls back to the import time, never zero.
	if tasks[2].CreatedAt == 0 {
		t.Error("missing created date must fall back to the import time")
	}
}

func TestImportDropsRowsWithoutTitle(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Title", "Status"},
		{"", "Completed"},
		{"  ", ""},
		{"kept", ""},
	})

	tasks, err := Import(path)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "kept" {
		t.Errorf("tasks = %v, want only the titled row", tasks)
	}
}

func TestImportCapsLongTitles(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Title"},
		{strings.Repeat("x", 300)},
		{strings.Repeat("é", store.MaxTitleLen+10)},
	})

	tasks, err := Import(path)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
	if got := len([]rune(tasks[0].Title)); got != store.MaxTitleLen {
		t.Errorf("ascii title rune count = %d, want %d", got, store.MaxTitleLen)
	}
	if got := len([]rune(tasks[1].Title)); got != store.MaxTitleLen {
		t.Errorf("multibyte title rune count = %d, want %d", got, store.MaxTitleLen)
	}
	if !utf8.ValidString(tasks[1].Title) {
		t.Error("capped multibyte title is not valid UTF-8")
	}
}

func TestImportErrors(t *testing.T) {
	// Unreadable file.
	_, err := Import(filepath.Join(t.TempDir(), "missing.xlsx"))
	var suggest *utils.ErrorWithSuggestion
	if !errors.As(err, &suggest) {
		t.Errorf("missing file error = %v, want ErrorWithSuggestion", err)
	}

	// Header only, no rows.
	empty := writeWorkbook(t, [][]interface{}{{"Title"}})
	if _, err := Import(empty); err == nil {
		t.Error("header-only workbook should fail")
	}

	// No recognizable title column.
	noTitle := writeWorkbook(t, [][]interface{}{
		{"Foo", "Bar"},
		{"a", "b"},
	})
	if _, err := Import(noTitle); err == nil {
		t.Error("workbook without a title column should fail")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	completed := time.Date(2024, time.January, 6, 18, 45, 0, 0, time.Local).UnixMilli()
	original := []store.Task{
		{
			ID:          "t1",
			Title:       "Ship release",
			Completed:   true,
			CreatedAt:   time.Date(2024, time.January, 5, 8, 30, 0, 0, time.Local).UnixMilli(),
			UpdatedAt:   completed,
			CompletedAt: &completed,
		},
		{
			ID:        "t2",
			Title:     "Write changelog",
			CreatedAt: time.Date(2024, time.February, 1, 9, 0, 0, 0, time.Local).UnixMilli(),
			UpdatedAt: time.Date(2024, time.February, 1, 9, 0, 0, 0, time.Local).UnixMilli(),
		},
	}

	path := filepath.Join(t.TempDir(), "export.xlsx")
	if err := Export(path, []Sheet{{Name: "Work", Tasks: original}}); err != nil {
		t.Fatalf("Export error: %v", err)
	}

	imported, err := Import(path)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if len(imported) != len(original) {
		t.Fatalf("len(imported) = %d, want %d", len(imported), len(original))
	}

	for i, got := range imported {
		want := original[i]
		if got.Title != want.Title || got.Completed != want.Completed {
			t.Errorf("task %d = %q/%v, want %q/%v", i, got.Title, got.Completed, want.Title, want.Completed)
		}
		if got.ID == want.ID {
			t.Errorf("task %d kept its id; import must generate fresh ids", i)
		}

		// Dates survive to minute resolution through the cell format.
		wantCreated := store.Millis(want.CreatedAt)
		gotCreated := store.Millis(got.CreatedAt)
		if !wantCreated.Truncate(time.Minute).Equal(gotCreated.Truncate(time.Minute)) {
			t.Errorf("task %d createdAt = %v, want %v", i, gotCreated, wantCreated)
		}
		if want.CompletedAt != nil {
			if got.CompletedAt == nil {
				t.Fatalf("task %d lost CompletedAt", i)
			}
			wantDone := store.Millis(*want.CompletedAt).Truncate(time.Minute)
			gotDone := store.Millis(*got.CompletedAt).Truncate(time.Minute)
			if !wantDone.Equal(gotDone) {
				t.Errorf("task %d completedAt = %v, want %v", i, gotDone, wantDone)
			}
		}
	}
}

func TestExportSkipsEmptySheetsAndErrorsWhenAllEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := Export(path, []Sheet{{Name: "Empty"}}); err == nil {
		t.Error("exporting no tasks should fail")
	}

	task := store.Task{ID: "t", Title: "x", CreatedAt: 1, UpdatedAt: 1}
	if err := Export(path, []Sheet{{Name: "Empty"}, {Name: "Full", Tasks: []store.Task{task}}}); err != nil {
		t.Fatalf("Export error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer func() { _ = f.Close() }()
	if got := f.GetSheetList(); len(got) != 1 || got[0] != "Full" {
		t.Errorf("sheets = %v, want only Full", got)
	}
}

func TestSheetNameSanitization(t *testing.T) {
	taken := make(map[string]bool)

	if got := SheetName("Work / Personal!", taken); got != "Work___Personal_" {
		t.Errorf("SheetName = %q", got)
	}
	// Collision gets a numeric suffix.
	if got := SheetName("Work / Personal!", taken); got != "Work___Personal__1" {
		t.Errorf("collision SheetName = %q", got)
	}

	long := "This List Name Is Way Too Long For A Worksheet"
	got := SheetName(long, taken)
	if len(got) > 31 {
		t.Errorf("len(SheetName) = %d, want <= 31", len(got))
	}
	// A colliding long name still fits after the suffix.
	again := SheetName(long, taken)
	if len(again) > 31 || again == got {
		t.Errorf("second long SheetName = %q (first %q)", again, got)
	}
}
