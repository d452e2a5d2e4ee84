// Package xlsx translates between the task model and .xlsx workbooks:
// one sheet per folder on export, and a tolerant first-sheet reader on
// import that copes with the header and date variations of foreign
// exports.
package xlsx

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"taskdeck/internal/utils"
	"taskdeck/store"
)

// column identifies a recognized header.
type column int

const (
	colUnknown column = iota
	colTitle
	colStatus
	colCreatedDate
	colCreatedTime
	colCompletedDate
	colCompletedTime
)

// matchColumn maps a header cell to a column, tolerating case and
// spacing differences and the common synonyms.
func matchColumn(header string) column {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "") {
	case "title", "task", "name":
		return colTitle
	case "status", "completed", "done":
		return colStatus
	case "createddate", "created", "date":
		return colCreatedDate
	case "createdtime":
		return colCreatedTime
	case "completeddate", "completiondate":
		return colCompletedDate
	case "completedtime", "completiontime":
		return colCompletedTime
	}
	return colUnknown
}

// isCompletedValue reports whether a status cell marks the row completed.
func isCompletedValue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed", "true", "1", "done", "yes":
		return true
	}
	return false
}

// Import reads tasks from the first sheet of the workbook at path. The
// first row is the header; rows without a recognizable title are dropped.
// Timestamps that cannot be parsed fall back to the import time so every
// returned task is well formed.
func Import(path string) ([]store.Task, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, utils.ErrImportUnreadable(path, err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, utils.ErrImportEmpty(path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, utils.ErrImportUnreadable(path, err)
	}
	if len(rows) < 2 {
		return nil, utils.ErrImportEmpty(path)
	}

	columns := make(map[column]int)
	for i, header := range rows[0] {
		col := matchColumn(header)
		if col == colUnknown {
			continue
		}
		if _, taken := columns[col]; !taken {
			columns[col] = i
		}
	}
	if _, ok := columns[colTitle]; !ok {
		return nil, utils.ErrImportEmpty(path)
	}

	now := store.Now()
	cell := func(row []string, col column) string {
		idx, ok := columns[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	tasks := make([]store.Task, 0, len(rows)-1)
	for _, row := range rows[1:] {
		title := store.CleanTitle(cell(row, colTitle))
		if title == "" {
			continue
		}

		t := store.Task{
			ID:        store.GenerateID(),
			Title:     title,
			Completed: isCompletedValue(cell(row, colStatus)),
			Subtasks:  []store.Subtask{},
		}

		if created, ok := ParseDateTime(cell(row, colCreatedDate), cell(row, colCreatedTime)); ok {
			t.CreatedAt = created
		} else {
			t.CreatedAt = now
		}

		if t.Completed {
			if completed, ok := ParseDateTime(cell(row, colCompletedDate), cell(row, colCompletedTime)); ok {
				t.CompletedAt = &completed
			} else {
				ts := t.CreatedAt
				t.CompletedAt = &ts
			}
			t.UpdatedAt = *t.CompletedAt
		} else {
			t.UpdatedAt = t.CreatedAt
		}

		tasks = append(tasks, t)
	}

	if len(tasks) == 0 {
		return nil, utils.ErrImportEmpty(path)
	}
	utils.Debugf("imported %d task(s) from %s", len(tasks), path)
	return tasks, nil
}
