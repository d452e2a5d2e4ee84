package xlsx

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"taskdeck/store"
)

// Sheet pairs a folder name with its tasks for export.
type Sheet struct {
	Name  string
	Tasks []store.Task
}

var exportHeader = []interface{}{
	"Title", "Status", "Created Date", "Created Time", "Completed Date", "Completed Time",
}

const maxSheetName = 31

// SheetName sanitizes a folder name into a legal, unique worksheet name:
// non-alphanumeric runs become underscores, the result is capped at 31
// characters, and collisions get a numeric suffix. taken is updated with
// the chosen name.
func SheetName(name string, taken map[string]bool) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	base := b.String()
	if base == "" {
		base = "Sheet"
	}
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}

	candidate := base
	for n := 1; taken[candidate]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		trimmed := base
		if len(trimmed)+len(suffix) > maxSheetName {
			trimmed = trimmed[:maxSheetName-len(suffix)]
		}
		candidate = trimmed + suffix
	}
	taken[candidate] = true
	return candidate
}

// Export writes one worksheet per non-empty sheet to an .xlsx workbook at
// path. It errors when no sheet has any tasks.
func Export(path string, sheets []Sheet) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	taken := make(map[string]bool)
	wrote := 0
	for _, s := range sheets {
		if len(s.Tasks) == 0 {
			continue
		}
		name := SheetName(s.Name, taken)
		if wrote == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return err
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return err
			}
		}
		if err := writeSheet(f, name, s.Tasks); err != nil {
			return err
		}
		wrote++
	}
	if wrote == 0 {
		return fmt.Errorf("no tasks to export")
	}

	return f.SaveAs(path)
}

// writeSheet fills one worksheet: a header row, then one row per task.
func writeSheet(f *excelize.File, sheet string, tasks []store.Task) error {
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return err
	}
	for i, t := range tasks {
		status := "Active"
		if t.Completed {
			status = "Completed"
		}
		createdDate, createdTime := formatStamp(t.CreatedAt)
		var completedDate, completedTime string
		if t.CompletedAt != nil {
			completedDate, completedTime = formatStamp(*t.CompletedAt)
		}
		row := []interface{}{t.Title, status, createdDate, createdTime, completedDate, completedTime}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// formatStamp renders an epoch-millisecond timestamp as the date and time
// cell pair the importer round-trips.
func formatStamp(ms int64) (date, clock string) {
	t := store.Millis(ms)
	return t.Format("Jan 02, 2006"), t.Format("03:04 PM")
}
