package state

import (
	"encoding/json"

	"taskdeck/internal/utils"
	"taskdeck/store"
)

// recoverLegacy runs only while the current-version folder collection is
// empty. It scans, in order: the secondary persistence channel for
// current-version keys, then the older flat task-array formats, which get
// normalized into a synthesized "Recovered Tasks" folder. Each step is
// non-fatal; whatever it yields is persisted by the caller's load path.
func (c *Controller) recoverLegacy(secondary store.KV) {
	if secondary != nil {
		var folders []store.Folder
		if store.ReadJSON(secondary, store.KeyFolders, &folders) && len(folders) > 0 {
			c.folders = folders
			var tasks map[string][]store.Task
			if store.ReadJSON(secondary, store.KeyTasks, &tasks) && tasks != nil {
				c.tasks = tasks
			}
			utils.Infof("recovered %d list(s) from secondary storage", len(folders))
			c.persist()
			return
		}
	}

	for _, key := range store.LegacyTaskKeys {
		raw := c.kv.Read(key, nil)
		if len(raw) == 0 && secondary != nil {
			raw = secondary.Read(key, nil)
		}
		if len(raw) == 0 {
			continue
		}
		recovered := normalizeLegacyTasks(raw, c.nowFn())
		if len(recovered) == 0 {
			continue
		}
		folder := store.Folder{ID: store.GenerateID(), Name: "Recovered Tasks", CreatedAt: c.nowFn()}
		c.folders = append(c.folders, folder)
		c.tasks[folder.ID] = recovered
		utils.Infof("recovered %d task(s) from a previous version into %q", len(recovered), folder.Name)
		c.persist()
		return
	}
}

// legacyTask is the union of the field names older formats used.
type legacyTask struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Name        string          `json:"name"`
	Text        string          `json:"text"`
	Completed   bool            `json:"completed"`
	Done        bool            `json:"done"`
	CreatedAt   int64           `json:"createdAt"`
	UpdatedAt   int64           `json:"updatedAt"`
	CompletedAt *int64          `json:"completedAt"`
	Subtasks    []store.Subtask `json:"subtasks"`
}

// normalizeLegacyTasks coerces a legacy flat task array into the current
// task shape. Entries may be bare strings or objects with any of several
// historical field names. Unparseable input yields nothing.
func normalizeLegacyTasks(raw []byte, now int64) []store.Task {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	out := make([]store.Task, 0, len(entries))
	for _, entry := range entries {
		var title string
		if err := json.Unmarshal(entry, &title); err == nil {
			if title == "" {
				continue
			}
			out = append(out, store.Task{
				ID:        store.GenerateID(),
				Title:     title,
				CreatedAt: now,
				UpdatedAt: now,
				Subtasks:  []store.Subtask{},
			})
			continue
		}

		var lt legacyTask
		if err := json.Unmarshal(entry, &lt); err != nil {
			continue
		}
		t := store.Task{
			ID:        lt.ID,
			Title:     lt.Title,
			Completed: lt.Completed || lt.Done,
			CreatedAt: lt.CreatedAt,
			UpdatedAt: lt.UpdatedAt,
			Subtasks:  lt.Subtasks,
		}
		if t.ID == "" {
			t.ID = store.GenerateID()
		}
		if t.Title == "" {
			t.Title = lt.Name
		}
		if t.Title == "" {
			t.Title = lt.Text
		}
		if t.Title == "" {
			t.Title = "Untitled Task"
		}
		if t.CreatedAt == 0 {
			t.CreatedAt = now
		}
		if t.UpdatedAt == 0 {
			t.UpdatedAt = now
		}
		if t.Completed {
			if lt.CompletedAt != nil {
				t.CompletedAt = lt.CompletedAt
			} else {
				ts := t.UpdatedAt
				t.CompletedAt = &ts
			}
		}
		if t.Subtasks == nil {
			t.Subtasks = []store.Subtask{}
		}
		out = append(out, t)
	}
	return out
}
