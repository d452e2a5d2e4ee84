// Package store defines the domain types shared by every layer and the
// key/value persistence contract they are stored under.
package store

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Folder is a named grouping of tasks (a "list").
type Folder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

// Task is a titled, completable unit of work belonging to one folder.
// Timestamps are epoch milliseconds. CompletedAt is non-nil exactly when
// Completed is true.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Completed   bool      `json:"completed"`
	CreatedAt   int64     `json:"createdAt"`
	UpdatedAt   int64     `json:"updatedAt"`
	CompletedAt *int64    `json:"completedAt"`
	Subtasks    []Subtask `json:"subtasks"`
}

// Subtask is owned exclusively by its task and has no independent
// persistence.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Dataset is the full persisted state: every folder plus the task list of
// each, keyed by folder ID. This is also the unit of remote sync.
type Dataset struct {
	Folders      []Folder          `json:"folders"`
	Tasks        map[string][]Task `json:"tasks"`
	LastModified int64             `json:"lastModified"`
}

// Storage keys. Every collection lives under its own versioned key so a
// future schema change can introduce a new suffix without migrating in
// place.
const (
	KeyFolders       = "td_folders_v2"
	KeyTasks         = "td_tasks_v2"
	KeyCurrentFolder = "td_current_folder_v2"
	KeyFilter        = "td_filter_v1"
	KeySearch        = "td_search_v1"
	KeyMonthFilter   = "td_month_filter_v1"
	KeyYearFilter    = "td_year_filter_v1"
	KeyTheme         = "td_theme_v1"
	KeyLastModified  = "td_last_modified"
)

// LegacyTaskKeys are older, unversioned or v1-tagged locations of the flat
// task-array format, probed in order by the recovery path.
var LegacyTaskKeys = []string{"td_tasks_v1", "td_tasks", "tasks", "todo_list"}

// KV is the durable local persistence contract. Read returns the stored
// value for key, or fallback when the key is missing or the store is
// unavailable. Write is best-effort: implementations log failures and drop
// the value rather than returning an error.
type KV interface {
	Read(key string, fallback []byte) []byte
	Write(key string, value []byte)
	Close() error
}

// ReadJSON decodes the value stored under key into dst. It reports whether
// a well-formed value was found; on a missing key or malformed content dst
// is left untouched so the caller's pre-filled fallback survives.
func ReadJSON(kv KV, key string, dst interface{}) bool {
	raw := kv.Read(key, nil)
	if len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false
	}
	return true
}

// WriteJSON marshals v and stores it under key. Marshal failures are
// dropped like any other write failure.
func WriteJSON(kv KV, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	kv.Write(key, raw)
}

// MaxTitleLen caps task and subtask titles, in runes. Longer titles are
// truncated, wherever they enter the system.
const MaxTitleLen = 120

// CleanTitle trims surrounding whitespace and caps the title at
// MaxTitleLen. Truncation happens on a rune boundary so a multi-byte
// character is never split. The empty result means rejection.
func CleanTitle(title string) string {
	trimmed := strings.TrimSpace(title)
	if runes := []rune(trimmed); len(runes) > MaxTitleLen {
		trimmed = string(runes[:MaxTitleLen])
	}
	return trimmed
}

// GenerateID returns a unique identifier using UUID v4.
func GenerateID() string {
	return uuid.New().String()
}

// Now returns the current time in epoch milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// Millis converts an epoch-millisecond timestamp to a local time.Time.
func Millis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
