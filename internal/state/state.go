// Package state owns the in-memory dataset (folders, tasks, selection,
// filter state) and every mutation of it. All mutators persist
// synchronously to the local store and notify the sync hook on success.
package state

import (
	"errors"
	"strings"
	"sync"

	"taskdeck/store"
)

// Validation rejections. These are distinguishable outcomes, not crashes;
// no mutation happens when one is returned.
var (
	ErrEmptyName      = errors.New("list name is empty")
	ErrDuplicateName  = errors.New("a list with this name already exists")
	ErrLastFolder     = errors.New("cannot delete the only remaining list")
	ErrFolderMissing  = errors.New("list does not exist")
	ErrNoActiveFolder = errors.New("no list is selected")
	ErrEmptyTitle     = errors.New("task title is empty")
)

// MaxTitleLen is the title length cap for tasks and subtasks; longer
// titles are truncated after trimming.
const MaxTitleLen = store.MaxTitleLen

// Filter values accepted by SetFilter.
const (
	FilterAll       = "all"
	FilterActive    = "active"
	FilterCompleted = "completed"
)

// Controller is the single owner of mutable domain state. It is safe for
// concurrent use: the sync reconciler snapshots it from a timer goroutine
// while the application goroutine keeps mutating it. The mutation hook is
// always invoked outside the lock, so it may call back into the
// controller's readers.
type Controller struct {
	mu sync.RWMutex
	kv store.KV

	folders      []store.Folder
	tasks        map[string][]store.Task
	currentID    string
	lastModified int64

	filter      string
	search      string
	yearFilter  string
	monthFilter string

	// onMutate runs after every persisted dataset mutation (not after
	// filter changes). The sync reconciler hangs off this. dirty marks a
	// persisted mutation whose hook has not fired yet.
	onMutate func()
	dirty    bool

	nowFn func() int64
}

// Load builds a controller from persisted state. When the current-version
// folder collection is empty it runs the recovery probe against the
// optional secondary channel and the legacy key locations, and finally
// synthesizes a default folder so at least one always exists.
func Load(kv store.KV, secondary store.KV) *Controller {
	c := &Controller{
		kv:     kv,
		tasks:  make(map[string][]store.Task),
		filter: FilterAll,
		nowFn:  store.Now,
	}

	store.ReadJSON(kv, store.KeyFolders, &c.folders)
	store.ReadJSON(kv, store.KeyTasks, &c.tasks)
	store.ReadJSON(kv, store.KeyLastModified, &c.lastModified)
	if c.tasks == nil {
		c.tasks = make(map[string][]store.Task)
	}

	if len(c.folders) == 0 {
		c.recoverLegacy(secondary)
	}
	if len(c.folders) == 0 {
		def := store.Folder{ID: store.GenerateID(), Name: "My Tasks", CreatedAt: c.nowFn()}
		c.folders = append(c.folders, def)
		c.tasks[def.ID] = []store.Task{}
		c.persist()
	}

	store.ReadJSON(kv, store.KeyCurrentFolder, &c.currentID)
	if c.folderIndex(c.currentID) < 0 {
		c.currentID = c.folders[0].ID
		store.WriteJSON(kv, store.KeyCurrentFolder, c.currentID)
	}

	c.normalize()
	c.loadFilters()
	c.dirty = false
	return c
}

// OnMutate registers the hook invoked after every dataset mutation.
func (c *Controller) OnMutate(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMutate = fn
}

// SetNow overrides the clock, for tests.
func (c *Controller) SetNow(fn func() int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowFn = fn
}

// normalize repairs loaded task data: every folder gets a task list, a
// completed task without completedAt gets one backfilled from its other
// timestamps, and subtask lists are never nil.
func (c *Controller) normalize() {
	for _, f := range c.folders {
		list := c.tasks[f.ID]
		for i := range list {
			t := &list[i]
			if t.Completed && t.CompletedAt == nil {
				ts := t.UpdatedAt
				if ts == 0 {
					ts = t.CreatedAt
				}
				if ts == 0 {
					ts = c.nowFn()
				}
				t.CompletedAt = &ts
			}
			if !t.Completed {
				t.CompletedAt = nil
			}
			if t.Subtasks == nil {
				t.Subtasks = []store.Subtask{}
			}
		}
		if list == nil {
			list = []store.Task{}
		}
		c.tasks[f.ID] = list
	}
}

func (c *Controller) loadFilters() {
	store.ReadJSON(c.kv, store.KeyFilter, &c.filter)
	if c.filter != FilterAll && c.filter != FilterActive && c.filter != FilterCompleted {
		c.filter = FilterAll
	}
	store.ReadJSON(c.kv, store.KeySearch, &c.search)
	store.ReadJSON(c.kv, store.KeyYearFilter, &c.yearFilter)
	store.ReadJSON(c.kv, store.KeyMonthFilter, &c.monthFilter)
}

// persist writes the dataset and bumps the last-modified marker. Callers
// hold the write lock; the mutation hook fires later via notify, outside
// the lock.
func (c *Controller) persist() {
	c.lastModified = c.nowFn()
	store.WriteJSON(c.kv, store.KeyFolders, c.folders)
	store.WriteJSON(c.kv, store.KeyTasks, c.tasks)
	store.WriteJSON(c.kv, store.KeyLastModified, c.lastModified)
	c.dirty = true
}

// notify fires the mutation hook when a persist happened since the last
// call. It runs after the write lock is released so the hook can read the
// controller (snapshot, mirror) without deadlocking.
func (c *Controller) notify() {
	c.mu.Lock()
	fire := c.dirty
	c.dirty = false
	fn := c.onMutate
	c.mu.Unlock()
	if fire && fn != nil {
		fn()
	}
}

func (c *Controller) folderIndex(id string) int {
	for i := range c.folders {
		if c.folders[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) taskIndex(folderID, taskID string) int {
	for i := range c.tasks[folderID] {
		if c.tasks[folderID][i].ID == taskID {
			return i
		}
	}
	return -1
}

func (c *Controller) foldersLocked() []store.Folder {
	out := make([]store.Folder, len(c.folders))
	copy(out, c.folders)
	return out
}

func (c *Controller) tasksForLocked(folderID string) []store.Task {
	list := c.tasks[folderID]
	out := make([]store.Task, len(list))
	copy(out, list)
	return out
}

func (c *Controller) folderByNameLocked(name string) *store.Folder {
	for i := range c.folders {
		if strings.EqualFold(c.folders[i].Name, name) {
			f := c.folders[i]
			return &f
		}
	}
	return nil
}

// Folders returns a copy of the folder collection.
func (c *Controller) Folders() []store.Folder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.foldersLocked()
}

// FolderByName finds a folder by name, case-insensitively.
func (c *Controller) FolderByName(name string) *store.Folder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.folderByNameLocked(name)
}

// CurrentFolder returns the active folder, or nil when none is selected.
func (c *Controller) CurrentFolder() *store.Folder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.folderIndex(c.currentID); i >= 0 {
		f := c.folders[i]
		return &f
	}
	return nil
}

// CurrentFolderID returns the active folder's id ("" when none).
func (c *Controller) CurrentFolderID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentID
}

// CreateFolder adds a folder, gives it an empty task list and makes it the
// active folder.
func (c *Controller) CreateFolder(name string) (*store.Folder, error) {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrEmptyName
	}
	if c.folderByNameLocked(trimmed) != nil {
		return nil, ErrDuplicateName
	}
	f := store.Folder{ID: store.GenerateID(), Name: trimmed, CreatedAt: c.nowFn()}
	c.folders = append(c.folders, f)
	c.tasks[f.ID] = []store.Task{}
	c.currentID = f.ID
	store.WriteJSON(c.kv, store.KeyCurrentFolder, c.currentID)
	c.persist()
	return &f, nil
}

// RenameFolder renames a folder, enforcing the same uniqueness rule but
// excluding the folder itself from the collision check.
func (c *Controller) RenameFolder(id, name string) error {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyName
	}
	i := c.folderIndex(id)
	if i < 0 {
		return ErrFolderMissing
	}
	for j := range c.folders {
		if j != i && strings.EqualFold(c.folders[j].Name, trimmed) {
			return ErrDuplicateName
		}
	}
	c.folders[i].Name = trimmed
	c.persist()
	return nil
}

// DeleteFolder removes a folder and all of its tasks. The last remaining
// folder cannot be deleted. Confirmation happens at the caller boundary.
func (c *Controller) DeleteFolder(id string) error {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	if len(c.folders) <= 1 {
		return ErrLastFolder
	}
	i := c.folderIndex(id)
	if i < 0 {
		return ErrFolderMissing
	}
	c.folders = append(c.folders[:i], c.folders[i+1:]...)
	delete(c.tasks, id)
	if c.currentID == id {
		c.currentID = ""
		if len(c.folders) > 0 {
			c.currentID = c.folders[0].ID
		}
		store.WriteJSON(c.kv, store.KeyCurrentFolder, c.currentID)
	}
	c.persist()
	return nil
}

// SwitchFolder makes the given folder active. Unknown ids are ignored.
func (c *Controller) SwitchFolder(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.folderIndex(id) < 0 {
		return
	}
	c.currentID = id
	store.WriteJSON(c.kv, store.KeyCurrentFolder, c.currentID)
}

// Tasks returns a copy of the active folder's task list.
func (c *Controller) Tasks() []store.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tasksForLocked(c.currentID)
}

// TasksFor returns a copy of the given folder's task list.
func (c *Controller) TasksFor(folderID string) []store.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tasksForLocked(folderID)
}

// AddTask inserts a new task at the head of the active folder's list.
func (c *Controller) AddTask(title string) (*store.Task, error) {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	if c.folderIndex(c.currentID) < 0 {
		return nil, ErrNoActiveFolder
	}
	trimmed := store.CleanTitle(title)
	if trimmed == "" {
		return nil, ErrEmptyTitle
	}
	now := c.nowFn()
	t := store.Task{
		ID:        store.GenerateID(),
		Title:     trimmed,
		CreatedAt: now,
		UpdatedAt: now,
		Subtasks:  []store.Subtask{},
	}
	c.tasks[c.currentID] = append([]store.Task{t}, c.tasks[c.currentID]...)
	c.persist()
	return &t, nil
}

// TaskUpdate carries the optional fields of a task mutation. Nil fields
// are left unchanged. Setting Completed also maintains CompletedAt so the
// completed/completedAt pairing can never drift.
type TaskUpdate struct {
	Title     *string
	Completed *bool
	Subtasks  *[]store.Subtask
}

// UpdateTask merges the update into the task and refreshes updatedAt.
// A missing id is a silent no-op.
func (c *Controller) UpdateTask(id string, up TaskUpdate) {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()
	c.updateTaskLocked(id, up)
}

func (c *Controller) updateTaskLocked(id string, up TaskUpdate) {
	i := c.taskIndex(c.currentID, id)
	if i < 0 {
		return
	}
	t := &c.tasks[c.currentID][i]
	if up.Title != nil {
		trimmed := store.CleanTitle(*up.Title)
		if trimmed != "" {
			t.Title = trimmed
		}
	}
	if up.Completed != nil {
		t.Completed = *up.Completed
		if t.Completed {
			ts := c.nowFn()
			t.CompletedAt = &ts
		} else {
			t.CompletedAt = nil
		}
	}
	if up.Subtasks != nil {
		t.Subtasks = *up.Subtasks
	}
	t.UpdatedAt = c.nowFn()
	c.persist()
}

// DeleteTask removes a task from the active folder. Missing ids are a
// no-op.
func (c *Controller) DeleteTask(id string) {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	i := c.taskIndex(c.currentID, id)
	if i < 0 {
		return
	}
	list := c.tasks[c.currentID]
	c.tasks[c.currentID] = append(list[:i], list[i+1:]...)
	c.persist()
}

// ClearCompleted removes every completed task from the active folder and
// returns how many were removed. Nothing persists when none were
// completed.
func (c *Controller) ClearCompleted() int {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	list := c.tasks[c.currentID]
	kept := list[:0:0]
	for _, t := range list {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(list) - len(kept)
	if removed == 0 {
		return 0
	}
	c.tasks[c.currentID] = kept
	c.persist()
	return removed
}

// AddSubtask inserts a subtask at the head of the task's subtask list.
func (c *Controller) AddSubtask(taskID, title string) error {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	i := c.taskIndex(c.currentID, taskID)
	if i < 0 {
		return nil
	}
	trimmed := store.CleanTitle(title)
	if trimmed == "" {
		return ErrEmptyTitle
	}
	now := c.nowFn()
	sub := store.Subtask{
		ID:        store.GenerateID(),
		Title:     trimmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	list := append([]store.Subtask{sub}, c.tasks[c.currentID][i].Subtasks...)
	c.updateTaskLocked(taskID, TaskUpdate{Subtasks: &list})
	return nil
}

// SubtaskUpdate carries the optional fields of a subtask mutation.
type SubtaskUpdate struct {
	Title     *string
	Completed *bool
}

// UpdateSubtask merges the update into a subtask; any missing id is a
// silent no-op.
func (c *Controller) UpdateSubtask(taskID, subtaskID string, up SubtaskUpdate) {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	i := c.taskIndex(c.currentID, taskID)
	if i < 0 {
		return
	}
	list := append([]store.Subtask(nil), c.tasks[c.currentID][i].Subtasks...)
	for j := range list {
		if list[j].ID != subtaskID {
			continue
		}
		if up.Title != nil {
			trimmed := store.CleanTitle(*up.Title)
			if trimmed != "" {
				list[j].Title = trimmed
			}
		}
		if up.Completed != nil {
			list[j].Completed = *up.Completed
		}
		list[j].UpdatedAt = c.nowFn()
		c.updateTaskLocked(taskID, TaskUpdate{Subtasks: &list})
		return
	}
}

// DeleteSubtask removes a subtask; any missing id is a silent no-op.
func (c *Controller) DeleteSubtask(taskID, subtaskID string) {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	i := c.taskIndex(c.currentID, taskID)
	if i < 0 {
		return
	}
	old := c.tasks[c.currentID][i].Subtasks
	list := make([]store.Subtask, 0, len(old))
	found := false
	for _, s := range old {
		if s.ID == subtaskID {
			found = true
			continue
		}
		list = append(list, s)
	}
	if !found {
		return
	}
	c.updateTaskLocked(taskID, TaskUpdate{Subtasks: &list})
}

// Filter returns the active status filter.
func (c *Controller) Filter() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// SetFilter sets the status filter; invalid values are ignored.
func (c *Controller) SetFilter(filter string) {
	if filter != FilterAll && filter != FilterActive && filter != FilterCompleted {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = filter
	store.WriteJSON(c.kv, store.KeyFilter, c.filter)
}

// Search returns the active search text.
func (c *Controller) Search() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.search
}

// SetSearch sets the search text.
func (c *Controller) SetSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = strings.TrimSpace(text)
	store.WriteJSON(c.kv, store.KeySearch, c.search)
}

// YearFilter returns the active year filter ("" for all years).
func (c *Controller) YearFilter() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.yearFilter
}

// SetYearFilter sets the year filter and clears a month filter that no
// longer falls in the selected year.
func (c *Controller) SetYearFilter(year string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.yearFilter = year
	store.WriteJSON(c.kv, store.KeyYearFilter, c.yearFilter)
	if c.monthFilter != "" && (year == "" || !strings.HasPrefix(c.monthFilter, year+"-")) {
		c.monthFilter = ""
		store.WriteJSON(c.kv, store.KeyMonthFilter, c.monthFilter)
	}
}

// MonthFilter returns the active month filter ("" or "YYYY-MM").
func (c *Controller) MonthFilter() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.monthFilter
}

// SetMonthFilter sets the month filter.
func (c *Controller) SetMonthFilter(month string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.monthFilter = month
	store.WriteJSON(c.kv, store.KeyMonthFilter, c.monthFilter)
}

// LastModified returns the dataset's last-modified marker (epoch ms).
func (c *Controller) LastModified() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastModified
}

// Snapshot returns a deep copy of the dataset for pushing to the remote
// store. It is safe to call from the reconciler's timer goroutine.
func (c *Controller) Snapshot() store.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds := store.Dataset{
		Folders:      c.foldersLocked(),
		Tasks:        make(map[string][]store.Task, len(c.tasks)),
		LastModified: c.lastModified,
	}
	for id := range c.tasks {
		ds.Tasks[id] = c.tasksForLocked(id)
	}
	return ds
}

// ReplaceAll adopts a remote dataset wholesale: folders, tasks and the
// last-modified marker. It persists without bumping the marker and without
// firing the mutation hook, so adoption never echoes back as a push.
func (c *Controller) ReplaceAll(ds store.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.folders = ds.Folders
	c.tasks = ds.Tasks
	if c.tasks == nil {
		c.tasks = make(map[string][]store.Task)
	}
	c.lastModified = ds.LastModified
	if c.folderIndex(c.currentID) < 0 {
		c.currentID = ""
		if len(c.folders) > 0 {
			c.currentID = c.folders[0].ID
		}
		store.WriteJSON(c.kv, store.KeyCurrentFolder, c.currentID)
	}
	c.normalize()
	store.WriteJSON(c.kv, store.KeyFolders, c.folders)
	store.WriteJSON(c.kv, store.KeyTasks, c.tasks)
	store.WriteJSON(c.kv, store.KeyLastModified, c.lastModified)
}

// ReplaceTasks swaps a folder's task list entirely (import with replace).
func (c *Controller) ReplaceTasks(folderID string, tasks []store.Task) {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	if c.folderIndex(folderID) < 0 {
		return
	}
	if tasks == nil {
		tasks = []store.Task{}
	}
	c.tasks[folderID] = tasks
	c.persist()
}

// PrependTasks inserts tasks at the head of a folder's list (import with
// merge).
func (c *Controller) PrependTasks(folderID string, tasks []store.Task) {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	if c.folderIndex(folderID) < 0 || len(tasks) == 0 {
		return
	}
	c.tasks[folderID] = append(append([]store.Task{}, tasks...), c.tasks[folderID]...)
	c.persist()
}
