package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/state"
	"taskdeck/store"
)

type memKV struct {
	m map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{m: make(map[string][]byte)}
}

func (k *memKV) Read(key string, fallback []byte) []byte {
	if v, ok := k.m[key]; ok {
		return v
	}
	return fallback
}

func (k *memKV) Write(key string, value []byte) {
	k.m[key] = value
}

func (k *memKV) Close() error { return nil }

var _ store.KV = (*memKV)(nil)

func newTestModel(t *testing.T) (*Model, *state.Controller) {
	t.Helper()
	ctrl := state.Load(newMemKV(), nil)
	if ctrl == nil {
		t.Fatal("Load returned nil controller")
	}
	m := New(ctrl, "dark")
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m, ctrl
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestAddTaskFlow(t *testing.T) {
	m, ctrl := newTestModel(t)

	press(m, "a")
	if m.mode != ModeAdd {
		t.Fatalf("mode = %v, want ModeAdd", m.mode)
	}
	typeText(m, "Buy milk")
	press(m, "enter")

	tasks := ctrl.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Errorf("tasks = %v", tasks)
	}
	if m.mode != ModeNormal {
		t.Errorf("mode = %v, want ModeNormal after commit", m.mode)
	}
	if !strings.Contains(m.View(), "Buy milk") {
		t.Error("view should show the new task")
	}
}

func TestEscCancelsInput(t *testing.T) {
	m, ctrl := newTestModel(t)

	press(m, "a")
	typeText(m, "discarded")
	press(m, "esc")

	if len(ctrl.Tasks()) != 0 {
		t.Error("esc should not commit the task")
	}
	if m.mode != ModeNormal {
		t.Errorf("mode = %v, want ModeNormal", m.mode)
	}
}

func TestToggleCompletion(t *testing.T) {
	m, ctrl := newTestModel(t)
	if _, err := ctrl.AddTask("toggle me"); err != nil {
		t.Fatalf("AddTask error: %v", err)
	}
	m.Update(ReloadMsg{})

	press(m, "tab", "c")
	if tasks := ctrl.Tasks(); !tasks[0].Completed {
		t.Error("c should complete the selected task")
	}
	if !strings.Contains(m.View(), "[✓]") {
		t.Error("view should show the completed checkbox")
	}

	press(m, "space")
	if tasks := ctrl.Tasks(); tasks[0].Completed {
		t.Error("space should reopen the task")
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	m, ctrl := newTestModel(t)
	if _, err := ctrl.AddTask("keep me"); err != nil {
		t.Fatalf("AddTask error: %v", err)
	}
	m.Update(ReloadMsg{})

	press(m, "tab", "d")
	if m.mode != ModeConfirmDelete {
		t.Fatalf("mode = %v, want ModeConfirmDelete", m.mode)
	}
	press(m, "n")
	if len(ctrl.Tasks()) != 1 {
		t.Error("declining the confirm should keep the task")
	}

	press(m, "d", "y")
	if len(ctrl.Tasks()) != 0 {
		t.Error("confirming should delete the task")
	}
}

func TestCreateFolderFlow(t *testing.T) {
	m, ctrl := newTestModel(t)

	press(m, "n")
	typeText(m, "Work")
	press(m, "enter")

	folders := ctrl.Folders()
	if len(folders) != 2 {
		t.Fatalf("len(folders) = %d, want 2", len(folders))
	}
	if f := ctrl.CurrentFolder(); f == nil || f.Name != "Work" {
		t.Errorf("current folder = %v, want Work", f)
	}
	if !strings.Contains(m.View(), "Work") {
		t.Error("view should list the new folder")
	}
}

func TestFolderNavigationSwitchesActiveFolder(t *testing.T) {
	m, ctrl := newTestModel(t)
	if _, err := ctrl.CreateFolder("Second"); err != nil {
		t.Fatalf("CreateFolder error: %v", err)
	}
	m.Update(ReloadMsg{})

	// Second is the active folder; k moves the selection up to the first.
	press(m, "k")
	if f := ctrl.CurrentFolder(); f == nil || f.Name == "Second" {
		t.Errorf("current folder = %v, want the first folder", f)
	}
	press(m, "j")
	if f := ctrl.CurrentFolder(); f == nil || f.Name != "Second" {
		t.Errorf("current folder = %v, want Second", f)
	}
}

func TestSubtaskFlow(t *testing.T) {
	m, ctrl := newTestModel(t)
	if _, err := ctrl.AddTask("parent"); err != nil {
		t.Fatalf("AddTask error: %v", err)
	}
	m.Update(ReloadMsg{})

	press(m, "tab", "s")
	typeText(m, "child")
	press(m, "enter")

	tasks := ctrl.Tasks()
	if len(tasks[0].Subtasks) != 1 || tasks[0].Subtasks[0].Title != "child" {
		t.Errorf("subtasks = %v", tasks[0].Subtasks)
	}
	if !strings.Contains(m.View(), "└─") {
		t.Error("view should indent the subtask")
	}
}

func TestFilterCycleAndStatusBar(t *testing.T) {
	m, ctrl := newTestModel(t)
	if _, err := ctrl.AddTask("active one"); err != nil {
		t.Fatalf("AddTask error: %v", err)
	}
	done, err := ctrl.AddTask("done one")
	if err != nil {
		t.Fatalf("AddTask error: %v", err)
	}
	completed := true
	ctrl.UpdateTask(done.ID, state.TaskUpdate{Completed: &completed})
	m.Update(ReloadMsg{})

	press(m, "f")
	if ctrl.Filter() != state.FilterActive {
		t.Errorf("filter = %q, want active", ctrl.Filter())
	}
	if len(m.visible) != 1 || m.visible[0].Title != "active one" {
		t.Errorf("visible = %v", m.visible)
	}
	if !strings.Contains(m.View(), "Filter: "+state.FilterActive) {
		t.Error("status bar should show the active filter")
	}

	press(m, "f", "f")
	if ctrl.Filter() != state.FilterAll {
		t.Errorf("filter = %q, want all after full cycle", ctrl.Filter())
	}
}

func TestSearchFlow(t *testing.T) {
	m, ctrl := newTestModel(t)
	if _, err := ctrl.AddTask("write spec"); err != nil {
		t.Fatalf("AddTask error: %v", err)
	}
	if _, err := ctrl.AddTask("buy milk"); err != nil {
		t.Fatalf("AddTask error: %v", err)
	}
	m.Update(ReloadMsg{})

	press(m, "/")
	typeText(m, "milk")
	press(m, "enter")

	if len(m.visible) != 1 || m.visible[0].Title != "buy milk" {
		t.Errorf("visible = %v, want only the match", m.visible)
	}
	if !strings.Contains(m.View(), "Search: milk") {
		t.Error("status bar should show the search term")
	}
}

func TestClearCompletedKey(t *testing.T) {
	m, ctrl := newTestModel(t)
	task, err := ctrl.AddTask("done")
	if err != nil {
		t.Fatalf("AddTask error: %v", err)
	}
	completed := true
	ctrl.UpdateTask(task.ID, state.TaskUpdate{Completed: &completed})
	if _, err := ctrl.AddTask("open"); err != nil {
		t.Fatalf("AddTask error: %v", err)
	}
	m.Update(ReloadMsg{})

	press(m, "C")
	tasks := ctrl.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "open" {
		t.Errorf("tasks = %v, want only the open one", tasks)
	}
}

func TestHelpDialog(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, "?")
	if m.mode != ModeHelp {
		t.Fatalf("mode = %v, want ModeHelp", m.mode)
	}
	if !strings.Contains(m.View(), "Key Bindings") {
		t.Error("help view should show the bindings")
	}
	press(m, "esc")
	if m.mode != ModeNormal {
		t.Errorf("mode = %v, want ModeNormal", m.mode)
	}
}

func TestReloadPicksUpExternalChanges(t *testing.T) {
	m, ctrl := newTestModel(t)

	// Mutation made outside the TUI, as the store watcher would observe.
	if _, err := ctrl.AddTask("external"); err != nil {
		t.Fatalf("AddTask error: %v", err)
	}
	if strings.Contains(m.View(), "external") {
		t.Fatal("view refreshed before ReloadMsg")
	}

	m.Update(ReloadMsg{})
	if !strings.Contains(m.View(), "external") {
		t.Error("ReloadMsg should refresh the visible tasks")
	}
}
