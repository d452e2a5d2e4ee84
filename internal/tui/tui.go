// Package tui provides a terminal user interface for task management.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/query"
	"taskdeck/internal/state"
	"taskdeck/store"
)

// Focus indicates which pane has focus
type Focus int

const (
	FocusFolders Focus = iota
	FocusTasks
)

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeAddFolder
	ModeAddSubtask
	ModeEdit
	ModeSearch
	ModeHelp
	ModeConfirmDelete
)

// ReloadMsg asks the model to re-read the controller. External watchers
// send it through Program.Send when another process writes the store.
type ReloadMsg struct{}

// styles holds the theme-dependent lipgloss styles.
type styles struct {
	pane      lipgloss.Style
	selected  lipgloss.Style
	completed lipgloss.Style
	subtask   lipgloss.Style
	help      lipgloss.Style
	dialog    lipgloss.Style
	statusBar lipgloss.Style
}

func themeStyles(theme string) styles {
	border := lipgloss.Color("240")
	accent := lipgloss.Color("212")
	dim := lipgloss.Color("245")
	barBg := lipgloss.Color("236")
	barFg := lipgloss.Color("252")
	if theme == "light" {
		border = lipgloss.Color("250")
		accent = lipgloss.Color("162")
		dim = lipgloss.Color("243")
		barBg = lipgloss.Color("254")
		barFg = lipgloss.Color("235")
	}
	return styles{
		pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		completed: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(border),
		subtask: lipgloss.NewStyle().
			Foreground(dim),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		statusBar: lipgloss.NewStyle().
			Background(barBg).
			Foreground(barFg).
			Padding(0, 1),
	}
}

// Model represents the TUI state. The controller is the single source of
// truth; the model re-reads it after every mutation.
type Model struct {
	ctrl *state.Controller

	folders []store.Folder
	visible []store.Task // active folder's tasks after filters

	folderCursor int
	taskCursor   int
	focus        Focus

	mode      Mode
	textInput textinput.Model

	width  int
	height int

	st styles
}

// New creates a new TUI model over the controller.
func New(ctrl *state.Controller, theme string) *Model {
	ti := textinput.New()
	ti.Placeholder = "Enter text..."
	ti.CharLimit = state.MaxTitleLen

	m := &Model{
		ctrl:      ctrl,
		textInput: ti,
		focus:     FocusFolders,
		mode:      ModeNormal,
		st:        themeStyles(theme),
	}
	m.refresh()
	return m
}

// refresh re-reads the controller and recomputes the visible task list.
func (m *Model) refresh() {
	m.folders = m.ctrl.Folders()

	currentID := m.ctrl.CurrentFolderID()
	m.folderCursor = 0
	for i, f := range m.folders {
		if f.ID == currentID {
			m.folderCursor = i
			break
		}
	}

	m.visible = query.ApplyFilters(m.ctrl.Tasks(), query.Filters{
		Status: m.ctrl.Filter(),
		Search: m.ctrl.Search(),
		Year:   m.ctrl.YearFilter(),
		Month:  m.ctrl.MonthFilter(),
	})
	if m.taskCursor >= len(m.visible) {
		m.taskCursor = 0
	}
}

// selectedTask returns the task under the cursor, or nil.
func (m *Model) selectedTask() *store.Task {
	if m.taskCursor < 0 || m.taskCursor >= len(m.visible) {
		return nil
	}
	t := m.visible[m.taskCursor]
	return &t
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ReloadMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAdd, ModeAddFolder, ModeAddSubtask, ModeEdit, ModeSearch:
			return m.handleInputMode(msg)
		case ModeHelp:
			return m.handleHelpMode(msg)
		case ModeConfirmDelete:
			return m.handleConfirmDeleteMode(msg)
		}
		return m.handleNormalMode(msg)
	}

	if m.textInput.Focused() {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.focus == FocusFolders {
			m.focus = FocusTasks
		} else {
			m.focus = FocusFolders
		}
		return m, nil

	case "up", "k":
		if m.focus == FocusFolders {
			if m.folderCursor > 0 {
				m.ctrl.SwitchFolder(m.folders[m.folderCursor-1].ID)
				m.refresh()
			}
		} else if m.taskCursor > 0 {
			m.taskCursor--
		}
		return m, nil

	case "down", "j":
		if m.focus == FocusFolders {
			if m.folderCursor < len(m.folders)-1 {
				m.ctrl.SwitchFolder(m.folders[m.folderCursor+1].ID)
				m.refresh()
			}
		} else if m.taskCursor < len(m.visible)-1 {
			m.taskCursor++
		}
		return m, nil

	case "a":
		return m.enterInput(ModeAdd, "New task...", "")

	case "n":
		return m.enterInput(ModeAddFolder, "New list name...", "")

	case "s":
		if m.selectedTask() != nil {
			return m.enterInput(ModeAddSubtask, "New subtask...", "")
		}
		return m, nil

	case "e":
		if t := m.selectedTask(); t != nil {
			return m.enterInput(ModeEdit, "", t.Title)
		}
		return m, nil

	case "c", " ":
		if t := m.selectedTask(); t != nil {
			completed := !t.Completed
			m.ctrl.UpdateTask(t.ID, state.TaskUpdate{Completed: &completed})
			m.refresh()
		}
		return m, nil

	case "d":
		if m.selectedTask() != nil {
			m.mode = ModeConfirmDelete
		}
		return m, nil

	case "C":
		m.ctrl.ClearCompleted()
		m.refresh()
		return m, nil

	case "f":
		m.cycleFilter()
		m.refresh()
		return m, nil

	case "/":
		return m.enterInput(ModeSearch, "Search...", m.ctrl.Search())

	case "?":
		m.mode = ModeHelp
		return m, nil
	}
	return m, nil
}

func (m *Model) cycleFilter() {
	switch m.ctrl.Filter() {
	case state.FilterAll:
		m.ctrl.SetFilter(state.FilterActive)
	case state.FilterActive:
		m.ctrl.SetFilter(state.FilterCompleted)
	default:
		m.ctrl.SetFilter(state.FilterAll)
	}
}

func (m *Model) enterInput(mode Mode, placeholder, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.textInput.Reset()
	if placeholder != "" {
		m.textInput.Placeholder = placeholder
	}
	if value != "" {
		m.textInput.SetValue(value)
	}
	m.textInput.Focus()
	return m, textinput.Blink
}

func (m *Model) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEnter:
		value := strings.TrimSpace(m.textInput.Value())
		mode := m.mode
		m.mode = ModeNormal
		m.textInput.Blur()
		m.commitInput(mode, value)
		m.refresh()
		return m, nil

	case tea.KeyEsc:
		m.mode = ModeNormal
		m.textInput.Blur()
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// commitInput applies the text entered for an input mode. Validation
// rejections simply leave the dataset unchanged.
func (m *Model) commitInput(mode Mode, value string) {
	switch mode {
	case ModeAdd:
		if value != "" {
			_, _ = m.ctrl.AddTask(value)
			m.taskCursor = 0
		}
	case ModeAddFolder:
		if value != "" {
			_, _ = m.ctrl.CreateFolder(value)
		}
	case ModeAddSubtask:
		if t := m.selectedTask(); t != nil && value != "" {
			_ = m.ctrl.AddSubtask(t.ID, value)
		}
	case ModeEdit:
		if t := m.selectedTask(); t != nil && value != "" {
			m.ctrl.UpdateTask(t.ID, state.TaskUpdate{Title: &value})
		}
	case ModeSearch:
		m.ctrl.SetSearch(value)
	}
}

func (m *Model) handleHelpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.mode = ModeNormal
		return m, nil
	}
	if msg.String() == "q" {
		m.mode = ModeNormal
	}
	return m, nil
}

func (m *Model) handleConfirmDeleteMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if t := m.selectedTask(); t != nil {
			m.ctrl.DeleteTask(t.ID)
			m.refresh()
		}
		m.mode = ModeNormal
		return m, nil

	case "n", "N", "esc":
		m.mode = ModeNormal
		return m, nil
	}
	if msg.Type == tea.KeyEsc {
		m.mode = ModeNormal
	}
	return m, nil
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	switch m.mode {
	case ModeAdd, ModeAddFolder, ModeAddSubtask, ModeEdit, ModeSearch:
		return m.renderInputDialog()
	case ModeHelp:
		return m.renderHelpDialog()
	case ModeConfirmDelete:
		return m.renderConfirmDeleteDialog()
	}

	folderWidth := m.width / 4
	taskWidth := m.width - folderWidth - 4

	folderPane := m.st.pane.Width(folderWidth).Height(m.height - 4).Render(m.renderFolderPane(folderWidth - 4))
	taskPane := m.st.pane.Width(taskWidth).Height(m.height - 4).Render(m.renderTaskPane(taskWidth - 4))

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, folderPane, taskPane))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderFolderPane(width int) string {
	var b strings.Builder
	b.WriteString("Lists\n")
	b.WriteString(strings.Repeat("─", width))
	b.WriteString("\n")

	for i, f := range m.folders {
		cursor := " "
		name := f.Name
		if i == m.folderCursor {
			cursor = ">"
			if m.focus == FocusFolders {
				name = m.st.selected.Render(name)
			}
		}
		totals := query.CountTotals(m.ctrl.TasksFor(f.ID))
		b.WriteString(fmt.Sprintf("%s %s (%d)\n", cursor, name, totals.Total))
	}

	return b.String()
}

func (m *Model) renderTaskPane(width int) string {
	var b strings.Builder
	b.WriteString("Tasks\n")
	b.WriteString(strings.Repeat("─", width))
	b.WriteString("\n")

	if len(m.visible) == 0 {
		b.WriteString("No tasks\n")
		return b.String()
	}

	for i, t := range m.visible {
		cursor := " "
		if i == m.taskCursor && m.focus == FocusTasks {
			cursor = ">"
		}

		status := "[ ]"
		if t.Completed {
			status = "[✓]"
		}

		title := t.Title
		if t.Completed {
			title = m.st.completed.Render(title)
		} else if i == m.taskCursor && m.focus == FocusTasks {
			title = m.st.selected.Render(title)
		}

		b.WriteString(cursor + " " + status + " " + title + "\n")

		for _, sub := range t.Subtasks {
			subStatus := "[ ]"
			if sub.Completed {
				subStatus = "[✓]"
			}
			b.WriteString("   └─" + subStatus + " " + m.st.subtask.Render(sub.Title) + "\n")
		}
	}

	return b.String()
}

func (m *Model) renderStatusBar() string {
	left := ""
	if f := m.ctrl.CurrentFolder(); f != nil {
		totals := query.CountTotals(m.ctrl.Tasks())
		left = fmt.Sprintf("%s — %d/%d done (%d%%)", f.Name, totals.Completed, totals.Total, totals.Percent())
	}

	right := "q:quit  ?:help"
	if filter := m.ctrl.Filter(); filter != state.FilterAll {
		right = "Filter: " + filter + "  " + right
	}
	if search := m.ctrl.Search(); search != "" {
		right = "Search: " + search + "  " + right
	}

	padding := m.width - len(left) - len(right) - 2
	if padding < 1 {
		padding = 1
	}

	return m.st.statusBar.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) renderInputDialog() string {
	title := map[Mode]string{
		ModeAdd:        "Add New Task",
		ModeAddFolder:  "Create New List",
		ModeAddSubtask: "Add Subtask",
		ModeEdit:       "Edit Task",
		ModeSearch:     "Search Tasks",
	}[m.mode]

	dialog := m.st.dialog.Render(
		title + "\n\n" +
			m.textInput.View() + "\n\n" +
			m.st.help.Render("Enter: confirm  Esc: cancel"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) renderHelpDialog() string {
	help := `Help - Key Bindings

Navigation:
  j/↓    Move down
  k/↑    Move up
  Tab    Switch focus between lists/tasks

Actions:
  a      Add new task
  n      Create new list
  s      Add subtask to selected task
  e      Edit selected task
  c      Toggle task completion
  d      Delete task (with confirm)
  C      Clear completed tasks
  f      Cycle status filter
  /      Search tasks

General:
  ?      Show this help
  q      Quit

Press any key to close`

	return m.centerDialog(m.st.dialog.Render(help))
}

func (m *Model) renderConfirmDeleteDialog() string {
	dialog := m.st.dialog.Render(
		"Delete selected task?\n\n" +
			m.st.help.Render("y: yes  n: no"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) centerDialog(dialog string) string {
	lines := strings.Split(dialog, "\n")
	dialogHeight := len(lines)
	dialogWidth := 0
	for _, line := range lines {
		if len(line) > dialogWidth {
			dialogWidth = len(line)
		}
	}

	topPad := (m.height - dialogHeight) / 2
	leftPad := (m.width - dialogWidth) / 2
	if topPad < 0 {
		topPad = 0
	}
	if leftPad < 0 {
		leftPad = 0
	}

	var b strings.Builder
	for i := 0; i < topPad; i++ {
		b.WriteString("\n")
	}
	for _, line := range lines {
		b.WriteString(strings.Repeat(" ", leftPad))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
