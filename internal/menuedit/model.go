// Package menuedit is a terminal editor for boot menu definition files.
// Passwords typed into it are stored as salted hashes.
package menuedit

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stlalpha/bootmenu/internal/config"
)

const (
	labelCol   = 24 // Column where values start
	minWidth   = 80
	minHeight  = 24
	chromeRows = 5 // status, header, message, description, help
)

// editorView is the list currently on screen.
type editorView int

const (
	viewEntries editorView = iota // row 0 opens the menu settings
	viewMenu
	viewEntry
)

type editorMode int

const (
	modeNavigate editorMode = iota
	modeEdit
	modeAbortConfirm
	modeDeleteConfirm
)

// Model is the BubbleTea model for the menu editor.
type Model struct {
	file  *config.MenuFile
	path  string
	dirty bool

	view   editorView
	entry  int // entry shown in viewEntry
	cursor int
	top    int

	mode   editorMode
	width  int
	height int

	textInput  textinput.Model
	confirmYes bool
	message    string
}

// New opens the menu file at path. A missing file starts from a small
// example menu.
func New(path string) (Model, error) {
	f, fresh, err := loadMenu(path)
	if err != nil {
		return Model{}, fmt.Errorf("loading menu: %w", err)
	}

	ti := textinput.New()
	ti.CharLimit = 1023
	ti.Width = minWidth - labelCol - 4

	m := Model{
		file:      f,
		path:      path,
		dirty:     fresh,
		width:     minWidth,
		height:    minHeight,
		textInput: ti,
	}
	if fresh {
		m.message = "New file, F10 writes it"
	}
	return m, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("Boot menu editor")
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, minWidth)
		m.height = max(msg.Height, minHeight)
		m.textInput.Width = m.width - labelCol - 4
		m.scroll()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeNavigate:
			return m.updateNavigate(msg)
		case modeEdit:
			return m.updateEdit(msg)
		case modeAbortConfirm, modeDeleteConfirm:
			return m.updateConfirm(msg)
		}
	}
	return m, nil
}

func (m Model) listRows() int {
	return max(m.height-chromeRows, 1)
}

// rowCount is the number of selectable rows in the current view.
func (m Model) rowCount() int {
	switch m.view {
	case viewMenu:
		return len(menuFields)
	case viewEntry:
		return len(entryFields)
	}
	return len(m.file.Entries) + 1
}

func (m Model) fields() []field {
	if m.view == viewMenu {
		return menuFields
	}
	return entryFields
}

// scroll keeps the cursor inside the visible window.
func (m *Model) scroll() {
	rows := m.listRows()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+rows {
		m.top = m.cursor - rows + 1
	}
	m.top = max(min(m.top, m.rowCount()-rows), 0)
}

func (m Model) open(v editorView, cursor int) Model {
	m.view = v
	m.cursor = cursor
	m.top = 0
	m.scroll()
	return m
}

func (m Model) updateNavigate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""
	n := m.rowCount()
	switch msg.Type {
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < n-1 {
			m.cursor++
		}
	case tea.KeyPgUp:
		m.cursor = max(m.cursor-m.listRows(), 0)
	case tea.KeyPgDown:
		m.cursor = min(m.cursor+m.listRows(), n-1)
	case tea.KeyHome:
		m.cursor = 0
	case tea.KeyEnd:
		m.cursor = n - 1
	case tea.KeyEnter:
		return m.activate()
	case tea.KeyEscape:
		if m.view != viewEntries {
			back := 0
			if m.view == viewEntry {
				back = m.entry + 1
			}
			return m.open(viewEntries, back), nil
		}
		if !m.dirty {
			return m, tea.Quit
		}
		m.mode = modeAbortConfirm
		m.confirmYes = false
		return m, nil
	case tea.KeyInsert:
		return m.addEntry()
	case tea.KeyDelete:
		return m.askDelete()
	case tea.KeyCtrlS:
		m.save()
		return m, nil
	case tea.KeyF10:
		if m.save() {
			return m, tea.Quit
		}
		return m, nil
	default:
		if m.view == viewEntries {
			switch msg.String() {
			case "n":
				return m.addEntry()
			case "d":
				return m.askDelete()
			case "+":
				m.moveEntry(1)
			case "-":
				m.moveEntry(-1)
			}
		}
	}
	m.scroll()
	return m, nil
}

// activate handles Enter on the selected row.
func (m Model) activate() (tea.Model, tea.Cmd) {
	if m.view == viewEntries {
		if m.cursor == 0 {
			return m.open(viewMenu, 0), nil
		}
		m.entry = m.cursor - 1
		return m.open(viewEntry, 0), nil
	}

	fl := m.fields()[m.cursor]
	if fl.Kind == kindBool {
		if err := fl.set(m.file, m.entry, ""); err != nil {
			m.message = err.Error()
			return m, nil
		}
		m.dirty = true
		return m, nil
	}
	return m.startEdit(fl)
}

func (m Model) startEdit(fl field) (tea.Model, tea.Cmd) {
	m.mode = modeEdit
	if fl.Kind == kindSecret {
		m.textInput.EchoMode = textinput.EchoPassword
		m.textInput.SetValue("")
		m.message = "Type a new password, empty to remove it"
	} else {
		m.textInput.EchoMode = textinput.EchoNormal
		m.textInput.SetValue(fl.get(m.file, m.entry))
		m.message = ""
	}
	m.textInput.CursorEnd()
	m.textInput.Focus()
	return m, textinput.Blink
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		fl := m.fields()[m.cursor]
		if err := fl.set(m.file, m.entry, m.textInput.Value()); err != nil {
			m.message = err.Error()
			return m, nil
		}
		m.dirty = true
		m.message = ""
		m.mode = modeNavigate
		m.textInput.Blur()
		return m, nil
	case tea.KeyEscape:
		m.mode = modeNavigate
		m.message = ""
		m.textInput.Blur()
		return m, nil
	default:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
}

func (m Model) addEntry() (tea.Model, tea.Cmd) {
	m.file.Entries = append(m.file.Entries, config.EntryConfig{Label: newLabel(m.file)})
	m.dirty = true
	m.entry = len(m.file.Entries) - 1
	return m.open(viewEntry, 0), nil
}

// selectedEntry returns the entry the delete and move keys act on.
func (m Model) selectedEntry() int {
	switch m.view {
	case viewEntry:
		return m.entry
	case viewEntries:
		return m.cursor - 1
	}
	return -1
}

func (m Model) askDelete() (tea.Model, tea.Cmd) {
	i := m.selectedEntry()
	switch {
	case i < 0:
		return m, nil
	case len(m.file.Entries) == 1:
		m.message = "A menu needs at least one entry"
		return m, nil
	}
	m.entry = i
	m.mode = modeDeleteConfirm
	m.confirmYes = false
	return m, nil
}

func (m *Model) deleteEntry() {
	label := m.file.Entries[m.entry].Label
	m.file.Entries = append(m.file.Entries[:m.entry], m.file.Entries[m.entry+1:]...)
	if m.file.Default == label {
		m.file.Default = ""
	}
	m.dirty = true
	m.message = fmt.Sprintf("Deleted: %s", label)
	*m = m.open(viewEntries, min(m.entry+1, len(m.file.Entries)))
}

// moveEntry shifts the selected entry by delta places.
func (m *Model) moveEntry(delta int) {
	i := m.selectedEntry()
	j := i + delta
	if i < 0 || j < 0 || j >= len(m.file.Entries) {
		return
	}
	m.file.Entries[i], m.file.Entries[j] = m.file.Entries[j], m.file.Entries[i]
	m.cursor += delta
	m.dirty = true
}

// save reports whether the file was written.
func (m *Model) save() bool {
	if err := save(m.path, m.file); err != nil {
		m.message = fmt.Sprintf("ERROR: %v", err)
		return false
	}
	m.dirty = false
	m.message = fmt.Sprintf("Saved %s", m.path)
	return true
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyLeft, tea.KeyRight, tea.KeyTab:
		m.confirmYes = !m.confirmYes
	case tea.KeyEnter:
		if m.confirmYes {
			return m.executeConfirm()
		}
		m.mode = modeNavigate
	case tea.KeyEscape:
		m.mode = modeNavigate
	default:
		switch msg.String() {
		case "y", "Y":
			return m.executeConfirm()
		case "n", "N":
			m.mode = modeNavigate
		}
	}
	return m, nil
}

func (m Model) executeConfirm() (tea.Model, tea.Cmd) {
	mode := m.mode
	m.mode = modeNavigate
	switch mode {
	case modeAbortConfirm:
		return m, tea.Quit
	case modeDeleteConfirm:
		m.deleteEntry()
	}
	return m, nil
}
