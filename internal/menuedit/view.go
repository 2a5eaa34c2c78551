package menuedit

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/stlalpha/bootmenu/internal/config"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("4")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))

	rowHighlightStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("5")).
				Bold(true)

	markStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	descriptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("13"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	editingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Background(lipgloss.Color("4")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Background(lipgloss.Color("4")).
			Bold(true)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("15")).
			BorderBackground(lipgloss.Color("4")).
			Foreground(lipgloss.Color("14")).
			Background(lipgloss.Color("4")).
			Padding(1, 3).
			Align(lipgloss.Center)

	dialogButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("7")).
				Background(lipgloss.Color("4"))

	dialogButtonActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("5")).
				Bold(true)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.mode == modeAbortConfirm || m.mode == modeDeleteConfirm {
		return m.renderDialog()
	}

	var b strings.Builder
	b.WriteString(m.renderStatusBar())
	b.WriteByte('\n')
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	rows := m.listRows()
	for r := 0; r < rows; r++ {
		if i := m.top + r; i < m.rowCount() {
			b.WriteString(m.renderRow(i))
		}
		b.WriteByte('\n')
	}

	b.WriteString(m.renderMessageBar())
	b.WriteByte('\n')
	b.WriteString(m.renderDescription())
	b.WriteByte('\n')
	b.WriteString(m.renderHelpBar())
	return b.String()
}

func (m Model) where() string {
	switch m.view {
	case viewMenu:
		return "Menu settings"
	case viewEntry:
		return "Entry " + m.file.Entries[m.entry].Label
	}
	return "Entries"
}

func (m Model) renderStatusBar() string {
	text := fmt.Sprintf(" Boot Menu Editor │ %s │ %s", m.where(), m.path)
	if m.dirty {
		text += " [modified]"
	}
	return statusBarStyle.Render(padOrTrunc(text, m.width))
}

func (m Model) renderHeader() string {
	if m.view == viewEntries {
		return headerStyle.Render(padOrTrunc("   Label"+strings.Repeat(" ", labelCol-8)+"Command line", m.width))
	}
	return headerStyle.Render(padOrTrunc("   Setting"+strings.Repeat(" ", labelCol-10)+"Value", m.width))
}

func (m Model) renderRow(i int) string {
	selected := i == m.cursor
	style := rowStyle
	if selected {
		style = rowHighlightStyle
	}
	valueWidth := max(m.width-labelCol, 10)

	if m.view == viewEntries {
		if i == 0 {
			return style.Render(padOrTrunc("   [Menu settings]", m.width))
		}
		return m.renderEntryRow(m.file.Entries[i-1], i-1, style, valueWidth)
	}

	fl := m.fields()[i]
	name := style.Render(padOrTrunc("   "+fl.Name, labelCol))
	if selected && m.mode == modeEdit {
		return name + m.textInput.View()
	}
	value := fl.get(m.file, m.entry)
	if fl.Kind == kindSecret {
		value = secretSummary(value)
	}
	return name + style.Render(padOrTrunc(value, valueWidth))
}

func (m Model) renderEntryRow(e config.EntryConfig, idx int, style lipgloss.Style, valueWidth int) string {
	var marks []string
	if m.file.DefaultIndex() == idx {
		marks = append(marks, "default")
	}
	if e.Password != "" {
		marks = append(marks, "password")
	}
	tail := ""
	if len(marks) > 0 {
		tail = " [" + strings.Join(marks, ",") + "]"
	}
	cmd := padOrTrunc(e.Cmdline(), max(valueWidth-runewidth.StringWidth(tail), 0))
	return style.Render(padOrTrunc("   "+e.Label, labelCol)+cmd) + markStyle.Render(tail)
}

func (m Model) renderMessageBar() string {
	if m.mode == modeEdit {
		line := fmt.Sprintf(" Editing: %s (Enter=Save, Esc=Cancel)", m.fields()[m.cursor].Name)
		if m.message != "" {
			line += "  " + m.message
		}
		return editingStyle.Render(padOrTrunc(line, m.width))
	}
	if m.message != "" {
		return messageStyle.Render(padOrTrunc(" "+m.message, m.width))
	}
	return strings.Repeat(" ", m.width)
}

func (m Model) renderDescription() string {
	var desc string
	switch {
	case m.view != viewEntries:
		desc = m.fields()[m.cursor].Description
	case m.cursor == 0:
		desc = "Title, timeouts, passwords and other menu-wide settings"
	default:
		desc = "Enter opens the entry"
	}
	pad := max((m.width-runewidth.StringWidth(desc))/2, 0)
	return strings.Repeat(" ", pad) + descriptionStyle.Render(desc)
}

func (m Model) renderHelpBar() string {
	help := " ↑↓ Move │ Enter Open │ Esc Back │ F10 Save+Quit │ ^S Save"
	if m.view == viewEntries {
		help = " ↑↓ Move │ Enter Open │ n New │ d Delete │ +/- Reorder │ F10 Save+Quit │ ^S Save │ Esc Quit"
	}
	return helpStyle.Render(padOrTrunc(help, m.width))
}

func (m Model) renderDialog() string {
	title := "Quit without saving?"
	if m.mode == modeDeleteConfirm {
		title = fmt.Sprintf("Delete entry %q?", m.file.Entries[m.entry].Label)
	}

	yes, no := dialogButtonStyle, dialogButtonActiveStyle
	if m.confirmYes {
		yes, no = no, yes
	}
	buttons := yes.Render(" Yes ") + dialogButtonStyle.Render("  ") + no.Render(" No ")

	box := dialogStyle.Render(title + "\n\n" + buttons)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// padOrTrunc pads or truncates s to exactly width cells.
func padOrTrunc(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.FillRight(s, width)
}
