package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/tabdo/internal/views"
)

var (
	todayHelp = []key.Binding{
		bind("a", "add tasks"),
		bind("j/k", "move"),
		bind("space", "toggle done"),
		bind("d", "delete selected"),
		bind("ctrl+h", "delete last open task"),
		bind("c", "clear completed"),
	}
	captureHelp = []key.Binding{
		bind("enter", "save, blank line stops"),
		bind("ctrl+h", "delete last open task"),
		bind("esc", "stop adding"),
	}
	calendarHelp = []key.Binding{
		bind("h/l", "day"),
		bind("j/k", "week"),
		bind("[/]", "month"),
		bind("t", "today"),
		bind("enter", "day details"),
	}
	popupHelp = []key.Binding{
		bind("esc/enter", "close"),
		bind("up/down", "scroll"),
	}
)

func bind(keys, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(keys), key.WithHelp(keys, desc))
}

// helpKeyMap shows the contextual keys in the short form and adds the global column in full.
type helpKeyMap struct {
	context []key.Binding
	global  []key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.context }
func (k helpKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.context, k.global} }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	name, keys := m.helpContext()
	lines := make([]string, 0, len(keys))
	for _, b := range keys {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("%-8s %s", h.Key, h.Desc))
	}
	full := m.helpModel
	full.ShowAll = true
	return "\n\n" + views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: name,
		Bindings:    lines,
		HelpView:    full.View(helpKeyMap{context: keys, global: m.globalHelp()}),
	})
}

// helpContext picks the bindings for whatever currently has the keyboard.
func (m Model) helpContext() (string, []key.Binding) {
	switch {
	case m.Review.Visible || m.Calendar.Detail != nil:
		return "popup", popupHelp
	case m.CurrentView == ViewToday && m.Capture.Active:
		return "adding", captureHelp
	case m.CurrentView == ViewCalendar:
		return string(ViewCalendar), calendarHelp
	default:
		return string(ViewToday), todayHelp
	}
}

func (m Model) globalHelp() []key.Binding {
	return []key.Binding{
		bind(m.Keys.Today, "today"),
		bind(m.Keys.Calendar, "calendar"),
		bind("/", "command"),
		bind(m.Keys.Help, "help"),
		bind(m.Keys.Quit, "quit"),
	}
}
