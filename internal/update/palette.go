package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/tabdo/internal/calendar"
	"github.com/sandeepkv93/tabdo/internal/commands"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
		case tea.KeySpace:
			m.commandInput.SetValue(m.commandInput.Value() + " ")
		default:
			var cmd tea.Cmd
			m.commandInput, cmd = m.commandInput.Update(msg)
			_ = cmd
		}
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.closePalette()
		return m
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			m.CurrentView = ViewToday
			if !m.addTask(a.Text) {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: m.Status.Text}
			}
			return commands.Result{Message: m.Status.Text}, m.commitError()
		},
		Toggle: func(a commands.IndexArgs) (commands.Result, error) {
			task, ok := m.taskAt(a.Position)
			if !ok {
				return commands.Result{}, noSuchTask(a.Position)
			}
			m.toggleTask(task.ID)
			return commands.Result{Message: fmt.Sprintf("toggled: %s", task.Text)}, m.commitError()
		},
		Remove: func(a commands.IndexArgs) (commands.Result, error) {
			task, ok := m.taskAt(a.Position)
			if !ok {
				return commands.Result{}, noSuchTask(a.Position)
			}
			m.deleteTask(task.ID)
			return commands.Result{Message: fmt.Sprintf("deleted: %s", task.Text)}, m.commitError()
		},
		Clear: func() (commands.Result, error) {
			m.clearCompleted()
			return commands.Result{Message: m.Status.Text}, m.commitError()
		},
		Badge: func(a commands.BadgeArgs) (commands.Result, error) {
			if err := m.setBadgeEnabled(a.Enabled); err != nil {
				return commands.Result{}, err
			}
			if a.Enabled {
				return commands.Result{Message: "badge on"}, nil
			}
			return commands.Result{Message: "badge off"}, nil
		},
		Goto: func(a commands.GotoArgs) (commands.Result, error) {
			m.CurrentView = ViewCalendar
			m.showMonth(calendar.Month{Year: a.Year, Month: a.Month})
			return commands.Result{Message: m.Status.Text}, nil
		},
		Day: func(a commands.DayArgs) (commands.Result, error) {
			m.CurrentView = ViewCalendar
			m.Calendar.Month = calendar.MonthOf(a.Date)
			m.Calendar.Selected = a.Date
			if !m.openDayDetail(a.Date) {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: m.Status.Text}
			}
			return commands.Result{Message: fmt.Sprintf("showing %s", a.Date)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
	} else {
		m.Status = StatusBar{Text: res.Message, IsError: false}
	}

	m.closePalette()
	return m
}

// commitError reports the failure left in the status bar by the last commit, if any.
func (m *Model) commitError() error {
	if m.Status.IsError {
		return errors.New(m.Status.Text)
	}
	return nil
}

func noSuchTask(position int) error {
	return &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no task at position %d", position)}
}
