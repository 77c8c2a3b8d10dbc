package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/tabdo/internal/logging"
	"github.com/sandeepkv93/tabdo/internal/model"
	"go.uber.org/zap"
)

func (m Model) handleTodayKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Tasks)-1 {
			m.Cursor++
		}
	case " ", "x":
		if task, ok := m.currentTask(); ok {
			m.toggleTask(task.ID)
		}
	case "d", "delete":
		if task, ok := m.currentTask(); ok {
			m.deleteTask(task.ID)
		}
	case "ctrl+h":
		m.deleteLastIncomplete()
	case "c":
		m.clearCompleted()
	case "a", "i":
		m.startCapture()
	}
	return m
}

func (m Model) handleCaptureKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.stopCapture()
	case "enter":
		m.Capture.Input = m.addInput.Value()
		if strings.TrimSpace(m.Capture.Input) == "" {
			m.stopCapture()
			return m
		}
		m.addTask(m.Capture.Input)
		m.Capture.Input = ""
		m.addInput.SetValue("")
	case "ctrl+h":
		m.deleteLastIncomplete()
	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.addInput.SetValue(m.addInput.Value() + string(msg.Runes))
		case tea.KeySpace:
			m.addInput.SetValue(m.addInput.Value() + " ")
		default:
			var cmd tea.Cmd
			m.addInput, cmd = m.addInput.Update(msg)
			_ = cmd
		}
		m.Capture.Input = m.addInput.Value()
	}
	return m
}

func (m *Model) startCapture() {
	m.Capture.Active = true
	m.Capture.Input = ""
	m.addInput.SetValue("")
	m.addInput.Focus()
}

func (m *Model) stopCapture() {
	m.Capture.Active = false
	m.Capture.Input = ""
	m.addInput.SetValue("")
	m.addInput.Blur()
}

func (m *Model) addTask(text string) bool {
	var (
		next model.TaskList
		task model.Task
		err  error
	)
	if m.taskStore != nil {
		next, task, err = m.taskStore.Add(m.Tasks, text)
	} else {
		next, task, err = m.Tasks.Add(fmt.Sprintf("t%d", m.now().UnixNano()), text, m.now())
	}
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return false
	}
	m.log.Debug("task added", zap.String("id", task.ID), logging.Text(task.Text))
	m.Cursor = len(next) - 1
	m.afterCommit(m.commit(next), fmt.Sprintf("added: %s", task.Text))
	return true
}

func (m *Model) toggleTask(id string) {
	next, err := m.Tasks.Toggle(id)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return
	}
	m.afterCommit(m.commit(next), fmt.Sprintf("%d remaining", next.Remaining()))
}

func (m *Model) deleteTask(id string) {
	next, err := m.Tasks.Delete(id)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return
	}
	m.afterCommit(m.commit(next), "task deleted")
}

func (m *Model) deleteLastIncomplete() {
	next, removed, ok := m.Tasks.DeleteLastIncomplete()
	if !ok {
		m.Status = StatusBar{Text: "no open task to delete"}
		return
	}
	m.afterCommit(m.commit(next), fmt.Sprintf("deleted: %s", removed.Text))
}

func (m *Model) clearCompleted() {
	next, n := m.Tasks.ClearCompleted()
	if n == 0 {
		m.Status = StatusBar{Text: "nothing completed to clear"}
		return
	}
	m.afterCommit(m.commit(next), fmt.Sprintf("cleared %d completed %s", n, pluralTasks(n)))
}

func (m *Model) afterCommit(err error, okText string) {
	if err != nil {
		m.fail("save", err)
		return
	}
	m.Status = StatusBar{Text: okText}
}

func (m Model) currentTask() (model.Task, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Tasks) {
		return model.Task{}, false
	}
	return m.Tasks[m.Cursor], true
}

// taskAt resolves a 1-based list position.
func (m Model) taskAt(position int) (model.Task, bool) {
	if position < 1 || position > len(m.Tasks) {
		return model.Task{}, false
	}
	return m.Tasks[position-1], true
}

func (m *Model) clampCursor() {
	if m.Cursor >= len(m.Tasks) {
		m.Cursor = len(m.Tasks) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}
