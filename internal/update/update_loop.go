package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/tabdo/internal/scheduler"
	"github.com/sandeepkv93/tabdo/internal/storage"
	"github.com/sandeepkv93/tabdo/internal/views"
	"go.uber.org/zap"
)

const statusTTL = 4 * time.Second

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadCmd(m.ctx, m.taskStore, m.histStore, m.kv)}
	if m.scheduler != nil {
		if _, err := m.scheduler.ScheduleRollover(m.now()); err != nil {
			m.log.Warn("schedule rollover failed", zap.Error(err))
		}
		cmds = append(cmds, waitForSchedulerCmd(m.scheduler.C()))
	}
	if m.changes != nil {
		cmds = append(cmds, waitForChangeCmd(m.changes))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		keyStr := typed.String()
		if keyStr == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		if m.Palette.Active {
			next := m.handlePaletteKey(typed)
			next.armStatusClear()
			return next, nil
		}
		if m.Review.Visible {
			return m.handleReviewKey(typed), nil
		}
		if m.Calendar.Detail != nil {
			return m.handleDetailKey(typed), nil
		}
		if m.CurrentView == ViewToday && m.Capture.Active {
			return m.handleCaptureKey(typed), nil
		}

		switch keyStr {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active", IsError: false}
			return m, nil
		case m.Keys.Today:
			m.CurrentView = ViewToday
			return m, nil
		case m.Keys.Calendar:
			m.CurrentView = ViewCalendar
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown", IsError: false}
			} else {
				m.Status = StatusBar{Text: "help hidden", IsError: false}
			}
			return m, nil
		case m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		var next Model
		switch m.CurrentView {
		case ViewCalendar:
			next = m.handleCalendarKey(typed)
		default:
			next = m.handleTodayKey(typed)
		}
		if next.Status != m.Status {
			next.armStatusClear()
		}
		return next, nil
	case LoadedMsg:
		m.applyLoaded(typed)
		return m, nil
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case SchedulerEventMsg:
		switch typed.Event.Kind {
		case scheduler.KindRollover:
			if m.rollover() {
				m.Status = StatusBar{Text: fmt.Sprintf("new day: %s", m.Today)}
			}
			if m.scheduler != nil {
				if _, err := m.scheduler.ScheduleRollover(m.now()); err != nil {
					m.log.Warn("schedule rollover failed", zap.Error(err))
				}
			}
		case scheduler.KindClearStatus:
			if !m.Status.IsError && typed.Event.ID == statusEventID(m.Status.Text) {
				m.Status = StatusBar{}
			}
		}
		if m.scheduler != nil {
			return m, waitForSchedulerCmd(m.scheduler.C())
		}
		return m, nil
	case StorageChangeMsg:
		m.applyChange(typed.Change)
		if m.changes != nil {
			return m, waitForChangeCmd(m.changes)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}
	leftPane := ""
	switch m.CurrentView {
	case ViewCalendar:
		leftPane = m.renderCalendarView()
	default:
		leftPane = m.renderTodayView()
	}
	rightPane := m.renderStreakView() + m.renderCommandPalette() + m.renderHelpIfVisible()

	popup := ""
	switch {
	case m.Review.Visible:
		popup = m.renderReviewPopup()
	case m.Calendar.Detail != nil:
		popup = m.renderDetailPopup()
	}

	return views.RenderApp(views.AppData{
		Header:        fmt.Sprintf("tabdo | %s | view: %s | streak: %d", m.Today, m.CurrentView, m.Streak.Current),
		Badge:         m.currentBadgeText(),
		LeftPane:      leftPane,
		RightPane:     rightPane,
		Popup:         popup,
		StatusLine:    status,
		StatusIsError: m.Status.IsError,
		Notification:  m.renderNotificationsView(),
		Footer:        fmt.Sprintf("keys: %s today | %s calendar | / cmd | %s help | %s quit", m.Keys.Today, m.Keys.Calendar, m.Keys.Help, m.Keys.Quit),
	})
}

// armStatusClear schedules the current info status to be cleared after statusTTL.
func (m Model) armStatusClear() {
	if m.scheduler == nil || m.Status.IsError || m.Status.Text == "" {
		return
	}
	ev := clearStatusEvent(m.Status.Text, m.now().Add(statusTTL))
	if err := m.scheduler.Schedule(ev); err != nil {
		m.log.Debug("schedule status clear failed", zap.Error(err))
	}
}

func clearStatusEvent(text string, at time.Time) scheduler.Event {
	return scheduler.Event{ID: statusEventID(text), Kind: scheduler.KindClearStatus, At: at}
}

func statusEventID(text string) string {
	return "status:" + text
}

func waitForSchedulerCmd(ch <-chan scheduler.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return SchedulerEventMsg{Event: ev}
	}
}

func waitForChangeCmd(ch <-chan storage.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return StorageChangeMsg{Change: c}
	}
}

func isKnownView(v View) bool {
	switch v {
	case ViewToday, ViewCalendar:
		return true
	default:
		return false
	}
}
