package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/tabdo/internal/calendar"
	"github.com/sandeepkv93/tabdo/internal/model"
)

func (m Model) handleCalendarKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "h", "left":
		m.moveCalendarSelection(-1)
	case "l", "right":
		m.moveCalendarSelection(1)
	case "k", "up":
		m.moveCalendarSelection(-7)
	case "j", "down":
		m.moveCalendarSelection(7)
	case "[", "p":
		m.showMonth(m.Calendar.Month.Prev())
	case "]", "n":
		m.showMonth(m.Calendar.Month.Next())
	case "t":
		m.Calendar.Month = calendar.MonthOf(m.Today)
		m.Calendar.Selected = m.Today
	case "enter":
		m.openDayDetail(m.Calendar.Selected)
	}
	return m
}

func (m Model) handleDetailKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc", "enter", "q":
		m.Calendar.Detail = nil
	default:
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		_ = cmd
	}
	return m
}

func (m Model) handleReviewKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc", "enter", " ", "q":
		m.Review.Visible = false
		m.Status = StatusBar{Text: "review dismissed"}
	}
	return m
}

func (m *Model) moveCalendarSelection(days int) {
	m.Calendar.Selected = m.Calendar.Selected.AddDays(days)
	m.Calendar.Month = calendar.MonthOf(m.Calendar.Selected)
}

// showMonth switches the grid to month, selecting its first day.
func (m *Model) showMonth(month calendar.Month) {
	m.Calendar.Month = month
	m.Calendar.Selected = month.First()
	if month.Contains(m.Today) {
		m.Calendar.Selected = m.Today
	}
	m.Status = StatusBar{Text: fmt.Sprintf("calendar: %s", month)}
}

// openDayDetail opens the popup for date. Days without a stored snapshot get no popup.
func (m *Model) openDayDetail(date model.Date) bool {
	snap, ok := calendar.DayDetail(m.History, date)
	if !ok {
		m.Calendar.Detail = nil
		m.Status = StatusBar{Text: fmt.Sprintf("no history for %s", date)}
		return false
	}
	m.Calendar.Detail = &snap
	m.detailView.SetContent(m.renderDetailBody(snap))
	m.detailView.GotoTop()
	return true
}

func (m Model) calendarCells() []calendar.Cell {
	return calendar.LayoutMonth(m.History, m.Calendar.Month.Year, m.Calendar.Month.Month, m.Today, m.WeekStart)
}
