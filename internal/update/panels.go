package update

import (
	"strings"

	"github.com/sandeepkv93/tabdo/internal/badge"
	"github.com/sandeepkv93/tabdo/internal/calendar"
	"github.com/sandeepkv93/tabdo/internal/model"
	"github.com/sandeepkv93/tabdo/internal/views"
)

func (m Model) renderTodayView() string {
	items := make([]views.TaskItemData, 0, len(m.Tasks))
	for i, t := range m.Tasks {
		items = append(items, views.TaskItemData{
			Position: i + 1,
			Text:     t.Text,
			Done:     t.Done,
			Selected: i == m.Cursor && !m.Capture.Active,
		})
	}
	ratio := 0.0
	if len(m.Tasks) > 0 {
		ratio = float64(m.Tasks.Completed()) / float64(len(m.Tasks))
	}
	return views.RenderTodayPanel(views.TodayPanelData{
		Date:         m.Today.String(),
		Items:        items,
		AddView:      m.addInput.View(),
		Capturing:    m.Capture.Active,
		ProgressView: m.dayProgress.ViewAs(ratio),
		Done:         m.Tasks.Completed(),
		Total:        len(m.Tasks),
	})
}

func (m Model) renderCalendarView() string {
	cells := m.calendarCells()
	data := make([]views.CalendarCellData, 0, len(cells))
	for _, c := range cells {
		data = append(data, views.CalendarCellData{
			Empty:    c.Empty,
			Day:      c.Date.Day(),
			IsToday:  c.IsToday,
			HasData:  c.HasData,
			AllDone:  c.AllDone,
			Selected: !c.Empty && c.Date == m.Calendar.Selected,
		})
	}
	summary := calendar.Summarize(cells)
	return views.RenderCalendarPanel(views.CalendarPanelData{
		Title:    m.Calendar.Month.String(),
		Headers:  calendar.WeekdayHeaders(m.WeekStart),
		Cells:    data,
		Recorded: summary.Recorded,
		AllDone:  summary.AllDone,
	})
}

func (m Model) renderStreakView() string {
	return views.RenderStreakPanel(views.StreakPanelData{
		Current: m.Streak.Current,
		Best:    m.Streak.Best,
		Badge:   m.currentBadgeText(),
		Enabled: m.BadgeEnabled,
	})
}

// currentBadgeText prefers the live renderer's label and falls back to a local rendering.
func (m Model) currentBadgeText() string {
	if m.badgeText != nil {
		return m.badgeText()
	}
	if !m.BadgeEnabled {
		return ""
	}
	n := m.Tasks.Remaining()
	return badge.Text(&n)
}

func (m Model) renderCommandPalette() string {
	if !m.Palette.Active {
		return ""
	}
	return "\n\n" + views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

func (m Model) renderDetailPopup() string {
	return m.detailView.View() + "\n[esc] close"
}

func (m Model) renderDetailBody(snap model.DaySnapshot) string {
	return views.RenderMarkdown(views.DayDetailMarkdown(detailData(snap, "")))
}

func (m Model) renderReviewPopup() string {
	data := detailData(m.Review.Snapshot, "Yesterday ("+m.Review.Snapshot.Date.String()+")")
	return views.RenderDayDetail(data)
}

func detailData(snap model.DaySnapshot, title string) views.DayDetailData {
	items := make([]views.SnapshotItemData, 0, len(snap.Tasks))
	for _, item := range snap.Tasks {
		items = append(items, views.SnapshotItemData{Text: item.Text, Done: item.Done})
	}
	return views.DayDetailData{
		Title:   title,
		Date:    snap.Date.String(),
		Items:   items,
		AllDone: snap.AllDone,
	}
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    m.now(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
	if m.DesktopEnabled && m.notifier != nil {
		_ = m.notifier.Send(n)
	}
}

