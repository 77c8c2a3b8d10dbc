package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type TaskItemData struct {
	Position int
	Text     string
	Done     bool
	Selected bool
}

type TodayPanelData struct {
	Date         string
	Items        []TaskItemData
	AddView      string
	Capturing    bool
	ProgressView string
	Done         int
	Total        int
}

type StreakPanelData struct {
	Current int
	Best    int
	Badge   string
	Enabled bool
}

type CalendarCellData struct {
	Empty    bool
	Day      int
	IsToday  bool
	HasData  bool
	AllDone  bool
	Selected bool
}

type CalendarPanelData struct {
	Title    string
	Headers  []string
	Cells    []CalendarCellData
	Recorded int
	AllDone  int
}

type SnapshotItemData struct {
	Text string
	Done bool
}

type DayDetailData struct {
	Title   string
	Date    string
	Items   []SnapshotItemData
	AllDone bool
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

var (
	doneTextStyle = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("8"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cellStyle     = lipgloss.NewStyle().Width(4).Align(lipgloss.Right)
	cellDoneStyle = cellStyle.Foreground(lipgloss.Color("10")).Bold(true)
	cellOpenStyle = cellStyle.Foreground(lipgloss.Color("11"))
	cellTodayMark = lipgloss.NewStyle().Underline(true)
	cellSelStyle  = lipgloss.NewStyle().Reverse(true)
)

func RenderTodayPanel(data TodayPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("today: %s (%d/%d done)\n", data.Date, data.Done, data.Total))
	if data.ProgressView != "" {
		b.WriteString(data.ProgressView + "\n")
	}
	if data.Capturing {
		b.WriteString(data.AddView + "\n")
	} else {
		b.WriteString("actions: [a]add [space]toggle [d]delete [ctrl+h]drop last open [c]clear done\n")
	}
	if len(data.Items) == 0 {
		b.WriteString("- no tasks yet")
		return strings.TrimSpace(b.String())
	}
	for _, item := range data.Items {
		b.WriteString(renderTaskLine(item) + "\n")
	}
	return strings.TrimSpace(b.String())
}

func renderTaskLine(item TaskItemData) string {
	check := "[ ]"
	text := item.Text
	if item.Done {
		check = "[x]"
		text = doneTextStyle.Render(text)
	}
	prefix := "  "
	if item.Selected {
		prefix = cursorStyle.Render("> ")
	}
	return fmt.Sprintf("%s%2d. %s %s", prefix, item.Position, check, text)
}

func RenderStreakPanel(data StreakPanelData) string {
	var b strings.Builder
	b.WriteString("streak:\n")
	b.WriteString(fmt.Sprintf("current: %d %s\n", data.Current, dayWord(data.Current)))
	b.WriteString(fmt.Sprintf("best:    %d %s\n", data.Best, dayWord(data.Best)))
	switch {
	case !data.Enabled:
		b.WriteString("badge: off")
	case data.Badge == "":
		b.WriteString("badge: (clear)")
	default:
		b.WriteString("badge: " + data.Badge)
	}
	return b.String()
}

func dayWord(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}

func RenderCalendarPanel(data CalendarPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("calendar: %s\n", data.Title))
	b.WriteString("actions: [h/l]day [j/k]week [[/]]month [t]today [enter]details\n")

	header := make([]string, 0, len(data.Headers))
	for _, h := range data.Headers {
		header = append(header, cellStyle.Render(h))
	}
	b.WriteString(strings.Join(header, "") + "\n")

	row := make([]string, 0, 7)
	for i, cell := range data.Cells {
		row = append(row, renderCell(cell))
		if (i+1)%7 == 0 || i == len(data.Cells)-1 {
			b.WriteString(strings.Join(row, "") + "\n")
			row = row[:0]
		}
	}
	b.WriteString(fmt.Sprintf("recorded: %d | all done: %d", data.Recorded, data.AllDone))
	return b.String()
}

func renderCell(cell CalendarCellData) string {
	if cell.Empty {
		return cellStyle.Render("")
	}
	label := fmt.Sprintf("%d", cell.Day)
	switch {
	case cell.AllDone:
		label += "*"
	case cell.HasData:
		label += "."
	}
	if cell.IsToday {
		label = cellTodayMark.Render(label)
	}
	if cell.Selected {
		label = cellSelStyle.Render(label)
	}
	style := cellStyle
	if cell.AllDone {
		style = cellDoneStyle
	} else if cell.HasData {
		style = cellOpenStyle
	}
	return style.Render(label)
}

// DayDetailMarkdown formats a stored day as a markdown checklist.
func DayDetailMarkdown(data DayDetailData) string {
	var b strings.Builder
	title := data.Title
	if title == "" {
		title = data.Date
	}
	b.WriteString("## " + title + "\n\n")
	if len(data.Items) == 0 {
		b.WriteString("_No tasks were recorded._\n")
		return b.String()
	}
	for _, item := range data.Items {
		mark := " "
		if item.Done {
			mark = "x"
		}
		b.WriteString(fmt.Sprintf("- [%s] %s\n", mark, escapeMarkdown(item.Text)))
	}
	if data.AllDone {
		b.WriteString("\n**All done.**\n")
	} else {
		b.WriteString(fmt.Sprintf("\n%d of %d done.\n", countDone(data.Items), len(data.Items)))
	}
	return b.String()
}

func RenderDayDetail(data DayDetailData) string {
	return RenderMarkdown(DayDetailMarkdown(data)) + "\n" + footerStyle.Render("[esc] close")
}

func countDone(items []SnapshotItemData) int {
	n := 0
	for _, item := range items {
		if item.Done {
			n++
		}
	}
	return n
}

func escapeMarkdown(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `_`, `\_`, "`", "\\`", `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if body == "" {
		return ""
	}
	return fmt.Sprintf("[%s] %s", level, body)
}

func RenderHelpPanel(data HelpPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("help (%s):\n", data.CurrentView))
	for _, line := range data.Bindings {
		b.WriteString(line + "\n")
	}
	if data.HelpView != "" {
		b.WriteString(data.HelpView)
	}
	return strings.TrimSpace(b.String())
}
