package views

import (
	"strings"
	"testing"
)

func TestRenderTodayPanelListsTasksInOrder(t *testing.T) {
	out := RenderTodayPanel(TodayPanelData{
		Date:  "2026-02-09",
		Done:  1,
		Total: 2,
		Items: []TaskItemData{
			{Position: 1, Text: "read", Done: true},
			{Position: 2, Text: "write", Selected: true},
		},
	})
	if !strings.Contains(out, "today: 2026-02-09 (1/2 done)") {
		t.Fatalf("missing header: %q", out)
	}
	first := strings.Index(out, "read")
	second := strings.Index(out, "write")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("expected tasks in insertion order: %q", out)
	}
	if !strings.Contains(out, "[x]") || !strings.Contains(out, "[ ]") {
		t.Fatalf("expected both check states: %q", out)
	}
}

func TestRenderTodayPanelEmpty(t *testing.T) {
	out := RenderTodayPanel(TodayPanelData{Date: "2026-02-09"})
	if !strings.Contains(out, "no tasks yet") {
		t.Fatalf("expected empty hint: %q", out)
	}
}

func TestRenderCalendarPanelRows(t *testing.T) {
	cells := []CalendarCellData{{Empty: true}, {Empty: true}, {Empty: true}}
	for d := 1; d <= 30; d++ {
		cells = append(cells, CalendarCellData{Day: d, HasData: d == 2, AllDone: d == 3})
	}
	out := RenderCalendarPanel(CalendarPanelData{
		Title:    "April 2026",
		Headers:  []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"},
		Cells:    cells,
		Recorded: 2,
		AllDone:  1,
	})
	if !strings.Contains(out, "calendar: April 2026") || !strings.Contains(out, "recorded: 2 | all done: 1") {
		t.Fatalf("unexpected calendar output: %q", out)
	}
	// header + actions + weekday row + 5 week rows + summary
	if lines := strings.Count(out, "\n") + 1; lines != 9 {
		t.Fatalf("expected 9 lines, got %d: %q", lines, out)
	}
	if !strings.Contains(out, "3*") || !strings.Contains(out, "2.") {
		t.Fatalf("expected completion markers: %q", out)
	}
}

func TestDayDetailMarkdown(t *testing.T) {
	md := DayDetailMarkdown(DayDetailData{
		Date:  "2026-02-09",
		Items: []SnapshotItemData{{Text: "ship *it*", Done: true}, {Text: "rest"}},
	})
	for _, want := range []string{"## 2026-02-09", `- [x] ship \*it\*`, "- [ ] rest", "1 of 2 done."} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in %q", want, md)
		}
	}

	done := DayDetailMarkdown(DayDetailData{Title: "Yesterday", Items: []SnapshotItemData{{Text: "a", Done: true}}, AllDone: true})
	if !strings.Contains(done, "## Yesterday") || !strings.Contains(done, "All done.") {
		t.Fatalf("unexpected all-done markdown: %q", done)
	}
}

func TestRenderStreakPanel(t *testing.T) {
	out := RenderStreakPanel(StreakPanelData{Current: 1, Best: 4, Badge: "2", Enabled: true})
	if !strings.Contains(out, "current: 1 day\n") || !strings.Contains(out, "best:    4 days") || !strings.Contains(out, "badge: 2") {
		t.Fatalf("unexpected streak panel: %q", out)
	}
	if off := RenderStreakPanel(StreakPanelData{}); !strings.Contains(off, "badge: off") {
		t.Fatalf("expected badge off: %q", off)
	}
}
