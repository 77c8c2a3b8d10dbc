package calendar

import (
	"strconv"
	"time"

	"github.com/sandeepkv93/tabdo/internal/model"
)

// Cell is one slot in a month grid. Empty cells pad the first week.
type Cell struct {
	Empty   bool
	Date    model.Date
	IsToday bool
	HasData bool
	AllDone bool
}

// Month is the cursor for the displayed calendar page.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(d model.Date) Month {
	return Month{Year: d.Year(), Month: d.Month()}
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, err
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) Prev() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

func (m Month) First() model.Date {
	return model.NewDate(m.Year, m.Month, 1)
}

func (m Month) Days() int {
	return m.Next().First().AddDays(-1).Day()
}

func (m Month) Contains(d model.Date) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

func (m Month) String() string {
	return m.Month.String() + " " + strconv.Itoa(m.Year)
}

// LeadingBlanks is the number of empty cells before the 1st when weeks start on weekStart.
func LeadingBlanks(first model.Date, weekStart time.Weekday) int {
	return (int(first.Weekday()) - int(weekStart) + 7) % 7
}

// LayoutMonth builds the grid for year/month: blank padding, then one cell per day.
func LayoutMonth(h model.DailyHistory, year int, month time.Month, today model.Date, weekStart time.Weekday) []Cell {
	m := Month{Year: year, Month: month}
	first := m.First()
	blanks := LeadingBlanks(first, weekStart)
	days := m.Days()

	cells := make([]Cell, 0, blanks+days)
	for i := 0; i < blanks; i++ {
		cells = append(cells, Cell{Empty: true})
	}
	for i := 0; i < days; i++ {
		d := first.AddDays(i)
		snap, ok := h[d]
		cells = append(cells, Cell{
			Date:    d,
			IsToday: d == today,
			HasData: ok,
			AllDone: ok && snap.AllDone,
		})
	}
	return cells
}

// DayDetail returns the stored snapshot for date. ok is false when the day has no entry.
func DayDetail(h model.DailyHistory, date model.Date) (model.DaySnapshot, bool) {
	snap, ok := h[date]
	if !ok {
		return model.DaySnapshot{}, false
	}
	items := make([]model.SnapshotItem, len(snap.Tasks))
	copy(items, snap.Tasks)
	snap.Tasks = items
	return snap, true
}

// WeekdayHeaders returns two-letter weekday labels starting at weekStart.
func WeekdayHeaders(weekStart time.Weekday) []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = time.Weekday((int(weekStart) + i) % 7).String()[:2]
	}
	return out
}

// Summary counts recorded and all-done days inside one month.
type Summary struct {
	Recorded int
	AllDone  int
}

func Summarize(cells []Cell) Summary {
	var s Summary
	for _, c := range cells {
		if c.Empty || !c.HasData {
			continue
		}
		s.Recorded++
		if c.AllDone {
			s.AllDone++
		}
	}
	return s
}
