package model

import "sort"

// SnapshotItem is a copy of a task's visible state, detached from the live task id.
type SnapshotItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type DaySnapshot struct {
	Date    Date           `json:"date"`
	Tasks   []SnapshotItem `json:"tasks"`
	AllDone bool           `json:"allDone"`
}

// NewSnapshot copies text and done out of tasks and derives AllDone from the copy.
func NewSnapshot(date Date, tasks TaskList) DaySnapshot {
	items := make([]SnapshotItem, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, SnapshotItem{Text: t.Text, Done: t.Done})
	}
	return DaySnapshot{Date: date, Tasks: items, AllDone: allDone(items)}
}

// Normalize recomputes AllDone from Tasks. Stored flags are never trusted.
func (s DaySnapshot) Normalize() DaySnapshot {
	s.AllDone = allDone(s.Tasks)
	return s
}

func (s DaySnapshot) DoneCount() int {
	n := 0
	for _, item := range s.Tasks {
		if item.Done {
			n++
		}
	}
	return n
}

func allDone(items []SnapshotItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.Done {
			return false
		}
	}
	return true
}

// DailyHistory maps a calendar date to the snapshot recorded for it.
type DailyHistory map[Date]DaySnapshot

func (h DailyHistory) Clone() DailyHistory {
	out := make(DailyHistory, len(h))
	for k, v := range h {
		items := make([]SnapshotItem, len(v.Tasks))
		copy(items, v.Tasks)
		v.Tasks = items
		out[k] = v
	}
	return out
}

// AllDoneOn reports whether date has an entry and that entry is fully complete.
func (h DailyHistory) AllDoneOn(date Date) bool {
	snap, ok := h[date]
	return ok && snap.AllDone
}

func (h DailyHistory) SortedDates() []Date {
	out := make([]Date, 0, len(h))
	for d := range h {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
