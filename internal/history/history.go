package history

import "github.com/sandeepkv93/tabdo/internal/model"

// RecordToday returns a copy of h with today's entry replaced by a fresh snapshot of tasks.
// Entries for other days are carried over untouched.
func RecordToday(h model.DailyHistory, tasks model.TaskList, today model.Date) model.DailyHistory {
	out := h.Clone()
	out[today] = model.NewSnapshot(today, tasks)
	return out
}

// Yesterday returns the snapshot recorded for the day before today, if any.
func Yesterday(h model.DailyHistory, today model.Date) (model.DaySnapshot, bool) {
	snap, ok := h[today.AddDays(-1)]
	return snap, ok
}
