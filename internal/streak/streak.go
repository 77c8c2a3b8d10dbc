package streak

import "github.com/sandeepkv93/tabdo/internal/model"

// Result holds the current and best runs of consecutive all-done days.
type Result struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

// Compute derives both streaks from h as of today. It never mutates h.
func Compute(h model.DailyHistory, today model.Date) Result {
	current := Current(h, today)
	best := Best(h)
	if current > best {
		best = current
	}
	return Result{Current: current, Best: best}
}

// Current counts back from today. An unfinished today does not break the run; it just isn't counted.
func Current(h model.DailyHistory, today model.Date) int {
	count := 0
	if h.AllDoneOn(today) {
		count++
	}
	for cursor := today.AddDays(-1); h.AllDoneOn(cursor); cursor = cursor.AddDays(-1) {
		count++
	}
	return count
}

// Best returns the longest run of calendar-adjacent all-done days among recorded entries.
func Best(h model.DailyHistory) int {
	best, run := 0, 0
	for i, d := range h.SortedDates() {
		if !h[d].AllDone {
			run = 0
			continue
		}
		if i == 0 || h.AllDoneOn(d.AddDays(-1)) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
