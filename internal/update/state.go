package update

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/tabdo/internal/badge"
	"github.com/sandeepkv93/tabdo/internal/calendar"
	"github.com/sandeepkv93/tabdo/internal/history"
	"github.com/sandeepkv93/tabdo/internal/model"
	"github.com/sandeepkv93/tabdo/internal/storage"
	"github.com/sandeepkv93/tabdo/internal/streak"
	"github.com/sandeepkv93/tabdo/internal/tasks"
	"go.uber.org/zap"
)

func loadCmd(ctx context.Context, ts *tasks.Store, hs *history.Store, kv storage.Store) tea.Cmd {
	return func() tea.Msg {
		return load(ctx, ts, hs, kv)
	}
}

// load reads everything the UI needs. Each piece falls back to its empty default on
// failure; the first backend error is reported alongside the defaults.
func load(ctx context.Context, ts *tasks.Store, hs *history.Store, kv storage.Store) LoadedMsg {
	out := LoadedMsg{Tasks: model.TaskList{}, History: model.DailyHistory{}, BadgeEnabled: true}
	var errs []error
	if ts != nil {
		list, err := ts.Load(ctx)
		out.Tasks = list
		errs = append(errs, err)
	}
	if hs != nil {
		h, err := hs.Load(ctx)
		out.History = h
		errs = append(errs, err)

		last, ok, err := hs.LastReviewed(ctx)
		if ok {
			out.LastReviewed = last
		}
		errs = append(errs, err)
	}
	if kv != nil {
		raw, err := kv.Get(ctx, storage.KeyBadgeEnabled)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, fmt.Errorf("load badge flag: %w", err))
		}
		out.BadgeEnabled = badge.DecodeEnabled(raw)
	}
	for _, err := range errs {
		if err != nil {
			out.Err = err
			break
		}
	}
	return out
}

func (m *Model) applyLoaded(msg LoadedMsg) {
	m.Tasks = msg.Tasks
	if m.Tasks == nil {
		m.Tasks = model.TaskList{}
	}
	m.History = msg.History
	if m.History == nil {
		m.History = model.DailyHistory{}
	}
	m.BadgeEnabled = msg.BadgeEnabled
	m.Loaded = true
	if msg.Err != nil {
		m.fail("load", msg.Err)
	}
	if err := m.recordDay(); err != nil {
		m.fail("record history", err)
	}
	m.maybeReview(msg.LastReviewed)
	m.clampCursor()
}

// commit is the single path for task list changes: persist the list, snapshot today,
// recompute the streak, then tell the badge. Failures are logged and surfaced but the
// in-memory state always moves forward.
func (m *Model) commit(next model.TaskList) error {
	wasAllDone := m.History.AllDoneOn(m.Today)
	m.Tasks = next
	m.clampCursor()

	var errs []error
	if m.taskStore != nil {
		if err := m.taskStore.Save(m.ctx, next); err != nil {
			m.log.Error("save tasks failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if err := m.recordDay(); err != nil {
		errs = append(errs, err)
	}
	if !wasAllDone && m.History.AllDoneOn(m.Today) {
		m.celebrate()
	}
	return errors.Join(errs...)
}

func (m *Model) recordDay() error {
	var err error
	if m.histStore != nil {
		m.History, err = m.histStore.Record(m.ctx, m.History, m.Tasks, m.Today)
		if err != nil {
			m.log.Error("record history failed", zap.String("date", m.Today.String()), zap.Error(err))
		}
	} else {
		m.History = history.RecordToday(m.History, m.Tasks, m.Today)
	}
	m.Streak = streak.Compute(m.History, m.Today)
	m.sendBadge()
	return err
}

func (m *Model) sendBadge() {
	msg := badge.Update(m.Tasks.Remaining())
	if !m.BadgeEnabled {
		msg = badge.Clear()
	}
	if !m.sender.Send(msg) {
		m.log.Debug("badge update not delivered")
	}
}

func (m *Model) setBadgeEnabled(enabled bool) error {
	m.BadgeEnabled = enabled
	m.sendBadge()
	if m.kv == nil {
		return nil
	}
	if err := m.kv.Set(m.ctx, map[string][]byte{storage.KeyBadgeEnabled: badge.EncodeEnabled(enabled)}); err != nil {
		m.log.Error("save badge flag failed", zap.Error(err))
		return fmt.Errorf("save badge flag: %w", err)
	}
	return nil
}

// maybeReview shows yesterday's snapshot on the first open of a day.
func (m *Model) maybeReview(lastReviewed model.Date) {
	if lastReviewed == m.Today {
		return
	}
	if snap, ok := history.Yesterday(m.History, m.Today); ok {
		m.Review = ReviewState{Visible: true, Snapshot: snap}
	}
	if m.histStore != nil {
		if err := m.histStore.MarkReviewed(m.ctx, m.Today); err != nil {
			m.log.Warn("mark reviewed failed", zap.Error(err))
		}
	}
}

// rollover moves the session to the current local day when the date has changed.
func (m *Model) rollover() bool {
	today := model.Today(m.now())
	if today == m.Today {
		return false
	}
	prev := m.Today
	m.Today = today
	if m.Calendar.Month.Contains(prev) {
		m.Calendar.Month = calendar.MonthOf(today)
		m.Calendar.Selected = today
	}
	if err := m.recordDay(); err != nil {
		m.fail("record history", err)
	}
	m.maybeReview(prev)
	m.log.Info("day rollover", zap.String("from", prev.String()), zap.String("to", today.String()))
	return true
}

// applyChange adopts another writer's value for a key. A copy of one of the model's own
// recent writes is skipped: it can only be as new as the in-memory state, never newer.
func (m *Model) applyChange(c storage.Change) {
	if m.writes != nil && m.writes.seen(c.Key, c.NewValue) {
		return
	}
	switch c.Key {
	case storage.KeyTasks:
		list := tasks.Decode(c.NewValue, m.log)
		if sameTasks(list, m.Tasks) {
			return
		}
		m.Tasks = list
		m.clampCursor()
	case storage.KeyDailyHistory:
		m.History = history.Decode(c.NewValue, m.log)
	case storage.KeyBadgeEnabled:
		m.BadgeEnabled = badge.DecodeEnabled(c.NewValue)
	default:
		return
	}
	m.Streak = streak.Compute(m.History, m.Today)
}

func (m *Model) celebrate() {
	body := fmt.Sprintf("All tasks done for %s. Streak: %d %s.", m.Today, m.Streak.Current, pluralDays(m.Streak.Current))
	m.notify("All done", body, "info")
}

func (m *Model) fail(action string, err error) {
	if m.scheduler != nil && m.Status.Text != "" {
		m.scheduler.Cancel(statusEventID(m.Status.Text))
	}
	m.LastError = err
	m.Status = StatusBar{Text: fmt.Sprintf("%s: %v", action, err), IsError: true}
}
