package update

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/tabdo/internal/badge"
	"github.com/sandeepkv93/tabdo/internal/history"
	"github.com/sandeepkv93/tabdo/internal/model"
	"github.com/sandeepkv93/tabdo/internal/scheduler"
	"github.com/sandeepkv93/tabdo/internal/storage"
	"github.com/sandeepkv93/tabdo/internal/tasks"
)

type recordingSender struct {
	msgs []badge.Message
}

func (s *recordingSender) Send(msg badge.Message) bool {
	s.msgs = append(s.msgs, msg)
	return true
}

func (s *recordingSender) last() badge.Message {
	if len(s.msgs) == 0 {
		return badge.Message{}
	}
	return s.msgs[len(s.msgs)-1]
}

type recordingNotifier struct {
	sent []Notification
}

func (n *recordingNotifier) Send(note Notification) error {
	n.sent = append(n.sent, note)
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type harness struct {
	kv       *storage.SQLiteStore
	sender   *recordingSender
	notifier *recordingNotifier
	clock    *fakeClock
}

func newTestModel(t *testing.T) (Model, *harness) {
	t.Helper()
	kv, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "tabdo.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	h := &harness{
		kv:       kv,
		sender:   &recordingSender{},
		notifier: &recordingNotifier{},
		clock:    &fakeClock{now: time.Date(2026, 2, 9, 10, 0, 0, 0, time.Local)},
	}
	m := NewModel(Deps{
		Context:              context.Background(),
		KV:                   kv,
		Now:                  h.clock.Now,
		Badge:                h.sender,
		Notifier:             h.notifier,
		DesktopNotifications: true,
		WeekStart:            time.Sunday,
	})
	return m, h
}

func loadModel(t *testing.T, m Model) Model {
	t.Helper()
	return step(t, m, load(m.ctx, m.taskStore, m.histStore, m.kv))
}

func step(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	ctrlH = tea.KeyMsg{Type: tea.KeyCtrlH}
)

func addTasks(t *testing.T, m Model, texts ...string) Model {
	t.Helper()
	m = step(t, m, runes("a"))
	for _, text := range texts {
		m = step(t, m, runes(text), enter)
	}
	return step(t, m, esc)
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(Deps{})
	if m.CurrentView != ViewToday {
		t.Fatalf("expected default view %q, got %q", ViewToday, m.CurrentView)
	}
	if m.Keys.Quit != "q" || m.Keys.Calendar != "2" {
		t.Fatalf("unexpected keys: %+v", m.Keys)
	}
	if !m.BadgeEnabled {
		t.Fatal("badge should default to enabled")
	}
	if m.Tasks == nil || m.History == nil {
		t.Fatal("expected empty non-nil state")
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m := NewModel(Deps{})
	m = step(t, m, runes("2"))
	if m.CurrentView != ViewCalendar {
		t.Fatalf("expected calendar view, got %q", m.CurrentView)
	}
	m = step(t, m, runes("1"))
	if m.CurrentView != ViewToday {
		t.Fatalf("expected today view, got %q", m.CurrentView)
	}

	m = step(t, m, SwitchViewMsg{View: View("Unknown")})
	if m.CurrentView != ViewToday {
		t.Fatalf("expected view unchanged for unknown view, got %q", m.CurrentView)
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m := NewModel(Deps{})
	m = step(t, m, SetStatusMsg{Text: "ready"})
	if m.Status.Text != "ready" || m.Status.IsError {
		t.Fatalf("unexpected status: %+v", m.Status)
	}

	m = step(t, m, AppErrorMsg{Err: errors.New("boom")})
	if m.LastError == nil || m.LastError.Error() != "boom" {
		t.Fatalf("expected last error boom, got: %v", m.LastError)
	}
	if !m.Status.IsError || m.Status.Text != "boom" {
		t.Fatalf("unexpected error status: %+v", m.Status)
	}

	m = step(t, m, ClearStatusMsg{})
	if m.Status.Text != "" || m.Status.IsError {
		t.Fatalf("expected cleared status, got: %+v", m.Status)
	}
}

func TestUpdateQuitKey(t *testing.T) {
	m := NewModel(Deps{})
	updated, cmd := m.Update(runes("q"))
	next := updated.(Model)
	if !next.Quitting {
		t.Fatal("expected quitting flag true")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestLoadRecordsTodayAndSendsBadge(t *testing.T) {
	m, h := newTestModel(t)
	m = loadModel(t, m)

	if !m.Loaded {
		t.Fatal("expected model marked loaded")
	}
	today := model.NewDate(2026, time.February, 9)
	if _, ok := m.History[today]; !ok {
		t.Fatal("opening the app should record today's snapshot")
	}
	if m.History.AllDoneOn(today) {
		t.Fatal("empty day must not be all done")
	}
	if got := h.sender.last(); got.Type != badge.TypeUpdateBadge || badge.Text(got.Count) != "" {
		t.Fatalf("expected empty badge update, got %+v", got)
	}
	if m.Review.Visible {
		t.Fatal("no review without a snapshot for yesterday")
	}
}

func TestCaptureAddPersistsAndSnapshots(t *testing.T) {
	m, h := newTestModel(t)
	m = loadModel(t, m)
	m = addTasks(t, m, "water plants", "read")

	m = step(t, m, runes("a"), runes("  "), enter)
	if m.Capture.Active {
		t.Fatal("submitting blank input should leave capture mode")
	}
	if len(m.Tasks) != 2 || m.Tasks[0].Text != "water plants" || m.Tasks[1].Text != "read" {
		t.Fatalf("unexpected tasks: %+v", m.Tasks)
	}

	stored, err := tasks.NewStore(h.kv, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("reload tasks: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 persisted tasks, got %d", len(stored))
	}
	hist, err := history.NewStore(h.kv, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("reload history: %v", err)
	}
	snap := hist[m.Today]
	if len(hist) != 1 || len(snap.Tasks) != 2 || snap.AllDone {
		t.Fatalf("unexpected persisted snapshot: %+v", hist)
	}
	if got := badge.Text(h.sender.last().Count); got != "2" {
		t.Fatalf("expected badge 2, got %q", got)
	}
}

func TestToggleCompletesDayAndNotifiesOnce(t *testing.T) {
	m, h := newTestModel(t)
	m = loadModel(t, m)
	m = addTasks(t, m, "stretch")

	m = step(t, m, runes("x"))
	if !m.Tasks[0].Done {
		t.Fatal("expected task toggled done")
	}
	if !m.History.AllDoneOn(m.Today) {
		t.Fatal("expected today all done")
	}
	if m.Streak.Current != 1 || m.Streak.Best != 1 {
		t.Fatalf("unexpected streak: %+v", m.Streak)
	}
	if len(h.notifier.sent) != 1 || h.notifier.sent[0].Title != "All done" {
		t.Fatalf("expected one all-done notification, got %+v", h.notifier.sent)
	}
	if got := h.sender.last(); badge.Text(got.Count) != "" {
		t.Fatalf("expected cleared badge, got %+v", got)
	}

	m = step(t, m, runes("x"), runes("x"))
	if len(h.notifier.sent) != 2 {
		t.Fatalf("expected a second notification after reopening and completing, got %d", len(h.notifier.sent))
	}
}

func TestDeleteLastIncompleteSkipsTrailingDoneTasks(t *testing.T) {
	m, _ := newTestModel(t)
	m = loadModel(t, m)
	m = addTasks(t, m, "one", "two", "three")

	m = step(t, m, runes("x"))
	if !m.Tasks[2].Done {
		t.Fatalf("expected third task done, got %+v", m.Tasks)
	}

	m = step(t, m, ctrlH)
	if len(m.Tasks) != 2 || m.Tasks[0].Text != "one" || m.Tasks[1].Text != "three" {
		t.Fatalf("expected 'two' removed, got %+v", m.Tasks)
	}
	if !m.Tasks[1].Done {
		t.Fatal("completed task after it must be untouched")
	}
}

func TestDeleteSelectedAndClearCompleted(t *testing.T) {
	m, _ := newTestModel(t)
	m = loadModel(t, m)
	m = addTasks(t, m, "one", "two", "three")

	m = step(t, m, runes("k"), runes("x"), runes("k"), runes("d"))
	if len(m.Tasks) != 2 || m.Tasks[0].Text != "two" {
		t.Fatalf("expected 'one' deleted, got %+v", m.Tasks)
	}
	m = step(t, m, runes("c"))
	if len(m.Tasks) != 1 || m.Tasks[0].Text != "three" {
		t.Fatalf("expected completed 'two' cleared, got %+v", m.Tasks)
	}
}

func TestCalendarDetailOnlyForRecordedDays(t *testing.T) {
	m, _ := newTestModel(t)
	m = loadModel(t, m)
	m = step(t, m, runes("2"), runes("h"), enter)

	if m.Calendar.Detail != nil {
		t.Fatal("a day without history must not open a popup")
	}
	if !strings.Contains(m.Status.Text, "no history for 2026-02-08") {
		t.Fatalf("unexpected status: %q", m.Status.Text)
	}

	m = step(t, m, runes("l"), enter)
	if m.Calendar.Detail == nil || m.Calendar.Detail.Date != m.Today {
		t.Fatalf("expected detail for today, got %+v", m.Calendar.Detail)
	}
	m = step(t, m, esc)
	if m.Calendar.Detail != nil {
		t.Fatal("esc should close the detail popup")
	}
}

func TestCalendarMonthNavigationWraps(t *testing.T) {
	m, _ := newTestModel(t)
	m = step(t, m, runes("2"), runes("["), runes("["))
	if m.Calendar.Month.Year != 2025 || m.Calendar.Month.Month != time.December {
		t.Fatalf("expected December 2025, got %+v", m.Calendar.Month)
	}
	m = step(t, m, runes("]"), runes("]"), runes("]"))
	if m.Calendar.Month.Year != 2026 || m.Calendar.Month.Month != time.March {
		t.Fatalf("expected March 2026, got %+v", m.Calendar.Month)
	}
	m = step(t, m, runes("t"))
	if m.Calendar.Selected != m.Today {
		t.Fatalf("expected selection back on today, got %s", m.Calendar.Selected)
	}
}

func TestReviewShownOnceForYesterday(t *testing.T) {
	m, h := newTestModel(t)
	yesterday := model.NewDate(2026, time.February, 8)
	seed := model.DailyHistory{yesterday: model.NewSnapshot(yesterday, model.TaskList{{ID: "a", Text: "done thing", Done: true}})}
	if err := history.NewStore(h.kv, nil).Save(context.Background(), seed); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	m = loadModel(t, m)
	if !m.Review.Visible || m.Review.Snapshot.Date != yesterday {
		t.Fatalf("expected review of yesterday, got %+v", m.Review)
	}
	m = step(t, m, enter)
	if m.Review.Visible {
		t.Fatal("enter should dismiss the review")
	}

	again, _ := newTestModelSharing(t, h)
	again = loadModel(t, again)
	if again.Review.Visible {
		t.Fatal("review must not show twice on the same day")
	}
}

func newTestModelSharing(t *testing.T, h *harness) (Model, *harness) {
	t.Helper()
	m := NewModel(Deps{
		Context: context.Background(),
		KV:      h.kv,
		Now:     h.clock.Now,
		Badge:   h.sender,
	})
	return m, h
}

func TestPaletteBadgeOffPersistsFlag(t *testing.T) {
	m, h := newTestModel(t)
	m = loadModel(t, m)
	m = addTasks(t, m, "one")

	m = step(t, m, runes("/"), runes("badge off"), enter)
	if m.Palette.Active {
		t.Fatal("palette should close after executing")
	}
	if m.BadgeEnabled || m.Status.Text != "badge off" {
		t.Fatalf("unexpected state after badge off: enabled=%v status=%+v", m.BadgeEnabled, m.Status)
	}
	if h.sender.last().Count != nil {
		t.Fatalf("expected clear message, got %+v", h.sender.last())
	}
	raw, err := h.kv.Get(context.Background(), storage.KeyBadgeEnabled)
	if err != nil || badge.DecodeEnabled(raw) {
		t.Fatalf("expected stored badgeEnabled=false, got %q err=%v", raw, err)
	}
	if m.currentBadgeText() != "" {
		t.Fatal("disabled badge must render empty")
	}
}

func TestPaletteCommands(t *testing.T) {
	m, _ := newTestModel(t)
	m = loadModel(t, m)

	m = step(t, m, runes("/"), runes("add pay rent"), enter)
	if len(m.Tasks) != 1 || m.Tasks[0].Text != "pay rent" {
		t.Fatalf("expected task added from palette, got %+v", m.Tasks)
	}
	m = step(t, m, runes("/"), runes("toggle 1"), enter)
	if !m.Tasks[0].Done {
		t.Fatal("expected task toggled from palette")
	}
	m = step(t, m, runes("/"), runes("rm 5"), enter)
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "no task at position 5") {
		t.Fatalf("expected position error, got %+v", m.Status)
	}
	m = step(t, m, runes("/"), runes("goto 2025-12"), enter)
	if m.CurrentView != ViewCalendar || m.Calendar.Month.Month != time.December || m.Calendar.Month.Year != 2025 {
		t.Fatalf("expected calendar on December 2025, got %q %+v", m.CurrentView, m.Calendar.Month)
	}
	m = step(t, m, runes("/"), runes("day 2026-02-09"), enter)
	if m.Calendar.Detail == nil {
		t.Fatalf("expected day detail popup, status=%+v", m.Status)
	}
	m = step(t, m, esc, runes("/"), runes("day 2026-01-01"), enter)
	if m.Calendar.Detail != nil || !m.Status.IsError {
		t.Fatalf("expected no popup for a day without history, status=%+v", m.Status)
	}
}

func TestStorageFailureKeepsInMemoryState(t *testing.T) {
	m, h := newTestModel(t)
	m = loadModel(t, m)
	if err := h.kv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	m = addTasks(t, m, "survive")
	if len(m.Tasks) != 1 {
		t.Fatalf("expected task kept in memory, got %+v", m.Tasks)
	}
	if !m.Status.IsError || !errors.Is(m.LastError, storage.ErrClosed) {
		t.Fatalf("expected storage error surfaced, status=%+v err=%v", m.Status, m.LastError)
	}
	if _, ok := m.History[m.Today]; !ok {
		t.Fatal("history should still update in memory")
	}
}

func TestRolloverMovesToNewDay(t *testing.T) {
	m, h := newTestModel(t)
	m = loadModel(t, m)
	m = addTasks(t, m, "carry over")

	h.clock.now = time.Date(2026, 2, 10, 0, 0, 5, 0, time.Local)
	m = step(t, m, SchedulerEventMsg{Event: scheduler.Event{ID: "rollover", Kind: scheduler.KindRollover, At: h.clock.now}})

	want := model.NewDate(2026, time.February, 10)
	if m.Today != want {
		t.Fatalf("expected today %s, got %s", want, m.Today)
	}
	if len(m.History) != 2 {
		t.Fatalf("expected entries for both days, got %d", len(m.History))
	}
	if !m.Review.Visible || m.Review.Snapshot.Date != want.AddDays(-1) {
		t.Fatalf("expected review of the previous day, got %+v", m.Review)
	}
	if !strings.Contains(m.Status.Text, "new day") {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
}

func TestClearStatusEventOnlyClearsMatchingStatus(t *testing.T) {
	m := NewModel(Deps{})
	m.Status = StatusBar{Text: "badge on"}
	m = step(t, m, SchedulerEventMsg{Event: clearStatusEvent("something else", time.Now())})
	if m.Status.Text != "badge on" {
		t.Fatal("a stale clear must not wipe a newer status")
	}
	m = step(t, m, SchedulerEventMsg{Event: clearStatusEvent("badge on", time.Now())})
	if m.Status.Text != "" {
		t.Fatalf("expected status cleared, got %+v", m.Status)
	}
}

func TestStorageChangeFromAnotherWriter(t *testing.T) {
	m, _ := newTestModel(t)
	m = loadModel(t, m)
	raw := []byte(`[{"id":"x","text":"from elsewhere","done":true,"createdAt":"2026-02-09T08:00:00Z"}]`)

	m = step(t, m, StorageChangeMsg{Change: storage.Change{Key: storage.KeyTasks, NewValue: raw}})
	if len(m.Tasks) != 1 || m.Tasks[0].Text != "from elsewhere" {
		t.Fatalf("expected tasks adopted from change feed, got %+v", m.Tasks)
	}
	m = step(t, m, StorageChangeMsg{Change: storage.Change{Key: storage.KeyBadgeEnabled, NewValue: []byte("false")}})
	if m.BadgeEnabled {
		t.Fatal("expected badge flag adopted from change feed")
	}
}

func TestViewContainsCoreState(t *testing.T) {
	m, _ := newTestModel(t)
	m = loadModel(t, m)
	m = addTasks(t, m, "write tests")
	m.Status = StatusBar{Text: "all good"}

	out := m.View()
	for _, want := range []string{"tabdo | 2026-02-09", "view: Today", "write tests", "status: all good", "streak:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output: %q", want, out)
		}
	}

	m = step(t, m, runes("2"))
	if out := m.View(); !strings.Contains(out, "calendar: February 2026") {
		t.Fatalf("expected calendar panel: %q", out)
	}
}

func TestInfoStatusArmsClearAndErrorCancelsIt(t *testing.T) {
	engine := scheduler.NewEngine(4)
	m := NewModel(Deps{Scheduler: engine, Now: func() time.Time { return time.Date(2026, 2, 9, 10, 0, 0, 0, time.Local) }})

	m = step(t, m, runes("c"))
	if m.Status.Text != "nothing completed to clear" {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected a pending status clear, got %d", engine.Pending())
	}

	m.fail("save", errors.New("disk full"))
	if engine.Pending() != 0 {
		t.Fatalf("expected the stale clear cancelled, got %d", engine.Pending())
	}
}

func drainChanges(ch <-chan storage.Change) []storage.Change {
	var out []storage.Change
	for {
		select {
		case c := <-ch:
			out = append(out, c)
		default:
			return out
		}
	}
}

func TestQueuedOwnWritesDoNotRollBackLaterEdits(t *testing.T) {
	m, h := newTestModel(t)
	feed, cancel := h.kv.Subscribe(128)
	defer cancel()

	m = loadModel(t, m)
	m = addTasks(t, m, "alpha", "beta")
	queued := drainChanges(feed)

	var firstTasks storage.Change
	for _, c := range queued {
		if c.Key == storage.KeyTasks {
			firstTasks = c
			break
		}
	}
	if firstTasks.Key == "" {
		t.Fatal("expected the session's task writes on the feed")
	}

	m = step(t, m, StorageChangeMsg{Change: firstTasks})
	if len(m.Tasks) != 2 {
		t.Fatalf("an older copy of our own write replaced the list: %+v", m.Tasks)
	}

	m = addTasks(t, m, "gamma")
	for _, c := range append(queued, drainChanges(feed)...) {
		m = step(t, m, StorageChangeMsg{Change: c})
	}

	if len(m.Tasks) != 3 {
		t.Fatalf("expected 3 tasks in memory, got %+v", m.Tasks)
	}
	stored, err := tasks.NewStore(h.kv, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("reload tasks: %v", err)
	}
	var texts []string
	for _, task := range stored {
		texts = append(texts, task.Text)
	}
	if strings.Join(texts, ",") != "alpha,beta,gamma" {
		t.Fatalf("lost update: persisted %v", texts)
	}
	if snap := m.History[m.Today]; len(snap.Tasks) != 3 {
		t.Fatalf("history echo replaced today's snapshot: %+v", snap)
	}
}

func TestHistoryChangeFromAnotherWriterUpdatesStreak(t *testing.T) {
	m, _ := newTestModel(t)
	m = loadModel(t, m)

	yesterday := m.Today.AddDays(-1)
	raw, err := history.Encode(model.DailyHistory{
		yesterday: model.NewSnapshot(yesterday, model.TaskList{{ID: "a", Text: "elsewhere", Done: true, CreatedAt: time.Now()}}),
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	m = step(t, m, StorageChangeMsg{Change: storage.Change{Key: storage.KeyDailyHistory, NewValue: raw}})
	if !m.History.AllDoneOn(yesterday) {
		t.Fatalf("expected history adopted from change feed, got %+v", m.History)
	}
	if m.Streak.Current != 1 || m.Streak.Best != 1 {
		t.Fatalf("expected streak recomputed, got %+v", m.Streak)
	}
}

func TestNotifyCommandPerPlatform(t *testing.T) {
	n := Notification{Title: `All "done"`, Body: "streak 3"}
	linux := notifyCommand("linux", n)
	if linux == nil || linux.Args[0] != "notify-send" {
		t.Fatalf("unexpected linux command: %+v", linux)
	}
	if got := strings.Join(linux.Args[1:], "|"); got != `All "done"|streak 3` {
		t.Fatalf("unexpected linux args: %q", got)
	}
	darwin := notifyCommand("darwin", n)
	if darwin == nil || !strings.Contains(darwin.Args[2], `with title "All \"done\""`) {
		t.Fatalf("unexpected darwin command: %+v", darwin)
	}
	if notifyCommand("windows", n) != nil {
		t.Fatal("expected no command on unsupported platforms")
	}
}

func TestStartDetachedDoesNotWaitForExit(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	start := time.Now()
	if err := startDetached(exec.Command("sleep", "2")); err != nil {
		t.Fatalf("start: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected an immediate return, waited %s", elapsed)
	}
	if err := startDetached(exec.Command(filepath.Join(t.TempDir(), "missing-binary"))); err == nil {
		t.Fatal("expected a start error for a missing binary")
	}
}

func TestHelpFollowsKeyboardContext(t *testing.T) {
	m := NewModel(Deps{})
	if name, _ := m.helpContext(); name != string(ViewToday) {
		t.Fatalf("expected today help, got %q", name)
	}
	m = step(t, m, runes("a"))
	if name, keys := m.helpContext(); name != "adding" || keys[0].Help().Key != "enter" {
		t.Fatalf("expected capture help, got %q", name)
	}
	m = step(t, m, esc, runes("2"), runes("?"))
	if name, _ := m.helpContext(); name != string(ViewCalendar) {
		t.Fatalf("expected calendar help, got %q", name)
	}
	if out := m.renderHelpIfVisible(); !strings.Contains(out, "day details") {
		t.Fatalf("expected calendar bindings in help: %q", out)
	}
}
